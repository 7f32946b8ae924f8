package cqe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"derivative-service/pkg/errno"
)

func TestDecodeObjectFinalized(t *testing.T) {
	payload := []byte(`{"bucket":"media","name":"videos/u42/clip.mp4","contentType":"video/mp4","metadata":{"postId":"p-1"}}`)
	cmd, err := DecodeObjectFinalized(payload)
	require.NoError(t, err)

	src := cmd.ToSourceObject()
	assert.Equal(t, "media", src.Bucket)
	assert.Equal(t, "videos/u42/clip.mp4", src.Key)
	assert.Equal(t, "video/mp4", src.ContentType)
	assert.Equal(t, "p-1", src.CorrelationID())

	cmd.Metadata["postId"] = "changed"
	assert.Equal(t, "p-1", src.CorrelationID())
}

func TestDecodeObjectFinalized_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    *errno.Errno
	}{
		{"not json", `{"bucket":`, errno.ErrInvalidParam},
		{"missing bucket", `{"name":"videos/u/c.mp4"}`, errno.ErrBucketRequired},
		{"blank name", `{"bucket":"media","name":"  "}`, errno.ErrObjectKeyRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeObjectFinalized([]byte(tt.payload))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
