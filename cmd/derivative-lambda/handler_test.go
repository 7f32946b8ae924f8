package main

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"derivative-service/ddd/application/dto"
	"derivative-service/ddd/domain/gateway"
	"derivative-service/ddd/domain/vo"
)

type stubStat map[string]gateway.ObjectInfo

func (s stubStat) Stat(_ context.Context, _, key string) (gateway.ObjectInfo, error) {
	info, ok := s[key]
	if !ok {
		return gateway.ObjectInfo{}, errors.New("not found")
	}
	return info, nil
}

type captureApp struct{ got []vo.SourceObject }

func (c *captureApp) Process(_ context.Context, src vo.SourceObject) (*dto.DerivativeOutcomeDTO, error) {
	c.got = append(c.got, src)
	return &dto.DerivativeOutcomeDTO{Status: dto.OutcomeCompleted}, nil
}

func record(bucket, key string) events.S3EventRecord {
	var r events.S3EventRecord
	r.S3.Bucket.Name = bucket
	r.S3.Object.Key = key
	return r
}

func TestS3Handler_DecodesKeyAndEnriches(t *testing.T) {
	a := &captureApp{}
	h := &s3Handler{app: a, stat: stubStat{
		"videos/u42/my clip.mp4": {ContentType: "video/mp4", Metadata: map[string]string{"Postid": "p-9"}},
	}}

	err := h.Handle(context.Background(), events.S3Event{Records: []events.S3EventRecord{
		record("media", "videos/u42/my+clip.mp4"),
		record("media", "videos/u42/missing.mp4"),
		record("media", "videos/u42/%zz.mp4"),
	}})
	require.NoError(t, err)

	require.Len(t, a.got, 1)
	assert.Equal(t, "videos/u42/my clip.mp4", a.got[0].Key)
	assert.Equal(t, "video/mp4", a.got[0].ContentType)
	assert.Equal(t, "p-9", a.got[0].CorrelationID())
}
