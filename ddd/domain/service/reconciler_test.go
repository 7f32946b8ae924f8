package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"derivative-service/ddd/domain/vo"
	"derivative-service/pkg/errno"
	"derivative-service/pkg/logger"
)

func TestStateReconciler_Complete(t *testing.T) {
	meta := newMemMetadata()
	r := NewStateReconciler(logger.NewNop(), meta).(*stateReconcilerImpl)
	fixed := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	set := vo.NewPublishedArtifactSet(
		vo.Published(vo.KindThumbnail, "t"),
		vo.Published(vo.KindPreview, "p"),
		vo.Published(vo.KindAdaptivePackage, "h"),
	)
	require.NoError(t, r.Reconcile(context.Background(), "post-1", set))

	u := meta.updates["post-1"]
	assert.Equal(t, "p", u.PreviewURL)
	assert.Equal(t, "t", u.ThumbnailURL)
	assert.Equal(t, "h", u.HLSURL)
	assert.True(t, u.PreviewGenerated)
	assert.Equal(t, fixed, u.UpdatedAt)
}

func TestStateReconciler_Partial(t *testing.T) {
	meta := newMemMetadata()
	r := NewStateReconciler(logger.NewNop(), meta)

	set := vo.NewPublishedArtifactSet(vo.Published(vo.KindThumbnail, "t"), vo.Published(vo.KindPreview, "p"))
	require.NoError(t, r.Reconcile(context.Background(), "post-2", set))

	u := meta.updates["post-2"]
	assert.Empty(t, u.HLSURL)
	assert.False(t, u.PreviewGenerated)
}

func TestStateReconciler_Errors(t *testing.T) {
	meta := newMemMetadata()
	meta.err = errors.New("record not found")
	r := NewStateReconciler(logger.NewNop(), meta)
	err := r.Reconcile(context.Background(), "post-3", vo.NewPublishedArtifactSet())
	assert.True(t, errors.Is(err, errno.ErrMetadataReconcile))

	err = NewStateReconciler(logger.NewNop(), nil).Reconcile(context.Background(), "x", vo.NewPublishedArtifactSet())
	assert.ErrorIs(t, err, errno.ErrMetadataStoreDisabled)
}
