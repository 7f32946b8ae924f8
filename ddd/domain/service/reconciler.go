package service

import (
	"context"
	"time"

	"derivative-service/ddd/domain/gateway"
	"derivative-service/ddd/domain/vo"
	"derivative-service/pkg/errno"
	"derivative-service/pkg/logger"
)

// StateReconciler 将产物 URL 写回外部元数据记录，尽力而为
type StateReconciler interface {
	Reconcile(ctx context.Context, correlationID string, set vo.PublishedArtifactSet) error
}

type stateReconcilerImpl struct {
	logger   *logger.Logger
	metadata gateway.MetadataGateway
	now      func() time.Time
}

// NewStateReconciler metadata 为空时 Reconcile 返回 ErrMetadataStoreDisabled
func NewStateReconciler(log *logger.Logger, metadata gateway.MetadataGateway) StateReconciler {
	return &stateReconcilerImpl{logger: log, metadata: metadata, now: time.Now}
}

func (r *stateReconcilerImpl) Reconcile(ctx context.Context, correlationID string, set vo.PublishedArtifactSet) error {
	if r.metadata == nil {
		return errno.ErrMetadataStoreDisabled
	}
	update := gateway.MetadataUpdate{
		PreviewGenerated: set.Complete(),
		UpdatedAt:        r.now().UTC(),
	}
	update.PreviewURL, _ = set.URL(vo.KindPreview)
	update.ThumbnailURL, _ = set.URL(vo.KindThumbnail)
	update.HLSURL, _ = set.URL(vo.KindAdaptivePackage)

	if err := r.metadata.UpdateDerivatives(ctx, correlationID, update); err != nil {
		return errno.Wrap(errno.ErrMetadataReconcile, err)
	}
	r.logger.Infof("Metadata reconciled correlation_id=%s published=%d complete=%t", correlationID, set.Len(), update.PreviewGenerated)
	return nil
}
