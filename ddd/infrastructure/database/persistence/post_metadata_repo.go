package persistence

import (
	"context"
	"errors"
	"fmt"

	"derivative-service/ddd/domain/gateway"
	"derivative-service/ddd/infrastructure/database/dao"
	"derivative-service/ddd/infrastructure/database/po"
)

// ErrPostNotFound 记录不存在时不会新建
var ErrPostNotFound = errors.New("post record not found")

type postUpdater interface {
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (int64, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// PostMetadataRepo MySQL 实现的元数据网关
type PostMetadataRepo struct {
	dao postUpdater
}

var _ gateway.MetadataGateway = (*PostMetadataRepo)(nil)

// NewPostMetadataRepo 创建元数据网关
func NewPostMetadataRepo(d *dao.PostDAO) *PostMetadataRepo {
	return &PostMetadataRepo{dao: d}
}

func (r *PostMetadataRepo) UpdateDerivatives(ctx context.Context, correlationID string, update gateway.MetadataUpdate) error {
	rows, err := r.dao.UpdateFields(ctx, correlationID, updateColumns(update))
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}
	// MySQL 默认只统计值有变化的行，重复写入相同内容时 rows 也是 0
	exists, err := r.dao.Exists(ctx, correlationID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: id=%s", ErrPostNotFound, correlationID)
	}
	return nil
}

// updateColumns 只包含已发布的 URL，缺失的列保持原值
func updateColumns(u gateway.MetadataUpdate) map[string]interface{} {
	cols := map[string]interface{}{
		po.ColumnPreviewGenerated: u.PreviewGenerated,
		po.ColumnUpdatedAt:        u.UpdatedAt,
	}
	if u.PreviewURL != "" {
		cols[po.ColumnPreviewURL] = u.PreviewURL
	}
	if u.ThumbnailURL != "" {
		cols[po.ColumnThumbnailURL] = u.ThumbnailURL
	}
	if u.HLSURL != "" {
		cols[po.ColumnHLSURL] = u.HLSURL
	}
	return cols
}
