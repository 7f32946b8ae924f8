package gateway

import (
	"context"
	"time"
)

// MetadataUpdate 写回外部记录的字段，空 URL 表示不修改该列
type MetadataUpdate struct {
	PreviewURL       string
	ThumbnailURL     string
	HLSURL           string
	PreviewGenerated bool
	UpdatedAt        time.Time
}

// MetadataGateway 外部元数据记录存储
type MetadataGateway interface {
	UpdateDerivatives(ctx context.Context, correlationID string, update MetadataUpdate) error
}
