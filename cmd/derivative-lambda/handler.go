package main

import (
	"context"
	"net/url"

	"github.com/aws/aws-lambda-go/events"

	"derivative-service/ddd/application/app"
	"derivative-service/ddd/domain/gateway"
	"derivative-service/ddd/domain/vo"
	"derivative-service/pkg/logger"
)

// objectStater is the Stat half of the storage gateway.
type objectStater interface {
	Stat(ctx context.Context, bucket, key string) (gateway.ObjectInfo, error)
}

// s3Handler S3 通知不带 content type 和用户元数据，需要先 HeadObject
type s3Handler struct {
	app  app.DerivativeApp
	stat objectStater
}

// Handle 单条记录失败只记日志，继续处理批次中的其他记录
func (h *s3Handler) Handle(ctx context.Context, event events.S3Event) error {
	for _, record := range event.Records {
		bucket := record.S3.Bucket.Name
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			logger.Warnf("Undecodable object key key=%s error=%v", record.S3.Object.Key, err)
			continue
		}

		info, err := h.stat.Stat(ctx, bucket, key)
		if err != nil {
			logger.Errorf("Stat failed bucket=%s key=%s error=%v", bucket, key, err)
			continue
		}

		out, err := h.app.Process(ctx, vo.SourceObject{
			Bucket:      bucket,
			Key:         key,
			ContentType: info.ContentType,
			Metadata:    info.Metadata,
		})
		if err != nil {
			logger.Errorf("Derivation failed bucket=%s key=%s error=%v", bucket, key, err)
			continue
		}
		logger.Infof("Derivation done bucket=%s key=%s status=%s", bucket, key, out.Status)
	}
	return nil
}
