package gateway

import (
	"context"
	"time"
)

// UploadObject 上传请求
type UploadObject struct {
	Bucket      string
	Key         string
	LocalPath   string
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo 对象元信息
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	Metadata     map[string]string
	LastModified time.Time
}

// StorageGateway 存储网关
type StorageGateway interface {
	// Download 下载对象到本地路径
	Download(ctx context.Context, bucket, key, localPath string) error
	// Upload 上传本地文件
	Upload(ctx context.Context, obj UploadObject) error
	// SetPublic 使对象可匿名读取
	SetPublic(ctx context.Context, bucket, key string) error
	// List 列出前缀下的对象
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	Remove(ctx context.Context, bucket, key string) error
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
}
