package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/tags"

	"derivative-service/ddd/domain/gateway"
	"derivative-service/internal/resource"
	"derivative-service/pkg/logger"
)

// MinioStorage MinIO存储实现
type MinioStorage struct {
	client *minio.Client
}

// NewMinioStorage 创建MinIO存储实例
func NewMinioStorage(minioResource *resource.MinioResource) gateway.StorageGateway {
	return NewMinioStorageWithClient(minioResource.GetClient())
}

// NewMinioStorageWithClient 直接使用已有客户端
func NewMinioStorageWithClient(client *minio.Client) *MinioStorage {
	return &MinioStorage{client: client}
}

// Download 从MinIO下载文件到本地路径
func (s *MinioStorage) Download(ctx context.Context, bucket, key, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("create local directory failed: %w", err)
	}

	object, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		logger.Error("Failed to get object from MinIO", map[string]interface{}{
			"bucket":     bucket,
			"object_key": key,
			"error":      err.Error(),
		})
		return fmt.Errorf("get object from minio failed: %w", err)
	}
	defer object.Close()

	localFile, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create local file failed: %w", err)
	}
	defer localFile.Close()

	n, err := io.Copy(localFile, object)
	if err != nil {
		logger.Error("Failed to download file from MinIO", map[string]interface{}{
			"bucket":     bucket,
			"object_key": key,
			"local_path": localPath,
			"error":      err.Error(),
		})
		return fmt.Errorf("download file from minio failed: %w", err)
	}

	logger.Info("File downloaded successfully", map[string]interface{}{
		"object_key": key,
		"local_path": localPath,
		"size":       n,
	})
	return nil
}

// Upload 上传本地文件，自定义元数据写入 x-amz-meta-*
func (s *MinioStorage) Upload(ctx context.Context, obj gateway.UploadObject) error {
	file, err := os.Open(obj.LocalPath)
	if err != nil {
		return fmt.Errorf("open local file failed: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return fmt.Errorf("get file info failed: %w", err)
	}

	_, err = s.client.PutObject(ctx, obj.Bucket, obj.Key, file, fileInfo.Size(), minio.PutObjectOptions{
		ContentType:  obj.ContentType,
		UserMetadata: obj.Metadata,
	})
	if err != nil {
		logger.Error("Failed to upload object to MinIO", map[string]interface{}{
			"local_path": obj.LocalPath,
			"object_key": obj.Key,
			"error":      err.Error(),
		})
		return fmt.Errorf("upload object to minio failed: %w", err)
	}

	logger.Debug("Uploaded object", map[string]interface{}{
		"object_key":   obj.Key,
		"content_type": obj.ContentType,
		"size":         fileInfo.Size(),
	})
	return nil
}

// SetPublic 打上公开标签，由桶策略放行匿名读
func (s *MinioStorage) SetPublic(ctx context.Context, bucket, key string) error {
	t, err := tags.NewTags(map[string]string{resource.PublicTagKey: resource.PublicTagValue}, true)
	if err != nil {
		return err
	}
	if err := s.client.PutObjectTagging(ctx, bucket, key, t, minio.PutObjectTaggingOptions{}); err != nil {
		return fmt.Errorf("tag object public failed: %w", err)
	}
	return nil
}

func (s *MinioStorage) List(ctx context.Context, bucket, prefix string) ([]gateway.ObjectInfo, error) {
	var out []gateway.ObjectInfo
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects failed: %w", obj.Err)
		}
		out = append(out, gateway.ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			ContentType:  obj.ContentType,
			LastModified: obj.LastModified,
		})
	}
	return out, nil
}

func (s *MinioStorage) Remove(ctx context.Context, bucket, key string) error {
	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object failed: %w", err)
	}
	return nil
}

func (s *MinioStorage) Stat(ctx context.Context, bucket, key string) (gateway.ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return gateway.ObjectInfo{}, fmt.Errorf("stat object failed: %w", err)
	}
	return gateway.ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		Metadata:     info.UserMetadata,
		LastModified: info.LastModified,
	}, nil
}
