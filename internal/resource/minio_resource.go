package resource

import (
	"context"
	"fmt"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"derivative-service/pkg/assert"
	"derivative-service/pkg/config"
	"derivative-service/pkg/logger"
	"derivative-service/pkg/manager"
)

// PublicTagKey / PublicTagValue 标记公开可读对象，桶策略按此标签放行匿名读
const (
	PublicTagKey   = "visibility"
	PublicTagValue = "public"
)

var (
	minioResourceOnce      sync.Once
	singletonMinioResource *MinioResource
)

// MinioResource MinIO资源管理器
type MinioResource struct {
	client     *minio.Client
	bucketName string
}

// DefaultMinioResource 获取MinIO资源单例
func DefaultMinioResource() *MinioResource {
	assert.NotCircular()
	minioResourceOnce.Do(func() {
		singletonMinioResource = &MinioResource{}
	})
	assert.NotNil(singletonMinioResource)
	return singletonMinioResource
}

// MustOpen 初始化MinIO资源
func (r *MinioResource) MustOpen() {
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized before MinioResource")
	}

	minioCfg := cfg.Minio
	if minioCfg.Endpoint == "" {
		panic("minio endpoint is required")
	}
	if cfg.Storage.Bucket == "" {
		panic("storage bucket is required")
	}

	client, err := minio.New(minioCfg.GetMinioEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(minioCfg.AccessKeyID, minioCfg.SecretAccessKey, ""),
		Secure: minioCfg.UseSSL,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to create minio client: %v", err))
	}

	r.client = client
	r.bucketName = cfg.Storage.Bucket

	r.ensureBucket()
	r.ensurePublicPolicy()

	logger.Info("MinIO resource initialized", map[string]interface{}{
		"endpoint":    minioCfg.Endpoint,
		"bucket_name": r.bucketName,
	})
}

// ensureBucket 确保桶存在
func (r *MinioResource) ensureBucket() {
	ctx := context.Background()
	exists, err := r.client.BucketExists(ctx, r.bucketName)
	if err != nil {
		panic(fmt.Sprintf("failed to check minio bucket: %v", err))
	}
	if exists {
		return
	}
	if err := r.client.MakeBucket(ctx, r.bucketName, minio.MakeBucketOptions{}); err != nil {
		panic(fmt.Sprintf("failed to create minio bucket: %v", err))
	}
}

// ensurePublicPolicy 只对带 visibility=public 标签的对象开放匿名读
func (r *MinioResource) ensurePublicPolicy() {
	if err := r.client.SetBucketPolicy(context.Background(), r.bucketName, PublicReadPolicy(r.bucketName)); err != nil {
		// 没有策略权限时仍可启动，SetPublic 会在发布时报错
		logger.Warnf("MinIO bucket policy not applied bucket=%s error=%v", r.bucketName, err)
	}
}

// PublicReadPolicy returns the bucket policy granting anonymous GetObject on
// objects tagged visibility=public.
func PublicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"],"Condition":{"StringEquals":{"s3:ExistingObjectTag/%s":["%s"]}}}]}`,
		bucket, PublicTagKey, PublicTagValue)
}

// GetClient 获取MinIO客户端
func (r *MinioResource) GetClient() *minio.Client {
	return r.client
}

// GetBucketName 获取桶名称
func (r *MinioResource) GetBucketName() string {
	return r.bucketName
}

// Close 释放资源
func (r *MinioResource) Close() {
	// minio-go客户端无需关闭连接
}

// MinioResourcePlugin MinIO资源插件
type MinioResourcePlugin struct{}

func (p *MinioResourcePlugin) Name() string {
	return "minioResource"
}

func (p *MinioResourcePlugin) Enabled(cfg *config.Config) bool {
	return cfg != nil && cfg.Storage.Driver == "minio"
}

func (p *MinioResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultMinioResource()
}
