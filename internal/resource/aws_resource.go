package resource

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"derivative-service/pkg/assert"
	"derivative-service/pkg/config"
	"derivative-service/pkg/logger"
	"derivative-service/pkg/manager"
)

var (
	awsResourceOnce      sync.Once
	singletonAWSResource *AWSResource
)

// AWSResource 共享的 AWS 配置与 S3、DynamoDB 客户端
type AWSResource struct {
	cfg    aws.Config
	s3     *s3.Client
	dynamo *dynamodb.Client
}

// DefaultAWSResource 获取AWS资源单例
func DefaultAWSResource() *AWSResource {
	assert.NotCircular()
	awsResourceOnce.Do(func() {
		singletonAWSResource = &AWSResource{}
	})
	assert.NotNil(singletonAWSResource)
	return singletonAWSResource
}

// MustOpen 使用默认凭证链加载配置
func (r *AWSResource) MustOpen() {
	if r.s3 != nil {
		return
	}
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized before AWSResource")
	}
	if err := r.Open(context.Background(), cfg.AWS); err != nil {
		panic(err.Error())
	}
	logger.Info("AWS resource initialized", map[string]interface{}{
		"region":   r.cfg.Region,
		"endpoint": cfg.AWS.Endpoint,
	})
}

// Open builds the clients; used directly by the Lambda entry point.
func (r *AWSResource) Open(ctx context.Context, ac config.AWSConfig) error {
	opts := make([]func(*awsconfig.LoadOptions) error, 0, 1)
	if ac.Region != "" {
		opts = append(opts, awsconfig.WithRegion(ac.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	r.cfg = awsCfg
	r.s3 = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if ac.Endpoint != "" {
			o.BaseEndpoint = aws.String(ac.Endpoint)
		}
		o.UsePathStyle = ac.ForcePathStyle
	})
	r.dynamo = dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if ac.Endpoint != "" {
			o.BaseEndpoint = aws.String(ac.Endpoint)
		}
	})
	return nil
}

func (r *AWSResource) S3() *s3.Client { return r.s3 }

func (r *AWSResource) DynamoDB() *dynamodb.Client { return r.dynamo }

// Close AWS SDK 客户端无需关闭
func (r *AWSResource) Close() {}

// AWSResourcePlugin AWS资源插件
type AWSResourcePlugin struct{}

func (p *AWSResourcePlugin) Name() string { return "awsResource" }

func (p *AWSResourcePlugin) Enabled(cfg *config.Config) bool {
	return cfg != nil && (cfg.Storage.Driver == "s3" || cfg.Metadata.Driver == "dynamodb")
}

func (p *AWSResourcePlugin) MustCreateResource() manager.Resource { return DefaultAWSResource() }
