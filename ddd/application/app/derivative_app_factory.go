package app

import (
	"fmt"
	"sync"

	"derivative-service/ddd/domain/gateway"
	"derivative-service/ddd/domain/port"
	"derivative-service/ddd/domain/service"
	"derivative-service/ddd/infrastructure/database/dao"
	"derivative-service/ddd/infrastructure/database/persistence"
	"derivative-service/ddd/infrastructure/dynamo"
	"derivative-service/ddd/infrastructure/executor"
	"derivative-service/ddd/infrastructure/notify"
	"derivative-service/ddd/infrastructure/progress"
	"derivative-service/ddd/infrastructure/storage"
	"derivative-service/internal/resource"
	"derivative-service/pkg/assert"
	"derivative-service/pkg/config"
	"derivative-service/pkg/kafka"
	"derivative-service/pkg/logger"
	"derivative-service/pkg/metrics"
)

var (
	singleDerivativeApp DerivativeApp
	onceDerivativeApp   sync.Once
)

// DefaultDerivativeApp 基于全局配置和已打开的资源装配，配置错误直接 panic
func DefaultDerivativeApp() DerivativeApp {
	assert.NotCircular()
	onceDerivativeApp.Do(func() {
		cfg := config.GetGlobalConfig()
		if cfg == nil {
			panic("global config not initialized before DerivativeApp")
		}
		app, err := BuildDerivativeApp(cfg, logger.GetGlobalLogger())
		if err != nil {
			panic(err.Error())
		}
		singleDerivativeApp = app
	})
	assert.NotNil(singleDerivativeApp)
	return singleDerivativeApp
}

// BuildDerivativeApp 按 storage/metadata driver 选择后端
func BuildDerivativeApp(cfg *config.Config, log *logger.Logger) (DerivativeApp, error) {
	store, err := newStorageGateway(cfg)
	if err != nil {
		return nil, err
	}
	metadata, err := newMetadataGateway(cfg)
	if err != nil {
		return nil, err
	}

	var sink port.ProgressSink = port.NopProgressSink{}
	if cfg.Redis.Enabled {
		sink = progress.NewRedisSink(resource.DefaultRedisResource().Client(), cfg.Redis.ProgressTTL)
	}
	var notifier gateway.CompletionNotifier = notify.NopNotifier{}
	if cfg.Kafka.Enabled {
		notifier = notify.NewKafkaNotifier(kafka.DefaultClient(), cfg.Kafka.Topics.DerivativeCompleted)
	}

	encoder := executor.NewFFmpegExecutor(cfg)
	publisher := service.NewArtifactPublisher(log, store, cfg)
	orchestrator := service.NewJobOrchestrator(log, metrics.ObserveJob,
		service.NewThumbnailJob(log, encoder, publisher, sink, cfg),
		service.NewPreviewJob(log, encoder, publisher, sink, cfg),
		service.NewAdaptivePackageJob(log, encoder, publisher, sink, cfg),
	)

	return NewDerivativeAppWith(
		log,
		service.NewEligibilityFilter(log, cfg),
		service.NewStagingManager(log, cfg.Pipeline.TempDir),
		store,
		orchestrator,
		service.NewStateReconciler(log, metadata),
		notifier,
	), nil
}

func newStorageGateway(cfg *config.Config) (gateway.StorageGateway, error) {
	switch cfg.Storage.Driver {
	case "minio":
		return storage.NewMinioStorage(resource.DefaultMinioResource()), nil
	case "s3":
		return storage.NewS3Storage(resource.DefaultAWSResource().S3()), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// newMetadataGateway driver=none 时返回 nil，reconcile 只记警告
func newMetadataGateway(cfg *config.Config) (gateway.MetadataGateway, error) {
	switch cfg.Metadata.Driver {
	case "mysql":
		return persistence.NewPostMetadataRepo(dao.NewPostDAO(resource.DefaultMysqlResource().MainDB(), cfg.Metadata.Table)), nil
	case "dynamodb":
		return dynamo.NewMetadataStore(resource.DefaultAWSResource().DynamoDB(), cfg.Metadata.Table), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown metadata driver %q", cfg.Metadata.Driver)
	}
}
