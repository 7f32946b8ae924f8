package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"derivative-service/ddd/application/app"
	"derivative-service/ddd/infrastructure/storage"
	"derivative-service/internal/resource"
	"derivative-service/pkg/config"
	"derivative-service/pkg/logger"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err.Error())
	}
	config.SetGlobalConfig(cfg)
	logger.SetGlobalLogger(logger.NewLogger(cfg))

	aws := resource.DefaultAWSResource()
	if err := aws.Open(context.Background(), cfg.AWS); err != nil {
		logger.Fatal("AWS init failed", map[string]interface{}{"error": err.Error()})
	}
	derivative, err := app.BuildDerivativeApp(cfg, logger.GetGlobalLogger())
	if err != nil {
		logger.Fatal("Derivative app init failed", map[string]interface{}{"error": err.Error()})
	}

	h := &s3Handler{app: derivative, stat: storage.NewS3Storage(aws.S3())}
	lambda.Start(h.Handle)
}

// loadConfig CONFIG_PATH 优先，否则用默认值加少量环境变量
func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		if err := checkDrivers(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cfg := config.Default()
	cfg.Storage.Driver = "s3"
	cfg.Metadata.Driver = envOr("METADATA_DRIVER", "dynamodb")
	cfg.Metadata.Table = envOr("METADATA_TABLE_NAME", cfg.Metadata.Table)
	cfg.Public.StorageHost = envOr("PUBLIC_STORAGE_HOST", cfg.Public.StorageHost)
	cfg.Pipeline.TempDir = envOr("STAGING_DIR", "/tmp/derivative")
	cfg.Transcode.FFmpeg.BinaryPath = envOr("FFMPEG_PATH", cfg.Transcode.FFmpeg.BinaryPath)
	cfg.Transcode.FFmpeg.ProbePath = envOr("FFPROBE_PATH", cfg.Transcode.FFmpeg.ProbePath)
	cfg.AWS.Region = os.Getenv("AWS_REGION")
	cfg.Log.Format = "json"
	// Lambda 内不连接 Kafka 与 Redis
	cfg.Kafka.Enabled = false
	cfg.Redis.Enabled = false
	return cfg, checkDrivers(cfg)
}

// checkDrivers Lambda 只初始化 AWS 资源，MinIO 与 MySQL 不可用
func checkDrivers(cfg *config.Config) error {
	if cfg.Storage.Driver != "s3" {
		return fmt.Errorf("lambda requires storage.driver s3, got %q", cfg.Storage.Driver)
	}
	switch cfg.Metadata.Driver {
	case "dynamodb", "none":
		return nil
	default:
		return fmt.Errorf("lambda requires metadata.driver dynamodb or none, got %q", cfg.Metadata.Driver)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
