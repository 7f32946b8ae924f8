package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	derivativeApp "derivative-service/ddd/application/app"
	"derivative-service/pkg/config"
	"derivative-service/pkg/logger"
	"derivative-service/pkg/manager"
	"derivative-service/pkg/middleware"
	"derivative-service/pkg/observability"

	_ "derivative-service/ddd/adapter/component"
	_ "derivative-service/ddd/adapter/http"

	// 导入资源包以触发init函数
	_ "derivative-service/internal/resource"
)

const serviceName = "derivative-service"

func Run() {
	// 先使用标准输出确保能看到日志
	fmt.Println("[STARTUP] Starting derivative service...")

	cfgPath := ResolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("[ERROR] Failed to load config (%s): %v\n", cfgPath, err)
		os.Exit(1)
	}
	// 设置全局配置（必须在资源管理器初始化之前）
	config.SetGlobalConfig(cfg)
	fmt.Printf("[STARTUP] Config file loaded: %s\n", cfgPath)

	logService := logger.NewLogger(cfg)
	logger.SetGlobalLogger(logService)
	logger.Debug("Logger initialized", map[string]interface{}{
		"level":  cfg.Log.Level,
		"format": cfg.Log.Format,
		"output": cfg.Log.Output,
	})

	if profiler := observability.StartProfiling(serviceName, cfg.Profiling); profiler != nil {
		defer profiler.Stop()
	}

	// 检查 FFmpeg 是否可用，直接在启动阶段失败
	for _, bin := range []string{cfg.Transcode.FFmpeg.BinaryPath, cfg.Transcode.FFmpeg.ProbePath} {
		if _, err := exec.LookPath(bin); err != nil {
			logger.Fatal(fmt.Sprintf("Binary not found, install it or set transcode.ffmpeg paths binary=%s error=%s", bin, err.Error()))
		}
	}

	logger.Infof("Initializing resource manager...")
	manager.MustInitResources()
	defer manager.CloseResources()

	deps := &manager.Dependencies{
		Config:        cfg,
		DerivativeApp: derivativeApp.DefaultDerivativeApp(),
	}

	logger.Infof("Initializing components...")
	manager.MustInitComponents(deps)

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestContextMiddleware())
	manager.RegisterAllRoutes(router, deps)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(fmt.Sprintf("Failed to start HTTP server error=%v", err))
		}
	}()
	logger.Infof("HTTP server started addr=%s service=%s", server.Addr, serviceName)

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Received shutdown signal, shutting down server...")
	manager.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to close error=%v", err)
	}

	logger.Infof("Server exited safely")
	logService.Close()
}

// ResolveConfigPath 根据环境选择配置文件，支持CONFIG_PATH覆盖、CONFIG_ENV区分环境
func ResolveConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	env := strings.ToLower(strings.TrimSpace(os.Getenv("CONFIG_ENV")))
	if env == "" {
		env = "dev"
	}

	switch env {
	case "prod", "production":
		return "configs/config.prod.yaml"
	case "dev", "development":
		return "configs/config.dev.yaml"
	default:
		return fmt.Sprintf("configs/config.%s.yaml", env)
	}
}
