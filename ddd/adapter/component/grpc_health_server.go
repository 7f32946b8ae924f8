package component

import (
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"derivative-service/pkg/config"
	"derivative-service/pkg/logger"
	"derivative-service/pkg/manager"
)

// ServiceName 健康检查与注册使用的服务名
const ServiceName = "derivative-service"

type GRPCHealthServerPlugin struct{}

func (p *GRPCHealthServerPlugin) Name() string { return "grpcHealthServer" }

func (p *GRPCHealthServerPlugin) Enabled(cfg *config.Config) bool {
	return cfg != nil && cfg.GRPCServer.Enabled
}

func (p *GRPCHealthServerPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	cfg := deps.Config
	return &grpcHealthServer{addr: fmt.Sprintf("%s:%d", cfg.GRPCServer.Host, cfg.GRPCServer.Port)}
}

// grpcHealthServer 只暴露标准 grpc.health.v1 服务，供编排平台探活
type grpcHealthServer struct {
	addr   string
	server *grpc.Server
	health *health.Server
	lis    net.Listener
}

func (s *grpcHealthServer) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen grpc %s: %w", s.addr, err)
	}
	s.lis = lis
	s.server = grpc.NewServer()
	s.health = health.NewServer()
	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		logger.Infof("gRPC server started address=%s service=%s", lis.Addr(), ServiceName)
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Errorf("gRPC server encountered an error error=%v", err)
		}
	}()
	return nil
}

// Stop 先标记 NOT_SERVING 再优雅退出
func (s *grpcHealthServer) Stop() error {
	if s.server == nil {
		return nil
	}
	s.health.Shutdown()
	s.server.GracefulStop()
	return nil
}

func (s *grpcHealthServer) GetName() string { return "grpcHealthServer" }
