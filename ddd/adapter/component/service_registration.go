package component

import (
	"fmt"
	"os"

	"derivative-service/pkg/config"
	"derivative-service/pkg/manager"
	"derivative-service/pkg/registry"
)

type ServiceRegistrationPlugin struct{}

func (p *ServiceRegistrationPlugin) Name() string { return "serviceRegistration" }

func (p *ServiceRegistrationPlugin) Enabled(cfg *config.Config) bool {
	return cfg != nil && cfg.ServiceRegistry.Enabled
}

func (p *ServiceRegistrationPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	cfg := deps.Config
	host := cfg.ServiceRegistry.RegisterHost
	if host == "" {
		host, _ = os.Hostname()
	}
	inst := registry.Instance{HTTPAddr: fmt.Sprintf("%s:%d", host, cfg.Server.Port)}
	if cfg.GRPCServer.Enabled {
		inst.GRPCAddr = fmt.Sprintf("%s:%d", host, cfg.GRPCServer.Port)
	}
	reg, err := registry.NewServiceRegistry(cfg.ServiceRegistry, inst)
	if err != nil {
		panic(fmt.Sprintf("create service registry: %v", err))
	}
	return &serviceRegistration{registry: reg}
}

// serviceRegistration 注册本实例，停止时撤销租约
type serviceRegistration struct {
	registry *registry.ServiceRegistry
}

func (s *serviceRegistration) Start() error { return s.registry.Register() }

func (s *serviceRegistration) Stop() error { return s.registry.Deregister() }

func (s *serviceRegistration) GetName() string { return "serviceRegistration" }
