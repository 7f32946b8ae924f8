package manager

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"

	"derivative-service/pkg/config"
	"derivative-service/pkg/logger"
)

// Resource 外部资源（连接、客户端）生命周期
type Resource interface {
	MustOpen()
	Close()
}

// ResourcePlugin 资源插件，在 init 中注册
type ResourcePlugin interface {
	Name() string
	MustCreateResource() Resource
}

// Conditional is implemented by plugins that only apply under some configurations.
type Conditional interface {
	Enabled(cfg *config.Config) bool
}

// Component 后台组件（消费者、服务器等）
type Component interface {
	Start() error
	Stop() error
	GetName() string
}

// ComponentPlugin 组件插件
type ComponentPlugin interface {
	Name() string
	MustCreateComponent(deps *Dependencies) Component
}

// Controller 注册 HTTP 路由
type Controller interface {
	RegisterRoutes(engine *gin.Engine)
}

// ControllerPlugin 控制器插件
type ControllerPlugin interface {
	Name() string
	MustCreateController(deps *Dependencies) Controller
}

// Dependencies 依赖注入容器
type Dependencies struct {
	Config        *config.Config
	DerivativeApp interface{}
}

type registry struct {
	mu                sync.Mutex
	resourcePlugins   []ResourcePlugin
	componentPlugins  []ComponentPlugin
	controllerPlugins []ControllerPlugin
	resources         []Resource
	components        []Component
	controllers       []Controller
}

var defaultRegistry = &registry{}

func RegisterResourcePlugin(p ResourcePlugin) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.resourcePlugins = append(defaultRegistry.resourcePlugins, p)
}

func RegisterComponentPlugin(p ComponentPlugin) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.componentPlugins = append(defaultRegistry.componentPlugins, p)
}

func RegisterControllerPlugin(p ControllerPlugin) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.controllerPlugins = append(defaultRegistry.controllerPlugins, p)
}

func enabled(p interface{}, cfg *config.Config) bool {
	if c, ok := p.(Conditional); ok {
		return c.Enabled(cfg)
	}
	return true
}

// MustInitResources 打开所有已注册且启用的资源
func MustInitResources() {
	cfg := config.GetGlobalConfig()
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for _, p := range defaultRegistry.resourcePlugins {
		if !enabled(p, cfg) {
			logger.Infof("Resource skipped name=%s", p.Name())
			continue
		}
		r := p.MustCreateResource()
		r.MustOpen()
		defaultRegistry.resources = append(defaultRegistry.resources, r)
		logger.Infof("Resource opened name=%s", p.Name())
	}
}

// CloseResources 逆序关闭资源
func CloseResources() {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for i := len(defaultRegistry.resources) - 1; i >= 0; i-- {
		defaultRegistry.resources[i].Close()
	}
	defaultRegistry.resources = nil
}

// MustInitComponents 创建并启动所有组件
func MustInitComponents(deps *Dependencies) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for _, p := range defaultRegistry.componentPlugins {
		if deps != nil && !enabled(p, deps.Config) {
			logger.Infof("Component skipped name=%s", p.Name())
			continue
		}
		c := p.MustCreateComponent(deps)
		if err := c.Start(); err != nil {
			panic(fmt.Sprintf("start component %s: %v", p.Name(), err))
		}
		defaultRegistry.components = append(defaultRegistry.components, c)
		logger.Infof("Component started name=%s", c.GetName())
	}
}

// RegisterAllRoutes 创建控制器并注册路由
func RegisterAllRoutes(engine *gin.Engine, deps *Dependencies) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for _, p := range defaultRegistry.controllerPlugins {
		c := p.MustCreateController(deps)
		c.RegisterRoutes(engine)
		defaultRegistry.controllers = append(defaultRegistry.controllers, c)
	}
}

// Shutdown 逆序停止组件
func Shutdown() {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for i := len(defaultRegistry.components) - 1; i >= 0; i-- {
		c := defaultRegistry.components[i]
		if err := c.Stop(); err != nil {
			logger.Warnf("Component stop failed name=%s error=%v", c.GetName(), err)
		}
	}
	defaultRegistry.components = nil
}
