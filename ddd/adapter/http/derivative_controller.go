package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"derivative-service/ddd/application/app"
	"derivative-service/ddd/application/cqe"
	"derivative-service/ddd/application/dto"
	"derivative-service/ddd/domain/vo"
	"derivative-service/pkg/errno"
	"derivative-service/pkg/logger"
	"derivative-service/pkg/manager"
	"derivative-service/pkg/middleware"
	"derivative-service/pkg/restapi"
)

type DerivativeControllerPlugin struct{}

func (p *DerivativeControllerPlugin) Name() string {
	return "derivativeControllerPlugin"
}

func (p *DerivativeControllerPlugin) MustCreateController(deps *manager.Dependencies) manager.Controller {
	c := &derivativeController{}
	if deps != nil {
		if v, ok := deps.DerivativeApp.(app.DerivativeApp); ok {
			c.derivativeApp = v
		}
		if deps.Config != nil {
			c.jwtSecret = deps.Config.JWT.Secret
			c.jwtIssuer = deps.Config.JWT.Issuer
		}
	}
	if c.derivativeApp == nil {
		c.derivativeApp = app.DefaultDerivativeApp()
	}
	return c
}

type derivativeController struct {
	derivativeApp app.DerivativeApp
	jwtSecret     string
	jwtIssuer     string
}

func (c *derivativeController) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/health", c.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	internal := engine.Group("/internal/v1")
	internal.Use(middleware.ServiceAuthMiddleware(c.jwtSecret, c.jwtIssuer))
	{
		internal.POST("/derivatives", c.CreateDerivatives) // 手动触发一次派生
	}
}

func (c *derivativeController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "derivative-service",
		"timestamp": time.Now().Unix(),
	})
}

// CreateDerivatives 同步执行流水线，部分失败时返回 502 并附带已发布的 URL
func (c *derivativeController) CreateDerivatives(ctx *gin.Context) {
	var req cqe.ObjectFinalizedCmd
	if err := ctx.ShouldBindJSON(&req); err != nil {
		restapi.Failed(ctx, errno.Wrap(errno.ErrInvalidParam, err))
		return
	}
	if err := req.Validate(); err != nil {
		restapi.Failed(ctx, err)
		return
	}

	src := req.ToSourceObject()
	if id := ctx.GetString(middleware.CorrelationIDKey); id != "" && src.CorrelationID() == "" {
		src.Metadata[vo.MetaCorrelationID] = id
	}

	out, err := c.derivativeApp.Process(ctx.Request.Context(), src)
	if err != nil {
		logger.Warnf("Derivative request failed key=%s status=%s error=%v request_id=%s", req.Name, statusOf(out), err, ctx.GetString(middleware.RequestIDKey))
		restapi.FailedWithData(ctx, err, out)
		return
	}
	restapi.Success(ctx, out)
}

func statusOf(out *dto.DerivativeOutcomeDTO) string {
	if out == nil {
		return ""
	}
	return out.Status
}
