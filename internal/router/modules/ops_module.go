package modules

import (
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	handlers "github.com/oksasatya/go-user-admin/internal/interface/http"
	"github.com/oksasatya/go-user-admin/internal/interface/middleware"
)

// OpsModule serves health checks, metrics and static assets.
type OpsModule struct {
	Health             *handlers.HealthHandler
	Assets             fs.FS
	MetricsEnabled     bool
	MetricsPrivateOnly bool
}

func NewOpsModule(health *handlers.HealthHandler, assets fs.FS, metricsEnabled, privateOnly bool) *OpsModule {
	return &OpsModule{Health: health, Assets: assets, MetricsEnabled: metricsEnabled, MetricsPrivateOnly: privateOnly}
}

func (m *OpsModule) Register(root, _ *gin.RouterGroup) {
	root.GET("/healthz", m.Health.Healthz)
	root.GET("/readyz", m.Health.Readyz)

	if m.MetricsEnabled {
		var allow middleware.AllowFunc
		if m.MetricsPrivateOnly {
			allow = middleware.AllowPrivateIP()
		}
		root.GET("/metrics", middleware.OnlyFrom(allow), gin.WrapH(promhttp.Handler()))
	}

	if m.Assets != nil {
		if css, err := fs.Sub(m.Assets, "css"); err == nil {
			root.StaticFS("/css", http.FS(css))
		}
	}
}
