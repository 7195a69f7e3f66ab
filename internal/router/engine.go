package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-admin/internal/domain/policy"
	"github.com/oksasatya/go-user-admin/internal/interface/middleware"
	"github.com/oksasatya/go-user-admin/pkg/response"
	"github.com/oksasatya/go-user-admin/pkg/validation"
	"github.com/oksasatya/go-user-admin/web"
)

// EngineOptions toggles the ambient middleware.
type EngineOptions struct {
	CORSOrigins    []string
	HTTPLogEnabled bool
	MetricsEnabled bool

	// TrustedProxies may set forwarding headers; empty trusts none and the
	// client IP is the socket peer.
	TrustedProxies []string

	// TrustedPlatform names a CDN header (gin.PlatformCloudflare, ...).
	TrustedPlatform string
}

// NewEngine builds the gin engine: global middleware, templates, the route
// policy and every module.
func NewEngine(d Deps, s *Services, opts EngineOptions) (*gin.Engine, error) {
	validation.Init()

	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}

	pol, err := policy.Default()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}
	r.TrustedPlatform = opts.TrustedPlatform
	r.SetHTMLTemplate(tmpl)
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if opts.MetricsEnabled {
		r.Use(middleware.Metrics())
	}
	if opts.HTTPLogEnabled && d.Logger != nil {
		r.Use(middleware.AccessLog(d.Logger))
	}
	r.Use(middleware.Authenticate(s.Auth))
	r.Use(middleware.Authorize(pol, d.Logger))

	r.NoRoute(func(c *gin.Context) {
		if middleware.IsAPIPath(c.Request.URL.Path) {
			response.Error[any](c, http.StatusNotFound, "not found", nil)
			return
		}
		c.HTML(http.StatusNotFound, web.ErrorTemplate, web.ErrorPage(http.StatusNotFound, "Page not found"))
	})

	reg := NewRegistry(r)
	InitModules(reg, d, s)
	reg.RegisterAll()
	return r, nil
}
