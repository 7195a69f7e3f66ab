package modules

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-admin/internal/domain/policy"
	handlers "github.com/oksasatya/go-user-admin/internal/interface/http"
	"github.com/oksasatya/go-user-admin/internal/interface/middleware"
)

// AuthModule wires login and logout.
// Pages: GET /login, POST /process_login, GET|POST /logout, GET /
// API: POST /api/login
type AuthModule struct {
	Handler    *handlers.AuthHandler
	Redis      *redis.Client
	LoginLimit int // per IP per minute
	Logger     *logrus.Logger
}

func NewAuthModule(h *handlers.AuthHandler, rdb *redis.Client, loginLimit int, logger *logrus.Logger) *AuthModule {
	return &AuthModule{Handler: h, Redis: rdb, LoginLimit: loginLimit, Logger: logger}
}

func (m *AuthModule) Register(root, api *gin.RouterGroup) {
	formLimiter := middleware.RateLimit(m.Redis, middleware.RateLimitOptions{
		Max:    m.LoginLimit,
		Window: time.Minute,
		Key:    middleware.KeyByIP(),
		Reject: func(c *gin.Context, _ int) {
			c.Redirect(http.StatusFound, policy.LoginPath+"?error")
			c.Abort()
		},
		Logger: m.Logger,
	})
	apiLimiter := middleware.RateLimit(m.Redis, middleware.RateLimitOptions{
		Max:    m.LoginLimit,
		Window: time.Minute,
		Key:    middleware.KeyByIP(),
		Logger: m.Logger,
	})

	root.GET("/", home)
	root.GET("/login", m.Handler.LoginPage)
	root.POST("/process_login", formLimiter, m.Handler.ProcessLogin)
	root.GET("/logout", m.Handler.Logout)
	root.POST("/logout", m.Handler.Logout)

	api.POST("/login", apiLimiter, m.Handler.APILogin)
}

// home sends a signed-in principal to its landing page.
func home(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		c.Redirect(http.StatusFound, policy.LoginPath)
		return
	}
	target, _ := policy.SuccessRedirect(p.Authorities)
	c.Redirect(http.StatusFound, target)
}
