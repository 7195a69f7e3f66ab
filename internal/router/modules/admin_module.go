package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-user-admin/internal/interface/http"
	"github.com/oksasatya/go-user-admin/internal/interface/middleware"
)

// AdminModule wires user administration. Access is enforced by the route
// policy ahead of these handlers.
// Pages: /admin/users, /admin/addNewUser, /admin/edit, /admin/delete
// API: /api/admin, /api/admin/:id, /api/admin/roles
type AdminModule struct {
	Pages *handlers.AdminHandler
	API   *handlers.AdminAPIHandler
	Redis *redis.Client
}

func NewAdminModule(pages *handlers.AdminHandler, api *handlers.AdminAPIHandler, rdb *redis.Client) *AdminModule {
	return &AdminModule{Pages: pages, API: api, Redis: rdb}
}

func (m *AdminModule) Register(root, api *gin.RouterGroup) {
	admin := root.Group("/admin")
	{
		admin.GET("/users", m.Pages.UsersPage)
		admin.POST("/addNewUser", m.Pages.AddNewUser)
		admin.POST("/edit", m.Pages.Edit)
		admin.POST("/delete", m.Pages.Delete)
	}

	adminAPI := api.Group("/admin")
	adminAPI.Use(middleware.RateLimit(m.Redis, middleware.RateLimitOptions{
		Max:    300,
		Window: time.Minute,
		Key:    middleware.KeyByPrincipal(),
	}))
	{
		adminAPI.GET("", m.API.List)
		adminAPI.POST("", m.API.Create)
		adminAPI.PUT("", m.API.Update)
		adminAPI.GET("/roles", m.API.ListRoles)
		adminAPI.POST("/roles", m.API.CreateRole)
		adminAPI.GET("/:id", m.API.Get)
		adminAPI.DELETE("/:id", m.API.Delete)
	}
}
