package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-user-admin/internal/interface/http"
)

// UserModule wires the signed-in user's own views.
// Pages: GET /user
// API: GET /api/user, GET /api/user/current
type UserModule struct {
	Handler *handlers.UserHandler
}

func NewUserModule(h *handlers.UserHandler) *UserModule {
	return &UserModule{Handler: h}
}

func (m *UserModule) Register(root, api *gin.RouterGroup) {
	root.GET("/user", m.Handler.Page)
	api.GET("/user", m.Handler.Current)
	api.GET("/user/current", m.Handler.Current)
}
