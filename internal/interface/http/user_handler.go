package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-admin/internal/application"
	"github.com/oksasatya/go-user-admin/internal/interface/middleware"
	"github.com/oksasatya/go-user-admin/pkg/response"
	"github.com/oksasatya/go-user-admin/web"
)

// UserHandler serves the signed-in user's own record.
type UserHandler struct {
	Users  *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(users *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Users: users, Logger: logger}
}

// Page GET /user
func (h *UserHandler) Page(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		renderError(c, h.Logger, application.ErrForbidden)
		return
	}
	u, err := h.Users.GetUserWithRoles(c.Request.Context(), p.UserID)
	if err != nil {
		renderError(c, h.Logger, err)
		return
	}
	c.HTML(http.StatusOK, web.UserTemplate, gin.H{
		"Title":     "User",
		"Principal": p,
		"User":      u,
	})
}

// Current GET /api/user/current
func (h *UserHandler) Current(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		response.Error[any](c, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	u, err := h.Users.GetUserWithRoles(c.Request.Context(), p.UserID)
	if err != nil {
		writeError(c, h.Logger, err, false)
		return
	}
	response.Success(c, http.StatusOK, u, "current user", nil)
}
