package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-admin/internal/application"
	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-user-admin/pkg/metrics"
	"github.com/oksasatya/go-user-admin/pkg/response"
)

// AdminAPIHandler serves /api/admin.
type AdminAPIHandler struct {
	Users     *application.UserService
	Roles     *application.RoleService
	Validator *application.UserValidator
	Logger    *logrus.Logger
}

func NewAdminAPIHandler(users *application.UserService, roles *application.RoleService, validator *application.UserValidator, logger *logrus.Logger) *AdminAPIHandler {
	return &AdminAPIHandler{Users: users, Roles: roles, Validator: validator, Logger: logger}
}

// List GET /api/admin
func (h *AdminAPIHandler) List(c *gin.Context) {
	users, err := h.Users.GetAllUsers(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err, false)
		return
	}
	response.Success(c, http.StatusOK, users, "users", map[string]any{"count": len(users)})
}

// Get GET /api/admin/:id
func (h *AdminAPIHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	u, err := h.Users.GetUserWithRoles(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, err, false)
		return
	}
	response.Success(c, http.StatusOK, u, "user", nil)
}

// Create POST /api/admin
func (h *AdminAPIHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	u := req.toEntity()
	if errs := h.Validator.ValidateForCreate(c.Request.Context(), u); len(errs) > 0 {
		metrics.UserWritesTotal.WithLabelValues("create", "invalid").Inc()
		writeError(c, h.Logger, application.NewValidationError(errs...), true)
		return
	}
	err := h.Users.AddNewUser(c.Request.Context(), u)
	metrics.UserWritesTotal.WithLabelValues("create", writeResult(err)).Inc()
	if err != nil {
		writeError(c, h.Logger, err, true)
		return
	}
	response.Success(c, http.StatusCreated, u, "user created", nil)
}

// Update PUT /api/admin
func (h *AdminAPIHandler) Update(c *gin.Context) {
	var patch application.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeBindError(c, err)
		return
	}
	u, err := h.Users.Update(c.Request.Context(), patch)
	metrics.UserWritesTotal.WithLabelValues("update", writeResult(err)).Inc()
	if err != nil {
		writeError(c, h.Logger, err, true)
		return
	}
	response.Success(c, http.StatusOK, u, "user updated", nil)
}

// Delete DELETE /api/admin/:id
func (h *AdminAPIHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	err := h.Users.DeleteUser(c.Request.Context(), id)
	metrics.UserWritesTotal.WithLabelValues("delete", writeResult(err)).Inc()
	if err != nil {
		writeError(c, h.Logger, err, false)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"id": id}, "user deleted", nil)
}

// ListRoles GET /api/admin/roles
func (h *AdminAPIHandler) ListRoles(c *gin.Context) {
	roles, err := h.Roles.FindAll(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err, false)
		return
	}
	response.Success(c, http.StatusOK, roles, "roles", nil)
}

// CreateRole POST /api/admin/roles
func (h *AdminAPIHandler) CreateRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	r := &entity.Role{Name: req.Name}
	if err := h.Roles.Save(c.Request.Context(), r); err != nil {
		writeError(c, h.Logger, err, true)
		return
	}
	response.Success(c, http.StatusCreated, r, "role saved", nil)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error[any](c, http.StatusBadRequest, "invalid id", map[string]string{"id": "must be a positive integer"})
		return 0, false
	}
	return id, true
}
