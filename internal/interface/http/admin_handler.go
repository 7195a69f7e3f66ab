package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-admin/internal/application"
	"github.com/oksasatya/go-user-admin/internal/domain/policy"
	"github.com/oksasatya/go-user-admin/internal/interface/middleware"
	"github.com/oksasatya/go-user-admin/pkg/metrics"
	"github.com/oksasatya/go-user-admin/pkg/validation"
	"github.com/oksasatya/go-user-admin/web"
)

// AdminHandler serves the server-rendered admin pages.
type AdminHandler struct {
	Users     *application.UserService
	Roles     *application.RoleService
	Validator *application.UserValidator
	Logger    *logrus.Logger
}

func NewAdminHandler(users *application.UserService, roles *application.RoleService, validator *application.UserValidator, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Users: users, Roles: roles, Validator: validator, Logger: logger}
}

// formView refills the add form after a rejected submit.
type formView struct {
	Name     string
	Lastname string
	Age      int
	Email    string
	Roles    []int64
}

// UsersPage GET /admin/users
func (h *AdminHandler) UsersPage(c *gin.Context) {
	h.render(c, http.StatusOK, formView{}, nil)
}

// AddNewUser POST /admin/addNewUser
func (h *AdminHandler) AddNewUser(c *gin.Context) {
	var form userForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusBadRequest, viewOf(form), validation.ToFieldErrors(err))
		return
	}
	u := form.toEntity()
	if errs := h.Validator.ValidateForCreate(c.Request.Context(), u); len(errs) > 0 {
		metrics.UserWritesTotal.WithLabelValues("create", "invalid").Inc()
		h.render(c, http.StatusBadRequest, viewOf(form), errs)
		return
	}
	err := h.Users.AddNewUser(c.Request.Context(), u)
	metrics.UserWritesTotal.WithLabelValues("create", writeResult(err)).Inc()
	if err != nil {
		if fields, ok := formErrors(err); ok {
			h.render(c, http.StatusBadRequest, viewOf(form), fields)
			return
		}
		renderError(c, h.Logger, err)
		return
	}
	c.Redirect(http.StatusFound, policy.AdminLanding)
}

// Edit POST /admin/edit
func (h *AdminHandler) Edit(c *gin.Context) {
	var form editForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusBadRequest, formView{}, validation.ToFieldErrors(err))
		return
	}
	err := h.Users.Edit(c.Request.Context(), form.toEntity())
	metrics.UserWritesTotal.WithLabelValues("edit", writeResult(err)).Inc()
	if err != nil {
		if fields, ok := formErrors(err); ok {
			h.render(c, http.StatusBadRequest, formView{}, fields)
			return
		}
		renderError(c, h.Logger, err)
		return
	}
	c.Redirect(http.StatusFound, policy.AdminLanding)
}

// Delete POST /admin/delete
func (h *AdminHandler) Delete(c *gin.Context) {
	var form idForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusBadRequest, formView{}, validation.ToFieldErrors(err))
		return
	}
	err := h.Users.DeleteUser(c.Request.Context(), form.ID)
	metrics.UserWritesTotal.WithLabelValues("delete", writeResult(err)).Inc()
	if err != nil {
		renderError(c, h.Logger, err)
		return
	}
	c.Redirect(http.StatusFound, policy.AdminLanding)
}

func (h *AdminHandler) render(c *gin.Context, status int, form formView, errs []validation.FieldError) {
	ctx := c.Request.Context()
	users, err := h.Users.GetAllUsers(ctx)
	if err != nil {
		renderError(c, h.Logger, err)
		return
	}
	roles, err := h.Roles.FindAll(ctx)
	if err != nil {
		renderError(c, h.Logger, err)
		return
	}
	c.HTML(status, web.UsersTemplate, gin.H{
		"Title":     "Admin panel",
		"Principal": middleware.CurrentPrincipal(c),
		"Users":     users,
		"Roles":     roles,
		"Form":      form,
		"Errors":    errs,
	})
}

func viewOf(f userForm) formView {
	return formView{Name: f.Name, Lastname: f.Lastname, Age: f.Age, Email: f.Email, Roles: f.Roles}
}

// formErrors turns write failures that belong on the form into field errors.
func formErrors(err error) ([]validation.FieldError, bool) {
	var verr *application.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	if errors.Is(err, application.ErrRoleNotFound) {
		return []validation.FieldError{{Field: "roles", Message: err.Error()}}, true
	}
	return nil, false
}
