package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-admin/internal/application"
	"github.com/oksasatya/go-user-admin/pkg/response"
	"github.com/oksasatya/go-user-admin/pkg/validation"
	"github.com/oksasatya/go-user-admin/web"
)

// failure is the boundary view of an application error.
type failure struct {
	Status  int
	Message string
	Details any
}

// classify maps every application error to a status. Unknown errors are 500.
// write marks create/edit paths, where a missing role is a bad request.
func classify(err error, write bool) failure {
	var (
		verr *application.ValidationError
		rnf  *application.RoleNotFoundError
	)
	switch {
	case errors.As(err, &verr):
		return failure{http.StatusBadRequest, verr.Error(), verr.Fields}
	case errors.As(err, &rnf):
		return failure{http.StatusBadRequest, rnf.Error(), nil}
	case errors.Is(err, application.ErrRoleNotFound):
		if write {
			return failure{http.StatusBadRequest, "role not found", nil}
		}
		return failure{http.StatusNotFound, "role not found", nil}
	case errors.Is(err, application.ErrUserNotFound):
		return failure{http.StatusNotFound, "user not found", nil}
	case errors.Is(err, application.ErrRoleExists):
		return failure{http.StatusConflict, "role already exists", nil}
	case errors.Is(err, application.ErrInvalidCredentials):
		return failure{http.StatusUnauthorized, "invalid credentials", nil}
	case errors.Is(err, application.ErrForbidden):
		return failure{http.StatusForbidden, "access denied", nil}
	default:
		return failure{http.StatusInternalServerError, "internal server error", nil}
	}
}

// writeError answers an API request with the mapped failure.
func writeError(c *gin.Context, logger *logrus.Logger, err error, write bool) {
	f := classify(err, write)
	logFailure(c, logger, err, f)
	response.Error[any](c, f.Status, f.Message, f.Details)
}

// writeBindError answers a payload that failed binding or validation.
func writeBindError(c *gin.Context, err error) {
	response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}

// renderError answers a web request with the error page.
func renderError(c *gin.Context, logger *logrus.Logger, err error) {
	f := classify(err, true)
	logFailure(c, logger, err, f)
	c.HTML(f.Status, web.ErrorTemplate, web.ErrorPage(f.Status, f.Message))
}

func logFailure(c *gin.Context, logger *logrus.Logger, err error, f failure) {
	if f.Status < http.StatusInternalServerError || logger == nil {
		return
	}
	logger.WithError(err).WithFields(logrus.Fields{
		"path":       c.Request.URL.Path,
		"request_id": c.GetString(response.RequestIDKey),
	}).Error("request failed")
}

// writeResult labels a write outcome for metrics.
func writeResult(err error) string {
	if err == nil {
		return "ok"
	}
	switch f := classify(err, true); f.Status {
	case http.StatusBadRequest:
		return "invalid"
	case http.StatusNotFound:
		return "not_found"
	default:
		return "error"
	}
}
