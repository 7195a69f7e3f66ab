package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-admin/internal/domain/policy"
	"github.com/oksasatya/go-user-admin/pkg/metrics"
	"github.com/oksasatya/go-user-admin/pkg/response"
	"github.com/oksasatya/go-user-admin/web"
)

// Authorize enforces the route policy. API paths get 401/403 JSON; web paths
// are redirected to the login page or shown the error page.
func Authorize(pol *policy.Policy, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		p := CurrentPrincipal(c)
		decision := pol.Decide(path, p)
		metrics.AuthorizationDecisionsTotal.WithLabelValues(decision.String()).Inc()

		switch decision {
		case policy.Permit:
			c.Next()
		case policy.LoginRequired:
			if IsAPIPath(path) {
				response.Abort(c, http.StatusUnauthorized, "authentication required", nil)
				return
			}
			c.Redirect(http.StatusFound, policy.LoginPath)
			c.Abort()
		default:
			if logger != nil {
				logger.WithFields(logrus.Fields{
					"path":        path,
					"user_id":     p.UserID,
					"authorities": p.Authorities,
					"request_id":  c.GetString(response.RequestIDKey),
				}).Warn("access denied")
			}
			if IsAPIPath(path) {
				response.Abort(c, http.StatusForbidden, "access denied", nil)
				return
			}
			c.HTML(http.StatusForbidden, web.ErrorTemplate, web.ErrorPage(http.StatusForbidden, "Access denied"))
			c.Abort()
		}
	}
}

// IsAPIPath reports whether path belongs to the JSON API.
func IsAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}
