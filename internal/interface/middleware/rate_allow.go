package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-admin/pkg/response"
)

// AllowPrivateIP matches requests from loopback and private networks.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		parsed := net.ParseIP(ipFromCtx(c))
		if parsed == nil {
			return false
		}
		return parsed.IsLoopback() || parsed.IsPrivate()
	}
}

// OnlyFrom rejects requests the allow func does not match.
func OnlyFrom(allow AllowFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if allow != nil && !allow(c) {
			response.Abort(c, http.StatusForbidden, "access denied", nil)
			return
		}
		c.Next()
	}
}
