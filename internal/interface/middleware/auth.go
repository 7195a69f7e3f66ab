package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-user-admin/pkg/helpers"
)

// CtxPrincipalKey holds the *entity.Principal in the gin context.
const CtxPrincipalKey = "principal"

type principalCtxKey struct{}

// SessionResolver turns a session token into its principal.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*entity.Principal, error)
}

// Authenticate resolves the session token, if any, and attaches the principal
// to both the gin and the request context. Requests without a valid session
// pass through anonymous; Authorize decides what they may reach.
func Authenticate(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c)
		if token == "" {
			c.Next()
			return
		}
		p, err := sessions.ResolveSession(c.Request.Context(), token)
		if err != nil || p == nil {
			c.Next()
			return
		}
		c.Set(CtxPrincipalKey, p)
		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

// CurrentPrincipal returns the authenticated principal or nil.
func CurrentPrincipal(c *gin.Context) *entity.Principal {
	if v, ok := c.Get(CtxPrincipalKey); ok {
		if p, ok := v.(*entity.Principal); ok {
			return p
		}
	}
	return PrincipalFrom(c.Request.Context())
}

func WithPrincipal(ctx context.Context, p *entity.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

func PrincipalFrom(ctx context.Context) *entity.Principal {
	p, _ := ctx.Value(principalCtxKey{}).(*entity.Principal)
	return p
}

// SessionToken reads the session cookie, falling back to a bearer header.
func SessionToken(c *gin.Context) string {
	if token, err := c.Cookie(helpers.SessionCookie); err == nil && token != "" {
		return token
	}
	if h := c.GetHeader("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
