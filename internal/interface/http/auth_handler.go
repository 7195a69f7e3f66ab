package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-admin/internal/application"
	"github.com/oksasatya/go-user-admin/internal/domain/policy"
	"github.com/oksasatya/go-user-admin/internal/interface/middleware"
	"github.com/oksasatya/go-user-admin/pkg/helpers"
	"github.com/oksasatya/go-user-admin/pkg/metrics"
	"github.com/oksasatya/go-user-admin/pkg/response"
	"github.com/oksasatya/go-user-admin/web"
)

const (
	loginErrorURL  = policy.LoginPath + "?error"
	loginLogoutURL = policy.LoginPath + "?logout"
)

type AuthHandler struct {
	Auth    *application.AuthService
	Cookies *helpers.Manager
	Logger  *logrus.Logger
}

func NewAuthHandler(auth *application.AuthService, cookies *helpers.Manager, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Cookies: cookies, Logger: logger}
}

// LoginPage GET /login
func (h *AuthHandler) LoginPage(c *gin.Context) {
	_, failed := c.GetQuery("error")
	_, loggedOut := c.GetQuery("logout")
	c.HTML(http.StatusOK, web.LoginTemplate, gin.H{
		"Title":  "Login",
		"Error":  failed,
		"Logout": loggedOut,
		"Email":  c.Query("email"),
	})
}

// ProcessLogin POST /process_login
func (h *AuthHandler) ProcessLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("form", "invalid_credentials").Inc()
		c.Redirect(http.StatusFound, loginErrorURL)
		return
	}
	target, ok := h.login(c, "form", req)
	if !ok {
		c.Redirect(http.StatusFound, loginErrorURL)
		return
	}
	c.Redirect(http.StatusFound, target)
}

// APILogin POST /api/login
func (h *AuthHandler) APILogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	target, ok := h.login(c, "api", req)
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	p := middleware.CurrentPrincipal(c)
	response.Success(c, http.StatusOK, gin.H{"principal": p, "redirect": target}, "login successful", nil)
}

// login authenticates, picks the landing page and sets the session cookie.
// ok is false when the caller must be sent back to the login page.
func (h *AuthHandler) login(c *gin.Context, channel string, req loginRequest) (string, bool) {
	ctx := c.Request.Context()
	sess, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		result := "error"
		if errors.Is(err, application.ErrInvalidCredentials) {
			result = "invalid_credentials"
		} else {
			helpers.LogError(h.Logger, "login failed", err, logrus.Fields{"request_id": c.GetString(response.RequestIDKey)})
		}
		metrics.LoginAttemptsTotal.WithLabelValues(channel, result).Inc()
		return "", false
	}

	target, ok := policy.SuccessRedirect(sess.Principal.Authorities)
	if !ok {
		if h.Logger != nil {
			h.Logger.WithFields(logrus.Fields{"user_id": sess.Principal.UserID, "authorities": sess.Principal.Authorities}).
				Warn("login without a known role")
		}
		if err := h.Auth.RevokeSession(ctx, sess.Token); err != nil {
			helpers.LogError(h.Logger, "login: revoke session without role failed", err, logrus.Fields{"user_id": sess.Principal.UserID})
		}
		metrics.LoginAttemptsTotal.WithLabelValues(channel, "no_known_role").Inc()
		return "", false
	}

	h.Cookies.SetSession(c, sess.Token, sess.ExpiresAt)
	c.Set(middleware.CtxPrincipalKey, sess.Principal)
	metrics.LoginAttemptsTotal.WithLabelValues(channel, "success").Inc()
	helpers.LogInfo(h.Logger, "login successful", logrus.Fields{"user_id": sess.Principal.UserID, "channel": channel})
	return target, true
}

// Logout GET|POST /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := middleware.SessionToken(c); token != "" {
		if err := h.Auth.RevokeSession(c.Request.Context(), token); err != nil {
			helpers.LogError(h.Logger, "logout: revoke session failed", err, nil)
		}
	}
	h.Cookies.Clear(c)
	c.Redirect(http.StatusFound, loginLogoutURL)
}
