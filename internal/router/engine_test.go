package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/alicebob/miniredis/v2/server"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-user-admin/internal/application"
	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-user-admin/internal/infrastructure/memory"
	"github.com/oksasatya/go-user-admin/pkg/helpers"
)

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
	Error   json.RawMessage `json:"error"`
}

type testApp struct {
	engine   *gin.Engine
	services *Services
}

// appOption adjusts the dependencies and engine options before the app is built.
type appOption func(d *Deps, o *EngineOptions)

func withRedis(rdb *redis.Client) appOption {
	return func(d *Deps, _ *EngineOptions) { d.Redis = rdb }
}

func newTestApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.NewStore()
	d := Deps{
		Users:   store.Users(),
		Roles:   store.Roles(),
		JWT:     helpers.NewJWTManager("test-secret", time.Hour),
		Hasher:  helpers.NewHasher(bcrypt.MinCost),
		Cookies: helpers.NewCookie("", false),
		Logger:  helpers.NewDiscardLogger(),
	}
	var eo EngineOptions
	for _, opt := range opts {
		opt(&d, &eo)
	}
	s := NewServices(d)
	require.NoError(t, application.SeedDefaults(context.Background(), s.Roles, s.Users, s.Auth), "seed")
	e, err := NewEngine(d, s, eo)
	require.NoError(t, err, "NewEngine")
	return &testApp{engine: e, services: s}
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func (a *testApp) request(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: helpers.SessionCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) postForm(path, token string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: helpers.SessionCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := a.request(http.MethodPost, "/api/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, "login %s: %s", email, rec.Body.String())
	token := sessionCookie(rec)
	require.NotEmpty(t, token, "login %s: no session cookie", email)
	return token
}

func sessionCookie(rec *httptest.ResponseRecorder) string {
	for _, c := range rec.Result().Cookies() {
		if c.Name == helpers.SessionCookie && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "decode %q", rec.Body.String())
	return env
}

func (a *testApp) roleID(t *testing.T, name string) int64 {
	t.Helper()
	r, err := a.services.Roles.FindByRoleName(context.Background(), name)
	require.NoError(t, err)
	require.NotNil(t, r, "role %s", name)
	return r.ID
}

// createUser adds a user through the admin API and returns its id.
func (a *testApp) createUser(t *testing.T, admin, email string, roleIDs ...int64) int64 {
	t.Helper()
	roles := make([]map[string]int64, 0, len(roleIDs))
	for _, id := range roleIDs {
		roles = append(roles, map[string]int64{"id": id})
	}
	rec := a.request(http.MethodPost, "/api/admin", admin, map[string]any{
		"name": "Eve", "lastname": "Stone", "age": 30, "email": email, "password": "secret", "role": roles,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "create %s: %s", email, rec.Body.String())
	var u entity.User
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &u))
	return u.ID
}

func TestEngine_AnonymousAccess(t *testing.T) {
	app := newTestApp(t)

	rec := app.request(http.MethodGet, "/admin/users", "", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	assert.Equal(t, http.StatusUnauthorized, app.request(http.MethodGet, "/api/admin", "", nil).Code)
	assert.Equal(t, http.StatusOK, app.request(http.MethodGet, "/login", "", nil).Code)
	assert.Equal(t, http.StatusOK, app.request(http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, app.request(http.MethodGet, "/css/app.css", "", nil).Code)
}

func TestEngine_APILoginRedirectTargets(t *testing.T) {
	app := newTestApp(t)
	var data struct {
		Redirect string `json:"redirect"`
	}

	rec := app.request(http.MethodPost, "/api/login", "", map[string]string{"email": "admin@mail.ru", "password": "admin"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Equal(t, "/admin/users", data.Redirect)

	rec = app.request(http.MethodPost, "/api/login", "", map[string]string{"email": "USER@mail.ru", "password": "user"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Equal(t, "/user", data.Redirect)

	rec = app.request(http.MethodPost, "/api/login", "", map[string]string{"email": "admin@mail.ru", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEngine_FormLogin(t *testing.T) {
	app := newTestApp(t)
	post := func(email, password string) *httptest.ResponseRecorder {
		return app.postForm("/process_login", "", url.Values{"email": {email}, "password": {password}})
	}

	rec := post("user@mail.ru", "user")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/user", rec.Header().Get("Location"))

	rec = post("user@mail.ru", "nope")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?error", rec.Header().Get("Location"))

	rec = post("ghost@mail.ru", "whatever")
	assert.Equal(t, "/login?error", rec.Header().Get("Location"), "unknown user must look like a bad password")
}

func TestEngine_LoginWithoutKnownRole(t *testing.T) {
	mr, rdb := newMiniredis(t)
	app := newTestApp(t, withRedis(rdb))
	admin := app.login(t, "admin@mail.ru", "admin")
	app.createUser(t, admin, "norole@mail.ru")

	sessionsBefore := len(mr.Keys())
	rec := app.postForm("/process_login", "", url.Values{"email": {"norole@mail.ru"}, "password": {"secret"}})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?error", rec.Header().Get("Location"))
	assert.Empty(t, sessionCookie(rec), "no session cookie for a user without a known role")
	assert.Len(t, mr.Keys(), sessionsBefore, "issued session must be revoked")

	rec = app.request(http.MethodPost, "/api/login", "", map[string]string{"email": "norole@mail.ru", "password": "secret"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, sessionCookie(rec))
}

func TestEngine_LoginWithoutKnownRole_RevokeFailureLogged(t *testing.T) {
	mr, rdb := newMiniredis(t)
	logger, hook := logtest.NewNullLogger()
	app := newTestApp(t, withRedis(rdb), func(d *Deps, _ *EngineOptions) { d.Logger = logger })
	admin := app.login(t, "admin@mail.ru", "admin")
	app.createUser(t, admin, "norole@mail.ru")

	mr.Server().SetPreHook(func(c *server.Peer, cmd string, _ ...string) bool {
		if strings.EqualFold(cmd, "DEL") {
			c.WriteError("ERR unavailable")
			return true
		}
		return false
	})
	hook.Reset()

	rec := app.postForm("/process_login", "", url.Values{"email": {"norole@mail.ru"}, "password": {"secret"}})
	assert.Equal(t, "/login?error", rec.Header().Get("Location"))
	assert.Empty(t, sessionCookie(rec))

	var logged *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "login: revoke session without role failed" {
			logged = e
		}
	}
	require.NotNil(t, logged, "revoke failure not logged")
	assert.Equal(t, logrus.ErrorLevel, logged.Level)
	assert.Contains(t, logged.Data["error"], "unavailable")
}

func TestEngine_RoleEnforcement(t *testing.T) {
	app := newTestApp(t)
	user := app.login(t, "user@mail.ru", "user")
	admin := app.login(t, "admin@mail.ru", "admin")

	assert.Equal(t, http.StatusForbidden, app.request(http.MethodGet, "/api/admin", user, nil).Code, "user on admin api")
	assert.Equal(t, http.StatusForbidden, app.request(http.MethodGet, "/admin/users", user, nil).Code, "user on admin page")
	assert.Equal(t, http.StatusForbidden, app.request(http.MethodGet, "/api/user/current", admin, nil).Code, "admin without ROLE_USER")

	rec := app.request(http.MethodGet, "/api/user/current", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var u entity.User
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &u))
	assert.Equal(t, "user@mail.ru", u.Email)
	assert.NotContains(t, rec.Body.String(), "password")

	assert.Equal(t, http.StatusOK, app.request(http.MethodGet, "/admin/users", admin, nil).Code)
	assert.Equal(t, "/admin/users", app.request(http.MethodGet, "/", admin, nil).Header().Get("Location"))
}

func TestEngine_SessionFollowsStoredUser(t *testing.T) {
	app := newTestApp(t)
	admin := app.login(t, "admin@mail.ru", "admin")
	adminRole := app.roleID(t, entity.RoleAdmin)
	userRole := app.roleID(t, entity.RoleUser)

	eveID := app.createUser(t, admin, "eve@mail.ru", adminRole)
	eve := app.login(t, "eve@mail.ru", "secret")
	require.Equal(t, http.StatusOK, app.request(http.MethodGet, "/api/admin", eve, nil).Code)

	require.Equal(t, http.StatusOK, app.request(http.MethodDelete, "/api/admin/"+itoa(eveID), admin, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, app.request(http.MethodGet, "/api/admin", eve, nil).Code, "deleted admin keeps access")
	rec := app.request(http.MethodPost, "/api/admin", eve, map[string]any{"name": "Mallory", "email": "m@mail.ru", "password": "pw"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	_, err := app.services.Auth.LoadUserByEmail(context.Background(), "m@mail.ru")
	assert.ErrorIs(t, err, application.ErrUserNotFound)

	danID := app.createUser(t, admin, "dan@mail.ru", adminRole)
	dan := app.login(t, "dan@mail.ru", "secret")
	rec = app.request(http.MethodPut, "/api/admin", admin, map[string]any{"id": danID, "role": []map[string]int64{{"id": userRole}}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusForbidden, app.request(http.MethodGet, "/api/admin", dan, nil).Code, "demoted admin keeps access")
	assert.Equal(t, http.StatusOK, app.request(http.MethodGet, "/api/user/current", dan, nil).Code)
}

func TestEngine_AdminAPICRUD(t *testing.T) {
	app := newTestApp(t)
	admin := app.login(t, "admin@mail.ru", "admin")
	userRole := app.roleID(t, entity.RoleUser)
	adminRole := app.roleID(t, entity.RoleAdmin)

	rec := app.request(http.MethodPost, "/api/admin", admin, map[string]any{
		"name": "Kate", "lastname": "Moss", "age": 41, "email": "kate@mail.ru", "password": "secret",
		"role": []map[string]int64{{"id": userRole}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created entity.User
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	require.NotZero(t, created.ID)
	require.Len(t, created.Roles, 1)
	assert.Equal(t, entity.RoleUser, created.Roles[0].Name)

	rec = app.request(http.MethodPost, "/api/admin", admin, map[string]any{
		"name": "Kate", "email": "KATE@mail.ru", "password": "secret",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "duplicate email: %s", rec.Body.String())

	rec = app.request(http.MethodPost, "/api/admin", admin, map[string]any{
		"name": "Bob", "email": "bob@mail.ru", "password": "secret",
		"role": []map[string]int64{{"id": 999}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown role: %s", rec.Body.String())

	rec = app.request(http.MethodPut, "/api/admin", admin, map[string]any{
		"id": created.ID, "age": 42, "role": []map[string]int64{{"id": adminRole}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated entity.User
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &updated))
	assert.Equal(t, 42, updated.Age)
	assert.Equal(t, "Kate", updated.Name)
	require.Len(t, updated.Roles, 1)
	assert.Equal(t, entity.RoleAdmin, updated.Roles[0].Name)
	// password untouched by the patch
	app.login(t, "kate@mail.ru", "secret")

	rec = app.request(http.MethodGet, "/api/admin", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), decode(t, rec).Meta["count"])

	assert.Equal(t, http.StatusOK, app.request(http.MethodDelete, "/api/admin/"+itoa(created.ID), admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, app.request(http.MethodGet, "/api/admin/"+itoa(created.ID), admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, app.request(http.MethodDelete, "/api/admin/"+itoa(created.ID), admin, nil).Code)
	assert.Equal(t, http.StatusBadRequest, app.request(http.MethodGet, "/api/admin/abc", admin, nil).Code)
}

func TestEngine_RolesAPI(t *testing.T) {
	app := newTestApp(t)
	admin := app.login(t, "admin@mail.ru", "admin")

	rec := app.request(http.MethodPost, "/api/admin/roles", admin, map[string]string{"name": "ROLE_AUDITOR"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = app.request(http.MethodPost, "/api/admin/roles", admin, map[string]string{"name": "ROLE_AUDITOR"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	var roles []entity.Role
	require.NoError(t, json.Unmarshal(decode(t, app.request(http.MethodGet, "/api/admin/roles", admin, nil)).Data, &roles))
	assert.Len(t, roles, 3)
}

func TestEngine_AdminPageForms(t *testing.T) {
	app := newTestApp(t)
	admin := app.login(t, "admin@mail.ru", "admin")
	userRole := itoa(app.roleID(t, entity.RoleUser))

	rec := app.postForm("/admin/addNewUser", admin, url.Values{
		"name": {"Nina"}, "lastname": {"Ross"}, "age": {"25"}, "email": {"nina@mail.ru"}, "password": {"pw"}, "roles": {userRole},
	})
	assert.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "/admin/users", rec.Header().Get("Location"))
	app.login(t, "nina@mail.ru", "pw")

	rec = app.postForm("/admin/addNewUser", admin, url.Values{
		"name": {"Nina"}, "email": {"nina@mail.ru"}, "password": {"pw"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), application.EmailInUseMessage)

	u, err := app.services.Auth.LoadUserByEmail(context.Background(), "nina@mail.ru")
	require.NoError(t, err)
	rec = app.postForm("/admin/edit", admin, url.Values{
		"id": {itoa(u.ID)}, "name": {"Nina"}, "lastname": {"Ross"}, "age": {"26"}, "email": {"nina@mail.ru"}, "password": {""}, "roles": {userRole},
	})
	assert.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	app.login(t, "nina@mail.ru", "pw")

	assert.Equal(t, http.StatusFound, app.postForm("/admin/delete", admin, url.Values{"id": {itoa(u.ID)}}).Code)
	_, err = app.services.Auth.LoadUserByEmail(context.Background(), "nina@mail.ru")
	assert.ErrorIs(t, err, application.ErrUserNotFound)
}

func TestEngine_LogoutAndNotFound(t *testing.T) {
	app := newTestApp(t)
	admin := app.login(t, "admin@mail.ru", "admin")

	assert.Equal(t, http.StatusNotFound, app.request(http.MethodGet, "/api/nowhere", admin, nil).Code)

	rec := app.request(http.MethodPost, "/logout", admin, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?logout", rec.Header().Get("Location"))
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == helpers.SessionCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "session cookie must be cleared")
}

func TestEngine_LogoutRevokesCopiedToken(t *testing.T) {
	_, rdb := newMiniredis(t)
	app := newTestApp(t, withRedis(rdb))
	user := app.login(t, "user@mail.ru", "user")
	copied := user

	require.Equal(t, http.StatusOK, app.request(http.MethodGet, "/api/user/current", copied, nil).Code)
	require.Equal(t, http.StatusFound, app.request(http.MethodPost, "/logout", user, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, app.request(http.MethodGet, "/api/user/current", copied, nil).Code)
	assert.Equal(t, "/login", app.request(http.MethodGet, "/user", copied, nil).Header().Get("Location"))
}

func TestEngine_FormLoginRateLimited(t *testing.T) {
	mr, rdb := newMiniredis(t)
	app := newTestApp(t, withRedis(rdb), func(d *Deps, _ *EngineOptions) { d.LoginRateLimit = 2 })
	form := url.Values{"email": {"user@mail.ru"}, "password": {"user"}}

	for i := 0; i < 2; i++ {
		rec := app.postForm("/process_login", "", form)
		require.Equal(t, "/user", rec.Header().Get("Location"), "attempt %d", i+1)
	}
	rec := app.postForm("/process_login", "", form)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?error", rec.Header().Get("Location"))
	assert.Empty(t, sessionCookie(rec))
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))

	mr.FastForward(time.Minute)
	assert.Equal(t, "/user", app.postForm("/process_login", "", form).Header().Get("Location"))
}

func TestEngine_MetricsIgnoreSpoofedClientIP(t *testing.T) {
	app := newTestApp(t, func(d *Deps, _ *EngineOptions) {
		d.MetricsEnabled = true
		d.MetricsPrivateOnly = true
	})
	scrape := func(remoteAddr string, header http.Header) int {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		req.RemoteAddr = remoteAddr
		for k, v := range header {
			req.Header[k] = v
		}
		rec := httptest.NewRecorder()
		app.engine.ServeHTTP(rec, req)
		return rec.Code
	}

	spoofed := http.Header{"X-Real-Ip": {"127.0.0.1"}, "X-Forwarded-For": {"127.0.0.1"}}
	assert.Equal(t, http.StatusForbidden, scrape("203.0.113.7:1234", spoofed))
	assert.Equal(t, http.StatusOK, scrape("127.0.0.1:1234", nil))
}

func TestEngine_TrustedProxyForwardsClientIP(t *testing.T) {
	app := newTestApp(t, func(d *Deps, o *EngineOptions) {
		d.MetricsEnabled = true
		d.MetricsPrivateOnly = true
		o.TrustedProxies = []string{"10.0.0.0/8"}
	})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.RemoteAddr = "10.0.0.5:443"
	req.Header.Set("X-Forwarded-For", "192.168.7.7")
	rec := httptest.NewRecorder()
	app.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewEngine_RejectsBadTrustedProxy(t *testing.T) {
	store := memory.NewStore()
	d := Deps{
		Users:   store.Users(),
		Roles:   store.Roles(),
		JWT:     helpers.NewJWTManager("test-secret", time.Hour),
		Hasher:  helpers.NewHasher(bcrypt.MinCost),
		Cookies: helpers.NewCookie("", false),
		Logger:  helpers.NewDiscardLogger(),
	}
	_, err := NewEngine(d, NewServices(d), EngineOptions{TrustedProxies: []string{"not-an-ip"}})
	assert.Error(t, err)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
