package router

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-admin/internal/application"
	"github.com/oksasatya/go-user-admin/internal/container"
	repo "github.com/oksasatya/go-user-admin/internal/domain/repository"
	pginfra "github.com/oksasatya/go-user-admin/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/go-user-admin/internal/interface/http"
	"github.com/oksasatya/go-user-admin/internal/router/modules"
	"github.com/oksasatya/go-user-admin/pkg/helpers"
	"github.com/oksasatya/go-user-admin/web"
)

// Deps are the infrastructure pieces the modules are built from.
type Deps struct {
	Users   repo.UserRepository
	Roles   repo.RoleRepository
	Redis   *redis.Client
	JWT     *helpers.JWTManager
	Hasher  *helpers.Hasher
	Cookies *helpers.Manager
	Logger  *logrus.Logger
	Checks  map[string]handlers.Check

	LoginRateLimit     int
	MetricsEnabled     bool
	MetricsPrivateOnly bool
}

// BuildDeps assembles Deps from the container singletons.
func BuildDeps() Deps {
	cfg := container.GetConfig()
	pool := container.GetPGPool()
	rdb := container.GetRedis()

	checks := map[string]handlers.Check{}
	if pool != nil {
		checks["postgres"] = pool.Ping
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	return Deps{
		Users:              pginfra.NewUserRepository(pool),
		Roles:              pginfra.NewRoleRepository(pool),
		Redis:              rdb,
		JWT:                container.GetJWT(),
		Hasher:             container.GetHasher(),
		Cookies:            helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure),
		Logger:             container.GetLogger(),
		Checks:             checks,
		LoginRateLimit:     cfg.LoginRateLimit,
		MetricsEnabled:     cfg.MetricsEnabled,
		MetricsPrivateOnly: cfg.MetricsPrivateOnly,
	}
}

// Services are the application components shared by the modules.
type Services struct {
	Roles     *application.RoleService
	Users     *application.UserService
	Auth      *application.AuthService
	Validator *application.UserValidator
}

func NewServices(d Deps) *Services {
	roles := application.NewRoleService(d.Roles, d.Logger)
	users := application.NewUserService(d.Users, roles, d.Hasher, d.Logger)
	auth := application.NewAuthService(d.Users, d.Hasher, d.JWT, d.Redis, d.Logger)
	return &Services{
		Roles:     roles,
		Users:     users,
		Auth:      auth,
		Validator: application.NewUserValidator(auth, d.Logger),
	}
}

// InitModules builds every feature module and adds it to the registry.
// Call once during startup.
func InitModules(r *Registry, d Deps, s *Services) {
	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(s.Auth, d.Cookies, d.Logger), d.Redis, d.LoginRateLimit, d.Logger))
	r.Add(modules.NewAdminModule(
		handlers.NewAdminHandler(s.Users, s.Roles, s.Validator, d.Logger),
		handlers.NewAdminAPIHandler(s.Users, s.Roles, s.Validator, d.Logger),
		d.Redis,
	))
	r.Add(modules.NewUserModule(handlers.NewUserHandler(s.Users, d.Logger)))
	r.Add(modules.NewOpsModule(handlers.NewHealthHandler(d.Checks, d.Logger), web.Static(), d.MetricsEnabled, d.MetricsPrivateOnly))
}
