package main

import (
	"context"
	"fmt"
	"log"

	"github.com/oksasatya/go-user-admin/config"
	"github.com/oksasatya/go-user-admin/db"
	"github.com/oksasatya/go-user-admin/internal/application"
	pginfra "github.com/oksasatya/go-user-admin/internal/infrastructure/postgres"
	"github.com/oksasatya/go-user-admin/pkg/helpers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{MaxConns: 2})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := pginfra.RunMigrations(cfg.PostgresDSN(), db.Migrations, db.MigrationsPath, logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	users := pginfra.NewUserRepository(pool)
	hasher := helpers.NewHasher(cfg.BcryptCost)
	roles := application.NewRoleService(pginfra.NewRoleRepository(pool), logger)
	userSvc := application.NewUserService(users, roles, hasher, logger)
	auth := application.NewAuthService(users, hasher, helpers.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL), nil, logger)

	if err := application.SeedDefaults(ctx, roles, userSvc, auth); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	for _, u := range application.DefaultSeedUsers {
		fmt.Printf("ensured user: email=%s roles=%v\n", u.Email, u.Roles)
	}
}
