package repository

import (
	"context"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
)

// RoleRepository defines role persistence. Roles are never updated or deleted.
type RoleRepository interface {
	FindAll(ctx context.Context) ([]entity.Role, error)
	FindByID(ctx context.Context, id int64) (*entity.Role, error)
	FindByName(ctx context.Context, name string) (*entity.Role, error)
	Create(ctx context.Context, r *entity.Role) error
}
