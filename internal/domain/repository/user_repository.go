package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate")
	// ErrMissingReference is returned when a foreign key points at nothing.
	ErrMissingReference = errors.New("missing reference")
)

// UserRepository defines the interface for user-related database operations.
// Methods suffixed WithRoles eagerly populate User.Roles.
type UserRepository interface {
	FindAllWithRoles(ctx context.Context) ([]entity.User, error)
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	FindByIDWithRoles(ctx context.Context, id int64) (*entity.User, error)
	FindByEmailWithRoles(ctx context.Context, email string) (*entity.User, error)
	// Create inserts the user row and its role links as one unit.
	Create(ctx context.Context, u *entity.User) error
	// Update overwrites all fields and replaces the role links as one unit.
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id int64) error
}
