package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	repo "github.com/oksasatya/go-user-admin/internal/domain/repository"
	"github.com/oksasatya/go-user-admin/pkg/helpers"
	"github.com/oksasatya/go-user-admin/pkg/validation"
)

// RoleService is the role store. Lookups report absence as (nil, nil);
// only GetByID turns absence into ErrRoleNotFound.
type RoleService struct {
	Repo   repo.RoleRepository
	Logger *logrus.Logger
}

func NewRoleService(repo repo.RoleRepository, logger *logrus.Logger) *RoleService {
	if logger == nil {
		logger = helpers.NewDiscardLogger()
	}
	return &RoleService{Repo: repo, Logger: logger}
}

func (s *RoleService) FindAll(ctx context.Context) ([]entity.Role, error) {
	return s.Repo.FindAll(ctx)
}

func (s *RoleService) FindByID(ctx context.Context, id int64) (*entity.Role, error) {
	r, err := s.Repo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return r, err
}

func (s *RoleService) GetByID(ctx context.Context, id int64) (*entity.Role, error) {
	r, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		s.Logger.WithField("role_id", id).Warn("role not found")
		return nil, &RoleNotFoundError{ID: id}
	}
	return r, nil
}

func (s *RoleService) FindByRoleName(ctx context.Context, name string) (*entity.Role, error) {
	r, err := s.Repo.FindByName(ctx, name)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return r, err
}

// Save creates a role. Names are unique.
func (s *RoleService) Save(ctx context.Context, r *entity.Role) error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return NewValidationError(validation.FieldError{Field: "name", Message: "is required"})
	}
	if err := s.Repo.Create(ctx, r); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return ErrRoleExists
		}
		return err
	}
	s.Logger.WithFields(logrus.Fields{"role_id": r.ID, "role": r.Name}).Info("role saved")
	return nil
}
