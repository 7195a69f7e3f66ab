package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	repo "github.com/oksasatya/go-user-admin/internal/domain/repository"
	"github.com/oksasatya/go-user-admin/pkg/helpers"
	"github.com/oksasatya/go-user-admin/pkg/validation"
)

// UserService is the user store. Writes resolve every role reference first
// and persist user row plus role links in one repository call.
type UserService struct {
	Repo   repo.UserRepository
	Roles  *RoleService
	Hasher *helpers.Hasher
	Logger *logrus.Logger
}

func NewUserService(repo repo.UserRepository, roles *RoleService, hasher *helpers.Hasher, logger *logrus.Logger) *UserService {
	if logger == nil {
		logger = helpers.NewDiscardLogger()
	}
	return &UserService{Repo: repo, Roles: roles, Hasher: hasher, Logger: logger}
}

// RoleRef points at an existing role by id.
type RoleRef struct {
	ID int64 `json:"id" binding:"required,gt=0"`
}

// UserPatch is a partial update. Nil fields keep their stored value; a
// non-nil Roles replaces the whole role set.
type UserPatch struct {
	ID       int64     `json:"id" binding:"required,gt=0"`
	Name     *string   `json:"name" binding:"omitnil,personname"`
	Lastname *string   `json:"lastname" binding:"omitnil,max=30"`
	Age      *int      `json:"age" binding:"omitnil,gte=0,lte=150"`
	Email    *string   `json:"email" binding:"omitnil,required,email,max=255"`
	Password *string   `json:"password" binding:"omitempty,pwd"`
	Roles    []RoleRef `json:"role" binding:"omitempty,dive"`
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]entity.User, error) {
	return s.Repo.FindAllWithRoles(ctx)
}

// GetUser loads the user row without roles.
func (s *UserService) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	u, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.notFound(err, id)
	}
	return u, nil
}

func (s *UserService) GetUserWithRoles(ctx context.Context, id int64) (*entity.User, error) {
	u, err := s.Repo.FindByIDWithRoles(ctx, id)
	if err != nil {
		return nil, s.notFound(err, id)
	}
	return u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return s.notFound(err, id)
	}
	s.Logger.WithField("user_id", id).Info("user deleted")
	return nil
}

// AddNewUser resolves roles, hashes the plaintext password and persists.
// On success u carries the stored state, including the generated id.
func (s *UserService) AddNewUser(ctx context.Context, u *entity.User) error {
	roles, err := s.resolveRoles(ctx, u.Roles)
	if err != nil {
		return err
	}
	hash, err := s.hash(u.Password)
	if err != nil {
		return err
	}

	next := *u
	next.Roles = roles
	next.Password = hash
	if err := s.Repo.Create(ctx, &next); err != nil {
		return s.writeError(err)
	}
	*u = next
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email, "roles": u.Authorities()}).Info("user created")
	return nil
}

// Edit overwrites every field of an existing user and replaces its role set.
// Password is kept when empty or identical to the stored hash; any other
// value is plaintext and gets hashed.
func (s *UserService) Edit(ctx context.Context, u *entity.User) error {
	if u == nil {
		return ErrUserNotFound
	}
	existing, err := s.Repo.FindByID(ctx, u.ID)
	if err != nil {
		return s.notFound(err, u.ID)
	}
	roles, err := s.resolveRoles(ctx, u.Roles)
	if err != nil {
		return err
	}

	next := *u
	next.Roles = roles
	next.CreatedAt = existing.CreatedAt
	if u.Password == "" || u.Password == existing.Password {
		next.Password = existing.Password
	} else {
		hash, err := s.hash(u.Password)
		if err != nil {
			return err
		}
		next.Password = hash
		s.Logger.WithField("user_id", u.ID).Debug("password changed")
	}

	if err := s.Repo.Update(ctx, &next); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return s.writeError(err)
	}
	*u = next
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email, "roles": u.Authorities()}).Info("user edited")
	return nil
}

// Update validates the patch, merges it over the stored user and runs Edit.
func (s *UserService) Update(ctx context.Context, patch UserPatch) (*entity.User, error) {
	if errs := validation.Struct(&patch); errs != nil {
		return nil, NewValidationError(errs...)
	}
	existing, err := s.Repo.FindByIDWithRoles(ctx, patch.ID)
	if err != nil {
		return nil, s.notFound(err, patch.ID)
	}

	next := *existing
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	if patch.Lastname != nil {
		next.Lastname = *patch.Lastname
	}
	if patch.Age != nil {
		next.Age = *patch.Age
	}
	if patch.Email != nil {
		next.Email = *patch.Email
	}
	if patch.Password != nil {
		next.Password = *patch.Password
	}
	if patch.Roles != nil {
		next.Roles = make([]entity.Role, 0, len(patch.Roles))
		for _, r := range patch.Roles {
			next.Roles = append(next.Roles, entity.Role{ID: r.ID})
		}
	}

	if err := s.Edit(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// resolveRoles loads every referenced role by id. The first missing id
// aborts the write. Duplicate references collapse to one.
func (s *UserService) resolveRoles(ctx context.Context, refs []entity.Role) ([]entity.Role, error) {
	out := make([]entity.Role, 0, len(refs))
	seen := make(map[int64]struct{}, len(refs))
	for _, ref := range refs {
		if _, dup := seen[ref.ID]; dup {
			continue
		}
		seen[ref.ID] = struct{}{}
		r, err := s.Roles.GetByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *UserService) hash(plain string) (string, error) {
	h, err := s.Hasher.Hash(plain)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", NewValidationError(validation.FieldError{Field: "password", Message: "must be at most 72 bytes long"})
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return h, nil
}

func (s *UserService) notFound(err error, id int64) error {
	if errors.Is(err, repo.ErrNotFound) {
		s.Logger.WithField("user_id", id).Debug("user not found")
		return ErrUserNotFound
	}
	return err
}

func (s *UserService) writeError(err error) error {
	switch {
	case errors.Is(err, repo.ErrDuplicate):
		return emailInUse()
	case errors.Is(err, repo.ErrMissingReference):
		return fmt.Errorf("%w: %v", ErrRoleNotFound, err)
	default:
		return err
	}
}
