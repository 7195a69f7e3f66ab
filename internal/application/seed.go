package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
)

// SeedUser is a bootstrap account.
type SeedUser struct {
	Name     string
	Lastname string
	Age      int
	Email    string
	Password string
	Roles    []string
}

// DefaultSeedUsers are the accounts created on a fresh database.
var DefaultSeedUsers = []SeedUser{
	{Name: "admin", Lastname: "admin", Age: 30, Email: "admin@mail.ru", Password: "admin", Roles: []string{entity.RoleAdmin}},
	{Name: "user", Lastname: "user", Age: 20, Email: "user@mail.ru", Password: "user", Roles: []string{entity.RoleUser}},
}

// SeedDefaults creates the two roles and the bootstrap users when missing.
// Running it again changes nothing.
func SeedDefaults(ctx context.Context, roles *RoleService, users *UserService, auth *AuthService) error {
	byName := make(map[string]entity.Role, 2)
	for _, name := range []string{entity.RoleUser, entity.RoleAdmin} {
		r, err := ensureRole(ctx, roles, name)
		if err != nil {
			return err
		}
		byName[name] = *r
	}

	for _, su := range DefaultSeedUsers {
		existing, err := auth.LoadUserByEmail(ctx, su.Email)
		if err == nil && existing != nil {
			continue
		}
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			return fmt.Errorf("seed lookup %s: %w", su.Email, err)
		}
		u := &entity.User{Name: su.Name, Lastname: su.Lastname, Age: su.Age, Email: su.Email, Password: su.Password}
		for _, rn := range su.Roles {
			u.Roles = append(u.Roles, byName[rn])
		}
		if err := users.AddNewUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", su.Email, err)
		}
	}
	return nil
}

func ensureRole(ctx context.Context, roles *RoleService, name string) (*entity.Role, error) {
	r, err := roles.FindByRoleName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("seed role lookup %s: %w", name, err)
	}
	if r != nil {
		return r, nil
	}
	r = &entity.Role{Name: name}
	err = roles.Save(ctx, r)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, ErrRoleExists) {
		return nil, fmt.Errorf("seed role %s: %w", name, err)
	}
	// created concurrently; read back the winner
	r, err = roles.FindByRoleName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("seed role lookup %s: %w", name, err)
	}
	if r == nil {
		return nil, fmt.Errorf("seed role %s: reported as existing but not found", name)
	}
	return r, nil
}
