// Package memory keeps users and roles in process memory. It mirrors the
// constraints of the Postgres schema (unique email and role name, role
// links must reference existing roles) and backs the package tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-user-admin/internal/domain/repository"
)

// Store holds both tables behind one lock so user writes can check role links.
type Store struct {
	mu       sync.RWMutex
	roles    map[int64]entity.Role
	users    map[int64]entity.User
	links    map[int64][]int64
	nextRole int64
	nextUser int64
}

func NewStore() *Store {
	return &Store{
		roles: make(map[int64]entity.Role),
		users: make(map[int64]entity.User),
		links: make(map[int64][]int64),
	}
}

// Roles returns the role repository view of the store.
func (s *Store) Roles() *RoleRepository { return &RoleRepository{s: s} }

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// UserCount reports the number of stored users.
func (s *Store) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// StoredPassword returns the persisted password column for id.
func (s *Store) StoredPassword(id int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u.Password, ok
}

type RoleRepository struct {
	s *Store
}

func (r *RoleRepository) FindAll(_ context.Context) ([]entity.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entity.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *RoleRepository) FindByID(_ context.Context, id int64) (*entity.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	role, ok := r.s.roles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &role, nil
}

func (r *RoleRepository) FindByName(_ context.Context, name string) (*entity.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, role := range r.s.roles {
		if role.Name == name {
			return &role, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *RoleRepository) Create(_ context.Context, role *entity.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.roles {
		if existing.Name == role.Name {
			return repository.ErrDuplicate
		}
	}
	r.s.nextRole++
	role.ID = r.s.nextRole
	role.CreatedAt = time.Now()
	r.s.roles[role.ID] = *role
	return nil
}

type UserRepository struct {
	s *Store
}

func (r *UserRepository) FindAllWithRoles(_ context.Context) ([]entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entity.User, 0, len(r.s.users))
	for id := range r.s.users {
		out = append(out, r.s.withRoles(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.Roles = nil
	return &u, nil
}

func (r *UserRepository) FindByIDWithRoles(_ context.Context, id int64) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.users[id]; !ok {
		return nil, repository.ErrNotFound
	}
	u := r.s.withRoles(id)
	return &u, nil
}

func (r *UserRepository) FindByEmailWithRoles(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for id, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			found := r.s.withRoles(id)
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.emailTaken(u.Email, 0) {
		return repository.ErrDuplicate
	}
	if !r.s.rolesExist(u.Roles) {
		return repository.ErrMissingReference
	}
	r.s.nextUser++
	now := time.Now()
	u.ID = r.s.nextUser
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.put(u)
	return nil
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.s.emailTaken(u.Email, u.ID) {
		return repository.ErrDuplicate
	}
	if !r.s.rolesExist(u.Roles) {
		return repository.ErrMissingReference
	}
	u.UpdatedAt = time.Now()
	r.s.put(u)
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	delete(r.s.links, id)
	return nil
}

// caller holds the lock
func (s *Store) put(u *entity.User) {
	row := *u
	row.Roles = nil
	s.users[u.ID] = row
	s.links[u.ID] = u.RoleIDs()
}

func (s *Store) withRoles(id int64) entity.User {
	u := s.users[id]
	u.Roles = make([]entity.Role, 0, len(s.links[id]))
	for _, rid := range s.links[id] {
		u.Roles = append(u.Roles, s.roles[rid])
	}
	return u
}

func (s *Store) emailTaken(email string, except int64) bool {
	for id, u := range s.users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (s *Store) rolesExist(roles []entity.Role) bool {
	for _, r := range roles {
		if _, ok := s.roles[r.ID]; !ok {
			return false
		}
	}
	return true
}

var (
	_ repository.UserRepository = (*UserRepository)(nil)
	_ repository.RoleRepository = (*RoleRepository)(nil)
)
