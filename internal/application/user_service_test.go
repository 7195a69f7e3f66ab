package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-user-admin/internal/infrastructure/memory"
	"github.com/oksasatya/go-user-admin/pkg/helpers"
)

type fixture struct {
	store     *memory.Store
	roles     *RoleService
	users     *UserService
	hasher    *helpers.Hasher
	userRole  entity.Role
	adminRole entity.Role
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	hasher := helpers.NewHasher(bcrypt.MinCost)
	roles := NewRoleService(store.Roles(), nil)
	f := &fixture{
		store:  store,
		roles:  roles,
		users:  NewUserService(store.Users(), roles, hasher, nil),
		hasher: hasher,
	}
	f.userRole = entity.Role{Name: entity.RoleUser}
	f.adminRole = entity.Role{Name: entity.RoleAdmin}
	require.NoError(t, roles.Save(context.Background(), &f.userRole), "save user role")
	require.NoError(t, roles.Save(context.Background(), &f.adminRole), "save admin role")
	return f
}

func (f *fixture) addUser(t *testing.T, email, password string, roles ...entity.Role) *entity.User {
	t.Helper()
	u := &entity.User{Name: "Ann", Lastname: "Lee", Age: 33, Email: email, Password: password, Roles: roles}
	require.NoError(t, f.users.AddNewUser(context.Background(), u), "AddNewUser")
	return u
}

func TestUserService_AddNewUser_HashesPassword(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, "a@x.com", "pw1", entity.Role{ID: f.userRole.ID})
	require.NotZero(t, u.ID, "expected generated id")

	stored, ok := f.store.StoredPassword(u.ID)
	require.True(t, ok, "user not persisted")
	assert.NotEqual(t, "pw1", stored, "plaintext persisted")
	assert.True(t, f.hasher.Verify(stored, "pw1"))
	assert.False(t, f.hasher.Verify(stored, "wrong"))

	got, err := f.users.GetUserWithRoles(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, got.Roles, 1)
	assert.Equal(t, entity.RoleUser, got.Roles[0].Name)
}

func TestUserService_AddNewUser_UnknownRole(t *testing.T) {
	f := newFixture(t)
	u := &entity.User{Name: "Bob", Email: "b@x.com", Password: "pw", Roles: []entity.Role{{ID: f.userRole.ID}, {ID: 999}}}

	err := f.users.AddNewUser(context.Background(), u)
	var rnf *RoleNotFoundError
	require.ErrorAs(t, err, &rnf)
	assert.Equal(t, int64(999), rnf.ID)
	assert.ErrorIs(t, err, ErrRoleNotFound)
	assert.Zero(t, f.store.UserCount())
	assert.Zero(t, u.ID, "caller's user must be untouched on failure")
	assert.Equal(t, "pw", u.Password)
}

func TestUserService_AddNewUser_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "a@x.com", "pw1", entity.Role{ID: f.userRole.ID})

	err := f.users.AddNewUser(context.Background(), &entity.User{Name: "Dup", Email: "a@x.com", Password: "pw2"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasField("email"))
	assert.Equal(t, 1, f.store.UserCount())
}

func TestUserService_AddNewUser_DuplicateRoleRefsCollapse(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, "c@x.com", "pw", entity.Role{ID: f.adminRole.ID}, entity.Role{ID: f.adminRole.ID})
	assert.Len(t, u.Roles, 1)
}

func TestUserService_Edit_UnknownID(t *testing.T) {
	f := newFixture(t)
	existing := f.addUser(t, "a@x.com", "pw1", entity.Role{ID: f.userRole.ID})

	err := f.users.Edit(context.Background(), &entity.User{ID: 42, Name: "Ghost", Email: "g@x.com"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	got, err := f.users.GetUserWithRoles(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, 1, f.store.UserCount())
}

func TestUserService_Edit_PasswordRule(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, "a@x.com", "pw1", entity.Role{ID: f.userRole.ID})
	original, _ := f.store.StoredPassword(u.ID)

	resubmit := *u
	resubmit.Password = original
	resubmit.Name = "Renamed"
	require.NoError(t, f.users.Edit(context.Background(), &resubmit))
	stored, _ := f.store.StoredPassword(u.ID)
	assert.Equal(t, original, stored, "resubmitting the stored hash changed it")

	blank := resubmit
	blank.Password = ""
	require.NoError(t, f.users.Edit(context.Background(), &blank))
	stored, _ = f.store.StoredPassword(u.ID)
	assert.Equal(t, original, stored, "blank password changed the stored hash")

	changed := resubmit
	changed.Password = "pw2"
	require.NoError(t, f.users.Edit(context.Background(), &changed))
	stored, _ = f.store.StoredPassword(u.ID)
	assert.NotEqual(t, original, stored)
	assert.NotEqual(t, "pw2", stored)
	assert.True(t, f.hasher.Verify(stored, "pw2"))
}

func TestUserService_Edit_ReplacesRoles(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, "a@x.com", "pw1", entity.Role{ID: f.userRole.ID})

	edit := *u
	edit.Roles = []entity.Role{{ID: f.adminRole.ID}}
	require.NoError(t, f.users.Edit(context.Background(), &edit))
	got, err := f.users.GetUserWithRoles(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, got.Roles, 1)
	assert.Equal(t, entity.RoleAdmin, got.Roles[0].Name)

	bad := *got
	bad.Name = "Changed"
	bad.Roles = []entity.Role{{ID: 77}}
	assert.ErrorIs(t, f.users.Edit(context.Background(), &bad), ErrRoleNotFound)

	again, err := f.users.GetUserWithRoles(context.Background(), u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "Changed", again.Name, "failed edit leaked changes")
	assert.Equal(t, entity.RoleAdmin, again.Roles[0].Name)
}

func TestUserService_Delete(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, "a@x.com", "pw1")

	assert.ErrorIs(t, f.users.DeleteUser(context.Background(), 999), ErrUserNotFound)
	require.NoError(t, f.users.DeleteUser(context.Background(), u.ID))
	_, err := f.users.GetUser(context.Background(), u.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_Update_Patch(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, "a@x.com", "pw1", entity.Role{ID: f.userRole.ID})
	original, _ := f.store.StoredPassword(u.ID)

	age := 41
	got, err := f.users.Update(context.Background(), UserPatch{ID: u.ID, Age: &age})
	require.NoError(t, err)
	assert.Equal(t, 41, got.Age)
	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, "a@x.com", got.Email)
	require.Len(t, got.Roles, 1, "roles must be kept when absent from patch")
	assert.Equal(t, f.userRole.ID, got.Roles[0].ID)
	stored, _ := f.store.StoredPassword(u.ID)
	assert.Equal(t, original, stored, "absent password must keep the stored hash")

	pw := "fresh"
	got, err = f.users.Update(context.Background(), UserPatch{ID: u.ID, Password: &pw, Roles: []RoleRef{{ID: f.adminRole.ID}}})
	require.NoError(t, err)
	stored, _ = f.store.StoredPassword(u.ID)
	assert.True(t, f.hasher.Verify(stored, "fresh"))
	require.Len(t, got.Roles, 1)
	assert.Equal(t, entity.RoleAdmin, got.Roles[0].Name)
}

func TestUserService_Update_Validation(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, "a@x.com", "pw1")

	age := -1
	email := "not-an-email"
	_, err := f.users.Update(context.Background(), UserPatch{ID: u.ID, Age: &age, Email: &email})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasField("age"))
	assert.True(t, verr.HasField("email"))

	got, err := f.users.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, 33, got.Age, "invalid patch mutated the store")

	_, err = f.users.Update(context.Background(), UserPatch{ID: 999})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
