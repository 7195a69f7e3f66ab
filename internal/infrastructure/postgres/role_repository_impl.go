package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-user-admin/internal/domain/repository"
)

type RoleRepository struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

func (r *RoleRepository) FindAll(ctx context.Context) ([]entity.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM roles ORDER BY id`)
	if err != nil {
		return nil, classify(err)
	}
	roles, err := pgx.CollectRows(rows, scanRole)
	if err != nil {
		return nil, classify(err)
	}
	return roles, nil
}

func (r *RoleRepository) FindByID(ctx context.Context, id int64) (*entity.Role, error) {
	return r.one(ctx, `SELECT id, name, created_at FROM roles WHERE id = $1`, id)
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*entity.Role, error) {
	return r.one(ctx, `SELECT id, name, created_at FROM roles WHERE name = $1`, name)
}

func (r *RoleRepository) Create(ctx context.Context, role *entity.Role) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO roles (name)
		VALUES ($1)
		RETURNING id, created_at
	`, role.Name)
	return classify(row.Scan(&role.ID, &role.CreatedAt))
}

func (r *RoleRepository) one(ctx context.Context, sql string, arg any) (*entity.Role, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, classify(err)
	}
	role, err := pgx.CollectExactlyOneRow(rows, scanRole)
	if err != nil {
		return nil, classify(err)
	}
	return &role, nil
}

func scanRole(row pgx.CollectableRow) (entity.Role, error) {
	var role entity.Role
	err := row.Scan(&role.ID, &role.Name, &role.CreatedAt)
	return role, err
}

var _ repository.RoleRepository = (*RoleRepository)(nil)
