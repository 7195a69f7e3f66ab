package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-user-admin/internal/domain/repository"
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const selectUserWithRoles = `
	SELECT u.id, u.name, u.last_name, u.age, u.email, u.password, u.created_at, u.updated_at,
	       r.id, r.name
	FROM users u
	LEFT JOIN users_roles ur ON ur.user_id = u.id
	LEFT JOIN roles r ON r.id = ur.role_id
`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindAllWithRoles(ctx context.Context) ([]entity.User, error) {
	users, err := queryUsersWithRoles(ctx, r.pool, selectUserWithRoles+` ORDER BY u.id, r.id`)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	u := &entity.User{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, last_name, age, email, password, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	if err := row.Scan(&u.ID, &u.Name, &u.Lastname, &u.Age, &u.Email, &u.Password,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, classify(err)
	}
	return u, nil
}

func (r *UserRepository) FindByIDWithRoles(ctx context.Context, id int64) (*entity.User, error) {
	return firstUser(queryUsersWithRoles(ctx, r.pool, selectUserWithRoles+` WHERE u.id = $1 ORDER BY r.id`, id))
}

func (r *UserRepository) FindByEmailWithRoles(ctx context.Context, email string) (*entity.User, error) {
	return firstUser(queryUsersWithRoles(ctx, r.pool, selectUserWithRoles+` WHERE lower(u.email) = lower($1) ORDER BY r.id`, email))
}

// Create inserts the user and its role links in one transaction.
func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	return classify(pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO users (name, last_name, age, email, password)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at, updated_at
		`, u.Name, u.Lastname, u.Age, u.Email, u.Password)
		if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		return linkRoles(ctx, tx, u.ID, u.RoleIDs())
	}))
}

// Update overwrites the row and replaces the role links in one transaction.
func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	return classify(pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		u.UpdatedAt = time.Now()
		res, err := tx.Exec(ctx, `
			UPDATE users
			SET name = $1, last_name = $2, age = $3, email = $4, password = $5, updated_at = $6
			WHERE id = $7
		`, u.Name, u.Lastname, u.Age, u.Email, u.Password, u.UpdatedAt, u.ID)
		if err != nil {
			return err
		}
		if res.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM users_roles WHERE user_id = $1`, u.ID); err != nil {
			return err
		}
		return linkRoles(ctx, tx, u.ID, u.RoleIDs())
	}))
}

// Delete removes the user; role links go with it through ON DELETE CASCADE.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return classify(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func linkRoles(ctx context.Context, q querier, userID int64, roleIDs []int64) error {
	if len(roleIDs) == 0 {
		return nil
	}
	_, err := q.Exec(ctx, `
		INSERT INTO users_roles (user_id, role_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`, userID, roleIDs)
	return err
}

// queryUsersWithRoles folds the joined rows into users, keeping row order.
func queryUsersWithRoles(ctx context.Context, q querier, sql string, args ...any) ([]entity.User, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	users := make([]entity.User, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var (
			u        entity.User
			roleID   *int64
			roleName *string
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Lastname, &u.Age, &u.Email, &u.Password,
			&u.CreatedAt, &u.UpdatedAt, &roleID, &roleName); err != nil {
			return nil, err
		}
		i, seen := index[u.ID]
		if !seen {
			u.Roles = []entity.Role{}
			users = append(users, u)
			i = len(users) - 1
			index[u.ID] = i
		}
		if roleID != nil && roleName != nil {
			users[i].Roles = append(users[i].Roles, entity.Role{ID: *roleID, Name: *roleName})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func firstUser(users []entity.User, err error) (*entity.User, error) {
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, repository.ErrNotFound
	}
	return &users[0], nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
