package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rekodi/core"
	"github.com/trezcool/rekodi/core/user"
)

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    null.Time      `db:"created_at"`
	UpdatedAt    null.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func newUserRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     usr.Username,
		Email:        usr.Email,
		IsActive:     usr.Active(),
		Roles:        usr.Roles,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    null.TimeFrom(usr.CreatedAt),
		UpdatedAt:    null.TimeFrom(usr.UpdatedAt),
		LastLogin:    null.NewTime(usr.LastLogin, !usr.LastLogin.IsZero()),
	}
}

func (row userRow) toUser() user.User {
	usr := user.User{
		ID:           row.ID,
		Name:         row.Name,
		Username:     row.Username,
		Email:        row.Email,
		Roles:        row.Roles,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
		LastLogin:    row.LastLogin.Time,
	}
	usr.SetActive(row.IsActive)
	return usr
}

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	ex := getExec(repo.db, exec)

	q := `SELECT EXISTS (SELECT 1 FROM users WHERE (username = ? OR email = ?)`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		q += ` AND id NOT IN (?)`
		args = append(args, ids)
	}
	q += `)`

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}

	var exists bool
	if err := ex.GetContext(ctx, &exists, ex.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	if exists {
		return user.ErrUserExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	ex := getExec(repo.db, exec)

	usr.ID = uuid.New().String()
	q := `
INSERT INTO users (id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login)
VALUES (:id, :name, :username, :email, :is_active, :roles, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := sqlx.NamedExecContext(ctx, ex, q, newUserRow(usr)); err != nil {
		if isPqErr(err, pqUniqueViolation) {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	ex := getExec(repo.db, exec)

	q := `SELECT * FROM users WHERE `
	var args []interface{}
	switch {
	case filter.ID != "":
		q += `id = ?`
		args = append(args, filter.ID)
	case filter.Username != "":
		q += `username = ?`
		args = append(args, filter.Username)
	case filter.Email != "":
		q += `email = ?`
		args = append(args, filter.Email)
	case len(filter.UsernameOrEmail) == 2:
		q += `(username = ? OR email = ?)`
		args = append(args, filter.UsernameOrEmail[0], filter.UsernameOrEmail[1])
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := ex.GetContext(ctx, &row, ex.Rebind(q), args...); err != nil {
		return user.User{}, trapNoRowsErr(errors.Wrap(err, "getting user"), user.ErrNotFound)
	}
	return row.toUser(), nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	ex := getExec(repo.db, exec)

	q := `SELECT * FROM users WHERE true`
	var args []interface{}
	if filter != nil {
		if filter.Search != "" {
			q += ` AND (name ILIKE ? OR username ILIKE ? OR email ILIKE ?)`
			search := "%" + filter.Search + "%"
			args = append(args, search, search, search)
		}
		if len(filter.Roles) > 0 {
			// prefix match on any role
			q += ` AND EXISTS (SELECT 1 FROM unnest(roles) AS r, unnest(?::text[]) AS p WHERE r LIKE p || '%')`
			args = append(args, pq.StringArray(filter.Roles))
		}
		if filter.IsActive != nil {
			q += ` AND is_active = ?`
			args = append(args, *filter.IsActive)
		}
		if !filter.CreatedFrom.IsZero() {
			q += ` AND created_at >= ?`
			args = append(args, filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			q += ` AND created_at <= ?`
			args = append(args, filter.CreatedTo.UTC())
		}
	}
	q += orderClause(ordering, "created_at DESC")

	var rows []userRow
	if err := ex.SelectContext(ctx, &rows, ex.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	ex := getExec(repo.db, exec)

	q := `
UPDATE users
SET name = :name, username = :username, email = :email, is_active = :is_active,
    roles = :roles, password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, ex, q, newUserRow(usr))
	if err != nil {
		if isPqErr(err, pqUniqueViolation) {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr, exec...)
	}

	ex := getExec(repo.db, exec)
	q := `
INSERT INTO users (id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login)
VALUES (:id, :name, :username, :email, :is_active, :roles, :password_hash, :created_at, :updated_at, :last_login)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name, username = EXCLUDED.username, email = EXCLUDED.email, is_active = EXCLUDED.is_active,
    roles = EXCLUDED.roles, password_hash = EXCLUDED.password_hash, updated_at = EXCLUDED.updated_at,
    last_login = EXCLUDED.last_login`
	if _, err := sqlx.NamedExecContext(ctx, ex, q, newUserRow(usr)); err != nil {
		return user.User{}, errors.Wrap(err, "upserting user")
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ex := getExec(repo.db, exec)

	q, args, err := sqlx.In(`DELETE FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := ex.ExecContext(ctx, ex.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
