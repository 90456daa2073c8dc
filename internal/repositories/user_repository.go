package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"emaginer/internal/models"
)

type UserRepository interface {
	// WithTx — копия репозитория, привязанная к транзакции.
	WithTx(tx *sql.Tx) UserRepository

	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	GetByUserNameAndStatus(ctx context.Context, userName, status string) (*models.User, error)

	// TouchForUpdate — условный update-returning по id: сдвигает updated_at и
	// возвращает свежий документ. Первый успешный вызов внутри транзакции
	// играет роль write-lock и сериализует конкурентные verify.
	TouchForUpdate(ctx context.Context, id int) (*models.User, error)

	UpdateStatus(ctx context.Context, id int, status string) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	AdminUpdate(ctx context.Context, id int, status, role string) (*models.User, error)
	Delete(ctx context.Context, id int) error
}

type userRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *sql.Tx) UserRepository {
	return &userRepository{db: tx}
}

const userColumns = `
	id, name, user_name, email, password_hash,
	COALESCE(gender,''), dob, status, role,
	created_at, updated_at, password_changed_at
`

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (name, user_name, email, password_hash, gender, dob, status, role)
		VALUES ($1, $2, $3, $4, NULLIF($5,''), $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, q,
		user.Name,
		user.UserName,
		user.Email,
		user.PasswordHash,
		user.Gender,
		user.DOB,
		user.Status,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("user create: %w", err)
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var (
		dob       sql.NullTime
		pwChanged sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.UserName, &u.Email, &u.PasswordHash,
		&u.Gender, &dob, &u.Status, &u.Role,
		&u.CreatedAt, &u.UpdatedAt, &pwChanged,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("user scan: %w", err)
	}
	if dob.Valid {
		t := dob.Time
		u.DOB = &t
	}
	if pwChanged.Valid {
		t := pwChanged.Time
		u.PasswordChangedAt = &t
	}
	return u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, email))
}

func (r *userRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE user_name = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, userName))
}

func (r *userRepository) GetByUserNameAndStatus(ctx context.Context, userName, status string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE user_name = $1 AND status = $2`
	return scanUser(r.db.QueryRowContext(ctx, q, userName, status))
}

func (r *userRepository) TouchForUpdate(ctx context.Context, id int) (*models.User, error) {
	const q = `
		UPDATE users SET updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

func (r *userRepository) UpdateStatus(ctx context.Context, id int, status string) error {
	const q = `UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return fmt.Errorf("user update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdatePassword — помимо хэша сдвигает password_changed_at: все токены,
// выпущенные до этого момента, перестают проходить auth-middleware.
func (r *userRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	const q = `
		UPDATE users
		SET password_hash = $2, password_changed_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, q, id, passwordHash)
	if err != nil {
		return fmt.Errorf("user update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *userRepository) AdminUpdate(ctx context.Context, id int, status, role string) (*models.User, error) {
	const q = `
		UPDATE users
		SET status = COALESCE(NULLIF($2,''), status),
		    role = COALESCE(NULLIF($3,''), role),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, q, id, status, role))
}

func (r *userRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("user delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
