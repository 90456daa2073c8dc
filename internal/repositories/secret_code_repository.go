package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"emaginer/internal/models"
)

type SecretCodeRepository interface {
	WithTx(tx *sql.Tx) SecretCodeRepository

	// Create — сохраняет дайджест нового кода. Открытый код сюда не попадает.
	Create(ctx context.Context, email, codeDigest string) (int64, error)

	// GetByEmailAndCode — точечный поиск по паре {email, дайджест}.
	GetByEmailAndCode(ctx context.Context, email, codeDigest string) (*models.SecretCode, error)

	// GetByCodeForUpdate — поиск по дайджесту с блокировкой строки; первый
	// из конкурентных reset-password забирает код, второй получает "нет кода".
	GetByCodeForUpdate(ctx context.Context, codeDigest string) (*models.SecretCode, error)

	// DeleteByEmail — чистит все коды адреса: и при выдаче нового
	// (single-outstanding-code), и при потреблении (закрывает повторное
	// использование).
	DeleteByEmail(ctx context.Context, email string) (int64, error)
}

type secretCodeRepository struct {
	db DBTX
}

func NewSecretCodeRepository(db DBTX) SecretCodeRepository {
	return &secretCodeRepository{db: db}
}

func (r *secretCodeRepository) WithTx(tx *sql.Tx) SecretCodeRepository {
	return &secretCodeRepository{db: tx}
}

func (r *secretCodeRepository) Create(ctx context.Context, email, codeDigest string) (int64, error) {
	const q = `
		INSERT INTO secret_codes (email, code)
		VALUES ($1, $2)
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRowContext(ctx, q, email, codeDigest).Scan(&id); err != nil {
		return 0, fmt.Errorf("secret_code create: %w", err)
	}
	return id, nil
}

func scanSecretCode(row *sql.Row) (*models.SecretCode, error) {
	var c models.SecretCode
	if err := row.Scan(&c.ID, &c.Email, &c.Code, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("secret_code scan: %w", err)
	}
	return &c, nil
}

func (r *secretCodeRepository) GetByEmailAndCode(ctx context.Context, email, codeDigest string) (*models.SecretCode, error) {
	const q = `
		SELECT id, email, code, created_at
		FROM secret_codes
		WHERE email = $1 AND code = $2
	`
	return scanSecretCode(r.db.QueryRowContext(ctx, q, email, codeDigest))
}

func (r *secretCodeRepository) GetByCodeForUpdate(ctx context.Context, codeDigest string) (*models.SecretCode, error) {
	const q = `
		SELECT id, email, code, created_at
		FROM secret_codes
		WHERE code = $1
		FOR UPDATE
	`
	return scanSecretCode(r.db.QueryRowContext(ctx, q, codeDigest))
}

func (r *secretCodeRepository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM secret_codes WHERE email = $1`, email)
	if err != nil {
		return 0, fmt.Errorf("secret_code delete by email: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
