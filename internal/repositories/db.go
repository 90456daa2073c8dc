package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// DBTX — общий знаменатель *sql.DB и *sql.Tx. Репозитории создаются поверх
// пула, а внутри транзакции сервис перевязывает их на tx через WithTx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UniqueViolationColumn — если ошибка это нарушение уникального индекса
// Postgres (23505), возвращает имя колонки по имени констрейнта.
func UniqueViolationColumn(err error) (string, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return "", false
	}
	switch pqErr.Constraint {
	case "users_email_key":
		return "email", true
	case "users_user_name_key":
		return "user_name", true
	}
	return "", true
}
