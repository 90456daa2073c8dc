package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"emaginer/internal/errs"
	"emaginer/internal/models"
	"emaginer/internal/repositories"
	"emaginer/internal/utils"
)

// --- фейки внешних коллабораторов ---

type sentEmail struct {
	to       string
	template EmailTemplate
	params   map[string]string
}

type fakeEmailService struct {
	sent []sentEmail
	err  error
}

func (f *fakeEmailService) SendEmail(to string, template EmailTemplate, params map[string]string) error {
	f.sent = append(f.sent, sentEmail{to: to, template: template, params: params})
	return f.err
}

type fakeTokenService struct {
	token string
	err   error
}

func (f *fakeTokenService) Sign(userID int) (string, error) { return f.token, f.err }
func (f *fakeTokenService) Verify(string) (*Claims, error)  { return nil, errors.New("not implemented") }

// --- helpers ---

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newTestService(t *testing.T) (UserService, sqlmock.Sqlmock, *fakeEmailService) {
	t.Helper()
	db, mock := newMockDB(t)
	emails := &fakeEmailService{}
	svc := NewUserService(
		db,
		repositories.NewUserRepository(db),
		repositories.NewSecretCodeRepository(db),
		NewAuthService(bcrypt.MinCost), // минимальный cost, не критично
		&fakeTokenService{token: "signed-token"},
		emails,
		16,
		"http://localhost:8080",
	)
	return svc, mock, emails
}

var userCols = []string{
	"id", "name", "user_name", "email", "password_hash",
	"gender", "dob", "status", "role",
	"created_at", "updated_at", "password_changed_at",
}

func userRow(id int, status, hash string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userCols).AddRow(
		id, "Alice", "alice", "a@x.com", hash,
		"", nil, status, "user",
		now, now, nil,
	)
}

var codeCols = []string{"id", "email", "code", "created_at"}

// --- Register ---

func TestRegister_Success(t *testing.T) {
	svc, mock, emails := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("a@x.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Alice", "alice", "a@x.com", sqlmock.AnyArg(), "", nil, models.StatusNotInitialized, "user").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(1, time.Now(), time.Now()))
	mock.ExpectExec("DELETE FROM secret_codes").
		WithArgs("a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO secret_codes").
		WithArgs("a@x.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	user := &models.User{Name: "Alice", UserName: "alice", Email: "A@X.com", Role: "user"}
	saved, token, err := svc.Register(context.Background(), user, "Str0ng!Pass")
	require.NoError(t, err)

	assert.Equal(t, "signed-token", token)
	assert.Equal(t, 1, saved.ID)
	assert.Equal(t, models.StatusNotInitialized, saved.Status)
	assert.Equal(t, "a@x.com", saved.Email) // email нормализован в нижний регистр
	assert.NotEqual(t, "Str0ng!Pass", saved.PasswordHash)

	// письмо ушло после коммита и содержит ссылку активации
	require.Len(t, emails.sent, 1)
	assert.Equal(t, TemplateRegistration, emails.sent[0].template)
	assert.Contains(t, emails.sent[0].params["activationUrl"], "http://localhost:8080/users/verify-account/1/")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, mock, emails := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("a@x.com").
		WillReturnRows(userRow(1, models.StatusActive, "$2a$10$hash"))
	mock.ExpectRollback()

	user := &models.User{Name: "Alice", UserName: "alice", Email: "a@x.com", Role: "user"}
	_, _, err := svc.Register(context.Background(), user, "Str0ng!Pass")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrDuplicateAccount)

	// ошибка привязана к полю email
	var ae *errs.AppError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Errors, "email")

	// второй документ не создан, письмо не отправлено
	assert.Empty(t, emails.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_EmailFailureDoesNotRollBack(t *testing.T) {
	svc, mock, emails := newTestService(t)
	emails.err = errors.New("smtp down")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(1, time.Now(), time.Now()))
	mock.ExpectExec("DELETE FROM secret_codes").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO secret_codes").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	user := &models.User{Name: "Alice", UserName: "alice", Email: "a@x.com", Role: "user"}
	_, token, err := svc.Register(context.Background(), user, "Str0ng!Pass")

	// сбой доставки не откатывает уже закоммиченный аккаунт
	require.NoError(t, err)
	assert.Equal(t, "signed-token", token)
}

// --- Verify ---

func TestVerify_Success(t *testing.T) {
	svc, mock, emails := newTestService(t)
	clearCode := "aabbccdd"

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE users SET updated_at").
		WithArgs(1).
		WillReturnRows(userRow(1, models.StatusNotInitialized, "$2a$10$hash"))
	mock.ExpectQuery("SELECT (.+) FROM secret_codes").
		WithArgs("a@x.com", utils.HashOTP(clearCode)).
		WillReturnRows(sqlmock.NewRows(codeCols).
			AddRow(1, "a@x.com", utils.HashOTP(clearCode), time.Now()))
	mock.ExpectExec("UPDATE users SET status").
		WithArgs(1, models.StatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM secret_codes").
		WithArgs("a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := svc.Verify(context.Background(), 1, clearCode)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, user.Status)

	require.Len(t, emails.sent, 1)
	assert.Equal(t, TemplateActivation, emails.sent[0].template)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerify_WrongCode(t *testing.T) {
	svc, mock, emails := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE users SET updated_at").
		WithArgs(1).
		WillReturnRows(userRow(1, models.StatusNotInitialized, "$2a$10$hash"))
	mock.ExpectQuery("SELECT (.+) FROM secret_codes").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Verify(context.Background(), 1, "wrong")
	assert.ErrorIs(t, err, errs.ErrInvalidOrExpiredCode)
	assert.Empty(t, emails.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerify_AlreadyActive(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE users SET updated_at").
		WithArgs(1).
		WillReturnRows(userRow(1, models.StatusActive, "$2a$10$hash"))
	mock.ExpectRollback()

	_, err := svc.Verify(context.Background(), 1, "aabbccdd")
	assert.ErrorIs(t, err, errs.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerify_UserNotFound(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE users SET updated_at").
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Verify(context.Background(), 99, "aabbccdd")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

// --- ResendCode ---

func TestResendCode_Success(t *testing.T) {
	svc, mock, emails := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE user_name").
		WithArgs("alice", models.StatusNotInitialized).
		WillReturnRows(userRow(1, models.StatusNotInitialized, "$2a$10$hash"))
	mock.ExpectExec("DELETE FROM secret_codes").
		WithArgs("a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1)) // предыдущий код вычищен
	mock.ExpectQuery("INSERT INTO secret_codes").
		WithArgs("a@x.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	err := svc.ResendCode(context.Background(), "alice")
	require.NoError(t, err)

	require.Len(t, emails.sent, 1)
	assert.Equal(t, TemplateResendCode, emails.sent[0].template)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResendCode_NotFoundOrActive(t *testing.T) {
	svc, mock, emails := newTestService(t)

	// фильтр {user_name, NOT_INITIALIZED} един для "нет такого" и "уже активен"
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE user_name").
		WithArgs("alice", models.StatusNotInitialized).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := svc.ResendCode(context.Background(), "alice")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Empty(t, emails.sent)
}

// --- ForgotPassword ---

func TestForgotPassword_Success(t *testing.T) {
	svc, mock, emails := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE user_name").
		WithArgs("alice").
		WillReturnRows(userRow(1, models.StatusNotInitialized, "$2a$10$hash"))
	mock.ExpectExec("DELETE FROM secret_codes").
		WithArgs("a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO secret_codes").
		WithArgs("a@x.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()

	// аккаунту не обязательно быть ACTIVE, чтобы сбросить пароль
	err := svc.ForgotPassword(context.Background(), "alice")
	require.NoError(t, err)

	require.Len(t, emails.sent, 1)
	assert.Equal(t, TemplateForgotPassword, emails.sent[0].template)
	assert.Contains(t, emails.sent[0].params["resetUrl"], "http://localhost:8080/users/reset-password/")
}

// --- ResetPassword ---

func TestResetPassword_Success(t *testing.T) {
	svc, mock, emails := newTestService(t)
	clearCode := "ffeeddcc"

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM secret_codes").
		WithArgs(utils.HashOTP(clearCode)).
		WillReturnRows(sqlmock.NewRows(codeCols).
			AddRow(1, "a@x.com", utils.HashOTP(clearCode), time.Now()))
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("a@x.com").
		WillReturnRows(userRow(1, models.StatusActive, "$2a$10$old"))
	mock.ExpectExec("UPDATE users").
		WithArgs(1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM secret_codes").
		WithArgs("a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.ResetPassword(context.Background(), clearCode, "N3w!Password")
	require.NoError(t, err)

	require.Len(t, emails.sent, 1)
	assert.Equal(t, TemplateResetPassword, emails.sent[0].template)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetPassword_UnknownCode(t *testing.T) {
	svc, mock, emails := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM secret_codes").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := svc.ResetPassword(context.Background(), "nope", "N3w!Password")
	assert.ErrorIs(t, err, errs.ErrInvalidOrExpiredCode)
	assert.Empty(t, emails.sent)
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	svc, mock, _ := newTestService(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("Str0ng!Pass"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE user_name").
		WithArgs("alice").
		WillReturnRows(userRow(1, models.StatusActive, string(hash)))

	token, err := svc.Login(context.Background(), "alice", "Str0ng!Pass")
	require.NoError(t, err)
	assert.Equal(t, "signed-token", token)
}

func TestLogin_UniformError(t *testing.T) {
	svc, mock, _ := newTestService(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("Str0ng!Pass"), bcrypt.MinCost)
	require.NoError(t, err)

	// неизвестный пользователь и неверный пароль неразличимы снаружи
	mock.ExpectQuery("SELECT (.+) FROM users WHERE user_name").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	_, errUnknown := svc.Login(context.Background(), "ghost", "whatever")

	mock.ExpectQuery("SELECT (.+) FROM users WHERE user_name").
		WithArgs("alice").
		WillReturnRows(userRow(1, models.StatusActive, string(hash)))
	_, errWrongPw := svc.Login(context.Background(), "alice", "wrong")

	assert.ErrorIs(t, errUnknown, errs.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, errs.ErrInvalidCredentials)
	assert.Equal(t, fmt.Sprint(errUnknown), fmt.Sprint(errWrongPw))
}
