package errs

import (
	"errors"
	"net/http"
)

// Сентинельные ошибки потоков. Тексты намеренно не различают
// "нет такого пользователя" и "не то состояние/пароль", чтобы
// не раскрывать существование аккаунта.
var (
	ErrDuplicateAccount     = errors.New("the provided email is registered already")
	ErrInvalidCredentials   = errors.New("user or password is incorrect")
	ErrNotFound             = errors.New("the provided user does not exist")
	ErrInvalidState         = errors.New("incorrect user status")
	ErrInvalidOrExpiredCode = errors.New("the provided code does not exist, please generate a new code")
	ErrExpiredToken         = errors.New("session timed out, please login again")
	ErrInvalidToken         = errors.New("unauthorized access")
	ErrStaleToken           = errors.New("user recently changed password, please re-login")
	ErrUnauthenticated      = errors.New("you are not logged in")
	ErrForbidden            = errors.New("access not allowed")
	ErrNoTemplate           = errors.New("no email template configured")
)

type FieldError struct {
	Msg   string `json:"msg"`
	Param string `json:"param"`
}

// AppError — ошибка в формате ответа {status, errors}, где errors это либо
// {globalMessage}, либо карта имя-поля -> {msg, param}. Label и Correlation
// заполняются оркестратором и попадают только в логи, не в ответ.
type AppError struct {
	Status      int
	Errors      map[string]any
	Label       string
	Correlation string
	Err         error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	if gm, ok := e.Errors["globalMessage"].(string); ok {
		return gm
	}
	return "request failed"
}

func (e *AppError) Unwrap() error { return e.Err }

// New — AppError c globalMessage.
func New(status int, globalMessage string) *AppError {
	return &AppError{
		Status: status,
		Errors: map[string]any{"globalMessage": globalMessage},
	}
}

// Field — 400 с ошибкой, привязанной к конкретному полю запроса.
func Field(param, msg string) *AppError {
	return &AppError{
		Status: http.StatusBadRequest,
		Errors: map[string]any{param: FieldError{Msg: msg, Param: param}},
	}
}

// StatusOf — соответствие сентинелей HTTP-статусам. NotFound намеренно
// отдаёт 401, а не 404 (см. ErrNotFound выше).
func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrDuplicateAccount):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrInvalidOrExpiredCode),
		errors.Is(err, ErrExpiredToken),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrStaleToken),
		errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// Wrap — приводит любую ошибку потока к AppError и навешивает метку потока
// и correlation id. Уже готовый AppError (например, полевые ошибки
// дубликата email) только аннотируется.
func Wrap(err error, label, correlation string) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		if ae.Label == "" {
			ae.Label = label
		}
		if ae.Correlation == "" {
			ae.Correlation = correlation
		}
		return ae
	}
	return &AppError{
		Status:      StatusOf(err),
		Errors:      map[string]any{"globalMessage": err.Error()},
		Label:       label,
		Correlation: correlation,
		Err:         err,
	}
}
