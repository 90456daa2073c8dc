package models

import "time"

// Статусы жизненного цикла аккаунта. Новый пользователь всегда
// NOT_INITIALIZED и переходит в ACTIVE только через verify-account.
const (
	StatusNotInitialized = "NOT_INITIALIZED"
	StatusActive         = "ACTIVE"
	StatusSuspended      = "SUSPENDED"
	StatusDeactive       = "DEACTIVE"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

type User struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	UserName     string     `json:"user_name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // не отдаём наружу
	Gender       string     `json:"gender,omitempty"`
	DOB          *time.Time `json:"dob,omitempty"`
	Status       string     `json:"status"`
	Role         string     `json:"role"`

	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	PasswordChangedAt *time.Time `json:"-"` // служебное, для инвалидации старых токенов
}

type LoginRequest struct {
	UserName string `json:"user_name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func ValidGender(g string) bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

func ValidStatus(s string) bool {
	switch s {
	case StatusNotInitialized, StatusActive, StatusSuspended, StatusDeactive:
		return true
	}
	return false
}
