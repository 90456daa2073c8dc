package models

import "time"

// SecretCode — одноразовый код для активации аккаунта или сброса пароля.
// Храним только sha256-дайджест (Code), открытый код уходит пользователю
// в письме и больше нигде не сохраняется. На один email действителен
// максимум один код: каждая выдача сначала удаляет предыдущие.
type SecretCode struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
