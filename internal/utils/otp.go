package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// NewOTP — генерирует одноразовый код: открытая часть (hex от nBytes
// случайных байт) уходит пользователю в письме, дайджест сохраняется в БД.
func NewOTP(nBytes int) (clear string, digest string, err error) {
	if nBytes <= 0 {
		nBytes = 16 // 128 бит по умолчанию
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	clear = hex.EncodeToString(b)
	return clear, HashOTP(clear), nil
}

// HashOTP — детерминированный sha256-дайджест открытого кода. Никакого
// секретного ключа: по дайджесту код ищется в БД простым равенством.
func HashOTP(clear string) string {
	sum := sha256.Sum256([]byte(clear))
	return hex.EncodeToString(sum[:])
}

// NewCorrelationID — короткий случайный id для связывания логов одного
// запроса/транзакции.
func NewCorrelationID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b)
}
