package admin

import (
	"encoding/base64"
	"fmt"
	"testing"

	"golang.org/x/crypto/argon2"
)

// encodeTestHash собирает хеш в том же формате, что scripts/generate_hash.go
func encodeTestHash(password string, salt []byte) string {
	var (
		memory      uint32 = 65536
		iterations  uint32 = 3
		parallelism uint8  = 2
	)
	hash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, 32)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash))
}

func TestVerifyArgon2id(t *testing.T) {
	salt := []byte("0123456789abcdef")
	encoded := encodeTestHash("correct horse battery staple", salt)

	if !verifyArgon2id("correct horse battery staple", encoded) {
		t.Error("верный пароль не прошёл проверку")
	}
	if verifyArgon2id("wrong password", encoded) {
		t.Error("неверный пароль прошёл проверку")
	}
	if verifyArgon2id("", encoded) {
		t.Error("пустой пароль прошёл проверку")
	}
}

func TestVerifyArgon2idMalformedHash(t *testing.T) {
	tests := []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=3,p=2$onlysalt",                 // мало частей
		"$argon2id$v=19$bad-params$c2FsdA$aGFzaA",                 // битые параметры
		"$argon2id$v=19$m=65536,t=3,p=2$не-base64!$aGFzaA",        // битая соль
		"$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$не-base64!",        // битый хеш
	}
	for _, h := range tests {
		if verifyArgon2id("password", h) {
			t.Errorf("битый хеш %q прошёл проверку", h)
		}
	}
}
