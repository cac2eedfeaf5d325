//go:build ignore

// Хеширует пароль админ-панели в формате Argon2id. Параметры здесь
// должны совпадать с проверкой в internal/features/admin, иначе вход
// перестанет работать.
//
//	go run scripts/generate_hash.go <пароль>
//
// Вывод кладётся в ADMIN_PASSWORD_HASH.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"golang.org/x/crypto/argon2"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Использование: go run scripts/generate_hash.go <пароль>")
		os.Exit(1)
	}

	password := os.Args[1]

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		fmt.Printf("Ошибка генерации соли: %v\n", err)
		os.Exit(1)
	}

	// Те же параметры зашиты в проверке хеша на стороне бота.
	var (
		memory      uint32 = 65536 // 64 MB
		iterations  uint32 = 3
		parallelism uint8  = 2
		keyLength   uint32 = 32
	)

	hash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, keyLength)

	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedHash := base64.RawStdEncoding.EncodeToString(hash)

	result := fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory, iterations, parallelism, encodedSalt, encodedHash)

	fmt.Println("Хеш пароля (вставьте в .env как ADMIN_PASSWORD_HASH):")
	fmt.Println(result)
}
