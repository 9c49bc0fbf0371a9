package shortcode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

const (
	DefaultLength      = 6
	DefaultMaxAttempts = 10
	Alphabet           = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// ErrCodeSpaceExhausted возвращается, когда за MaxAttempts попыток не нашлось свободного кода
var ErrCodeSpaceExhausted = errors.New("no free short code found")

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// Generate возвращает случайный код заданной длины из алфавита [A-Za-z0-9].
// Используется crypto/rand, чтобы коды нельзя было угадать.
func Generate(length int) (string, error) {
	if length < 1 {
		return "", fmt.Errorf("invalid short code length: %d", length)
	}

	result := make([]byte, length)
	for i := range result {
		num, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to read random: %w", err)
		}
		result[i] = Alphabet[num.Int64()]
	}
	return string(result), nil
}

// IsValid проверяет, что код имеет нужную длину и состоит только из символов алфавита
func IsValid(code string, length int) bool {
	if len(code) != length {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// Checker проверяет, занят ли код в хранилище
type Checker interface {
	ExistsByShortCode(ctx context.Context, code string) (bool, error)
}

// Generator выдаёт коды, которых ещё нет в хранилище
type Generator struct {
	checker     Checker
	length      int
	maxAttempts int
}

func NewGenerator(checker Checker, length, maxAttempts int) *Generator {
	if length < 1 {
		length = DefaultLength
	}
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Generator{
		checker:     checker,
		length:      length,
		maxAttempts: maxAttempts,
	}
}

func (g *Generator) Length() int {
	return g.length
}

// Unique генерирует коды, пока не найдёт свободный или не исчерпает попытки
func (g *Generator) Unique(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		code, err := Generate(g.length)
		if err != nil {
			return "", err
		}

		exists, err := g.checker.ExistsByShortCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check short code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}

	return "", fmt.Errorf("%w after %d attempts", ErrCodeSpaceExhausted, g.maxAttempts)
}
