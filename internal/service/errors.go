package service

import (
	"errors"
	"fmt"
)

// ErrNotFound короткая ссылка отсутствует в хранилище
var ErrNotFound = errors.New("short link not found")

// ValidationError ошибка входных данных с указанием поля
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StorageError сбой хранилища: нарушение ограничения, обрыв соединения и т.п.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
