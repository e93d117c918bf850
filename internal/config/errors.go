package config

import (
	"errors"
	"fmt"
)

// ErrMissingToken — не задан WORKER_TOKEN.
var ErrMissingToken = errors.New("WORKER_TOKEN is required")

// ValueError — некорректное значение переменной окружения.
type ValueError struct {
	Key   string
	Value string
	Err   error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("invalid %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *ValueError) Unwrap() error {
	return e.Err
}
