package engine

import (
	"errors"
	"strconv"
)

// Ошибки разбора solver.
var (
	// ErrInvalidDepth — аргумент директивы depth не является целым числом.
	ErrInvalidDepth = errors.New("depth is not an integer")

	// ErrNegativeDepth — отрицательная глубина.
	ErrNegativeDepth = errors.New("depth must be 0 or greater")

	// ErrSpaceTooLarge — пространство поиска не помещается в память координатора.
	ErrSpaceTooLarge = errors.New("search space too large")
)

// ParseError — ошибка разбора с контекстом строки.
type ParseError struct {
	Line int    // номер строки (с 1), 0 — ошибка не привязана к строке
	Text string // содержимое строки после trim
	Err  error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return "line " + strconv.Itoa(e.Line) + " (" + strconv.Quote(e.Text) + "): " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap возвращает базовую ошибку.
func (e *ParseError) Unwrap() error {
	return e.Err
}
