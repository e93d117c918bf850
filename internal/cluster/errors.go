package cluster

import "errors"

// Ошибки координатора.
var (
	// ErrInvalidSolver — текст solver не разобран, reset отклонён.
	ErrInvalidSolver = errors.New("invalid solver")

	// ErrUnknownWorker — worker ещё не выходил на связь.
	ErrUnknownWorker = errors.New("unknown worker")
)
