package domain

import (
	"encoding/json"
	"time"
)

// Assembly — индекс единицы работы в пространстве поиска [0, total).
// Других свойств у assembly с точки зрения координатора нет.
type Assembly = int64

// CompletionRecord — отчёт worker'а о завершённой assembly.
//
// Solutions — непрозрачные payload'ы решений. Координатор их не разбирает
// и передаёт дальше как есть.
type CompletionRecord struct {
	Assembly          Assembly          `json:"assembly"`
	ProgramsCompleted int64             `json:"programs_completed"`
	Solutions         []json.RawMessage `json:"solutions,omitempty"`
}

// AssemblyProgress — частичный прогресс assembly, которая ещё выполняется.
type AssemblyProgress struct {
	Assembly          Assembly `json:"assembly"`
	ProgramsCompleted int64    `json:"programs_completed"`
}

// RunSample — замер количества выполненных программ в момент check-in.
type RunSample struct {
	ProgramsRun int64
	At          time.Time
}
