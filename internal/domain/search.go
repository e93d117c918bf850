package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Search — архивная запись об одном поиске (от reset до следующего reset).
//
// Хранится archiver'ом в Postgres. Координатор эти записи не читает.
type Search struct {
	// ID — идентификатор поиска, выдаётся координатором при reset.
	ID uuid.UUID `json:"id"`

	// SolverText — полный текст solver.
	SolverText string `json:"solver_text"`

	// Depth — глубина из директивы depth.
	Depth int `json:"depth"`

	// Total — размер пространства поиска.
	Total int64 `json:"total"`

	// Status — последний известный статус кластера для этого поиска.
	Status ClusterStatus `json:"status"`

	// ProgramsRun — последнее известное значение глобального счётчика.
	ProgramsRun int64 `json:"programs_run"`

	// StartedAt — время загрузки solver.
	StartedAt time.Time `json:"started_at"`

	// ExhaustedAt — время, когда пул нерешённых assemblies опустел.
	// Nil, если поиск не был доведён до конца.
	ExhaustedAt *time.Time `json:"exhausted_at,omitempty"`
}

// IsExhausted возвращает true, если все assemblies поиска решены.
func (s *Search) IsExhausted() bool {
	return s.ExhaustedAt != nil
}

// Apply применяет событие смены статуса к записи.
func (s *Search) Apply(p StatusChangedPayload, at time.Time) {
	s.Status = p.To
	if p.Reason == ReasonExhausted && s.ExhaustedAt == nil {
		t := at
		s.ExhaustedAt = &t
	}
}

// ArchivedSolution — решение, найденное worker'ом, в архиве.
type ArchivedSolution struct {
	SearchID uuid.UUID       `json:"search_id"`
	WorkerID string          `json:"worker_id"`
	Assembly Assembly        `json:"assembly"`
	Payload  json.RawMessage `json:"payload"`
	FoundAt  time.Time       `json:"found_at"`
}

// Snapshot — сохранённый срез прогресса поиска.
type Snapshot struct {
	SearchID uuid.UUID `json:"search_id"`
	TakenAt  time.Time `json:"taken_at"`
	SnapshotPayload
}
