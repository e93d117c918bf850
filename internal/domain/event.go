package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType — тип события кластера.
type EventType string

// Типы событий.
const (
	EventSearchStarted     EventType = "search.started"
	EventStatusChanged     EventType = "search.status_changed"
	EventAssemblyCompleted EventType = "assembly.completed"
	EventSnapshot          EventType = "search.snapshot"
)

// Event — событие, которое координатор отдаёт наружу (журнал → RabbitMQ → archiver).
//
// События никогда не читаются координатором обратно: это история,
// а не механизм восстановления состояния.
type Event struct {
	// Type — тип события, определяет тип Payload.
	Type EventType `json:"type"`

	// SearchID — поиск (solver после reset), к которому относится событие.
	SearchID uuid.UUID `json:"search_id"`

	// At — время события.
	At time.Time `json:"at"`

	// Payload — одна из структур *Payload ниже.
	Payload any `json:"payload"`
}

// SearchStartedPayload — новый solver загружен (reset или старт процесса).
type SearchStartedPayload struct {
	SolverText string   `json:"solver_text"`
	Patterns   []string `json:"patterns"`
	Depth      int      `json:"depth"`
	Total      int64    `json:"total"`
}

// StatusChangedPayload — смена глобального статуса.
type StatusChangedPayload struct {
	From   ClusterStatus      `json:"from"`
	To     ClusterStatus      `json:"to"`
	Reason StatusChangeReason `json:"reason"`
}

// AssemblyCompletedPayload — впервые принятый отчёт о завершении assembly.
type AssemblyCompletedPayload struct {
	WorkerID          string            `json:"worker_id"`
	Assembly          Assembly          `json:"assembly"`
	ProgramsCompleted int64             `json:"programs_completed"`
	Solutions         []json.RawMessage `json:"solutions,omitempty"`
}

// SnapshotPayload — периодический срез прогресса.
type SnapshotPayload struct {
	Status          ClusterStatus `json:"status"`
	Total           int64         `json:"total"`
	Unsolved        int           `json:"unsolved"`
	ProgramsRun     int64         `json:"programs_run"`
	Solutions       int           `json:"solutions"`
	WorkersActive   int           `json:"workers_active"`
	WorkersPaused   int           `json:"workers_paused"`
	WorkersInactive int           `json:"workers_inactive"`
	RunRate         int64         `json:"run_rate"`
}
