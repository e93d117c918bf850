package domain

// ClusterStatus — глобальный статус кластера.
//
// Жизненный цикл (все переходы инициирует оператор):
//
//	stopped → running → paused
//	   ↑         │         │
//	   └─────────┴─────────┘  (stop / unpause)
//
// Кроме того, running автоматически переходит в stopped,
// когда пул нерешённых assemblies опустел.
type ClusterStatus string

const (
	// StatusStopped — кластер остановлен (начальное состояние).
	StatusStopped ClusterStatus = "stopped"

	// StatusRunning — workers получают assemblies и отчитываются о завершении.
	StatusRunning ClusterStatus = "running"

	// StatusPaused — workers должны приостановить выполнение.
	StatusPaused ClusterStatus = "paused"
)

// String возвращает строковое представление статуса.
func (s ClusterStatus) String() string {
	return string(s)
}

// IsValid проверяет, что статус известен.
func (s ClusterStatus) IsValid() bool {
	switch s {
	case StatusStopped, StatusRunning, StatusPaused:
		return true
	default:
		return false
	}
}

// Liveness — производное состояние worker'а, вычисляемое по времени последнего check-in.
type Liveness string

const (
	// LivenessActive — worker выходил на связь недавно.
	LivenessActive Liveness = "active"

	// LivenessPaused — worker давно не выходил на связь, но последним ему был отправлен paused.
	LivenessPaused Liveness = "paused"

	// LivenessInactive — worker давно не выходил на связь.
	LivenessInactive Liveness = "inactive"
)

// Command — команда оператора.
type Command string

const (
	CommandRun     Command = "run"
	CommandPause   Command = "pause"
	CommandUnpause Command = "unpause"
	CommandStop    Command = "stop"
	CommandReset   Command = "reset"
)

// IsKnown возвращает true для команд, которые меняют состояние кластера.
// Неизвестные команды обрабатываются как no-op.
func (c Command) IsKnown() bool {
	switch c {
	case CommandRun, CommandPause, CommandUnpause, CommandStop, CommandReset:
		return true
	default:
		return false
	}
}

// StatusChangeReason — причина смены статуса.
type StatusChangeReason string

const (
	// ReasonOperator — статус изменён командой оператора.
	ReasonOperator StatusChangeReason = "operator"

	// ReasonExhausted — все assemblies решены, кластер остановился сам.
	ReasonExhausted StatusChangeReason = "exhausted"

	// ReasonReset — статус сброшен перед заменой solver.
	ReasonReset StatusChangeReason = "reset"
)
