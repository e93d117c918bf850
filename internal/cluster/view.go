package cluster

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shaiso/Coldcluster/internal/domain"
)

// WorkerSummary — сводка по worker'у для консоли.
type WorkerSummary struct {
	ID                  string
	Cores               int
	RunRate             *int64
	AssembliesCompleted int
	ProgramsRun         int64
	Liveness            domain.Liveness
}

// SolvedSummary — завершённая assembly в плоском списке консоли.
type SolvedSummary struct {
	Assembly          domain.Assembly
	ProgramsCompleted int64
}

// ConsoleView — состояние кластера для оператора.
type ConsoleView struct {
	Status      domain.ClusterStatus
	SearchID    uuid.UUID
	SolverText  string
	Total       int64
	ProgramsRun int64
	Solutions   []json.RawMessage
	Unsolved    []domain.Assembly
	Workers     []WorkerSummary
	Solved      []SolvedSummary
}

// View возвращает копию состояния для консоли.
func (c *Controller) View() ConsoleView {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	view := ConsoleView{
		Status:      c.status,
		SearchID:    c.searchID,
		Total:       c.space.Total(),
		ProgramsRun: c.ledger.ProgramsRun(),
		Solutions:   c.ledger.Solutions(),
		Unsolved:    c.space.Unsolved(),
		Workers:     make([]WorkerSummary, 0, c.registry.Len()),
		Solved:      []SolvedSummary{},
	}
	if c.solver != nil {
		view.SolverText = c.solver.Text
	}

	for _, rec := range c.registry.All() {
		view.Workers = append(view.Workers, WorkerSummary{
			ID:                  rec.ID,
			Cores:               rec.Cores,
			RunRate:             rec.RunRate,
			AssembliesCompleted: len(rec.Completed),
			ProgramsRun:         rec.ProgramsRun,
			Liveness:            c.registry.Liveness(rec, now),
		})

		for _, done := range rec.Completed {
			view.Solved = append(view.Solved, SolvedSummary{
				Assembly:          done.Assembly,
				ProgramsCompleted: done.ProgramsCompleted,
			})
		}
	}

	return view
}

// Snapshot возвращает агрегированный срез прогресса.
// RunRate — сумма оценок active workers.
func (c *Controller) Snapshot() domain.SnapshotPayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// SearchSnapshot возвращает срез вместе с ID поиска, к которому он относится.
func (c *Controller) SearchSnapshot() (uuid.UUID, domain.SnapshotPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchID, c.snapshotLocked()
}

func (c *Controller) snapshotLocked() domain.SnapshotPayload {
	now := c.now()

	snap := domain.SnapshotPayload{
		Status:      c.status,
		Total:       c.space.Total(),
		Unsolved:    c.space.Len(),
		ProgramsRun: c.ledger.ProgramsRun(),
		Solutions:   c.ledger.SolutionCount(),
	}

	for _, rec := range c.registry.All() {
		switch c.registry.Liveness(rec, now) {
		case domain.LivenessActive:
			snap.WorkersActive++
			if rec.RunRate != nil {
				snap.RunRate += *rec.RunRate
			}
		case domain.LivenessPaused:
			snap.WorkersPaused++
		default:
			snap.WorkersInactive++
		}
	}

	return snap
}
