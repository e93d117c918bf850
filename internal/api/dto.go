package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Coldcluster/internal/cluster"
	"github.com/shaiso/Coldcluster/internal/domain"
)

// Console DTOs

// ConsoleRequest — команда оператора.
//
// Для reset solver передаётся либо текстом (Solver), либо именем
// файла из каталога (SolverName).
type ConsoleRequest struct {
	Command    domain.Command `json:"command"`
	Solver     *string        `json:"solver,omitempty"`
	SolverName string         `json:"solver_name,omitempty"`
}

// WorkerResponse — строка таблицы workers в консоли.
type WorkerResponse struct {
	WorkerID            string          `json:"worker_id"`
	Cores               int             `json:"cores"`
	RunRate             *int64          `json:"run_rate"`
	AssembliesCompleted int             `json:"assemblies_completed"`
	ProgramsRun         int64           `json:"programs_run"`
	Status              domain.Liveness `json:"status"`
}

// SolvedResponse — завершённая assembly.
type SolvedResponse struct {
	Assembly          domain.Assembly `json:"assembly"`
	ProgramsCompleted int64           `json:"programs_completed"`
}

// ConsoleResponse — состояние кластера.
type ConsoleResponse struct {
	Status      domain.ClusterStatus `json:"status"`
	SearchID    *uuid.UUID           `json:"search_id,omitempty"`
	Solver      string               `json:"solver,omitempty"`
	Total       int64                `json:"total"`
	ProgramsRun int64                `json:"programs_run"`
	Solutions   []json.RawMessage    `json:"solutions"`
	Unsolved    []domain.Assembly    `json:"unsolved"`
	Workers     []WorkerResponse     `json:"workers"`
	Solved      []SolvedResponse     `json:"solved"`
}

// ConsoleFromView конвертирует cluster.ConsoleView в ConsoleResponse.
func ConsoleFromView(v cluster.ConsoleView) ConsoleResponse {
	resp := ConsoleResponse{
		Status:      v.Status,
		Solver:      v.SolverText,
		Total:       v.Total,
		ProgramsRun: v.ProgramsRun,
		Solutions:   v.Solutions,
		Unsolved:    v.Unsolved,
		Workers:     make([]WorkerResponse, 0, len(v.Workers)),
		Solved:      make([]SolvedResponse, 0, len(v.Solved)),
	}
	if v.SearchID != uuid.Nil {
		id := v.SearchID
		resp.SearchID = &id
	}
	if resp.Solutions == nil {
		resp.Solutions = []json.RawMessage{}
	}
	if resp.Unsolved == nil {
		resp.Unsolved = []domain.Assembly{}
	}

	for _, w := range v.Workers {
		resp.Workers = append(resp.Workers, WorkerResponse{
			WorkerID:            w.ID,
			Cores:               w.Cores,
			RunRate:             w.RunRate,
			AssembliesCompleted: w.AssembliesCompleted,
			ProgramsRun:         w.ProgramsRun,
			Status:              w.Liveness,
		})
	}
	for _, s := range v.Solved {
		resp.Solved = append(resp.Solved, SolvedResponse{
			Assembly:          s.Assembly,
			ProgramsCompleted: s.ProgramsCompleted,
		})
	}

	return resp
}

// Worker DTOs

// WorkerStatusRequest — check-in worker'а.
//
// Обязательные поля объявлены указателями, чтобы отличить отсутствие от нуля.
type WorkerStatusRequest struct {
	Token               string                     `json:"token"`
	WorkerID            *string                    `json:"worker_id"`
	Cores               *int                       `json:"cores"`
	AssembliesRunning   *[]domain.AssemblyProgress `json:"assemblies_running"`
	AssembliesQueued    *[]domain.Assembly         `json:"assemblies_queued"`
	AssembliesCompleted []domain.CompletionRecord  `json:"assemblies_completed,omitempty"`
	FirstStatus         bool                       `json:"first_status,omitempty"`
}

// Validate проверяет обязательные поля.
func (r *WorkerStatusRequest) Validate() error {
	switch {
	case r.WorkerID == nil || *r.WorkerID == "":
		return errors.New("worker_id is required")
	case r.Cores == nil:
		return errors.New("cores is required")
	case *r.Cores < 1:
		return errors.New("cores must be positive")
	case *r.Cores > cluster.MaxCores:
		return fmt.Errorf("cores must not exceed %d", cluster.MaxCores)
	case r.AssembliesRunning == nil:
		return errors.New("assemblies_running is required")
	case r.AssembliesQueued == nil:
		return errors.New("assemblies_queued is required")
	}
	return nil
}

// CheckIn конвертирует запрос в cluster.CheckIn. Вызывать после Validate.
func (r *WorkerStatusRequest) CheckIn() cluster.CheckIn {
	return cluster.CheckIn{
		WorkerID:     *r.WorkerID,
		Cores:        *r.Cores,
		Running:      *r.AssembliesRunning,
		Queued:       *r.AssembliesQueued,
		Completed:    r.AssembliesCompleted,
		ResendSolver: r.FirstStatus,
	}
}

// WorkerStatusResponse — ответ worker'у. Отправляется без обёртки data.
type WorkerStatusResponse struct {
	Status         domain.ClusterStatus `json:"status"`
	Solver         *string              `json:"solver,omitempty"`
	NextAssemblies []domain.Assembly    `json:"next_assemblies,omitempty"`
}

// WorkerStatusFromResult конвертирует cluster.CheckInResult в WorkerStatusResponse.
func WorkerStatusFromResult(res cluster.CheckInResult) WorkerStatusResponse {
	resp := WorkerStatusResponse{
		Status:         res.Status,
		NextAssemblies: res.NextAssemblies,
	}
	if res.Solver != nil {
		text := res.Solver.Text
		resp.Solver = &text
	}
	return resp
}

// Archive DTOs

// SearchDetailResponse — поиск с последним срезом прогресса.
type SearchDetailResponse struct {
	domain.Search
	Completed      int64            `json:"assemblies_completed"`
	LatestSnapshot *domain.Snapshot `json:"latest_snapshot,omitempty"`
}

// SearchSummaryResponse — строка списка поисков.
type SearchSummaryResponse struct {
	ID          uuid.UUID            `json:"id"`
	Depth       int                  `json:"depth"`
	Total       int64                `json:"total"`
	Status      domain.ClusterStatus `json:"status"`
	ProgramsRun int64                `json:"programs_run"`
	StartedAt   time.Time            `json:"started_at"`
	ExhaustedAt *time.Time           `json:"exhausted_at,omitempty"`
}

// SearchSummaryFromDomain конвертирует domain.Search в SearchSummaryResponse.
func SearchSummaryFromDomain(s domain.Search) SearchSummaryResponse {
	return SearchSummaryResponse{
		ID:          s.ID,
		Depth:       s.Depth,
		Total:       s.Total,
		Status:      s.Status,
		ProgramsRun: s.ProgramsRun,
		StartedAt:   s.StartedAt,
		ExhaustedAt: s.ExhaustedAt,
	}
}
