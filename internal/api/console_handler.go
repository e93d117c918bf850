package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shaiso/Coldcluster/internal/cluster"
	"github.com/shaiso/Coldcluster/internal/domain"
	"github.com/shaiso/Coldcluster/internal/solvers"
	"github.com/shaiso/Coldcluster/internal/telemetry"
)

// GetConsole возвращает состояние кластера.
// GET /api/v1/console
func (h *Handler) GetConsole(w http.ResponseWriter, r *http.Request) {
	Success(w, ConsoleFromView(h.controller.View()))
}

// PostConsole выполняет команду оператора и возвращает новое состояние.
// POST /api/v1/console
func (h *Handler) PostConsole(w http.ResponseWriter, r *http.Request) {
	var req ConsoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}

	var solverText string
	if req.Command == domain.CommandReset {
		text, ok := h.resolveSolver(w, req)
		if !ok {
			return
		}
		solverText = text
	}

	if err := h.controller.Execute(req.Command, solverText); err != nil {
		if errors.Is(err, cluster.ErrInvalidSolver) {
			InvalidSolver(w, err.Error())
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	if req.Command.IsKnown() {
		telemetry.FromContext(r.Context()).Info("console command", "command", req.Command)
	}
	telemetry.SetClusterStatus(h.controller.Status())

	Success(w, ConsoleFromView(h.controller.View()))
}

// resolveSolver возвращает текст solver для reset.
// При ошибке ответ уже записан.
func (h *Handler) resolveSolver(w http.ResponseWriter, req ConsoleRequest) (string, bool) {
	if req.Solver != nil {
		return *req.Solver, true
	}

	if req.SolverName == "" {
		BadRequest(w, "reset requires solver or solver_name")
		return "", false
	}

	if h.catalog == nil {
		NotFound(w, "solver catalog is not configured")
		return "", false
	}

	s, err := h.catalog.Get(req.SolverName)
	if errors.Is(err, solvers.ErrNotFound) {
		NotFound(w, "solver not found")
		return "", false
	}
	if errors.Is(err, solvers.ErrInvalid) {
		InvalidSolver(w, err.Error())
		return "", false
	}
	if err != nil {
		InternalError(w, h.logger, err)
		return "", false
	}
	return s.Text, true
}

// ListSolvers возвращает каталог solver-файлов, включая непригодные (с полем error).
// GET /api/v1/solvers
func (h *Handler) ListSolvers(w http.ResponseWriter, r *http.Request) {
	list := []solvers.Solver{}
	if h.catalog != nil {
		list = h.catalog.List()
	}
	List(w, list, len(list))
}
