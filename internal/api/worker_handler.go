package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shaiso/Coldcluster/internal/telemetry"
)

const workerStatusPath = "/api/v1/worker/status"

// WorkerStatus обрабатывает check-in worker'а.
// POST /api/v1/worker/status
//
// Токен берётся из поля token или заголовка Authorization: Bearer.
// При неверном токене состояние не меняется.
func (h *Handler) WorkerStatus(w http.ResponseWriter, r *http.Request) {
	var req WorkerStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}

	if !h.authorizeWorker(r, req.Token) {
		Forbidden(w, "invalid worker token")
		return
	}

	if err := req.Validate(); err != nil {
		BadRequest(w, err.Error())
		return
	}

	res := h.controller.CheckIn(req.CheckIn())

	telemetry.CheckInsTotal.Inc()
	if res.NewWorker {
		telemetry.WorkersRegisteredTotal.Inc()
	}
	telemetry.AssembliesAssignedTotal.Add(float64(len(res.NextAssemblies)))
	telemetry.AssembliesCompletedTotal.Add(float64(len(res.Merged)))
	solutions := 0
	for _, m := range res.Merged {
		solutions += len(m.Solutions)
	}
	telemetry.SolutionsFoundTotal.Add(float64(solutions))
	telemetry.UnsolvedAssemblies.Set(float64(res.Unsolved))
	telemetry.ProgramsRun.Set(float64(res.ProgramsRun))
	telemetry.SetClusterStatus(res.Status)

	logger := telemetry.WithWorkerID(telemetry.FromContext(r.Context()), *req.WorkerID)
	if solutions > 0 {
		logger.Info("solutions reported", "count", solutions)
	}
	if res.Exhausted {
		logger.Info("search space exhausted, cluster stopped")
	}
	logger.Debug("check-in",
		"status", res.Status,
		"assigned", len(res.NextAssemblies),
		"merged", len(res.Merged),
		"unsolved", res.Unsolved,
		"solver_sent", res.Solver != nil,
	)

	JSON(w, http.StatusOK, WorkerStatusFromResult(res))
}

func (h *Handler) authorizeWorker(r *http.Request, bodyToken string) bool {
	token := bodyToken
	if token == "" {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	return h.workerToken != "" && secureEqual(token, h.workerToken)
}
