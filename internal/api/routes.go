package api

import (
	"net/http"
)

// RegisterRoutes регистрирует маршруты координатора.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		Metrics(),
	)
	console := Chain(chain, ConsoleAuth(h.consoleUser, h.consolePassword))

	// Console
	mux.Handle("GET /api/v1/console", console(http.HandlerFunc(h.GetConsole)))
	mux.Handle("POST /api/v1/console", console(http.HandlerFunc(h.PostConsole)))
	mux.Handle("GET /api/v1/solvers", console(http.HandlerFunc(h.ListSolvers)))

	// Workers
	mux.Handle("POST /api/v1/worker/status", chain(http.HandlerFunc(h.WorkerStatus)))
}

// RegisterRoutes регистрирует маршруты архива.
func (h *ArchiveHandler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		Metrics(),
	)

	mux.Handle("GET /api/v1/searches", chain(http.HandlerFunc(h.ListSearches)))
	mux.Handle("GET /api/v1/searches/{id}", chain(http.HandlerFunc(h.GetSearch)))
	mux.Handle("GET /api/v1/searches/{id}/solutions", chain(http.HandlerFunc(h.ListSolutions)))
}
