package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/Coldcluster/internal/domain"
	"github.com/shaiso/Coldcluster/internal/repo"
)

// SearchReader — чтение архива поисков.
type SearchReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Search, error)
	List(ctx context.Context, page repo.Page) ([]domain.Search, error)
}

// SolutionReader — чтение архива решений.
type SolutionReader interface {
	ListSolutions(ctx context.Context, searchID uuid.UUID, page repo.Page) ([]domain.ArchivedSolution, error)
	CountCompleted(ctx context.Context, searchID uuid.UUID) (int64, error)
}

// SnapshotReader — чтение срезов прогресса.
type SnapshotReader interface {
	Latest(ctx context.Context, searchID uuid.UUID) (*domain.Snapshot, error)
}

// ArchiveHandler — read API архива поисков.
type ArchiveHandler struct {
	searches  SearchReader
	solutions SolutionReader
	snapshots SnapshotReader
	logger    *slog.Logger
}

// ArchiveConfig — конфигурация ArchiveHandler.
type ArchiveConfig struct {
	Searches  SearchReader
	Solutions SolutionReader
	Snapshots SnapshotReader
	Logger    *slog.Logger
}

// NewArchiveHandler создаёт ArchiveHandler.
func NewArchiveHandler(cfg ArchiveConfig) *ArchiveHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveHandler{
		searches:  cfg.Searches,
		solutions: cfg.Solutions,
		snapshots: cfg.Snapshots,
		logger:    logger,
	}
}

// ListSearches возвращает список поисков, новые первыми.
// GET /api/v1/searches?limit=50&offset=0
func (h *ArchiveHandler) ListSearches(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	searches, err := h.searches.List(r.Context(), page)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	resp := make([]SearchSummaryResponse, len(searches))
	for i, s := range searches {
		resp[i] = SearchSummaryFromDomain(s)
	}

	List(w, resp, len(resp))
}

// GetSearch возвращает поиск с последним срезом.
// GET /api/v1/searches/{id}
func (h *ArchiveHandler) GetSearch(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	search, err := h.searches.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "search not found") {
		return
	}

	completed, err := h.solutions.CountCompleted(r.Context(), id)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	resp := SearchDetailResponse{Search: *search, Completed: completed}

	snap, err := h.snapshots.Latest(r.Context(), id)
	switch {
	case err == nil:
		resp.LatestSnapshot = snap
	case !errors.Is(err, repo.ErrNotFound):
		InternalError(w, h.logger, err)
		return
	}

	Success(w, resp)
}

// ListSolutions возвращает решения поиска.
// GET /api/v1/searches/{id}/solutions?limit=50&offset=0
func (h *ArchiveHandler) ListSolutions(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	if _, err := h.searches.GetByID(r.Context(), id); HandleRepoError(w, h.logger, err, "search not found") {
		return
	}

	solutions, err := h.solutions.ListSolutions(r.Context(), id, page)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	List(w, solutions, len(solutions))
}

// --- Helpers ---

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid search ID")
		return uuid.Nil, false
	}
	return id, true
}

func parsePage(w http.ResponseWriter, r *http.Request) (repo.Page, bool) {
	var page repo.Page
	q := r.URL.Query()

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"limit", &page.Limit},
		{"offset", &page.Offset},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			BadRequest(w, "invalid "+p.name)
			return repo.Page{}, false
		}
		*p.dst = n
	}

	return page, true
}
