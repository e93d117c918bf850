package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Coldcluster/internal/domain"
	"github.com/shaiso/Coldcluster/internal/repo"
)

type fakeArchive struct {
	searches  map[uuid.UUID]domain.Search
	solutions map[uuid.UUID][]domain.ArchivedSolution
	snapshots map[uuid.UUID]domain.Snapshot
	lastPage  repo.Page
}

func (f *fakeArchive) GetByID(_ context.Context, id uuid.UUID) (*domain.Search, error) {
	s, ok := f.searches[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &s, nil
}

func (f *fakeArchive) List(_ context.Context, page repo.Page) ([]domain.Search, error) {
	f.lastPage = page
	out := make([]domain.Search, 0, len(f.searches))
	for _, s := range f.searches {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeArchive) ListSolutions(_ context.Context, id uuid.UUID, page repo.Page) ([]domain.ArchivedSolution, error) {
	f.lastPage = page
	return f.solutions[id], nil
}

func (f *fakeArchive) CountCompleted(_ context.Context, id uuid.UUID) (int64, error) {
	return int64(len(f.solutions[id])), nil
}

func (f *fakeArchive) Latest(_ context.Context, id uuid.UUID) (*domain.Snapshot, error) {
	s, ok := f.snapshots[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &s, nil
}

func newArchiveServer(t *testing.T, f *fakeArchive) *httptest.Server {
	t.Helper()

	h := NewArchiveHandler(ArchiveConfig{
		Searches:  f,
		Solutions: f,
		Snapshots: f,
		Logger:    discard,
	})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestArchive_GetSearch(t *testing.T) {
	id := uuid.New()
	started := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	f := &fakeArchive{
		searches: map[uuid.UUID]domain.Search{
			id: {ID: id, Depth: 2, Total: 4, Status: domain.StatusRunning, StartedAt: started},
		},
		solutions: map[uuid.UUID][]domain.ArchivedSolution{
			id: {{SearchID: id, WorkerID: "w1", Assembly: 2, Payload: json.RawMessage(`"p"`)}},
		},
		snapshots: map[uuid.UUID]domain.Snapshot{
			id: {SearchID: id, TakenAt: started.Add(time.Minute), SnapshotPayload: domain.SnapshotPayload{Unsolved: 3}},
		},
	}
	srv := newArchiveServer(t, f)

	resp, err := http.Get(srv.URL + "/api/v1/searches/" + id.String())
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		Data SearchDetailResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Data.ID != id || out.Data.Total != 4 || out.Data.Completed != 1 {
		t.Errorf("unexpected search: %+v", out.Data)
	}
	if out.Data.LatestSnapshot == nil || out.Data.LatestSnapshot.Unsolved != 3 {
		t.Errorf("expected latest snapshot, got %+v", out.Data.LatestSnapshot)
	}
}

func TestArchive_Errors(t *testing.T) {
	srv := newArchiveServer(t, &fakeArchive{})

	tests := []struct {
		name string
		path string
		want int
	}{
		{"invalid id", "/api/v1/searches/not-a-uuid", http.StatusBadRequest},
		{"unknown search", "/api/v1/searches/" + uuid.NewString(), http.StatusNotFound},
		{"unknown search solutions", "/api/v1/searches/" + uuid.NewString() + "/solutions", http.StatusNotFound},
		{"bad limit", "/api/v1/searches?limit=abc", http.StatusBadRequest},
		{"negative offset", "/api/v1/searches?offset=-1", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestArchive_ListPaging(t *testing.T) {
	f := &fakeArchive{searches: map[uuid.UUID]domain.Search{}}
	srv := newArchiveServer(t, f)

	resp, err := http.Get(srv.URL + "/api/v1/searches?limit=10&offset=20")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if f.lastPage.Limit != 10 || f.lastPage.Offset != 20 {
		t.Errorf("unexpected page %+v", f.lastPage)
	}
}
