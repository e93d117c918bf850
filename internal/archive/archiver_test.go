package archive

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Coldcluster/internal/domain"
	"github.com/shaiso/Coldcluster/internal/mq"
	"github.com/shaiso/Coldcluster/internal/repo"
)

// --- Fakes ---

type fakeSearches struct {
	searches map[uuid.UUID]*domain.Search
	err      error
}

func newFakeSearches() *fakeSearches {
	return &fakeSearches{searches: make(map[uuid.UUID]*domain.Search)}
}

func (f *fakeSearches) Create(_ context.Context, s *domain.Search) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.searches[s.ID]; !ok {
		cp := *s
		f.searches[s.ID] = &cp
	}
	return nil
}

func (f *fakeSearches) ApplyStatus(_ context.Context, id uuid.UUID, p domain.StatusChangedPayload, at time.Time) error {
	s, ok := f.searches[id]
	if !ok {
		return repo.ErrNotFound
	}
	s.Apply(p, at)
	return nil
}

func (f *fakeSearches) UpdateProgress(_ context.Context, id uuid.UUID, status domain.ClusterStatus, programsRun int64) error {
	s, ok := f.searches[id]
	if !ok {
		return repo.ErrNotFound
	}
	s.Status = status
	s.ProgramsRun = max(s.ProgramsRun, programsRun)
	return nil
}

type completionKey struct {
	search   uuid.UUID
	worker   string
	assembly domain.Assembly
}

type fakeCompletions struct {
	records   map[completionKey]domain.AssemblyCompletedPayload
	solutions int
}

func newFakeCompletions() *fakeCompletions {
	return &fakeCompletions{records: make(map[completionKey]domain.AssemblyCompletedPayload)}
}

func (f *fakeCompletions) Record(_ context.Context, searchID uuid.UUID, p domain.AssemblyCompletedPayload, _ time.Time) (bool, error) {
	key := completionKey{searchID, p.WorkerID, p.Assembly}
	if _, ok := f.records[key]; ok {
		return false, nil
	}
	f.records[key] = p
	f.solutions += len(p.Solutions)
	return true, nil
}

type fakeSnapshots struct {
	inserted []domain.SnapshotPayload
}

func (f *fakeSnapshots) Insert(_ context.Context, _ uuid.UUID, _ time.Time, p domain.SnapshotPayload) error {
	f.inserted = append(f.inserted, p)
	return nil
}

type fixture struct {
	archiver    *Archiver
	searches    *fakeSearches
	completions *fakeCompletions
	snapshots   *fakeSnapshots
}

func newFixture() *fixture {
	f := &fixture{
		searches:    newFakeSearches(),
		completions: newFakeCompletions(),
		snapshots:   &fakeSnapshots{},
	}
	f.archiver = New(Config{
		Searches:    f.searches,
		Completions: f.completions,
		Snapshots:   f.snapshots,
	})
	return f
}

// message прогоняет событие через сериализацию, как это делает очередь.
func message(t *testing.T, ev domain.Event) *mq.Message {
	t.Helper()

	body, err := json.Marshal(mq.NewEventMessage(ev))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	msg, err := mq.DecodeMessage(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return msg
}

// --- Tests ---

func TestArchiver_SearchLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := uuid.New()
	t0 := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	events := []domain.Event{
		{Type: domain.EventSearchStarted, SearchID: id, At: t0, Payload: domain.SearchStartedPayload{
			SolverText: "pattern a\npattern b\ndepth 2\n", Patterns: []string{"a", "b"}, Depth: 2, Total: 4,
		}},
		{Type: domain.EventStatusChanged, SearchID: id, At: t0.Add(time.Second), Payload: domain.StatusChangedPayload{
			From: domain.StatusStopped, To: domain.StatusRunning, Reason: domain.ReasonOperator,
		}},
		{Type: domain.EventSnapshot, SearchID: id, At: t0.Add(time.Minute), Payload: domain.SnapshotPayload{
			Status: domain.StatusRunning, Total: 4, Unsolved: 1, ProgramsRun: 300,
		}},
		{Type: domain.EventStatusChanged, SearchID: id, At: t0.Add(2 * time.Minute), Payload: domain.StatusChangedPayload{
			From: domain.StatusRunning, To: domain.StatusStopped, Reason: domain.ReasonExhausted,
		}},
	}

	for _, ev := range events {
		if err := f.archiver.Handle(ctx, message(t, ev)); err != nil {
			t.Fatalf("Handle(%s): %v", ev.Type, err)
		}
	}

	s := f.searches.searches[id]
	if s == nil {
		t.Fatal("search not archived")
	}
	if s.Total != 4 || s.Depth != 2 || !s.StartedAt.Equal(t0) {
		t.Errorf("unexpected search: %+v", s)
	}
	if s.Status != domain.StatusStopped || s.ProgramsRun != 300 {
		t.Errorf("unexpected progress: status=%s programs=%d", s.Status, s.ProgramsRun)
	}
	if !s.IsExhausted() || !s.ExhaustedAt.Equal(t0.Add(2*time.Minute)) {
		t.Errorf("expected exhausted_at, got %v", s.ExhaustedAt)
	}
	if len(f.snapshots.inserted) != 1 {
		t.Errorf("expected 1 snapshot, got %d", len(f.snapshots.inserted))
	}
}

func TestArchiver_CompletionIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := uuid.New()

	ev := domain.Event{
		Type:     domain.EventAssemblyCompleted,
		SearchID: id,
		At:       time.Now(),
		Payload: domain.AssemblyCompletedPayload{
			WorkerID:          "w1",
			Assembly:          3,
			ProgramsCompleted: 77,
			Solutions:         []json.RawMessage{json.RawMessage(`"p1"`), json.RawMessage(`"p2"`)},
		},
	}

	for i := 0; i < 3; i++ {
		if err := f.archiver.Handle(ctx, message(t, ev)); err != nil {
			t.Fatalf("Handle: %v", err)
		}
	}

	if len(f.completions.records) != 1 {
		t.Errorf("expected 1 completion, got %d", len(f.completions.records))
	}
	if f.completions.solutions != 2 {
		t.Errorf("expected 2 solutions, got %d", f.completions.solutions)
	}
	got := f.completions.records[completionKey{id, "w1", 3}]
	if string(got.Solutions[1]) != `"p2"` {
		t.Errorf("solution payload changed: %s", got.Solutions[1])
	}
}

func TestArchiver_UnknownSearchSkipped(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	events := []domain.Event{
		{Type: domain.EventStatusChanged, SearchID: uuid.Nil, Payload: domain.StatusChangedPayload{To: domain.StatusRunning}},
		{Type: domain.EventSnapshot, SearchID: uuid.New(), Payload: domain.SnapshotPayload{}},
		{Type: domain.EventSnapshot, SearchID: uuid.Nil, Payload: domain.SnapshotPayload{}},
	}

	for _, ev := range events {
		if err := f.archiver.Handle(ctx, message(t, ev)); err != nil {
			t.Errorf("Handle(%s) should skip unknown search, got %v", ev.Type, err)
		}
	}
	if len(f.snapshots.inserted) != 0 {
		t.Error("snapshot for unknown search should not be stored")
	}
}

func TestArchiver_PermanentErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name string
		msg  *mq.Message
	}{
		{"unknown type", &mq.Message{Type: "search.deleted", Payload: json.RawMessage(`{}`)}},
		{"bad payload", &mq.Message{Type: domain.EventSearchStarted, Payload: json.RawMessage(`{"total":"many"}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.archiver.Handle(ctx, tt.msg)
			if !errors.Is(err, mq.ErrPermanent) {
				t.Errorf("expected ErrPermanent, got %v", err)
			}
		})
	}
}

func TestArchiver_StoreErrorIsRetryable(t *testing.T) {
	f := newFixture()
	f.searches.err = errors.New("connection reset")

	err := f.archiver.Handle(context.Background(), message(t, domain.Event{
		Type:     domain.EventSearchStarted,
		SearchID: uuid.New(),
		Payload:  domain.SearchStartedPayload{Total: 1},
	}))

	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, mq.ErrPermanent) {
		t.Error("store errors should be retried, not dead-lettered")
	}
}

func TestArchiver_StartRequiresConnection(t *testing.T) {
	f := newFixture()
	if err := f.archiver.Start(context.Background()); err == nil {
		t.Error("expected error without connection")
	}
}
