package cluster

import (
	"encoding/json"
	"testing"

	"github.com/shaiso/Coldcluster/internal/domain"
)

func TestLedger_MergeIdempotent(t *testing.T) {
	ws := NewWorkSpace()
	ws.Reset(10)
	l := NewLedger()
	w := newWorkerRecord("w1", 2)

	report := []domain.CompletionRecord{{
		Assembly:          7,
		ProgramsCompleted: 10,
		Solutions:         []json.RawMessage{json.RawMessage(`"push 1"`), json.RawMessage(`{"p":2}`)},
	}}

	merged := l.Merge(w, report, ws)
	if len(merged) != 1 {
		t.Fatalf("expected 1 merged record, got %d", len(merged))
	}

	// Повторный отчёт: счётчики не меняются
	merged = l.Merge(w, report, ws)
	if len(merged) != 0 {
		t.Errorf("repeat report should not be merged, got %d", len(merged))
	}

	if l.ProgramsRun() != 10 {
		t.Errorf("expected 10 programs, got %d", l.ProgramsRun())
	}
	if l.SolutionCount() != 2 {
		t.Errorf("expected 2 solutions, got %d", l.SolutionCount())
	}
	if string(l.Solutions()[1]) != `{"p":2}` {
		t.Errorf("solution payload should pass through verbatim, got %s", l.Solutions()[1])
	}
	if len(w.Completed) != 1 {
		t.Errorf("worker should keep one completed record, got %d", len(w.Completed))
	}
	if ws.Len() != 9 {
		t.Errorf("expected 9 unsolved, got %d", ws.Len())
	}
}

func TestLedger_MergeRemovesRepeatsFromPool(t *testing.T) {
	ws := NewWorkSpace()
	ws.Reset(5)
	l := NewLedger()
	w := newWorkerRecord("w1", 2)

	// Worker уже отчитывался об assembly 2, но пул её снова содержит (после reset пула в тесте)
	w.addCompleted(domain.CompletionRecord{Assembly: 2, ProgramsCompleted: 1})

	merged := l.Merge(w, []domain.CompletionRecord{{Assembly: 2, ProgramsCompleted: 1}}, ws)
	if len(merged) != 0 {
		t.Errorf("expected nothing merged, got %d", len(merged))
	}
	for _, a := range ws.Unsolved() {
		if a == 2 {
			t.Error("repeat report should still remove assembly from the pool")
		}
	}
}

func TestLedger_DeduplicatePerWorker(t *testing.T) {
	ws := NewWorkSpace()
	ws.Reset(5)
	l := NewLedger()
	w1 := newWorkerRecord("w1", 1)
	w2 := newWorkerRecord("w2", 1)

	rec := domain.CompletionRecord{Assembly: 1, ProgramsCompleted: 3}
	l.Merge(w1, []domain.CompletionRecord{rec}, ws)
	l.Merge(w2, []domain.CompletionRecord{rec}, ws)

	// Дедупликация ведётся по worker'у: второй worker тоже учитывается
	if l.ProgramsRun() != 6 {
		t.Errorf("expected 6 programs, got %d", l.ProgramsRun())
	}
}

func TestLedger_DuplicateInsideBatch(t *testing.T) {
	ws := NewWorkSpace()
	ws.Reset(5)
	l := NewLedger()
	w := newWorkerRecord("w1", 1)

	merged := l.Merge(w, []domain.CompletionRecord{
		{Assembly: 4, ProgramsCompleted: 2},
		{Assembly: 4, ProgramsCompleted: 2},
	}, ws)

	if len(merged) != 1 || l.ProgramsRun() != 2 {
		t.Errorf("duplicate inside one report should count once: merged=%d programs=%d", len(merged), l.ProgramsRun())
	}
}

func TestLedger_OutOfRangeAccepted(t *testing.T) {
	ws := NewWorkSpace()
	ws.Reset(3)
	l := NewLedger()
	w := newWorkerRecord("w1", 1)

	merged := l.Merge(w, []domain.CompletionRecord{{Assembly: 100, ProgramsCompleted: 5}}, ws)
	if len(merged) != 1 || l.ProgramsRun() != 5 {
		t.Error("out-of-range assembly should be accepted as reported")
	}
	if ws.Len() != 3 {
		t.Errorf("pool should be unchanged, got %d", ws.Len())
	}
}

func TestLedger_Reset(t *testing.T) {
	l := NewLedger()
	ws := NewWorkSpace()
	ws.Reset(2)
	l.Merge(newWorkerRecord("w", 1), []domain.CompletionRecord{{Assembly: 0, ProgramsCompleted: 4, Solutions: []json.RawMessage{json.RawMessage(`1`)}}}, ws)

	l.Reset()
	if l.ProgramsRun() != 0 || l.SolutionCount() != 0 {
		t.Error("Reset should clear counters")
	}
}
