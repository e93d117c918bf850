package cluster

import (
	"encoding/json"

	"github.com/shaiso/Coldcluster/internal/domain"
)

// Ledger — глобальные счётчики поиска: выполненные программы и найденные решения.
type Ledger struct {
	programsRun int64
	solutions   []json.RawMessage
}

// NewLedger создаёт пустой Ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Merge сливает отчёт worker'а о завершённых assemblies.
//
// Worker каждый раз присылает весь список завершённых assemblies, а не дельту.
// Отчёты по assemblies, которые этот worker уже присылал, пропускаются;
// для новых увеличивается счётчик программ и дописываются решения.
// Затем все присланные assemblies удаляются из пула — в том числе повторные.
//
// Возвращает впервые принятые отчёты.
func (l *Ledger) Merge(worker *WorkerRecord, incoming []domain.CompletionRecord, space *WorkSpace) []domain.CompletionRecord {
	if len(incoming) == 0 {
		return nil
	}

	var merged []domain.CompletionRecord
	reported := make([]domain.Assembly, 0, len(incoming))

	for _, rec := range incoming {
		reported = append(reported, rec.Assembly)

		if !worker.addCompleted(rec) {
			continue
		}

		l.programsRun += rec.ProgramsCompleted
		l.solutions = append(l.solutions, rec.Solutions...)
		merged = append(merged, rec)
	}

	space.MarkSolved(reported)

	return merged
}

// Reset обнуляет счётчики.
func (l *Ledger) Reset() {
	l.programsRun = 0
	l.solutions = nil
}

// ProgramsRun возвращает общее число выполненных программ.
func (l *Ledger) ProgramsRun() int64 {
	return l.programsRun
}

// SolutionCount возвращает число найденных решений.
func (l *Ledger) SolutionCount() int {
	return len(l.solutions)
}

// Solutions возвращает копию списка решений.
func (l *Ledger) Solutions() []json.RawMessage {
	out := make([]json.RawMessage, len(l.solutions))
	copy(out, l.solutions)
	return out
}
