package cluster

import (
	"time"

	"github.com/shaiso/Coldcluster/internal/domain"
	"github.com/shaiso/Coldcluster/internal/engine"
)

// DefaultLivenessWindow — worker считается active, если выходил на связь не позже этого срока.
const DefaultLivenessWindow = 5 * time.Second

// WorkerRecord — всё, что координатор помнит о worker'е между check-in.
type WorkerRecord struct {
	// ID — идентификатор, присланный worker'ом.
	ID string

	// Cores — число ядер, заявленное при первом check-in. Дальше не меняется.
	Cores int

	// LastCheckIn — время последнего check-in.
	LastCheckIn time.Time

	// LastStatusSent — статус, отправленный в последнем ответе.
	LastStatusSent domain.ClusterStatus

	// LastSolverSent — solver из последнего ответа (сравнивается по указателю).
	LastSolverSent *engine.SolverSpec

	// Completed — принятые отчёты о завершении, без повторов по assembly.
	Completed []domain.CompletionRecord

	// Running — выполняющиеся assemblies из последнего check-in.
	Running []domain.AssemblyProgress

	// Queued — assemblies в очереди worker'а из последнего check-in.
	Queued []domain.Assembly

	// ProgramsRun — сумма programs_completed по Completed и Running.
	ProgramsRun int64

	// RunRate — оценка программ в секунду, nil — замеров недостаточно.
	RunRate *int64

	completed map[domain.Assembly]struct{}
	runs      runWindow
}

// newWorkerRecord создаёт запись с пустой историей.
func newWorkerRecord(id string, cores int) *WorkerRecord {
	return &WorkerRecord{
		ID:        id,
		Cores:     cores,
		completed: make(map[domain.Assembly]struct{}),
	}
}

// HasCompleted проверяет, принимался ли уже отчёт по assembly.
func (r *WorkerRecord) HasCompleted(a domain.Assembly) bool {
	_, ok := r.completed[a]
	return ok
}

// addCompleted добавляет отчёт, если assembly ещё не встречалась. Возвращает true, если добавлен.
func (r *WorkerRecord) addCompleted(rec domain.CompletionRecord) bool {
	if r.HasCompleted(rec.Assembly) {
		return false
	}
	r.completed[rec.Assembly] = struct{}{}
	r.Completed = append(r.Completed, rec)
	return true
}

// recomputeProgramsRun пересчитывает ProgramsRun по завершённым и выполняющимся assemblies.
func (r *WorkerRecord) recomputeProgramsRun() int64 {
	var total int64
	for _, c := range r.Completed {
		total += c.ProgramsCompleted
	}
	for _, p := range r.Running {
		total += p.ProgramsCompleted
	}
	r.ProgramsRun = total
	return total
}

// InFlight возвращает число выполняющихся и ожидающих assemblies.
func (r *WorkerRecord) InFlight() int {
	return len(r.Running) + len(r.Queued)
}

// Registry — реестр workers (worker ID → WorkerRecord).
// Записи создаются при первом check-in и живут до reset.
type Registry struct {
	workers map[string]*WorkerRecord
	order   []string
	window  time.Duration
}

// NewRegistry создаёт пустой реестр. window <= 0 — DefaultLivenessWindow.
func NewRegistry(window time.Duration) *Registry {
	if window <= 0 {
		window = DefaultLivenessWindow
	}
	return &Registry{
		workers: make(map[string]*WorkerRecord),
		window:  window,
	}
}

// GetOrCreate возвращает запись worker'а, создавая её при первом обращении.
// cores учитывается только при создании.
func (g *Registry) GetOrCreate(id string, cores int) (*WorkerRecord, bool) {
	if rec, ok := g.workers[id]; ok {
		return rec, false
	}

	rec := newWorkerRecord(id, cores)
	g.workers[id] = rec
	g.order = append(g.order, id)
	return rec, true
}

// Get возвращает запись worker'а.
func (g *Registry) Get(id string) (*WorkerRecord, error) {
	rec, ok := g.workers[id]
	if !ok {
		return nil, ErrUnknownWorker
	}
	return rec, nil
}

// All возвращает записи в порядке первого check-in.
func (g *Registry) All() []*WorkerRecord {
	out := make([]*WorkerRecord, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.workers[id])
	}
	return out
}

// Len возвращает количество workers.
func (g *Registry) Len() int {
	return len(g.workers)
}

// Clear удаляет все записи.
func (g *Registry) Clear() {
	g.workers = make(map[string]*WorkerRecord)
	g.order = nil
}

// Liveness вычисляет состояние worker'а на момент now.
//
// Свежий check-in → active независимо от отправленного статуса.
// Устаревший check-in → paused, если последним был отправлен paused, иначе inactive.
func (g *Registry) Liveness(rec *WorkerRecord, now time.Time) domain.Liveness {
	return livenessOf(rec, now, g.window)
}

func livenessOf(rec *WorkerRecord, now time.Time, window time.Duration) domain.Liveness {
	if now.Sub(rec.LastCheckIn) < window {
		return domain.LivenessActive
	}
	if rec.LastStatusSent == domain.StatusPaused {
		return domain.LivenessPaused
	}
	return domain.LivenessInactive
}
