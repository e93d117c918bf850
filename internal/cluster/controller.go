package cluster

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Coldcluster/internal/domain"
	"github.com/shaiso/Coldcluster/internal/engine"
)

// EventSink принимает события кластера.
// Record вызывается под мьютексом Controller'а и не должен блокироваться.
type EventSink interface {
	Record(ev domain.Event)
}

type nopSink struct{}

func (nopSink) Record(domain.Event) {}

// Controller — владелец состояния кластера.
//
// Controller:
//   - Хранит глобальный статус (stopped/running/paused) и активный solver
//   - Выполняет команды оператора (run, pause, unpause, stop, reset)
//   - Обрабатывает check-in workers: слияние отчётов, run rate, выдача assemblies
//   - Останавливает кластер, когда нерешённых assemblies не осталось
//
// Все методы потокобезопасны: состояние защищено одним мьютексом,
// ввода-вывода под ним нет.
type Controller struct {
	mu sync.Mutex

	status   domain.ClusterStatus
	solver   *engine.SolverSpec
	searchID uuid.UUID

	space    *WorkSpace
	registry *Registry
	ledger   *Ledger

	sink   EventSink
	logger *slog.Logger
	now    func() time.Time
}

// Config — конфигурация Controller.
type Config struct {
	// Sink — получатель событий (опционально).
	Sink EventSink

	// LivenessWindow — окно свежести check-in (default: 5s).
	LivenessWindow time.Duration

	// Now — источник времени (для тестов; default: time.Now).
	Now func() time.Time

	// Logger
	Logger *slog.Logger
}

// New создаёт Controller в статусе stopped без solver и с пустым пулом.
func New(cfg Config) *Controller {
	sink := cfg.Sink
	if sink == nil {
		sink = nopSink{}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		status:   domain.StatusStopped,
		space:    NewWorkSpace(),
		registry: NewRegistry(cfg.LivenessWindow),
		ledger:   NewLedger(),
		sink:     sink,
		logger:   logger,
		now:      now,
	}
}

// Execute выполняет команду оператора.
//
// solverText используется только командой reset.
// Неизвестная команда — no-op. Ошибку возвращает только reset с некорректным solver;
// состояние при этом не меняется.
func (c *Controller) Execute(cmd domain.Command, solverText string) error {
	if cmd == domain.CommandReset {
		return c.Reset(solverText)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch cmd {
	case domain.CommandRun:
		if c.solver == nil {
			c.logger.Warn("run requested without active solver")
		}
		c.setStatus(domain.StatusRunning, domain.ReasonOperator)

	case domain.CommandPause:
		c.setStatus(domain.StatusPaused, domain.ReasonOperator)

	case domain.CommandUnpause:
		// unpause возвращает кластер в stopped, а не в running
		c.setStatus(domain.StatusStopped, domain.ReasonOperator)

	case domain.CommandStop:
		c.setStatus(domain.StatusStopped, domain.ReasonOperator)
		c.solver = nil

	default:
		c.logger.Debug("unknown command ignored", "command", string(cmd))
	}

	return nil
}

// Reset заменяет solver и начинает новый поиск.
//
// Текст разбирается до захвата мьютекса: при ошибке состояние не меняется.
// Если кластер был running, он переводится в stopped. Workers, счётчики
// и решения сбрасываются, пул заполняется заново.
func (c *Controller) Reset(solverText string) error {
	spec, err := engine.Parse(solverText)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSolver, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == domain.StatusRunning {
		c.setStatus(domain.StatusStopped, domain.ReasonReset)
	}

	c.registry.Clear()
	c.solver = spec
	c.searchID = uuid.New()
	c.space.Reset(spec.Total)
	c.ledger.Reset()

	c.logger.Info("solver loaded",
		"search_id", c.searchID,
		"patterns", len(spec.Patterns),
		"depth", spec.Depth,
		"total", spec.Total,
	)

	c.emit(domain.EventSearchStarted, domain.SearchStartedPayload{
		SolverText: spec.Text,
		Patterns:   spec.Patterns,
		Depth:      spec.Depth,
		Total:      spec.Total,
	})

	return nil
}

// MaxCores — верхняя граница cores: целевая очередь worker'а cores*2 не должна переполнить int.
const MaxCores = math.MaxInt / 2

// CheckIn — запрос worker'а.
type CheckIn struct {
	WorkerID string
	Cores    int

	// Running — выполняющиеся assemblies с частичным прогрессом.
	Running []domain.AssemblyProgress

	// Queued — assemblies в очереди worker'а.
	Queued []domain.Assembly

	// Completed — все assemblies, завершённые worker'ом (не дельта).
	Completed []domain.CompletionRecord

	// ResendSolver — worker просит прислать solver заново.
	ResendSolver bool
}

// CheckInResult — ответ worker'у и сведения для метрик.
type CheckInResult struct {
	// Status — статус, отправленный worker'у.
	Status domain.ClusterStatus

	// Solver — solver для отправки; nil — не отправлять.
	Solver *engine.SolverSpec

	// NextAssemblies — новые assemblies; пусто — поле не отправляется.
	NextAssemblies []domain.Assembly

	// Merged — впервые принятые отчёты о завершении.
	Merged []domain.CompletionRecord

	// NewWorker — запись worker'а создана этим check-in.
	NewWorker bool

	// Exhausted — этот check-in остановил кластер, решив последние assemblies.
	Exhausted bool

	Unsolved    int
	ProgramsRun int64
	RunRate     *int64
}

// CheckIn обрабатывает check-in worker'а.
//
// Слияние отчётов выполняется только в статусе running; в остальных статусах
// обновляются лишь liveness, прогресс и run rate.
func (c *Controller) CheckIn(req CheckIn) CheckInResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	rec, created := c.registry.GetOrCreate(req.WorkerID, req.Cores)
	if created {
		c.logger.Info("worker registered", "worker_id", rec.ID, "cores", rec.Cores)
	}

	rec.LastCheckIn = now
	rec.Running = req.Running
	rec.Queued = req.Queued

	var res CheckInResult
	res.NewWorker = created

	if c.status == domain.StatusRunning && req.Completed != nil {
		res.Merged = c.ledger.Merge(rec, req.Completed, c.space)

		for _, m := range res.Merged {
			c.emit(domain.EventAssemblyCompleted, domain.AssemblyCompletedPayload{
				WorkerID:          rec.ID,
				Assembly:          m.Assembly,
				ProgramsCompleted: m.ProgramsCompleted,
				Solutions:         m.Solutions,
			})
		}
	}

	if c.space.IsExhausted() && c.status != domain.StatusStopped {
		c.setStatus(domain.StatusStopped, domain.ReasonExhausted)
		res.Exhausted = true
	}

	rec.recomputeProgramsRun()
	rec.RunRate = rec.runs.observe(rec.ProgramsRun, now)

	res.Status = c.status
	rec.LastStatusSent = c.status

	if req.ResendSolver || rec.LastSolverSent == nil || rec.LastSolverSent != c.solver {
		res.Solver = c.solver
		rec.LastSolverSent = c.solver
	}

	if c.status == domain.StatusRunning {
		target := min(rec.Cores, MaxCores) * 2
		needed := min(target-rec.InFlight(), c.space.Len())
		if needed > 0 {
			res.NextAssemblies = c.space.Take(needed)
		}
	}

	res.Unsolved = c.space.Len()
	res.ProgramsRun = c.ledger.ProgramsRun()
	res.RunRate = rec.RunRate

	return res
}

// Status возвращает текущий статус.
func (c *Controller) Status() domain.ClusterStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// SearchID возвращает ID текущего поиска (uuid.Nil до первого reset).
func (c *Controller) SearchID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchID
}

// Solver возвращает активный solver (nil после stop).
func (c *Controller) Solver() *engine.SolverSpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.solver
}

// RecordFor передаёт внешнее событие поиска searchID в sink (например, snapshot от reporter).
// Поиск мог смениться после снятия среза, поэтому ID передаётся явно.
func (c *Controller) RecordFor(searchID uuid.UUID, eventType domain.EventType, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emitFor(searchID, eventType, payload)
}

// setStatus меняет статус и публикует событие, если статус изменился.
// Вызывается под мьютексом.
func (c *Controller) setStatus(to domain.ClusterStatus, reason domain.StatusChangeReason) {
	from := c.status
	if from == to {
		return
	}
	c.status = to

	c.logger.Info("cluster status changed",
		"search_id", c.searchID,
		"from", from,
		"to", to,
		"reason", reason,
	)

	c.emit(domain.EventStatusChanged, domain.StatusChangedPayload{
		From:   from,
		To:     to,
		Reason: reason,
	})
}

// emit отправляет событие в sink. Вызывается под мьютексом.
func (c *Controller) emit(eventType domain.EventType, payload any) {
	c.emitFor(c.searchID, eventType, payload)
}

func (c *Controller) emitFor(searchID uuid.UUID, eventType domain.EventType, payload any) {
	c.sink.Record(domain.Event{
		Type:     eventType,
		SearchID: searchID,
		At:       c.now(),
		Payload:  payload,
	})
}
