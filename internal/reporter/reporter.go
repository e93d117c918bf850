// Package reporter периодически снимает срез прогресса кластера.
//
// На каждый тик cron: срез Controller'а → Prometheus gauges → строка
// в логе → событие search.snapshot для архива.
package reporter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/shaiso/Coldcluster/internal/domain"
	"github.com/shaiso/Coldcluster/internal/telemetry"
)

// DefaultSchedule — расписание по умолчанию.
const DefaultSchedule = "@every 1m"

// scheduleParser — стандартные 5 полей плюс дескрипторы (@every, @hourly).
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Source — источник срезов (cluster.Controller).
type Source interface {
	// SearchSnapshot возвращает срез и ID поиска, снятые атомарно.
	SearchSnapshot() (uuid.UUID, domain.SnapshotPayload)
	RecordFor(searchID uuid.UUID, eventType domain.EventType, payload any)
}

// Reporter — периодический отчёт о прогрессе.
type Reporter struct {
	source   Source
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu       sync.Mutex
	last     domain.SnapshotPayload
	lastID   uuid.UUID
	reported bool
}

// Config — конфигурация Reporter.
type Config struct {
	Source Source

	// Schedule — cron-выражение или дескриптор (default: "@every 1m").
	Schedule string

	Logger *slog.Logger
}

// ValidateSchedule проверяет расписание.
func ValidateSchedule(expr string) error {
	if _, err := scheduleParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid snapshot schedule %q: %w", expr, err)
	}
	return nil
}

// New создаёт Reporter. Некорректное расписание — ошибка.
func New(cfg Config) (*Reporter, error) {
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = DefaultSchedule
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Reporter{
		source:   cfg.Source,
		schedule: schedule,
		logger:   logger,
		cron:     cron.New(cron.WithParser(scheduleParser)),
	}

	if _, err := r.cron.AddFunc(schedule, func() { r.Tick() }); err != nil {
		return nil, fmt.Errorf("invalid snapshot schedule %q: %w", schedule, err)
	}

	return r, nil
}

// Start запускает планировщик.
func (r *Reporter) Start() {
	r.cron.Start()
	r.logger.Info("reporter started", "schedule", r.schedule)
}

// Stop останавливает планировщик и ждёт текущий тик.
func (r *Reporter) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		r.logger.Warn("reporter stop timed out")
	}
	r.logger.Info("reporter stopped")
}

// Tick снимает один срез.
//
// Gauges обновляются всегда. Событие search.snapshot отправляется, если
// поиск загружен и срез отличается от предыдущего или кластер не stopped.
func (r *Reporter) Tick() domain.SnapshotPayload {
	searchID, snap := r.source.SearchSnapshot()

	telemetry.ObserveSnapshot(snap)

	r.mu.Lock()
	changed := !r.reported || searchID != r.lastID || snap != r.last
	r.last = snap
	r.lastID = searchID
	r.reported = true
	r.mu.Unlock()

	logger := telemetry.WithSearchID(r.logger, searchID.String())
	level := slog.LevelInfo
	if !changed && snap.Status == domain.StatusStopped {
		level = slog.LevelDebug
	}
	logger.Log(context.Background(), level, "progress",
		"status", snap.Status,
		"unsolved", snap.Unsolved,
		"total", snap.Total,
		"programs_run", snap.ProgramsRun,
		"solutions", snap.Solutions,
		"workers_active", snap.WorkersActive,
		"run_rate", snap.RunRate,
	)

	if searchID != uuid.Nil && (changed || snap.Status != domain.StatusStopped) {
		r.source.RecordFor(searchID, domain.EventSnapshot, snap)
	}

	return snap
}
