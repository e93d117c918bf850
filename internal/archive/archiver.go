// Package archive сохраняет историю поисков, которую публикует координатор.
//
// Archiver потребляет очередь archive.events и раскладывает события по
// таблицам Postgres. Запись идемпотентна: повторная доставка события
// не меняет архив. Координатор архив не читает.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Coldcluster/internal/domain"
	"github.com/shaiso/Coldcluster/internal/mq"
	"github.com/shaiso/Coldcluster/internal/repo"
	"github.com/shaiso/Coldcluster/internal/telemetry"
)

const defaultPrefetch = 20

// SearchStore — хранилище поисков.
type SearchStore interface {
	Create(ctx context.Context, s *domain.Search) error
	ApplyStatus(ctx context.Context, id uuid.UUID, p domain.StatusChangedPayload, at time.Time) error
	UpdateProgress(ctx context.Context, id uuid.UUID, status domain.ClusterStatus, programsRun int64) error
}

// CompletionStore — хранилище завершений и решений.
type CompletionStore interface {
	Record(ctx context.Context, searchID uuid.UUID, p domain.AssemblyCompletedPayload, at time.Time) (bool, error)
}

// SnapshotStore — хранилище срезов прогресса.
type SnapshotStore interface {
	Insert(ctx context.Context, searchID uuid.UUID, at time.Time, p domain.SnapshotPayload) error
}

// Archiver — потребитель событий кластера.
type Archiver struct {
	searches    SearchStore
	completions CompletionStore
	snapshots   SnapshotStore

	conn     *mq.Connection
	consumer *mq.Consumer
	prefetch int

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Archiver.
type Config struct {
	Searches    SearchStore
	Completions CompletionStore
	Snapshots   SnapshotStore

	// Conn — соединение с RabbitMQ (нужно только для Start).
	Conn *mq.Connection

	// Prefetch — число сообщений без ack (default: 20).
	Prefetch int

	Logger *slog.Logger
}

// New создаёт Archiver.
func New(cfg Config) *Archiver {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Archiver{
		searches:    cfg.Searches,
		completions: cfg.Completions,
		snapshots:   cfg.Snapshots,
		conn:        cfg.Conn,
		prefetch:    prefetch,
		logger:      logger,
	}
}

// Start запускает consumer очереди archive.events.
func (a *Archiver) Start(ctx context.Context) error {
	if a.conn == nil {
		return errors.New("archiver requires a RabbitMQ connection")
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancelFunc = cancel

	a.consumer = mq.NewConsumer(a.conn, a.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueArchiveEvents),
		Tag:      "coldcluster-archiver",
		Handler:  a.handleDelivery,
		Prefetch: a.prefetch,
	})

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("archive consumer error", "error", err)
		}
	}()

	a.logger.Info("archiver started", "queue", mq.QueueArchiveEvents, "prefetch", a.prefetch)
	return nil
}

// Stop останавливает consumer и ждёт завершения.
func (a *Archiver) Stop() {
	a.logger.Info("stopping archiver...")

	if a.cancelFunc != nil {
		a.cancelFunc()
	}
	if a.consumer != nil {
		a.consumer.Stop()
	}
	a.wg.Wait()

	a.logger.Info("archiver stopped")
}

// handleDelivery — обработчик mq.Consumer.
func (a *Archiver) handleDelivery(ctx context.Context, d *mq.Delivery) error {
	err := a.Handle(ctx, &d.Message)

	result := "ok"
	if err != nil {
		result = "error"
	}
	telemetry.ArchiveEventsTotal.WithLabelValues(string(d.Message.Type), result).Inc()

	return err
}

// Handle применяет одно событие к архиву.
//
// Неизвестный тип или некорректный payload — ErrPermanent (сообщение уходит в DLQ).
// Ошибки хранилища возвращаются как есть, чтобы сообщение было доставлено повторно.
func (a *Archiver) Handle(ctx context.Context, msg *mq.Message) error {
	logger := telemetry.WithSearchID(a.logger, msg.SearchID.String())

	switch msg.Type {
	case domain.EventSearchStarted:
		p, err := mq.ParsePayload[domain.SearchStartedPayload](msg)
		if err != nil {
			return permanent(err)
		}
		search := &domain.Search{
			ID:         msg.SearchID,
			SolverText: p.SolverText,
			Depth:      p.Depth,
			Total:      p.Total,
			Status:     domain.StatusStopped,
			StartedAt:  msg.Timestamp,
		}
		if err := a.searches.Create(ctx, search); err != nil {
			return err
		}
		logger.Info("search archived", "total", p.Total, "depth", p.Depth)

	case domain.EventStatusChanged:
		p, err := mq.ParsePayload[domain.StatusChangedPayload](msg)
		if err != nil {
			return permanent(err)
		}
		if err := a.searches.ApplyStatus(ctx, msg.SearchID, p, msg.Timestamp); err != nil {
			// Событие до первого reset (uuid.Nil) или поиск, чей search.started потерян
			if errors.Is(err, repo.ErrNotFound) {
				logger.Debug("status change for unknown search skipped", "to", p.To)
				return nil
			}
			return err
		}
		logger.Info("search status archived", "from", p.From, "to", p.To, "reason", p.Reason)

	case domain.EventAssemblyCompleted:
		p, err := mq.ParsePayload[domain.AssemblyCompletedPayload](msg)
		if err != nil {
			return permanent(err)
		}
		added, err := a.completions.Record(ctx, msg.SearchID, p, msg.Timestamp)
		if err != nil {
			return err
		}
		if added && len(p.Solutions) > 0 {
			logger.Info("solutions archived",
				"worker_id", p.WorkerID,
				"assembly", p.Assembly,
				"count", len(p.Solutions),
			)
		}

	case domain.EventSnapshot:
		p, err := mq.ParsePayload[domain.SnapshotPayload](msg)
		if err != nil {
			return permanent(err)
		}
		if msg.SearchID == uuid.Nil {
			return nil
		}
		if err := a.searches.UpdateProgress(ctx, msg.SearchID, p.Status, p.ProgramsRun); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				logger.Debug("snapshot for unknown search skipped")
				return nil
			}
			return err
		}
		if err := a.snapshots.Insert(ctx, msg.SearchID, msg.Timestamp, p); err != nil {
			return err
		}

	default:
		return permanent(fmt.Errorf("unknown event type %q", msg.Type))
	}

	return nil
}

func permanent(err error) error {
	return fmt.Errorf("%w: %w", mq.ErrPermanent, err)
}
