// Package journal выносит события кластера из Controller во внешний мир.
//
// Controller вызывает Record под своим мьютексом, поэтому Record никогда
// не блокируется: событие кладётся в буферизированный канал, а при
// переполненном буфере отбрасывается с предупреждением. Отдельная горутина
// разбирает канал и публикует события в RabbitMQ. Без RabbitMQ события
// только логируются.
package journal

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shaiso/Coldcluster/internal/domain"
	"github.com/shaiso/Coldcluster/internal/telemetry"
)

// Default configuration values.
const (
	defaultBuffer         = 1024
	defaultPublishTimeout = 5 * time.Second
)

// Publisher — получатель событий (mq.Publisher в production).
type Publisher interface {
	PublishEvent(ctx context.Context, ev domain.Event) error
}

// Journal — неблокирующая очередь событий с фоновой публикацией.
type Journal struct {
	events         chan domain.Event
	publisher      Publisher
	publishTimeout time.Duration

	dropped   atomic.Int64
	published atomic.Int64

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Journal.
type Config struct {
	// Publisher — nil означает режим только логирования.
	Publisher Publisher

	// Buffer — ёмкость буфера событий (default: 1024).
	Buffer int

	// PublishTimeout — таймаут одной публикации (default: 5s).
	PublishTimeout time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт Journal. Публикация начинается после Start.
func New(cfg Config) *Journal {
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Journal{
		events:         make(chan domain.Event, buffer),
		publisher:      cfg.Publisher,
		publishTimeout: timeout,
		logger:         logger,
	}
}

// Record ставит событие в очередь. Не блокируется.
func (j *Journal) Record(ev domain.Event) {
	select {
	case j.events <- ev:
	default:
		j.dropped.Add(1)
		telemetry.JournalDroppedTotal.Inc()
		j.logger.Warn("journal buffer full, event dropped",
			"type", ev.Type,
			"search_id", ev.SearchID,
		)
	}
}

// Start запускает горутину публикации.
func (j *Journal) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	j.cancelFunc = cancel

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.run(ctx)
	}()

	j.logger.Info("journal started",
		"buffer", cap(j.events),
		"publisher", j.publisher != nil,
	)
}

// Stop останавливает публикацию, предварительно отправив накопленные события.
func (j *Journal) Stop() {
	if j.cancelFunc != nil {
		j.cancelFunc()
	}
	j.wg.Wait()

	j.logger.Info("journal stopped",
		"published", j.published.Load(),
		"dropped", j.dropped.Load(),
	)
}

// Dropped возвращает число отброшенных событий.
func (j *Journal) Dropped() int64 {
	return j.dropped.Load()
}

// Published возвращает число успешно опубликованных событий.
func (j *Journal) Published() int64 {
	return j.published.Load()
}

// run — основной цикл публикации.
func (j *Journal) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			j.drain()
			return
		case ev := <-j.events:
			j.publish(context.Background(), ev)
		}
	}
}

// drain публикует события, оставшиеся в буфере на момент остановки.
func (j *Journal) drain() {
	for {
		select {
		case ev := <-j.events:
			j.publish(context.Background(), ev)
		default:
			return
		}
	}
}

// publish публикует одно событие. Ошибка публикации логируется, событие теряется.
func (j *Journal) publish(ctx context.Context, ev domain.Event) {
	if j.publisher == nil {
		j.logger.Debug("event", "type", ev.Type, "search_id", ev.SearchID)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, j.publishTimeout)
	defer cancel()

	if err := j.publisher.PublishEvent(ctx, ev); err != nil {
		telemetry.JournalPublishErrorsTotal.Inc()
		j.logger.Warn("failed to publish event",
			"type", ev.Type,
			"search_id", ev.SearchID,
			"error", err,
		)
		return
	}

	j.published.Add(1)
}
