package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Coldcluster/internal/domain"
)

// SnapshotRepo — репозиторий срезов прогресса.
type SnapshotRepo struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepo создаёт новый SnapshotRepo.
func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// Insert сохраняет срез. Срез с тем же (search_id, taken_at) игнорируется.
func (r *SnapshotRepo) Insert(ctx context.Context, searchID uuid.UUID, at time.Time, p domain.SnapshotPayload) error {
	query := `
		INSERT INTO snapshots (search_id, taken_at, status, total, unsolved, programs_run, solutions,
		                       workers_active, workers_paused, workers_inactive, run_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (search_id, taken_at) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query,
		searchID,
		at,
		p.Status,
		p.Total,
		p.Unsolved,
		p.ProgramsRun,
		p.Solutions,
		p.WorkersActive,
		p.WorkersPaused,
		p.WorkersInactive,
		p.RunRate,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Latest возвращает последний срез поиска.
func (r *SnapshotRepo) Latest(ctx context.Context, searchID uuid.UUID) (*domain.Snapshot, error) {
	query := `
		SELECT search_id, taken_at, status, total, unsolved, programs_run, solutions,
		       workers_active, workers_paused, workers_inactive, run_rate
		FROM snapshots
		WHERE search_id = $1
		ORDER BY taken_at DESC
		LIMIT 1
	`
	var s domain.Snapshot
	err := r.pool.QueryRow(ctx, query, searchID).Scan(
		&s.SearchID,
		&s.TakenAt,
		&s.Status,
		&s.Total,
		&s.Unsolved,
		&s.ProgramsRun,
		&s.Solutions,
		&s.WorkersActive,
		&s.WorkersPaused,
		&s.WorkersInactive,
		&s.RunRate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	return &s, nil
}
