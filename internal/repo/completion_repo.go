package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Coldcluster/internal/domain"
)

// CompletionRepo — репозиторий завершённых assemblies и найденных решений.
type CompletionRepo struct {
	pool *pgxpool.Pool
}

// NewCompletionRepo создаёт новый CompletionRepo.
func NewCompletionRepo(pool *pgxpool.Pool) *CompletionRepo {
	return &CompletionRepo{pool: pool}
}

// Record сохраняет завершение assembly вместе с решениями в одной транзакции.
//
// Ключ (search_id, worker_id, assembly): повторная доставка того же события
// ничего не меняет. Возвращает true, если запись добавлена.
func (r *CompletionRepo) Record(ctx context.Context, searchID uuid.UUID, p domain.AssemblyCompletedPayload, at time.Time) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		INSERT INTO completions (search_id, worker_id, assembly, programs_completed, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (search_id, worker_id, assembly) DO NOTHING
	`, searchID, p.WorkerID, p.Assembly, p.ProgramsCompleted, at)
	if err != nil {
		return false, fmt.Errorf("insert completion: %w", err)
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	if len(p.Solutions) > 0 {
		batch := &pgx.Batch{}
		for i, sol := range p.Solutions {
			batch.Queue(`
				INSERT INTO solutions (search_id, worker_id, assembly, idx, payload, found_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT DO NOTHING
			`, searchID, p.WorkerID, p.Assembly, i, []byte(sol), at)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return false, fmt.Errorf("insert solutions: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// ListSolutions возвращает решения поиска в порядке нахождения.
func (r *CompletionRepo) ListSolutions(ctx context.Context, searchID uuid.UUID, page Page) ([]domain.ArchivedSolution, error) {
	page = page.normalize()

	query := `
		SELECT search_id, worker_id, assembly, payload, found_at
		FROM solutions
		WHERE search_id = $1
		ORDER BY found_at ASC, assembly ASC, idx ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, searchID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list solutions: %w", err)
	}
	defer rows.Close()

	solutions := []domain.ArchivedSolution{}
	for rows.Next() {
		var s domain.ArchivedSolution
		var payload []byte
		if err := rows.Scan(&s.SearchID, &s.WorkerID, &s.Assembly, &payload, &s.FoundAt); err != nil {
			return nil, fmt.Errorf("scan solution: %w", err)
		}
		s.Payload = json.RawMessage(payload)
		solutions = append(solutions, s)
	}
	return solutions, rows.Err()
}

// CountCompleted возвращает число архивных завершений поиска.
func (r *CompletionRepo) CountCompleted(ctx context.Context, searchID uuid.UUID) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM completions WHERE search_id = $1`, searchID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count completions: %w", err)
	}
	return n, nil
}
