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

// SearchRepo — репозиторий архивных поисков.
type SearchRepo struct {
	pool *pgxpool.Pool
}

// NewSearchRepo создаёт новый SearchRepo.
func NewSearchRepo(pool *pgxpool.Pool) *SearchRepo {
	return &SearchRepo{pool: pool}
}

// Create сохраняет поиск. Повторная вставка того же ID игнорируется.
func (r *SearchRepo) Create(ctx context.Context, s *domain.Search) error {
	query := `
		INSERT INTO searches (id, solver_text, depth, total, status, programs_run, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.SolverText,
		s.Depth,
		s.Total,
		s.Status,
		s.ProgramsRun,
		s.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert search: %w", err)
	}
	return nil
}

// ApplyStatus записывает смену статуса.
// exhausted_at выставляется один раз — при первой остановке по исчерпанию пула.
func (r *SearchRepo) ApplyStatus(ctx context.Context, id uuid.UUID, p domain.StatusChangedPayload, at time.Time) error {
	query := `
		UPDATE searches
		SET status = $2,
		    exhausted_at = CASE
		        WHEN $3 AND exhausted_at IS NULL THEN $4
		        ELSE exhausted_at
		    END
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, p.To, p.Reason == domain.ReasonExhausted, at)
	if err != nil {
		return fmt.Errorf("update search status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProgress обновляет статус и счётчик программ по срезу.
// Счётчик только растёт: запоздавший срез не откатывает значение.
func (r *SearchRepo) UpdateProgress(ctx context.Context, id uuid.UUID, status domain.ClusterStatus, programsRun int64) error {
	query := `
		UPDATE searches
		SET status = $2, programs_run = GREATEST(programs_run, $3)
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, status, programsRun)
	if err != nil {
		return fmt.Errorf("update search progress: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID возвращает поиск по ID.
func (r *SearchRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Search, error) {
	query := `
		SELECT id, solver_text, depth, total, status, programs_run, started_at, exhausted_at
		FROM searches
		WHERE id = $1
	`
	s, err := scanSearch(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// List возвращает поиски, новые первыми.
func (r *SearchRepo) List(ctx context.Context, filter Page) ([]domain.Search, error) {
	filter = filter.normalize()

	query := `
		SELECT id, solver_text, depth, total, status, programs_run, started_at, exhausted_at
		FROM searches
		ORDER BY started_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}
	defer rows.Close()

	searches := []domain.Search{}
	for rows.Next() {
		s, err := scanSearch(rows)
		if err != nil {
			return nil, err
		}
		searches = append(searches, *s)
	}
	return searches, rows.Err()
}

// --- Helpers ---

// Page — параметры постраничной выборки.
type Page struct {
	Limit  int
	Offset int
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 1000
)

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// scanSearch сканирует строку в Search. pgx.Row и pgx.Rows оба подходят.
func scanSearch(row pgx.Row) (*domain.Search, error) {
	var s domain.Search
	err := row.Scan(
		&s.ID,
		&s.SolverText,
		&s.Depth,
		&s.Total,
		&s.Status,
		&s.ProgramsRun,
		&s.StartedAt,
		&s.ExhaustedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan search: %w", err)
	}
	return &s, nil
}
