package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL. It keeps the
// latest observed state of every market a scan ran against.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a new MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

const upsertMarketSQL = `
	INSERT INTO markets (
		id, question, slug, category, event_id, event_slug,
		outcomes, outcome_prices, volume, active, closed, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8, $9, $10, $11, NOW()
	)
	ON CONFLICT (id) DO UPDATE SET
		question       = EXCLUDED.question,
		slug           = EXCLUDED.slug,
		category       = EXCLUDED.category,
		event_id       = EXCLUDED.event_id,
		event_slug     = EXCLUDED.event_slug,
		outcomes       = EXCLUDED.outcomes,
		outcome_prices = EXCLUDED.outcome_prices,
		volume         = EXCLUDED.volume,
		active         = EXCLUDED.active,
		closed         = EXCLUDED.closed,
		updated_at     = NOW()`

const marketCols = `id, question, slug, category, event_id, event_slug,
	outcomes, outcome_prices, volume, active, closed`

// UpsertBatch inserts or updates multiple markets in a single batch operation.
func (s *MarketStore) UpsertBatch(ctx context.Context, markets []domain.Market) error {
	if len(markets) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range markets {
		batch.Queue(upsertMarketSQL,
			m.ID, m.Question, m.Slug, m.Category, m.EventID, m.EventSlug,
			m.Outcomes, m.OutcomePrices, m.Volume, m.Active, m.Closed,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range markets {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert market batch item %d (%s): %w", i, markets[i].ID, err)
		}
	}
	return nil
}

// GetByID retrieves a market by its primary key.
func (s *MarketStore) GetByID(ctx context.Context, id string) (domain.Market, error) {
	var m domain.Market
	err := s.pool.QueryRow(ctx, `SELECT `+marketCols+` FROM markets WHERE id = $1`, id).Scan(
		&m.ID, &m.Question, &m.Slug, &m.Category, &m.EventID, &m.EventSlug,
		&m.Outcomes, &m.OutcomePrices, &m.Volume, &m.Active, &m.Closed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: get market %s: %w", id, err)
	}
	return m, nil
}

// Count returns the total number of markets in the database.
func (s *MarketStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM markets").Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count markets: %w", err)
	}
	return count, nil
}

// Compile-time interface check.
var _ domain.MarketStore = (*MarketStore)(nil)
