package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

// ScanStore implements domain.ScanStore using PostgreSQL. Each scan is one
// row in scans; its ranked opportunities live in opportunities with the full
// sized opportunity kept as JSONB.
type ScanStore struct {
	pool *pgxpool.Pool
}

// NewScanStore creates a new ScanStore backed by the given connection pool.
func NewScanStore(pool *pgxpool.Pool) *ScanStore {
	return &ScanStore{pool: pool}
}

const scanCols = `id, categories, min_edge, stake, market_count, event_count,
	started_at, finished_at`

// Insert stores a scan and its opportunities in one transaction.
func (s *ScanStore) Insert(ctx context.Context, scan domain.Scan) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin scan %s: %w", scan.ID, err)
	}
	defer tx.Rollback(ctx)

	const insertScan = `
		INSERT INTO scans (
			id, categories, min_edge, stake, market_count, event_count,
			opportunity_count, best_edge, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	if _, err := tx.Exec(ctx, insertScan,
		scan.ID, scan.Categories, scan.MinEdge, scan.Stake, scan.MarketCount, scan.EventCount,
		len(scan.Opportunities), scan.BestEdge(), scan.StartedAt, scan.FinishedAt,
	); err != nil {
		return fmt.Errorf("postgres: insert scan %s: %w", scan.ID, err)
	}

	if len(scan.Opportunities) > 0 {
		const insertOpp = `
			INSERT INTO opportunities (scan_id, rank, event_key, total_cost, edge, payload)
			VALUES ($1, $2, $3, $4, $5, $6)`

		batch := &pgx.Batch{}
		for i, so := range scan.Opportunities {
			payload, err := json.Marshal(so)
			if err != nil {
				return fmt.Errorf("postgres: marshal opportunity %s: %w", so.Opportunity.EventKey, err)
			}
			batch.Queue(insertOpp,
				scan.ID, i, so.Opportunity.EventKey, so.Opportunity.TotalCost, so.Opportunity.Edge(), payload,
			)
		}
		br := tx.SendBatch(ctx, batch)
		for i := range scan.Opportunities {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("postgres: insert opportunity %d of scan %s: %w", i, scan.ID, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("postgres: insert opportunities of scan %s: %w", scan.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit scan %s: %w", scan.ID, err)
	}
	return nil
}

// GetByID retrieves a scan together with its ranked opportunities.
func (s *ScanStore) GetByID(ctx context.Context, id string) (domain.Scan, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+scanCols+` FROM scans WHERE id = $1`, id)
	scan, err := scanRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Scan{}, domain.ErrNotFound
		}
		return domain.Scan{}, fmt.Errorf("postgres: get scan %s: %w", id, err)
	}

	opps, err := s.opportunities(ctx, []string{id})
	if err != nil {
		return domain.Scan{}, err
	}
	scan.Opportunities = opps[id]
	return scan, nil
}

// ListRecent returns scans newest first, each with its opportunities.
func (s *ScanStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.Scan, error) {
	query, args := listRecentQuery(opts)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list scans: %w", err)
	}
	defer rows.Close()

	var scans []domain.Scan
	for rows.Next() {
		scan, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		scans = append(scans, scan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list scans rows: %w", err)
	}
	if len(scans) == 0 {
		return scans, nil
	}

	ids := make([]string, len(scans))
	for i, sc := range scans {
		ids[i] = sc.ID
	}
	opps, err := s.opportunities(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range scans {
		scans[i].Opportunities = opps[scans[i].ID]
	}
	return scans, nil
}

// listRecentQuery builds the paginated scans query for opts.
func listRecentQuery(opts domain.ListOpts) (string, []any) {
	query := `SELECT ` + scanCols + ` FROM scans`
	args := []any{}
	argIdx := 1

	if opts.Since != nil {
		query += fmt.Sprintf(" WHERE finished_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}

	query += " ORDER BY finished_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}
	return query, args
}

// opportunities loads the ranked opportunities of every scan in ids.
func (s *ScanStore) opportunities(ctx context.Context, ids []string) (map[string][]domain.SizedOpportunity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT scan_id, payload FROM opportunities WHERE scan_id = ANY($1) ORDER BY scan_id, rank`, ids)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunities: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.SizedOpportunity, len(ids))
	for rows.Next() {
		var (
			scanID  string
			payload []byte
		)
		if err := rows.Scan(&scanID, &payload); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		var so domain.SizedOpportunity
		if err := json.Unmarshal(payload, &so); err != nil {
			return nil, fmt.Errorf("postgres: decode opportunity of scan %s: %w", scanID, err)
		}
		out[scanID] = append(out[scanID], so)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list opportunities rows: %w", err)
	}
	return out, nil
}

func scanRow(row pgx.Row) (domain.Scan, error) {
	var sc domain.Scan
	err := row.Scan(
		&sc.ID, &sc.Categories, &sc.MinEdge, &sc.Stake, &sc.MarketCount, &sc.EventCount,
		&sc.StartedAt, &sc.FinishedAt,
	)
	return sc, err
}

// Compile-time interface check.
var _ domain.ScanStore = (*ScanStore)(nil)
