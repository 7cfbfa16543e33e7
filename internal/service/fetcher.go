package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

// DefaultPageSize is the number of markets requested per page.
const DefaultPageSize = 200

// FetchRequest selects the markets a scan runs over.
type FetchRequest struct {
	// Categories to fetch; an empty string entry means every category.
	Categories []string
	// MaxMarkets caps the markets fetched per category.
	MaxMarkets int
	// MinVolume drops markets with a lower traded volume.
	MinVolume float64
}

// MarketFetcher pages through a MarketSource, merges multi-category results
// and optionally caches the merged snapshot.
type MarketFetcher struct {
	source   domain.MarketSource
	cache    domain.MarketCache
	pageSize int
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewMarketFetcher creates a MarketFetcher. cache may be nil; a non-positive
// pageSize falls back to DefaultPageSize.
func NewMarketFetcher(source domain.MarketSource, cache domain.MarketCache, pageSize int, cacheTTL time.Duration, logger *slog.Logger) *MarketFetcher {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &MarketFetcher{
		source:   source,
		cache:    cache,
		pageSize: pageSize,
		cacheTTL: cacheTTL,
		logger:   logger.With(slog.String("component", "market_fetcher")),
	}
}

// Fetch returns the markets for req. Categories are fetched concurrently and
// merged in request order; a market listed under several categories is kept
// once, at its first position.
func (f *MarketFetcher) Fetch(ctx context.Context, req FetchRequest) ([]domain.Market, error) {
	cats := req.Categories
	if len(cats) == 0 {
		cats = []string{""}
	}
	key := snapshotKey(cats, req.MaxMarkets, req.MinVolume)

	if f.cache != nil && f.cacheTTL > 0 {
		cached, err := f.cache.GetSnapshot(ctx, key)
		switch {
		case err == nil:
			f.logger.DebugContext(ctx, "market snapshot cache hit",
				slog.String("key", key),
				slog.Int("markets", len(cached)),
			)
			return cached, nil
		case !errors.Is(err, domain.ErrNotFound):
			f.logger.WarnContext(ctx, "market snapshot cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	pages := make([][]domain.Market, len(cats))
	g, gctx := errgroup.WithContext(ctx)
	for i, cat := range cats {
		g.Go(func() error {
			markets, err := f.paginate(gctx, cat, req.MaxMarkets)
			if err != nil {
				return err
			}
			pages[i] = markets
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := mergeMarkets(pages, req.MinVolume)

	if f.cache != nil && f.cacheTTL > 0 {
		if err := f.cache.SetSnapshot(ctx, key, merged, f.cacheTTL); err != nil {
			f.logger.WarnContext(ctx, "market snapshot cache write failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
	return merged, nil
}

// paginate requests pages of min(pageSize, remaining) until the source
// returns an empty page or max markets have been collected.
func (f *MarketFetcher) paginate(ctx context.Context, category string, max int) ([]domain.Market, error) {
	var out []domain.Market
	offset := 0
	for len(out) < max {
		limit := min(f.pageSize, max-len(out))
		batch, err := f.source.ListMarkets(ctx, domain.MarketQuery{
			Limit:    limit,
			Offset:   offset,
			Category: category,
			Active:   true,
			Closed:   false,
		})
		if err != nil {
			return nil, fmt.Errorf("service: fetch markets %q offset %d: %w", category, offset, err)
		}
		if len(batch) == 0 {
			break
		}
		if len(batch) > max-len(out) {
			batch = batch[:max-len(out)]
		}
		out = append(out, batch...)
		offset += len(batch)
	}

	f.logger.DebugContext(ctx, "fetched markets",
		slog.String("category", category),
		slog.Int("markets", len(out)),
	)
	return out, nil
}

// mergeMarkets concatenates pages, dropping repeated ids and markets below
// minVolume.
func mergeMarkets(pages [][]domain.Market, minVolume float64) []domain.Market {
	seen := make(map[string]bool)
	var out []domain.Market
	for _, page := range pages {
		for _, m := range page {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			if minVolume > 0 && m.Volume < minVolume {
				continue
			}
			out = append(out, m)
		}
	}
	return out
}

// snapshotKey builds a stable cache key for a fetch. Category order does not
// matter.
func snapshotKey(categories []string, maxMarkets int, minVolume float64) string {
	cats := append([]string(nil), categories...)
	sort.Strings(cats)
	for i, c := range cats {
		if c == "" {
			cats[i] = "*"
		}
	}
	return strings.Join(cats, ",") + "|" + strconv.Itoa(maxMarkets) + "|" +
		strconv.FormatFloat(minVolume, 'f', -1, 64)
}
