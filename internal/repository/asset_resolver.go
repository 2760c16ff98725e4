package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"BrokerSync/internal/domain/repository"
	"BrokerSync/internal/service/cache"
)

const assetCacheTTL = 10 * time.Minute

// ClickHouseAssetResolver maps (symbol, currency) to local asset ids from the
// assets table. Hits are cached in-process; one sync pass resolves the same
// symbols over and over.
type ClickHouseAssetResolver struct {
	db    *sql.DB
	table string
	cache *cache.TTLCache
}

func NewClickHouseAssetResolver(db *sql.DB, table string) *ClickHouseAssetResolver {
	return &ClickHouseAssetResolver{db: db, table: table, cache: cache.NewTTLCache()}
}

func (r *ClickHouseAssetResolver) Resolve(ctx context.Context, symbol, currency string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if symbol == "" {
		return "", repository.ErrAssetNotFound
	}

	key := symbol + "|" + currency
	if v, ok := r.cache.Get(key); ok {
		if id, ok2 := v.(string); ok2 {
			return id, nil
		}
	}

	q := fmt.Sprintf("SELECT asset_id FROM %s WHERE symbol = ? AND currency = ? LIMIT 1", r.table)
	var id string
	err := r.db.QueryRowContext(ctx, q, symbol, currency).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s/%s", repository.ErrAssetNotFound, symbol, currency)
	}
	if err != nil {
		return "", fmt.Errorf("%w: resolve asset: %v", repository.ErrReadFailed, err)
	}

	r.cache.Set(key, id, assetCacheTTL)
	return id, nil
}
