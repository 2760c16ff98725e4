package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"BrokerSync/internal/domain/models"
	"BrokerSync/internal/domain/repository"
)

// ClickHouseActivityStore implements ActivityStore on ClickHouse. All writes
// are funneled through one writer goroutine so concurrent account syncs
// cannot interleave at the storage layer; reads go straight to the pool.
type ClickHouseActivityStore struct {
	db    *sql.DB
	table string

	writeCh   chan writeReq
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type writeReq struct {
	ctx   context.Context
	batch []models.Activity
	resp  chan writeResp
}

type writeResp struct {
	inserted int64
	err      error
}

// NewClickHouseActivityStore creates the store and starts its writer.
func NewClickHouseActivityStore(db *sql.DB, table string) *ClickHouseActivityStore {
	s := &ClickHouseActivityStore{
		db:      db,
		table:   table,
		writeCh: make(chan writeReq),
		stopCh:  make(chan struct{}),
	}
	s.wg.Add(1)
	go s.writerLoop()
	return s
}

// MaxActivityDate returns the sync watermark for an account, nil when the
// account has no persisted activities. Recomputed from committed rows on
// every call, never cached.
func (s *ClickHouseActivityStore) MaxActivityDate(ctx context.Context, accountID string) (*time.Time, error) {
	q := fmt.Sprintf("SELECT activity_date FROM %s WHERE account_id = ? ORDER BY activity_date DESC LIMIT 1", s.table)

	var ts time.Time
	err := s.db.QueryRowContext(ctx, q, accountID).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: max activity date: %v", repository.ErrReadFailed, err)
	}
	ts = ts.UTC()
	return &ts, nil
}

// InsertActivities hands the batch to the serialized writer and waits for the
// outcome. The batch is written in a single statement (all or nothing);
// records whose dedup key already exists are dropped silently.
func (s *ClickHouseActivityStore) InsertActivities(ctx context.Context, batch []models.Activity) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	req := writeReq{ctx: ctx, batch: batch, resp: make(chan writeResp, 1)}
	select {
	case s.writeCh <- req:
	case <-s.stopCh:
		return 0, fmt.Errorf("%w: store closed", repository.ErrWriteFailed)
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: %v", repository.ErrWriteFailed, ctx.Err())
	}

	select {
	case r := <-req.resp:
		return r.inserted, r.err
	case <-s.stopCh:
		return 0, fmt.Errorf("%w: store closed", repository.ErrWriteFailed)
	}
}

func (s *ClickHouseActivityStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close stops the writer. In-flight writes run to completion.
func (s *ClickHouseActivityStore) Close() error {
	s.closeOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	return nil
}

func (s *ClickHouseActivityStore) writerLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stopCh:
			return
		case req := <-s.writeCh:
			inserted, err := s.write(req.ctx, req.batch)
			req.resp <- writeResp{inserted: inserted, err: err}
		}
	}
}

// write runs on the writer goroutine only. It reads the existing key set for
// the batch window, filters already-present records and inserts the rest in
// one statement. Correct without storage-level constraints because no other
// writer exists.
func (s *ClickHouseActivityStore) write(ctx context.Context, batch []models.Activity) (int64, error) {
	if ctx.Err() != nil {
		return 0, fmt.Errorf("%w: %v", repository.ErrWriteFailed, ctx.Err())
	}

	existing, err := s.existingKeys(ctx, batch)
	if err != nil {
		return 0, err
	}

	values := make([]string, 0, len(batch))
	args := make([]interface{}, 0, len(batch)*12)
	seen := make(map[string]struct{}, len(batch))
	for i := range batch {
		a := batch[i]
		key := a.DedupKey()
		if _, ok := existing[key]; ok {
			continue
		}
		// also collapse duplicates inside one batch
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			a.ID,
			a.AccountID,
			a.AssetID,
			a.ActivityType,
			a.ActivityDate.UTC(),
			decArg(a.Quantity),
			decArg(a.UnitPrice),
			a.Currency,
			decArg(a.Fee),
			decArg(a.Amount),
			boolToUInt8(a.IsDraft),
			a.Comment,
		)
	}
	if len(values) == 0 {
		return 0, nil
	}

	q := fmt.Sprintf("INSERT INTO %s (id, account_id, asset_id, activity_type, activity_date, quantity, unit_price, currency, fee, amount, is_draft, comment) VALUES %s",
		s.table, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return 0, fmt.Errorf("%w: insert activities: %v", repository.ErrWriteFailed, err)
	}
	return int64(len(values)), nil
}

// existingKeys loads the dedup keys already persisted for the accounts and
// date window the batch touches.
func (s *ClickHouseActivityStore) existingKeys(ctx context.Context, batch []models.Activity) (map[string]struct{}, error) {
	accounts := make(map[string]struct{})
	var minDate time.Time
	for i := range batch {
		accounts[batch[i].AccountID] = struct{}{}
		d := batch[i].ActivityDate.UTC()
		if minDate.IsZero() || d.Before(minDate) {
			minDate = d
		}
	}

	ids := make([]string, 0, len(accounts))
	ph := make([]string, 0, len(accounts))
	for id := range accounts {
		ids = append(ids, id)
		ph = append(ph, "?")
	}

	q := fmt.Sprintf("SELECT account_id, asset_id, activity_date, activity_type, ifNull(toString(amount), '') FROM %s WHERE account_id IN (%s) AND activity_date >= ?",
		s.table, strings.Join(ph, ","))
	args := make([]interface{}, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, minDate)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: read existing keys: %v", repository.ErrReadFailed, err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var accountID, assetID, activityType, amountStr string
		var date time.Time
		if err := rows.Scan(&accountID, &assetID, &date, &activityType, &amountStr); err != nil {
			return nil, fmt.Errorf("%w: scan existing keys: %v", repository.ErrReadFailed, err)
		}
		a := models.Activity{
			AccountID:    accountID,
			AssetID:      assetID,
			ActivityDate: date,
			ActivityType: activityType,
			Amount:       parseStoredAmount(amountStr),
		}
		keys[a.DedupKey()] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read existing keys: %v", repository.ErrReadFailed, err)
	}
	return keys, nil
}

// parseStoredAmount canonicalizes the decimal the database rendered (trailing
// zeros and all) so it compares equal to the in-memory representation.
func parseStoredAmount(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

func decArg(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return *d
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
