package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"BrokerSync/internal/domain/models"
	"BrokerSync/internal/domain/repository"
)

// ClickHouseAccountStore provides read-only account access. Account lifecycle
// is owned by the broader application; the sync engine never writes here.
type ClickHouseAccountStore struct {
	db    *sql.DB
	table string
}

func NewClickHouseAccountStore(db *sql.DB, table string) *ClickHouseAccountStore {
	return &ClickHouseAccountStore{db: db, table: table}
}

func (s *ClickHouseAccountStore) Get(ctx context.Context, id string) (*models.Account, error) {
	q := fmt.Sprintf("SELECT id, name, currency, platform_id FROM %s WHERE id = ? LIMIT 1", s.table)

	var a models.Account
	err := s.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.Name, &a.Currency, &a.PlatformID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s not found", repository.ErrReadFailed, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get account: %v", repository.ErrReadFailed, err)
	}
	return &a, nil
}

func (s *ClickHouseAccountStore) ListLinked(ctx context.Context) ([]models.Account, error) {
	q := fmt.Sprintf("SELECT id, name, currency, platform_id FROM %s WHERE platform_id != '' ORDER BY id", s.table)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: list accounts: %v", repository.ErrReadFailed, err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Currency, &a.PlatformID); err != nil {
			return nil, fmt.Errorf("%w: scan account: %v", repository.ErrReadFailed, err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list accounts: %v", repository.ErrReadFailed, err)
	}
	return accounts, nil
}
