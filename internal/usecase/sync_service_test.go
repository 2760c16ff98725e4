package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"BrokerSync/internal/broker"
	"BrokerSync/internal/domain/models"
	drepo "BrokerSync/internal/domain/repository"
	applogger "BrokerSync/pkg/logger"
)

func dptr(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return &d
}

type fakeAccounts struct {
	accounts map[string]models.Account
}

func (f *fakeAccounts) Get(_ context.Context, id string) (*models.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, errors.New("account not found")
	}
	return &a, nil
}

func (f *fakeAccounts) ListLinked(_ context.Context) ([]models.Account, error) {
	var out []models.Account
	for _, a := range f.accounts {
		if a.Linked() {
			out = append(out, a)
		}
	}
	return out, nil
}

type memStore struct {
	mu         sync.Mutex
	keys       map[string]bool
	activities []models.Activity
	insertErr  error
}

func newMemStore() *memStore {
	return &memStore{keys: make(map[string]bool)}
}

func (m *memStore) MaxActivityDate(_ context.Context, accountID string) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var max *time.Time
	for _, a := range m.activities {
		if a.AccountID != accountID {
			continue
		}
		d := a.ActivityDate
		if max == nil || d.After(*max) {
			max = &d
		}
	}
	return max, nil
}

func (m *memStore) InsertActivities(_ context.Context, batch []models.Activity) (int64, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var inserted int64
	for _, a := range batch {
		key := a.DedupKey()
		if m.keys[key] {
			continue
		}
		m.keys[key] = true
		m.activities = append(m.activities, a)
		inserted++
	}
	return inserted, nil
}

func (m *memStore) Health(_ context.Context) error { return nil }
func (m *memStore) Close() error                   { return nil }

func (m *memStore) count(accountID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.activities {
		if a.AccountID == accountID {
			n++
		}
	}
	return n
}

type fakeAssets struct {
	assets map[string]string
}

func (f *fakeAssets) Resolve(_ context.Context, symbol, currency string) (string, error) {
	id, ok := f.assets[symbol+"|"+currency]
	if !ok {
		return "", drepo.ErrAssetNotFound
	}
	return id, nil
}

type fakePlatforms struct {
	settings []models.BrokerPlatformSetting
}

func (f *fakePlatforms) List(_ context.Context) ([]models.BrokerPlatformSetting, error) {
	return f.settings, nil
}

func (f *fakePlatforms) SetEnabled(_ context.Context, _ string, _ bool) (*models.BrokerPlatformSetting, error) {
	return nil, errors.New("not implemented")
}

func (f *fakePlatforms) HasSecrets(_ context.Context, _ string) (bool, error) { return true, nil }

func (f *fakePlatforms) SetSecrets(_ context.Context, _, _ string) error { return nil }

func (f *fakePlatforms) IsEnabled(_ context.Context, platformID string) (bool, error) {
	for _, s := range f.settings {
		if s.ID == platformID {
			return s.Enabled, nil
		}
	}
	return false, nil
}

type fakeSecrets struct {
	values map[string]string
	err    error
}

func (f *fakeSecrets) GetSecret(_ context.Context, key string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeSecrets) SetSecret(_ context.Context, key, value string) error {
	f.values[key] = value
	return nil
}

type fakeProvider struct {
	mu         sync.Mutex
	activities []models.ExternalActivity
	err        error
	calls      int
	sinceSeen  []*time.Time
}

func (p *fakeProvider) FetchActivities(_ context.Context, since *time.Time) ([]models.ExternalActivity, error) {
	p.mu.Lock()
	p.calls++
	p.sinceSeen = append(p.sinceSeen, since)
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	if since == nil {
		return p.activities, nil
	}
	var out []models.ExternalActivity
	for _, a := range p.activities {
		if a.Date.After(*since) {
			out = append(out, a)
		}
	}
	return out, nil
}

type capturePublisher struct {
	mu      sync.Mutex
	results []*models.SyncResult
}

func (c *capturePublisher) PublishResult(_ context.Context, res *models.SyncResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, res)
	return nil
}

func (c *capturePublisher) Close() error { return nil }

type noopMetrics struct{}

func (noopMetrics) RecordActivities(string, int64, int64) {}
func (noopMetrics) RecordError(string)                    {}
func (noopMetrics) RecordLatency(string, float64)         {}
func (noopMetrics) RecordLastSync(string, time.Time)      {}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

type fixture struct {
	svc       *SyncService
	store     *memStore
	provider  *fakeProvider
	providers map[string]*fakeProvider
	publisher *capturePublisher
	secrets   *fakeSecrets
}

func newFixture(t *testing.T, accounts map[string]models.Account) *fixture {
	t.Helper()

	provider := &fakeProvider{}
	providers := map[string]*fakeProvider{"testbroker": provider}

	secrets := &fakeSecrets{values: map[string]string{
		broker.SecretKey("testbroker"): `{"token":"tk"}`,
	}}

	registry := broker.NewRegistry()
	for id, p := range providers {
		pp := p
		registry.Register(id, func(_ models.Platform, _ broker.Credentials) (drepo.BrokerProvider, error) {
			return pp, nil
		})
	}

	resolver := broker.NewCredentialResolver(secrets, 0)
	factory := broker.NewFactory(registry, resolver, []models.Platform{
		{ID: "testbroker", Name: "Test Broker", URL: "https://broker.test"},
	})

	store := newMemStore()
	publisher := &capturePublisher{}
	assets := &fakeAssets{assets: map[string]string{
		"AAPL|USD": "asset-aapl",
		"MSFT|USD": "asset-msft",
		"GOOG|USD": "asset-goog",
		"NVDA|USD": "asset-nvda",
	}}
	platforms := &fakePlatforms{settings: []models.BrokerPlatformSetting{
		{ID: "testbroker", Name: "Test Broker", Enabled: true, HasSecrets: true},
	}}

	svc := NewSyncService(
		&fakeAccounts{accounts: accounts},
		store, assets, platforms, factory, publisher,
		noopMetrics{}, testLogger(t), 2, time.Second,
	)

	return &fixture{
		svc:       svc,
		store:     store,
		provider:  provider,
		providers: providers,
		publisher: publisher,
		secrets:   secrets,
	}
}

func extActivity(symbol string, day int, amount string) models.ExternalActivity {
	return models.ExternalActivity{
		Symbol:       symbol,
		ActivityType: "BUY",
		Date:         time.Date(2025, 3, day, 10, 0, 0, 0, time.UTC),
		Quantity:     dptr("10"),
		UnitPrice:    dptr("100"),
		Currency:     "USD",
		Amount:       dptr(amount),
	}
}

func TestSyncAccountInsertsFetchedActivities(t *testing.T) {
	f := newFixture(t, map[string]models.Account{
		"acc-1": {ID: "acc-1", Name: "Main", Currency: "USD", PlatformID: "testbroker"},
	})
	f.provider.activities = []models.ExternalActivity{
		extActivity("AAPL", 1, "1000"),
		extActivity("MSFT", 2, "2000"),
	}

	res, err := f.svc.SyncAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if res.Inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", res.Inserted)
	}
	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if f.store.count("acc-1") != 2 {
		t.Fatalf("expected 2 stored, got %d", f.store.count("acc-1"))
	}
	if len(f.publisher.results) != 1 {
		t.Fatalf("expected 1 published result, got %d", len(f.publisher.results))
	}
}

func TestSyncAccountFirstSyncFetchesFullHistory(t *testing.T) {
	f := newFixture(t, map[string]models.Account{
		"acc-1": {ID: "acc-1", PlatformID: "testbroker"},
	})
	f.provider.activities = []models.ExternalActivity{extActivity("AAPL", 1, "1000")}

	if _, err := f.svc.SyncAccount(context.Background(), "acc-1"); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if len(f.provider.sinceSeen) != 1 {
		t.Fatalf("expected 1 fetch, got %d", len(f.provider.sinceSeen))
	}
	if f.provider.sinceSeen[0] != nil {
		t.Fatalf("expected nil since on first sync, got %v", f.provider.sinceSeen[0])
	}
}

func TestSyncAccountPassesWatermarkAsSince(t *testing.T) {
	f := newFixture(t, map[string]models.Account{
		"acc-1": {ID: "acc-1", PlatformID: "testbroker"},
	})
	f.provider.activities = []models.ExternalActivity{
		extActivity("AAPL", 1, "1000"),
		extActivity("MSFT", 5, "2000"),
	}

	if _, err := f.svc.SyncAccount(context.Background(), "acc-1"); err != nil {
		t.Fatalf("first sync failed: %v", err)
	}
	if _, err := f.svc.SyncAccount(context.Background(), "acc-1"); err != nil {
		t.Fatalf("second sync failed: %v", err)
	}

	if len(f.provider.sinceSeen) != 2 {
		t.Fatalf("expected 2 fetches, got %d", len(f.provider.sinceSeen))
	}
	got := f.provider.sinceSeen[1]
	if got == nil {
		t.Fatalf("expected watermark on second sync")
	}
	want := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected watermark %v, got %v", want, got)
	}
}

func TestSyncAccountIdempotent(t *testing.T) {
	f := newFixture(t, map[string]models.Account{
		"acc-1": {ID: "acc-1", PlatformID: "testbroker"},
	})
	f.provider.activities = []models.ExternalActivity{
		extActivity("AAPL", 1, "1000"),
		extActivity("MSFT", 2, "2000"),
	}

	first, err := f.svc.SyncAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("first sync failed: %v", err)
	}
	second, err := f.svc.SyncAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}

	if first.Inserted != 2 {
		t.Fatalf("expected 2 inserted on first sync, got %d", first.Inserted)
	}
	if second.Inserted != 0 {
		t.Fatalf("expected 0 inserted on second sync, got %d", second.Inserted)
	}
	if f.store.count("acc-1") != 2 {
		t.Fatalf("expected 2 stored after replay, got %d", f.store.count("acc-1"))
	}
}

func TestSyncAccountOverlappingFetchInsertsOnlyNew(t *testing.T) {
	f := newFixture(t, map[string]models.Account{
		"acc-1": {ID: "acc-1", PlatformID: "testbroker"},
	})
	f.provider.activities = []models.ExternalActivity{
		extActivity("AAPL", 1, "1000"),
		extActivity("MSFT", 2, "2000"),
		extActivity("GOOG", 3, "3000"),
	}

	if _, err := f.svc.SyncAccount(context.Background(), "acc-1"); err != nil {
		t.Fatalf("first sync failed: %v", err)
	}

	// Provider re-reports the same records plus a fresh one. Same-day records
	// at the watermark get re-fetched and must dedup away.
	f.provider.activities = append(f.provider.activities, extActivity("NVDA", 4, "4000"))

	res, err := f.svc.SyncAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if res.Inserted != 1 {
		t.Fatalf("expected 1 inserted on overlap, got %d", res.Inserted)
	}
	if f.store.count("acc-1") != 4 {
		t.Fatalf("expected 4 stored, got %d", f.store.count("acc-1"))
	}
}

func TestSyncAccountMissingCredentials(t *testing.T) {
	f := newFixture(t, map[string]models.Account{
		"acc-1": {ID: "acc-1", PlatformID: "testbroker"},
	})
	f.provider.activities = []models.ExternalActivity{extActivity("AAPL", 1, "1000")}
	delete(f.secrets.values, broker.SecretKey("testbroker"))

	res, err := f.svc.SyncAccount(context.Background(), "acc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, broker.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if f.provider.calls != 0 {
		t.Fatalf("provider must not be called without credentials")
	}
	if f.store.count("acc-1") != 0 {
		t.Fatalf("nothing should be written without credentials")
	}
	if !res.Failed() {
		t.Fatalf("expected failed result")
	}
}

func TestSyncAccountUnlinked(t *testing.T) {
	f := newFixture(t, map[string]models.Account{
		"acc-1": {ID: "acc-1"},
	})

	_, err := f.svc.SyncAccount(context.Background(), "acc-1")
	if !errors.Is(err, broker.ErrNoLinkedPlatform) {
		t.Fatalf("expected ErrNoLinkedPlatform, got %v", err)
	}
}

func TestSyncAccountSkipsUnknownAssets(t *testing.T) {
	f := newFixture(t, map[string]models.Account{
		"acc-1": {ID: "acc-1", PlatformID: "testbroker"},
	})
	f.provider.activities = []models.ExternalActivity{
		extActivity("AAPL", 1, "1000"),
		extActivity("UNKNOWN", 2, "2000"),
	}

	res, err := f.svc.SyncAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if res.Inserted != 1 {
		t.Fatalf("expected 1 inserted, got %d", res.Inserted)
	}
	if res.Skipped != 1 {
		t.Fatalf("expected 1 skipped, got %d", res.Skipped)
	}
}

func TestSyncAccountProviderFailureWritesNothing(t *testing.T) {
	f := newFixture(t, map[string]models.Account{
		"acc-1": {ID: "acc-1", PlatformID: "testbroker"},
	})
	f.provider.err = broker.NewProviderError(broker.ProviderAuthFailed, "testbroker", errors.New("401"))

	res, err := f.svc.SyncAccount(context.Background(), "acc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !broker.IsAuthFailed(err) {
		t.Fatalf("expected auth failure, got %v", err)
	}
	if f.store.count("acc-1") != 0 {
		t.Fatalf("nothing should be written on provider failure")
	}
	if !res.Failed() {
		t.Fatalf("expected failed result")
	}
}

func TestSyncAllAccountsFailureIsolation(t *testing.T) {
	accounts := map[string]models.Account{
		"acc-1": {ID: "acc-1", PlatformID: "testbroker"},
		"acc-2": {ID: "acc-2", PlatformID: "missing"},
		"acc-3": {ID: "acc-3", PlatformID: "testbroker"},
	}
	f := newFixture(t, accounts)
	f.provider.activities = []models.ExternalActivity{extActivity("AAPL", 1, "1000")}

	// The second account's platform is enabled but has no registered provider.
	fp := f.svc.platforms.(*fakePlatforms)
	fp.settings = append(fp.settings, models.BrokerPlatformSetting{ID: "missing", Enabled: true})

	summary, err := f.svc.SyncAllAccounts(context.Background())
	if err != nil {
		t.Fatalf("sync all failed: %v", err)
	}
	if summary.AccountsAttempted != 3 {
		t.Fatalf("expected 3 attempted, got %d", summary.AccountsAttempted)
	}
	if len(summary.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(summary.Failures))
	}
	if summary.Failures[0].AccountID != "acc-2" {
		t.Fatalf("expected acc-2 to fail, got %s", summary.Failures[0].AccountID)
	}
	if f.store.count("acc-1") != 1 || f.store.count("acc-3") != 1 {
		t.Fatalf("healthy accounts must still sync")
	}
}

func TestSyncAllAccountsSkipsDisabledPlatforms(t *testing.T) {
	f := newFixture(t, map[string]models.Account{
		"acc-1": {ID: "acc-1", PlatformID: "testbroker"},
	})
	f.provider.activities = []models.ExternalActivity{extActivity("AAPL", 1, "1000")}
	f.svc.platforms.(*fakePlatforms).settings[0].Enabled = false

	summary, err := f.svc.SyncAllAccounts(context.Background())
	if err != nil {
		t.Fatalf("sync all failed: %v", err)
	}
	if summary.AccountsAttempted != 0 {
		t.Fatalf("expected 0 attempted, got %d", summary.AccountsAttempted)
	}
	if f.provider.calls != 0 {
		t.Fatalf("disabled platform must not be fetched")
	}
}

func TestSyncAccountErrorNeverExposesSecrets(t *testing.T) {
	f := newFixture(t, map[string]models.Account{
		"acc-1": {ID: "acc-1", PlatformID: "testbroker"},
	})
	f.secrets.values[broker.SecretKey("testbroker")] = `{"token":"super-secret-token"`

	res, err := f.svc.SyncAccount(context.Background(), "acc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, broker.ErrMalformedCredentials) {
		t.Fatalf("expected ErrMalformedCredentials, got %v", err)
	}
	for _, s := range []string{err.Error(), res.Error} {
		if strings.Contains(s, "super-secret-token") {
			t.Fatalf("error text leaks credential material: %s", s)
		}
	}
}
