package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"BrokerSync/internal/broker"
	"BrokerSync/internal/domain/models"
	drepo "BrokerSync/internal/domain/repository"
	applogger "BrokerSync/pkg/logger"
)

// SyncService is the broker data orchestrator. One account sync runs the
// strict sequence watermark read -> provider resolution -> fetch -> normalize
// -> persist; a full pass fans out over eligible accounts with bounded
// concurrency and isolates per-account failures.
type SyncService struct {
	accounts  drepo.AccountStore
	store     drepo.ActivityStore
	assets    drepo.AssetResolver
	platforms drepo.PlatformsService
	factory   *broker.Factory
	publisher drepo.SyncPublisher
	metrics   drepo.Metrics
	logger    *applogger.Logger

	concurrency  int
	fetchTimeout time.Duration
}

// NewSyncService creates the orchestrator. publisher may be nil when no event
// stream is configured.
func NewSyncService(
	accounts drepo.AccountStore,
	store drepo.ActivityStore,
	assets drepo.AssetResolver,
	platforms drepo.PlatformsService,
	factory *broker.Factory,
	publisher drepo.SyncPublisher,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	concurrency int,
	fetchTimeout time.Duration,
) *SyncService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SyncService{
		accounts:     accounts,
		store:        store,
		assets:       assets,
		platforms:    platforms,
		factory:      factory,
		publisher:    publisher,
		metrics:      metrics,
		logger:       logger,
		concurrency:  concurrency,
		fetchTimeout: fetchTimeout,
	}
}

// SyncAccount synchronizes one account. The returned result always carries
// the account id; on failure its Error field matches the returned error and
// no rows have been written. Safe to re-invoke: persistence is
// insert-if-absent bounded by the watermark.
func (s *SyncService) SyncAccount(ctx context.Context, accountID string) (*models.SyncResult, error) {
	start := time.Now()

	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return s.fail(ctx, accountID, "", err)
	}

	watermark, err := s.store.MaxActivityDate(ctx, accountID)
	if err != nil {
		return s.fail(ctx, accountID, account.PlatformID, err)
	}

	provider, err := s.factory.ForAccount(ctx, account)
	if err != nil {
		return s.fail(ctx, accountID, account.PlatformID, err)
	}

	fetchCtx := ctx
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}
	externals, err := provider.FetchActivities(fetchCtx, watermark)
	if err != nil {
		return s.fail(ctx, accountID, account.PlatformID, fmt.Errorf("fetch activities: %w", err))
	}

	batch, skipped, err := s.normalize(ctx, account, externals)
	if err != nil {
		return s.fail(ctx, accountID, account.PlatformID, err)
	}

	inserted, err := s.store.InsertActivities(ctx, batch)
	if err != nil {
		return s.fail(ctx, accountID, account.PlatformID, err)
	}

	res := &models.SyncResult{
		AccountID:  accountID,
		PlatformID: account.PlatformID,
		Inserted:   inserted,
		Skipped:    skipped,
		SyncedAt:   time.Now().UTC(),
	}

	s.metrics.RecordActivities(account.PlatformID, inserted, skipped)
	s.metrics.RecordLastSync(account.PlatformID, res.SyncedAt)
	s.metrics.RecordLatency("sync_account", time.Since(start).Seconds())
	s.logger.Info("account synced",
		applogger.String("account", accountID),
		applogger.String("platform", account.PlatformID),
		applogger.Int64("inserted", inserted),
		applogger.Int64("skipped", skipped),
	)

	s.publish(ctx, res)
	return res, nil
}

// normalize converts fetched records, resolving symbols to asset ids. A
// symbol with no local asset skips that one record; any other resolver
// failure aborts the account's sync.
func (s *SyncService) normalize(ctx context.Context, account *models.Account, externals []models.ExternalActivity) ([]models.Activity, int64, error) {
	batch := make([]models.Activity, 0, len(externals))
	var skipped int64

	for i := range externals {
		ext := externals[i]
		assetID, err := s.assets.Resolve(ctx, ext.Symbol, ext.Currency)
		if errors.Is(err, drepo.ErrAssetNotFound) {
			skipped++
			s.metrics.RecordError("asset_not_found")
			s.logger.Warn("skipping activity, unknown asset",
				applogger.String("account", account.ID),
				applogger.String("symbol", ext.Symbol),
				applogger.String("currency", ext.Currency),
			)
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		batch = append(batch, broker.NormalizeActivity(ext, account.ID, assetID))
	}
	return batch, skipped, nil
}

// SyncAllAccounts runs SyncAccount for every eligible account (linked to an
// enabled platform). One account's failure never stops the others; the call
// itself only errors when enumeration fails.
func (s *SyncService) SyncAllAccounts(ctx context.Context) (*models.SyncSummary, error) {
	summary := &models.SyncSummary{StartedAt: time.Now().UTC()}

	linked, err := s.accounts.ListLinked(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate accounts: %w", err)
	}

	settings, err := s.platforms.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate platforms: %w", err)
	}
	enabled := make(map[string]bool, len(settings))
	for _, p := range settings {
		enabled[p.ID] = p.Enabled
	}

	eligible := make([]models.Account, 0, len(linked))
	for _, a := range linked {
		if enabled[a.PlatformID] {
			eligible = append(eligible, a)
		}
	}

	results := make(chan *models.SyncResult, len(eligible))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for _, account := range eligible {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(a models.Account) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				results <- &models.SyncResult{AccountID: a.ID, PlatformID: a.PlatformID, Error: ctx.Err().Error()}
				return
			}
			res, _ := s.SyncAccount(ctx, a.ID)
			results <- res
		}(account)
	}
	wg.Wait()
	close(results)

	for res := range results {
		summary.AccountsAttempted++
		summary.Inserted += res.Inserted
		summary.Skipped += res.Skipped
		if res.Failed() {
			summary.Failures = append(summary.Failures, models.SyncFailure{
				AccountID: res.AccountID,
				Cause:     res.Error,
			})
		}
	}
	summary.FinishedAt = time.Now().UTC()

	s.logger.Info("sync pass finished",
		applogger.Int("accounts", summary.AccountsAttempted),
		applogger.Int64("inserted", summary.Inserted),
		applogger.Int64("skipped", summary.Skipped),
		applogger.Int("failures", len(summary.Failures)),
	)
	return summary, nil
}

// fail builds the failed result, records telemetry and publishes it. Error
// strings never contain credential material; resolver and provider errors are
// constructed without payloads.
func (s *SyncService) fail(ctx context.Context, accountID, platformID string, err error) (*models.SyncResult, error) {
	wrapped := fmt.Errorf("sync account %s: %w", accountID, err)
	res := &models.SyncResult{
		AccountID:  accountID,
		PlatformID: platformID,
		SyncedAt:   time.Now().UTC(),
		Error:      wrapped.Error(),
	}

	s.metrics.RecordError(classifyError(err))
	if broker.IsAuthFailed(err) {
		s.logger.Error("broker rejected credentials, refresh required",
			applogger.String("account", accountID),
			applogger.String("platform", platformID),
		)
	} else {
		s.logger.Error("account sync failed",
			applogger.String("account", accountID),
			applogger.String("platform", platformID),
			applogger.Error(err),
		)
	}

	s.publish(ctx, res)
	return res, wrapped
}

func (s *SyncService) publish(ctx context.Context, res *models.SyncResult) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishResult(ctx, res); err != nil {
		s.metrics.RecordError("publish_result")
		s.logger.Warn("sync result publish failed", applogger.Error(err))
	}
}

func classifyError(err error) string {
	switch {
	case errors.Is(err, broker.ErrNoLinkedPlatform),
		errors.Is(err, broker.ErrMissingCredentials),
		errors.Is(err, broker.ErrMalformedCredentials),
		errors.Is(err, broker.ErrUnsupportedPlatform),
		errors.Is(err, broker.ErrSecretStoreUnavailable):
		return "config"
	case errors.Is(err, drepo.ErrWriteFailed), errors.Is(err, drepo.ErrReadFailed):
		return "store"
	default:
		if pe, ok := broker.AsProviderError(err); ok {
			return "provider_" + string(pe.Kind)
		}
		return "sync"
	}
}
