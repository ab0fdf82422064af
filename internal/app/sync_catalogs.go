/**
 * @description
 * Daily balance snapshots. For each tenant, aggregator-tracked accounts get
 * today's institution-reported balance, and job-tracked accounts get
 * yesterday's value carried forward. One snapshot per account per tenant-
 * local calendar date.
 *
 * Aggregator balance calls are spaced out by the rate limiter and made one
 * token at a time; the balance endpoint is the most heavily throttled one.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/goldstone/sync-service/internal/domain"
	"github.com/goldstone/sync-service/internal/metrics"
	"github.com/goldstone/sync-service/internal/store"
	"github.com/goldstone/sync-service/pkg/plaidclient"
)

// SyncAllCatalogs runs the snapshot job for every active tenant in
// parallel. A tenant's failure never disturbs its siblings; the only error
// returned is a failure to enumerate tenants at all.
func (s *Syncer) SyncAllCatalogs(ctx context.Context) error {
	s.metrics.JobRunsTotal.WithLabelValues(metrics.JobCatalogs).Inc()

	tenants, err := s.tenants.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tenants: %w", err)
	}

	var succeeded atomic.Int64
	var total int
	var wg sync.WaitGroup
	for _, tenant := range tenants {
		if tenant.State != domain.TenantActive {
			continue
		}
		total++
		wg.Add(1)
		go func(tenantID uuid.UUID) {
			defer wg.Done()
			if err := s.SyncCatalogs(ctx, tenantID); err != nil {
				s.metrics.SyncUnitsTotal.WithLabelValues(metrics.JobCatalogs, metrics.OutcomeFailed).Inc()
				s.logger.Error("catalog sync failed", "job", "catalogs", "tenant_id", tenantID, "error", err)
				return
			}
			s.metrics.SyncUnitsTotal.WithLabelValues(metrics.JobCatalogs, metrics.OutcomeOK).Inc()
			succeeded.Add(1)
		}(tenant.ID)
	}
	wg.Wait()

	s.logger.Info("catalog sync finished", "job", "catalogs", "succeeded", succeeded.Load(), "total", total)
	return nil
}

// SyncCatalogs writes today's balance snapshots for one tenant.
func (s *Syncer) SyncCatalogs(ctx context.Context, tenantID uuid.UUID) error {
	logger := s.logger.With("job", "catalogs", "tenant_id", tenantID)

	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to load tenant %s: %w", tenantID, err)
	}
	accounts, err := s.accounts.GetAll(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}

	today, err := localToday(tenant, s.now())
	if err != nil {
		return fmt.Errorf("failed to resolve tenant local date: %w", err)
	}

	var plaidTracked, jobTracked []domain.Account
	for _, account := range accounts {
		// Only active accounts with an asset classification are charted.
		if account.State != domain.AccountStateActive || account.AssetType == nil {
			continue
		}
		switch account.Tracking {
		case domain.TrackingPlaid:
			plaidTracked = append(plaidTracked, account)
		case domain.TrackingJob:
			jobTracked = append(jobTracked, account)
		}
	}

	snapshots, fetchFailures := s.fetchPlaidSnapshots(ctx, logger, tenantID, today, plaidTracked)
	carried, err := s.carryForwardSnapshots(ctx, tenantID, today, jobTracked)
	if err != nil {
		return err
	}
	snapshots = append(snapshots, carried...)

	succeeded := 0
	for i := range snapshots {
		if _, err := s.catalogs.Upsert(ctx, &snapshots[i]); err != nil {
			s.metrics.SyncWritesTotal.WithLabelValues(metrics.JobCatalogs, metrics.OutcomeFailed).Inc()
			logger.Error("failed to write snapshot", "snapshot_id", snapshots[i].ID.String(), "error", err)
			continue
		}
		s.metrics.SyncWritesTotal.WithLabelValues(metrics.JobCatalogs, metrics.OutcomeOK).Inc()
		succeeded++
	}

	logger.Info("tenant snapshots written", "date", today.String(), "written", succeeded, "total", len(snapshots))
	if fetchFailures > 0 || succeeded < len(snapshots) {
		return fmt.Errorf("wrote %d of %d snapshots with %d fetch failures", succeeded, len(snapshots), fetchFailures)
	}
	return nil
}

// fetchPlaidSnapshots pulls today's balances for aggregator-tracked
// accounts, one access token at a time. A token's failure is isolated;
// the other tokens still produce snapshots.
func (s *Syncer) fetchPlaidSnapshots(
	ctx context.Context,
	logger *slog.Logger,
	tenantID uuid.UUID,
	today domain.Date,
	accounts []domain.Account,
) (snapshots []domain.AccountCatalog, failures int) {
	byToken := make(map[string][]domain.Account)
	tokens := make([]string, 0)
	for _, account := range accounts {
		if account.AccessToken == "" {
			continue
		}
		if _, seen := byToken[account.AccessToken]; !seen {
			tokens = append(tokens, account.AccessToken)
		}
		byToken[account.AccessToken] = append(byToken[account.AccessToken], account)
	}

	for _, token := range tokens {
		if err := s.limiter.Wait(ctx); err != nil {
			logger.Error("rate limiter interrupted", "error", err)
			failures++
			continue
		}

		resp, err := s.aggregator.GetBalances(ctx, token)
		if err != nil {
			if pe, ok := plaidclient.AsError(err); ok && pe.IsInstitutionOutage() {
				logger.Warn("institution outage during balance fetch", "error_code", pe.ErrorCode)
			} else {
				logger.Error("failed to fetch balances", "error", err)
			}
			failures++
			continue
		}

		accountByAlias := make(map[string]domain.Account, len(byToken[token]))
		for _, account := range byToken[token] {
			if account.AliasID != "" {
				accountByAlias[account.AliasID] = account
			}
		}

		for _, remote := range resp.Accounts {
			account, mapped := accountByAlias[remote.AccountID]
			if !mapped {
				continue
			}
			// Available nets out pending holds; fall back to the ledger
			// balance for institutions that do not report it.
			value := remote.Balances.Current
			if remote.Balances.Available != nil {
				value = *remote.Balances.Available
			}
			snapshots = append(snapshots, domain.AccountCatalog{
				ID:       domain.NewAccountDate(account.ID, today),
				TenantID: tenantID,
				Value:    value,
			})
		}
	}
	return snapshots, failures
}

// carryForwardSnapshots fills today's snapshot for job-tracked accounts
// from yesterday's value. An account with today already written is left
// alone, and one with no history yet produces nothing.
func (s *Syncer) carryForwardSnapshots(
	ctx context.Context,
	tenantID uuid.UUID,
	today domain.Date,
	accounts []domain.Account,
) ([]domain.AccountCatalog, error) {
	yesterday := today.AddDays(-1)

	var snapshots []domain.AccountCatalog
	for _, account := range accounts {
		_, err := s.catalogs.Get(ctx, tenantID, domain.NewAccountDate(account.ID, today))
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to check snapshot for account %s: %w", account.ID, err)
		}

		previous, err := s.catalogs.Get(ctx, tenantID, domain.NewAccountDate(account.ID, yesterday))
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read previous snapshot for account %s: %w", account.ID, err)
		}

		snapshots = append(snapshots, domain.AccountCatalog{
			ID:       domain.NewAccountDate(account.ID, today),
			TenantID: tenantID,
			Value:    previous.Value,
		})
	}
	return snapshots, nil
}
