/**
 * @description
 * Transaction reconciliation for one institution linkage. The unit of work
 * is (tenant, item): the worker fetches the aggregator's recent window and
 * the tenant's stored window concurrently, diffs them with Reconcile, and
 * writes the results with per-write failure isolation.
 *
 * Window shape: the remote window starts a few days back so recently
 * settled events are re-seen; the local window starts further back so those
 * events can still find pending rows written on earlier runs. Both end at
 * tomorrow, tenant-local, to absorb timezone skew at the aggregator.
 */

package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/goldstone/sync-service/internal/domain"
	"github.com/goldstone/sync-service/internal/metrics"
	"github.com/goldstone/sync-service/pkg/plaidclient"
)

// SyncTransactions reconciles one linkage's transactions. Errors from the
// aggregator are propagated after operator notification, except institution
// outages, which are expected transient failures and are not alerted on.
func (s *Syncer) SyncTransactions(ctx context.Context, tenantID uuid.UUID, itemID string) error {
	logger := s.logger.With("job", "transactions", "tenant_id", tenantID, "item_id", itemID)

	var (
		credential *domain.AccessCredential
		tenant     *domain.Tenant
	)
	lookups, lookupCtx := errgroup.WithContext(ctx)
	lookups.Go(func() error {
		var err error
		credential, err = s.credentials.GetByItem(lookupCtx, tenantID, itemID, domain.CredentialActive)
		if err != nil {
			return fmt.Errorf("failed to load credential for item %s: %w", itemID, err)
		}
		return nil
	})
	lookups.Go(func() error {
		var err error
		tenant, err = s.tenants.Get(lookupCtx, tenantID)
		if err != nil {
			return fmt.Errorf("failed to load tenant %s: %w", tenantID, err)
		}
		return nil
	})
	if err := lookups.Wait(); err != nil {
		return err
	}

	today, err := localToday(tenant, s.now())
	if err != nil {
		return fmt.Errorf("failed to resolve tenant local date: %w", err)
	}
	endDate := today.AddDays(1)
	remoteStart := today.AddDays(-s.config.RemoteSyncOffsetDays)
	localStart := today.AddDays(-s.config.LocalSyncOffsetDays)

	var (
		remote *plaidclient.GetTransactionsResponse
		local  []domain.Transaction
	)
	fetches, fetchCtx := errgroup.WithContext(ctx)
	fetches.Go(func() error {
		var err error
		remote, err = s.aggregator.GetTransactions(fetchCtx, credential.Token, remoteStart, endDate)
		if err != nil {
			return s.handleAggregatorError(fetchCtx, logger, tenantID, itemID, err)
		}
		return nil
	})
	fetches.Go(func() error {
		var err error
		local, err = s.transactions.GetRange(fetchCtx, tenantID, localStart, endDate)
		if err != nil {
			return fmt.Errorf("failed to load stored transactions: %w", err)
		}
		return nil
	})
	if err := fetches.Wait(); err != nil {
		return err
	}

	if len(remote.Transactions) == 0 {
		logger.Info("no remote transactions in window", "start", remoteStart.String(), "end", endDate.String())
		return nil
	}

	aliases, err := s.accountAliases(ctx, tenantID, credential.Token)
	if err != nil {
		return err
	}

	writes := Reconcile(tenantID, aliases, remote.Transactions, local, s.now())
	if len(writes) == 0 {
		logger.Info("window already reconciled", "remote", len(remote.Transactions), "local", len(local))
		return nil
	}

	succeeded := s.writeTransactions(ctx, logger, writes)
	logger.Info("transaction sync finished",
		"remote", len(remote.Transactions),
		"written", succeeded,
		"total", len(writes),
	)
	if succeeded < len(writes) {
		return fmt.Errorf("wrote %d of %d transactions", succeeded, len(writes))
	}
	return nil
}

// writeTransactions upserts every row concurrently, isolating failures so
// one rejected write never blocks its siblings. Returns the success count.
func (s *Syncer) writeTransactions(ctx context.Context, logger *slog.Logger, writes []domain.Transaction) int {
	var succeeded atomic.Int64
	var wg sync.WaitGroup
	for i := range writes {
		wg.Add(1)
		go func(tx domain.Transaction) {
			defer wg.Done()
			if _, err := s.transactions.Upsert(ctx, &tx); err != nil {
				s.metrics.SyncWritesTotal.WithLabelValues(metrics.JobTransactions, metrics.OutcomeFailed).Inc()
				logger.Error("failed to write transaction", "transaction_id", tx.ID, "error", err)
				return
			}
			s.metrics.SyncWritesTotal.WithLabelValues(metrics.JobTransactions, metrics.OutcomeOK).Inc()
			succeeded.Add(1)
		}(writes[i])
	}
	wg.Wait()
	return int(succeeded.Load())
}

// accountAliases maps the aggregator's per-account ids to internal account
// ids for the accounts reachable through one access token.
func (s *Syncer) accountAliases(ctx context.Context, tenantID uuid.UUID, accessToken string) (map[string]uuid.UUID, error) {
	accounts, err := s.accounts.GetByToken(ctx, tenantID, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts for token: %w", err)
	}
	aliases := make(map[string]uuid.UUID, len(accounts))
	for _, account := range accounts {
		if account.AliasID != "" {
			aliases[account.AliasID] = account.ID
		}
	}
	return aliases, nil
}

// handleAggregatorError classifies an aggregator failure. Institution
// outages are logged and propagated without an alert; anything else pages
// the operator first. Notification failures never mask the original error.
func (s *Syncer) handleAggregatorError(ctx context.Context, logger *slog.Logger, tenantID uuid.UUID, itemID string, err error) error {
	if pe, ok := plaidclient.AsError(err); ok && pe.IsInstitutionOutage() {
		logger.Warn("institution outage, skipping alert", "error_code", pe.ErrorCode)
		return fmt.Errorf("aggregator unavailable for item %s: %w", itemID, err)
	}
	if notifyErr := s.notifier.NotifySyncFailure(ctx, tenantID, itemID, err); notifyErr != nil {
		logger.Error("failed to send sync failure alert", "error", notifyErr)
	}
	return fmt.Errorf("failed to fetch remote transactions for item %s: %w", itemID, err)
}
