/**
 * @description
 * Scheduled job entry points for the sync service.
 */

package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/goldstone/sync-service/internal/domain"
	"github.com/goldstone/sync-service/internal/metrics"
)

// Publisher defines the queue side the enqueue job needs.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// EnqueueTransactionSyncJobs publishes one work item per active institution
// linkage of every active tenant. Publishing failures are counted and
// skipped; the remaining linkages still get their work items.
func (s *Syncer) EnqueueTransactionSyncJobs(ctx context.Context, publisher Publisher) error {
	s.metrics.JobRunsTotal.WithLabelValues(metrics.JobEnqueue).Inc()

	tenants, err := s.tenants.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tenants: %w", err)
	}

	var succeeded, total atomic.Int64
	var wg sync.WaitGroup
	for _, tenant := range tenants {
		if tenant.State != domain.TenantActive {
			continue
		}
		wg.Add(1)
		go func(tenant domain.Tenant) {
			defer wg.Done()
			credentials, err := s.credentials.GetAll(ctx, tenant.ID, domain.CredentialActive)
			if err != nil {
				s.logger.Error("failed to list credentials", "job", "enqueue", "tenant_id", tenant.ID, "error", err)
				return
			}
			for _, credential := range credentials {
				total.Add(1)
				item := WorkItem{TenantID: tenant.ID, ItemID: credential.ItemID}
				if err := publisher.Publish(ctx, SyncExchange, TransactionSyncKey, item); err != nil {
					s.logger.Error("failed to enqueue work item", "job", "enqueue", "tenant_id", tenant.ID, "item_id", credential.ItemID, "error", err)
					continue
				}
				succeeded.Add(1)
			}
		}(tenant)
	}
	wg.Wait()

	s.logger.Info("enqueue finished", "job", "enqueue", "enqueued", succeeded.Load(), "total", total.Load())
	return nil
}
