/**
 * @description
 * Queue-facing glue for the reconciliation workers. Work items arrive as
 * JSON `{"tenantId", "itemId"}` pairs, one per institution linkage.
 */

package app

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/goldstone/sync-service/internal/metrics"
	"github.com/goldstone/sync-service/internal/store"
)

// Queue topology for the sync work items.
const (
	SyncExchange       = "sync.jobs"
	SyncQueue          = "sync.transactions"
	TransactionSyncKey = "sync.transactions.item"
)

// WorkItem identifies one linkage to reconcile.
type WorkItem struct {
	TenantID uuid.UUID `json:"tenantId"`
	ItemID   string    `json:"itemId"`
}

// HandleSyncMessage processes one queued work item. It always acknowledges:
// a failed unit is logged and counted, and the next scheduled enqueue run
// retries it, so a poisoned message can never wedge the queue.
func (s *Syncer) HandleSyncMessage(body []byte) bool {
	ctx := context.Background()

	var item WorkItem
	if err := json.Unmarshal(body, &item); err != nil {
		s.logger.Error("dropping malformed work item", "job", "transactions", "error", err)
		return true
	}
	if item.TenantID == uuid.Nil || item.ItemID == "" {
		s.logger.Error("dropping incomplete work item", "job", "transactions", "tenant_id", item.TenantID, "item_id", item.ItemID)
		return true
	}

	err := s.SyncTransactions(ctx, item.TenantID, item.ItemID)
	switch {
	case err == nil:
		s.metrics.SyncUnitsTotal.WithLabelValues(metrics.JobTransactions, metrics.OutcomeOK).Inc()
	case errors.Is(err, store.ErrNotFound):
		// The linkage or tenant was deactivated after enqueue. Not a failure.
		s.logger.Warn("work item no longer resolvable", "job", "transactions", "tenant_id", item.TenantID, "item_id", item.ItemID)
	default:
		s.metrics.SyncUnitsTotal.WithLabelValues(metrics.JobTransactions, metrics.OutcomeFailed).Inc()
		s.logger.Error("transaction sync failed", "job", "transactions", "tenant_id", item.TenantID, "item_id", item.ItemID, "error", err)
	}
	return true
}
