/**
 * @description
 * Reconciliation of aggregator-reported transactions against the tenant's
 * stored rows. The matcher is pure: it takes both sides plus the alias map
 * and returns the rows to write, so the full pending/settled/merge lifecycle
 * is testable without any I/O.
 *
 * Matching rules:
 * - A remote event whose aggregator id is already stored is skipped, which
 *   makes the whole sync idempotent.
 * - A remote event for an account alias the tenant has not mapped is skipped.
 * - A pending event becomes a new row carrying only the pending id.
 * - A settled event that references a stored pending row is merged into that
 *   row in place: the row keeps its identity and pending id, gains the
 *   settled id, and is stamped with the merge time.
 * - A settled event with no stored predecessor becomes a new row.
 */

package app

import (
	"time"

	"github.com/google/uuid"

	"github.com/goldstone/sync-service/internal/domain"
	"github.com/goldstone/sync-service/internal/expense"
	"github.com/goldstone/sync-service/pkg/plaidclient"
)

// Reconcile diffs remote against local and returns the transactions to
// write. Rows returned for a merge are the local row mutated, so they carry
// the etag of the read that found them.
func Reconcile(
	tenantID uuid.UUID,
	accountByAlias map[string]uuid.UUID,
	remote []plaidclient.Transaction,
	local []domain.Transaction,
	now time.Time,
) []domain.Transaction {
	settledByID := make(map[string]*domain.Transaction, len(local))
	pendingByID := make(map[string]*domain.Transaction, len(local))
	for i := range local {
		tx := &local[i]
		if tx.PlaidTransactionID != "" {
			settledByID[tx.PlaidTransactionID] = tx
		}
		// Merged rows stay indexed under their pending id so a replayed
		// pending event is still recognized as recorded.
		if tx.PlaidPendingID != "" {
			pendingByID[tx.PlaidPendingID] = tx
		}
	}

	// The aggregator occasionally repeats an id within one window; the last
	// occurrence wins, matching a keyed overwrite.
	remoteByID := make(map[string]plaidclient.Transaction, len(remote))
	order := make([]string, 0, len(remote))
	for _, r := range remote {
		if _, seen := remoteByID[r.ID]; !seen {
			order = append(order, r.ID)
		}
		remoteByID[r.ID] = r
	}

	var writes []domain.Transaction
	for _, id := range order {
		r := remoteByID[id]

		// Already recorded under either id: idempotent no-op.
		if _, exists := settledByID[r.ID]; exists {
			continue
		}
		if _, exists := pendingByID[r.ID]; exists {
			continue
		}

		accountID, mapped := accountByAlias[r.AccountID]
		if !mapped {
			continue
		}

		if r.Pending {
			writes = append(writes, newTransaction(tenantID, accountID, r))
			continue
		}
		if predecessor, exists := pendingByID[r.PendingTransactionID]; r.PendingTransactionID != "" && exists && predecessor.State() == domain.StatePending {
			writes = append(writes, merge(*predecessor, r, now))
			continue
		}
		writes = append(writes, newTransaction(tenantID, accountID, r))
	}
	return writes
}

// newTransaction builds a row for a remote event with no stored counterpart.
func newTransaction(tenantID, accountID uuid.UUID, r plaidclient.Transaction) domain.Transaction {
	category := expense.Categorize(r.Name, r.Categories)
	tx := domain.Transaction{
		ID:              uuid.New(),
		Date:            r.Date,
		TenantID:        tenantID,
		AccountID:       accountID,
		Name:            r.Name,
		Amount:          r.Amount,
		CurrencyCode:    r.ISOCurrencyCode,
		CategoryID:      r.CategoryID,
		ExpenseCategory: category,
		Note:            expense.Note(category, r.Name),
	}
	if r.Pending {
		tx.PlaidPendingID = r.ID
	} else {
		tx.PlaidTransactionID = r.ID
	}
	return tx
}

// merge folds a settled event into its stored pending predecessor. Identity,
// account, pending id, and etag survive; the settled event supplies the
// final name, amount, date, and category.
func merge(pending domain.Transaction, r plaidclient.Transaction, now time.Time) domain.Transaction {
	category := expense.Categorize(r.Name, r.Categories)

	merged := pending
	merged.Date = r.Date
	merged.Name = r.Name
	merged.Amount = r.Amount
	merged.CurrencyCode = r.ISOCurrencyCode
	merged.CategoryID = r.CategoryID
	merged.ExpenseCategory = category
	merged.Note = expense.Note(category, r.Name)
	merged.PlaidTransactionID = r.ID
	mergedAt := now.UTC()
	merged.MergedAt = &mergedAt
	return merged
}
