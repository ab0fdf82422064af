/**
 * @description
 * Core domain models for the sync backend. These structs map one-to-one to
 * the documents held in the tenant-partitioned document store; the JSON tags
 * are the stored field names.
 *
 * @notes
 * - Amounts use shopspring/decimal: the aggregator reports dollar values
 *   with cents, and snapshot values carry institution-reported decimals.
 * - Etag is the store's opaque concurrency token. It is populated on reads
 *   and consumed by conditional writes; it is never serialized into the
 *   document body.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseCategory is the closed set of internal spending categories derived
// from raw aggregator data.
type ExpenseCategory string

const (
	ExpenseNone       ExpenseCategory = "None"
	ExpenseGrocery    ExpenseCategory = "Grocery"
	ExpenseMeal       ExpenseCategory = "Meal"
	ExpenseRecreation ExpenseCategory = "Recreation"
	ExpenseShopping   ExpenseCategory = "Shopping"
	ExpenseUtility    ExpenseCategory = "Utility"
	ExpenseVehicle    ExpenseCategory = "Vehicle"
	ExpensePersonal   ExpenseCategory = "Personal"
	ExpenseOthers     ExpenseCategory = "Others"
	ExpenseSpecial    ExpenseCategory = "Special"
)

// TransactionState is derived from a transaction's fields, never stored.
type TransactionState string

const (
	StateNone     TransactionState = "None"
	StatePending  TransactionState = "Pending"
	StateSettled  TransactionState = "Settled"
	StateMerged   TransactionState = "Merged"
	StateVerified TransactionState = "Verified"
)

// Transaction is a single financial event owned by one tenant.
type Transaction struct {
	ID              uuid.UUID       `json:"id"`
	Date            Date            `json:"date"`
	TenantID        uuid.UUID       `json:"tenantId"`
	AccountID       uuid.UUID       `json:"accountId"`
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	CurrencyCode    string          `json:"currencyCode,omitempty"`
	CategoryID      string          `json:"categoryId,omitempty"`
	ExpenseCategory ExpenseCategory `json:"expenseCategory"`
	Note            string          `json:"note,omitempty"`

	// PlaidTransactionID is the aggregator's id for the settled event;
	// PlaidPendingID its id for the pending event. A pending row carries
	// only the pending id until it is merged, at which point it gains the
	// settled id while keeping the pending one.
	PlaidTransactionID string `json:"plaidTransactionId,omitempty"`
	PlaidPendingID     string `json:"plaidPendingId,omitempty"`

	MergedAt   *time.Time `json:"mergedDate,omitempty"`
	VerifiedAt *time.Time `json:"verifiedDate,omitempty"`

	Etag string `json:"-"`
}

// State derives the lifecycle state. Order matters: verification trumps
// merge, merge trumps settlement.
func (t *Transaction) State() TransactionState {
	switch {
	case t == nil:
		return StateNone
	case t.VerifiedAt != nil:
		return StateVerified
	case t.MergedAt != nil:
		return StateMerged
	case t.PlaidTransactionID != "":
		return StateSettled
	default:
		return StatePending
	}
}
