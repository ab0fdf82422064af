package app

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/goldstone/sync-service/internal/domain"
	"github.com/goldstone/sync-service/pkg/plaidclient"
)

func TestReconcileNewPending(t *testing.T) {
	tenantID := uuid.New()
	accountID := uuid.New()
	aliases := map[string]uuid.UUID{"alias-1": accountID}

	remote := []plaidclient.Transaction{{
		ID:         "p1",
		AccountID:  "alias-1",
		Amount:     decimal.NewFromFloat(12.40),
		Date:       date(t, "2026-02-10"),
		Categories: []string{"Food and Drink", "Restaurants"},
		Pending:    true,
		Name:       "Thai Kitchen",
	}}

	writes := Reconcile(tenantID, aliases, remote, nil, time.Now())
	if len(writes) != 1 {
		t.Fatalf("Reconcile() wrote %d rows, want 1", len(writes))
	}

	got := writes[0]
	if got.ID == uuid.Nil {
		t.Fatal("new row has no id")
	}
	if got.PlaidPendingID != "p1" || got.PlaidTransactionID != "" {
		t.Fatalf("new pending ids = (%q, %q), want pending id only", got.PlaidPendingID, got.PlaidTransactionID)
	}
	if got.State() != domain.StatePending {
		t.Fatalf("new row state = %s, want Pending", got.State())
	}
	if got.AccountID != accountID || got.TenantID != tenantID {
		t.Fatal("new row not attributed to the mapped account")
	}
	if got.ExpenseCategory != domain.ExpenseMeal {
		t.Fatalf("category = %s, want Meal", got.ExpenseCategory)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	tenantID := uuid.New()
	aliases := map[string]uuid.UUID{"alias-1": uuid.New()}

	remote := []plaidclient.Transaction{
		{ID: "p1", AccountID: "alias-1", Pending: true, Name: "hold", Date: date(t, "2026-02-10")},
		{ID: "s1", AccountID: "alias-1", Name: "charge", Date: date(t, "2026-02-11")},
	}

	first := Reconcile(tenantID, aliases, remote, nil, time.Now())
	if len(first) != 2 {
		t.Fatalf("first pass wrote %d rows, want 2", len(first))
	}

	// Feeding the same window back with the first pass stored yields nothing.
	second := Reconcile(tenantID, aliases, remote, first, time.Now())
	if len(second) != 0 {
		t.Fatalf("second pass wrote %d rows, want 0", len(second))
	}
}

func TestReconcileMergePreservesIdentity(t *testing.T) {
	tenantID := uuid.New()
	accountID := uuid.New()
	aliases := map[string]uuid.UUID{"alias-1": accountID}
	now := time.Date(2026, 2, 12, 9, 0, 0, 0, time.UTC)

	local := []domain.Transaction{{
		ID:             uuid.New(),
		Date:           date(t, "2026-02-10"),
		TenantID:       tenantID,
		AccountID:      accountID,
		Name:           "AUTH HOLD Thai Kitchen",
		Amount:         decimal.NewFromFloat(12.40),
		PlaidPendingID: "p1",
		Etag:           "etag-1",
	}}

	remote := []plaidclient.Transaction{{
		ID:                   "s1",
		AccountID:            "alias-1",
		Amount:               decimal.NewFromFloat(14.90), // tip added at settlement
		Date:                 date(t, "2026-02-11"),
		Categories:           []string{"Food and Drink", "Restaurants"},
		PendingTransactionID: "p1",
		Name:                 "Thai Kitchen",
	}}

	writes := Reconcile(tenantID, aliases, remote, local, now)
	if len(writes) != 1 {
		t.Fatalf("Reconcile() wrote %d rows, want 1", len(writes))
	}

	got := writes[0]
	if got.ID != local[0].ID {
		t.Fatal("merge replaced the row identity")
	}
	if got.Etag != "etag-1" {
		t.Fatal("merge dropped the stored etag")
	}
	if got.PlaidPendingID != "p1" || got.PlaidTransactionID != "s1" {
		t.Fatalf("merge ids = (%q, %q), want both retained", got.PlaidPendingID, got.PlaidTransactionID)
	}
	if got.State() != domain.StateMerged {
		t.Fatalf("merged state = %s, want Merged", got.State())
	}
	if got.MergedAt == nil || !got.MergedAt.Equal(now) {
		t.Fatalf("merge timestamp = %v, want %v", got.MergedAt, now)
	}
	if !got.Amount.Equal(decimal.NewFromFloat(14.90)) {
		t.Fatalf("merge amount = %s, want settled amount", got.Amount)
	}
	if !got.Date.Equal(date(t, "2026-02-11")) {
		t.Fatal("merge did not take the settled date")
	}
}

func TestReconcileSettledWithoutPredecessor(t *testing.T) {
	tenantID := uuid.New()
	aliases := map[string]uuid.UUID{"alias-1": uuid.New()}

	// The referenced pending event was never stored (outside the window).
	remote := []plaidclient.Transaction{{
		ID:                   "s1",
		AccountID:            "alias-1",
		Date:                 date(t, "2026-02-11"),
		PendingTransactionID: "p-unseen",
		Name:                 "charge",
	}}

	writes := Reconcile(tenantID, aliases, remote, nil, time.Now())
	if len(writes) != 1 {
		t.Fatalf("Reconcile() wrote %d rows, want 1", len(writes))
	}
	got := writes[0]
	if got.State() != domain.StateSettled {
		t.Fatalf("state = %s, want Settled", got.State())
	}
	if got.PlaidPendingID != "" {
		t.Fatal("fresh settled row must not claim a pending id it never matched")
	}
}

func TestReconcileSkipsUnmappedAlias(t *testing.T) {
	remote := []plaidclient.Transaction{{
		ID:        "s1",
		AccountID: "alias-unknown",
		Date:      date(t, "2026-02-11"),
		Name:      "charge",
	}}

	writes := Reconcile(uuid.New(), map[string]uuid.UUID{}, remote, nil, time.Now())
	if len(writes) != 0 {
		t.Fatalf("Reconcile() wrote %d rows for an unmapped alias, want 0", len(writes))
	}
}

func TestReconcileDuplicateRemoteIDLastWins(t *testing.T) {
	tenantID := uuid.New()
	aliases := map[string]uuid.UUID{"alias-1": uuid.New()}

	remote := []plaidclient.Transaction{
		{ID: "s1", AccountID: "alias-1", Date: date(t, "2026-02-10"), Name: "first", Amount: decimal.NewFromInt(10)},
		{ID: "s1", AccountID: "alias-1", Date: date(t, "2026-02-10"), Name: "second", Amount: decimal.NewFromInt(20)},
	}

	writes := Reconcile(tenantID, aliases, remote, nil, time.Now())
	if len(writes) != 1 {
		t.Fatalf("Reconcile() wrote %d rows for a duplicated id, want 1", len(writes))
	}
	if writes[0].Name != "second" {
		t.Fatalf("duplicate resolution kept %q, want the last occurrence", writes[0].Name)
	}
}

func TestReconcileDoesNotRemergeMergedRow(t *testing.T) {
	tenantID := uuid.New()
	accountID := uuid.New()
	aliases := map[string]uuid.UUID{"alias-1": accountID}
	mergedAt := time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC)

	local := []domain.Transaction{{
		ID:                 uuid.New(),
		Date:               date(t, "2026-02-11"),
		TenantID:           tenantID,
		AccountID:          accountID,
		Name:               "charge",
		PlaidTransactionID: "s1",
		PlaidPendingID:     "p1",
		MergedAt:           &mergedAt,
	}}

	// The window replays both the original pending event and its settlement.
	remote := []plaidclient.Transaction{
		{ID: "p1", AccountID: "alias-1", Date: date(t, "2026-02-10"), Pending: true, Name: "hold"},
		{ID: "s1", AccountID: "alias-1", Date: date(t, "2026-02-11"), PendingTransactionID: "p1", Name: "charge"},
	}

	writes := Reconcile(tenantID, aliases, remote, local, time.Now())
	if len(writes) != 0 {
		t.Fatalf("Reconcile() wrote %d rows for an already merged event, want 0", len(writes))
	}
}

func date(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}
