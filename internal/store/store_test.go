package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/goldstone/sync-service/internal/domain"
)

// memStore is an in-memory DocumentStore for client tests. It honors the
// same etag semantics as the PostgreSQL implementation.
type memStore struct {
	mu   sync.Mutex
	docs map[string]map[string]Document // collection/partition -> id -> doc
}

func newMemStore() *memStore {
	return &memStore{docs: map[string]map[string]Document{}}
}

func (m *memStore) bucket(collection, partitionKey string) map[string]Document {
	key := collection + "/" + partitionKey
	if m.docs[key] == nil {
		m.docs[key] = map[string]Document{}
	}
	return m.docs[key]
}

func (m *memStore) Create(ctx context.Context, collection, partitionKey string, doc Document) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := m.bucket(collection, partitionKey)
	if _, ok := bucket[doc.ID]; ok {
		return Document{}, ErrConflict
	}
	doc.PartitionKey = partitionKey
	doc.Etag = uuid.NewString()
	bucket[doc.ID] = doc
	return doc, nil
}

func (m *memStore) Read(ctx context.Context, collection, partitionKey, id string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.bucket(collection, partitionKey)[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (m *memStore) ReadAll(ctx context.Context, collection, partitionKey string, filter *Filter) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Document
	for _, doc := range m.bucket(collection, partitionKey) {
		if matchesFilter(doc, filter) {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) Update(ctx context.Context, collection, partitionKey, id string, doc Document, etag string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := m.bucket(collection, partitionKey)
	current, ok := bucket[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	if current.Etag != etag {
		return Document{}, ErrPreconditionFailed
	}
	doc.ID = id
	doc.PartitionKey = partitionKey
	doc.Etag = uuid.NewString()
	bucket[id] = doc
	return doc, nil
}

func (m *memStore) Upsert(ctx context.Context, collection, partitionKey string, doc Document, etag string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := m.bucket(collection, partitionKey)
	if current, ok := bucket[doc.ID]; ok && etag != "" && current.Etag != etag {
		return Document{}, ErrPreconditionFailed
	}
	doc.PartitionKey = partitionKey
	doc.Etag = uuid.NewString()
	bucket[doc.ID] = doc
	return doc, nil
}

func (m *memStore) Delete(ctx context.Context, collection, partitionKey, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := m.bucket(collection, partitionKey)
	if _, ok := bucket[id]; !ok {
		return ErrNotFound
	}
	delete(bucket, id)
	return nil
}

func matchesFilter(doc Document, filter *Filter) bool {
	if filter == nil {
		return true
	}
	var body map[string]interface{}
	if err := json.Unmarshal(doc.Data, &body); err != nil {
		return false
	}
	for _, c := range filter.clauses {
		got := fmt.Sprint(body[c.field])
		switch c.op {
		case opRange:
			if got < c.value || got > c.upper {
				return false
			}
		default:
			if got != c.value {
				return false
			}
		}
	}
	return true
}

func TestFilterSQL(t *testing.T) {
	tests := []struct {
		name     string
		filter   *Filter
		startArg int
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:   "nil filter",
			filter: nil,
		},
		{
			name:   "empty filter",
			filter: NewFilter(),
		},
		{
			name:     "single eq",
			filter:   NewFilter().Eq("itemId", "item-1"),
			startArg: 4,
			wantSQL:  " AND data->>'itemId' = $4",
			wantArgs: []interface{}{"item-1"},
		},
		{
			name:     "range",
			filter:   NewFilter().Range("date", "2026-01-01", "2026-01-31"),
			startArg: 2,
			wantSQL:  " AND data->>'date' >= $2 AND data->>'date' <= $3",
			wantArgs: []interface{}{"2026-01-01", "2026-01-31"},
		},
		{
			name:     "eq then eq",
			filter:   NewFilter().Eq("itemId", "item-1").Eq("state", "Active"),
			startArg: 1,
			wantSQL:  " AND data->>'itemId' = $1 AND data->>'state' = $2",
			wantArgs: []interface{}{"item-1", "Active"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gotSQL, gotArgs := tc.filter.SQL(tc.startArg)
			if gotSQL != tc.wantSQL {
				t.Fatalf("SQL() = %q, want %q", gotSQL, tc.wantSQL)
			}
			if len(gotArgs) != len(tc.wantArgs) {
				t.Fatalf("SQL() args = %v, want %v", gotArgs, tc.wantArgs)
			}
			for i := range gotArgs {
				if gotArgs[i] != tc.wantArgs[i] {
					t.Fatalf("SQL() arg %d = %v, want %v", i, gotArgs[i], tc.wantArgs[i])
				}
			}
		})
	}
}

func TestTransactionClientUpsert(t *testing.T) {
	ctx := context.Background()
	client := NewTransactionClient(newMemStore())
	tenantID := uuid.New()

	tx := &domain.Transaction{
		ID:       uuid.New(),
		TenantID: tenantID,
		Date:     mustDate(t, "2026-02-10"),
		Name:     "coffee",
		Amount:   decimal.NewFromFloat(4.50),
	}

	stored, err := client.Upsert(ctx, tx)
	if err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if stored.Etag == "" {
		t.Fatal("Upsert() returned empty etag")
	}

	// A second write from the stored copy carries the current etag and succeeds.
	stored.Name = "espresso"
	updated, err := client.Upsert(ctx, stored)
	if err != nil {
		t.Fatalf("Upsert() after read error: %v", err)
	}
	if updated.Etag == stored.Etag {
		t.Fatal("Upsert() did not rotate etag")
	}

	// Writing with the etag from before the second update must fail.
	tx.Etag = stored.Etag
	if _, err := client.Upsert(ctx, tx); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("Upsert() with stale etag error = %v, want ErrPreconditionFailed", err)
	}

	got, err := client.Get(ctx, tenantID, tx.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Name != "espresso" {
		t.Fatalf("Get() name = %q, want %q", got.Name, "espresso")
	}
}

func TestTransactionClientGetRange(t *testing.T) {
	ctx := context.Background()
	client := NewTransactionClient(newMemStore())
	tenantID := uuid.New()

	for _, date := range []string{"2026-01-31", "2026-02-01", "2026-02-15", "2026-02-28", "2026-03-01"} {
		tx := &domain.Transaction{
			ID:       uuid.New(),
			TenantID: tenantID,
			Date:     mustDate(t, date),
			Name:     "tx " + date,
		}
		if _, err := client.Upsert(ctx, tx); err != nil {
			t.Fatalf("Upsert(%s) error: %v", date, err)
		}
	}

	got, err := client.GetRange(ctx, tenantID, mustDate(t, "2026-02-01"), mustDate(t, "2026-02-28"))
	if err != nil {
		t.Fatalf("GetRange() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("GetRange() returned %d transactions, want 3", len(got))
	}

	if _, err := client.GetRange(ctx, tenantID, mustDate(t, "2026-02-28"), mustDate(t, "2026-02-01")); err == nil {
		t.Fatal("GetRange() with inverted range did not fail")
	}
}

func TestCatalogClientUpsertReadsEtagJustInTime(t *testing.T) {
	ctx := context.Background()
	client := NewCatalogClient(newMemStore())
	tenantID := uuid.New()
	id := domain.NewAccountDate(uuid.New(), mustDate(t, "2026-02-10"))

	first := &domain.AccountCatalog{ID: id, TenantID: tenantID, Value: decimal.NewFromInt(100)}
	if _, err := client.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert() first error: %v", err)
	}

	// A sibling writer updates the snapshot in between.
	sibling := &domain.AccountCatalog{ID: id, TenantID: tenantID, Value: decimal.NewFromInt(150)}
	if _, err := client.Upsert(ctx, sibling); err != nil {
		t.Fatalf("Upsert() sibling error: %v", err)
	}

	// Upsert from a struct with no etag still succeeds: the current etag is
	// read just in time.
	third := &domain.AccountCatalog{ID: id, TenantID: tenantID, Value: decimal.NewFromInt(200)}
	if _, err := client.Upsert(ctx, third); err != nil {
		t.Fatalf("Upsert() third error: %v", err)
	}

	got, err := client.Get(ctx, tenantID, id)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !got.Value.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("Get() value = %s, want 200", got.Value)
	}
}

func TestCatalogClientUpdate(t *testing.T) {
	ctx := context.Background()
	client := NewCatalogClient(newMemStore())
	tenantID := uuid.New()
	id := domain.NewAccountDate(uuid.New(), mustDate(t, "2026-02-10"))

	stored, err := client.Upsert(ctx, &domain.AccountCatalog{ID: id, TenantID: tenantID, Value: decimal.NewFromInt(100)})
	if err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	stored.Value = decimal.NewFromInt(110)
	if _, err := client.Update(ctx, stored); err != nil {
		t.Fatalf("Update() with current etag error: %v", err)
	}

	// The etag held by stored is now stale.
	stored.Value = decimal.NewFromInt(120)
	if _, err := client.Update(ctx, stored); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("Update() with stale etag error = %v, want ErrPreconditionFailed", err)
	}

	// ForceUpdate wins regardless of the held etag.
	forced, err := client.ForceUpdate(ctx, stored)
	if err != nil {
		t.Fatalf("ForceUpdate() error: %v", err)
	}
	if !forced.Value.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("ForceUpdate() value = %s, want 120", forced.Value)
	}

	missing := &domain.AccountCatalog{
		ID:       domain.NewAccountDate(uuid.New(), mustDate(t, "2026-02-10")),
		TenantID: tenantID,
		Value:    decimal.NewFromInt(1),
	}
	if _, err := client.ForceUpdate(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ForceUpdate() on missing snapshot error = %v, want ErrNotFound", err)
	}
}

func TestCredentialClientGetByItem(t *testing.T) {
	ctx := context.Background()
	mem := newMemStore()
	client := NewCredentialClient(mem)
	tenantID := uuid.New()

	seed := func(itemID string, state domain.AccessCredentialState) {
		t.Helper()
		cred := domain.AccessCredential{
			ID:       uuid.New(),
			TenantID: tenantID,
			ItemID:   itemID,
			Token:    "token-" + itemID,
			State:    state,
		}
		doc, err := marshalDocument(cred.ID.String(), cred)
		if err != nil {
			t.Fatalf("marshal credential: %v", err)
		}
		if _, err := mem.Create(ctx, collectionCredentials, tenantID.String(), doc); err != nil {
			t.Fatalf("seed credential: %v", err)
		}
	}
	seed("item-1", domain.CredentialActive)
	seed("item-2", domain.CredentialInactive)

	got, err := client.GetByItem(ctx, tenantID, "item-1", domain.CredentialActive)
	if err != nil {
		t.Fatalf("GetByItem() error: %v", err)
	}
	if got.Token != "token-item-1" {
		t.Fatalf("GetByItem() token = %q, want %q", got.Token, "token-item-1")
	}

	// A credential in the wrong state is invisible.
	if _, err := client.GetByItem(ctx, tenantID, "item-2", domain.CredentialActive); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByItem() inactive item error = %v, want ErrNotFound", err)
	}

	active, err := client.GetAll(ctx, tenantID, domain.CredentialActive)
	if err != nil {
		t.Fatalf("GetAll() error: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("GetAll(Active) returned %d credentials, want 1", len(active))
	}
}

func TestAccountClientGetByToken(t *testing.T) {
	ctx := context.Background()
	mem := newMemStore()
	client := NewAccountClient(mem)
	tenantID := uuid.New()

	seed := func(name, token string) {
		t.Helper()
		account := domain.Account{
			ID:          uuid.New(),
			Name:        name,
			TenantID:    tenantID,
			AccessToken: token,
			State:       domain.AccountStateActive,
		}
		doc, err := marshalDocument(account.ID.String(), account)
		if err != nil {
			t.Fatalf("marshal account: %v", err)
		}
		if _, err := mem.Create(ctx, collectionAccounts, tenantID.String(), doc); err != nil {
			t.Fatalf("seed account: %v", err)
		}
	}
	seed("checking", "token-a")
	seed("saving", "token-a")
	seed("brokerage", "token-b")

	got, err := client.GetByToken(ctx, tenantID, "token-a")
	if err != nil {
		t.Fatalf("GetByToken() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetByToken() returned %d accounts, want 2", len(got))
	}

	all, err := client.GetAll(ctx, tenantID)
	if err != nil {
		t.Fatalf("GetAll() error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("GetAll() returned %d accounts, want 3", len(all))
	}
}

func TestTenantClientSharedPartition(t *testing.T) {
	ctx := context.Background()
	mem := newMemStore()
	client := NewTenantClient(mem)

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	for i, id := range ids {
		tenant := domain.Tenant{
			ID:         id,
			Name:       fmt.Sprintf("tenant-%d", i),
			TimeZoneID: "America/Los_Angeles",
			State:      domain.TenantActive,
		}
		doc, err := marshalDocument(id.String(), tenant)
		if err != nil {
			t.Fatalf("marshal tenant: %v", err)
		}
		if _, err := mem.Create(ctx, collectionTenants, tenantsPartition, doc); err != nil {
			t.Fatalf("seed tenant: %v", err)
		}
	}

	all, err := client.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("GetAll() returned %d tenants, want 2", len(all))
	}

	got, err := client.Get(ctx, ids[0])
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.ID != ids[0] {
		t.Fatalf("Get() id = %s, want %s", got.ID, ids[0])
	}
}

func mustDate(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}
