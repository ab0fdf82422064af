package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/goldstone/sync-service/internal/domain"
)

const collectionCatalogs = "accountCatalogs"

// CatalogClient reads and writes daily balance snapshots, partitioned by
// tenant and keyed by the account|date composite id.
type CatalogClient struct {
	store DocumentStore
}

func NewCatalogClient(store DocumentStore) *CatalogClient {
	return &CatalogClient{store: store}
}

// Get fetches one snapshot. Returns ErrNotFound when absent.
func (c *CatalogClient) Get(ctx context.Context, tenantID uuid.UUID, id domain.AccountDate) (*domain.AccountCatalog, error) {
	doc, err := c.store.Read(ctx, collectionCatalogs, tenantID.String(), id.String())
	if err != nil {
		return nil, err
	}
	var catalog domain.AccountCatalog
	if err := unmarshalDocument(doc, &catalog); err != nil {
		return nil, err
	}
	catalog.Etag = doc.Etag
	return &catalog, nil
}

// Upsert writes a snapshot conditionally on the document's current etag,
// which is read just in time so sibling writers since the caller's original
// read are detected rather than overwritten.
func (c *CatalogClient) Upsert(ctx context.Context, catalog *domain.AccountCatalog) (*domain.AccountCatalog, error) {
	if err := validateCatalog(catalog); err != nil {
		return nil, err
	}

	etag := ""
	current, err := c.Get(ctx, catalog.TenantID, catalog.ID)
	switch {
	case err == nil:
		etag = current.Etag
	case errors.Is(err, ErrNotFound):
		// first write for this account/date
	default:
		return nil, err
	}

	doc, err := marshalDocument(catalog.ID.String(), catalog)
	if err != nil {
		return nil, err
	}
	written, err := c.store.Upsert(ctx, collectionCatalogs, catalog.TenantID.String(), doc, etag)
	if err != nil {
		return nil, err
	}

	stored := *catalog
	stored.Etag = written.Etag
	return &stored, nil
}

// Update rewrites a snapshot conditionally on the caller-supplied etag.
func (c *CatalogClient) Update(ctx context.Context, catalog *domain.AccountCatalog) (*domain.AccountCatalog, error) {
	if err := validateCatalog(catalog); err != nil {
		return nil, err
	}
	if catalog.Etag == "" {
		return nil, fmt.Errorf("catalog update requires an etag")
	}

	doc, err := marshalDocument(catalog.ID.String(), catalog)
	if err != nil {
		return nil, err
	}
	written, err := c.store.Update(ctx, collectionCatalogs, catalog.TenantID.String(), catalog.ID.String(), doc, catalog.Etag)
	if err != nil {
		return nil, err
	}

	stored := *catalog
	stored.Etag = written.Etag
	return &stored, nil
}

// ForceUpdate rewrites a snapshot last-writer-wins: the current etag is
// fetched and used, ignoring whatever the caller held. Distinct from Update
// by name so the weaker guarantee is always explicit at the call site.
func (c *CatalogClient) ForceUpdate(ctx context.Context, catalog *domain.AccountCatalog) (*domain.AccountCatalog, error) {
	if err := validateCatalog(catalog); err != nil {
		return nil, err
	}

	current, err := c.Get(ctx, catalog.TenantID, catalog.ID)
	if err != nil {
		return nil, err
	}

	fresh := *catalog
	fresh.Etag = current.Etag
	return c.Update(ctx, &fresh)
}

func validateCatalog(catalog *domain.AccountCatalog) error {
	if catalog == nil {
		return fmt.Errorf("catalog is required")
	}
	if catalog.TenantID == uuid.Nil {
		return fmt.Errorf("catalog requires a tenant")
	}
	if catalog.ID.AccountID == uuid.Nil || catalog.ID.Date.IsZero() {
		return fmt.Errorf("catalog requires an account/date id")
	}
	return nil
}
