package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/goldstone/sync-service/internal/domain"
)

const collectionTenants = "tenants"

// Tenants share one partition so batch jobs can enumerate them in a single
// query.
const tenantsPartition = "tenants"

// TenantClient reads tenants.
type TenantClient struct {
	store DocumentStore
}

func NewTenantClient(store DocumentStore) *TenantClient {
	return &TenantClient{store: store}
}

// Get fetches a single tenant. Returns ErrNotFound when absent.
func (c *TenantClient) Get(ctx context.Context, tenantID uuid.UUID) (*domain.Tenant, error) {
	doc, err := c.store.Read(ctx, collectionTenants, tenantsPartition, tenantID.String())
	if err != nil {
		return nil, err
	}
	var tenant domain.Tenant
	if err := unmarshalDocument(doc, &tenant); err != nil {
		return nil, err
	}
	tenant.Etag = doc.Etag
	return &tenant, nil
}

// GetAll fetches every tenant.
func (c *TenantClient) GetAll(ctx context.Context) ([]domain.Tenant, error) {
	docs, err := c.store.ReadAll(ctx, collectionTenants, tenantsPartition, nil)
	if err != nil {
		return nil, err
	}

	tenants := make([]domain.Tenant, 0, len(docs))
	for _, doc := range docs {
		var tenant domain.Tenant
		if err := unmarshalDocument(doc, &tenant); err != nil {
			return nil, err
		}
		tenant.Etag = doc.Etag
		tenants = append(tenants, tenant)
	}
	return tenants, nil
}
