package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/goldstone/sync-service/internal/domain"
)

const (
	collectionAccounts    = "accounts"
	collectionCredentials = "accessTokens"
)

// AccountClient reads a tenant's accounts, partitioned by tenant.
type AccountClient struct {
	store DocumentStore
}

func NewAccountClient(store DocumentStore) *AccountClient {
	return &AccountClient{store: store}
}

// GetAll fetches every account of a tenant.
func (c *AccountClient) GetAll(ctx context.Context, tenantID uuid.UUID) ([]domain.Account, error) {
	return c.query(ctx, tenantID, nil)
}

// GetByToken fetches the accounts discovered through one institution
// linkage, identified by its access token.
func (c *AccountClient) GetByToken(ctx context.Context, tenantID uuid.UUID, accessToken string) ([]domain.Account, error) {
	return c.query(ctx, tenantID, NewFilter().Eq("accessToken", accessToken))
}

func (c *AccountClient) query(ctx context.Context, tenantID uuid.UUID, filter *Filter) ([]domain.Account, error) {
	docs, err := c.store.ReadAll(ctx, collectionAccounts, tenantID.String(), filter)
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, 0, len(docs))
	for _, doc := range docs {
		var account domain.Account
		if err := unmarshalDocument(doc, &account); err != nil {
			return nil, err
		}
		account.Etag = doc.Etag
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// CredentialClient reads a tenant's institution linkages.
type CredentialClient struct {
	store DocumentStore
}

func NewCredentialClient(store DocumentStore) *CredentialClient {
	return &CredentialClient{store: store}
}

// GetByItem fetches the credential for one external item id in the given
// state. Returns ErrNotFound when the linkage does not exist.
func (c *CredentialClient) GetByItem(ctx context.Context, tenantID uuid.UUID, itemID string, state domain.AccessCredentialState) (*domain.AccessCredential, error) {
	filter := NewFilter().Eq("itemId", itemID).Eq("state", string(state))
	credentials, err := c.query(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	if len(credentials) == 0 {
		return nil, ErrNotFound
	}
	return &credentials[0], nil
}

// GetAll fetches every credential of a tenant in the given state.
func (c *CredentialClient) GetAll(ctx context.Context, tenantID uuid.UUID, state domain.AccessCredentialState) ([]domain.AccessCredential, error) {
	return c.query(ctx, tenantID, NewFilter().Eq("state", string(state)))
}

func (c *CredentialClient) query(ctx context.Context, tenantID uuid.UUID, filter *Filter) ([]domain.AccessCredential, error) {
	docs, err := c.store.ReadAll(ctx, collectionCredentials, tenantID.String(), filter)
	if err != nil {
		return nil, err
	}

	credentials := make([]domain.AccessCredential, 0, len(docs))
	for _, doc := range docs {
		var credential domain.AccessCredential
		if err := unmarshalDocument(doc, &credential); err != nil {
			return nil, err
		}
		credential.Etag = doc.Etag
		credentials = append(credentials, credential)
	}
	return credentials, nil
}
