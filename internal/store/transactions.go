package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/goldstone/sync-service/internal/domain"
)

const collectionTransactions = "transactions"

// TransactionClient reads and writes transactions, partitioned by tenant.
type TransactionClient struct {
	store DocumentStore
}

func NewTransactionClient(store DocumentStore) *TransactionClient {
	return &TransactionClient{store: store}
}

// Get fetches a single transaction.
func (c *TransactionClient) Get(ctx context.Context, tenantID, transactionID uuid.UUID) (*domain.Transaction, error) {
	doc, err := c.store.Read(ctx, collectionTransactions, tenantID.String(), transactionID.String())
	if err != nil {
		return nil, err
	}
	var tx domain.Transaction
	if err := unmarshalDocument(doc, &tx); err != nil {
		return nil, err
	}
	tx.Etag = doc.Etag
	return &tx, nil
}

// GetRange fetches all of a tenant's transactions dated within
// [startDate, endDate].
func (c *TransactionClient) GetRange(ctx context.Context, tenantID uuid.UUID, startDate, endDate domain.Date) ([]domain.Transaction, error) {
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("invalid transaction range %s..%s", startDate, endDate)
	}

	filter := NewFilter().Range("date", startDate.String(), endDate.String())
	docs, err := c.store.ReadAll(ctx, collectionTransactions, tenantID.String(), filter)
	if err != nil {
		return nil, err
	}

	transactions := make([]domain.Transaction, 0, len(docs))
	for _, doc := range docs {
		var tx domain.Transaction
		if err := unmarshalDocument(doc, &tx); err != nil {
			return nil, err
		}
		tx.Etag = doc.Etag
		transactions = append(transactions, tx)
	}
	return transactions, nil
}

// Upsert writes a transaction. A transaction carrying an etag (read from the
// store earlier) is written conditionally; a fresh one is inserted.
func (c *TransactionClient) Upsert(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if tx.TenantID == uuid.Nil || tx.ID == uuid.Nil {
		return nil, fmt.Errorf("transaction requires tenant and id")
	}

	doc, err := marshalDocument(tx.ID.String(), tx)
	if err != nil {
		return nil, err
	}
	written, err := c.store.Upsert(ctx, collectionTransactions, tx.TenantID.String(), doc, tx.Etag)
	if err != nil {
		return nil, err
	}

	stored := *tx
	stored.Etag = written.Etag
	return &stored, nil
}

// Delete removes a transaction. Only explicit user deletes go through here;
// reconciliation never deletes.
func (c *TransactionClient) Delete(ctx context.Context, tenantID, transactionID uuid.UUID) error {
	return c.store.Delete(ctx, collectionTransactions, tenantID.String(), transactionID.String())
}
