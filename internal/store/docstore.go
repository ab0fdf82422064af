/**
 * @description
 * This file defines the `DocumentStore` interface: the contract for the
 * partitioned, etag-guarded document store every collection client is built
 * on. Keeping the contract separate from the PostgreSQL implementation
 * decouples sync logic from the storage engine and lets tests substitute an
 * in-memory store.
 *
 * Concurrency model: every document carries an opaque etag that changes on
 * each write. Conditional writes pass the last-seen etag and fail with
 * ErrPreconditionFailed when it is stale. The store never retries; callers
 * that want last-writer-wins use the collection clients' ForceUpdate, which
 * re-reads the current etag first — conditional and forced updates are
 * distinct named operations, never silently substituted.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when no document matches the partition key and id.
	ErrNotFound = errors.New("document not found")
	// ErrPreconditionFailed is returned when a conditional write carries a stale etag.
	ErrPreconditionFailed = errors.New("document etag is stale")
	// ErrConflict is returned when a create hits an existing document.
	ErrConflict = errors.New("document already exists")
)

// Document is the raw envelope a collection client marshals entities into.
type Document struct {
	ID           string
	PartitionKey string
	Etag         string
	Timestamp    time.Time
	Data         json.RawMessage
}

// DocumentStore is the storage contract. An empty etag on Upsert means
// unconditional; a non-empty etag makes any write conditional.
type DocumentStore interface {
	Create(ctx context.Context, collection, partitionKey string, doc Document) (Document, error)
	Read(ctx context.Context, collection, partitionKey, id string) (Document, error)
	ReadAll(ctx context.Context, collection, partitionKey string, filter *Filter) ([]Document, error)
	Update(ctx context.Context, collection, partitionKey, id string, doc Document, etag string) (Document, error)
	Upsert(ctx context.Context, collection, partitionKey string, doc Document, etag string) (Document, error)
	Delete(ctx context.Context, collection, partitionKey, id string) error
}

// marshalDocument wraps an entity into a Document envelope.
func marshalDocument(id string, entity interface{}) (Document, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return Document{}, fmt.Errorf("failed to marshal document %s: %w", id, err)
	}
	return Document{ID: id, Data: data}, nil
}

// unmarshalDocument decodes a Document body into entity.
func unmarshalDocument(doc Document, entity interface{}) error {
	if err := json.Unmarshal(doc.Data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal document %s: %w", doc.ID, err)
	}
	return nil
}
