/**
 * @description
 * PostgreSQL implementation of the DocumentStore. Documents live in a single
 * `documents` table keyed by (collection, partition_key, id) with the body
 * in a jsonb column and the concurrency etag alongside it. Conditional
 * writes compare the etag in SQL so the check and the write are one
 * statement.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver and connection pooling.
 * - github.com/google/uuid: etag generation.
 */

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a concrete DocumentStore backed by a pgx pool.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is the DDL the store expects. Applied out-of-band by migrations.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection    text        NOT NULL,
	partition_key text        NOT NULL,
	id            text        NOT NULL,
	etag          text        NOT NULL,
	data          jsonb       NOT NULL,
	updated_at    timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, partition_key, id)
);
CREATE INDEX IF NOT EXISTS documents_date_idx
	ON documents (collection, partition_key, (data->>'date'));
`

func newEtag() string { return uuid.NewString() }

// Create inserts a new document and returns it with its assigned etag.
func (s *PostgresStore) Create(ctx context.Context, collection, partitionKey string, doc Document) (Document, error) {
	etag := newEtag()
	query := `INSERT INTO documents (collection, partition_key, id, etag, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING updated_at`
	err := s.db.QueryRow(ctx, query, collection, partitionKey, doc.ID, etag, doc.Data).Scan(&doc.Timestamp)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Document{}, ErrConflict
		}
		return Document{}, fmt.Errorf("create document %s/%s: %w", collection, doc.ID, err)
	}
	doc.PartitionKey = partitionKey
	doc.Etag = etag
	return doc, nil
}

// Read fetches a single document by partition key and id.
func (s *PostgresStore) Read(ctx context.Context, collection, partitionKey, id string) (Document, error) {
	doc := Document{ID: id, PartitionKey: partitionKey}
	query := `SELECT etag, data, updated_at FROM documents
		WHERE collection = $1 AND partition_key = $2 AND id = $3`
	err := s.db.QueryRow(ctx, query, collection, partitionKey, id).Scan(&doc.Etag, &doc.Data, &doc.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("read document %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

// ReadAll fetches every document in a partition matching the filter. The
// result is fully materialized; callers see the flattened set.
func (s *PostgresStore) ReadAll(ctx context.Context, collection, partitionKey string, filter *Filter) ([]Document, error) {
	query := `SELECT id, etag, data, updated_at FROM documents
		WHERE collection = $1 AND partition_key = $2`
	args := []interface{}{collection, partitionKey}

	fragment, filterArgs := filter.SQL(3)
	query += fragment + ` ORDER BY id`
	args = append(args, filterArgs...)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc := Document{PartitionKey: partitionKey}
		if err := rows.Scan(&doc.ID, &doc.Etag, &doc.Data, &doc.Timestamp); err != nil {
			return nil, fmt.Errorf("scan document %s: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents %s: %w", collection, err)
	}
	return docs, nil
}

// Update rewrites an existing document if the supplied etag is current.
func (s *PostgresStore) Update(ctx context.Context, collection, partitionKey, id string, doc Document, etag string) (Document, error) {
	if etag == "" {
		return Document{}, fmt.Errorf("update document %s/%s: etag is required", collection, id)
	}

	next := newEtag()
	query := `UPDATE documents SET data = $1, etag = $2, updated_at = now()
		WHERE collection = $3 AND partition_key = $4 AND id = $5 AND etag = $6
		RETURNING updated_at`
	err := s.db.QueryRow(ctx, query, doc.Data, next, collection, partitionKey, id, etag).Scan(&doc.Timestamp)
	if err == nil {
		doc.ID = id
		doc.PartitionKey = partitionKey
		doc.Etag = next
		return doc, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Document{}, fmt.Errorf("update document %s/%s: %w", collection, id, err)
	}

	// Zero rows: distinguish a stale etag from a missing document.
	if _, readErr := s.Read(ctx, collection, partitionKey, id); readErr != nil {
		return Document{}, readErr
	}
	return Document{}, ErrPreconditionFailed
}

// Upsert creates or replaces a document. A non-empty etag makes the replace
// conditional; inserting a fresh document is always allowed.
func (s *PostgresStore) Upsert(ctx context.Context, collection, partitionKey string, doc Document, etag string) (Document, error) {
	next := newEtag()

	var query string
	args := []interface{}{collection, partitionKey, doc.ID, next, doc.Data}
	if etag == "" {
		query = `INSERT INTO documents (collection, partition_key, id, etag, data)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (collection, partition_key, id)
			DO UPDATE SET data = EXCLUDED.data, etag = EXCLUDED.etag, updated_at = now()
			RETURNING updated_at`
	} else {
		query = `INSERT INTO documents (collection, partition_key, id, etag, data)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (collection, partition_key, id)
			DO UPDATE SET data = EXCLUDED.data, etag = EXCLUDED.etag, updated_at = now()
			WHERE documents.etag = $6
			RETURNING updated_at`
		args = append(args, etag)
	}

	err := s.db.QueryRow(ctx, query, args...).Scan(&doc.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The conditional DO UPDATE matched a row with a different etag.
			return Document{}, ErrPreconditionFailed
		}
		return Document{}, fmt.Errorf("upsert document %s/%s: %w", collection, doc.ID, err)
	}
	doc.PartitionKey = partitionKey
	doc.Etag = next
	return doc, nil
}

// Delete removes a document. Missing documents return ErrNotFound.
func (s *PostgresStore) Delete(ctx context.Context, collection, partitionKey, id string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND partition_key = $2 AND id = $3`,
		collection, partitionKey, id)
	if err != nil {
		return fmt.Errorf("delete document %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
