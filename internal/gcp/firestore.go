package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"visionestoque/internal/models"
)

// RecordStore persists extraction audit records to a Firestore collection.
type RecordStore struct {
	client     *firestore.Client
	collection string
}

// NewRecordStore creates a Firestore-backed record store.
func NewRecordStore(ctx context.Context, projectID, collection string) (*RecordStore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection must be provided to create a record store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return &RecordStore{client: client, collection: collection}, nil
}

// SaveRecord writes one extraction record with an auto-generated id.
func (r *RecordStore) SaveRecord(ctx context.Context, rec *models.ExtractionRecord) error {
	if _, _, err := r.client.Collection(r.collection).Add(ctx, rec); err != nil {
		return fmt.Errorf("failed to save extraction record: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (r *RecordStore) Close() error {
	return r.client.Close()
}
