package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

type FirestoreHealth struct {
	client *firestore.Client
}

func NewFirestoreHealth(client *firestore.Client) *FirestoreHealth {
	return &FirestoreHealth{client: client}
}

// Ping lists at most one collection. An empty database still answers with
// iterator.Done.
func (h *FirestoreHealth) Ping(ctx context.Context) error {
	_, err := h.client.Collections(ctx).Next()
	if err == iterator.Done {
		return nil
	}
	return err
}
