// Package remotestore abstracts the remote document-collection service the
// quiz synchronizes with. Managers depend on the narrow Store interface only;
// a nil Store means the process runs in local-only mode.
package remotestore

import (
	"context"
	"errors"
	"time"
)

// Collections used by the application.
const (
	CollectionQuestions = "questions"
	CollectionResults   = "results"
	CollectionSettings  = "settings"

	// SettingsDocID is the singleton settings document inside CollectionSettings.
	SettingsDocID = "config"
)

// ErrUnavailable reports that the backend could not be reached.
var ErrUnavailable = errors.New("remote store unavailable")

// Document is a single schemaless record of a collection.
type Document struct {
	ID   string
	Data map[string]any
}

// Unsubscribe tears down a live subscription. Safe to call more than once.
type Unsubscribe func()

// SnapshotFunc receives the full collection contents on every upstream change.
type SnapshotFunc func(docs []Document)

// Store is the document-collection service contract.
type Store interface {
	// ListAll returns every document of a collection.
	ListAll(ctx context.Context, collection string) ([]Document, error)
	// GetOne fetches a single document; the bool reports presence.
	GetOne(ctx context.Context, collection, id string) (Document, bool, error)
	// AddOne inserts a document under a generated ID and returns it.
	AddOne(ctx context.Context, collection string, data map[string]any) (string, error)
	// SetOne writes a document under a known ID. With merge set, unspecified
	// fields of an existing document are left untouched.
	SetOne(ctx context.Context, collection, id string, data map[string]any, merge bool) error
	// DeleteOne removes a document. Deleting a missing document is not an error.
	DeleteOne(ctx context.Context, collection, id string) error
	// Subscribe establishes a live feed that emits the full collection snapshot
	// immediately and again after every change.
	Subscribe(ctx context.Context, collection string, fn SnapshotFunc) (Unsubscribe, error)
	// ServerTimestamp returns the backend's notion of now.
	ServerTimestamp(ctx context.Context) (time.Time, error)
	// Ping verifies connectivity.
	Ping(ctx context.Context) error
}

func mergeData(existing, update map[string]any) map[string]any {
	merged := make(map[string]any, len(existing)+len(update))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range update {
		merged[k] = v
	}
	return merged
}
