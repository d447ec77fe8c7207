// Package store is the document store adapter: per-document CRUD, dotted
// field-path updates, all-or-nothing batch deletes and live subscriptions on
// queries and single documents.
package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrUnavailable = errors.New("document store unavailable")
)

type deleteField struct{}

// Delete is the sentinel field value meaning "remove this field" in Update.
var Delete interface{} = deleteField{}

// Store is the contract the core consumes. Implementations: MemoryStore and
// MongoStore.
type Store interface {
	// Create inserts a document under a store-assigned id and returns the id.
	Create(ctx context.Context, collection string, data map[string]interface{}) (string, error)
	Get(ctx context.Context, collection, id string) (Snapshot, error)
	// Set creates or replaces the document.
	Set(ctx context.Context, collection, id string, data map[string]interface{}) error
	// Update writes the given dotted field paths; a value of Delete removes
	// the field. Fails with ErrNotFound when the document is absent.
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	// UpdateExisting is Update guarded by require: the write applies only
	// while the dotted path require is present in the document, otherwise
	// ErrNotFound and nothing changes.
	UpdateExisting(ctx context.Context, collection, id, require string, fields map[string]interface{}) error
	Delete(ctx context.Context, collection, id string) error
	// BatchDelete removes every id or none of them.
	BatchDelete(ctx context.Context, collection string, ids []string) error

	SubscribeQuery(ctx context.Context, collection string, q Query) (*Subscription[QueryEvent], error)
	SubscribeDocument(ctx context.Context, collection, id string) (*Subscription[DocEvent], error)
}

// Snapshot is an immutable view of a document at one point in time.
type Snapshot struct {
	ID     string
	Exists bool
	decode func(v interface{}) error
}

// DataTo decodes the document into v.
func (s Snapshot) DataTo(v interface{}) error {
	if !s.Exists || s.decode == nil {
		return ErrNotFound
	}
	return s.decode(v)
}

type ChangeKind int

const (
	Added ChangeKind = iota
	Modified
	Removed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Modified:
		return "modified"
	}
	return "removed"
}

// Change is one per-document entry of a query notification. Doc is empty for
// Removed.
type Change struct {
	Kind ChangeKind
	ID   string
	Doc  Snapshot
}

// QueryEvent is one notification batch of a query subscription. The first
// event carries the initial result set as Added changes.
type QueryEvent struct {
	Changes []Change
}

// DocEvent carries the current state of a watched document.
type DocEvent struct {
	Snapshot Snapshot
}
