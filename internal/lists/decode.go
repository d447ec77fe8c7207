// Package lists holds the live read side of shopping lists: the aggregator
// merging owned and shared lists, and the partitioner splitting one list's
// items into pending and finished.
package lists

import (
	"fmt"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/models"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/store"
)

// Decode turns a list snapshot into a normalized record carrying its id.
func Decode(snap store.Snapshot) (models.ShoppingList, error) {
	var l models.ShoppingList
	if err := snap.DataTo(&l); err != nil {
		return models.ShoppingList{}, fmt.Errorf("decode list %s: %w", snap.ID, err)
	}
	l.ID = snap.ID
	l.Normalize()
	return l, nil
}

// publish replaces any undelivered value so readers only see the latest. The
// caller must be the channel's only sender.
func publish[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
