// Package gateway is the only write path into the document store. Every
// mutation is validated, then permission-checked against the current list
// document, then written; failures come back as apperr kinds.
package gateway

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/apperr"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/lists"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/models"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/store"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/logger"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/metrics"
	"github.com/oklog/ulid/v2"
)

type Gateway struct {
	store store.Store
	now   func() time.Time

	idMu    sync.Mutex
	entropy io.Reader
}

type Option func(*Gateway)

// WithClock overrides the time source used for timestamps and item ids.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

func New(s store.Store, opts ...Option) *Gateway {
	g := &Gateway{
		store:   s,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// newItemID returns "item_" plus a ULID stamped with at.
func (g *Gateway) newItemID(at time.Time) string {
	g.idMu.Lock()
	defer g.idMu.Unlock()
	return "item_" + ulid.MustNew(ulid.Timestamp(at), g.entropy).String()
}

// done records the outcome of op and maps store failures onto apperr kinds.
func done(op string, err error) error {
	if err != nil {
		err = apperr.FromStore(op, err)
		kind := apperr.KindOf(err)
		log := logger.With("op", op, "kind", kind.String())
		if kind == apperr.KindUnknown || kind == apperr.KindStoreUnavailable {
			log.Errorf("gateway: %v", err)
		} else {
			log.Debugf("gateway: %v", err)
		}
		metrics.Mutations.WithLabelValues(op, kind.String()).Inc()
		return err
	}
	metrics.Mutations.WithLabelValues(op, "ok").Inc()
	return nil
}

// loadList reads the list that a permission check is made against.
func (g *Gateway) loadList(ctx context.Context, op, listID string) (models.ShoppingList, error) {
	if listID == "" {
		return models.ShoppingList{}, apperr.Validation(apperr.CodeRequired, "List id is required")
	}
	snap, err := g.store.Get(ctx, models.CollectionLists, listID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.ShoppingList{}, apperr.NotFound(op, "List not found")
		}
		return models.ShoppingList{}, err
	}
	return lists.Decode(snap)
}
