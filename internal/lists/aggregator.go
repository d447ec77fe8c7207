package lists

import (
	"context"
	"sort"
	"sync"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/apperr"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/models"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/store"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/logger"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/metrics"
)

// Aggregator builds live views of every list a user owns or collaborates on.
type Aggregator struct {
	store store.Store
}

func NewAggregator(s store.Store) *Aggregator {
	return &Aggregator{store: s}
}

// ListsView is one user's live list collection. Each value on Updates is a
// fresh slice sorted by position; ties keep the order lists were first seen.
// Updates is closed after Close or a subscription failure, which Err reports.
type ListsView struct {
	updates chan []models.ShoppingList
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup

	mu  sync.Mutex
	err error
}

func (v *ListsView) Updates() <-chan []models.ShoppingList { return v.updates }

func (v *ListsView) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Close tears both subscriptions down; nothing is published after it returns.
func (v *ListsView) Close() {
	v.once.Do(func() { close(v.done) })
	v.wg.Wait()
}

// Watch subscribes to the lists owned by email and the lists shared with it.
// An empty email yields one empty collection and opens nothing.
func (a *Aggregator) Watch(ctx context.Context, email string) (*ListsView, error) {
	v := &ListsView{
		updates: make(chan []models.ShoppingList, 1),
		done:    make(chan struct{}),
	}
	if email == "" {
		v.updates <- []models.ShoppingList{}
		v.wg.Add(1)
		go func() {
			defer v.wg.Done()
			defer close(v.updates)
			select {
			case <-v.done:
			case <-ctx.Done():
			}
		}()
		return v, nil
	}

	owned, err := a.store.SubscribeQuery(ctx, models.CollectionLists, store.Where(models.FieldOwner, store.OpEqual, email))
	if err != nil {
		return nil, apperr.FromStore("watch_lists", err)
	}
	shared, err := a.store.SubscribeQuery(ctx, models.CollectionLists, store.Where(models.FieldAccessEmails, store.OpArrayContains, email))
	if err != nil {
		owned.Close()
		return nil, apperr.FromStore("watch_lists", err)
	}

	v.wg.Add(1)
	go v.run(ctx, owned, shared)
	return v, nil
}

func (v *ListsView) run(ctx context.Context, owned, shared *store.Subscription[store.QueryEvent]) {
	defer v.wg.Done()
	defer close(v.updates)
	defer shared.Close()
	defer owned.Close()

	const (
		fromOwned uint8 = 1 << iota
		fromShared
	)
	var (
		byID = make(map[string]models.ShoppingList)
		// which queries currently report each id; a list leaves the view
		// only when neither does
		sources = make(map[string]uint8)
		order   []string
		// publish only once both initial result sets are in
		pendingInitial = 2
	)

	apply := func(src uint8, ev store.QueryEvent) {
		for _, ch := range ev.Changes {
			if ch.Kind == store.Removed {
				sources[ch.ID] &^= src
				if sources[ch.ID] != 0 {
					continue
				}
				delete(sources, ch.ID)
				if _, ok := byID[ch.ID]; ok {
					delete(byID, ch.ID)
					order = removeID(order, ch.ID)
				}
				continue
			}
			sources[ch.ID] |= src
			l, err := Decode(ch.Doc)
			if err != nil {
				logger.Warnf("lists: skipping undecodable list %s: %v", ch.ID, err)
				continue
			}
			if _, ok := byID[ch.ID]; !ok {
				order = append(order, ch.ID)
			}
			byID[ch.ID] = l
		}
	}

	ownedCh, sharedCh := owned.Events(), shared.Events()
	for ownedCh != nil || sharedCh != nil {
		var sub *store.Subscription[store.QueryEvent]
		var src uint8
		var ev store.QueryEvent
		var ok bool
		select {
		case <-v.done:
			return
		case <-ctx.Done():
			return
		case ev, ok = <-ownedCh:
			sub, src = owned, fromOwned
			if !ok {
				ownedCh = nil
			}
		case ev, ok = <-sharedCh:
			sub, src = shared, fromShared
			if !ok {
				sharedCh = nil
			}
		}
		if !ok {
			if err := sub.Err(); err != nil {
				v.fail(err)
				return
			}
			continue
		}
		apply(src, ev)
		if pendingInitial > 0 {
			pendingInitial--
			if pendingInitial > 0 {
				continue
			}
		}
		publish(v.updates, snapshot(byID, order))
		metrics.LivePublishes.WithLabelValues("lists").Inc()
	}
}

func (v *ListsView) fail(err error) {
	logger.Errorf("lists: subscription failed: %v", err)
	v.mu.Lock()
	v.err = apperr.FromStore("watch_lists", err)
	v.mu.Unlock()
}

// snapshot returns the lists stable-sorted by position over insertion order.
func snapshot(byID map[string]models.ShoppingList, order []string) []models.ShoppingList {
	out := make([]models.ShoppingList, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func removeID(order []string, id string) []string {
	for i, o := range order {
		if o == id {
			return append(order[:i:i], order[i+1:]...)
		}
	}
	return order
}
