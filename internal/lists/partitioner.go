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

// Partitions is one list's items ordered by addedAt and split by status.
type Partitions struct {
	All      []models.Item `json:"all"`
	Pending  []models.Item `json:"pending"`
	Finished []models.Item `json:"finished"`
	// Exists is false when the list document is missing.
	Exists bool `json:"exists"`
}

func emptyPartitions() Partitions {
	return Partitions{All: []models.Item{}, Pending: []models.Item{}, Finished: []models.Item{}}
}

// Partition sorts items by parsed addedAt, oldest first, and splits them.
// Unparsable timestamps sort as the epoch; equal times fall back to item id.
func Partition(items map[string]models.Item) Partitions {
	p := emptyPartitions()
	for id, it := range items {
		it.ID = id
		p.All = append(p.All, it)
	}
	sort.SliceStable(p.All, func(i, j int) bool {
		ti, tj := p.All[i].AddedTime(), p.All[j].AddedTime()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return p.All[i].ID < p.All[j].ID
	})
	for _, it := range p.All {
		if it.Pending {
			p.Pending = append(p.Pending, it)
		} else {
			p.Finished = append(p.Finished, it)
		}
	}
	return p
}

type Partitioner struct {
	store store.Store
}

func NewPartitioner(s store.Store) *Partitioner {
	return &Partitioner{store: s}
}

// ItemsView is the live partitioned item set of one list.
type ItemsView struct {
	updates chan Partitions
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup

	mu  sync.Mutex
	err error
}

func (v *ItemsView) Updates() <-chan Partitions { return v.updates }

func (v *ItemsView) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

func (v *ItemsView) Close() {
	v.once.Do(func() { close(v.done) })
	v.wg.Wait()
}

// Watch recomputes the partitions on every snapshot of the list. An empty
// list id yields empty partitions and opens nothing.
func (p *Partitioner) Watch(ctx context.Context, listID string) (*ItemsView, error) {
	v := &ItemsView{
		updates: make(chan Partitions, 1),
		done:    make(chan struct{}),
	}
	if listID == "" {
		v.updates <- emptyPartitions()
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

	sub, err := p.store.SubscribeDocument(ctx, models.CollectionLists, listID)
	if err != nil {
		return nil, apperr.FromStore("watch_items", err)
	}
	v.wg.Add(1)
	go v.run(ctx, sub)
	return v, nil
}

func (v *ItemsView) run(ctx context.Context, sub *store.Subscription[store.DocEvent]) {
	defer v.wg.Done()
	defer close(v.updates)
	defer sub.Close()

	for {
		select {
		case <-v.done:
			return
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				if err := sub.Err(); err != nil {
					logger.Errorf("lists: item subscription failed: %v", err)
					v.mu.Lock()
					v.err = apperr.FromStore("watch_items", err)
					v.mu.Unlock()
				}
				return
			}
			publish(v.updates, partitionSnapshot(ev.Snapshot))
			metrics.LivePublishes.WithLabelValues("items").Inc()
		}
	}
}

func partitionSnapshot(snap store.Snapshot) Partitions {
	if !snap.Exists {
		return emptyPartitions()
	}
	l, err := Decode(snap)
	if err != nil {
		logger.Warnf("lists: undecodable list %s: %v", snap.ID, err)
		return emptyPartitions()
	}
	p := Partition(l.Items)
	p.Exists = true
	return p
}
