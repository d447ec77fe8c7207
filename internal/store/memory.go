package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used for local development and tests.
// Documents are kept as JSON-shaped maps so every read decodes from an
// independent copy.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]interface{}
	querySubs   map[string]map[*memQuerySub]struct{}
	docSubs     map[string]map[*memDocSub]struct{}
	unavailable error
}

type memQuerySub struct {
	q       Query
	matched map[string]struct{}
	sub     *Subscription[QueryEvent]
}

type memDocSub struct {
	sub *Subscription[DocEvent]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]interface{}),
		querySubs:   make(map[string]map[*memQuerySub]struct{}),
		docSubs:     make(map[string]map[*memDocSub]struct{}),
	}
}

// SetUnavailable makes every following call fail with ErrUnavailable and
// terminates open subscriptions. Passing false restores service.
func (m *MemoryStore) SetUnavailable(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !down {
		m.unavailable = nil
		return
	}
	m.unavailable = fmt.Errorf("%w: memory store offline", ErrUnavailable)
	for _, subs := range m.querySubs {
		for s := range subs {
			s.sub.fail(m.unavailable)
		}
	}
	for _, subs := range m.docSubs {
		for s := range subs {
			s.sub.fail(m.unavailable)
		}
	}
}

func (m *MemoryStore) Create(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	id := uuid.NewString()
	if err := m.Set(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (m *MemoryStore) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.unavailable != nil {
		return Snapshot{}, m.unavailable
	}
	doc, ok := m.collections[collection][id]
	if !ok {
		return Snapshot{ID: id}, ErrNotFound
	}
	return snapshotOf(id, doc), nil
}

func (m *MemoryStore) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := normalize(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable != nil {
		return m.unavailable
	}
	col, ok := m.collections[collection]
	if !ok {
		col = make(map[string]map[string]interface{})
		m.collections[collection] = col
	}
	col[id] = doc
	m.notify(collection, id, doc)
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	return m.update(ctx, collection, id, "", fields)
}

func (m *MemoryStore) UpdateExisting(ctx context.Context, collection, id, require string, fields map[string]interface{}) error {
	return m.update(ctx, collection, id, require, fields)
}

func (m *MemoryStore) update(ctx context.Context, collection, id, require string, fields map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable != nil {
		return m.unavailable
	}
	doc, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	if require != "" {
		if _, present := lookup(doc, require); !present {
			return ErrNotFound
		}
	}
	// apply to a copy so a bad value leaves the document untouched
	next, err := normalize(doc)
	if err != nil {
		return err
	}
	paths := make([]string, 0, len(fields))
	for p := range fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := applyPath(next, p, fields[p]); err != nil {
			return err
		}
	}
	m.collections[collection][id] = next
	m.notify(collection, id, next)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable != nil {
		return m.unavailable
	}
	if _, ok := m.collections[collection][id]; !ok {
		return ErrNotFound
	}
	delete(m.collections[collection], id)
	m.notify(collection, id, nil)
	return nil
}

func (m *MemoryStore) BatchDelete(ctx context.Context, collection string, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable != nil {
		return m.unavailable
	}
	col := m.collections[collection]
	for _, id := range ids {
		if _, ok := col[id]; !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	}
	for _, id := range ids {
		if _, ok := col[id]; !ok {
			continue
		}
		delete(col, id)
		m.notify(collection, id, nil)
	}
	return nil
}

func (m *MemoryStore) SubscribeQuery(ctx context.Context, collection string, q Query) (*Subscription[QueryEvent], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable != nil {
		return nil, m.unavailable
	}
	qs := &memQuerySub{q: q, matched: make(map[string]struct{})}
	qs.sub = newSubscription[QueryEvent](ctx, "query", func() {
		m.mu.Lock()
		delete(m.querySubs[collection], qs)
		m.mu.Unlock()
	})

	ids := make([]string, 0)
	for id, doc := range m.collections[collection] {
		if q.Matches(doc) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	initial := QueryEvent{Changes: make([]Change, 0, len(ids))}
	for _, id := range ids {
		qs.matched[id] = struct{}{}
		initial.Changes = append(initial.Changes, Change{Kind: Added, ID: id, Doc: snapshotOf(id, m.collections[collection][id])})
	}
	qs.sub.push(initial)

	if m.querySubs[collection] == nil {
		m.querySubs[collection] = make(map[*memQuerySub]struct{})
	}
	m.querySubs[collection][qs] = struct{}{}
	return qs.sub, nil
}

func (m *MemoryStore) SubscribeDocument(ctx context.Context, collection, id string) (*Subscription[DocEvent], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable != nil {
		return nil, m.unavailable
	}
	key := collection + "/" + id
	ds := &memDocSub{}
	ds.sub = newSubscription[DocEvent](ctx, "document", func() {
		m.mu.Lock()
		delete(m.docSubs[key], ds)
		m.mu.Unlock()
	})
	snap := Snapshot{ID: id}
	if doc, ok := m.collections[collection][id]; ok {
		snap = snapshotOf(id, doc)
	}
	ds.sub.push(DocEvent{Snapshot: snap})

	if m.docSubs[key] == nil {
		m.docSubs[key] = make(map[*memDocSub]struct{})
	}
	m.docSubs[key][ds] = struct{}{}
	return ds.sub, nil
}

// notify fans a write out to listeners. doc is nil for a delete. Called with
// m.mu held.
func (m *MemoryStore) notify(collection, id string, doc map[string]interface{}) {
	for qs := range m.querySubs[collection] {
		_, was := qs.matched[id]
		is := doc != nil && qs.q.Matches(doc)
		var ch Change
		switch {
		case is && !was:
			qs.matched[id] = struct{}{}
			ch = Change{Kind: Added, ID: id, Doc: snapshotOf(id, doc)}
		case is && was:
			ch = Change{Kind: Modified, ID: id, Doc: snapshotOf(id, doc)}
		case !is && was:
			delete(qs.matched, id)
			ch = Change{Kind: Removed, ID: id, Doc: Snapshot{ID: id}}
		default:
			continue
		}
		qs.sub.push(QueryEvent{Changes: []Change{ch}})
	}
	snap := Snapshot{ID: id}
	if doc != nil {
		snap = snapshotOf(id, doc)
	}
	for ds := range m.docSubs[collection+"/"+id] {
		ds.sub.push(DocEvent{Snapshot: snap})
	}
}

func snapshotOf(id string, doc map[string]interface{}) Snapshot {
	raw, err := json.Marshal(doc)
	return Snapshot{
		ID:     id,
		Exists: true,
		decode: func(v interface{}) error {
			if err != nil {
				return err
			}
			return json.Unmarshal(raw, v)
		},
	}
}

// normalize deep-copies data into plain JSON types.
func normalize(data map[string]interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	out := make(map[string]interface{})
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

func normalizeValue(v interface{}) (interface{}, error) {
	wrapped, err := normalize(map[string]interface{}{"v": v})
	if err != nil {
		return nil, err
	}
	return wrapped["v"], nil
}

// applyPath writes value at a dotted path, creating intermediate maps.
func applyPath(doc map[string]interface{}, path string, value interface{}) error {
	parts := strings.Split(path, ".")
	cur := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]interface{})
		if !ok {
			if value == Delete {
				return nil
			}
			next = make(map[string]interface{})
			cur[part] = next
		}
		cur = next
	}
	leaf := parts[len(parts)-1]
	if value == Delete {
		delete(cur, leaf)
		return nil
	}
	v, err := normalizeValue(value)
	if err != nil {
		return err
	}
	cur[leaf] = v
	return nil
}
