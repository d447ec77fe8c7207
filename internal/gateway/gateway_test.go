package gateway

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/apperr"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/lists"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/models"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore counts write calls reaching the wrapped store.
type countingStore struct {
	store.Store
	writes atomic.Int32
}

func (c *countingStore) Create(ctx context.Context, col string, data map[string]interface{}) (string, error) {
	c.writes.Add(1)
	return c.Store.Create(ctx, col, data)
}

func (c *countingStore) Set(ctx context.Context, col, id string, data map[string]interface{}) error {
	c.writes.Add(1)
	return c.Store.Set(ctx, col, id, data)
}

func (c *countingStore) Update(ctx context.Context, col, id string, fields map[string]interface{}) error {
	c.writes.Add(1)
	return c.Store.Update(ctx, col, id, fields)
}

func (c *countingStore) UpdateExisting(ctx context.Context, col, id, path string, fields map[string]interface{}) error {
	c.writes.Add(1)
	return c.Store.UpdateExisting(ctx, col, id, path, fields)
}

func (c *countingStore) Delete(ctx context.Context, col, id string) error {
	c.writes.Add(1)
	return c.Store.Delete(ctx, col, id)
}

func (c *countingStore) BatchDelete(ctx context.Context, col string, ids []string) error {
	c.writes.Add(1)
	return c.Store.BatchDelete(ctx, col, ids)
}

// readCountingStore counts document reads.
type readCountingStore struct {
	store.Store
	reads atomic.Int32
}

func (r *readCountingStore) Get(ctx context.Context, col, id string) (store.Snapshot, error) {
	r.reads.Add(1)
	return r.Store.Get(ctx, col, id)
}

// racingStore runs before ahead of a guarded write, standing in for a
// concurrent client that changes the document between read and write.
type racingStore struct {
	store.Store
	before func()
}

func (r *racingStore) UpdateExisting(ctx context.Context, col, id, path string, fields map[string]interface{}) error {
	if r.before != nil {
		r.before()
	}
	return r.Store.UpdateExisting(ctx, col, id, path, fields)
}

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Gateway, *countingStore, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	cs := &countingStore{Store: mem}
	g := New(cs, WithClock(func() time.Time { return fixedNow }))
	return g, cs, mem
}

func getList(t *testing.T, s store.Store, id string) models.ShoppingList {
	t.Helper()
	snap, err := s.Get(context.Background(), models.CollectionLists, id)
	require.NoError(t, err)
	l, err := lists.Decode(snap)
	require.NoError(t, err)
	return l
}

func newList(t *testing.T, g *Gateway, owner string, access ...string) string {
	t.Helper()
	l, err := g.CreateList(context.Background(), owner, "Groceries", access)
	require.NoError(t, err)
	return l.ID
}

func TestCreateListStripsOwnerAndDuplicates(t *testing.T) {
	g, _, mem := setup(t)
	l, err := g.CreateList(context.Background(), "a@x.com", "  Groceries  ", []string{"b@x.com", "a@x.com", "b@x.com"})
	require.NoError(t, err)
	require.NotEmpty(t, l.ID)

	got := getList(t, mem, l.ID)
	assert.Equal(t, "Groceries", got.Name)
	assert.Equal(t, "a@x.com", got.Owner)
	assert.Equal(t, []string{"b@x.com"}, got.AccessEmails)
	assert.Empty(t, got.Items)
	assert.Equal(t, 0, got.Position)
	assert.True(t, got.CreatedAt.Equal(fixedNow))
}

func TestCreateListValidationWritesNothing(t *testing.T) {
	g, cs, _ := setup(t)
	_, err := g.CreateList(context.Background(), "a@x.com", "   ", nil)
	require.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = g.CreateList(context.Background(), "a@x.com", strings.Repeat("x", 101), nil)
	require.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = g.CreateList(context.Background(), "a@x.com", "ok", []string{"not-an-email"})
	require.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t, int32(0), cs.writes.Load())
}

func TestCollaboratorCannotEditMetadata(t *testing.T) {
	g, cs, mem := setup(t)
	ctx := context.Background()
	id := newList(t, g, "a@x.com", "b@x.com")
	before := cs.writes.Load()

	name := "Renamed"
	err := g.UpdateListMetadata(ctx, "b@x.com", id, ListUpdate{Name: &name})
	require.True(t, errors.Is(err, apperr.ErrPermissionDenied))
	require.True(t, errors.Is(g.DeleteList(ctx, "b@x.com", id), apperr.ErrPermissionDenied))
	assert.Equal(t, before, cs.writes.Load())

	// but may manage items
	_, err = g.AddItem(ctx, "b@x.com", id, "Milk")
	require.NoError(t, err)

	later := fixedNow.Add(time.Hour)
	g.now = func() time.Time { return later }
	access := []string{"c@x.com", "a@x.com"}
	require.NoError(t, g.UpdateListMetadata(ctx, "a@x.com", id, ListUpdate{Name: &name, AccessEmails: &access}))
	got := getList(t, mem, id)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, []string{"c@x.com"}, got.AccessEmails)
	assert.True(t, got.UpdatedAt.Equal(later))
}

func TestUpdateListMetadataRejectsBadEmailsBeforeRead(t *testing.T) {
	g, cs, mem := setup(t)
	id := newList(t, g, "a@x.com", "b@x.com")
	before := cs.writes.Load()
	reads := &readCountingStore{Store: cs}
	g.store = reads

	access := []string{"c@x.com", "not-an-email"}
	err := g.UpdateListMetadata(context.Background(), "b@x.com", id, ListUpdate{AccessEmails: &access})
	require.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t, int32(0), reads.reads.Load())
	assert.Equal(t, before, cs.writes.Load())
	assert.Equal(t, []string{"b@x.com"}, getList(t, mem, id).AccessEmails)
}

func TestOutsiderCannotManageItems(t *testing.T) {
	g, cs, _ := setup(t)
	id := newList(t, g, "a@x.com")
	before := cs.writes.Load()
	_, err := g.AddItems(context.Background(), "z@x.com", id, "Milk")
	require.True(t, errors.Is(err, apperr.ErrPermissionDenied))
	assert.Equal(t, before, cs.writes.Load())
}

func TestAddItemsBulk(t *testing.T) {
	g, _, mem := setup(t)
	id := newList(t, g, "a@x.com")

	items, err := g.AddItems(context.Background(), "a@x.com", id, "Milk\n\nEggs\r\n  Bread  ")
	require.NoError(t, err)
	require.Len(t, items, 3)

	got := getList(t, mem, id)
	require.Len(t, got.Items, 3)
	p := lists.Partition(got.Items)
	names := []string{p.All[0].Name, p.All[1].Name, p.All[2].Name}
	assert.Equal(t, []string{"Milk", "Eggs", "Bread"}, names)
	assert.True(t, p.All[0].AddedTime().Before(p.All[1].AddedTime()))
	assert.True(t, p.All[1].AddedTime().Before(p.All[2].AddedTime()))
	for _, it := range p.All {
		assert.True(t, strings.HasPrefix(it.ID, "item_"))
		assert.True(t, it.Pending)
		assert.False(t, it.Important)
		assert.Equal(t, "a@x.com", it.AddedBy)
	}
}

func TestAddItemsRejectsWholeBatch(t *testing.T) {
	g, cs, mem := setup(t)
	id := newList(t, g, "a@x.com")
	before := cs.writes.Load()

	_, err := g.AddItems(context.Background(), "a@x.com", id, "Milk\n"+strings.Repeat("x", 201)+"\nEggs")
	require.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Contains(t, apperr.Message(err), "line 2")
	assert.Equal(t, before, cs.writes.Load())
	assert.Empty(t, getList(t, mem, id).Items)

	// blank lines still count toward the reported position
	_, err = g.AddItems(context.Background(), "a@x.com", id, "Milk\n\n"+strings.Repeat("x", 201))
	require.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Contains(t, apperr.Message(err), "line 3")

	_, err = g.AddItems(context.Background(), "a@x.com", id, " \n\n")
	require.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestToggleRenameDeleteItem(t *testing.T) {
	g, _, mem := setup(t)
	ctx := context.Background()
	id := newList(t, g, "a@x.com", "b@x.com")
	it, err := g.AddItem(ctx, "a@x.com", id, "Milk")
	require.NoError(t, err)

	pending, err := g.ToggleItemStatus(ctx, "b@x.com", id, it.ID)
	require.NoError(t, err)
	assert.False(t, pending)
	important, err := g.ToggleItemImportant(ctx, "b@x.com", id, it.ID)
	require.NoError(t, err)
	assert.True(t, important)
	require.NoError(t, g.RenameItem(ctx, "a@x.com", id, it.ID, " Oat milk "))

	got := getList(t, mem, id).Items[it.ID]
	assert.False(t, got.Pending)
	assert.True(t, got.Important)
	assert.Equal(t, "Oat milk", got.Name)

	require.NoError(t, g.DeleteItem(ctx, "a@x.com", id, it.ID))
	assert.Empty(t, getList(t, mem, id).Items)

	_, err = g.ToggleItemStatus(ctx, "a@x.com", id, it.ID)
	require.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestItemWritesDoNotResurrectDeletedItem(t *testing.T) {
	mem := store.NewMemoryStore()
	rs := &racingStore{Store: mem}
	g := New(rs, WithClock(func() time.Time { return fixedNow }))
	ctx := context.Background()
	id := newList(t, g, "a@x.com")

	writes := map[string]func(itemID string) error{
		"toggle_status": func(itemID string) error {
			_, err := g.ToggleItemStatus(ctx, "a@x.com", id, itemID)
			return err
		},
		"toggle_important": func(itemID string) error {
			_, err := g.ToggleItemImportant(ctx, "a@x.com", id, itemID)
			return err
		},
		"rename": func(itemID string) error {
			return g.RenameItem(ctx, "a@x.com", id, itemID, "Oat milk")
		},
		"delete": func(itemID string) error {
			return g.DeleteItem(ctx, "a@x.com", id, itemID)
		},
	}
	for name, write := range writes {
		t.Run(name, func(t *testing.T) {
			it, err := g.AddItem(ctx, "a@x.com", id, "Milk")
			require.NoError(t, err)
			rs.before = func() {
				require.NoError(t, mem.Update(ctx, models.CollectionLists, id, map[string]interface{}{models.ItemPath(it.ID): store.Delete}))
			}
			defer func() { rs.before = nil }()

			err = write(it.ID)
			require.True(t, errors.Is(err, apperr.ErrNotFound), "got %v", err)
			assert.NotContains(t, getList(t, mem, id).Items, it.ID)
		})
	}
}

func TestClearFinishedAndDeleteItems(t *testing.T) {
	g, _, mem := setup(t)
	ctx := context.Background()
	id := newList(t, g, "a@x.com")
	items, err := g.AddItems(ctx, "a@x.com", id, "A\nB\nC")
	require.NoError(t, err)
	_, err = g.ToggleItemStatus(ctx, "a@x.com", id, items[0].ID)
	require.NoError(t, err)

	n, err := g.ClearFinished(ctx, "a@x.com", id)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, getList(t, mem, id).Items, 2)

	n, err = g.DeleteItems(ctx, "a@x.com", id, []string{items[1].ID, "item_unknown"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	remaining := getList(t, mem, id).Items
	require.Len(t, remaining, 1)
	assert.Contains(t, remaining, items[2].ID)
}

func TestDeleteListsRejectsNonOwnedBeforeWrite(t *testing.T) {
	g, cs, mem := setup(t)
	ctx := context.Background()
	mine := newList(t, g, "a@x.com")
	theirs := newList(t, g, "o@x.com", "a@x.com")
	before := cs.writes.Load()

	_, err := g.DeleteLists(ctx, "a@x.com", []string{mine, theirs})
	require.True(t, errors.Is(err, apperr.ErrPermissionDenied))
	assert.Equal(t, before, cs.writes.Load())
	getList(t, mem, mine)

	_, err = g.DeleteLists(ctx, "a@x.com", nil)
	require.True(t, errors.Is(err, apperr.ErrValidation))

	other := newList(t, g, "a@x.com")
	n, err := g.DeleteLists(ctx, "a@x.com", []string{mine, other, mine})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = mem.Get(ctx, models.CollectionLists, mine)
	require.True(t, errors.Is(err, store.ErrNotFound))
}

func TestDeleteListMissing(t *testing.T) {
	g, _, _ := setup(t)
	err := g.DeleteList(context.Background(), "a@x.com", "nope")
	require.True(t, errors.Is(err, apperr.ErrNotFound))
}

func seedUser(t *testing.T, s store.Store, email string) {
	t.Helper()
	require.NoError(t, s.Set(context.Background(), models.CollectionUsers, email, map[string]interface{}{
		models.FieldUserName:   "A",
		models.FieldFriendsMap: map[string]string{},
	}))
}

func TestAddFriend(t *testing.T) {
	g, _, mem := setup(t)
	ctx := context.Background()
	seedUser(t, mem, "a@x.com")

	err := g.AddFriend(ctx, "a@x.com", "A@X.com", "Self")
	require.True(t, errors.Is(err, apperr.ErrSelfReference))

	require.NoError(t, g.AddFriend(ctx, "a@x.com", "b@x.com", "B"))
	err = g.AddFriend(ctx, "a@x.com", "b@x.com", "B")
	require.True(t, errors.Is(err, apperr.ErrAlreadyExists))

	require.True(t, errors.Is(g.AddFriend(ctx, "a@x.com", "bad", "B"), apperr.ErrValidation))
	require.True(t, errors.Is(g.AddFriend(ctx, "a@x.com", "c@x.com", " "), apperr.ErrValidation))
	require.True(t, errors.Is(g.AddFriend(ctx, "ghost@x.com", "c@x.com", "C"), apperr.ErrNotFound))

	snap, err := mem.Get(ctx, models.CollectionUsers, "a@x.com")
	require.NoError(t, err)
	var u models.User
	require.NoError(t, snap.DataTo(&u))
	assert.Equal(t, map[string]string{"b@x.com": "B"}, u.FriendsMap)
}

func TestRemoveFriendIdempotent(t *testing.T) {
	g, _, mem := setup(t)
	ctx := context.Background()
	seedUser(t, mem, "a@x.com")
	require.NoError(t, g.AddFriend(ctx, "a@x.com", "b@x.com", "B"))

	require.NoError(t, g.RemoveFriend(ctx, "a@x.com", "b@x.com"))
	require.NoError(t, g.RemoveFriend(ctx, "a@x.com", "b@x.com"))

	snap, err := mem.Get(ctx, models.CollectionUsers, "a@x.com")
	require.NoError(t, err)
	var u models.User
	require.NoError(t, snap.DataTo(&u))
	assert.Empty(t, u.FriendsMap)
}

func TestStoreFailuresMapToKinds(t *testing.T) {
	g, _, mem := setup(t)
	id := newList(t, g, "a@x.com")
	mem.SetUnavailable(true)

	_, err := g.AddItem(context.Background(), "a@x.com", id, "Milk")
	require.True(t, errors.Is(err, apperr.ErrStoreUnavailable))
	assert.Equal(t, apperr.KindStoreUnavailable, apperr.KindOf(err))
}

func TestCheckAccess(t *testing.T) {
	g, cs, _ := setup(t)
	ctx := context.Background()
	id := newList(t, g, "a@x.com", "b@x.com")
	before := cs.writes.Load()

	require.NoError(t, g.CheckAccess(ctx, "a@x.com", id))
	require.NoError(t, g.CheckAccess(ctx, "b@x.com", id))
	require.True(t, errors.Is(g.CheckAccess(ctx, "z@x.com", id), apperr.ErrPermissionDenied))
	require.True(t, errors.Is(g.CheckAccess(ctx, "a@x.com", "missing"), apperr.ErrNotFound))
	require.True(t, errors.Is(g.CheckAccess(ctx, "a@x.com", ""), apperr.ErrValidation))
	assert.Equal(t, before, cs.writes.Load())
}
