package lists

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/apperr"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/models"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/store"
	"github.com/stretchr/testify/require"
)

func listDoc(name, owner string, access []string, position int) map[string]interface{} {
	return map[string]interface{}{
		models.FieldListName:     name,
		models.FieldOwner:        owner,
		models.FieldAccessEmails: access,
		models.FieldPosition:     position,
	}
}

// waitFor reads updates until cond holds for the latest value.
func waitFor[T any](t *testing.T, ch <-chan T, cond func(T) bool) T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v, ok := <-ch:
			require.True(t, ok, "view closed")
			if cond(v) {
				return v
			}
		case <-deadline:
			t.Fatal("condition not reached")
		}
	}
}

func names(ls []models.ShoppingList) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.Name)
	}
	return out
}

func TestAggregatorDeduplicatesAcrossQueries(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Set(ctx, models.CollectionLists, "l1", listDoc("Self", "u@x.com", []string{"u@x.com"}, 0)))
	require.NoError(t, s.Set(ctx, models.CollectionLists, "l2", listDoc("Shared", "o@x.com", []string{"u@x.com"}, 0)))
	require.NoError(t, s.Set(ctx, models.CollectionLists, "l3", listDoc("Other", "o@x.com", nil, 0)))

	v, err := NewAggregator(s).Watch(ctx, "u@x.com")
	require.NoError(t, err)
	defer v.Close()

	got := waitFor(t, v.Updates(), func(ls []models.ShoppingList) bool { return len(ls) == 2 })
	require.ElementsMatch(t, []string{"Self", "Shared"}, names(got))
	for _, l := range got {
		require.NotEmpty(t, l.ID)
		require.NotNil(t, l.Items)
	}
}

func TestAggregatorSortsByPositionThenInsertion(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	v, err := NewAggregator(s).Watch(ctx, "u@x.com")
	require.NoError(t, err)
	defer v.Close()
	waitFor(t, v.Updates(), func(ls []models.ShoppingList) bool { return len(ls) == 0 })

	require.NoError(t, s.Set(ctx, models.CollectionLists, "z", listDoc("First", "u@x.com", nil, 0)))
	require.NoError(t, s.Set(ctx, models.CollectionLists, "a", listDoc("Second", "o@x.com", []string{"u@x.com"}, 0)))
	require.NoError(t, s.Set(ctx, models.CollectionLists, "m", listDoc("Early", "u@x.com", nil, -1)))

	got := waitFor(t, v.Updates(), func(ls []models.ShoppingList) bool { return len(ls) == 3 })
	require.Equal(t, []string{"Early", "First", "Second"}, names(got))

	// modifying keeps the insertion slot
	require.NoError(t, s.Update(ctx, models.CollectionLists, "z", map[string]interface{}{models.FieldListName: "Renamed"}))
	got = waitFor(t, v.Updates(), func(ls []models.ShoppingList) bool { return len(ls) == 3 && ls[1].Name == "Renamed" })
	require.Equal(t, []string{"Early", "Renamed", "Second"}, names(got))
}

func TestAggregatorRemovalAcrossQueries(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Set(ctx, models.CollectionLists, "l1", listDoc("Both", "u@x.com", []string{"u@x.com"}, 0)))

	v, err := NewAggregator(s).Watch(ctx, "u@x.com")
	require.NoError(t, err)
	defer v.Close()
	waitFor(t, v.Updates(), func(ls []models.ShoppingList) bool { return len(ls) == 1 })

	// leaves the owner query, still matches the shared one
	require.NoError(t, s.Update(ctx, models.CollectionLists, "l1", map[string]interface{}{models.FieldOwner: "o@x.com"}))
	got := waitFor(t, v.Updates(), func(ls []models.ShoppingList) bool { return len(ls) == 1 && ls[0].Owner == "o@x.com" })
	require.Equal(t, "Both", got[0].Name)

	require.NoError(t, s.Update(ctx, models.CollectionLists, "l1", map[string]interface{}{models.FieldAccessEmails: []string{}}))
	waitFor(t, v.Updates(), func(ls []models.ShoppingList) bool { return len(ls) == 0 })
}

func TestAggregatorDeleteRemovesList(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Set(ctx, models.CollectionLists, "l1", listDoc("A", "u@x.com", nil, 0)))
	require.NoError(t, s.Set(ctx, models.CollectionLists, "l2", listDoc("B", "u@x.com", nil, 0)))

	v, err := NewAggregator(s).Watch(ctx, "u@x.com")
	require.NoError(t, err)
	defer v.Close()
	waitFor(t, v.Updates(), func(ls []models.ShoppingList) bool { return len(ls) == 2 })

	require.NoError(t, s.Delete(ctx, models.CollectionLists, "l1"))
	got := waitFor(t, v.Updates(), func(ls []models.ShoppingList) bool { return len(ls) == 1 })
	require.Equal(t, "B", got[0].Name)
}

func TestAggregatorEmptyEmail(t *testing.T) {
	v, err := NewAggregator(store.NewMemoryStore()).Watch(context.Background(), "")
	require.NoError(t, err)
	got := <-v.Updates()
	require.Empty(t, got)
	v.Close()
	_, ok := <-v.Updates()
	require.False(t, ok)
	require.NoError(t, v.Err())
}

func TestAggregatorCloseStopsUpdates(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	v, err := NewAggregator(s).Watch(ctx, "u@x.com")
	require.NoError(t, err)
	waitFor(t, v.Updates(), func(ls []models.ShoppingList) bool { return true })
	v.Close()

	require.NoError(t, s.Set(ctx, models.CollectionLists, "l1", listDoc("A", "u@x.com", nil, 0)))
	for range v.Updates() {
		t.Fatal("update after close")
	}
}

func TestAggregatorSurfacesTerminalError(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	v, err := NewAggregator(s).Watch(ctx, "u@x.com")
	require.NoError(t, err)
	defer v.Close()
	waitFor(t, v.Updates(), func(ls []models.ShoppingList) bool { return true })

	s.SetUnavailable(true)
	for range v.Updates() {
	}
	require.True(t, errors.Is(v.Err(), apperr.ErrStoreUnavailable))
}

func TestPartitionIndependentOfMapOrder(t *testing.T) {
	items := map[string]models.Item{
		"item_b": {Name: "Eggs", AddedAt: "2024-05-01T10:00:01.000Z", Pending: false},
		"item_a": {Name: "Milk", AddedAt: "2024-05-01T10:00:00.000Z", Pending: true},
		"item_c": {Name: "Bread", AddedAt: "2024-05-01T10:00:02.000Z", Pending: true},
		"item_d": {Name: "Odd", AddedAt: "garbage", Pending: true},
	}
	for i := 0; i < 20; i++ {
		p := Partition(items)
		require.Len(t, p.All, 4)
		require.Equal(t, "Odd", p.All[0].Name)
		require.Equal(t, []string{"Odd", "Milk", "Bread"}, itemNames(p.Pending))
		require.Equal(t, []string{"Eggs"}, itemNames(p.Finished))
		require.Equal(t, "item_b", p.Finished[0].ID)
	}
}

func TestPartitionTiesBreakByID(t *testing.T) {
	items := map[string]models.Item{
		"item_2": {Name: "Two", AddedAt: "2024-05-01T10:00:00.000Z", Pending: true},
		"item_1": {Name: "One", AddedAt: "2024-05-01T10:00:00.000Z", Pending: true},
	}
	require.Equal(t, []string{"One", "Two"}, itemNames(Partition(items).Pending))
}

func itemNames(items []models.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func TestPartitionerLive(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	v, err := NewPartitioner(s).Watch(ctx, "l1")
	require.NoError(t, err)
	defer v.Close()

	first := waitFor(t, v.Updates(), func(Partitions) bool { return true })
	require.False(t, first.Exists)
	require.Empty(t, first.All)

	doc := listDoc("A", "u@x.com", nil, 0)
	doc[models.FieldItems] = map[string]interface{}{
		"item_1": models.Item{Name: "Milk", AddedAt: "2024-05-01T10:00:00.000Z", Pending: true}.Fields(),
	}
	require.NoError(t, s.Set(ctx, models.CollectionLists, "l1", doc))
	got := waitFor(t, v.Updates(), func(p Partitions) bool { return p.Exists && len(p.Pending) == 1 })
	require.Equal(t, "item_1", got.Pending[0].ID)

	require.NoError(t, s.Update(ctx, models.CollectionLists, "l1", map[string]interface{}{models.ItemPath("item_1", "pending"): false}))
	got = waitFor(t, v.Updates(), func(p Partitions) bool { return len(p.Finished) == 1 })
	require.Empty(t, got.Pending)

	require.NoError(t, s.Delete(ctx, models.CollectionLists, "l1"))
	waitFor(t, v.Updates(), func(p Partitions) bool { return !p.Exists && len(p.All) == 0 })
}

func TestPartitionerEmptyListID(t *testing.T) {
	v, err := NewPartitioner(store.NewMemoryStore()).Watch(context.Background(), "")
	require.NoError(t, err)
	got := <-v.Updates()
	require.Empty(t, got.Pending)
	require.Empty(t, got.Finished)
	v.Close()
}
