package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/apperr"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/models"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/permissions"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/store"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/validate"
)

// memberList loads the list and checks that actor may manage its items.
func (g *Gateway) memberList(ctx context.Context, op, actor, listID string) (models.ShoppingList, error) {
	list, err := g.loadList(ctx, op, listID)
	if err != nil {
		return list, err
	}
	if !permissions.CanManageItems(&list, actor) {
		return list, apperr.PermissionDenied(op, "You do not have access to this list")
	}
	return list, nil
}

// CheckAccess reports whether actor may read and manage the items of listID.
func (g *Gateway) CheckAccess(ctx context.Context, actor, listID string) error {
	const op = "check_access"
	if _, err := g.memberList(ctx, op, actor, listID); err != nil {
		return apperr.FromStore(op, err)
	}
	return nil
}

func lookupItem(op string, list models.ShoppingList, itemID string) (models.Item, error) {
	it, ok := list.Items[itemID]
	if !ok || itemID == "" {
		return models.Item{}, apperr.NotFound(op, "Item not found")
	}
	return it, nil
}

// updateItem writes fields of an existing item. An item deleted since it was
// read stays deleted rather than reappearing as a partial entry.
func (g *Gateway) updateItem(ctx context.Context, op, listID, itemID string, fields map[string]interface{}) error {
	err := g.store.UpdateExisting(ctx, models.CollectionLists, listID, models.ItemPath(itemID), fields)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(op, "Item not found")
	}
	return err
}

// AddItems adds one item per non-blank line of text in a single write. Any
// invalid line rejects the whole batch. Items get addedAt stamps one
// millisecond apart so they keep the line order.
func (g *Gateway) AddItems(ctx context.Context, actor, listID, text string) ([]models.Item, error) {
	const op = "add_items"
	lines := validate.Lines(text)
	if len(lines) == 0 {
		return nil, done(op, apperr.Validation(apperr.CodeEmpty, "No items to add"))
	}
	names := make([]string, 0, len(lines))
	var bad []string
	for _, line := range lines {
		r := validate.ItemName(line.Text)
		if !r.Valid {
			bad = append(bad, fmt.Sprintf("line %d: %s", line.No, r.Message))
			continue
		}
		names = append(names, r.Value)
	}
	if len(bad) > 0 {
		return nil, done(op, apperr.Validation(apperr.CodeTooLong, "Invalid items", bad...))
	}
	if _, err := g.memberList(ctx, op, actor, listID); err != nil {
		return nil, done(op, err)
	}

	base := g.now().UTC()
	items := make([]models.Item, 0, len(names))
	fields := make(map[string]interface{}, len(names))
	for i, name := range names {
		at := base.Add(time.Duration(i) * time.Millisecond)
		it := models.Item{
			ID:        g.newItemID(at),
			Name:      name,
			AddedBy:   actor,
			AddedAt:   models.FormatTimestamp(at),
			Pending:   true,
			Important: false,
		}
		items = append(items, it)
		fields[models.ItemPath(it.ID)] = it.Fields()
	}
	if err := g.store.Update(ctx, models.CollectionLists, listID, fields); err != nil {
		return nil, done(op, err)
	}
	return items, done(op, nil)
}

// AddItem adds a single named item.
func (g *Gateway) AddItem(ctx context.Context, actor, listID, name string) (models.Item, error) {
	const op = "add_item"
	r := validate.ItemName(name)
	if !r.Valid {
		return models.Item{}, done(op, r.Err())
	}
	if _, err := g.memberList(ctx, op, actor, listID); err != nil {
		return models.Item{}, done(op, err)
	}
	at := g.now().UTC()
	it := models.Item{
		ID:      g.newItemID(at),
		Name:    r.Value,
		AddedBy: actor,
		AddedAt: models.FormatTimestamp(at),
		Pending: true,
	}
	err := g.store.Update(ctx, models.CollectionLists, listID, map[string]interface{}{models.ItemPath(it.ID): it.Fields()})
	if err != nil {
		return models.Item{}, done(op, err)
	}
	return it, done(op, nil)
}

// ToggleItemStatus flips pending and returns the new value.
func (g *Gateway) ToggleItemStatus(ctx context.Context, actor, listID, itemID string) (bool, error) {
	const op = "toggle_item_status"
	return g.toggle(ctx, op, actor, listID, itemID, "pending", func(it models.Item) bool { return it.Pending })
}

// ToggleItemImportant flips important and returns the new value.
func (g *Gateway) ToggleItemImportant(ctx context.Context, actor, listID, itemID string) (bool, error) {
	const op = "toggle_item_important"
	return g.toggle(ctx, op, actor, listID, itemID, "important", func(it models.Item) bool { return it.Important })
}

func (g *Gateway) toggle(ctx context.Context, op, actor, listID, itemID, field string, current func(models.Item) bool) (bool, error) {
	list, err := g.memberList(ctx, op, actor, listID)
	if err != nil {
		return false, done(op, err)
	}
	it, err := lookupItem(op, list, itemID)
	if err != nil {
		return false, done(op, err)
	}
	next := !current(it)
	if err := g.updateItem(ctx, op, listID, itemID, map[string]interface{}{models.ItemPath(itemID, field): next}); err != nil {
		return false, done(op, err)
	}
	return next, done(op, nil)
}

func (g *Gateway) RenameItem(ctx context.Context, actor, listID, itemID, name string) error {
	const op = "rename_item"
	r := validate.ItemName(name)
	if !r.Valid {
		return done(op, r.Err())
	}
	list, err := g.memberList(ctx, op, actor, listID)
	if err != nil {
		return done(op, err)
	}
	if _, err := lookupItem(op, list, itemID); err != nil {
		return done(op, err)
	}
	return done(op, g.updateItem(ctx, op, listID, itemID, map[string]interface{}{models.ItemPath(itemID, "name"): r.Value}))
}

func (g *Gateway) DeleteItem(ctx context.Context, actor, listID, itemID string) error {
	const op = "delete_item"
	list, err := g.memberList(ctx, op, actor, listID)
	if err != nil {
		return done(op, err)
	}
	if _, err := lookupItem(op, list, itemID); err != nil {
		return done(op, err)
	}
	return done(op, g.updateItem(ctx, op, listID, itemID, map[string]interface{}{models.ItemPath(itemID): store.Delete}))
}

// DeleteItems removes the named items in one write; unknown ids are ignored.
func (g *Gateway) DeleteItems(ctx context.Context, actor, listID string, itemIDs []string) (int, error) {
	const op = "delete_items"
	if len(itemIDs) == 0 {
		return 0, done(op, apperr.Validation(apperr.CodeRequired, "No items selected"))
	}
	list, err := g.memberList(ctx, op, actor, listID)
	if err != nil {
		return 0, done(op, err)
	}
	fields := map[string]interface{}{}
	for _, id := range itemIDs {
		if _, ok := list.Items[id]; ok && id != "" {
			fields[models.ItemPath(id)] = store.Delete
		}
	}
	if len(fields) == 0 {
		return 0, done(op, nil)
	}
	if err := g.store.Update(ctx, models.CollectionLists, listID, fields); err != nil {
		return 0, done(op, err)
	}
	return len(fields), done(op, nil)
}

// ClearFinished removes every item no longer pending and reports how many.
func (g *Gateway) ClearFinished(ctx context.Context, actor, listID string) (int, error) {
	const op = "clear_finished"
	list, err := g.memberList(ctx, op, actor, listID)
	if err != nil {
		return 0, done(op, err)
	}
	fields := map[string]interface{}{}
	for id, it := range list.Items {
		if !it.Pending {
			fields[models.ItemPath(id)] = store.Delete
		}
	}
	if len(fields) == 0 {
		return 0, done(op, nil)
	}
	if err := g.store.Update(ctx, models.CollectionLists, listID, fields); err != nil {
		return 0, done(op, err)
	}
	return len(fields), done(op, nil)
}
