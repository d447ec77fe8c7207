package gateway

import (
	"context"
	"strings"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/apperr"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/models"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/permissions"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/validate"
)

// ListUpdate carries the metadata fields to change; nil means unchanged.
type ListUpdate struct {
	Name         *string   `json:"listName,omitempty"`
	AccessEmails *[]string `json:"accessEmails,omitempty"`
}

// CreateList stores a new list owned by owner and returns it with its id.
func (g *Gateway) CreateList(ctx context.Context, owner, name string, accessEmails []string) (models.ShoppingList, error) {
	const op = "create_list"
	if r := validate.Email(owner); !r.Valid {
		return models.ShoppingList{}, done(op, r.Err())
	}
	r := validate.ListName(name)
	if !r.Valid {
		return models.ShoppingList{}, done(op, r.Err())
	}
	access, err := cleanAccess(owner, accessEmails)
	if err != nil {
		return models.ShoppingList{}, done(op, err)
	}

	now := g.now().UTC()
	list := models.ShoppingList{
		Name:         r.Value,
		Owner:        owner,
		AccessEmails: access,
		Items:        map[string]models.Item{},
		CreatedAt:    now,
		UpdatedAt:    now,
		Position:     0,
	}
	id, err := g.store.Create(ctx, models.CollectionLists, map[string]interface{}{
		models.FieldListName:     list.Name,
		models.FieldOwner:        list.Owner,
		models.FieldAccessEmails: list.AccessEmails,
		models.FieldItems:        map[string]interface{}{},
		models.FieldCreatedAt:    now,
		models.FieldUpdatedAt:    now,
		models.FieldPosition:     0,
	})
	if err != nil {
		return models.ShoppingList{}, done(op, err)
	}
	list.ID = id
	return list, done(op, nil)
}

// UpdateListMetadata renames a list or replaces its access list. Owner only.
func (g *Gateway) UpdateListMetadata(ctx context.Context, actor, listID string, upd ListUpdate) error {
	const op = "update_list"
	fields := map[string]interface{}{}
	if upd.Name != nil {
		r := validate.ListName(*upd.Name)
		if !r.Valid {
			return done(op, r.Err())
		}
		fields[models.FieldListName] = r.Value
	}
	var access []string
	if upd.AccessEmails != nil {
		var err error
		if access, err = cleanAccess("", *upd.AccessEmails); err != nil {
			return done(op, err)
		}
	}
	if len(fields) == 0 && upd.AccessEmails == nil {
		return done(op, apperr.Validation(apperr.CodeRequired, "Nothing to update"))
	}
	list, err := g.loadList(ctx, op, listID)
	if err != nil {
		return done(op, err)
	}
	if !permissions.CanEditMetadata(&list, actor) {
		return done(op, apperr.PermissionDenied(op, "Only the list owner can edit this list"))
	}
	if upd.AccessEmails != nil {
		fields[models.FieldAccessEmails] = withoutEmail(access, list.Owner)
	}
	fields[models.FieldUpdatedAt] = g.now().UTC()
	return done(op, g.store.Update(ctx, models.CollectionLists, listID, fields))
}

func (g *Gateway) DeleteList(ctx context.Context, actor, listID string) error {
	const op = "delete_list"
	list, err := g.loadList(ctx, op, listID)
	if err != nil {
		return done(op, err)
	}
	if !permissions.CanEditMetadata(&list, actor) {
		return done(op, apperr.PermissionDenied(op, "Only the list owner can delete this list"))
	}
	return done(op, g.store.Delete(ctx, models.CollectionLists, listID))
}

// DeleteLists removes every named list in one all-or-nothing batch. Each id
// must be owned by actor; ownership is checked before anything is deleted.
// Repeated ids count once in the returned total.
func (g *Gateway) DeleteLists(ctx context.Context, actor string, listIDs []string) (int, error) {
	const op = "delete_lists"
	if len(listIDs) == 0 {
		return 0, done(op, apperr.Validation(apperr.CodeRequired, "Invalid list IDs"))
	}
	ids := make([]string, 0, len(listIDs))
	seen := make(map[string]struct{}, len(listIDs))
	for _, id := range listIDs {
		if id == "" {
			return 0, done(op, apperr.Validation(apperr.CodeRequired, "Invalid list IDs"))
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	var denied []string
	for _, id := range ids {
		list, err := g.loadList(ctx, op, id)
		if err != nil {
			return 0, done(op, err)
		}
		if !permissions.CanEditMetadata(&list, actor) {
			denied = append(denied, id)
		}
	}
	if len(denied) > 0 {
		e := apperr.PermissionDenied(op, "Only the list owner can delete these lists")
		e.Details = denied
		return 0, done(op, e)
	}
	if err := g.store.BatchDelete(ctx, models.CollectionLists, ids); err != nil {
		return 0, done(op, err)
	}
	return len(ids), done(op, nil)
}

// cleanAccess validates collaborator emails and drops the owner and repeats.
func withoutEmail(emails []string, drop string) []string {
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		if e != drop {
			out = append(out, e)
		}
	}
	return out
}

func cleanAccess(owner string, emails []string) ([]string, error) {
	out := make([]string, 0, len(emails))
	seen := map[string]struct{}{owner: {}}
	var bad []string
	for _, e := range emails {
		e = strings.TrimSpace(e)
		if r := validate.Email(e); !r.Valid {
			bad = append(bad, e)
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	if len(bad) > 0 {
		return nil, apperr.Validation(apperr.CodeInvalidFormat, "Invalid email format", bad...)
	}
	return out, nil
}
