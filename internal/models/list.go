package models

import (
	"strings"
	"time"
)

// Collection names in the document store.
const (
	CollectionUsers = "Users"
	CollectionLists = "shopping_lists"
)

// Field names of shopping list documents.
const (
	FieldListName     = "listName"
	FieldOwner        = "owner"
	FieldAccessEmails = "accessEmails"
	FieldItems        = "items"
	FieldCreatedAt    = "createdAt"
	FieldUpdatedAt    = "updatedAt"
	FieldPosition     = "position"
)

// ShoppingList is a list document. ID is the store-assigned document id.
type ShoppingList struct {
	ID           string          `json:"id" bson:"_id,omitempty"`
	Name         string          `json:"listName" bson:"listName"`
	Owner        string          `json:"owner" bson:"owner"`
	AccessEmails []string        `json:"accessEmails" bson:"accessEmails"`
	Items        map[string]Item `json:"items" bson:"items"`
	CreatedAt    time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt" bson:"updatedAt"`
	Position     int             `json:"position" bson:"position"`
}

// Normalize applies the defaults for fields a stored document may lack and
// tags every item with its map key.
func (l *ShoppingList) Normalize() {
	if l.AccessEmails == nil {
		l.AccessEmails = []string{}
	}
	if l.Items == nil {
		l.Items = map[string]Item{}
	}
	for id, it := range l.Items {
		if it.ID != id {
			it.ID = id
			l.Items[id] = it
		}
	}
}

// ItemPath builds a dotted field path into the list's item map, e.g.
// ItemPath("item_1", "pending") == "items.item_1.pending".
func ItemPath(itemID string, field ...string) string {
	parts := append([]string{FieldItems, itemID}, field...)
	return strings.Join(parts, ".")
}
