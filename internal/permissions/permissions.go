// Package permissions derives what a user may do with a list.
package permissions

import "github.com/AdarshMishraIndia/SyncMart-WebApp/internal/models"

type Role string

const (
	RoleOwner        Role = "owner"
	RoleCollaborator Role = "collaborator"
	RoleNone         Role = "none"
)

func IsOwner(list *models.ShoppingList, email string) bool {
	return list != nil && email != "" && list.Owner == email
}

func IsMember(list *models.ShoppingList, email string) bool {
	if IsOwner(list, email) {
		return true
	}
	if list == nil || email == "" {
		return false
	}
	for _, e := range list.AccessEmails {
		if e == email {
			return true
		}
	}
	return false
}

// CanEditMetadata covers renaming, changing access and deleting the list.
func CanEditMetadata(list *models.ShoppingList, email string) bool {
	return IsOwner(list, email)
}

// CanManageItems covers adding, editing, toggling and deleting items.
func CanManageItems(list *models.ShoppingList, email string) bool {
	return IsMember(list, email)
}

func RoleOf(list *models.ShoppingList, email string) Role {
	switch {
	case IsOwner(list, email):
		return RoleOwner
	case IsMember(list, email):
		return RoleCollaborator
	}
	return RoleNone
}
