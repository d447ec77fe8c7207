package permissions

import (
	"testing"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCollaboratorCannotEditMetadata(t *testing.T) {
	list := &models.ShoppingList{Owner: "a@x.com", AccessEmails: []string{"b@x.com"}}

	assert.False(t, CanEditMetadata(list, "b@x.com"))
	assert.True(t, CanManageItems(list, "b@x.com"))
	assert.True(t, CanEditMetadata(list, "a@x.com"))
	assert.True(t, CanManageItems(list, "a@x.com"))
	assert.False(t, CanManageItems(list, "c@x.com"))
}

func TestTotalOverMissingAccessEmails(t *testing.T) {
	list := &models.ShoppingList{Owner: "a@x.com"}
	assert.False(t, IsMember(list, "b@x.com"))
	assert.True(t, IsMember(list, "a@x.com"))
	assert.False(t, IsOwner(nil, "a@x.com"))
	assert.False(t, CanManageItems(nil, "a@x.com"))
}

func TestEmptyEmailHasNoRights(t *testing.T) {
	list := &models.ShoppingList{Owner: "", AccessEmails: []string{""}}
	assert.False(t, IsOwner(list, ""))
	assert.False(t, IsMember(list, ""))
}

func TestRoleOf(t *testing.T) {
	list := &models.ShoppingList{Owner: "a@x.com", AccessEmails: []string{"b@x.com"}}
	assert.Equal(t, RoleOwner, RoleOf(list, "a@x.com"))
	assert.Equal(t, RoleCollaborator, RoleOf(list, "b@x.com"))
	assert.Equal(t, RoleNone, RoleOf(list, "z@x.com"))
}
