package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/models"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/store"
)

// UserRepository defines persistence operations for users
type UserRepository interface {
	// Get returns nil, nil when no profile exists for email.
	Get(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
}

// StoreUserRepository implements UserRepository on the document store; the
// document id is the email.
type StoreUserRepository struct {
	store store.Store
}

func NewStoreUserRepository(s store.Store) *StoreUserRepository {
	return &StoreUserRepository{store: s}
}

func (r *StoreUserRepository) Get(ctx context.Context, email string) (*models.User, error) {
	snap, err := r.store.Get(ctx, models.CollectionUsers, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeUser(snap)
}

func (r *StoreUserRepository) Create(ctx context.Context, u *models.User) error {
	return r.store.Set(ctx, models.CollectionUsers, u.Email, map[string]interface{}{
		models.FieldUserName:   u.Name,
		models.FieldFriendsMap: u.FriendsMap,
		"createdAt":            u.CreatedAt,
	})
}

func decodeUser(snap store.Snapshot) (*models.User, error) {
	var u models.User
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", snap.ID, err)
	}
	u.Email = snap.ID
	u.Normalize()
	return &u, nil
}
