package gateway

import (
	"context"
	"errors"
	"strings"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/apperr"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/models"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/store"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/validate"
)

// Friend emails contain dots and cannot be addressed as field paths, so both
// operations rewrite the whole friendsMap. Concurrent edits may lose one.

func (g *Gateway) loadUser(ctx context.Context, op, email string) (models.User, error) {
	snap, err := g.store.Get(ctx, models.CollectionUsers, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, apperr.NotFound(op, "User not found")
		}
		return models.User{}, err
	}
	var u models.User
	if err := snap.DataTo(&u); err != nil {
		return models.User{}, err
	}
	u.Email = email
	u.Normalize()
	return u, nil
}

// AddFriend stores friendEmail under friendName in user's friends map.
func (g *Gateway) AddFriend(ctx context.Context, user, friendEmail, friendName string) error {
	const op = "add_friend"
	friendEmail = strings.TrimSpace(friendEmail)
	if r := validate.Email(friendEmail); !r.Valid {
		return done(op, r.Err())
	}
	name := validate.FriendName(friendName)
	if !name.Valid {
		return done(op, name.Err())
	}
	if strings.EqualFold(friendEmail, user) {
		return done(op, apperr.Validation(apperr.CodeSelfReference, "You cannot add yourself as a friend"))
	}
	u, err := g.loadUser(ctx, op, user)
	if err != nil {
		return done(op, err)
	}
	if _, exists := u.FriendsMap[friendEmail]; exists {
		return done(op, apperr.AlreadyExists(op, "Friend already exists"))
	}
	friends := make(map[string]interface{}, len(u.FriendsMap)+1)
	for k, v := range u.FriendsMap {
		friends[k] = v
	}
	friends[friendEmail] = name.Value
	return done(op, g.store.Update(ctx, models.CollectionUsers, user, map[string]interface{}{models.FieldFriendsMap: friends}))
}

// RemoveFriend drops friendEmail from user's friends map. Removing an absent
// friend succeeds.
func (g *Gateway) RemoveFriend(ctx context.Context, user, friendEmail string) error {
	const op = "remove_friend"
	u, err := g.loadUser(ctx, op, user)
	if err != nil {
		return done(op, err)
	}
	if _, ok := u.FriendsMap[friendEmail]; !ok {
		return done(op, nil)
	}
	friends := make(map[string]interface{}, len(u.FriendsMap))
	for k, v := range u.FriendsMap {
		if k != friendEmail {
			friends[k] = v
		}
	}
	return done(op, g.store.Update(ctx, models.CollectionUsers, user, map[string]interface{}{models.FieldFriendsMap: friends}))
}
