package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/apperr"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/models"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/store"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/validate"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/logger"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/metrics"
)

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
	live store.Store
	now  func() time.Time
}

// NewService wires the repository and the store used for live friend views.
func NewService(r UserRepository, live store.Store) *Service {
	return &Service{repo: r, live: live, now: time.Now}
}

// RegisterIfNew creates the profile on first sign-in; an existing profile is
// returned untouched.
func (s *Service) RegisterIfNew(ctx context.Context, email, name string) (*models.User, error) {
	if r := validate.Email(email); !r.Valid {
		return nil, r.Err()
	}
	existing, err := s.repo.Get(ctx, email)
	if err != nil {
		return nil, apperr.FromStore("register_user", err)
	}
	if existing != nil {
		return existing, nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = models.DefaultUserName
	}
	u := &models.User{
		Email:      email,
		Name:       name,
		FriendsMap: map[string]string{},
		CreatedAt:  models.FormatTimestamp(s.now()),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, apperr.FromStore("register_user", err)
	}
	logger.Infof("users: registered %s", email)
	return u, nil
}

// UpsertFromClaims registers the user named by OIDC claims. A claims map
// without an email yields nil, nil.
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if email == "" {
		return nil, nil
	}
	return s.RegisterIfNew(ctx, email, name)
}

func (s *Service) Get(ctx context.Context, email string) (*models.User, error) {
	u, err := s.repo.Get(ctx, email)
	if err != nil {
		return nil, apperr.FromStore("get_user", err)
	}
	if u == nil {
		return nil, apperr.NotFound("get_user", "User not found")
	}
	return u, nil
}

// DisplayName is the name shown for an item's author, falling back to the
// email when the profile cannot be read.
func (s *Service) DisplayName(ctx context.Context, email string) string {
	u, err := s.repo.Get(ctx, email)
	if err != nil {
		logger.Debugf("users: display name for %s: %v", email, err)
		return email
	}
	if u == nil {
		return email
	}
	return u.Name
}

// FriendsView streams a user's friends map (email to display name).
type FriendsView struct {
	updates chan map[string]string
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup

	mu  sync.Mutex
	err error
}

func (v *FriendsView) Updates() <-chan map[string]string { return v.updates }

func (v *FriendsView) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

func (v *FriendsView) Close() {
	v.once.Do(func() { close(v.done) })
	v.wg.Wait()
}

// WatchFriends follows the user's profile document. An empty email or a
// missing profile yields an empty map.
func (s *Service) WatchFriends(ctx context.Context, email string) (*FriendsView, error) {
	v := &FriendsView{updates: make(chan map[string]string, 1), done: make(chan struct{})}
	if email == "" {
		v.updates <- map[string]string{}
		v.wg.Add(1)
		go func() {
			defer v.wg.Done()
			defer close(v.updates)
			select {
			case <-v.done:
			case <-ctx.Done():
			}
		}()
		return v, nil
	}
	sub, err := s.live.SubscribeDocument(ctx, models.CollectionUsers, email)
	if err != nil {
		return nil, apperr.FromStore("watch_friends", err)
	}
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		defer close(v.updates)
		defer sub.Close()
		for {
			select {
			case <-v.done:
				return
			case <-ctx.Done():
				return
			case ev, ok := <-sub.Events():
				if !ok {
					if err := sub.Err(); err != nil {
						v.mu.Lock()
						v.err = apperr.FromStore("watch_friends", err)
						v.mu.Unlock()
					}
					return
				}
				friends := map[string]string{}
				if ev.Snapshot.Exists {
					if u, err := decodeUser(ev.Snapshot); err == nil {
						friends = u.FriendsMap
					} else {
						logger.Warnf("users: %v", err)
					}
				}
				select {
				case <-v.updates:
				default:
				}
				v.updates <- friends
				metrics.LivePublishes.WithLabelValues("friends").Inc()
			}
		}
	}()
	return v, nil
}
