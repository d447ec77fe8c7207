// Package identity signs users in with an OIDC ID token and tracks their
// access and refresh credentials.
package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/config"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/oidc"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/sessions"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/tokens"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/users"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/logger"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/middleware"
)

var (
	ErrInvalidIDToken      = errors.New("invalid id token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// Identity is the signed-in user as seen by the rest of the system.
type Identity struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type SignInResult struct {
	User         Identity `json:"user"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresIn    int      `json:"expiresIn"`
}

// AuthState is one event of the auth-state stream. Identity is nil on
// sign-out.
type AuthState struct {
	Identity *Identity
}

type Provider struct {
	cfg      *config.Config
	idTokens middleware.Verifier
	users    *users.Service
	sessions *sessions.Service

	mu       sync.Mutex
	nextID   int
	watchers map[int]chan AuthState
}

func NewProvider(cfg *config.Config, idTokens middleware.Verifier, u *users.Service, s *sessions.Service) *Provider {
	return &Provider{
		cfg:      cfg,
		idTokens: idTokens,
		users:    u,
		sessions: s,
		watchers: make(map[int]chan AuthState),
	}
}

func (p *Provider) accessTTL() time.Duration {
	if p.cfg.JWT.AccessTokenTTL > 0 {
		return p.cfg.JWT.AccessTokenTTL
	}
	return 15 * time.Minute
}

func (p *Provider) refreshTTL() time.Duration {
	if p.cfg.JWT.RefreshTokenTTL > 0 {
		return p.cfg.JWT.RefreshTokenTTL
	}
	return 7 * 24 * time.Hour
}

// SignIn verifies the ID token, registers the user on first sign-in and
// issues an access token plus a refresh session.
func (p *Provider) SignIn(ctx context.Context, rawIDToken string) (*SignInResult, error) {
	tok, err := p.idTokens.Verify(ctx, rawIDToken)
	if err != nil {
		logger.Debugf("identity: id token rejected: %v", err)
		return nil, ErrInvalidIDToken
	}
	claims, err := oidc.IdentityFrom(tok)
	if err != nil {
		return nil, errors.Join(ErrInvalidIDToken, err)
	}
	u, err := p.users.UpsertFromClaims(ctx, claims.Claims)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errors.Join(ErrInvalidIDToken, oidc.ErrNoEmail)
	}
	refresh, err := p.sessions.CreateSession(ctx, u.Email, p.refreshTTL())
	if err != nil {
		return nil, err
	}
	access, err := tokens.GenerateAccessToken(p.cfg, u, p.accessTTL())
	if err != nil {
		return nil, err
	}
	id := Identity{Email: u.Email, DisplayName: u.Name}
	p.broadcast(AuthState{Identity: &id})
	logger.Infof("identity: %s signed in", u.Email)
	return &SignInResult{
		User:         id,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(p.accessTTL().Seconds()),
	}, nil
}

// Refresh mints a new access token for a live refresh session.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (string, error) {
	sess, err := p.sessions.ValidateRefresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", ErrInvalidRefreshToken
	}
	u, err := p.users.Get(ctx, sess.Email)
	if err != nil {
		return "", err
	}
	return tokens.GenerateAccessToken(p.cfg, u, p.accessTTL())
}

// SignOut ends the refresh session and revokes the access token for the rest
// of its lifetime.
func (p *Provider) SignOut(ctx context.Context, refreshToken, accessToken string) error {
	if accessToken != "" {
		if c, err := tokens.ParseAccessToken(p.cfg, accessToken); err == nil {
			if err := sessions.RevokeUntil(ctx, accessToken, c.ExpiresAt.Time); err != nil {
				return err
			}
		}
	}
	if refreshToken != "" {
		if err := p.sessions.DeleteRefresh(ctx, refreshToken); err != nil {
			return err
		}
	}
	p.broadcast(AuthState{})
	return nil
}

// CurrentUser resolves an access token; nil when it is invalid, expired or
// revoked.
func (p *Provider) CurrentUser(ctx context.Context, accessToken string) *Identity {
	if accessToken == "" {
		return nil
	}
	revoked, err := sessions.IsAccessTokenBlacklisted(ctx, accessToken)
	if err != nil {
		logger.Warnf("identity: blacklist lookup failed: %v", err)
	}
	if revoked {
		return nil
	}
	c, err := tokens.ParseAccessToken(p.cfg, accessToken)
	if err != nil {
		return nil
	}
	name := c.Name
	if name == "" {
		name = p.users.DisplayName(ctx, c.Email)
	}
	return &Identity{Email: c.Email, DisplayName: name}
}

// Changes subscribes to auth-state events. The returned func unsubscribes
// and closes the channel. Slow readers only miss intermediate states.
func (p *Provider) Changes() (<-chan AuthState, func()) {
	ch := make(chan AuthState, 1)
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.watchers[id] = ch
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.watchers, id)
			p.mu.Unlock()
			close(ch)
		})
	}
}

func (p *Provider) broadcast(st AuthState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}
