package handlers

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/config"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/gateway"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/identity"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/lists"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/oidc"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/sessions"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/store"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/tokens"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/users"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Error   *string         `json:"error"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

type testEnv struct {
	r   *gin.Engine
	mem *store.MemoryStore
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.JWT.Secret = "handler-test-secret"
	cfg.JWT.AccessTokenTTL = time.Minute
	cfg.JWT.RefreshTokenTTL = time.Hour

	mem := store.NewMemoryStore()
	u := users.NewService(users.NewStoreUserRepository(mem), mem)
	p := identity.NewProvider(cfg, oidc.NewInsecureVerifier(), u, sessions.NewService(sessions.NewMemoryRepository()))
	r := NewRouter(Deps{
		Provider:    p,
		Users:       u,
		Gateway:     gateway.New(mem),
		Lists:       lists.NewAggregator(mem),
		Items:       lists.NewPartitioner(mem),
		AccessToken: tokens.NewVerifier(cfg),
	})
	return &testEnv{r: r, mem: mem}
}

func idToken(email, name string) string {
	b, _ := json.Marshal(map[string]string{"sub": "sub-" + email, "email": email, "name": name})
	return "hdr." + base64.RawURLEncoding.EncodeToString(b) + ".sig"
}

// do sends a JSON request and decodes the envelope.
func (e *testEnv) do(t *testing.T, method, path, token, body string) (int, envelope) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

// login signs email in and returns its access and refresh tokens.
func (e *testEnv) login(t *testing.T, email, name string) (string, string) {
	t.Helper()
	code, env := e.do(t, "POST", "/auth/login", "", `{"id_token":"`+idToken(email, name)+`"}`)
	require.Equal(t, 200, code)
	var res identity.SignInResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res.AccessToken, res.RefreshToken
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}
