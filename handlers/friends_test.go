package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendRoutes(t *testing.T) {
	e := newEnv(t)
	alice, _ := e.login(t, "a@x.com", "Alice")

	code, env := e.do(t, "GET", "/api/v1/friends", alice, "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[map[string]string](t, env))

	code, _ = e.do(t, "POST", "/api/v1/friends", alice, `{"email":"b@x.com","name":"Bobby"}`)
	require.Equal(t, http.StatusCreated, code)
	code, env = e.do(t, "POST", "/api/v1/friends", alice, `{"email":"b@x.com","name":"Bobby"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "already_exists", env.Kind)
	code, _ = e.do(t, "POST", "/api/v1/friends", alice, `{"email":"a@x.com","name":"Me"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	_, env = e.do(t, "GET", "/api/v1/friends", alice, "")
	assert.Equal(t, map[string]string{"b@x.com": "Bobby"}, decode[map[string]string](t, env))

	code, _ = e.do(t, "DELETE", "/api/v1/friends/b@x.com", alice, "")
	require.Equal(t, http.StatusOK, code)
	code, _ = e.do(t, "DELETE", "/api/v1/friends/b@x.com", alice, "")
	assert.Equal(t, http.StatusOK, code)

	_, env = e.do(t, "GET", "/api/v1/friends", alice, "")
	assert.Empty(t, decode[map[string]string](t, env))
}

func TestDisplayNameRoute(t *testing.T) {
	e := newEnv(t)
	alice, _ := e.login(t, "a@x.com", "Alice")

	_, env := e.do(t, "GET", "/api/v1/users/a@x.com/name", alice, "")
	assert.Equal(t, "Alice", decode[map[string]string](t, env)["name"])

	// unknown users fall back to their email
	_, env = e.do(t, "GET", "/api/v1/users/z@x.com/name", alice, "")
	assert.Equal(t, "z@x.com", decode[map[string]string](t, env)["name"])
}
