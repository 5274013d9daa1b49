package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmwangi/saccoterm/internal/api"
)

type memoryTokens struct {
	mu      sync.Mutex
	access  string
	refresh string
	cleared bool
}

func (m *memoryTokens) Access() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access
}

func (m *memoryTokens) Refresh() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresh
}

func (m *memoryTokens) StoreAccess(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = token
	return nil
}

func (m *memoryTokens) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access, m.refresh = "", ""
	m.cleared = true
	return nil
}

func TestClientRetriesOnceAfterRefresh(t *testing.T) {
	var requests []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.Path+" "+r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/api/auth/refresh/":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "good-refresh", body["refresh"])
			json.NewEncoder(w).Encode(map[string]string{"access": "fresh"})
		case "/api/users/me/":
			if r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"detail": "Token expired"})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"id": 7, "email": "treasurer@example.com"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	tokens := &memoryTokens{access: "stale", refresh: "good-refresh"}
	client := api.NewClient(srv.URL+"/api/", 5*time.Second, tokens)

	var out struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	}
	err := client.Get(t.Context(), "users/me/", &out)

	require.NoError(t, err)
	assert.Equal(t, int64(7), out.ID)
	assert.Equal(t, "fresh", tokens.Access())

	// 401, refresh, retry. Never a second refresh.
	require.Len(t, requests, 3)
	assert.Equal(t, "/api/users/me/ Bearer stale", requests[0])
	assert.Equal(t, "/api/users/me/ Bearer fresh", requests[2])
}

func TestClientFailedRefreshEndsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/refresh/" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Refresh token expired"})
			return
		}

		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := &memoryTokens{access: "stale", refresh: "dead-refresh"}
	client := api.NewClient(srv.URL+"/api/", 5*time.Second, tokens)

	err := client.Get(t.Context(), "users/me/", nil)

	assert.ErrorIs(t, err, api.ErrSessionExpired)
	assert.True(t, tokens.cleared)
	assert.Empty(t, tokens.Access())
}

func TestClientNoRetryWhenUnauthenticated(t *testing.T) {
	var calls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Authentication required"})
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL+"/api/", 5*time.Second, &memoryTokens{})

	err := client.Get(t.Context(), "users/me/", nil)

	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.Equal(t, 1, calls)
}

func TestClientErrorTaxonomy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/forbidden/":
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"detail": "You do not have permission to perform this action."})
		case "/api/missing/":
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Not found."})
		}
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL+"/api/", 5*time.Second, &memoryTokens{access: "token"})

	err := client.Get(t.Context(), "forbidden/", nil)
	require.Error(t, err)
	assert.True(t, api.IsForbidden(err))
	assert.Contains(t, err.Error(), "You do not have permission")

	err = client.Get(t.Context(), "missing/", nil)
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
}
