package application

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/waselni/waselni-cli/internal/adapters/api"
	"github.com/waselni/waselni-cli/internal/domain"
	"github.com/waselni/waselni-cli/internal/metrics"
)

type memoryStore struct {
	mu      sync.Mutex
	values  map[string]string
	puts    int
	deletes int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.values[key]
	if !ok {
		return "", fmt.Errorf("secret %q: %w", key, domain.ErrSecretNotFound)
	}
	return value, nil
}

func (m *memoryStore) Put(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.puts++
	m.values[key] = value
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.deletes++
	delete(m.values, key)
	return nil
}

func (m *memoryStore) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts + m.deletes
}

// marketplaceServer is an in-memory stand-in for the marketplace API mounted
// under /api.
type marketplaceServer struct {
	t      *testing.T
	server *httptest.Server

	mu            sync.Mutex
	validTokens   map[string]domain.User
	refreshToken  string
	nextAccess    string
	rotateRefresh string
	refreshStatus int
	refreshGate   chan struct{}
	rejectAll     bool
	refreshCalls  int
	hits          map[string]int
	authHeaders   map[string][]string
}

var shipper = domain.User{
	ID:          "user-1",
	Email:       "a@b.com",
	Role:        domain.RoleShipper,
	FirstName:   "Amina",
	LastName:    "Benali",
	RatingSum:   9,
	RatingCount: 2,
}

func newMarketplaceServer(t *testing.T) *marketplaceServer {
	t.Helper()

	m := &marketplaceServer{
		t:            t,
		validTokens:  map[string]domain.User{},
		refreshToken: "refresh-1",
		nextAccess:   "access-2",
		hits:         map[string]int{},
		authHeaders:  map[string][]string{},
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.server.Close)
	return m
}

func (m *marketplaceServer) baseURL() string {
	return m.server.URL + "/api"
}

func (m *marketplaceServer) newSession(t *testing.T, store *memoryStore) *Session {
	t.Helper()

	client, err := api.NewClient(m.baseURL(), 2*time.Second, nil)
	require.NoError(t, err)
	client.HTTPClient = m.server.Client()

	return NewSession(client, NewTokenVault(store, defaultProfile), SessionOptions{
		Metrics:        metrics.NewSession(),
		RefreshTimeout: 2 * time.Second,
	})
}

func (m *marketplaceServer) grant(token string, user domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validTokens[token] = user
}

func (m *marketplaceServer) revoke(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.validTokens, token)
}

func (m *marketplaceServer) count(route string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[route]
}

func (m *marketplaceServer) refreshes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshCalls
}

func (m *marketplaceServer) handle(w http.ResponseWriter, r *http.Request) {
	route := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api")
	bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	m.mu.Lock()
	m.hits[route]++
	m.authHeaders[route] = append(m.authHeaders[route], r.Header.Get("Authorization"))
	m.mu.Unlock()

	switch route {
	case "POST /auth/login":
		var creds domain.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "secret123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Email ou mot de passe incorrect"})
			return
		}
		m.grant("access-1", shipper)
		writeJSON(w, http.StatusOK, domain.AuthResult{AccessToken: "access-1", RefreshToken: "refresh-1", TokenType: "bearer", User: shipper})
	case "POST /auth/register":
		var reg domain.Registration
		_ = json.NewDecoder(r.Body).Decode(&reg)
		if reg.Email == "taken@b.com" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Email déjà utilisé"})
			return
		}
		user := domain.User{ID: "user-2", Email: reg.Email, Role: reg.Role, FirstName: reg.FirstName, LastName: reg.LastName}
		m.grant("access-r", user)
		writeJSON(w, http.StatusOK, domain.AuthResult{AccessToken: "access-r", RefreshToken: "refresh-r", TokenType: "bearer", User: user})
	case "POST /auth/refresh":
		m.handleRefresh(w, bearer)
	case "GET /boom":
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Erreur interne"})
	default:
		m.mu.Lock()
		user, ok := m.validTokens[bearer]
		reject := m.rejectAll
		m.mu.Unlock()
		if !ok || reject {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token invalide"})
			return
		}
		m.handleProtected(w, r, route, user)
	}
}

func (m *marketplaceServer) handleRefresh(w http.ResponseWriter, bearer string) {
	m.mu.Lock()
	m.refreshCalls++
	gate := m.refreshGate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-time.After(time.Second):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.refreshStatus != 0 || bearer != m.refreshToken {
		status := m.refreshStatus
		if status == 0 {
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, map[string]string{"detail": "Token expiré"})
		return
	}

	m.validTokens[m.nextAccess] = shipper
	result := domain.RefreshResult{AccessToken: m.nextAccess, TokenType: "bearer"}
	if m.rotateRefresh != "" {
		result.RefreshToken = m.rotateRefresh
		m.refreshToken = m.rotateRefresh
	}
	writeJSON(w, http.StatusOK, result)
}

func (m *marketplaceServer) handleProtected(w http.ResponseWriter, r *http.Request, route string, user domain.User) {
	switch route {
	case "GET /users/me":
		writeJSON(w, http.StatusOK, user)
	case "PATCH /users/me":
		var update domain.UserUpdate
		_ = json.NewDecoder(r.Body).Decode(&update)
		if update.City != nil {
			user.City = *update.City
		}
		if update.Bio != nil {
			user.Bio = *update.Bio
		}
		writeJSON(w, http.StatusOK, user)
	case "GET /contracts":
		writeJSON(w, http.StatusOK, []domain.Contract{{ID: "c-1", Status: domain.ContractPickedUp}})
	case "POST /requests":
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []map[string]any{{"loc": []string{"body", "weight_kg"}, "msg": "field required"}}})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func seedTokens(t *testing.T, store *memoryStore, access, refresh string) {
	t.Helper()

	vault := NewTokenVault(store, defaultProfile)
	require.NoError(t, vault.Save(context.Background(), domain.Tokens{AccessToken: access, RefreshToken: refresh}))
}

func runtimeYield() {
	time.Sleep(time.Millisecond)
}

func (m *marketplaceServer) headers(route string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.authHeaders[route]...)
}

func (m *marketplaceServer) set(apply func(m *marketplaceServer)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	apply(m)
}
