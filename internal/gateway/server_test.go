package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tinygate/pkg/config"
)

type captured struct {
	method string
	path   string
	host   string
	tenant string
}

// testBackend records the last request it served.
func testBackend(t *testing.T) (*httptest.Server, *captured) {
	t.Helper()
	rec := &captured{}
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.host = r.Host
		rec.tenant = r.Header.Get(TenantHeader)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(backend.Close)
	return backend, rec
}

func testServer(t *testing.T, backendURL string) *httptest.Server {
	t.Helper()
	snap, err := Validate(Document{
		Tenants: []TenantDoc{{ID: "tenant-a"}},
		Users: []UserDoc{
			{Name: "alice", Password: "wonderland", TenantID: "tenant-a", Roles: []string{"editor"}},
		},
		Roles: map[string][]PermissionDoc{
			"editor": {{Resource: "reports", Actions: []string{"read", "create", "update"}}},
		},
		Proxy: []ProxyDoc{
			{Endpoint: "/api/reports", Target: backendURL, Resource: "reports", ChangeOrigin: true},
			{Endpoint: "/api/data", Target: backendURL, Rewrite: "/data", Resource: "reports"},
		},
	})
	require.NoError(t, err)

	cfg := config.Config{
		Env:       "test",
		SecretKey: "server-test-key",
		TokenTTL:  time.Hour,
	}
	srv := NewServer(cfg, zap.NewNop().Sugar(), NewStore(snap))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func login(t *testing.T, ts *httptest.Server, user, pass string) string {
	t.Helper()
	form := url.Values{"username": {user}, "password": {pass}}
	res, err := http.PostForm(ts.URL+"/api/v1/auth/login", form)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "bearer", body.TokenType)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func do(t *testing.T, ts *httptest.Server, method, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func TestLoginRejectsBadPassword(t *testing.T) {
	backend, _ := testBackend(t)
	ts := testServer(t, backend.URL)

	res, err := http.PostForm(ts.URL+"/api/v1/auth/login",
		url.Values{"username": {"alice"}, "password": {"nope"}})
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "application/problem+json", res.Header.Get("Content-Type"))
}

func TestProxyForwardsAuthorizedRequest(t *testing.T) {
	backend, rec := testBackend(t)
	ts := testServer(t, backend.URL)
	token := login(t, ts, "alice", "wonderland")

	res := do(t, ts, http.MethodGet, "/api/reports/5", token)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/reports/5", rec.path)
	assert.Equal(t, "tenant-a", rec.tenant)
	// change_origin: Host rewritten to the upstream host
	assert.Equal(t, strings.TrimPrefix(backend.URL, "http://"), rec.host)
}

func TestProxyRewritesPath(t *testing.T) {
	backend, rec := testBackend(t)
	ts := testServer(t, backend.URL)
	token := login(t, ts, "alice", "wonderland")

	res := do(t, ts, http.MethodGet, "/api/data/items", token)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "/data/items", rec.path)
}

func TestProxyRejectsWithoutToken(t *testing.T) {
	backend, rec := testBackend(t)
	ts := testServer(t, backend.URL)

	res := do(t, ts, http.MethodGet, "/api/reports/5", "")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "Bearer", res.Header.Get("WWW-Authenticate"))
	assert.Empty(t, rec.method, "backend must not be reached")
}

func TestProxyForbiddenMethodNotForwarded(t *testing.T) {
	backend, rec := testBackend(t)
	ts := testServer(t, backend.URL)
	token := login(t, ts, "alice", "wonderland")

	res := do(t, ts, http.MethodDelete, "/api/reports/5", token)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Empty(t, rec.method, "backend must not be reached")
}

func TestProxyNoRouteIs404(t *testing.T) {
	backend, _ := testBackend(t)
	ts := testServer(t, backend.URL)
	token := login(t, ts, "alice", "wonderland")

	res := do(t, ts, http.MethodGet, "/nothing/here", token)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestProxyBadGateway(t *testing.T) {
	backend, _ := testBackend(t)
	ts := testServer(t, backend.URL)
	token := login(t, ts, "alice", "wonderland")

	// kill the upstream before forwarding
	backend.Close()

	res := do(t, ts, http.MethodGet, "/api/reports/5", token)
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
}

func TestUsersMe(t *testing.T) {
	backend, _ := testBackend(t)
	ts := testServer(t, backend.URL)
	token := login(t, ts, "alice", "wonderland")

	res := do(t, ts, http.MethodGet, "/api/v1/users/me", token)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Username string   `json:"username"`
		Roles    []string `json:"roles"`
		TenantID string   `json:"tenant_id"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "alice", body.Username)
	assert.Equal(t, []string{"editor"}, body.Roles)
	assert.Equal(t, "tenant-a", body.TenantID)
}

func TestUsersMeWithoutToken(t *testing.T) {
	backend, _ := testBackend(t)
	ts := testServer(t, backend.URL)

	res := do(t, ts, http.MethodGet, "/api/v1/users/me", "")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestHealthz(t *testing.T) {
	backend, _ := testBackend(t)
	ts := testServer(t, backend.URL)

	res := do(t, ts, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"healthy"}`, string(b))
}

func TestLoginPageServed(t *testing.T) {
	backend, _ := testBackend(t)
	ts := testServer(t, backend.URL)

	res := do(t, ts, http.MethodGet, "/test_login", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/html")
}
