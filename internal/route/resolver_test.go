package route

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestResolveMostSpecificWins(t *testing.T) {
	tbl := NewTable([]Rule{
		{Endpoint: "/api/reports", Target: mustURL(t, "http://reports:9000")},
		{Endpoint: "/api/reports/export", Target: mustURL(t, "http://export:9000")},
	})

	m, ok := tbl.Resolve("/api/reports/export/123")
	require.True(t, ok)
	assert.Equal(t, "/api/reports/export", m.Rule.Endpoint)
	assert.Equal(t, "export", m.Resource)

	m, ok = tbl.Resolve("/api/reports/7")
	require.True(t, ok)
	assert.Equal(t, "/api/reports", m.Rule.Endpoint)
	assert.Equal(t, "reports", m.Resource)
}

func TestResolveSegmentAligned(t *testing.T) {
	tbl := NewTable([]Rule{
		{Endpoint: "/api/serv", Target: mustURL(t, "http://serv:9000")},
	})

	_, ok := tbl.Resolve("/api/service")
	assert.False(t, ok, "/api/serv must not match /api/service")

	m, ok := tbl.Resolve("/api/serv")
	require.True(t, ok)
	assert.Equal(t, "/api/serv", m.Rule.Endpoint)

	_, ok = tbl.Resolve("/api/serv/x")
	assert.True(t, ok)
}

func TestResolveNoMatch(t *testing.T) {
	tbl := NewTable([]Rule{
		{Endpoint: "/api/reports", Target: mustURL(t, "http://reports:9000")},
	})

	_, ok := tbl.Resolve("/other")
	assert.False(t, ok)
}

func TestResolveRewrite(t *testing.T) {
	tbl := NewTable([]Rule{
		{Endpoint: "/api/data", Target: mustURL(t, "http://backend/"), Rewrite: "/data"},
	})

	m, ok := tbl.Resolve("/api/data/items")
	require.True(t, ok)
	assert.Equal(t, "/data/items", m.ForwardPath)
	assert.Equal(t, "/data/items", m.UpstreamPath())

	// the exact prefix rewrites to the rewrite string alone
	m, ok = tbl.Resolve("/api/data")
	require.True(t, ok)
	assert.Equal(t, "/data", m.ForwardPath)
}

func TestResolveRootRewrite(t *testing.T) {
	// a rewrite of "/" strips the endpoint prefix without doubling slashes
	tbl := NewTable([]Rule{
		{Endpoint: "/api/data", Target: mustURL(t, "http://backend/"), Rewrite: "/"},
	})

	m, ok := tbl.Resolve("/api/data/items")
	require.True(t, ok)
	assert.Equal(t, "/items", m.ForwardPath)
	assert.Equal(t, "/items", m.UpstreamPath())

	m, ok = tbl.Resolve("/api/data")
	require.True(t, ok)
	assert.Equal(t, "/", m.ForwardPath)
}

func TestResolveEmptyRewritePreservesPath(t *testing.T) {
	tbl := NewTable([]Rule{
		{Endpoint: "/api/data", Target: mustURL(t, "http://backend/")},
	})

	m, ok := tbl.Resolve("/api/data/items")
	require.True(t, ok)
	assert.Equal(t, "/api/data/items", m.ForwardPath)
	assert.Equal(t, "/api/data/items", m.UpstreamPath())
}

func TestResolveTargetBasePathPreserved(t *testing.T) {
	tbl := NewTable([]Rule{
		{Endpoint: "/api/data", Target: mustURL(t, "http://backend/base"), Rewrite: "/data"},
	})

	m, ok := tbl.Resolve("/api/data/items")
	require.True(t, ok)
	assert.Equal(t, "/base/data/items", m.UpstreamPath())
}

func TestResolveHostOverride(t *testing.T) {
	tbl := NewTable([]Rule{
		{Endpoint: "/a", Target: mustURL(t, "http://a.internal:9000"), ChangeOrigin: true},
		{Endpoint: "/b", Target: mustURL(t, "http://b.internal:9000")},
	})

	m, ok := tbl.Resolve("/a/x")
	require.True(t, ok)
	assert.Equal(t, "a.internal:9000", m.HostOverride)

	m, ok = tbl.Resolve("/b/x")
	require.True(t, ok)
	assert.Empty(t, m.HostOverride)
}

func TestResolveResourceOverride(t *testing.T) {
	tbl := NewTable([]Rule{
		{Endpoint: "/api/legacy-reports", Target: mustURL(t, "http://reports:9000"), Resource: "reports"},
	})

	m, ok := tbl.Resolve("/api/legacy-reports/1")
	require.True(t, ok)
	assert.Equal(t, "reports", m.Resource)
}

func TestResolveRootEndpoint(t *testing.T) {
	tbl := NewTable([]Rule{
		{Endpoint: "/", Target: mustURL(t, "http://fallback:9000"), Rewrite: "/up"},
		{Endpoint: "/api", Target: mustURL(t, "http://api:9000")},
	})

	m, ok := tbl.Resolve("/anything")
	require.True(t, ok)
	assert.Equal(t, "/", m.Rule.Endpoint)
	assert.Equal(t, "/up/anything", m.ForwardPath)

	m, ok = tbl.Resolve("/api/x")
	require.True(t, ok)
	assert.Equal(t, "/api", m.Rule.Endpoint)
}
