// Package route resolves an incoming request path to the proxy rule that
// should handle it and computes the rewritten upstream path.
package route

import (
	"net/url"
	"strings"
)

// Rule is one validated proxy rule.
type Rule struct {
	// Endpoint is the path prefix served by this rule, normalized to have
	// no trailing slash (except the root rule "/").
	Endpoint string
	// Target is the upstream base URL.
	Target *url.URL
	// Rewrite replaces the matched endpoint prefix; empty preserves the
	// original path.
	Rewrite string
	// ChangeOrigin rewrites the forwarded Host header to the target host.
	ChangeOrigin bool
	// Resource overrides the permission resource name derived from the
	// endpoint.
	Resource string
}

// DefaultResource is the resource name derived from an endpoint when the
// rule carries no explicit override: the final path segment.
func (r Rule) DefaultResource() string {
	trimmed := strings.Trim(r.Endpoint, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// Match is the outcome of resolving a path against the rule table.
type Match struct {
	Rule Rule
	// Resource is the permission resource name for this request.
	Resource string
	// ForwardPath is the path to request from the upstream, relative to the
	// target base URL's own path.
	ForwardPath string
	// HostOverride is the Host header to send upstream, or "" to preserve
	// the original.
	HostOverride string
}

// Table holds the proxy rules of one configuration snapshot.
type Table struct {
	rules []Rule
}

func NewTable(rules []Rule) *Table {
	return &Table{rules: rules}
}

// Resolve finds the rule with the longest endpoint prefix matching path.
// Prefixes match on segment boundaries: /api/serv does not match
// /api/service. Ties cannot occur because endpoints are unique.
func (t *Table) Resolve(path string) (Match, bool) {
	var best *Rule
	for i := range t.rules {
		r := &t.rules[i]
		if !prefixMatches(r.Endpoint, path) {
			continue
		}
		if best == nil || len(r.Endpoint) > len(best.Endpoint) {
			best = r
		}
	}
	if best == nil {
		return Match{}, false
	}
	m := Match{
		Rule:        *best,
		Resource:    best.Resource,
		ForwardPath: forwardPath(*best, path),
	}
	if m.Resource == "" {
		m.Resource = best.DefaultResource()
	}
	if best.ChangeOrigin {
		m.HostOverride = best.Target.Host
	}
	return m, true
}

func prefixMatches(endpoint, path string) bool {
	if endpoint == "/" {
		return strings.HasPrefix(path, "/")
	}
	return path == endpoint || strings.HasPrefix(path, endpoint+"/")
}

func forwardPath(r Rule, path string) string {
	if r.Rewrite == "" {
		return path
	}
	rest := strings.TrimPrefix(path, r.Endpoint)
	if rest == "" {
		return r.Rewrite
	}
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return singleJoiningSlash(r.Rewrite, rest)
}

// UpstreamPath joins the forward path onto the target base URL's path.
func (m Match) UpstreamPath() string {
	return singleJoiningSlash(m.Rule.Target.Path, m.ForwardPath)
}

func singleJoiningSlash(a, b string) string {
	aslash := strings.HasSuffix(a, "/")
	bslash := strings.HasPrefix(b, "/")
	switch {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash:
		return a + "/" + b
	}
	return a + b
}
