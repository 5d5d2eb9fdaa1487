package gateway

import (
	"fmt"
	"net/url"
	"strings"

	"tinygate/internal/auth"
	"tinygate/internal/rbac"
	"tinygate/internal/route"
)

// Validate checks every invariant of the raw document and compiles it into
// an immutable snapshot. It fails fast: the first violation is returned as
// a ConfigError naming the offending field.
func Validate(doc Document) (*Snapshot, error) {
	snap := &Snapshot{
		DefaultConfig: doc.DefaultConfig,
		Tenants:       make(map[string]struct{}, len(doc.Tenants)),
		Users:         make(map[string]auth.User, len(doc.Users)),
	}

	for i, t := range doc.Tenants {
		field := fmt.Sprintf("tenants[%d].id", i)
		if t.ID == "" {
			return nil, &ConfigError{Field: field, Reason: "tenant id must not be empty"}
		}
		if _, dup := snap.Tenants[t.ID]; dup {
			return nil, &ConfigError{Field: field, Reason: fmt.Sprintf("duplicate tenant id %q", t.ID)}
		}
		snap.Tenants[t.ID] = struct{}{}
	}

	roles := make(map[string][]rbac.Permission, len(doc.Roles))
	for name, entries := range doc.Roles {
		if name == "" {
			return nil, &ConfigError{Field: "roles", Reason: "role name must not be empty"}
		}
		for i, e := range entries {
			p, err := rbac.NewPermission(e.Resource, e.Actions)
			if err != nil {
				return nil, &ConfigError{Field: fmt.Sprintf("roles.%s[%d]", name, i), Reason: err.Error()}
			}
			roles[name] = append(roles[name], p)
		}
		if len(entries) == 0 {
			roles[name] = nil
		}
	}
	snap.Roles = rbac.NewEngine(roles)

	for i, u := range doc.Users {
		field := func(sub string) string { return fmt.Sprintf("users[%d].%s", i, sub) }
		if u.Name == "" {
			return nil, &ConfigError{Field: field("name"), Reason: "user name must not be empty"}
		}
		if _, dup := snap.Users[u.Name]; dup {
			return nil, &ConfigError{Field: field("name"), Reason: fmt.Sprintf("duplicate user name %q", u.Name)}
		}
		if _, ok := snap.Tenants[u.TenantID]; !ok {
			return nil, &ConfigError{Field: field("tenant_id"), Reason: fmt.Sprintf("user %q references undefined tenant %q", u.Name, u.TenantID)}
		}
		for _, r := range u.Roles {
			if !snap.Roles.HasRole(r) {
				return nil, &ConfigError{Field: field("roles"), Reason: fmt.Sprintf("user %q references undefined role %q", u.Name, r)}
			}
		}
		snap.Users[u.Name] = auth.User{Name: u.Name, Secret: u.Password, TenantID: u.TenantID, Roles: u.Roles}
	}

	rules := make([]route.Rule, 0, len(doc.Proxy))
	seen := make(map[string]struct{}, len(doc.Proxy))
	for i, p := range doc.Proxy {
		field := func(sub string) string { return fmt.Sprintf("proxy[%d].%s", i, sub) }
		if p.Endpoint == "" {
			return nil, &ConfigError{Field: field("endpoint"), Reason: "endpoint must not be empty"}
		}
		if !strings.HasPrefix(p.Endpoint, "/") {
			return nil, &ConfigError{Field: field("endpoint"), Reason: fmt.Sprintf("endpoint %q must start with /", p.Endpoint)}
		}
		endpoint := normalizeEndpoint(p.Endpoint)
		if endpoint == "" {
			return nil, &ConfigError{Field: field("endpoint"), Reason: fmt.Sprintf("endpoint %q is not a valid path", p.Endpoint)}
		}
		if _, dup := seen[endpoint]; dup {
			return nil, &ConfigError{Field: field("endpoint"), Reason: fmt.Sprintf("duplicate endpoint %q", endpoint)}
		}
		seen[endpoint] = struct{}{}

		target, err := url.Parse(p.Target)
		if err != nil || !target.IsAbs() || target.Host == "" {
			return nil, &ConfigError{Field: field("target"), Reason: fmt.Sprintf("target %q must be an absolute URL", p.Target)}
		}
		if target.Scheme != "http" && target.Scheme != "https" {
			return nil, &ConfigError{Field: field("target"), Reason: fmt.Sprintf("target scheme %q must be http or https", target.Scheme)}
		}
		if p.Rewrite != "" && !strings.HasPrefix(p.Rewrite, "/") {
			return nil, &ConfigError{Field: field("rewrite"), Reason: fmt.Sprintf("rewrite %q must start with /", p.Rewrite)}
		}
		rules = append(rules, route.Rule{
			Endpoint:     endpoint,
			Target:       target,
			Rewrite:      p.Rewrite,
			ChangeOrigin: p.ChangeOrigin,
			Resource:     p.Resource,
		})
	}
	snap.Routes = route.NewTable(rules)

	return snap, nil
}

// normalizeEndpoint strips a trailing slash so /api/x and /api/x/ compare
// equal; the root endpoint stays "/".
func normalizeEndpoint(e string) string {
	if e == "/" {
		return e
	}
	return strings.TrimRight(e, "/")
}
