// Package gateway holds the configuration model and the per-request
// authorization orchestration of the proxy.
package gateway

import (
	"fmt"

	"tinygate/internal/auth"
	"tinygate/internal/rbac"
	"tinygate/internal/route"
)

// Document is the raw configuration document as parsed from YAML, before
// validation. Field names mirror the file format.
type Document struct {
	DefaultConfig bool                       `yaml:"default_config"`
	Tenants       []TenantDoc                `yaml:"tenants"`
	Users         []UserDoc                  `yaml:"users"`
	Roles         map[string][]PermissionDoc `yaml:"roles"`
	Proxy         []ProxyDoc                 `yaml:"proxy"`
}

type TenantDoc struct {
	ID string `yaml:"id"`
}

type UserDoc struct {
	Name     string   `yaml:"name"`
	Password string   `yaml:"password"`
	TenantID string   `yaml:"tenant_id"`
	Roles    []string `yaml:"roles"`
}

type PermissionDoc struct {
	Resource string   `yaml:"resource"`
	Actions  []string `yaml:"actions"`
}

type ProxyDoc struct {
	Endpoint     string `yaml:"endpoint"`
	Target       string `yaml:"target"`
	Rewrite      string `yaml:"rewrite"`
	ChangeOrigin bool   `yaml:"change_origin"`
	Resource     string `yaml:"resource"`
}

// ConfigError reports a single invalid field in the configuration
// document. Any ConfigError is fatal at startup: the process must not
// serve traffic from a partially valid configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Snapshot is one validated, immutable configuration. Requests read a
// snapshot pointer once and use it end-to-end; reloads swap the pointer
// and never mutate a published snapshot.
type Snapshot struct {
	DefaultConfig bool
	Tenants       map[string]struct{}
	Users         map[string]auth.User
	Roles         *rbac.Engine
	Routes        *route.Table
}

// LookupUser implements auth.UserDirectory.
func (s *Snapshot) LookupUser(name string) (auth.User, bool) {
	u, ok := s.Users[name]
	return u, ok
}
