// Package rbac decides whether a set of roles grants an action on a
// resource. Wildcards are parsed once when permissions are compiled, so
// matching is a plain comparison at request time.
package rbac

import (
	"fmt"
	"net/http"
)

// Action is a named permission verb.
type Action string

const (
	ActionRead    Action = "read"
	ActionWrite   Action = "write"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionExecute Action = "execute"
)

// Wildcard is the configuration spelling for "any".
const Wildcard = "*"

var validActions = map[Action]struct{}{
	ActionRead:    {},
	ActionWrite:   {},
	ActionCreate:  {},
	ActionUpdate:  {},
	ActionDelete:  {},
	ActionExecute: {},
}

// matcher is either the wildcard or a named value.
type matcher struct {
	any  bool
	name string
}

func (m matcher) matches(v string) bool { return m.any || m.name == v }

// Permission is one compiled entry of a role: a resource matcher plus the
// actions it grants on that resource.
type Permission struct {
	resource matcher
	actions  []matcher
}

// NewPermission compiles a raw (resource, actions) entry. Actions must each
// be a known verb or the wildcard; the resource must be non-empty.
func NewPermission(resource string, actions []string) (Permission, error) {
	if resource == "" {
		return Permission{}, fmt.Errorf("resource must not be empty")
	}
	p := Permission{resource: newMatcher(resource)}
	if len(actions) == 0 {
		return Permission{}, fmt.Errorf("actions must not be empty")
	}
	for _, a := range actions {
		m := newMatcher(a)
		if !m.any {
			if _, ok := validActions[Action(a)]; !ok {
				return Permission{}, fmt.Errorf("unknown action %q", a)
			}
		}
		p.actions = append(p.actions, m)
	}
	return p, nil
}

func newMatcher(v string) matcher {
	if v == Wildcard {
		return matcher{any: true}
	}
	return matcher{name: v}
}

func (p Permission) allows(resource string, action Action) bool {
	if !p.resource.matches(resource) {
		return false
	}
	for _, a := range p.actions {
		if a.matches(string(action)) {
			return true
		}
	}
	return false
}

// Engine holds the compiled role definitions of one configuration snapshot.
type Engine struct {
	roles map[string][]Permission
}

func NewEngine(roles map[string][]Permission) *Engine {
	return &Engine{roles: roles}
}

// HasRole reports whether a role name is defined.
func (e *Engine) HasRole(name string) bool {
	_, ok := e.roles[name]
	return ok
}

// Allowed reports whether any permission entry of any of the given roles
// grants the action on the resource. Entry and role order are irrelevant.
func (e *Engine) Allowed(roles []string, resource string, action Action) bool {
	for _, r := range roles {
		for _, p := range e.roles[r] {
			if p.allows(resource, action) {
				return true
			}
		}
	}
	return false
}

// AllowedForMethod maps the HTTP method to its candidate actions and grants
// the request when at least one candidate is allowed.
func (e *Engine) AllowedForMethod(roles []string, resource, method string) bool {
	for _, a := range ActionsForMethod(method) {
		if e.Allowed(roles, resource, a) {
			return true
		}
	}
	return false
}

// ActionsForMethod returns the candidate actions for an HTTP method. Any one
// of them suffices. Unknown methods map to no actions and are always denied.
func ActionsForMethod(method string) []Action {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return []Action{ActionRead}
	case http.MethodPost:
		return []Action{ActionCreate, ActionWrite, ActionExecute}
	case http.MethodPut, http.MethodPatch:
		return []Action{ActionUpdate, ActionWrite}
	case http.MethodDelete:
		return []Action{ActionDelete, ActionWrite}
	default:
		return nil
	}
}
