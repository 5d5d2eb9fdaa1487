package gateway

import (
	"errors"
	"net/url"

	"tinygate/internal/auth"
)

// Reason identifies why a request was rejected. Distinct reasons let the
// transport layer map outcomes to status codes without the engine knowing
// about HTTP statuses.
type Reason string

const (
	ReasonNoCredentials  Reason = "no_credentials"
	ReasonInvalidToken   Reason = "invalid_token"
	ReasonTokenExpired   Reason = "token_expired"
	ReasonUnknownSubject Reason = "unknown_subject"
	ReasonTenantMismatch Reason = "tenant_mismatch"
	ReasonRoleMismatch   Reason = "role_mismatch"
	ReasonNoRoute        Reason = "no_route"
	ReasonForbidden      Reason = "forbidden"
)

// Rejection is a terminal authorization outcome. The first failing check
// determines the reason; later checks never run, so a rejection does not
// reveal whether a later stage would also have failed.
type Rejection struct {
	Reason Reason
}

// ForwardInstruction tells the transport where and how to forward an
// authorized request.
type ForwardInstruction struct {
	// Upstream is the target base URL of the matched rule.
	Upstream *url.URL
	// Path is the rewritten path, already joined onto the target's base
	// path.
	Path string
	// HostOverride replaces the forwarded Host header when non-empty.
	HostOverride string
	// TenantID is always injected as the tenant context header.
	TenantID string
	Subject  string
}

// Authorizer sequences token binding, route resolution and the permission
// check into the single decision made per proxied request. It is a pure
// function of the request and the snapshot read at entry; it performs no
// I/O and holds no locks.
type Authorizer struct {
	store  *Store
	tokens *auth.Codec
}

func NewAuthorizer(store *Store, tokens *auth.Codec) *Authorizer {
	return &Authorizer{store: store, tokens: tokens}
}

// AuthorizeAndRoute decides whether the request may proceed and where it
// is forwarded. Exactly one of the results is non-nil.
func (a *Authorizer) AuthorizeAndRoute(token, method, path string) (*ForwardInstruction, *Rejection) {
	snap := a.store.Load()

	if token == "" {
		return nil, &Rejection{Reason: ReasonNoCredentials}
	}
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return nil, reject(err)
	}
	id, err := auth.Rebind(claims, snap)
	if err != nil {
		return nil, reject(err)
	}

	m, ok := snap.Routes.Resolve(path)
	if !ok {
		return nil, &Rejection{Reason: ReasonNoRoute}
	}

	if !snap.Roles.AllowedForMethod(id.Roles, m.Resource, method) {
		return nil, &Rejection{Reason: ReasonForbidden}
	}

	return &ForwardInstruction{
		Upstream:     m.Rule.Target,
		Path:         m.UpstreamPath(),
		HostOverride: m.HostOverride,
		TenantID:     id.TenantID,
		Subject:      id.Subject,
	}, nil
}

func reject(err error) *Rejection {
	var ae *auth.Error
	if errors.As(err, &ae) {
		switch ae.Code {
		case auth.CodeTokenExpired:
			return &Rejection{Reason: ReasonTokenExpired}
		case auth.CodeUnknownSubject:
			return &Rejection{Reason: ReasonUnknownSubject}
		case auth.CodeTenantMismatch:
			return &Rejection{Reason: ReasonTenantMismatch}
		case auth.CodeRoleMismatch:
			return &Rejection{Reason: ReasonRoleMismatch}
		}
	}
	return &Rejection{Reason: ReasonInvalidToken}
}
