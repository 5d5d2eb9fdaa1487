package auth

import (
	"errors"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	claimTenantID = "tenant_id"
	claimRoles    = "roles"
)

// Claims is the fixed identity payload carried by an issued token. It is a
// closed structure on purpose: the binder's equality checks must be
// exhaustive, which an open claim map would not allow.
type Claims struct {
	Subject  string
	TenantID string
	Roles    []string
	Expiry   time.Time
}

// Codec signs and verifies identity tokens with an HMAC key.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock overrides the time source. Test hook.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Issue mints a signed token for the identity with the configured lifetime.
func (c *Codec) Issue(id Identity) (string, error) {
	// A zero-role identity must still produce a token Parse accepts: nil
	// would serialize as JSON null and fail the roles claim check.
	roles := id.Roles
	if roles == nil {
		roles = []string{}
	}
	now := c.now()
	tok, err := jwt.NewBuilder().
		Subject(id.Subject).
		IssuedAt(now).
		Expiration(now.Add(c.ttl)).
		Claim(claimTenantID, id.TenantID).
		Claim(claimRoles, roles).
		Build()
	if err != nil {
		return "", err
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, c.secret))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

// Parse verifies the signature and expiry of a raw token and extracts its
// claims. Expired tokens fail ErrTokenExpired; any other defect (bad
// signature, garbage input, missing or malformed claims) fails
// ErrInvalidToken.
func (c *Codec) Parse(raw string) (Claims, error) {
	tok, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, c.secret),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(c.now)),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrInvalidToken
	}

	cl := Claims{Subject: tok.Subject(), Expiry: tok.Expiration()}
	if cl.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	tid, ok := tok.Get(claimTenantID)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	if cl.TenantID, ok = tid.(string); !ok || cl.TenantID == "" {
		return Claims{}, ErrInvalidToken
	}
	rawRoles, ok := tok.Get(claimRoles)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	cl.Roles, ok = toStringSlice(rawRoles)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	return cl, nil
}

func toStringSlice(v any) ([]string, bool) {
	switch vv := v.(type) {
	case nil:
		// a null roles claim is an empty role set, not a malformed token
		return []string{}, true
	case []string:
		return vv, true
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
