package auth

// Rebind re-validates previously issued claims against the current
// configuration. The token's frozen view of the user must match live
// configuration exactly; any drift invalidates the token even before its
// expiry. The returned identity is built from the directory, not the token.
func Rebind(claims Claims, dir UserDirectory) (Identity, error) {
	u, ok := dir.LookupUser(claims.Subject)
	if !ok {
		return Identity{}, ErrUnknownSubject
	}
	if claims.TenantID != u.TenantID {
		return Identity{}, ErrTenantMismatch
	}
	if !sameRoleSet(claims.Roles, u.Roles) {
		return Identity{}, ErrRoleMismatch
	}
	return Identity{Subject: u.Name, TenantID: u.TenantID, Roles: u.Roles}, nil
}

// sameRoleSet compares role lists as sets: order and duplicates are
// irrelevant, membership is not.
func sameRoleSet(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, r := range a {
		as[r] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, r := range b {
		bs[r] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for r := range as {
		if _, ok := bs[r]; !ok {
			return false
		}
	}
	return true
}
