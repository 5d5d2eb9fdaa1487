package auth

// User is a configured user record as the authentication layer sees it.
type User struct {
	Name     string
	Secret   string
	TenantID string
	Roles    []string
}

// UserDirectory is the view of the configuration snapshot this package
// needs: case-sensitive user lookup by exact name.
type UserDirectory interface {
	LookupUser(name string) (User, bool)
}

// Identity is an authenticated caller, always derived from the current
// configuration snapshot (never from token claims alone).
type Identity struct {
	Subject  string
	TenantID string
	Roles    []string
}
