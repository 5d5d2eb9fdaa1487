package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Authenticate checks a username/password pair against the directory and
// returns the caller's identity. A missing user and a wrong password are
// indistinguishable to the caller.
func Authenticate(dir UserDirectory, username, password string) (Identity, error) {
	u, ok := dir.LookupUser(username)
	if !ok {
		// Burn a hash comparison so the miss costs the same as a mismatch.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return Identity{}, ErrInvalidCredentials
	}
	if !checkSecret(password, u.Secret) {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{Subject: u.Name, TenantID: u.TenantID, Roles: u.Roles}, nil
}

// dummyHash is a bcrypt hash of an unguessable throwaway value, used only
// to equalize timing when the user does not exist.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// checkSecret validates the submitted password against the stored secret.
// Bcrypt-formatted secrets are verified with bcrypt; anything else is a
// development-mode plaintext secret compared in constant time.
func checkSecret(password, stored string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
