package auth

// Code identifies an authentication failure class. Every variant is
// recoverable per-request; callers translate codes into transport outcomes.
type Code string

const (
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeInvalidToken       Code = "invalid_token"
	CodeTokenExpired       Code = "token_expired"
	CodeUnknownSubject     Code = "unknown_subject"
	CodeTenantMismatch     Code = "tenant_mismatch"
	CodeRoleMismatch       Code = "role_mismatch"
)

type Error struct {
	Code Code
}

func (e *Error) Error() string { return string(e.Code) }

var (
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials}
	ErrInvalidToken       = &Error{Code: CodeInvalidToken}
	ErrTokenExpired       = &Error{Code: CodeTokenExpired}
	ErrUnknownSubject     = &Error{Code: CodeUnknownSubject}
	ErrTenantMismatch     = &Error{Code: CodeTenantMismatch}
	ErrRoleMismatch       = &Error{Code: CodeRoleMismatch}
)
