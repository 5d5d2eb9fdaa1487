package gateway

import (
	_ "embed"
	"encoding/json"
	"net/http"

	"tinygate/internal/auth"
	"tinygate/pkg/problems"
)

//go:embed ui/index.html
var loginPage []byte

// handleLogin is the OAuth2-password-style token endpoint: form fields
// username and password, JSON access token on success.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		problems.Write(w, http.StatusBadRequest, "bad-request", "malformed form body")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	snap := s.store.Load()
	id, err := auth.Authenticate(snap, username, password)
	if err != nil {
		s.log.Debugw("login rejected", "user", username)
		w.Header().Set("WWW-Authenticate", "Bearer")
		problems.Write(w, http.StatusUnauthorized, "invalid-credentials", "incorrect username or password")
		return
	}
	token, err := s.tokens.Issue(id)
	if err != nil {
		s.log.Errorw("token issue failed", "user", username, "err", err)
		problems.Write(w, http.StatusInternalServerError, "internal", "could not issue token")
		return
	}
	s.log.Infow("login ok", "user", id.Subject, "tenant", id.TenantID)
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// handleMe returns the caller's identity as currently configured. The
// token is rebound against the live snapshot, so a stale token fails here
// exactly as it would on a proxied request.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		w.Header().Set("WWW-Authenticate", "Bearer")
		problems.Write(w, http.StatusUnauthorized, "no-credentials", "missing bearer token")
		return
	}
	snap := s.store.Load()
	claims, err := s.tokens.Parse(token)
	if err != nil {
		writeRejection(w, reject(err))
		return
	}
	id, err := auth.Rebind(claims, snap)
	if err != nil {
		writeRejection(w, reject(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"username":  id.Subject,
		"roles":     id.Roles,
		"tenant_id": id.TenantID,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(loginPage)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
