package gateway

import (
	"net/http"
	"net/http/httputil"
	"strings"

	"tinygate/pkg/logger"
	"tinygate/pkg/middleware"
	"tinygate/pkg/problems"
)

// TenantHeader carries the authenticated tenant id to the upstream on
// every forwarded request.
const TenantHeader = "X-Tenant-ID"

// ProxyHandler is the transport collaborator: it executes the forwarding
// instruction produced by the authorizer and streams the upstream response
// back unmodified.
type ProxyHandler struct {
	authz *Authorizer
	log   logger.Sugared
}

func NewProxyHandler(authz *Authorizer, log logger.Sugared) *ProxyHandler {
	return &ProxyHandler{authz: authz, log: log}
}

func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fi, rej := h.authz.AuthorizeAndRoute(bearerToken(r), r.Method, r.URL.Path)
	if rej != nil {
		middleware.Decisions.WithLabelValues(string(rej.Reason)).Inc()
		writeRejection(w, rej)
		return
	}
	middleware.Decisions.WithLabelValues("allowed").Inc()

	rp := &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			req.URL.Scheme = fi.Upstream.Scheme
			req.URL.Host = fi.Upstream.Host
			req.URL.Path = fi.Path
			req.URL.RawPath = ""
			if fi.HostOverride != "" {
				req.Host = fi.HostOverride
			}
			req.Header.Set(TenantHeader, fi.TenantID)
			// ReverseProxy strips hop-by-hop headers; the original
			// Authorization header travels along for upstream use.
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			h.log.Errorw("upstream error", "upstream", fi.Upstream.Host, "path", fi.Path, "err", err)
			problems.Write(w, http.StatusBadGateway, "bad-gateway", "unable to reach the upstream server")
		},
	}
	rp.ServeHTTP(w, r)
}

// bearerToken extracts the bearer token from the Authorization header, or
// returns "" when missing or malformed.
func bearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if len(authz) < 7 || !strings.EqualFold(authz[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(authz[7:])
}

func writeRejection(w http.ResponseWriter, rej *Rejection) {
	status := http.StatusUnauthorized
	detail := "could not validate credentials"
	switch rej.Reason {
	case ReasonNoRoute:
		status = http.StatusNotFound
		detail = "no route configured for this path"
	case ReasonForbidden:
		status = http.StatusForbidden
		detail = "insufficient permissions"
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	problems.Write(w, status, strings.ReplaceAll(string(rej.Reason), "_", "-"), detail)
}
