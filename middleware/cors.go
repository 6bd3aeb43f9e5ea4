package middleware

import (
	"net/http"
	"slices"
	"strings"
)

// OriginPolicy decides which browser origins may call the API and open
// sockets. Outside production every origin is allowed.
type OriginPolicy struct {
	Allowed    []string
	Production bool
}

func (p OriginPolicy) Allows(origin string) bool {
	if origin == "" || !p.Production {
		return true
	}
	return slices.Contains(p.Allowed, origin)
}

// CORSMiddleware answers preflight requests and sets CORS headers for
// origins the policy accepts. Disallowed origins get no CORS headers, so
// browsers block the response.
func CORSMiddleware(policy OriginPolicy, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && policy.Allows(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", strings.Join([]string{"Content-Type", "Accept", "Authorization", PasswordHeader}, ", "))
			h.Set("Access-Control-Max-Age", "600")
			h.Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			if origin != "" && !policy.Allows(origin) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
