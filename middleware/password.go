package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const NotePasswordKey contextKey = "notePassword"

// PasswordHeader carries the password of a protected note.
const PasswordHeader = "X-Note-Password"

// NotePassword extracts the note password from the request and stores it
// in the context. The query string is checked first so plain links work;
// the header is the fallback for API clients.
func NotePassword(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		password := r.URL.Query().Get("password")
		if password == "" {
			password = strings.TrimSpace(r.Header.Get(PasswordHeader))
		}
		if password == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), NotePasswordKey, password)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PasswordFrom returns the password stored by NotePassword, or "".
func PasswordFrom(ctx context.Context) string {
	password, _ := ctx.Value(NotePasswordKey).(string)
	return password
}
