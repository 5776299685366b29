package gqlapi

import (
	"net/http"
	"strings"

	"analyzeit.org/internal/auth"
	"analyzeit.org/internal/obs"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

// withIdentity resolves the caller's identity once per request. A missing
// token is not an error: public fields stay servable. A present but invalid
// token is logged and treated as unauthenticated (soft fail), so a stale
// token degrades to the public view instead of aborting the whole request.
func (a *API) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get(authHeader))
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			obs.Warn("invalid bearer token", map[string]any{
				"request_id": requestIDFromContext(r.Context()),
				"cause":      err.Error(),
			})
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), user)))
	})
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearerPrefix)) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}
