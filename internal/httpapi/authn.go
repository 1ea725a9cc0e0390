package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"brightbank.org/internal/token"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/login",
	"/v1/info",
	"/metrics",
	"/healthz",
	"/readyz",
	"/",
}

// withSession requires a valid session token on non-public paths. The
// token must both verify and still name the currently authenticated
// account: there is a single session, and closing or re-logging replaces
// it, invalidating any older token.
func (a *API) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		raw, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		username, err := token.ParseAndValidate(raw)
		if err != nil {
			if errors.Is(err, token.ErrInvalidToken) {
				writeError(w, r, http.StatusUnauthorized, "invalid session token")
			} else {
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}
		if current := a.sessions.CurrentUsername(); current != username {
			writeError(w, r, http.StatusUnauthorized, "session is no longer active")
			return
		}

		ctx := token.ContextWithSession(r.Context(), username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	raw := strings.TrimSpace(header[len(bearer):])
	if raw == "" {
		return "", errors.New("missing bearer token")
	}
	return raw, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
