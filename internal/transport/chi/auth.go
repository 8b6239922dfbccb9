package chi

import (
	"net/http"
	"strings"

	"github.com/kailas-cloud/searchlang/internal/domain"
)

// SessionKeyHeader carries a session key without an authorization scheme.
const SessionKeyHeader = "X-Session-Key"

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// SessionAuthMiddleware extracts the caller's session key and stores it in the
// request context for backend round-trips. Keys are accepted as
// "Authorization: Splunk <key>", "Authorization: Bearer <key>" or X-Session-Key.
// If sessionKeys is empty, validation is disabled and any key is passed along.
func SessionAuthMiddleware(sessionKeys []string) func(http.Handler) http.Handler {
	validKeys := make(map[string]struct{}, len(sessionKeys))
	for _, k := range sessionKeys {
		if k != "" {
			validKeys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			key, err := sessionKey(r)
			if len(validKeys) > 0 {
				if err != nil {
					writeError(w, http.StatusUnauthorized, err.Error())
					return
				}
				if _, ok := validKeys[key]; !ok {
					writeError(w, http.StatusUnauthorized, "invalid session key")
					return
				}
			}

			if key != "" {
				r = r.WithContext(domain.ContextWithSession(r.Context(), domain.Session{Key: key}))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sessionKey(r *http.Request) (string, error) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if !ok || (scheme != "Splunk" && scheme != "Bearer") {
			return "", errAuthScheme
		}
		token = strings.TrimSpace(token)
		if token == "" {
			return "", errMissingKey
		}
		return token, nil
	}
	if key := strings.TrimSpace(r.Header.Get(SessionKeyHeader)); key != "" {
		return key, nil
	}
	return "", errMissingKey
}

type authError string

func (e authError) Error() string { return string(e) }

const (
	errMissingKey authError = "missing session key"
	errAuthScheme authError = "authorization header must use Splunk or Bearer scheme"
)
