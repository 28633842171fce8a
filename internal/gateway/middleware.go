package gateway

import (
	"fmt"
	"net/http"
	"strings"

	"taskflow/internal/domain"
)

// TokenVerifier turns a bearer token into an authenticated subject (user
// id). JWT/JWKS verification lives outside this repository; any verifier
// satisfying this interface can be plugged into the server.
type TokenVerifier interface {
	Verify(token string) (subject string, err error)
}

// StaticTokenVerifier accepts exactly one pre-shared token and maps it to a
// fixed subject. Suited to single-user deployments.
type StaticTokenVerifier struct {
	Token   string
	Subject string
}

// Verify implements TokenVerifier.
func (v StaticTokenVerifier) Verify(token string) (string, error) {
	if token == "" || token != v.Token {
		return "", fmt.Errorf("invalid token")
	}
	return v.Subject, nil
}

// subjectAny is the wildcard subject: the verifier vouches for whatever user
// the path names. Only the insecure dev verifier returns it.
const subjectAny = "*"

// insecureVerifier accepts any request without checking anything. Dev only.
type insecureVerifier struct{}

func (insecureVerifier) Verify(string) (string, error) { return subjectAny, nil }

// NewVerifier builds the TokenVerifier for an auth config. Mode "none"
// yields the insecure dev verifier; mode "token" the static pre-shared
// token. Unknown modes are rejected.
func NewVerifier(cfg domain.AuthConfig) (TokenVerifier, error) {
	switch cfg.Mode {
	case "", "none":
		return insecureVerifier{}, nil
	case "token":
		if cfg.AuthToken == "" {
			return nil, fmt.Errorf("auth mode \"token\" requires authToken")
		}
		subject := cfg.Subject
		if subject == "" {
			subject = subjectAny
		}
		return StaticTokenVerifier{Token: cfg.AuthToken, Subject: subject}, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q (use: none, token)", cfg.Mode)
	}
}

// RequireOwner wraps an /api/{user_id}/... handler: the bearer token must
// verify, and the verified subject must equal the path's user_id (403
// otherwise). The check runs before the core is ever reached, so a request
// can never act on another user's data no matter what the LLM says.
func RequireOwner(verifier TokenVerifier, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, err := verifier.Verify(bearerToken(r))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		if subject != subjectAny && subject != r.PathValue("user_id") {
			writeError(w, http.StatusForbidden, "Access denied")
			return
		}
		next(w, r)
	}
}

// bearerToken extracts the token from an Authorization: Bearer header.
// Returns empty string when absent or malformed.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}
