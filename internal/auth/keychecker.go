package auth

import (
	"crypto/subtle"
	"net/http"
)

// HeaderName is the request header carrying the credential.
const HeaderName = "X-API-Key"

// QueryParam is the query parameter fallback for clients that cannot set
// headers (browser WebSocket connections).
const QueryParam = "api_key"

// Keychecker validates a presented credential against the configured shared secret.
type Keychecker struct {
	key []byte
}

// NewKeychecker creates a keychecker for the given shared secret.
func NewKeychecker(key string) *Keychecker {
	return &Keychecker{key: []byte(key)}
}

// Credential extracts the presented credential from a request. The header
// takes precedence over the query parameter. Returns "" when absent.
func Credential(r *http.Request) string {
	if v := r.Header.Get(HeaderName); v != "" {
		return v
	}
	return r.URL.Query().Get(QueryParam)
}

// Check reports whether the presented credential matches the shared secret.
// An absent credential never matches.
func (k *Keychecker) Check(presented string) bool {
	if presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare(k.key, []byte(presented)) == 1
}

// Authorize reports whether the request carries a matching credential.
func (k *Keychecker) Authorize(r *http.Request) bool {
	return k.Check(Credential(r))
}
