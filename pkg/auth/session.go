package auth

import (
	"crypto/sha256"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/dashlytics/insight-engine/pkg/config"
)

// sessionKeyID is the cookie value key holding the chat session ID.
const sessionKeyID = "session_id"

// CookieStore binds a browser to its chat session. The signed cookie only
// carries the session ID; dataset and transcript state live server-side in
// the session repository.
type CookieStore struct {
	store *sessions.CookieStore
	name  string
}

// NewCookieStore creates a signed cookie store from session settings.
//
// The secret can be any passphrase - it is SHA-256 hashed to derive a
// consistent 32-byte signing key. The secret must be consistent across
// server restarts or existing browser cookies stop validating.
//
// Security settings:
// - HttpOnly: true (inaccessible to JavaScript)
// - Secure: set for non-local environments (HTTPS only)
// - SameSite: Strict (prevents CSRF)
func NewCookieStore(cfg config.SessionConfig, secure bool) *CookieStore {
	// Hash the secret to get a consistent 32-byte key
	key := sha256.Sum256([]byte(cfg.Secret))

	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAgeSeconds,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}

	return &CookieStore{store: store, name: cfg.CookieName}
}

// Bind writes the chat session ID into the browser cookie.
func (c *CookieStore) Bind(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) error {
	session, _ := c.store.Get(r, c.name)
	session.Values[sessionKeyID] = sessionID.String()
	return session.Save(r, w)
}

// Current returns the chat session ID bound to the browser, if any. A
// missing, tampered, or malformed cookie reads as no binding.
func (c *CookieStore) Current(r *http.Request) (uuid.UUID, bool) {
	session, err := c.store.Get(r, c.name)
	if err != nil {
		return uuid.Nil, false
	}

	raw, ok := session.Values[sessionKeyID].(string)
	if !ok {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Clear expires the browser cookie.
func (c *CookieStore) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := c.store.Get(r, c.name)
	delete(session.Values, sessionKeyID)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
