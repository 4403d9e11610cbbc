// internal/session/cookiestore.go
//
// Flint – signed-cookie session store.
//
// Context
//   The default store keeps the whole session payload client side, in a
//   cookie whose value is base64(JSON) plus an HMAC-SHA256 signature.
//   Tampering invalidates the signature, and an invalid or absent
//   cookie simply yields a fresh empty session.  No secret key means no
//   sessions at all: Load returns nil and callers treat the session as
//   absent.
//
//   Save takes the outgoing header rather than a response type so the
//   store stays decoupled from the dispatch layer.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// DefaultCookieName matches the original framework's default.
const DefaultCookieName = "session"

// CookieStore signs and verifies session cookies.
type CookieStore struct {
	secret     []byte
	cookieName string
	maxAge     int // seconds; 0 means session cookie
}

// NewCookieStore returns a store signing with secret.  An empty secret
// disables sessions entirely.
func NewCookieStore(secret []byte, cookieName string) *CookieStore {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &CookieStore{secret: secret, cookieName: cookieName}
}

// Load reads, verifies, and decodes the session cookie from r.  A nil,
// nil return means sessions are disabled (no secret key).
func (cs *CookieStore) Load(r *http.Request) (*Session, error) {
	if len(cs.secret) == 0 {
		return nil, nil
	}

	c, err := r.Cookie(cs.cookieName)
	if err != nil || c.Value == "" {
		return New(), nil
	}

	payload, sig, ok := strings.Cut(c.Value, ".")
	if !ok || !cs.verify(payload, sig) {
		zap.S().Debugw("session cookie rejected", "cookie", cs.cookieName)
		return New(), nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return New(), nil
	}
	var vals map[string]any
	if err := json.Unmarshal(raw, &vals); err != nil {
		return New(), nil
	}
	return restore(vals), nil
}

// Save serialises sess into a signed cookie on h.  Callers only invoke
// Save when sess.Modified() reports true.
func (cs *CookieStore) Save(sess *Session, h http.Header) error {
	if len(cs.secret) == 0 || sess == nil {
		return nil
	}

	raw, err := json.Marshal(sess.vals)
	if err != nil {
		return err
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)

	c := &http.Cookie{
		Name:     cs.cookieName,
		Value:    payload + "." + cs.sign(payload),
		Path:     "/",
		MaxAge:   cs.maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	h.Add("Set-Cookie", c.String())
	return nil
}

// sign returns the base64 HMAC-SHA256 tag for payload.
func (cs *CookieStore) sign(payload string) string {
	mac := hmac.New(sha256.New, cs.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// verify checks sig against payload in constant time.
func (cs *CookieStore) verify(payload, sig string) bool {
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, cs.secret)
	mac.Write([]byte(payload))
	return hmac.Equal(got, mac.Sum(nil))
}
