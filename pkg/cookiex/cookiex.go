// Package cookiex seals the client-held session claim into a signed cookie.
// The claim is nothing more than an opaque user id; it is only an assertion
// and must still be resolved against storage before being trusted.
package cookiex

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultName is the cookie name used when Codec.Name is empty.
const DefaultName = "taskorbit_session"

var (
	// ErrNoClaim means the request carries no session cookie at all.
	ErrNoClaim = errors.New("cookiex: no session claim")
	// ErrBadClaim means the cookie is present but tampered, expired or
	// otherwise unusable.
	ErrBadClaim = errors.New("cookiex: invalid session claim")
)

// Codec signs and opens session cookies with an HMAC-SHA256 token.
type Codec struct {
	Name   string        // cookie name (DefaultName if empty)
	Secret []byte        // HMAC key, required
	TTL    time.Duration // claim lifetime
	Secure bool          // set the Secure cookie attribute
}

func (c *Codec) name() string {
	if c.Name != "" {
		return c.Name
	}
	return DefaultName
}

// Issue writes a session cookie asserting the given subject (user id).
func (c *Codec) Issue(w http.ResponseWriter, subject string) error {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.TTL)),
	})

	signed, err := token.SignedString(c.Secret)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    signed,
		Path:     "/",
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read extracts and verifies the claimed subject from the request cookie.
func (c *Codec) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.name())
	if err != nil {
		return "", ErrNoClaim
	}

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(cookie.Value, claims,
		func(t *jwt.Token) (any, error) { return c.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || claims.Subject == "" {
		return "", ErrBadClaim
	}

	return claims.Subject, nil
}

// Clear removes the session cookie. Destructive but safe: it only drops
// the claim, never server-side data.
func (c *Codec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
