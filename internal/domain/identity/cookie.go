package identity

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/securecookie"
)

const CookieName = "f4_session"

// Codec encodes the token pair into a single encrypted, authenticated
// session cookie.
type Codec struct {
	sc     *securecookie.SecureCookie
	secure bool
}

func NewCodec(hashKey, blockKey string, secure bool) *Codec {
	return &Codec{
		sc:     securecookie.New(deriveKey(hashKey), deriveKey(blockKey)),
		secure: secure,
	}
}

func (c *Codec) Encode(pair TokenPair) (*http.Cookie, error) {
	encoded, err := c.sc.Encode(CookieName, pair)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

func (c *Codec) Decode(r *http.Request) (TokenPair, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return TokenPair{}, err
	}
	var pair TokenPair
	if err := c.sc.Decode(CookieName, cookie.Value, &pair); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

func (c *Codec) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func deriveKey(seed string) []byte {
	if seed == "" {
		return securecookie.GenerateRandomKey(32)
	}
	sum := sha256.Sum256([]byte(seed))
	return sum[:]
}
