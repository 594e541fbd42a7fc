package inertiaflash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-json-experiment/json"
	"go.inout.gg/foundations/debug"
	"go.inout.gg/foundations/http/httpcookie"
)

// Cookie carries flash data in a cookie signed with HMAC-SHA256.
//
// Browsers limit cookies to about 4KB, so Cookie only suits small messages.
type Cookie struct {
	opts   CookieOptions
	secret []byte
}

// NewCookie creates a cookie carrier signing its data with secret.
// If opts is nil, default options are used.
func NewCookie(secret []byte, opts *CookieOptions) *Cookie {
	debug.Assert(len(secret) > 0, "secret must be provided")

	var o CookieOptions
	if opts != nil {
		o = *opts
	}

	o.defaults()

	return &Cookie{opts: o, secret: secret}
}

// Load returns the data carried by the request cookie.
func (c *Cookie) Load(r *http.Request) (map[string]any, error) {
	val := httpcookie.Get(r, c.opts.Name)
	if val == "" {
		return nil, nil
	}

	payload, sig, ok := strings.Cut(val, ".")
	if !ok {
		return nil, ErrInvalidFlash
	}

	b, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFlash, err)
	}

	want, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFlash, err)
	}

	if !hmac.Equal(c.sign(b), want) {
		return nil, ErrInvalidFlash
	}

	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFlash, err)
	}

	d("Loaded %d flash values from cookie", len(data))

	return data, nil
}

// Save stores data in the response cookie.
func (c *Cookie) Save(w http.ResponseWriter, _ *http.Request, data map[string]any) error {
	b, err := json.Marshal(data, json.Deterministic(true))
	if err != nil {
		return fmt.Errorf("inertiaflash: failed to encode flash data: %w", err)
	}

	val := base64.RawURLEncoding.EncodeToString(b) + "." +
		base64.RawURLEncoding.EncodeToString(c.sign(b))

	http.SetCookie(w, c.opts.cookie(val))

	return nil
}

// Clear removes the cookie from the client.
func (c *Cookie) Clear(w http.ResponseWriter, r *http.Request) error {
	httpcookie.Delete(w, r, c.opts.Name)
	return nil
}

func (c *Cookie) sign(b []byte) []byte {
	mac := hmac.New(sha256.New, c.secret)
	_, _ = mac.Write(b)

	return mac.Sum(nil)
}
