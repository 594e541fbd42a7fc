// Package inertiaflash provides storage backends carrying flash data of the
// inertia package across redirects.
//
// Cookie keeps the data in a signed client-side cookie, Redis keeps it
// server-side and hands the client an opaque identifier.
package inertiaflash

import (
	"errors"
	"net/http"
	"time"

	"go.inout.gg/foundations/debug"

	"go.trall.dev/inertia"
)

//nolint:gochecknoglobals
var d = debug.Debuglog("inertia/flash")

const (
	DefaultCookieName = "_inertia_flash"
	DefaultCookiePath = "/"
	DefaultTTL        = 5 * time.Minute
)

var (
	_ inertia.FlashCarrier = (*Cookie)(nil)
	_ inertia.FlashCarrier = (*Redis)(nil)
)

// ErrInvalidFlash is returned when the carried data has been tampered with
// or can't be decoded.
var ErrInvalidFlash = errors.New("inertiaflash: invalid flash data")

// CookieOptions configures the cookie sent to the client.
type CookieOptions struct {
	// Name is the cookie name. Defaults to DefaultCookieName.
	Name string

	// Path is the cookie path. Defaults to DefaultCookiePath.
	Path string

	// SameSite defaults to http.SameSiteLaxMode.
	SameSite http.SameSite

	// TTL bounds the lifetime of carried data. Defaults to DefaultTTL.
	TTL time.Duration

	// Secure marks the cookie as HTTPS only.
	Secure bool
}

func (o *CookieOptions) defaults() {
	if o.Name == "" {
		o.Name = DefaultCookieName
	}

	if o.Path == "" {
		o.Path = DefaultCookiePath
	}

	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}

	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
}

func (o *CookieOptions) cookie(value string) *http.Cookie {
	//nolint:exhaustruct
	return &http.Cookie{
		Name:     o.Name,
		Value:    value,
		Path:     o.Path,
		MaxAge:   int(o.TTL.Seconds()),
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: o.SameSite,
	}
}
