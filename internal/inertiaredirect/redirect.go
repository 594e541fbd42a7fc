package inertiaredirect

import (
	"net/http"
	"slices"

	"go.inout.gg/foundations/debug"
)

//nolint:gochecknoglobals
var d = debug.Debuglog("inertia/redirect")

// https://inertiajs.com/redirects#303-response-code
//
//nolint:gochecknoglobals
var seeOtherMethods = []string{http.MethodPut, http.MethodPatch, http.MethodDelete}

// Redirect redirects the client to the specified URL.
//
// It follows the redirect specification described here: https://inertiajs.com/redirects
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	statusCode := http.StatusSeeOther
	if r.Method == http.MethodGet {
		statusCode = http.StatusFound
	}

	d("Redirecting to %s with status code %d", url, statusCode)

	http.Redirect(w, r, url, statusCode)
}

// SeeOther reports whether a 302 issued in response to method must be
// rewritten to 303 so that the browser follows it with GET.
func SeeOther(method string, status int) bool {
	return status == http.StatusFound && slices.Contains(seeOtherMethods, method)
}
