// Package inertiatest builds protocol requests for tests.
package inertiatest

import (
	"cmp"
	"net/http"
	"net/http/httptest"
	"strings"

	"go.trall.dev/inertia/internal/inertiaheader"
)

type RequestConfig struct {
	Version          string
	PartialComponent string
	MergeIntent      string
	ErrorBag         string
	Whitelist        []string
	Blacklist        []string
	ResetProps       []string
	ExceptOnceProps  []string
	Inertia          bool
}

// NewRequest creates a new request with an empty body.
func NewRequest(
	method string,
	target string,
	config *RequestConfig,
) (*http.Request, *httptest.ResponseRecorder) {
	r := httptest.NewRequest(method, target, nil)

	//nolint:exhaustruct
	config = cmp.Or(config, &RequestConfig{})

	setHeaders(r.Header, config)

	return r, httptest.NewRecorder()
}

func setHeaders(h http.Header, config *RequestConfig) {
	if config.Inertia {
		h.Set(inertiaheader.HeaderXInertia, "true")
	}

	set := func(name, value string) {
		if value != "" {
			h.Set(name, value)
		}
	}

	set(inertiaheader.HeaderXInertiaVersion, config.Version)
	set(inertiaheader.HeaderXInertiaPartialComponent, config.PartialComponent)
	set(inertiaheader.HeaderXInertiaMergeIntent, config.MergeIntent)
	set(inertiaheader.HeaderXInertiaErrorBag, config.ErrorBag)
	set(inertiaheader.HeaderXInertiaPartialData, strings.Join(config.Whitelist, ","))
	set(inertiaheader.HeaderXInertiaPartialExcept, strings.Join(config.Blacklist, ","))
	set(inertiaheader.HeaderXInertiaReset, strings.Join(config.ResetProps, ","))
	set(inertiaheader.HeaderXInertiaExceptOnceProps, strings.Join(config.ExceptOnceProps, ","))
}
