package inertia

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"go.trall.dev/inertia/internal/inertiaheader"
	"go.trall.dev/inertia/internal/inertiaredirect"
)

type requestCtxKey struct{}

//nolint:gochecknoglobals
var kRequestCtxKey = requestCtxKey{}

// MergeIntent is the direction in which an infinite scroll client is
// loading pages.
type MergeIntent int

const (
	MergeIntentNone MergeIntent = iota
	MergeIntentAppend
	MergeIntentPrepend
)

// HeaderSet is a set of values parsed from a comma-separated header.
type HeaderSet map[string]struct{}

// Has reports whether the set contains v.
func (s HeaderSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Values returns the set members in sorted order.
func (s HeaderSet) Values() []string {
	values := make([]string, 0, len(s))
	for v := range s {
		values = append(values, v)
	}

	slices.Sort(values)

	return values
}

// RequestContext describes the client intent of a single request, as
// declared through the protocol headers. It is immutable once parsed.
//
// Absent headers are reported as empty strings and empty sets.
type RequestContext struct {
	PartialData      HeaderSet
	PartialExcept    HeaderSet
	Reset            HeaderSet
	ExceptOnceProps  HeaderSet
	Version          string
	PartialComponent string
	ErrorBag         string
	URL              string
	Method           string
	MergeIntent      MergeIntent
	Inertia          bool
}

// ParseRequestContext builds a RequestContext from raw protocol headers.
// It never fails: malformed or missing headers degrade to empty values.
func ParseRequestContext(h http.Header, method, url string) *RequestContext {
	return &RequestContext{
		Inertia:          h.Get(inertiaheader.HeaderXInertia) == "true",
		Version:          h.Get(inertiaheader.HeaderXInertiaVersion),
		PartialComponent: h.Get(inertiaheader.HeaderXInertiaPartialComponent),
		PartialData:      extractHeaderValueSet(h.Get(inertiaheader.HeaderXInertiaPartialData)),
		PartialExcept:    extractHeaderValueSet(h.Get(inertiaheader.HeaderXInertiaPartialExcept)),
		Reset:            extractHeaderValueSet(h.Get(inertiaheader.HeaderXInertiaReset)),
		ExceptOnceProps:  extractHeaderValueSet(h.Get(inertiaheader.HeaderXInertiaExceptOnceProps)),
		MergeIntent:      parseMergeIntent(h.Get(inertiaheader.HeaderXInertiaMergeIntent)),
		ErrorBag:         h.Get(inertiaheader.HeaderXInertiaErrorBag),
		URL:              url,
		Method:           method,
	}
}

// RequestContextFrom returns the RequestContext of r, parsing it on first
// access. Subsequent calls for the same request return the same instance.
func RequestContextFrom(r *http.Request) *RequestContext {
	if rc, ok := r.Context().Value(kRequestCtxKey).(*RequestContext); ok && rc != nil {
		return rc
	}

	rc := ParseRequestContext(r.Header, r.Method, requestURL(r))

	// Cache for the rest of the request.
	*r = *r.WithContext(context.WithValue(r.Context(), kRequestCtxKey, rc))

	return rc
}

// IsPartialReload reports whether the client asked for a subset of props.
func (rc *RequestContext) IsPartialReload() bool {
	return rc.Inertia && (len(rc.PartialData) > 0 || len(rc.PartialExcept) > 0)
}

// IsPartialReloadFor reports whether the request is a partial reload of
// the given component. A partial reload naming another component is
// served as a regular Inertia visit.
func (rc *RequestContext) IsPartialReloadFor(component string) bool {
	return rc.IsPartialReload() &&
		(rc.PartialComponent == "" || rc.PartialComponent == component)
}

// requests reports whether the partial reload explicitly names key.
func (rc *RequestContext) requests(key string, partial bool) bool {
	return partial && len(rc.PartialData) > 0 && rc.PartialData.Has(key)
}

// VersionCheck is the outcome of comparing asset versions.
type VersionCheck struct {
	// Location is the URL the client must visit in full when Redirect is set.
	Location string

	// Redirect is set when the client runs stale assets.
	Redirect bool
}

// CheckVersion compares the asset version declared by the client with
// serverVersion. A mismatch on an Inertia request requires a full reload of
// the current URL. Empty versions never mismatch.
func CheckVersion(rc *RequestContext, serverVersion string) VersionCheck {
	if rc.Inertia && rc.Version != "" && serverVersion != "" && rc.Version != serverVersion {
		return VersionCheck{Redirect: true, Location: rc.URL}
	}

	return VersionCheck{Redirect: false, Location: ""}
}

// AdaptRedirectStatus rewrites 302 to 303 for Inertia requests issued with
// PUT, PATCH or DELETE, so that the browser follows the redirect with GET.
func AdaptRedirectStatus(rc *RequestContext, status int) int {
	if rc.Inertia && inertiaredirect.SeeOther(strings.ToUpper(rc.Method), status) {
		return http.StatusSeeOther
	}

	return status
}

func requestURL(r *http.Request) string {
	if r.URL == nil {
		return r.RequestURI
	}

	if r.URL.RawQuery == "" {
		return r.URL.EscapedPath()
	}

	return r.URL.EscapedPath() + "?" + r.URL.RawQuery
}

func parseMergeIntent(v string) MergeIntent {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "append":
		return MergeIntentAppend
	case "prepend":
		return MergeIntentPrepend
	}

	return MergeIntentNone
}

// extractHeaderValueSet extracts the set of non-empty values from a
// comma-separated header value.
func extractHeaderValueSet(h string) HeaderSet {
	fields := extractHeaderValueList(h)
	if len(fields) == 0 {
		return HeaderSet{}
	}

	set := make(HeaderSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}

	return set
}

// extractHeaderValueList extracts a list of trimmed, non-empty values from a
// comma-separated header value.
func extractHeaderValueList(h string) []string {
	if h == "" {
		return nil
	}

	fields := strings.Split(h, ",")
	values := fields[:0]

	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			values = append(values, f)
		}
	}

	if len(values) == 0 {
		return nil
	}

	return values
}
