package inertia

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trall.dev/inertia/internal/inertiaheader"
	"go.trall.dev/inertia/internal/inertiatest"
)

func TestParseRequestContext(t *testing.T) {
	t.Parallel()

	t.Run("all headers", func(t *testing.T) {
		t.Parallel()

		h := http.Header{}
		h.Set(inertiaheader.HeaderXInertia, "true")
		h.Set(inertiaheader.HeaderXInertiaVersion, "v1")
		h.Set(inertiaheader.HeaderXInertiaPartialComponent, "Users/Index")
		h.Set(inertiaheader.HeaderXInertiaPartialData, "users, stats ,,users")
		h.Set(inertiaheader.HeaderXInertiaPartialExcept, "filters")
		h.Set(inertiaheader.HeaderXInertiaReset, "users")
		h.Set(inertiaheader.HeaderXInertiaExceptOnceProps, "countries,plans")
		h.Set(inertiaheader.HeaderXInertiaMergeIntent, "PrePend")
		h.Set(inertiaheader.HeaderXInertiaErrorBag, "createUser")

		rc := ParseRequestContext(h, http.MethodPatch, "/users?page=2")

		assert.True(t, rc.Inertia)
		assert.Equal(t, "v1", rc.Version)
		assert.Equal(t, "Users/Index", rc.PartialComponent)
		assert.Equal(t, []string{"stats", "users"}, rc.PartialData.Values())
		assert.Equal(t, []string{"filters"}, rc.PartialExcept.Values())
		assert.Equal(t, []string{"users"}, rc.Reset.Values())
		assert.Equal(t, []string{"countries", "plans"}, rc.ExceptOnceProps.Values())
		assert.Equal(t, MergeIntentPrepend, rc.MergeIntent)
		assert.Equal(t, "createUser", rc.ErrorBag)
		assert.Equal(t, "/users?page=2", rc.URL)
		assert.Equal(t, http.MethodPatch, rc.Method)
		assert.True(t, rc.IsPartialReload())
	})

	t.Run("no headers", func(t *testing.T) {
		t.Parallel()

		rc := ParseRequestContext(http.Header{}, http.MethodGet, "/")

		assert.False(t, rc.Inertia)
		assert.Empty(t, rc.Version)
		assert.Empty(t, rc.PartialComponent)
		assert.Empty(t, rc.PartialData)
		assert.Empty(t, rc.PartialExcept)
		assert.Empty(t, rc.Reset)
		assert.Empty(t, rc.ExceptOnceProps)
		assert.Equal(t, MergeIntentNone, rc.MergeIntent)
		assert.False(t, rc.IsPartialReload())
	})

	t.Run("malformed values degrade", func(t *testing.T) {
		t.Parallel()

		h := http.Header{}
		h.Set(inertiaheader.HeaderXInertia, "yes")
		h.Set(inertiaheader.HeaderXInertiaPartialData, " , ,")
		h.Set(inertiaheader.HeaderXInertiaMergeIntent, "sideways")

		rc := ParseRequestContext(h, http.MethodGet, "/")

		assert.False(t, rc.Inertia)
		assert.Empty(t, rc.PartialData)
		assert.Equal(t, MergeIntentNone, rc.MergeIntent)
	})

	t.Run("partial reload requires an inertia request", func(t *testing.T) {
		t.Parallel()

		h := http.Header{}
		h.Set(inertiaheader.HeaderXInertiaPartialData, "users")

		rc := ParseRequestContext(h, http.MethodGet, "/")
		assert.False(t, rc.IsPartialReload())
	})
}

func TestRequestContext_IsPartialReloadFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		config    *inertiatest.RequestConfig
		component string
		expected  bool
	}{
		{
			name:      "matching component",
			config:    &inertiatest.RequestConfig{Inertia: true, PartialComponent: "Home", Whitelist: []string{"a"}},
			component: "Home",
			expected:  true,
		},
		{
			name:      "other component",
			config:    &inertiatest.RequestConfig{Inertia: true, PartialComponent: "Other", Whitelist: []string{"a"}},
			component: "Home",
			expected:  false,
		},
		{
			name:      "no component",
			config:    &inertiatest.RequestConfig{Inertia: true, Blacklist: []string{"a"}},
			component: "Home",
			expected:  true,
		},
		{
			name:      "not partial",
			config:    &inertiatest.RequestConfig{Inertia: true, PartialComponent: "Home"},
			component: "Home",
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, _ := inertiatest.NewRequest(http.MethodGet, "/", tt.config)
			assert.Equal(t, tt.expected, RequestContextFrom(r).IsPartialReloadFor(tt.component))
		})
	}
}

func TestRequestContextFrom(t *testing.T) {
	t.Parallel()

	r, _ := inertiatest.NewRequest(http.MethodGet, "/users?sort=name", &inertiatest.RequestConfig{Inertia: true})

	rc := RequestContextFrom(r)
	require.NotNil(t, rc)
	assert.Same(t, rc, RequestContextFrom(r), "repeated access must yield the same instance")
	assert.Equal(t, "/users?sort=name", rc.URL)

	// Headers changed after parsing are not observed.
	r.Header.Set(inertiaheader.HeaderXInertiaVersion, "v2")
	assert.Empty(t, RequestContextFrom(r).Version)
}

func TestCheckVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		clientVersion string
		serverVersion string
		inertia       bool
		redirect      bool
	}{
		{"mismatch", "old", "v1", true, true},
		{"match", "v1", "v1", true, false},
		{"client version missing", "", "v1", true, false},
		{"server version missing", "old", "", true, false},
		{"not an inertia request", "old", "v1", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, _ := inertiatest.NewRequest(http.MethodGet, "/users?page=3", &inertiatest.RequestConfig{
				Inertia: tt.inertia,
				Version: tt.clientVersion,
			})

			check := CheckVersion(RequestContextFrom(r), tt.serverVersion)
			assert.Equal(t, tt.redirect, check.Redirect)

			if tt.redirect {
				assert.Equal(t, "/users?page=3", check.Location)
			} else {
				assert.Empty(t, check.Location)
			}
		})
	}
}

func TestAdaptRedirectStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method   string
		status   int
		inertia  bool
		expected int
	}{
		{http.MethodPut, http.StatusFound, true, http.StatusSeeOther},
		{http.MethodPatch, http.StatusFound, true, http.StatusSeeOther},
		{http.MethodDelete, http.StatusFound, true, http.StatusSeeOther},
		{http.MethodPost, http.StatusFound, true, http.StatusFound},
		{http.MethodGet, http.StatusFound, true, http.StatusFound},
		{http.MethodPut, http.StatusMovedPermanently, true, http.StatusMovedPermanently},
		{http.MethodPut, http.StatusOK, true, http.StatusOK},
		{http.MethodPut, http.StatusFound, false, http.StatusFound},
	}

	for _, tt := range tests {
		rc := ParseRequestContext(http.Header{}, tt.method, "/")
		rc.Inertia = tt.inertia

		assert.Equal(t, tt.expected, AdaptRedirectStatus(rc, tt.status),
			"%s %d (inertia=%t)", tt.method, tt.status, tt.inertia)
	}
}
