package inertia

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"maps"
	"net/http"
	"path"
	"runtime"
	"slices"
	"strings"

	"github.com/go-json-experiment/json"
	"go.inout.gg/foundations/debug"
	"go.inout.gg/foundations/must"

	"go.trall.dev/inertia/internal/inertiabase"
	"go.trall.dev/inertia/internal/inertiaheader"
	"go.trall.dev/inertia/internal/inertiaredirect"
)

const (
	// DefaultRootViewID is the default root HTML element ID to which
	// the Inertia.js app is mounted.
	DefaultRootViewID = "app"
)

// DefaultConcurrency is the default concurrency level for props resolution
// marked as concurrently resolvable.
var DefaultConcurrency = runtime.GOMAXPROCS(0) //nolint:gochecknoglobals

// ErrBlankComponent is returned when a page is rendered without a component name.
var ErrBlankComponent = errors.New("inertia: component name must not be blank")

type (
	// Page represents an Inertia.js page that is sent to the client.
	Page = inertiabase.Page

	// OnceProp is the client-side caching instruction of a once prop.
	OnceProp = inertiabase.OnceProp
)

// Config configures the Renderer behavior and capabilities.
type Config struct {
	// SSRClient enables server-side rendering of Inertia pages.
	//
	// If nil, only client-side rendering is used.
	SSRClient SSRClient

	// Shared holds props added to every page.
	//
	// If nil, an empty store is created. Use Renderer.Shared to populate it.
	Shared *SharedStore

	// Logger reports recoverable failures, such as SSR outages.
	//
	// Defaults to slog.Default().
	Logger *slog.Logger

	// RootViewAttrs are HTML attributes applied to the root element.
	RootViewAttrs map[string]string

	// Version identifies the current asset version (e.g., build hash or timestamp).
	Version string

	// RootViewID is the HTML element ID where the Inertia app mounts.
	//
	// Defaults to "app" if not specified.
	RootViewID string

	// JSONMarshalOptions configures JSON serialization for page props and data.
	// Output is always deterministic.
	JSONMarshalOptions []json.Options

	// Concurrency sets the default maximum number of props that can be resolved concurrently.
	// It only affects props marked as concurrent.
	//
	// Defaults to runtime.GOMAXPROCS(0).
	Concurrency int

	// EncryptHistory instructs the client to encrypt the history state of
	// every page.
	EncryptHistory bool

	// MatchPartialComponent ignores partial reload headers naming another
	// component than the one rendered, serving a full Inertia visit instead.
	MatchPartialComponent bool
}

func (c *Config) defaults() {
	c.RootViewID = cmp.Or(c.RootViewID, DefaultRootViewID)
	c.Concurrency = cmp.Or(c.Concurrency, DefaultConcurrency)

	if c.Shared == nil {
		c.Shared = NewSharedStore()
	}

	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	debug.Assert(c.RootViewID != "", "RooViewID must be non-empty string")
}

// Renderer handles Inertia.js page responses, supporting both client-side and server-side rendering.
// It manages HTML template rendering, JSON serialization, and prop resolution.
//
// Create a Renderer using New or FromFS constructor functions.
type Renderer struct {
	ssrClient          SSRClient
	shared             *SharedStore
	logger             *slog.Logger
	t                  *template.Template
	jsonMarshalOptions []json.Options
	rootViewID         string
	version            string
	rootViewAttrs      []pair[[]byte, []byte]
	concurrency        int
	encryptHistory     bool
	matchComponent     bool
}

// New creates a Renderer with the provided HTML template and configuration.
//
// If config is nil, default values are used:
//   - RootViewID: "app"
//   - Concurrency: GOMAXPROCS(0)
func New(t *template.Template, config *Config) *Renderer {
	if config == nil {
		//nolint:exhaustruct
		config = &Config{}
	}

	config.defaults()

	keys := slices.Sorted(maps.Keys(config.RootViewAttrs))
	attrs := make([]pair[[]byte, []byte], 0, len(keys))

	for _, key := range keys {
		attrs = append(attrs, pair[[]byte, []byte]{[]byte(key), []byte(config.RootViewAttrs[key])})
	}

	jsonOpts := make([]json.Options, 0, len(config.JSONMarshalOptions)+1)
	jsonOpts = append(jsonOpts, json.Deterministic(true))
	jsonOpts = append(jsonOpts, config.JSONMarshalOptions...)

	r := &Renderer{
		t:                  t,
		ssrClient:          config.SSRClient,
		shared:             config.Shared,
		logger:             config.Logger,
		jsonMarshalOptions: jsonOpts,
		version:            config.Version,
		rootViewID:         config.RootViewID,
		rootViewAttrs:      attrs,
		concurrency:        config.Concurrency,
		encryptHistory:     config.EncryptHistory,
		matchComponent:     config.MatchPartialComponent,
	}

	debug.Assert(r.t != nil, "expected t to be defined")
	debug.Assert(r.rootViewID != "", "expected RootViewID to be defined")

	return r
}

// FromFS creates a Renderer by loading an HTML template from a file system.
//
// If config is nil, default values are used.
func FromFS(fsys fs.FS, name string, config *Config) (*Renderer, error) {
	debug.Assert(fsys != nil, "expected fsys to be defined")
	debug.Assert(name != "", "expected name to be defined")

	// The executed template must be named after the parsed file.
	t := template.New(path.Base(name))

	t, err := t.ParseFS(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("inertia: failed to parse templates: %w", err)
	}

	return New(t, config), nil
}

// MustFromFS is like FromFS, but panics if an error occurs.
func MustFromFS(fsys fs.FS, name string, config *Config) *Renderer {
	return must.Must(FromFS(fsys, name, config))
}

// Version returns the current asset version string used for client version validation.
func (r *Renderer) Version() string { return r.version }

// Shared returns the store of props added to every page.
func (r *Renderer) Shared() *SharedStore { return r.shared }

// Render sends an Inertia page response, automatically choosing the format:
//   - JSON for Inertia requests (XHR navigation)
//   - HTML for initial page loads or non-Inertia requests
//
// The renderCtx configures props, validation errors, and other page-specific settings.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, renderCtx RenderContext) error {
	page, err := r.Page(req, name, renderCtx)
	if err != nil {
		return err
	}

	if RequestContextFrom(req).Inertia {
		d("Received inertia request, sending JSON response: %s",
			req.Header.Get(inertiaheader.HeaderReferer))

		h := w.Header()
		h.Set(inertiaheader.HeaderXInertia, "true")
		varyOnInertia(h)
		h.Set(inertiaheader.HeaderContentType, inertiaheader.ContentTypeJSON)
		w.WriteHeader(http.StatusOK)

		if err := json.MarshalWrite(w, page, r.jsonMarshalOptions...); err != nil {
			return fmt.Errorf("inertia: failed to encode JSON response: %w", err)
		}

		return nil
	}

	data := TemplateData{T: renderCtx.T, InertiaHead: "", InertiaBody: ""}

	if r.ssrClient != nil {
		ssrData, err := r.ssrClient.Render(req.Context(), page)
		if err == nil {
			data.InertiaHead = template.HTML(ssrData.HeadHTML()) //nolint:gosec
			data.InertiaBody = template.HTML(ssrData.Body)       //nolint:gosec
		} else {
			r.logger.WarnContext(req.Context(), "inertia: server-side rendering failed, falling back to client-side rendering",
				slog.String("component", page.Component),
				slog.Any("error", err))
		}
	}

	if data.InertiaBody == "" {
		body, err := r.makeRootView(page)
		if err != nil {
			return fmt.Errorf("inertia: failed to create an HTML container: %w", err)
		}

		data.InertiaBody = body
	}

	w.Header().Set(inertiaheader.HeaderContentType, inertiaheader.ContentTypeHTML)
	w.WriteHeader(http.StatusOK)

	if err := r.t.Execute(w, &data); err != nil {
		return fmt.Errorf("inertia: failed to execute HTML template: %w", err)
	}

	return nil
}

// Page assembles the page object for the request without writing a response.
//
// Props are merged in order: props shared through the Renderer, props shared
// for the request with WithSharedProps, then the props of renderCtx.
func (r *Renderer) Page(req *http.Request, name string, renderCtx RenderContext) (*Page, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrBlankComponent
	}

	ctx := req.Context()

	shared, err := r.shared.Shared(ctx)
	if err != nil {
		return nil, err
	}

	props := make([]Prop, 0, len(renderCtx.Props)+1)
	props = append(props, renderCtx.Props...)

	if len(renderCtx.ValidationErrorer) > 0 {
		props = append(props, makeValidationErrors(renderCtx.ValidationErrorer, renderCtx.ErrorBag))
	}

	//nolint:exhaustruct
	in := &pageInput{
		rc:             RequestContextFrom(req),
		flash:          FlashFromRequest(req),
		shared:         shared,
		component:      name,
		version:        r.version,
		scoped:         scopedPropsFrom(req),
		props:          props,
		concurrency:    max(cmp.Or(renderCtx.Concurrency, r.concurrency), 0),
		clearHistory:   renderCtx.ClearHistory,
		encryptHistory: renderCtx.EncryptHistory || r.encryptHistory,
		matchComponent: r.matchComponent,
	}

	return assemblePage(ctx, in)
}

// makeRootView creates a root view element with the given page data.
func (r *Renderer) makeRootView(page *Page) (template.HTML, error) {
	var w strings.Builder

	_ = must.Must(w.WriteString(`<div id="`))
	_ = must.Must(w.WriteString(r.rootViewID))
	_ = must.Must(w.WriteRune('"'))
	_ = must.Must(w.WriteRune(' '))

	_ = must.Must(w.WriteString(`data-page="`))

	pageBytes, err := json.Marshal(page, r.jsonMarshalOptions...)
	if err != nil {
		return "", fmt.Errorf("inertia: an error occurred while rendering page: %w", err)
	}

	template.HTMLEscape(&w, pageBytes)
	_ = must.Must(w.WriteRune('"'))

	for _, kv := range r.rootViewAttrs {
		// Skip the id and data-page attributes as they're already set.
		if bytes.Equal(kv.key, []byte("data-page")) || bytes.Equal(kv.key, []byte("id")) {
			continue
		}

		_ = must.Must(w.WriteRune(' '))
		_ = must.Must(w.Write(kv.key))
		_ = must.Must(w.WriteRune('='))
		_ = must.Must(w.WriteRune('"'))
		template.HTMLEscape(&w, kv.value)
		_ = must.Must(w.WriteRune('"'))
	}

	_ = must.Must(w.WriteString(`></div>`))

	//nolint:gosec
	return template.HTML(w.String()), nil
}

func makeValidationErrors(errorers []ValidationErrorer, errorBag string) Prop {
	m := make(map[string]string)
	for _, errorer := range errorers {
		maps.Copy(m, ValidationErrorsMap(errorer))
	}

	if errorBag != DefaultErrorBag {
		return NewAlways("errors", map[string]map[string]string{errorBag: m})
	}

	return NewAlways("errors", m)
}

// TemplateData contains the data passed to the HTML template during rendering.
type TemplateData struct {
	// T is custom application data available to the template.
	T any

	// InertiaHead contains SSR-generated head elements (title, meta tags, etc.).
	InertiaHead template.HTML

	// InertiaBody contains the rendered page content.
	InertiaBody template.HTML
}

// Location redirects to an external URL outside of the Inertia app.
//
// For Inertia requests, it uses a 409 Conflict response with X-Inertia-Location header.
// For regular requests, it performs a standard HTTP redirect.
func Location(w http.ResponseWriter, r *http.Request, url string) {
	if RequestContextFrom(r).Inertia {
		h := w.Header()

		h.Del(inertiaheader.HeaderXInertia)
		h.Set(inertiaheader.HeaderXInertiaLocation, url) // redirect URL
		w.WriteHeader(http.StatusConflict)               // 409 Conflict

		return
	}

	inertiaredirect.Redirect(w, r, url)
}

// Redirect sends a redirect response to the Inertia app page.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	inertiaredirect.Redirect(w, r, url)
}

// ErrorBagFromRequest extracts the error bag name from the X-Inertia-Error-Bag header.
//
// Returns the default error bag (empty string) if the header is not present.
// Used to scope validation errors to specific forms on a page.
func ErrorBagFromRequest(r *http.Request) string {
	return cmp.Or(RequestContextFrom(r).ErrorBag, DefaultErrorBag)
}

// varyOnInertia lists X-Inertia in the Vary header, keeping the values
// already present.
func varyOnInertia(h http.Header) {
	for _, v := range h.Values(inertiaheader.HeaderVary) {
		for f := range strings.SplitSeq(v, ",") {
			if f = strings.TrimSpace(f); f == "*" || strings.EqualFold(f, inertiaheader.HeaderXInertia) {
				return
			}
		}
	}

	h.Add(inertiaheader.HeaderVary, inertiaheader.HeaderXInertia)
}

// pair is a key-value pair.
type pair[K any, V any] struct {
	key   K
	value V
}
