package inertia

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"go.inout.gg/foundations/debug"
	"go.inout.gg/foundations/http/httperror"
	"go.inout.gg/foundations/must"
)

type ctxKey struct{}

//nolint:gochecknoglobals
var kCtxKey = ctxKey{}

type scopedCtxKey struct{}

//nolint:gochecknoglobals
var kScopedCtxKey = scopedCtxKey{}

//nolint:gochecknoglobals
var DefaultEmptyResponseHandler = func(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "Empty response", http.StatusNoContent)
}

// DefaultVersionMismatchHandler asks the client to reload the requested URL
// in full, picking up the new assets.
//
//nolint:gochecknoglobals
var DefaultVersionMismatchHandler = func(w http.ResponseWriter, r *http.Request) {
	Location(w, r, RequestContextFrom(r).URL)
}

//nolint:gochecknoglobals
var DefaultErrorHandler httperror.ErrorHandler = httperror.ErrorHandlerFunc(
	func(w http.ResponseWriter, r *http.Request, err error) {
		httperror.DefaultErrorHandler(w, r, err)
	},
)

// MiddlewareConfig configures the behavior of the Inertia.js middleware.
type MiddlewareConfig struct {
	// EmptyResponseHandler is called when a handler produces no response body.
	//
	// If nil, defaults to returning HTTP 204 No Content with an error message.
	EmptyResponseHandler http.HandlerFunc

	// VersionMismatchHandler is called when the client's asset version doesn't match the server's.
	//
	// If nil, defaults to redirecting the client to the current URL to reload the page with fresh assets.
	VersionMismatchHandler http.HandlerFunc

	// ErrorHandler handles failures of the middleware itself, such as
	// a failing Share function.
	ErrorHandler httperror.ErrorHandler

	// FlashCarrier carries flash data across redirects.
	//
	// If nil, flash data only reaches pages rendered during the same request.
	FlashCarrier FlashCarrier

	// Share returns props shared with every page rendered during the request.
	Share func(*http.Request) (Proper, error)

	// Logger reports recoverable failures.
	//
	// Defaults to slog.Default().
	Logger *slog.Logger
}

func (m *MiddlewareConfig) defaults() {
	if m.EmptyResponseHandler == nil {
		m.EmptyResponseHandler = DefaultEmptyResponseHandler
	}

	if m.VersionMismatchHandler == nil {
		m.VersionMismatchHandler = DefaultVersionMismatchHandler
	}

	if m.ErrorHandler == nil {
		m.ErrorHandler = DefaultErrorHandler
	}

	if m.Logger == nil {
		m.Logger = slog.Default()
	}

	debug.Assert(m.EmptyResponseHandler != nil, "EmptyResponseHandler must be set")
	debug.Assert(m.VersionMismatchHandler != nil, "VersionMismatchHandler must be set")
}

// NewMiddleware creates an HTTP middleware that enables Inertia.js protocol handling.
// It intercepts requests to determine if they are Inertia requests, handles version validation,
// and manages response formatting (JSON for subsequent Inertia requests, HTML otherwise).
//
// The middleware automatically handles HTTP 302 redirects by converting them to 303 for PUT/PATCH/DELETE
// requests as per the Inertia.js specification.
//
// Flash data set during the request is handed to the configured FlashCarrier
// when the response is a redirect.
//
// Once the middleware is set up, Render can be used to create Inertia responses.
func NewMiddleware(renderer *Renderer, opts ...func(*MiddlewareConfig)) func(http.Handler) http.Handler {
	var config MiddlewareConfig
	for _, opt := range opts {
		opt(&config)
	}

	config.defaults()

	handleError := httperror.WithErrorHandler(config.ErrorHandler)

	return func(next http.Handler) http.Handler {
		return handleError(httperror.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
			r = r.WithContext(context.WithValue(r.Context(), kCtxKey, renderer))
			rc := RequestContextFrom(r)

			varyOnInertia(w.Header())

			if check := CheckVersion(rc, renderer.Version()); check.Redirect {
				d("Asset version mismatch, client %q, server %q", rc.Version, renderer.Version())

				config.VersionMismatchHandler(w, r)

				return nil
			}

			incoming, loadErr := loadFlash(r, config.FlashCarrier)
			if loadErr != nil {
				// Stale or tampered flash data must not break the page.
				config.Logger.WarnContext(r.Context(), "inertia: failed to load flash data",
					slog.Any("error", loadErr))
			}

			flash := newFlash(incoming)
			r = withFlash(r, flash)

			scoped := &scopedProps{props: nil, mu: sync.Mutex{}}
			r = r.WithContext(context.WithValue(r.Context(), kScopedCtxKey, scoped))

			if config.Share != nil {
				props, err := config.Share(r)
				if err != nil {
					return fmt.Errorf("inertia: failed to share request props: %w", err)
				}

				if props != nil {
					scoped.add(props.Props())
				}
			}

			rww := newResponseWriter(w)
			next.ServeHTTP(rww, r)

			rww.statusCode = AdaptRedirectStatus(rc, rww.statusCode)

			if err := storeFlash(rww, r, config.FlashCarrier, flash, len(incoming) > 0 || loadErr != nil); err != nil {
				return err
			}

			if rc.Inertia && rww.Empty() {
				config.EmptyResponseHandler(w, r)
				return nil
			}

			rww.flush()

			return nil
		}))
	}
}

func loadFlash(r *http.Request, carrier FlashCarrier) (map[string]any, error) {
	if carrier == nil {
		return nil, nil
	}

	data, err := carrier.Load(r)
	if err != nil {
		return nil, fmt.Errorf("inertia: failed to load flash data: %w", err)
	}

	return data, nil
}

// storeFlash hands undelivered flash data to the carrier when the response is
// a redirect. Otherwise it discards stored data when stale is set: data that
// was delivered, or that could not be loaded.
func storeFlash(w *responseWriter, r *http.Request, carrier FlashCarrier, flash *Flash, stale bool) error {
	if carrier == nil {
		return nil
	}

	if pending := flash.pending(); len(pending) > 0 && w.isRedirect() {
		d("Carrying %d flash values over the redirect", len(pending))

		if err := carrier.Save(w, r, pending); err != nil {
			return fmt.Errorf("inertia: failed to save flash data: %w", err)
		}

		return nil
	}

	if stale {
		if err := carrier.Clear(w, r); err != nil {
			return fmt.Errorf("inertia: failed to clear flash data: %w", err)
		}
	}

	return nil
}

type scopedProps struct {
	props []Prop
	mu    sync.Mutex
}

func (s *scopedProps) add(props []Prop) {
	s.mu.Lock()
	s.props = append(s.props, props...)
	s.mu.Unlock()
}

// WithSharedProps shares props with every page rendered during the request.
// They take precedence over props shared through the Renderer and are
// overridden by props passed to Render.
func WithSharedProps(r *http.Request, props Proper) {
	if props == nil {
		return
	}

	s, ok := r.Context().Value(kScopedCtxKey).(*scopedProps)
	if !ok || s == nil {
		s = &scopedProps{props: nil, mu: sync.Mutex{}}
		*r = *r.WithContext(context.WithValue(r.Context(), kScopedCtxKey, s))
	}

	s.add(props.Props())
}

func scopedPropsFrom(r *http.Request) []Prop {
	s, ok := r.Context().Value(kScopedCtxKey).(*scopedProps)
	if !ok || s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Prop(nil), s.props...)
}

// RenderContext contains all configuration and data for rendering an Inertia.js page response.
// It includes props, validation errors, history management options, and performance settings.
type RenderContext struct {
	// T is custom data passed to the HTML template via html/template.
	T any

	// Props are the properties sent to the page component.
	Props []Prop

	// ErrorBag specifies the validation error bag name for scoped error handling.
	ErrorBag string

	// ValidationErrorer contains validation errors to be sent to the client.
	ValidationErrorer []ValidationErrorer

	// EncryptHistory instructs the client to encrypt the history state for this page.
	EncryptHistory bool

	// ClearHistory instructs the client to clear the history stack.
	ClearHistory bool

	// Concurrency sets the maximum number of concurrent prop resolutions for this page.
	// If 0, uses the renderer's default. Negative values mean unbounded resolution.
	Concurrency int
}

// NewRenderContext creates a RenderContext configured with the provided options.
// Options are applied in order and can be combined to build up the desired page state.
func NewRenderContext(opts ...Option) RenderContext {
	var ctx RenderContext
	for _, opt := range opts {
		opt(&ctx)
	}

	return ctx
}

// AddValidationErrorer appends validation errors to the context.
// Multiple calls accumulate errors into a single error bag.
func (ctx *RenderContext) AddValidationErrorer(err ValidationErrorer) {
	if ctx.ValidationErrorer == nil {
		ctx.ValidationErrorer = make([]ValidationErrorer, 0, 1)
	}

	ctx.ValidationErrorer = append(ctx.ValidationErrorer, err)
}

// Option is a function that configures a RenderContext.
type Option func(*RenderContext)

// WithClearHistory instructs the client to clear its history stack when rendering this page.
func WithClearHistory() Option {
	return func(opt *RenderContext) { opt.ClearHistory = true }
}

// WithEncryptHistory instructs the client to encrypt the history state.
func WithEncryptHistory() Option {
	return func(opt *RenderContext) { opt.EncryptHistory = true }
}

// WithProps adds properties to the page component.
// Multiple calls append additional props to the existing set.
func WithProps(props Proper) Option {
	return func(renderCtx *RenderContext) {
		if props == nil {
			return
		}

		if renderCtx.Props == nil {
			renderCtx.Props = make([]Prop, 0, props.Len())
		}

		renderCtx.Props = append(renderCtx.Props, props.Props()...)
	}
}

// WithValidationErrors adds validation errors to be displayed on the page.
// Multiple calls append errors to the same or different error bags.
//
// The errorBag parameter allows scoping errors to specific forms on the same page.
func WithValidationErrors(errorers ValidationErrorer, errorBag string) Option {
	return func(renderCtx *RenderContext) {
		if errorers == nil {
			return
		}

		renderCtx.AddValidationErrorer(errorers)
		renderCtx.ErrorBag = errorBag
	}
}

// WithConcurrency sets the maximum number of props that can be resolved concurrently for this page.
// This only affects props marked as concurrent.
//
// A value of 0 uses the renderer's default concurrency level.
// Negative values allow unlimited concurrent resolution.
func WithConcurrency(concurrency int) Option {
	return func(renderCtx *RenderContext) {
		renderCtx.Concurrency = concurrency
	}
}

// ErrRendererNotFound is returned by Render when the middleware is missing.
var ErrRendererNotFound = errors.New(
	"inertia: renderer not found in request context - did you forget to use the middleware?",
)

// RendererFromRequest returns the Renderer installed by the middleware.
func RendererFromRequest(r *http.Request) (*Renderer, bool) {
	renderer, ok := r.Context().Value(kCtxKey).(*Renderer)
	return renderer, ok && renderer != nil
}

// Render sends an Inertia.js page response with the specified component and context.
// It automatically detects whether to send JSON (for Inertia requests) or HTML (for full page loads).
//
// This function requires the Inertia middleware to be installed in the request chain.
// Returns an error if the middleware is not found or if rendering fails.
func Render(w http.ResponseWriter, r *http.Request, componentName string, rCtx RenderContext) error {
	render, ok := RendererFromRequest(r)
	if !ok {
		return ErrRendererNotFound
	}

	if err := render.Render(w, r, componentName, rCtx); err != nil {
		return err
	}

	return nil
}

// MustRender is like Render, but panics if an error occurs.
func MustRender(w http.ResponseWriter, req *http.Request, name string, r RenderContext) {
	must.Must1(Render(w, req, name, r))
}
