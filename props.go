package inertia

import (
	"cmp"
	"context"
	"time"

	"go.inout.gg/foundations/debug"
)

var (
	_ Proper = (Props)(nil)
	_ Proper = (*Prop)(nil)
)

const DefaultDeferredGroup = "default"

// MergeMode tells the client how to combine a prop with the value it
// already holds.
type MergeMode int

const (
	// MergeNone replaces the client-side value.
	MergeNone MergeMode = iota

	// MergeAppend appends to the existing list.
	MergeAppend

	// MergePrepend prepends to the existing list.
	MergePrepend

	// MergeDeep recursively merges nested objects.
	MergeDeep
)

func (m MergeMode) String() string {
	switch m {
	case MergeAppend:
		return "append"
	case MergePrepend:
		return "prepend"
	case MergeDeep:
		return "deep"
	case MergeNone:
		return "none"
	}

	return "unknown"
}

// Prop represents a single property passed to an Inertia page component.
// Props control data visibility, lazy loading, merging behavior, client-side
// caching and resolution timing.
//
// Create props using constructor functions:
//   - NewProp: Standard prop, included on initial render
//   - NewAlways: Always included, ignores partial reload filters
//   - NewOptional: Lazy-loaded, only resolved when explicitly requested
//   - NewDeferred: Excluded from the first render and fetched by the client afterwards
//   - NewMerge: Merged into the client-side value instead of replacing it
//   - NewOnce: Resolved once and cached by the client
//   - NewScroll: Paginated list for infinite scrolling
//
// The set of capabilities of a prop is fixed by its constructor. Builder
// methods such as Prepend or ExpireAfter only tune the configuration of a
// capability the prop already has.
//
// Attach props to a page using WithProps option.
type Prop struct {
	val             any
	valFn           Lazy
	once            *onceConfig
	key             string
	group           string // deferred
	merge           MergeMode
	always          bool
	ignoreFirstLoad bool // optional, deferred
	deferred        bool
	concurrent      bool
	scroll          bool
}

type onceConfig struct {
	expiresAt time.Time
	key       string
	ttl       time.Duration
	fresh     bool
}

type (
	// Lazy represents a prop value that is resolved on-demand rather than eagerly.
	Lazy interface {
		// Value resolves and returns the prop's value.
		// The returned value must be JSON-serializable, or contain further
		// callbacks that resolve to JSON-serializable values.
		Value(context.Context) (any, error)
	}

	// LazyFunc is a function adapter that implements the Lazy interface.
	// It allows using ordinary functions as lazy prop values.
	LazyFunc func(context.Context) (any, error)
)

// Value calls `fn()`.
func (fn LazyFunc) Value(ctx context.Context) (any, error) { return fn(ctx) }

// OnceOptions configures client-side caching of a prop.
type OnceOptions struct {
	// ExpiresAt is the instant after which the client drops its cached value.
	ExpiresAt time.Time

	// Key overrides the cache key. Defaults to the prop key.
	Key string

	// TTL sets a relative expiry, computed every time the page is built.
	// It takes precedence over ExpiresAt.
	TTL time.Duration

	// Fresh forces resolution even if the client reports a cached value.
	Fresh bool
}

func (o *OnceOptions) config() *onceConfig {
	if o == nil {
		return &onceConfig{} //nolint:exhaustruct
	}

	c := &onceConfig{key: o.Key, fresh: o.Fresh} //nolint:exhaustruct
	if o.TTL > 0 {
		c.ttl = o.TTL
	} else {
		c.expiresAt = o.ExpiresAt
	}

	return c
}

// PropOptions configures standard prop behavior.
type PropOptions struct {
	// Merge determines whether this prop's value is appended to the
	// client-side value or replaces it.
	Merge bool
}

// NewProp creates a standard prop included on initial page load and partial reloads.
//
// The val may be a plain value, a Lazy, a bare callback (func() any or
// func(context.Context) (any, error)), or a map or slice holding any of
// these. Callbacks are invoked every time the prop is resolved.
//
// If opts is nil, default options are used (no merging).
func NewProp(key string, val any, opts *PropOptions) Prop {
	//nolint:exhaustruct
	prop := Prop{
		key: key,
		val: val,
	}

	if opts != nil && opts.Merge {
		prop.merge = MergeAppend
	}

	return prop
}

// NewAlways creates a prop that is always included in responses.
// Unlike regular props, it ignores partial reload filters (X-Inertia-Partial-Data/Except headers).
// Use for critical data that must always be present, such as authentication state or global config.
func NewAlways(key string, val any) Prop {
	//nolint:exhaustruct
	return Prop{
		always: true, // important
		key:    key,
		val:    val,
	}
}

// OptionalOptions configures optional props.
type OptionalOptions struct {
	// Once enables client-side caching of the resolved value.
	Once *OnceOptions
}

// NewOptional creates a lazily-evaluated prop included only during partial reloads when explicitly requested.
// Useful for expensive computations that aren't needed on every render.
// The value function is only called when the client specifically requests this prop.
func NewOptional(key string, fn Lazy, opts *OptionalOptions) Prop {
	//nolint:exhaustruct
	prop := Prop{
		ignoreFirstLoad: true, // important
		key:             key,
		valFn:           fn,
	}

	if opts != nil && opts.Once != nil {
		prop.once = opts.Once.config()
	}

	return prop
}

// DeferredOptions configures the behavior of deferred props.
type DeferredOptions struct {
	// Once enables client-side caching of the resolved value.
	Once *OnceOptions

	// Group assigns this prop to a named deferred group.
	// Props in the same group are fetched together by the client.
	// Defaults to DefaultDeferredGroup if not specified.
	Group string

	// Merge determines how the value is combined with the client-side value
	// once fetched. Defaults to MergeNone.
	Merge MergeMode

	// Concurrent enables parallel resolution for this prop.
	// When true, this prop can be resolved concurrently with other concurrent props
	// within the same request, up to the configured concurrency limit.
	Concurrent bool
}

// NewDeferred creates a deferred prop that is fetched by the client after the initial render.
// Deferred props reduce initial page load time by deferring expensive computations.
//
// On the first render the prop is listed under its group in the page's
// deferredProps, and the client requests the whole group with a partial reload.
// If opts is nil, default options are used (default group, no merging, sequential resolution).
func NewDeferred(key string, fn Lazy, opts *DeferredOptions) Prop {
	//nolint:exhaustruct
	prop := Prop{
		deferred:        true, // important
		ignoreFirstLoad: true, // important
		key:             key,
		valFn:           fn,
		group:           DefaultDeferredGroup,
	}

	if opts != nil {
		prop.group = cmp.Or(opts.Group, DefaultDeferredGroup)
		prop.merge = opts.Merge
		prop.concurrent = opts.Concurrent

		if opts.Once != nil {
			prop.once = opts.Once.config()
		}
	}

	return prop
}

// MergeOptions configures merge props.
type MergeOptions struct {
	// Once enables client-side caching of the resolved value.
	Once *OnceOptions

	// Mode selects the merge strategy. Defaults to MergeAppend.
	Mode MergeMode
}

// NewMerge creates a prop whose value is merged into the client-side value
// instead of replacing it. Useful for pagination and infinite lists.
func NewMerge(key string, val any, opts *MergeOptions) Prop {
	//nolint:exhaustruct
	prop := Prop{
		key:   key,
		val:   val,
		merge: MergeAppend,
	}

	if opts != nil {
		prop.merge = cmp.Or(opts.Mode, MergeAppend)

		if opts.Once != nil {
			prop.once = opts.Once.config()
		}
	}

	return prop
}

// NewOnce creates a prop that the client resolves once and caches,
// optionally until an expiry. While the client reports the prop as cached
// via X-Inertia-Except-Once-Props, it is not resolved again.
func NewOnce(key string, fn Lazy, opts *OnceOptions) Prop {
	//nolint:exhaustruct
	return Prop{
		key:   key,
		valFn: fn,
		once:  opts.config(),
	}
}

// ScrollOptions configures scroll props.
type ScrollOptions struct {
	// Group is the deferred group, used only when Defer is set.
	Group string

	// Prepend merges new pages at the beginning of the list ("load newer").
	Prepend bool

	// Defer excludes the first page from the initial render.
	Defer bool
}

// NewScroll creates a merge prop backed by a page of results, for infinite
// scrolling. The prop resolves to ScrollData built from page.
//
// The merge direction follows the client's merge intent when the request
// carries one, and opts.Prepend otherwise.
func NewScroll[T any](key string, page PageData[T], opts *ScrollOptions) Prop {
	debug.Assert(page != nil, "page must be defined")

	//nolint:exhaustruct
	prop := Prop{
		scroll: true,
		key:    key,
		merge:  MergeAppend,
		valFn: LazyFunc(func(context.Context) (any, error) {
			return newScrollData(page), nil
		}),
	}

	if opts != nil {
		if opts.Prepend {
			prop.merge = MergePrepend
		}

		if opts.Defer {
			prop.deferred = true
			prop.group = cmp.Or(opts.Group, DefaultDeferredGroup)
		}
	}

	return prop
}

// Append switches a mergeable prop to append mode.
func (p Prop) Append() Prop { return p.withMerge(MergeAppend) }

// Prepend switches a mergeable prop to prepend mode.
func (p Prop) Prepend() Prop { return p.withMerge(MergePrepend) }

// DeepMerge switches a mergeable prop to deep merge mode.
func (p Prop) DeepMerge() Prop { return p.withMerge(MergeDeep) }

func (p Prop) withMerge(mode MergeMode) Prop {
	debug.Assert(p.merge != MergeNone, "merge mode can only be changed on mergeable props")

	if p.merge != MergeNone {
		p.merge = mode
	}

	return p
}

// ExpireAt sets an absolute expiry of a once prop, replacing any TTL.
func (p Prop) ExpireAt(t time.Time) Prop {
	return p.withOnce(func(c *onceConfig) {
		c.expiresAt = t
		c.ttl = 0
	})
}

// ExpireAfter sets a relative expiry of a once prop, replacing any absolute
// expiry. The instant is computed each time the page is built.
func (p Prop) ExpireAfter(ttl time.Duration) Prop {
	return p.withOnce(func(c *onceConfig) {
		c.ttl = ttl
		c.expiresAt = time.Time{}
	})
}

// As sets the client cache key of a once prop.
func (p Prop) As(key string) Prop {
	return p.withOnce(func(c *onceConfig) { c.key = key })
}

// Fresh forces a once prop to be resolved even if the client has it cached.
func (p Prop) Fresh() Prop {
	return p.withOnce(func(c *onceConfig) { c.fresh = true })
}

func (p Prop) withOnce(fn func(*onceConfig)) Prop {
	debug.Assert(p.once != nil, "once options can only be changed on once props")

	if p.once != nil {
		c := *p.once
		fn(&c)
		p.once = &c
	}

	return p
}

// Key returns the prop name.
func (p Prop) Key() string { return p.key }

// MergeMode returns the merge strategy, MergeNone for non-mergeable props.
func (p Prop) MergeMode() MergeMode { return p.merge }

// DeferredGroup returns the deferred group and whether the prop is deferred.
func (p Prop) DeferredGroup() (string, bool) { return p.group, p.deferred }

// IsOnce reports whether the prop is cached by the client.
func (p Prop) IsOnce() bool { return p.once != nil }

// OnceKey returns the effective client cache key of a once prop.
func (p Prop) OnceKey() string {
	if p.once == nil {
		return ""
	}

	return cmp.Or(p.once.key, p.key)
}

// IsFresh reports whether a once prop ignores the client cache.
func (p Prop) IsFresh() bool { return p.once != nil && p.once.fresh }

// OnceExpiresAt returns the expiry of a once prop, or nil if it never expires.
// A TTL-based expiry is recomputed on every call.
func (p Prop) OnceExpiresAt() *time.Time {
	if p.once == nil {
		return nil
	}

	switch {
	case p.once.ttl > 0:
		t := time.Now().Add(p.once.ttl)
		return &t
	case !p.once.expiresAt.IsZero():
		t := p.once.expiresAt
		return &t
	}

	return nil
}

func (p Prop) Props() []Prop { return []Prop{p} }
func (p Prop) Len() int      { return 1 }

// value returns the unresolved prop value.
func (p Prop) value(ctx context.Context) (any, error) {
	if p.valFn != nil {
		v, err := p.valFn.Value(ctx)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		return v, nil
	}

	return p.val, nil
}

// Proper represents a collection of props that can be attached to a render context.
// Implemented by both individual Prop and Props slice types.
type Proper interface {
	// Props returns the underlying prop slice.
	Props() []Prop

	// Len returns the number of props in the collection.
	Len() int
}

// Props is a collection of props.
type Props []Prop

func (p Props) Len() int      { return len(p) }
func (p Props) Props() []Prop { return p }
