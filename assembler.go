package inertia

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/alitto/pond/v2"
	"go.inout.gg/foundations/debug"
)

// pageInput is everything the assembler needs to build a single page.
type pageInput struct {
	rc             *RequestContext
	flash          *Flash
	shared         map[string]any // global, resolved snapshot
	component      string
	version        string
	scoped         []Prop // request-scoped shared props
	props          []Prop // explicit render props
	concurrency    int
	matchComponent bool
	clearHistory   bool
	encryptHistory bool
}

// metadata collects the protocol instructions accompanying the props.
type metadata struct {
	deferred  map[string][]string
	once      map[string]OnceProp
	merge     []string
	prepend   []string
	deepMerge []string
}

// assemblePage merges, filters and resolves the props of a page and
// collects the protocol metadata.
//
// Props are processed in merge order: global shared props, request-scoped
// shared props, then explicit props. A later prop replaces an earlier prop
// with the same key in place.
func assemblePage(ctx context.Context, in *pageInput) (*Page, error) {
	debug.Assert(in.rc != nil, "request context must be set")

	rc := in.rc
	partial := rc.IsPartialReload()
	if in.matchComponent {
		partial = rc.IsPartialReloadFor(in.component)
	}

	props := mergeProps(in.shared, in.scoped, in.props)

	//nolint:exhaustruct
	meta := metadata{}
	included := make([]Prop, 0, len(props))

	for _, prop := range props {
		if !shouldInclude(rc, prop, partial) {
			// Tell the client which props to fetch after the render.
			if prop.deferred {
				if meta.deferred == nil {
					meta.deferred = make(map[string][]string)
				}

				meta.deferred[prop.group] = append(meta.deferred[prop.group], prop.key)
			}

			continue
		}

		included = append(included, prop)
	}

	values, err := resolveProps(ctx, included, in.concurrency)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]any, len(included))
	for i, prop := range included {
		resolved[prop.key] = values[i]
		meta.collect(rc, prop)
	}

	d("Assembled page %s: %d/%d props included", in.component, len(included), len(props))

	return &Page{
		Component:      in.component,
		Props:          resolved,
		URL:            rc.URL,
		Version:        in.version,
		ClearHistory:   in.clearHistory,
		EncryptHistory: in.encryptHistory,
		DeferredProps:  meta.deferred,
		MergeProps:     meta.merge,
		PrependProps:   meta.prepend,
		DeepMergeProps: meta.deepMerge,
		OnceProps:      meta.once,
		Flash:          in.flash.Consume(),
	}, nil
}

// mergeProps flattens the prop sources into a single ordered list.
func mergeProps(shared map[string]any, scoped, explicit []Prop) []Prop {
	merged := make([]Prop, 0, len(shared)+len(scoped)+len(explicit))
	index := make(map[string]int, cap(merged))

	add := func(p Prop) {
		if i, ok := index[p.key]; ok {
			merged[i] = p
			return
		}

		index[p.key] = len(merged)
		merged = append(merged, p)
	}

	keys := make([]string, 0, len(shared))
	for k := range shared {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	for _, k := range keys {
		add(sharedProp(k, shared[k]))
	}

	for _, p := range scoped {
		add(p)
	}

	for _, p := range explicit {
		add(p)
	}

	return merged
}

func sharedProp(key string, v any) Prop {
	if p, ok := v.(Prop); ok {
		p.key = key
		return p
	}

	return NewProp(key, v, nil)
}

// shouldInclude decides whether prop is part of the response.
func shouldInclude(rc *RequestContext, prop Prop, partial bool) bool {
	if prop.always {
		return true
	}

	if partial {
		if len(rc.PartialData) > 0 && !rc.PartialData.Has(prop.key) {
			return false
		}

		if rc.PartialExcept.Has(prop.key) {
			return false
		}
	}

	// Optional and deferred props are only sent when asked for by name.
	if prop.ignoreFirstLoad && !rc.requests(prop.key, partial) {
		return false
	}

	if prop.deferred && !rc.requests(prop.key, partial) {
		return false
	}

	if prop.once != nil && !prop.once.fresh && rc.ExceptOnceProps.Has(prop.OnceKey()) {
		return false
	}

	return true
}

// collect records the metadata of an included prop.
func (m *metadata) collect(rc *RequestContext, prop Prop) {
	if prop.merge != MergeNone {
		mode := prop.merge
		if prop.scroll {
			switch rc.MergeIntent {
			case MergeIntentAppend:
				mode = MergeAppend
			case MergeIntentPrepend:
				mode = MergePrepend
			case MergeIntentNone:
			}
		}

		switch mode {
		case MergeAppend:
			m.merge = append(m.merge, prop.key)
		case MergePrepend:
			m.prepend = append(m.prepend, prop.key)
		case MergeDeep:
			m.deepMerge = append(m.deepMerge, prop.key)
		case MergeNone:
		}
	}

	if prop.once != nil {
		if m.once == nil {
			m.once = make(map[string]OnceProp)
		}

		var meta OnceProp
		if t := prop.OnceExpiresAt(); t != nil {
			ms := t.UnixMilli()
			meta.ExpiresAt = &ms
		}

		m.once[prop.OnceKey()] = meta
	}
}

// resolveProps resolves the values of props, preserving their order.
// Props marked as concurrent are resolved on a worker pool bounded by
// concurrency, the others sequentially.
func resolveProps(ctx context.Context, props []Prop, concurrency int) ([]any, error) {
	values := make([]any, len(props))
	concurrent := make([]int, 0, len(props))

	for i, prop := range props {
		if prop.concurrent {
			concurrent = append(concurrent, i)
			continue
		}

		v, err := resolve(ctx, prop)
		if err != nil {
			return nil, err
		}

		values[i] = v
	}

	if len(concurrent) == 0 {
		return values, nil
	}

	pool := pond.NewResultPool[any](max(concurrency, 0))
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)

	for _, i := range concurrent {
		prop := props[i]

		group.SubmitErr(func() (any, error) {
			return resolve(ctx, prop)
		})
	}

	result, err := group.Wait()
	if err != nil {
		return nil, fmt.Errorf("inertia: failed to resolve concurrent props: %w", err)
	}

	for j, i := range concurrent {
		values[i] = result[j]
	}

	return values, nil
}

func resolve(ctx context.Context, prop Prop) (any, error) {
	v, err := prop.value(ctx)
	if err != nil {
		return nil, fmt.Errorf("inertia: failed to resolve prop %q: %w", prop.key, err)
	}

	v, err = resolveValue(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("inertia: failed to resolve prop %q: %w", prop.key, err)
	}

	return v, nil
}

// resolveValue recursively invokes callbacks found in v. Callbacks are
// invoked on every call; results are never memoized.
func resolveValue(ctx context.Context, v any) (any, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case Prop:
		val, err := v.value(ctx)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		return resolveValue(ctx, val)
	case Lazy:
		val, err := v.Value(ctx)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		return resolveValue(ctx, val)
	case func(context.Context) (any, error):
		val, err := v(ctx)
		if err != nil {
			return nil, err
		}

		return resolveValue(ctx, val)
	case func() (any, error):
		val, err := v()
		if err != nil {
			return nil, err
		}

		return resolveValue(ctx, val)
	case func() any:
		return resolveValue(ctx, v())
	case map[string]any:
		m := make(map[string]any, len(v))
		for key, val := range v {
			resolved, err := resolveValue(ctx, val)
			if err != nil {
				return nil, err
			}

			m[key] = resolved
		}

		return m, nil
	case []any:
		s := make([]any, len(v))
		for i, val := range v {
			resolved, err := resolveValue(ctx, val)
			if err != nil {
				return nil, err
			}

			s[i] = resolved
		}

		return s, nil
	}

	return resolveReflect(ctx, v)
}

// resolveReflect walks typed maps and slices whose elements may hold
// callbacks. Any other value is returned as-is.
func resolveReflect(ctx context.Context, v any) (any, error) {
	rv := reflect.ValueOf(v)
	if !mayHoldCallbacks(rv.Type()) || rv.IsNil() {
		return v, nil
	}

	switch rv.Kind() { //nolint:exhaustive
	case reflect.Map:
		m := make(map[string]any, rv.Len())

		iter := rv.MapRange()
		for iter.Next() {
			resolved, err := resolveValue(ctx, iter.Value().Interface())
			if err != nil {
				return nil, err
			}

			m[iter.Key().String()] = resolved
		}

		return m, nil
	case reflect.Slice:
		s := make([]any, rv.Len())
		for i := range rv.Len() {
			resolved, err := resolveValue(ctx, rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}

			s[i] = resolved
		}

		return s, nil
	}

	return v, nil
}

// mayHoldCallbacks reports whether values of type t are string-keyed maps or
// slices whose elements can be callbacks.
func mayHoldCallbacks(t reflect.Type) bool {
	switch t.Kind() { //nolint:exhaustive
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return false
		}
	case reflect.Slice:
	default:
		return false
	}

	switch elem := t.Elem(); elem.Kind() { //nolint:exhaustive
	case reflect.Interface, reflect.Func:
		return true
	case reflect.Map, reflect.Slice:
		return mayHoldCallbacks(elem)
	case reflect.Struct:
		return elem == reflect.TypeFor[Prop]()
	}

	return false
}
