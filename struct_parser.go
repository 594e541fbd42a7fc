package inertia

import (
	"cmp"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"
)

const (
	TagInertia      = "inertia"
	TagInertiaGroup = "inertiagroup"
	TagInertiaTTL   = "inertiattl"
)

var (
	propTypeOptional = "optional" //nolint:gochecknoglobals
	propTypeDeferred = "deferred" //nolint:gochecknoglobals
	propTypeAlways   = "always"   //nolint:gochecknoglobals
	propTypeOnce     = "once"     //nolint:gochecknoglobals
)

var (
	propDiscard    = "-"          //nolint:gochecknoglobals
	propOmitEmpty  = "omitempty"  //nolint:gochecknoglobals
	propMergeable  = "mergeable"  //nolint:gochecknoglobals
	propPrepend    = "prepend"    //nolint:gochecknoglobals
	propDeepMerge  = "deep"       //nolint:gochecknoglobals
	propConcurrent = "concurrent" //nolint:gochecknoglobals
	propCached     = "once"       //nolint:gochecknoglobals
)

var lazyType = reflect.TypeFor[Lazy]() //nolint:gochecknoglobals

// ParseStruct converts a struct into a Props collection using struct tags.
// It expects a struct pointer with JSON-encodable fields.
//
// Only fields tagged with "inertia" are included; untagged fields are ignored.
//
// Tag format: `inertia:"name[,type][,flag...]"`
//
// Tag components:
//   - name: Prop name sent to client (required). Use "-" to skip the field.
//   - type: One of "optional", "deferred", "always", "once", or empty (regular prop)
//   - flags, in any order:
//   - mergeable: Merge the value into the client-side value (append)
//   - prepend: Like mergeable, prepending instead of appending
//   - deep: Like mergeable, deep merging nested objects
//   - concurrent: Parallel resolution (deferred props only)
//   - once: Client-side caching (optional and deferred props)
//   - omitempty: Skip zero-value fields
//
// Prop types:
//   - (empty): Regular prop, included on initial and partial renders
//   - "optional": Lazy prop, resolved only when explicitly requested
//   - "deferred": Lazy prop, loaded after initial render in named groups
//   - "always": Always included, ignores partial reload filters
//   - "once": Lazy prop, resolved once and cached by the client
//
// Deferred prop grouping:
//
//	Use `inertiagroup:"groupname"` to assign deferred props to named groups.
//	Props in the same group are resolved together. Defaults to "default" group.
//	Returns an error if inertiagroup is used on non-deferred props.
//
// Once prop expiry:
//
//	Use `inertiattl:"1h"` to expire the client-side cache of a once prop.
//	The value is parsed with time.ParseDuration.
//
// Field value requirements:
//   - Optional/deferred/once fields must be Lazy or LazyFunc type
//   - Regular/always fields can be any JSON-serializable type
//
// Example:
//
//	type PageProps struct {
//	    UserID    int              `inertia:"user_id,always"`
//	    Posts     []Post           `inertia:"posts,,mergeable"`
//	    Analytics LazyFunc         `inertia:"analytics,deferred,concurrent" inertiagroup:"metrics"`
//	    Countries LazyFunc         `inertia:"countries,once" inertiattl:"24h"`
//	    Optional  LazyFunc         `inertia:"extra,optional,omitempty"`
//	}
func ParseStruct(v any) (Props, error) {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr {
		return nil, errors.New("msg must be a pointer")
	}

	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return nil, errors.New("msg must be a struct")
	}

	typ := val.Type()
	numFields := typ.NumField()
	props := make(Props, 0, numFields)

	for i := range numFields {
		field := typ.Field(i)
		fieldVal := val.Field(i)

		// Skip unexported fields
		if !field.IsExported() {
			continue
		}

		inertiaTag := field.Tag.Get(TagInertia)
		if inertiaTag == "" {
			continue
		}

		parts := strings.Split(inertiaTag, ",")

		fieldName := cmp.Or(parts[0], field.Name)
		if fieldName == propDiscard {
			continue
		}

		fieldType := ""
		if len(parts) > 1 {
			fieldType = parts[1]
		}

		var flags []string
		if len(parts) > 2 {
			flags = parts[2:]
		}

		if slices.Contains(flags, propOmitEmpty) && fieldVal.IsZero() {
			continue
		}

		if !fieldVal.CanInterface() {
			continue
		}

		inertiaGroup := field.Tag.Get(TagInertiaGroup)
		if inertiaGroup != "" && fieldType != propTypeDeferred {
			return nil, errors.New("inertia: cannot use group tag on non-deferred field")
		}

		once, err := parseOnceTag(field, fieldType, flags)
		if err != nil {
			return nil, err
		}

		merge := parseMergeFlags(flags)
		concurrent := slices.Contains(flags, propConcurrent)

		var prop Prop

		switch fieldType {
		case propTypeOptional:
			fn, err := toLazy(fieldVal)
			if err != nil {
				return nil, err
			}

			prop = NewOptional(fieldName, fn, &OptionalOptions{Once: once})
		case propTypeDeferred:
			fn, err := toLazy(fieldVal)
			if err != nil {
				return nil, err
			}

			prop = NewDeferred(
				fieldName,
				fn,
				&DeferredOptions{
					Once:       once,
					Merge:      merge,
					Group:      cmp.Or(inertiaGroup, DefaultDeferredGroup),
					Concurrent: concurrent,
				},
			)
		case propTypeOnce:
			fn, err := toLazy(fieldVal)
			if err != nil {
				return nil, err
			}

			prop = NewOnce(fieldName, fn, once)
		case propTypeAlways:
			prop = NewAlways(fieldName, fieldVal.Interface())
		case "":
			if merge != MergeNone {
				prop = NewMerge(fieldName, fieldVal.Interface(), &MergeOptions{Once: nil, Mode: merge})
			} else {
				prop = NewProp(fieldName, fieldVal.Interface(), nil)
			}
		default:
			return nil, fmt.Errorf("inertia: unknown field type %q", fieldType)
		}

		props = append(props, prop)
	}

	return props, nil
}

func parseMergeFlags(flags []string) MergeMode {
	switch {
	case slices.Contains(flags, propDeepMerge):
		return MergeDeep
	case slices.Contains(flags, propPrepend):
		return MergePrepend
	case slices.Contains(flags, propMergeable):
		return MergeAppend
	}

	return MergeNone
}

// parseOnceTag returns the once configuration of a field, or nil if the
// field is not cached by the client.
func parseOnceTag(field reflect.StructField, fieldType string, flags []string) (*OnceOptions, error) {
	ttlTag := field.Tag.Get(TagInertiaTTL)
	cached := fieldType == propTypeOnce || slices.Contains(flags, propCached)

	if !cached {
		if ttlTag != "" {
			return nil, errors.New("inertia: cannot use ttl tag on non-once field")
		}

		return nil, nil
	}

	if fieldType != propTypeOnce && fieldType != propTypeOptional && fieldType != propTypeDeferred {
		return nil, fmt.Errorf("inertia: once flag is not supported on %q field", fieldType)
	}

	//nolint:exhaustruct
	opts := &OnceOptions{}

	if ttlTag != "" {
		ttl, err := time.ParseDuration(ttlTag)
		if err != nil {
			return nil, fmt.Errorf("inertia: invalid ttl tag %q: %w", ttlTag, err)
		}

		opts.TTL = ttl
	}

	return opts, nil
}

// toLazy converts a reflect.Value to an Lazy
// if the value is Lazy convertible.
func toLazy(v reflect.Value) (Lazy, error) {
	val := v.Interface()
	if v.Kind() == reflect.Interface && v.Type().Implements(lazyType) {
		lazy, ok := val.(Lazy)
		if !ok {
			return nil, errors.New("inertia: invalid lazy value")
		}

		return lazy, nil
	}

	if v.Kind() == reflect.Func {
		lazyFn, ok := val.(LazyFunc)
		if !ok {
			return nil, errors.New("inertia: invalid lazy function")
		}

		return lazyFn, nil
	}

	return nil, errors.New("inertia: invalid lazy value")
}
