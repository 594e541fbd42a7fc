// Package inertiaprops provides lightweight Proper implementations.
package inertiaprops

import (
	"maps"
	"slices"

	"go.trall.dev/inertia"
)

var (
	_ inertia.Proper = (*Map)(nil)
	_ inertia.Proper = (*AlwaysMap)(nil)
)

// Map is a convenient map-based Proper implementation for simple key-value props.
// All values are treated as regular props (not lazy, deferred, or always).
//
// For advanced prop options (lazy loading, merging, always-include), use inertia.NewProp
// or inertia.ParseStruct instead.
type Map map[string]any

// Props returns the props ordered by key.
func (m Map) Props() []inertia.Prop {
	props := make([]inertia.Prop, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		props = append(props, inertia.NewProp(k, m[k], nil))
	}

	return props
}

func (m Map) Len() int { return len(m) }

// AlwaysMap is like Map, but its props ignore partial reload filters.
type AlwaysMap map[string]any

// Props returns the props ordered by key.
func (m AlwaysMap) Props() []inertia.Prop {
	props := make([]inertia.Prop, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		props = append(props, inertia.NewAlways(k, m[k]))
	}

	return props
}

func (m AlwaysMap) Len() int { return len(m) }
