// Package vite integrates Vite builds with the Inertia renderer.
//
// It resolves entries declared in the Vite manifest into the tags loading
// them, and derives the asset version announced to clients from the
// manifest contents.
package vite

import (
	"fmt"
	"html/template"
	"io/fs"
	"path"

	"go.inout.gg/foundations/must"
)

// NewTemplate parses the root view template named path from fsys, with the
// manifest functions available:
//
//	<head>{{ vite "src/app.js" }}</head>
func NewTemplate(fsys fs.FS, name string, m *Manifest) (*template.Template, error) {
	t := template.New(path.Base(name)).Funcs(m.Funcs())
	if _, err := t.ParseFS(fsys, name); err != nil {
		return nil, fmt.Errorf("inertia: failed to parse template: %w", err)
	}

	return t, nil
}

// Must is like NewTemplate but panics on error.
func Must(fsys fs.FS, name string, m *Manifest) *template.Template {
	return must.Must(NewTemplate(fsys, name, m))
}
