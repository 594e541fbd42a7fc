package vite

import (
	"fmt"
	"html/template"
	"io/fs"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/go-json-experiment/json"
)

type rawManifest = map[string]*ManifestEntry

// Manifest represents a parsed Vite build manifest (manifest.json).
// It maps entry points to their compiled assets and dependencies.
type Manifest struct {
	raw     rawManifest
	version string
	base    string
}

// ManifestEntry describes a single asset in the Vite build manifest.
// It contains the asset's output path, dependencies, and metadata.
type ManifestEntry struct {
	Source         string   `json:"src"`
	File           string   `json:"file"`
	Name           string   `json:"name"`
	CSS            []string `json:"css"`
	Assets         []string `json:"assets"`
	Imports        []string `json:"imports"`
	DynamicImports []string `json:"dynamicImports"`
	IsEntry        bool     `json:"isEntry"`
	IsDynamicEntry bool     `json:"isDynamicEntry"`
}

// Version returns the asset version derived from the manifest contents.
//
// It changes whenever a build produces different files, which makes it
// suitable as the server asset version of an Inertia renderer.
func (m *Manifest) Version() string { return m.version }

// HTML resolves a manifest entry and returns the tags loading it: its
// stylesheets, module preloads of its static imports, and the entry script.
//
// It recursively walks the import graph to include all dependencies.
func (m *Manifest) HTML(name string) (template.HTML, error) {
	entry, ok := m.raw[name]
	if !ok {
		return "", fmt.Errorf("inertia: entry %s not found in manifest", name)
	}

	var (
		css      []string
		preloads []string
		seen     = make(map[string]bool)
	)

	var walk func(string, *ManifestEntry) error

	walk = func(key string, e *ManifestEntry) error {
		if seen[key] {
			return nil
		}

		seen[key] = true
		css = append(css, e.CSS...)

		for _, i := range e.Imports {
			imported, ok := m.raw[i]
			if !ok {
				return fmt.Errorf("inertia: import %s of %s not found in manifest", i, key)
			}

			preloads = append(preloads, imported.File)

			if err := walk(i, imported); err != nil {
				return err
			}
		}

		return nil
	}

	if err := walk(name, entry); err != nil {
		return "", err
	}

	var b strings.Builder

	for _, link := range dedupe(css) {
		fmt.Fprintf(&b, `<link rel="stylesheet" href="%s">`, template.HTMLEscapeString(m.base+link))
	}

	for _, link := range dedupe(preloads) {
		fmt.Fprintf(&b, `<link rel="modulepreload" href="%s">`, template.HTMLEscapeString(m.base+link))
	}

	fmt.Fprintf(&b, `<script type="module" src="%s"></script>`, template.HTMLEscapeString(m.base+entry.File))

	return template.HTML(b.String()), nil //nolint:gosec
}

// Funcs returns the template functions of the manifest:
//
//	{{ vite "src/app.js" }}
func (m *Manifest) Funcs() template.FuncMap {
	return template.FuncMap{"vite": m.HTML}
}

// ParseManifest parses a Vite build manifest from JSON bytes. Asset paths
// are prefixed with base, such as "/build/".
func ParseManifest(b []byte, base string) (*Manifest, error) {
	var raw rawManifest
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("inertia: failed to unmarshal manifest: %w", err)
	}

	for key, e := range raw {
		if e == nil {
			return nil, fmt.Errorf("inertia: manifest entry %s is empty", key)
		}
	}

	return &Manifest{
		raw:     raw,
		base:    base,
		version: strconv.FormatUint(xxhash.Sum64(b), 16),
	}, nil
}

// ParseManifestFromFS reads and parses a Vite manifest from a file system.
func ParseManifestFromFS(fsys fs.FS, path, base string) (*Manifest, error) {
	b, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("inertia: failed to read manifest file: %w", err)
	}

	return ParseManifest(b, base)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]

	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}

		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}
