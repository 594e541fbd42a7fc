// Package inertiabase holds the wire types shared by the renderer and
// the SSR gateway.
package inertiabase

// Page is the protocol payload sent to the client, either as JSON or
// embedded into the root view.
//
// Optional collections are omitted from the wire when empty.
type Page struct {
	Props          map[string]any      `json:"props"`
	DeferredProps  map[string][]string `json:"deferredProps,omitempty"`
	OnceProps      map[string]OnceProp `json:"onceProps,omitempty"`
	Flash          map[string]any      `json:"flash,omitempty"`
	Component      string              `json:"component"`
	URL            string              `json:"url"`
	Version        string              `json:"version,omitempty"`
	MergeProps     []string            `json:"mergeProps,omitempty"`
	PrependProps   []string            `json:"prependProps,omitempty"`
	DeepMergeProps []string            `json:"deepMergeProps,omitempty"`
	ClearHistory   bool                `json:"clearHistory"`
	EncryptHistory bool                `json:"encryptHistory"`
}

// OnceProp is the cache metadata of a once prop.
type OnceProp struct {
	// ExpiresAt is a Unix timestamp in milliseconds, nil when the value
	// never expires.
	ExpiresAt *int64 `json:"expiresAt,omitempty"`
}
