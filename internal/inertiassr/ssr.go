package inertiassr

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-json-experiment/json"
	"go.inout.gg/foundations/debug"

	"go.trall.dev/inertia/internal/inertiabase"
	"go.trall.dev/inertia/internal/inertiaheader"
)

var _ SSRClient = (*ssr)(nil)

//nolint:gochecknoglobals
var d = debug.Debuglog("inertia/ssr")

const (
	renderPath = "/render"
	healthPath = "/health"
)

// SSRTemplateData is the pre-rendered markup returned by the SSR service.
type SSRTemplateData struct {
	// Head holds complete elements for the document head (title, meta, link).
	Head []string `json:"head"`

	// Body is the pre-rendered content of the root element.
	Body string `json:"body"`
}

// HeadHTML joins the head elements into a single fragment.
func (t *SSRTemplateData) HeadHTML() string { return strings.Join(t.Head, "\n") }

//go:generate mockgen -destination ssr_mock.go -package inertiassr . SSRClient
type SSRClient interface {
	// Render makes a request to the server-side rendering service with the given page data.
	Render(context.Context, *inertiabase.Page) (*SSRTemplateData, error)

	// IsAvailable reports whether the rendering service answers its health check.
	IsAvailable(context.Context) bool
}

// ssr is an HTTP client that makes requests to a server-side rendering service.
type ssr struct {
	client  *http.Client
	baseURL string
}

// NewHTTPSsrClient creates a client for the SSR service listening at baseURL.
func NewHTTPSsrClient(baseURL string, client *http.Client) SSRClient {
	debug.Assert(baseURL != "", "url must be provided")
	debug.Assert(client != nil, "client must be provided")

	return &ssr{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *ssr) Render(ctx context.Context, p *inertiabase.Page) (*SSRTemplateData, error) {
	debug.Assert(p != nil, "page must be set")

	b, err := json.Marshal(p, json.Deterministic(true))
	if err != nil {
		return nil, fmt.Errorf("inertia: failed to marshal page: %w", err)
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+renderPath, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("inertia: failed to create HTTP request: %w", err)
	}

	r.Header.Set(inertiaheader.HeaderContentType, inertiaheader.ContentTypeJSON)

	resp, err := s.client.Do(r)
	if err != nil {
		return nil, fmt.Errorf("inertia: failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inertia: unexpected HTTP status code: %d", resp.StatusCode)
	}

	var data SSRTemplateData
	if err := json.UnmarshalRead(resp.Body, &data); err != nil {
		return nil, fmt.Errorf("inertia: failed to decode JSON response: %w", err)
	}

	return &data, nil
}

func (s *ssr) IsAvailable(ctx context.Context) bool {
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+healthPath, nil)
	if err != nil {
		return false
	}

	resp, err := s.client.Do(r)
	if err != nil {
		d("SSR service not reachable: %v", err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
