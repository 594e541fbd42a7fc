package main

import (
	"context"
	"net/http"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"go.trall.dev/inertia"
	"go.trall.dev/inertia/contrib/inertiavalidationerrors"
	"go.trall.dev/inertia/inertiaframe"
	"go.trall.dev/inertia/inertiaprops"
)

const pageSize = 20

type contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type contactStore struct {
	contacts []contact
	mu       sync.RWMutex
}

func newContactStore() *contactStore {
	return &contactStore{contacts: nil, mu: sync.RWMutex{}}
}

func (s *contactStore) add(name, email string) contact {
	c := contact{ID: uuid.NewString(), Name: name, Email: email, CreatedAt: time.Now()}

	s.mu.Lock()
	s.contacts = append(s.contacts, c)
	s.mu.Unlock()

	return c
}

// page returns the n-th page of contacts, newest first.
func (s *contactStore) page(n int) inertia.PageData[contact] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := slices.Clone(s.contacts)
	slices.Reverse(all)

	start := len(all)
	if n = max(n, 0); n <= len(all)/pageSize {
		start = n * pageSize
	}

	end := min(start+pageSize, len(all))

	return inertia.NewPageData(all[start:end], n, pageSize, int64(len(all)))
}

func (s *contactStore) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.contacts)
}

type app struct {
	store *contactStore
}

func newApp(store *contactStore) *app { return &app{store: store} }

// share exposes the request-scoped props of every page.
func (a *app) share(r *http.Request) (inertia.Proper, error) {
	return inertiaprops.AlwaysMap{
		"requestPath": r.URL.Path,
	}, nil
}

func (a *app) mount(r chi.Router) {
	opts := &inertiaframe.MountOpts{Validator: validator{}} //nolint:exhaustruct

	inertiaframe.Mount[listContactsRequest](r, &listContacts{store: a.store}, opts)
	inertiaframe.Mount[createContactRequest](r, &createContact{store: a.store}, opts)
	inertiaframe.Mount[struct{}](r, &docs{}, opts)
}

// validator validates messages implementing a Validate method.
type validator struct{}

func (validator) Validate(v any) error {
	if m, ok := v.(interface{ Validate() error }); ok {
		return m.Validate()
	}

	return nil
}

type listContactsRequest struct {
	Page int
}

func (req *listContactsRequest) Extract(r *http.Request) error {
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			n = 0
		}

		req.Page = n
	}

	return nil
}

type listContactsResponse struct {
	contacts inertia.PageData[contact]
	total    int
}

func (m *listContactsResponse) Component() string { return "Contacts/Index" }

func (m *listContactsResponse) Props() []inertia.Prop {
	total := m.total

	return []inertia.Prop{
		inertia.NewScroll("contacts", m.contacts, nil),
		inertia.NewDeferred("stats", inertia.LazyFunc(func(context.Context) (any, error) {
			return map[string]any{"total": total}, nil
		}), &inertia.DeferredOptions{Group: "sidebar", Concurrent: true}), //nolint:exhaustruct
		inertia.NewOnce("countries", inertia.LazyFunc(func(context.Context) (any, error) {
			return []string{"DE", "FR", "GB", "US"}, nil
		}), &inertia.OnceOptions{TTL: 24 * time.Hour}), //nolint:exhaustruct
	}
}

func (m *listContactsResponse) Len() int { return 3 }

type listContacts struct {
	store *contactStore
}

func (e *listContacts) Meta() *inertiaframe.Meta {
	return &inertiaframe.Meta{Method: http.MethodGet, Path: "/contacts"}
}

func (e *listContacts) Execute(
	_ context.Context,
	req *inertiaframe.Request[listContactsRequest],
) (*inertiaframe.Response, error) {
	return inertiaframe.NewResponse(&listContactsResponse{
		contacts: e.store.page(req.Message.Page),
		total:    e.store.count(),
	}, nil), nil
}

type createContactRequest struct {
	Name  string `form:"name"  json:"name"`
	Email string `form:"email" json:"email"`
}

func (req *createContactRequest) Validate() error {
	errs := inertiavalidationerrors.MapError{}

	if strings.TrimSpace(req.Name) == "" {
		errs["name"] = "The name field is required."
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		errs["email"] = "The email must be a valid email address."
	}

	if len(errs) > 0 {
		return inertiavalidationerrors.NewBag("createContact", errs)
	}

	return nil
}

type createContact struct {
	store *contactStore
}

func (e *createContact) Meta() *inertiaframe.Meta {
	return &inertiaframe.Meta{Method: http.MethodPost, Path: "/contacts"}
}

func (e *createContact) Execute(
	_ context.Context,
	req *inertiaframe.Request[createContactRequest],
) (*inertiaframe.Response, error) {
	c := e.store.add(req.Message.Name, req.Message.Email)

	return inertiaframe.NewRedirectResponse("/contacts").
		WithFlash("success", "Contact "+c.Name+" created."), nil
}

type docs struct{}

func (e *docs) Meta() *inertiaframe.Meta {
	return &inertiaframe.Meta{Method: http.MethodGet, Path: "/docs"}
}

func (e *docs) Execute(context.Context, *inertiaframe.Request[struct{}]) (*inertiaframe.Response, error) {
	return inertiaframe.NewExternalRedirectResponse("https://inertiajs.com/the-protocol"), nil
}
