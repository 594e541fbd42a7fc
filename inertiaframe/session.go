package inertiaframe

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/go-json-experiment/json"
	"go.inout.gg/foundations/http/httpcookie"

	"go.trall.dev/inertia"
)

type sessCtx struct{}

var kSessCtx = sessCtx{} //nolint:gochecknoglobals

const (
	SessionCookieName = "_inertiaframe"
	SessionPath       = "/"
)

// session carries validation errors of a failed submission over the
// redirect back to the form.
type session struct {
	ValidationErrors_ map[string]string `json:"errors,omitempty"` //nolint:revive
	ErrorBag_         string            `json:"bag,omitempty"`    //nolint:revive
	dirty             bool
}

// sessionFromRequest retrieves a session from the request. If the session
// does not exist, a new session is created.
func sessionFromRequest(r *http.Request) (*session, error) {
	sess, ok := r.Context().Value(kSessCtx).(*session)
	if ok && sess != nil {
		return sess, nil
	}

	//nolint:exhaustruct
	sess = &session{}

	if val := httpcookie.Get(r, SessionCookieName); val != "" {
		b, err := base64.RawURLEncoding.DecodeString(val)
		if err != nil {
			return nil, fmt.Errorf("inertiaframe: failed to decode session cookie: %w", err)
		}

		if err := json.Unmarshal(b, sess); err != nil {
			return nil, fmt.Errorf("inertiaframe: failed to decode session: %w", err)
		}
	}

	// Save session for future lookups.
	*r = *r.WithContext(context.WithValue(r.Context(), kSessCtx, sess))

	return sess, nil
}

// ValidationErrors returns validation errors from the previous request.
// Errors are cleared after being read (flash behavior).
func (s *session) ValidationErrors() inertia.ValidationErrors {
	ret := inertia.ValidationErrorsFromMap(s.ValidationErrors_)
	if ret != nil {
		s.ValidationErrors_ = nil
		s.dirty = true
	}

	return ret
}

// ErrorBag returns the error bag name from the previous request that produced errors.
// Automatically cleared after being read.
func (s *session) ErrorBag() string {
	ret := s.ErrorBag_
	s.ErrorBag_ = ""

	return ret
}

// Flush deletes the session cookie once its content has been read.
func (s *session) Flush(w http.ResponseWriter, r *http.Request) {
	if !s.dirty {
		return
	}

	httpcookie.Delete(w, r, SessionCookieName)
	s.dirty = false
}

// Save persists the session to a cookie sent to the client.
func (s *session) Save(w http.ResponseWriter) error {
	b, err := json.Marshal(s, json.Deterministic(true))
	if err != nil {
		return fmt.Errorf("inertiaframe: failed to encode session: %w", err)
	}

	//nolint:exhaustruct
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     SessionPath,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)

	return nil
}
