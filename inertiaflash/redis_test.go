package inertiaflash

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()}) //nolint:exhaustruct

	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestRedis(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		mr, client := newTestRedis(t)
		s := NewRedis(client, nil)

		w := httptest.NewRecorder()
		require.NoError(t, s.Save(w, httptest.NewRequest(http.MethodPost, "/", nil),
			map[string]any{"success": "done"}))

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)

		key := DefaultRedisPrefix + cookies[0].Value
		assert.True(t, mr.Exists(key))
		assert.Equal(t, DefaultTTL, mr.TTL(key))

		r := requestWithCookies(t, w)

		data, err := s.Load(r)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"success": "done"}, data)

		require.NoError(t, s.Clear(httptest.NewRecorder(), r))
		assert.False(t, mr.Exists(key))

		data, err = s.Load(r)
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("reuses identifier", func(t *testing.T) {
		t.Parallel()

		_, client := newTestRedis(t)
		s := NewRedis(client, nil)

		w := httptest.NewRecorder()
		require.NoError(t, s.Save(w, httptest.NewRequest(http.MethodPost, "/", nil), map[string]any{"a": 1}))

		r := requestWithCookies(t, w)
		w2 := httptest.NewRecorder()
		require.NoError(t, s.Save(w2, r, map[string]any{"b": 2}))

		assert.Equal(t, w.Result().Cookies()[0].Value, w2.Result().Cookies()[0].Value)

		data, err := s.Load(r)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"b": float64(2)}, data)
	})

	t.Run("expired data", func(t *testing.T) {
		t.Parallel()

		mr, client := newTestRedis(t)
		s := NewRedis(client, &RedisOptions{ //nolint:exhaustruct
			Prefix: "test:",
			Cookie: CookieOptions{TTL: time.Minute}, //nolint:exhaustruct
		})

		w := httptest.NewRecorder()
		require.NoError(t, s.Save(w, httptest.NewRequest(http.MethodPost, "/", nil), map[string]any{"a": 1}))

		mr.FastForward(2 * time.Minute)

		data, err := s.Load(requestWithCookies(t, w))
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("ignores malformed identifier", func(t *testing.T) {
		t.Parallel()

		_, client := newTestRedis(t)
		s := NewRedis(client, nil)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "not-a-uuid"}) //nolint:exhaustruct

		data, err := s.Load(r)
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("unavailable server", func(t *testing.T) {
		t.Parallel()

		mr, client := newTestRedis(t)
		s := NewRedis(client, nil)

		w := httptest.NewRecorder()
		require.NoError(t, s.Save(w, httptest.NewRequest(http.MethodPost, "/", nil), map[string]any{"a": 1}))

		mr.Close()

		_, err := s.Load(requestWithCookies(t, w))
		require.Error(t, err)
	})
}
