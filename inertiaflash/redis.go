package inertiaflash

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.inout.gg/foundations/debug"
	"go.inout.gg/foundations/http/httpcookie"
)

const DefaultRedisPrefix = "inertia:flash:"

// RedisOptions configures the Redis carrier.
type RedisOptions struct {
	// Prefix is prepended to every key. Defaults to DefaultRedisPrefix.
	Prefix string

	// Cookie configures the cookie holding the flash identifier.
	// Cookie.TTL also bounds the lifetime of the stored data.
	Cookie CookieOptions
}

// Redis carries flash data in Redis. The client only receives a random
// identifier of its data.
type Redis struct {
	client redis.UniversalClient
	prefix string
	cookie CookieOptions
}

// NewRedis creates a Redis carrier. If opts is nil, default options are used.
func NewRedis(client redis.UniversalClient, opts *RedisOptions) *Redis {
	debug.Assert(client != nil, "client must be provided")

	var o RedisOptions
	if opts != nil {
		o = *opts
	}

	if o.Prefix == "" {
		o.Prefix = DefaultRedisPrefix
	}

	o.Cookie.defaults()

	return &Redis{client: client, prefix: o.Prefix, cookie: o.Cookie}
}

// Load returns the data stored under the identifier of the request cookie.
func (s *Redis) Load(r *http.Request) (map[string]any, error) {
	id, ok := s.id(r)
	if !ok {
		return nil, nil
	}

	b, err := s.client.Get(r.Context(), s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("inertiaflash: failed to load flash data: %w", err)
	}

	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFlash, err)
	}

	d("Loaded %d flash values from redis", len(data))

	return data, nil
}

// Save stores data in Redis, reusing the identifier of the request if any.
func (s *Redis) Save(w http.ResponseWriter, r *http.Request, data map[string]any) error {
	b, err := json.Marshal(data, json.Deterministic(true))
	if err != nil {
		return fmt.Errorf("inertiaflash: failed to encode flash data: %w", err)
	}

	id, ok := s.id(r)
	if !ok {
		id = uuid.NewString()
	}

	if err := s.client.Set(r.Context(), s.key(id), b, s.cookie.TTL).Err(); err != nil {
		return fmt.Errorf("inertiaflash: failed to save flash data: %w", err)
	}

	http.SetCookie(w, s.cookie.cookie(id))

	return nil
}

// Clear deletes the stored data and the identifier cookie.
func (s *Redis) Clear(w http.ResponseWriter, r *http.Request) error {
	id, ok := s.id(r)
	if !ok {
		return nil
	}

	if err := s.client.Del(r.Context(), s.key(id)).Err(); err != nil {
		return fmt.Errorf("inertiaflash: failed to clear flash data: %w", err)
	}

	httpcookie.Delete(w, r, s.cookie.Name)

	return nil
}

// id returns the identifier carried by the request. Malformed identifiers
// are ignored.
func (s *Redis) id(r *http.Request) (string, bool) {
	val := httpcookie.Get(r, s.cookie.Name)
	if val == "" {
		return "", false
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return "", false
	}

	return id.String(), true
}

func (s *Redis) key(id string) string { return s.prefix + id }
