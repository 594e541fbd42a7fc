package inertia

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticLazy(v any) LazyFunc {
	return func(context.Context) (any, error) { return v, nil }
}

func TestProp_Capabilities(t *testing.T) {
	t.Parallel()

	t.Run("deferred defaults", func(t *testing.T) {
		t.Parallel()

		p := NewDeferred("stats", staticLazy(1), nil)
		group, ok := p.DeferredGroup()

		assert.True(t, ok)
		assert.Equal(t, DefaultDeferredGroup, group)
		assert.Equal(t, MergeNone, p.MergeMode())
		assert.False(t, p.IsOnce())
	})

	t.Run("deferred options", func(t *testing.T) {
		t.Parallel()

		p := NewDeferred("stats", staticLazy(1), &DeferredOptions{
			Group: "sidebar",
			Merge: MergeDeep,
			Once:  &OnceOptions{Key: "stats-v1"},
		})
		group, _ := p.DeferredGroup()

		assert.Equal(t, "sidebar", group)
		assert.Equal(t, MergeDeep, p.MergeMode())
		assert.True(t, p.IsOnce())
		assert.Equal(t, "stats-v1", p.OnceKey())
	})

	t.Run("merge modes", func(t *testing.T) {
		t.Parallel()

		p := NewMerge("items", []int{1}, nil)
		assert.Equal(t, MergeAppend, p.MergeMode())
		assert.Equal(t, MergePrepend, p.Prepend().MergeMode())
		assert.Equal(t, MergeDeep, p.DeepMerge().MergeMode())
		assert.Equal(t, MergeAppend, p.Prepend().Append().MergeMode())
		assert.Equal(t, MergeAppend, p.MergeMode(), "builders must not mutate the receiver")

		assert.Equal(t, MergeAppend, NewProp("items", nil, &PropOptions{Merge: true}).MergeMode())
		assert.Equal(t, MergeNone, NewProp("items", nil, nil).MergeMode())
	})

	t.Run("once key", func(t *testing.T) {
		t.Parallel()

		p := NewOnce("countries", staticLazy(nil), nil)
		assert.Equal(t, "countries", p.OnceKey())
		assert.Equal(t, "geo", p.As("geo").OnceKey())
		assert.Empty(t, NewProp("countries", nil, nil).OnceKey())
	})

	t.Run("fresh", func(t *testing.T) {
		t.Parallel()

		p := NewOnce("countries", staticLazy(nil), nil)
		assert.False(t, p.IsFresh())
		assert.True(t, p.Fresh().IsFresh())
	})

	t.Run("scroll", func(t *testing.T) {
		t.Parallel()

		page := NewPageData([]string{"a"}, 0, 1, 3)

		p := NewScroll("items", page, nil)
		_, deferred := p.DeferredGroup()
		assert.Equal(t, MergeAppend, p.MergeMode())
		assert.False(t, deferred)

		p = NewScroll("items", page, &ScrollOptions{Prepend: true, Defer: true, Group: "feed"})
		group, deferred := p.DeferredGroup()
		assert.Equal(t, MergePrepend, p.MergeMode())
		assert.True(t, deferred)
		assert.Equal(t, "feed", group)
	})
}

func TestProp_OnceExpiry(t *testing.T) {
	t.Parallel()

	t.Run("no expiry", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, NewOnce("a", staticLazy(1), nil).OnceExpiresAt())
		assert.Nil(t, NewProp("a", 1, nil).OnceExpiresAt())
	})

	t.Run("absolute expiry is stable", func(t *testing.T) {
		t.Parallel()

		at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		p := NewOnce("a", staticLazy(1), &OnceOptions{ExpiresAt: at})

		first := p.OnceExpiresAt()
		second := p.OnceExpiresAt()

		require.NotNil(t, first)
		require.NotNil(t, second)
		assert.True(t, at.Equal(*first))
		assert.True(t, first.Equal(*second))
	})

	t.Run("relative expiry is recomputed", func(t *testing.T) {
		t.Parallel()

		p := NewOnce("a", staticLazy(1), &OnceOptions{TTL: time.Hour})

		first := p.OnceExpiresAt()
		time.Sleep(5 * time.Millisecond)
		second := p.OnceExpiresAt()

		require.NotNil(t, first)
		require.NotNil(t, second)
		assert.True(t, second.After(*first))
		assert.WithinDuration(t, time.Now().Add(time.Hour), *second, time.Second)
	})

	t.Run("switching expiry modes", func(t *testing.T) {
		t.Parallel()

		at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

		p := NewOnce("a", staticLazy(1), nil).ExpireAfter(time.Minute).ExpireAt(at)
		require.NotNil(t, p.OnceExpiresAt())
		assert.True(t, at.Equal(*p.OnceExpiresAt()))

		p = NewOnce("a", staticLazy(1), nil).ExpireAt(at).ExpireAfter(time.Minute)
		require.NotNil(t, p.OnceExpiresAt())
		assert.WithinDuration(t, time.Now().Add(time.Minute), *p.OnceExpiresAt(), time.Second)
	})

	t.Run("ttl takes precedence over expires at", func(t *testing.T) {
		t.Parallel()

		at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		p := NewOnce("a", staticLazy(1), &OnceOptions{ExpiresAt: at, TTL: time.Minute})

		require.NotNil(t, p.OnceExpiresAt())
		assert.WithinDuration(t, time.Now().Add(time.Minute), *p.OnceExpiresAt(), time.Second)
	})
}

func TestMergeMode_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", MergeNone.String())
	assert.Equal(t, "append", MergeAppend.String())
	assert.Equal(t, "prepend", MergePrepend.String())
	assert.Equal(t, "deep", MergeDeep.String())
	assert.Equal(t, "unknown", MergeMode(42).String())
}
