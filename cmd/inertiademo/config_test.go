package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := loadConfig(map[string]string{"FLASH_SECRET": "s3cret"})
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, "s3cret", cfg.FlashSecret)
		assert.Equal(t, 5*time.Minute, cfg.FlashTTL)
	})

	t.Run("flash secret required for cookie flash", func(t *testing.T) {
		t.Parallel()

		_, err := loadConfig(map[string]string{})
		require.ErrorIs(t, err, errFlashSecretRequired)
	})

	t.Run("flash secret optional with redis", func(t *testing.T) {
		t.Parallel()

		cfg, err := loadConfig(map[string]string{"REDIS_URL": "redis://localhost:6379/0"})
		require.NoError(t, err)
		assert.Empty(t, cfg.FlashSecret)
	})
}
