package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func setRequired(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GO_ENV", "dev")
	t.Setenv("CLEANUP_API_KEY_HASH", "$2a$10$dummyhash")
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "")

	_, err := Load()
	assert.ErrorContains(t, err, "PORT")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.DefaultReservationTTL)
	assert.Equal(t, 24*time.Hour, cfg.MaxReservationTTL)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 100, cfg.SweepBatchSize)
	assert.Equal(t, 3, cfg.StoreRetryAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.StoreRetryBackoff)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("RESERVATION_DEFAULT_TTL_SECONDS", "60")
	t.Setenv("RESERVATION_MAX_TTL_SECONDS", "120")
	t.Setenv("SWEEP_BATCH_SIZE", "10")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.DefaultReservationTTL)
	assert.Equal(t, 2*time.Minute, cfg.MaxReservationTTL)
	assert.Equal(t, 10, cfg.SweepBatchSize)
}

func TestLoad_NonNumeric(t *testing.T) {
	setRequired(t)
	t.Setenv("SWEEP_INTERVAL_SECONDS", "abc")

	_, err := Load()
	assert.ErrorContains(t, err, "SWEEP_INTERVAL_SECONDS")
}

// max < default は拒否
func TestLoad_InconsistentTTL(t *testing.T) {
	setRequired(t)
	t.Setenv("RESERVATION_DEFAULT_TTL_SECONDS", "600")
	t.Setenv("RESERVATION_MAX_TTL_SECONDS", "60")

	_, err := Load()
	assert.ErrorContains(t, err, "inconsistent")
}
