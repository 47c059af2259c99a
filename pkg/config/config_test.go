package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 7, cfg.Cases.DefaultSLADays)
	assert.False(t, cfg.Cases.RequireClosureComment)
	assert.False(t, cfg.Cases.LockClosed)
	assert.Equal(t, 30*time.Minute, cfg.Exports.SignedURLTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORE_DRIVER", " Postgres ")
	v.Set("CASES_DEFAULT_SLA_DAYS", -1)
	v.Set("CASES_LOCK_CLOSED", true)
	v.Set("DASHBOARD_CACHE_TTL", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	v.Set("INTAKE_BASE_URL", "https://portal.example/request/")
	v.Set("BOOTSTRAP_ADMIN_EMAIL", " Admin@Example.com ")

	cfg := fromViper(v)

	assert.Equal(t, StorePostgres, cfg.Store.Driver)
	assert.Equal(t, 7, cfg.Cases.DefaultSLADays)
	assert.True(t, cfg.Cases.LockClosed)
	assert.Equal(t, 5*time.Minute, cfg.Cache.DashboardTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "https://portal.example/request", cfg.Intake.BaseURL)
	assert.Equal(t, "admin@example.com", cfg.Bootstrap.AdminEmail)
}

func TestUnknownStoreDriverFallsBackToMemory(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORE_DRIVER", "sqlite")

	assert.Equal(t, StoreMemory, fromViper(v).Store.Driver)
}
