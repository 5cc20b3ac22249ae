package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 3, cfg.AdminMaxKeyAttempts)
	assert.Equal(t, "secret", cfg.QRSigningSecret, "QR secret falls back to JWT secret")
	assert.False(t, cfg.AdminPasskeyConfigured())
	assert.False(t, cfg.ImageStoreConfigured())
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "9000")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("ADMIN_PASSKEY", "letmein")
	t.Setenv("QR_SIGNING_SECRET", "qr")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("NOTIFY_CONCURRENCY", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.AdminPasskeyConfigured())
	assert.Equal(t, "qr", cfg.QRSigningSecret)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 8, cfg.NotifyConcurrency)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestDSN(t *testing.T) {
	mysqlCfg := &Config{DBDriver: "mysql", DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: 3306, DBName: "eventsync"}
	assert.Equal(t, "u:p@tcp(db:3306)/eventsync?parseTime=true&loc=UTC", mysqlCfg.DSN())

	explicit := &Config{DBDriver: "mysql", DatabaseDSN: "custom"}
	assert.Equal(t, "custom", explicit.DSN())

	sqliteCfg := &Config{DBDriver: "sqlite", DBName: "dev"}
	assert.Contains(t, sqliteCfg.DSN(), "file:dev.db")
	assert.Contains(t, sqliteCfg.DSN(), "_pragma=foreign_keys(1)")
}

func TestSQLiteDSNAlwaysEnablesForeignKeys(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"file:/data/eventsync.db", "file:/data/eventsync.db?_pragma=foreign_keys(1)"},
		{"file:/data/eventsync.db?_pragma=busy_timeout(5000)", "file:/data/eventsync.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"},
		{"file:/data/eventsync.db?_pragma=foreign_keys(0)", "file:/data/eventsync.db?_pragma=foreign_keys(0)"},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			cfg := &Config{DBDriver: "sqlite", DatabaseDSN: tt.dsn}
			assert.Equal(t, tt.want, cfg.DSN())
		})
	}
}
