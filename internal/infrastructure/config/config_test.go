package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "sistemita", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "sistemita", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, 24*time.Hour, cfg.Redis.IdempotencyTTL)
		assert.True(t, cfg.Reconciliation.Enabled)
		assert.False(t, cfg.Reconciliation.StopOnError)
		assert.Equal(t, 0, cfg.Reconciliation.BatchSize)
		assert.Empty(t, cfg.Reconciliation.Schedule)
		assert.Equal(t, "auto", cfg.Statement.DefaultEncoding)
		assert.Equal(t, int64(10<<20), cfg.Statement.MaxUploadSize)
		assert.Equal(t, 100, cfg.Statement.MaxRowErrors)
		assert.True(t, cfg.Swagger.Enabled)
		assert.Empty(t, cfg.Swagger.AllowedIPs)
		assert.False(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "sistemita", cfg.Telemetry.ServiceName)
	})

	t.Run("loads values from environment variables with SISTEMITA prefix", func(t *testing.T) {
		t.Setenv("SISTEMITA_APP_NAME", "test-app")
		t.Setenv("SISTEMITA_APP_PORT", "9000")
		t.Setenv("SISTEMITA_DATABASE_HOST", "testdb.local")
		t.Setenv("SISTEMITA_DATABASE_PORT", "5433")
		t.Setenv("SISTEMITA_DATABASE_PASSWORD", "testpass")
		t.Setenv("SISTEMITA_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("SISTEMITA_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("SISTEMITA_REDIS_ENABLED", "true")
		t.Setenv("SISTEMITA_REDIS_IDEMPOTENCY_TTL", "1h")
		t.Setenv("SISTEMITA_RECONCILIATION_ENABLED", "false")
		t.Setenv("SISTEMITA_RECONCILIATION_BATCH_SIZE", "500")
		t.Setenv("SISTEMITA_RECONCILIATION_STOP_ON_ERROR", "true")
		t.Setenv("SISTEMITA_RECONCILIATION_SCHEDULE", "30 6 * * *")
		t.Setenv("SISTEMITA_STATEMENT_DEFAULT_ENCODING", "windows-1252")
		t.Setenv("SISTEMITA_SWAGGER_ENABLED", "false")
		t.Setenv("SISTEMITA_SWAGGER_ALLOWED_IPS", "10.0.0.0/8 127.0.0.1")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, time.Hour, cfg.Redis.IdempotencyTTL)
		assert.False(t, cfg.Reconciliation.Enabled)
		assert.Equal(t, 500, cfg.Reconciliation.BatchSize)
		assert.True(t, cfg.Reconciliation.StopOnError)
		assert.Equal(t, "30 6 * * *", cfg.Reconciliation.Schedule)
		assert.Equal(t, "windows-1252", cfg.Statement.DefaultEncoding)
		assert.False(t, cfg.Swagger.Enabled)
		assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.Swagger.AllowedIPs)
		assert.Equal(t, "test-app", cfg.Telemetry.ServiceName)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("SISTEMITA_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("SISTEMITA_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects negative batch size", func(t *testing.T) {
		t.Setenv("SISTEMITA_RECONCILIATION_BATCH_SIZE", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reconciliation.batch_size")
	})

	t.Run("rejects unknown statement encoding", func(t *testing.T) {
		t.Setenv("SISTEMITA_STATEMENT_DEFAULT_ENCODING", "ebcdic")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "statement.default_encoding")
	})

	t.Run("rejects sampling ratio out of range", func(t *testing.T) {
		t.Setenv("SISTEMITA_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		t.Setenv("SISTEMITA_APP_ENV", "production")
		t.Setenv("SISTEMITA_DATABASE_PASSWORD", "secure-password")
		t.Setenv("SISTEMITA_DATABASE_SSLMODE", "require")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		t.Setenv("SISTEMITA_APP_ENV", "production")
		t.Setenv("SISTEMITA_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		t.Setenv("SISTEMITA_APP_ENV", "production")
		t.Setenv("SISTEMITA_DATABASE_PASSWORD", "secure-password")
		t.Setenv("SISTEMITA_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects full SQL in traces", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SISTEMITA_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", cfg.Addr())
}
