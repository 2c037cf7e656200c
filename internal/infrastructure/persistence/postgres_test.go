package persistence

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/sistemita/backend/internal/infrastructure/migration"
	"github.com/sistemita/backend/migrations"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupPostgresDB starts a PostgreSQL container and applies the embedded
// migrations. The test is skipped in short mode and when Docker is not available.
func setupPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("sistemita_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("Skipping integration test, PostgreSQL container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}
	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	src, err := migration.EmbeddedSource(migrations.FS)
	require.NoError(t, err)
	migrator, err := migration.New(sqlDB, src, "", zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, migrator.Up())

	return db
}

// truncateLedger empties every table the migrations create
func truncateLedger(t *testing.T, db *gorm.DB) {
	t.Helper()
	var tables []string
	err := db.Raw(`SELECT tablename FROM pg_tables
		WHERE schemaname = 'public' AND tablename != 'schema_migrations'`).Scan(&tables).Error
	require.NoError(t, err)
	for _, table := range tables {
		require.NoError(t, db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error)
	}
}

func TestLedger_OverPostgres(t *testing.T) {
	db := setupPostgresDB(t)

	scenarios := []struct {
		name string
		run  func(t *testing.T, db *gorm.DB)
	}{
		{"imputation round trip", imputationRoundTrip},
		{"reconciliation sweep", reconciliationSweep},
		{"reconciliation pages past unmatched movements", reconciliationPagesPastUnmatched},
	}
	for _, sc := range scenarios {
		t.Run(sc.name, func(t *testing.T) {
			truncateLedger(t, db)
			sc.run(t, db)
		})
	}
}
