package main

import (
	"encoding/json"
	"fmt"
	"io"

	bankingapp "github.com/sistemita/backend/internal/application/banking"
	"github.com/sistemita/backend/internal/infrastructure/config"
	"github.com/sistemita/backend/internal/infrastructure/logger"
	"github.com/sistemita/backend/internal/infrastructure/persistence"
	"github.com/sistemita/backend/internal/infrastructure/statement"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

type rootOptions struct {
	logLevel string
	compact  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Sistemita ledger batch jobs",
		Long: `Runs ledger jobs against the configured database.

The database and job settings come from config.toml and SISTEMITA_*
environment variables, the same as the server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.compact, "compact", false, "Print reports as single-line JSON")

	cmd.AddCommand(newReconcileCmd(opts), newImportCmd(opts))
	return cmd
}

// batchApp holds what a job needs; close releases it
type batchApp struct {
	cfg            *config.Config
	log            *zap.Logger
	db             *persistence.Database
	scope          *persistence.BankingTransactionScope
	imports        *bankingapp.StatementImportService
	reconciliation *bankingapp.ReconciliationService
}

func openApp(opts *rootOptions) (*batchApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	log, err := logger.New(&logger.Config{Level: opts.logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel), cfg.Database.SlowThreshold)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	defaultEncoding, err := statement.ParseEncoding(cfg.Statement.DefaultEncoding)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	scope := persistence.NewBankingTransactionScope(db.DB)
	return &batchApp{
		cfg:   cfg,
		log:   log,
		db:    db,
		scope: scope,
		imports: bankingapp.NewStatementImportService(scope, bankingapp.StatementImportConfig{
			DefaultEncoding: defaultEncoding,
			MaxRowErrors:    cfg.Statement.MaxRowErrors,
		}, log),
		reconciliation: bankingapp.NewReconciliationService(scope, nil, reconciliationConfig(cfg), log),
	}, nil
}

func reconciliationConfig(cfg *config.Config) bankingapp.ReconciliationConfig {
	return bankingapp.ReconciliationConfig{
		BatchSize:   cfg.Reconciliation.BatchSize,
		StopOnError: cfg.Reconciliation.StopOnError,
	}
}

func (a *batchApp) close() {
	if err := a.db.Close(); err != nil {
		a.log.Error("Error closing database", zap.Error(err))
	}
	_ = logger.Sync(a.log)
}

func printReport(w io.Writer, opts *rootOptions, report any) error {
	enc := json.NewEncoder(w)
	if !opts.compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(report)
}
