package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	bankingapp "github.com/sistemita/backend/internal/application/banking"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	var (
		batchSize   int
		stopOnError bool
		movement    string
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Settle unreconciled bank movements",
		Long: `Runs one reconciliation sweep over the unreconciled bank movements,
oldest first, and prints the run report. Each movement is settled in its
own transaction; movements no matcher recognizes stay unreconciled.`,
		Example: `  # Sweep everything pending
  batch reconcile

  # Walk the movements 500 at a time and stop at the first failure
  batch reconcile --batch-size 500 --stop-on-error

  # Retry a single movement
  batch reconcile --movement 5f0c2a8e-3b1d-4d7e-9a55-0c8f6b1e2d44`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.close()

			if !app.cfg.Reconciliation.Enabled {
				return errors.New("reconciliation is disabled by configuration")
			}
			if movement != "" {
				id, err := uuid.Parse(movement)
				if err != nil {
					return fmt.Errorf("invalid movement id %q: %w", movement, err)
				}
				outcome, err := app.reconciliation.ReconcileOne(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printReport(cmd.OutOrStdout(), opts, outcome)
			}
			service := app.reconciliation
			if cmd.Flags().Changed("batch-size") || cmd.Flags().Changed("stop-on-error") {
				rc := reconciliationConfig(app.cfg)
				if cmd.Flags().Changed("batch-size") {
					rc.BatchSize = batchSize
				}
				if cmd.Flags().Changed("stop-on-error") {
					rc.StopOnError = stopOnError
				}
				service = bankingapp.NewReconciliationService(app.scope, nil, rc, app.log)
			}

			report, err := service.Run(cmd.Context())
			if err != nil {
				return err
			}
			app.log.Info("Reconciliation finished",
				zap.Int("processed", report.Processed),
				zap.Int("reconciled", report.Reconciled),
				zap.Int("failed", report.Failed))
			if err := printReport(cmd.OutOrStdout(), opts, report); err != nil {
				return err
			}
			if report.Aborted {
				return errors.New("sweep stopped at the first failing movement")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Movements loaded per page, 0 for a single page (default from config)")
	cmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "Stop at the first failing movement (default from config)")
	cmd.Flags().StringVar(&movement, "movement", "", "Reconcile only this movement id")
	cmd.MarkFlagsMutuallyExclusive("movement", "batch-size")
	return cmd
}
