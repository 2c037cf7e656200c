package main

import (
	"fmt"
	"os"
	"path/filepath"

	bankingapp "github.com/sistemita/backend/internal/application/banking"
	"github.com/sistemita/backend/internal/infrastructure/statement"
	"github.com/spf13/cobra"
)

type importOptions struct {
	format    string
	encoding  string
	sheet     string
	reconcile bool
}

// request validates the flags and builds the import request for path
func (o importOptions) request(path string) (bankingapp.ImportRequest, error) {
	req := bankingapp.ImportRequest{
		FileName: filepath.Base(path),
		Format:   statement.FormatFromFilename(path),
		Sheet:    o.sheet,
	}
	if o.format != "" {
		format, err := statement.ParseFormat(o.format)
		if err != nil {
			return req, err
		}
		req.Format = format
	}
	if o.encoding != "" {
		encoding, err := statement.ParseEncoding(o.encoding)
		if err != nil {
			return req, err
		}
		req.Encoding = encoding
	}
	return req, nil
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var flags importOptions
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a bank statement file",
		Long: `Reads a bank statement (tab separated text or XLSX) and stores its
movements. Lines already imported are skipped, so a file can be imported
again safely.`,
		Example: `  batch import extracto-marzo.txt --encoding windows1252
  batch import extracto.xlsx --sheet Movimientos --reconcile`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(args[0])
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open statement: %w", err)
			}
			defer file.Close()

			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.close()

			report, err := app.imports.Import(cmd.Context(), file, req)
			if err != nil {
				return err
			}
			if err := printReport(cmd.OutOrStdout(), opts, report); err != nil {
				return err
			}

			if !flags.reconcile {
				return nil
			}
			run, err := app.reconciliation.Run(cmd.Context())
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), opts, run)
		},
	}
	cmd.Flags().StringVar(&flags.format, "format", "", "text or xlsx (default: from the file extension)")
	cmd.Flags().StringVar(&flags.encoding, "encoding", "", "auto, utf8 or windows1252 (default from config)")
	cmd.Flags().StringVar(&flags.sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	cmd.Flags().BoolVar(&flags.reconcile, "reconcile", false, "Run a reconciliation sweep after the import")
	return cmd
}
