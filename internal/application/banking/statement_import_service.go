package banking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sistemita/backend/internal/domain/banking"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/infrastructure/statement"
	"github.com/sistemita/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Statement row result labels used for metrics
const (
	RowResultInserted  = "inserted"
	RowResultDuplicate = "duplicate"
	RowResultInvalid   = "invalid"
)

// ImportRequest describes one statement file to import
type ImportRequest struct {
	FileName string
	Format   statement.Format
	Encoding statement.Encoding
	Sheet    string
}

// ImportReport summarizes a statement import
type ImportReport struct {
	FileName        string               `json:"file_name"`
	Format          statement.Format     `json:"format"`
	RowsRead        int                  `json:"rows_read"`
	Inserted        int                  `json:"inserted"`
	Duplicates      int                  `json:"duplicates"`
	Invalid         int                  `json:"invalid"`
	Errors          []statement.RowError `json:"errors,omitempty"`
	ErrorsTruncated bool                 `json:"errors_truncated,omitempty"`
	Duration        time.Duration        `json:"duration"`
}

// StatementImportConfig tunes statement imports
type StatementImportConfig struct {
	DefaultEncoding statement.Encoding
	MaxRowErrors    int
}

// StatementImportService turns bank statement files into bank movements.
// Re-importing a file inserts nothing new: every line carries a fingerprint
// and already stored fingerprints are skipped.
type StatementImportService struct {
	txScope TransactionScope
	config  StatementImportConfig
	metrics *telemetry.LedgerMetrics
	logger  *zap.Logger
}

// NewStatementImportService creates a new StatementImportService
func NewStatementImportService(txScope TransactionScope, config StatementImportConfig, logger *zap.Logger) *StatementImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.DefaultEncoding == "" {
		config.DefaultEncoding = statement.EncodingAuto
	}
	return &StatementImportService{
		txScope: txScope,
		config:  config,
		logger:  logger,
	}
}

// SetMetrics sets the ledger metrics recorder
func (s *StatementImportService) SetMetrics(metrics *telemetry.LedgerMetrics) {
	s.metrics = metrics
}

// Import parses the statement and stores its movements in one transaction.
// Malformed lines are reported, not fatal.
func (s *StatementImportService) Import(ctx context.Context, r io.Reader, req ImportRequest) (*ImportReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "statement", "import", "file_name", req.FileName, "format", string(req.Format))
	defer span.End()
	started := time.Now()

	enc := req.Encoding
	if enc == "" {
		enc = s.config.DefaultEncoding
	}
	result, err := statement.Parse(r, statement.Options{
		Format:    req.Format,
		Encoding:  enc,
		Sheet:     req.Sheet,
		MaxErrors: s.config.MaxRowErrors,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fileError(err)
	}

	movements := BuildMovements(result.Rows, result.Errors)

	inserted := 0
	if len(movements) > 0 {
		err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			inserted, err = repos.Movements().CreateBatch(ctx, movements)
			return err
		})
		if err != nil {
			telemetry.RecordError(span, err)
			s.logger.Error("Failed to store statement movements", zap.String("file_name", req.FileName), zap.Error(err))
			return nil, fmt.Errorf("store movements: %w", err)
		}
	}

	report := &ImportReport{
		FileName:        req.FileName,
		Format:          req.Format,
		RowsRead:        result.TotalRows,
		Inserted:        inserted,
		Duplicates:      len(movements) - inserted,
		Invalid:         result.Errors.TotalCount(),
		Errors:          result.Errors.Errors(),
		ErrorsTruncated: result.Errors.IsTruncated(),
		Duration:        time.Since(started),
	}
	if report.Format == "" {
		report.Format = statement.FormatText
	}

	s.metrics.RecordStatementRows(ctx, RowResultInserted, report.Inserted)
	s.metrics.RecordStatementRows(ctx, RowResultDuplicate, report.Duplicates)
	s.metrics.RecordStatementRows(ctx, RowResultInvalid, report.Invalid)
	telemetry.SetAttributes(span, telemetry.SpanAttrRowCount, report.RowsRead, "inserted", report.Inserted)
	s.logger.Info("Statement imported",
		zap.String("file_name", req.FileName),
		zap.Int("rows", report.RowsRead),
		zap.Int("inserted", report.Inserted),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("invalid", report.Invalid))
	return report, nil
}

// BuildMovements converts parsed rows to movements. Identical lines in the
// same file get increasing occurrence numbers so they keep distinct fingerprints.
func BuildMovements(rows []statement.Row, errs *statement.ErrorCollection) []*banking.BankMovement {
	occurrences := make(map[string]int, len(rows))
	movements := make([]*banking.BankMovement, 0, len(rows))
	for _, row := range rows {
		key := banking.Fingerprint(row.Date, row.Code, row.Concept, row.Amount, row.Balance, 0)
		occurrence := occurrences[key]
		m, err := banking.NewBankMovement(row.Date, row.Code, row.Concept, row.Amount, row.Balance, row.LineNo, occurrence)
		if err != nil {
			errs.AddError(row.LineNo, "", statement.ErrCodeInvalidRow, err.Error(), "")
			continue
		}
		occurrences[key] = occurrence + 1
		movements = append(movements, m)
	}
	return movements
}

// fileError turns unreadable-file errors into validation errors
func fileError(err error) error {
	var missing *statement.MissingColumnsError
	switch {
	case errors.As(err, &missing),
		errors.Is(err, statement.ErrEmptyFile),
		errors.Is(err, statement.ErrMissingHeader),
		errors.Is(err, statement.ErrInvalidEncoding),
		errors.Is(err, statement.ErrInvalidFile),
		errors.Is(err, statement.ErrUnsupportedFormat),
		errors.Is(err, statement.ErrUnsupportedEncoding):
		return shared.NewValidationError(shared.CodeInvalidInput, err.Error())
	default:
		return fmt.Errorf("parse statement: %w", err)
	}
}
