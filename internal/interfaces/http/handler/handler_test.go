package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	bankingapp "github.com/sistemita/backend/internal/application/banking"
	invoicingapp "github.com/sistemita/backend/internal/application/invoicing"
	"github.com/sistemita/backend/internal/infrastructure/persistence"
	"github.com/sistemita/backend/internal/infrastructure/persistence/models"
	"github.com/sistemita/backend/internal/interfaces/http/dto"
	"github.com/sistemita/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// envelope mirrors dto.Response with the data kept raw
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.LedgerModels()...))
	return db
}

// newTestServer wires the handlers over SQLite the same way the server does
func newTestServer(t *testing.T, reconcileEnabled bool) *testServer {
	t.Helper()
	db := setupTestDB(t)

	invoiceHandler := NewInvoiceHandler(invoicingapp.NewInvoiceService(persistence.NewGormInvoiceRepository(db), nil))
	imputationHandler := NewImputationHandler(invoicingapp.NewImputationService(persistence.NewInvoicingTransactionScope(db), nil))
	bankingScope := persistence.NewBankingTransactionScope(db)
	bankingHandler := NewBankingHandler(
		bankingapp.NewStatementImportService(bankingScope, bankingapp.StatementImportConfig{}, nil),
		bankingapp.NewReconciliationService(bankingScope, nil, bankingapp.ReconciliationConfig{}, nil),
		reconcileEnabled,
	)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api/v1")
	api.POST("/invoices", invoiceHandler.Create)
	api.GET("/invoices", invoiceHandler.List)
	api.GET("/invoices/outstanding", invoiceHandler.ListOutstanding)
	api.GET("/invoices/:id", invoiceHandler.GetByID)
	api.POST("/imputations", imputationHandler.Create)
	api.GET("/imputations/:id", imputationHandler.GetByID)
	api.PUT("/imputations/:id", imputationHandler.Update)
	api.DELETE("/imputations/:id", imputationHandler.Reverse)
	api.POST("/bank/statements", bankingHandler.ImportStatement)
	api.GET("/bank/movements/unreconciled", bankingHandler.ListUnreconciled)
	api.POST("/bank/reconciliations", bankingHandler.Reconcile)

	return &testServer{engine: engine, db: db}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.serve(t, req)
}

func (s *testServer) upload(t *testing.T, fileName, content string, fields map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bank/statements", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}
