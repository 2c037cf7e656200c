package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	invoicingapp "github.com/sistemita/backend/internal/application/invoicing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invoiceBody(owner uuid.UUID, invoiceType, number, date, net string) map[string]any {
	return map[string]any{
		"side":     "CLIENT",
		"owner_id": owner,
		"type":     invoiceType,
		"number":   number,
		"date":     date,
		"currency": "ARS",
		"net":      net,
		"tax_rate": "0",
	}
}

func (s *testServer) createInvoice(t *testing.T, body map[string]any) invoicingapp.InvoiceResponse {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/v1/invoices", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[invoicingapp.InvoiceResponse](t, env)
}

func TestInvoiceHandler_Create(t *testing.T) {
	s := newTestServer(t, true)
	owner := uuid.New()

	t.Run("computes the total with IVA", func(t *testing.T) {
		body := invoiceBody(owner, "A", "0001-00000001", "2024-03-01T00:00:00Z", "100")
		body["tax_rate"] = "21"

		inv := s.createInvoice(t, body)
		assert.Equal(t, "121", inv.Total.String())
		assert.Equal(t, "CLIENT", inv.Side)
		assert.False(t, inv.Paid)
		assert.False(t, inv.CreditNote)
	})

	t.Run("duplicate number for the same owner", func(t *testing.T) {
		w, env := s.do(t, http.MethodPost, "/api/v1/invoices",
			invoiceBody(owner, "A", "0001-00000001", "2024-03-02T00:00:00Z", "5"))
		assert.Equal(t, http.StatusConflict, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "ALREADY_EXISTS", env.Error.Code)
	})

	t.Run("missing fields fail validation with details", func(t *testing.T) {
		w, env := s.do(t, http.MethodPost, "/api/v1/invoices", map[string]any{"side": "CLIENT"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		assert.NotEmpty(t, env.Error.Details)
		assert.NotEmpty(t, env.Error.RequestID)
	})

	t.Run("negative net", func(t *testing.T) {
		w, env := s.do(t, http.MethodPost, "/api/v1/invoices",
			invoiceBody(owner, "A", "0001-00000009", "2024-03-02T00:00:00Z", "-1"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		require.Len(t, env.Error.Details, 1)
		assert.Equal(t, "net", env.Error.Details[0].Field)
	})

	t.Run("unknown currency", func(t *testing.T) {
		body := invoiceBody(owner, "A", "0001-00000010", "2024-03-02T00:00:00Z", "1")
		body["currency"] = "XXX"

		w, env := s.do(t, http.MethodPost, "/api/v1/invoices", body)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_CURRENCY", env.Error.Code)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		w, env := s.do(t, http.MethodPost, "/api/v1/invoices", "not-an-object")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_JSON", env.Error.Code)
	})
}

func TestInvoiceHandler_GetByID(t *testing.T) {
	s := newTestServer(t, true)
	inv := s.createInvoice(t, invoiceBody(uuid.New(), "B", "0002-00000001", "2024-03-01T00:00:00Z", "80"))

	w, env := s.do(t, http.MethodGet, "/api/v1/invoices/"+inv.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, inv.ID, decodeData[invoicingapp.InvoiceResponse](t, env).ID)

	w, env = s.do(t, http.MethodGet, "/api/v1/invoices/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, env = s.do(t, http.MethodGet, "/api/v1/invoices/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
}

func TestInvoiceHandler_ListOutstanding(t *testing.T) {
	s := newTestServer(t, true)
	owner := uuid.New()
	later := s.createInvoice(t, invoiceBody(owner, "A", "0001-00000002", "2024-03-05T00:00:00Z", "80"))
	earlier := s.createInvoice(t, invoiceBody(owner, "A", "0001-00000001", "2024-03-01T00:00:00Z", "100"))
	s.createInvoice(t, invoiceBody(owner, "NCA", "0001-00000001", "2024-03-06T00:00:00Z", "150"))
	s.createInvoice(t, invoiceBody(uuid.New(), "A", "0001-00000003", "2024-03-01T00:00:00Z", "10"))

	w, env := s.do(t, http.MethodGet, "/api/v1/invoices/outstanding?side=CLIENT&owner_id="+owner.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	items := decodeData[[]invoicingapp.InvoiceResponse](t, env)
	require.Len(t, items, 2, "credit notes and other owners are left out")
	assert.Equal(t, earlier.ID, items[0].ID)
	assert.Equal(t, later.ID, items[1].ID)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(2), env.Meta.Total)

	w, env = s.do(t, http.MethodGet, "/api/v1/invoices/outstanding?side=CLIENT", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestInvoiceHandler_List(t *testing.T) {
	s := newTestServer(t, true)
	owner := uuid.New()
	for _, number := range []string{"0001-00000001", "0001-00000002", "0001-00000003"} {
		s.createInvoice(t, invoiceBody(owner, "A", number, "2024-03-01T00:00:00Z", "10"))
	}
	s.createInvoice(t, invoiceBody(owner, "A", "0001-00000004", "2024-03-01T00:00:00Z", "0"))

	w, env := s.do(t, http.MethodGet, "/api/v1/invoices?owner_id="+owner.String()+"&paid=false&page=1&page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decodeData[[]invoicingapp.InvoiceResponse](t, env), 2)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(3), env.Meta.Total)
	assert.Equal(t, 2, env.Meta.TotalPages)

	w, _ = s.do(t, http.MethodGet, "/api/v1/invoices?page_size=500", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
