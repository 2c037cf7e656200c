package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Side    string          `json:"side" binding:"required,oneof=CLIENT PROVIDER"`
	Number  string          `json:"number" binding:"required,max=5"`
	Amount  decimal.Decimal `json:"amount" binding:"decimal_gte0"`
	Invoice []string        `json:"invoice_ids" binding:"required,min=1"`
}

func bindSample(t *testing.T, body string) error {
	t.Helper()
	SetupValidator()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var req sampleRequest
	return c.ShouldBindJSON(&req)
}

func TestValidationDetails(t *testing.T) {
	err := bindSample(t, `{"side":"OTHER","number":"123456","amount":"-1","invoice_ids":[]}`)
	require.Error(t, err)

	details := ValidationDetails(err)
	byField := map[string]string{}
	for _, d := range details {
		byField[d.Field] = d.Message
	}
	assert.Equal(t, "Must be one of: CLIENT PROVIDER", byField["side"])
	assert.Equal(t, "Must be at most 5 characters", byField["number"])
	assert.Equal(t, "Must be a non-negative amount", byField["amount"])
	assert.Equal(t, "Must have at least 1 items", byField["invoice_ids"])
}

func TestValidationDetails_Valid(t *testing.T) {
	err := bindSample(t, `{"side":"CLIENT","number":"1","amount":"10.50","invoice_ids":["a"]}`)
	assert.NoError(t, err)
}

func TestValidationDetails_NotValidation(t *testing.T) {
	assert.Nil(t, ValidationDetails(errors.New("unexpected EOF")))
}
