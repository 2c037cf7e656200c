package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestStartServiceSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	ctx, span := StartServiceSpan(context.Background(), "imputation", "create",
		SpanAttrInvoiceCount, 2,
		SpanAttrAmount, decimal.NewFromInt(150),
	)
	assert.NotEmpty(t, GetTraceID(ctx))
	RecordError(span, errors.New("boom"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "imputation.create", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "2", attrs[SpanAttrInvoiceCount])
	assert.Equal(t, "150", attrs[SpanAttrAmount])
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestLedgerMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewLedgerMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordImputation(ctx, "create", decimal.NewFromInt(150), nil)
	m.RecordImputation(ctx, "reverse", decimal.NewFromInt(-150), nil)
	m.RecordReconciliation(ctx, OutcomeReconciled, "VAT")
	m.RecordReconciliation(ctx, OutcomeUnmatched, "")
	m.RecordSweep(ctx, 2*time.Second)
	m.RecordStatementRows(ctx, "inserted", 3)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := map[string]bool{}
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		names[metric.Name] = true
	}
	assert.True(t, names["sistemita.imputations"])
	assert.True(t, names["sistemita.reconciliations"])
	assert.True(t, names["sistemita.statement.rows"])
	assert.True(t, names["sistemita.reconciliation.duration"])
}

func TestLedgerMetrics_NilIsNoop(t *testing.T) {
	var m *LedgerMetrics
	assert.NotPanics(t, func() {
		m.RecordImputation(context.Background(), "create", decimal.Zero, nil)
		m.RecordReconciliation(context.Background(), OutcomeFailed, "")
		m.RecordSweep(context.Background(), time.Second)
		m.RecordStatementRows(context.Background(), "inserted", 1)
	})
}
