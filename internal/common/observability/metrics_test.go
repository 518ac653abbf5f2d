package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObservability_SpansAndMetrics(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	reg := promclient.NewRegistry()

	obs := New("borrower-client-test", WithRegisterer(reg), WithSpanProcessor(recorder))
	defer obs.Shutdown()

	ctx, span := obs.StartSpan(context.Background(), "GET /businesses/me",
		attribute.String("http.method", "GET"))
	obs.RecordRequest(ctx, "/businesses/me", 200, 15*time.Millisecond)
	obs.RecordStep(ctx, "kyc", "pan")
	EndSpan(span, errors.New("boom"))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "GET /businesses/me", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "api_requests_total")
	assert.Contains(t, names, "flow_steps_total")
}

func TestObservability_NilSafe(t *testing.T) {
	var obs *Observability
	assert.NotPanics(t, func() {
		_, span := obs.StartSpan(context.Background(), "noop")
		obs.RecordRequest(context.Background(), "/x", 500, time.Millisecond)
		obs.RecordStep(context.Background(), "loan", "sign")
		EndSpan(span, nil)
		obs.Shutdown()
	})
}
