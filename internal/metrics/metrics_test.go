package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajayykmr/sms-dispatch-go/internal/gateway"
	"github.com/ajayykmr/sms-dispatch-go/internal/metrics"
	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

func TestCollectorCountsGatewayActivity(t *testing.T) {
	c := metrics.New()

	c.ObserveExchange("infobip", gateway.CommandSend, gateway.OutcomeOK, 120*time.Millisecond)
	c.ObserveExchange("infobip", gateway.CommandSend, "http_error", 80*time.Millisecond)
	c.ObserveExchange("infobip", gateway.CommandSend, gateway.OutcomeOK, 90*time.Millisecond)
	c.ObserveBatch("infobip", 400)
	c.ObserveBatch("infobip", 25)
	c.ObserveReport("routesms", models.DeliveryStatusDelivered)

	expected := `
# HELP sms_gateway_exchanges_total Provider HTTP exchanges by command and outcome.
# TYPE sms_gateway_exchanges_total counter
sms_gateway_exchanges_total{command="send",outcome="http_error",provider="infobip"} 1
sms_gateway_exchanges_total{command="send",outcome="ok",provider="infobip"} 2
# HELP sms_gateway_batches_total Send batches submitted to a provider.
# TYPE sms_gateway_batches_total counter
sms_gateway_batches_total{provider="infobip"} 2
# HELP sms_gateway_recipients_total Recipients submitted to a provider.
# TYPE sms_gateway_recipients_total counter
sms_gateway_recipients_total{provider="infobip"} 425
# HELP sms_gateway_delivery_reports_total Normalized delivery reports by canonical status.
# TYPE sms_gateway_delivery_reports_total counter
sms_gateway_delivery_reports_total{provider="routesms",status="delivered"} 1
`
	err := testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected),
		"sms_gateway_exchanges_total",
		"sms_gateway_batches_total",
		"sms_gateway_recipients_total",
		"sms_gateway_delivery_reports_total",
	)
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(c.Registry(), "sms_gateway_exchange_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCollectorHandlerServesRegistry(t *testing.T) {
	c := metrics.New()
	c.ObserveBatch("routesms", 3)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `sms_gateway_recipients_total{provider="routesms"} 3`)
	assert.Contains(t, string(body), "go_goroutines")
}
