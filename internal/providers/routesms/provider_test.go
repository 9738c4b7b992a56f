package routesms_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajayykmr/sms-dispatch-go/internal/gateway"
	"github.com/ajayykmr/sms-dispatch-go/internal/models"
	"github.com/ajayykmr/sms-dispatch-go/internal/providers/routesms"
)

func testConfig() models.GatewayConfig {
	return models.GatewayConfig{
		Server:         "smsplus.routesms.com/",
		Port:           8080,
		Username:       "user",
		Password:       "secret",
		ReportsEnabled: true,
		TestNumber:     "2348055494143",
	}
}

func TestBuildSendRequest(t *testing.T) {
	params, err := routesms.New().BuildRequest(gateway.CommandSend, gateway.CommandPayload{
		Message: models.OutboundMessage{
			Sender:     "My Company Ltd",
			Recipients: []string{"2348055494143", "23405"},
			Message:    "hello world",
			Options:    map[string]string{models.OptionDeliveryReportURL: "https://example.com/dlr/routesms"},
		},
	}, testConfig())
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, params.Method)
	assert.Equal(t, "http://smsplus.routesms.com:8080/bulksms/bulksms", params.URL)
	assert.Nil(t, params.Auth)

	q := params.Query
	assert.Equal(t, "user", q.Get("username"))
	assert.Equal(t, "secret", q.Get("password"))
	assert.Equal(t, "0", q.Get("type"))
	assert.Equal(t, "2348055494143,23405", q.Get("destination"))
	assert.Equal(t, "MyCompanyL", q.Get("source"))
	assert.Equal(t, "hello world", q.Get("message"))
	assert.Equal(t, "1", q.Get("dlr"))

	assert.True(t, strings.HasPrefix(q.Get("dlr-url"), "https://example.com/dlr/routesms?"))
	assert.Contains(t, q.Get("dlr-url"), "recipient=%p")
	assert.Contains(t, q.Get("dlr-url"), "uuid=%7")
}

func TestBuildSendRequestFlashWithoutReports(t *testing.T) {
	cfg := testConfig()
	cfg.ReportsEnabled = false

	params, err := routesms.New().BuildRequest(gateway.CommandSend, gateway.CommandPayload{
		Message: models.OutboundMessage{
			Recipients: []string{"1"},
			Message:    "m",
			Options: map[string]string{
				models.OptionFlash:             "1",
				models.OptionDeliveryReportURL: "https://example.com/dlr",
			},
		},
	}, cfg)
	require.NoError(t, err)
	assert.Equal(t, "1", params.Query.Get("type"))
	assert.Equal(t, "0", params.Query.Get("dlr"))
	assert.Empty(t, params.Query.Get("dlr-url"))
}

func TestBuildTestRequest(t *testing.T) {
	params, err := routesms.New().BuildRequest(gateway.CommandTest, gateway.CommandPayload{
		Message: models.OutboundMessage{Sender: "ACME"},
	}, testConfig())
	require.NoError(t, err)

	assert.Equal(t, "2348055494143", params.Query.Get("destination"))
	assert.Equal(t, "0", params.Query.Get("dlr"))
	assert.Equal(t, "Configuration Successful", params.Query.Get("message"))
	assert.Equal(t, "ACME", params.Query.Get("source"))
}

func TestBuildTestRequestWithoutSender(t *testing.T) {
	_, err := routesms.New().BuildRequest(gateway.CommandTest, gateway.CommandPayload{
		Message: models.OutboundMessage{Sender: "   "},
	}, testConfig())
	assert.ErrorIs(t, err, gateway.ErrInvalidRequest)
}

func TestBuildTestRequestWithoutTestNumber(t *testing.T) {
	cfg := testConfig()
	cfg.TestNumber = ""
	_, err := routesms.New().BuildRequest(gateway.CommandTest, gateway.CommandPayload{}, cfg)
	assert.ErrorIs(t, err, gateway.ErrInvalidRequest)
}

func TestUnsupportedCommands(t *testing.T) {
	p := routesms.New()
	for _, cmd := range []gateway.Command{gateway.CommandCredits, gateway.CommandReport, gateway.Command("invalid")} {
		assert.False(t, p.Supports(cmd), cmd)
		_, err := p.BuildRequest(cmd, gateway.CommandPayload{}, testConfig())
		assert.ErrorIs(t, err, gateway.ErrInvalidCommand, cmd)
	}
}
