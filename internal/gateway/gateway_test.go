package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajayykmr/sms-dispatch-go/internal/gateway"
	"github.com/ajayykmr/sms-dispatch-go/internal/models"
	"github.com/ajayykmr/sms-dispatch-go/internal/providers/infobip"
	"github.com/ajayykmr/sms-dispatch-go/internal/providers/mock"
	"github.com/ajayykmr/sms-dispatch-go/internal/providers/routesms"
)

// echoProvider sends the batch as JSON and expects a JSON SmsMessageResult
// back, which lets tests script arbitrary batch outcomes.
type echoProvider struct {
	supported map[gateway.Command]bool
}

func newEchoProvider(cmds ...gateway.Command) *echoProvider {
	p := &echoProvider{supported: map[gateway.Command]bool{}}
	for _, c := range cmds {
		p.supported[c] = true
	}
	return p
}

func (p *echoProvider) Name() string { return "echo" }

func (p *echoProvider) Supports(cmd gateway.Command) bool { return p.supported[cmd] }

func (p *echoProvider) MaxRecipients() int { return 0 }

func (p *echoProvider) BuildRequest(cmd gateway.Command, payload gateway.CommandPayload, cfg models.GatewayConfig) (*gateway.HTTPParameters, error) {
	if !p.supported[cmd] {
		return nil, gateway.InvalidCommand(p.Name(), cmd)
	}
	body, _ := json.Marshal(payload.Message.Recipients)
	return &gateway.HTTPParameters{Method: "POST", URL: gateway.BuildURL(cfg, "/"+string(cmd)), Body: body}, nil
}

func (p *echoProvider) ParseResponse(cmd gateway.Command, body []byte) (*gateway.CommandResult, error) {
	var res models.SmsMessageResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, gateway.Malformed(err)
	}
	return &gateway.CommandResult{Status: res.Status, ErrorMessage: res.ErrorMessage, Message: &res}, nil
}

func (p *echoProvider) ParseDeliveryReport(body []byte) ([]models.DeliveryReport, error) {
	var reports []models.DeliveryReport
	if err := json.Unmarshal(body, &reports); err != nil {
		return nil, gateway.Malformed(err)
	}
	return reports, nil
}

func batchBody(t *testing.T, res models.SmsMessageResult) string {
	t.Helper()
	data, err := json.Marshal(res)
	require.NoError(t, err)
	return string(data)
}

func newGateway(t *testing.T, p gateway.Provider, transport gateway.Transport, cfg models.GatewayConfig, opts ...gateway.Option) *gateway.Gateway {
	t.Helper()
	if cfg.Server == "" {
		cfg.Server = "sms.example.com"
	}
	opts = append(opts, gateway.WithTransport(transport))
	gw, err := gateway.New(p, cfg, opts...)
	require.NoError(t, err)
	return gw
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := gateway.New(nil, models.GatewayConfig{Server: "x"})
	assert.Error(t, err)

	_, err = gateway.New(infobip.New(), models.GatewayConfig{})
	assert.Error(t, err)

	_, err = gateway.New(infobip.New(), models.GatewayConfig{Server: "x", MaxRecipients: -1})
	assert.Error(t, err)
}

func TestSendWithoutRecipientsMakesNoCalls(t *testing.T) {
	transport := mock.NewTransport(zeroLogger())
	gw := newGateway(t, infobip.New(), transport, models.GatewayConfig{})

	res, err := gw.Send(context.Background(), models.OutboundMessage{Message: "hi"})
	require.NoError(t, err)
	assert.False(t, res.Status)
	assert.Empty(t, res.ErrorMessage)
	assert.Zero(t, res.CreditUsed)
	assert.Empty(t, res.Reports)
	assert.Empty(t, transport.Calls())
}

func TestSendSplitsRecipientsIntoBatches(t *testing.T) {
	transport := mock.NewTransport(zeroLogger())
	gw := newGateway(t, infobip.New(), transport, models.GatewayConfig{MaxRecipients: 2}, gateway.WithName("infobip-main"))

	res, err := gw.Send(context.Background(), models.OutboundMessage{
		Sender:     "ACME",
		Recipients: []string{"1", "2", "3", "4", "5"},
		Message:    "hello",
	})
	require.NoError(t, err)

	calls := transport.Calls()
	require.Len(t, calls, 3)
	wantBatches := [][]string{{"1", "2"}, {"3", "4"}, {"5"}}
	for i, call := range calls {
		var body struct {
			Messages []struct {
				Destinations []struct {
					To string `json:"to"`
				} `json:"destinations"`
			} `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(call.Body, &body))
		var got []string
		for _, d := range body.Messages[0].Destinations {
			got = append(got, d.To)
		}
		assert.Equal(t, wantBatches[i], got)
	}

	assert.True(t, res.Status)
	assert.Len(t, res.Reports, 5)
	assert.Equal(t, float64(5), res.CreditUsed)
	assert.Equal(t, "infobip-main", res.Reports["3"].Gateway)
	assert.Equal(t, strings.Repeat(gateway.MessageSubmitted+"\n", 2)+gateway.MessageSubmitted, res.ErrorMessage)
}

func TestSendAggregatesPartialFailure(t *testing.T) {
	transport := mock.NewTransport(zeroLogger(), mock.WithScript(
		mock.Step{Scenario: mock.ScenarioSuccess},
		mock.Step{Scenario: mock.ScenarioTransportError},
	))
	gw := newGateway(t, infobip.New(), transport, models.GatewayConfig{MaxRecipients: 2})

	res, err := gw.Send(context.Background(), models.OutboundMessage{Recipients: []string{"1", "2", "3", "4"}, Message: "x"})
	require.NoError(t, err)

	assert.True(t, res.Status)
	assert.Len(t, res.Reports, 2)
	assert.Contains(t, res.Reports, "1")
	assert.NotContains(t, res.Reports, "3")

	lines := strings.Split(res.ErrorMessage, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, gateway.MessageSubmitted, lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "An error occurred during the HTTP request: ("), lines[1])
	assert.Contains(t, lines[1], "connection refused")
}

func TestSendAllBatchesFail(t *testing.T) {
	transport := mock.NewTransport(zeroLogger(), mock.WithScript(
		mock.Step{Scenario: mock.ScenarioHTTPError, Status: 401},
		mock.Step{Scenario: mock.ScenarioMalformed},
	))
	gw := newGateway(t, infobip.New(), transport, models.GatewayConfig{MaxRecipients: 1})

	res, err := gw.Send(context.Background(), models.OutboundMessage{Recipients: []string{"1", "2"}, Message: "x"})
	require.NoError(t, err)
	assert.False(t, res.Status)
	assert.Equal(t, "An error occurred during the HTTP request: (401) Unauthorized\n"+gateway.UnknownGatewayError, res.ErrorMessage)
	assert.Empty(t, res.Reports)
}

func TestSendSumsCreditsAndKeepsLastBalance(t *testing.T) {
	transport := mock.NewTransport(zeroLogger(), mock.WithScript(
		mock.Step{Status: 200, Body: batchBody(t, models.SmsMessageResult{Status: true, CreditUsed: 2, CreditBalance: 10})},
		mock.Step{Status: 200, Body: batchBody(t, models.SmsMessageResult{Status: true, CreditUsed: 3, CreditBalance: 7})},
	))
	gw := newGateway(t, newEchoProvider(gateway.CommandSend), transport, models.GatewayConfig{MaxRecipients: 1})

	res, err := gw.Send(context.Background(), models.OutboundMessage{Recipients: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, float64(5), res.CreditUsed)
	assert.Equal(t, float64(7), res.CreditBalance)
}

func TestSendLaterBatchReplacesReport(t *testing.T) {
	first := models.SmsMessageResult{Status: true, Reports: map[string]models.DeliveryReport{
		"dup": {Recipient: "dup", MessageID: "m1", Status: models.DeliveryStatusSent, ErrorCode: models.ErrorCodeOK},
	}}
	second := models.SmsMessageResult{Status: true, Reports: map[string]models.DeliveryReport{
		"dup": {Recipient: "dup", MessageID: "m2", Status: models.DeliveryStatusRejected, ErrorCode: models.ErrorCodeDestNumber},
	}}
	transport := mock.NewTransport(zeroLogger(), mock.WithScript(
		mock.Step{Status: 200, Body: batchBody(t, first)},
		mock.Step{Status: 200, Body: batchBody(t, second)},
	))
	gw := newGateway(t, newEchoProvider(gateway.CommandSend), transport, models.GatewayConfig{MaxRecipients: 1})

	res, err := gw.Send(context.Background(), models.OutboundMessage{Recipients: []string{"dup", "dup"}})
	require.NoError(t, err)
	require.Len(t, res.Reports, 1)
	assert.Equal(t, "m2", res.Reports["dup"].MessageID)
	assert.Equal(t, models.DeliveryStatusRejected, res.Reports["dup"].Status)
}

func TestSendUnsupportedCommand(t *testing.T) {
	transport := mock.NewTransport(zeroLogger())
	gw := newGateway(t, newEchoProvider(), transport, models.GatewayConfig{})

	_, err := gw.Send(context.Background(), models.OutboundMessage{Recipients: []string{"1"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, gateway.ErrInvalidCommand))
	assert.Empty(t, transport.Calls())

	_, err = gw.Execute(context.Background(), gateway.CommandRequest{Command: gateway.Command("invalid")})
	assert.ErrorIs(t, err, gateway.ErrInvalidCommand)
}

func TestTestCommand(t *testing.T) {
	transport := mock.NewTransport(zeroLogger(), mock.WithScript(
		mock.Step{Scenario: mock.ScenarioSuccess},
		mock.Step{Scenario: mock.ScenarioHTTPError, Status: 401},
	))
	gw := newGateway(t, infobip.New(), transport, models.GatewayConfig{Username: "u", Password: "p"})

	ok, err := gw.Test(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, ok.Status)
	assert.Empty(t, ok.ErrorMessage)

	override := models.GatewayConfig{Server: "other.example.com", SSL: true}
	failed, err := gw.Test(context.Background(), &override)
	require.NoError(t, err)
	assert.False(t, failed.Status)
	assert.Equal(t, "An error occurred during the HTTP request: (401) Unauthorized", failed.ErrorMessage)

	calls := transport.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "http://sms.example.com/account/1/balance", calls[0].URL)
	assert.Equal(t, "https://other.example.com/account/1/balance", calls[1].URL)
}

func TestRouteSMSTestReportsProviderRejection(t *testing.T) {
	transport := mock.NewTransport(zeroLogger(), mock.WithScript(mock.Step{Status: 200, Body: "1703"}))
	gw := newGateway(t, routesms.New(), transport, models.GatewayConfig{TestNumber: "2348055494143"},
		gateway.WithDefaultSender("ACME Alerts"))

	res, err := gw.Test(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, res.Status)
	assert.Equal(t, "Invalid value in username or password field", res.ErrorMessage)

	calls := transport.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "ACMEAlerts", calls[0].Query.Get("source"))
	assert.Equal(t, "2348055494143", calls[0].Query.Get("destination"))
}

func TestRouteSMSTestWithoutSenderSkipsExchange(t *testing.T) {
	transport := mock.NewTransport(zeroLogger())
	gw := newGateway(t, routesms.New(), transport, models.GatewayConfig{TestNumber: "2348055494143"})

	res, err := gw.Test(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, res.Status)
	assert.Contains(t, res.ErrorMessage, "test sender is not configured")
	assert.Empty(t, transport.Calls())
}

func TestSendUsesProviderBatchLimit(t *testing.T) {
	recipients := make([]string, 401)
	for i := range recipients {
		recipients[i] = fmt.Sprintf("234803%07d", i)
	}

	routeTransport := mock.NewTransport(zeroLogger(), mock.WithScript(
		mock.Step{Status: 200, Body: "1701|2348030000000|id-1"},
		mock.Step{Status: 200, Body: "1701|2348030000400|id-2"},
	))
	route := newGateway(t, routesms.New(), routeTransport, models.GatewayConfig{})
	assert.Equal(t, 400, route.MaxRecipients())
	_, err := route.Send(context.Background(), models.OutboundMessage{Sender: "ACME", Recipients: recipients, Message: "hi"})
	require.NoError(t, err)
	require.Len(t, routeTransport.Calls(), 2)
	assert.Len(t, strings.Split(routeTransport.Calls()[0].Query.Get("destination"), ","), 400)

	infoTransport := mock.NewTransport(zeroLogger())
	info := newGateway(t, infobip.New(), infoTransport, models.GatewayConfig{})
	assert.Zero(t, info.MaxRecipients())
	_, err = info.Send(context.Background(), models.OutboundMessage{Sender: "ACME", Recipients: recipients, Message: "hi"})
	require.NoError(t, err)
	assert.Len(t, infoTransport.Calls(), 1)
}

func TestBalance(t *testing.T) {
	ctx := context.Background()

	ok := newGateway(t, infobip.New(), mock.NewTransport(zeroLogger()), models.GatewayConfig{})
	assert.Equal(t, "EUR 100", ok.Balance(ctx))

	failing := newGateway(t, infobip.New(), mock.NewTransport(zeroLogger(), mock.WithScenario(mock.ScenarioTransportError)), models.GatewayConfig{})
	assert.Equal(t, gateway.BalanceNotAvailable, failing.Balance(ctx))

	balance, err := failing.Credits(ctx)
	require.NoError(t, err)
	assert.False(t, balance.Status)
	assert.Equal(t, gateway.CreditsNotAvailable, balance.Balance)

	transport := mock.NewTransport(zeroLogger())
	unsupported := newGateway(t, routesms.New(), transport, models.GatewayConfig{})
	assert.Equal(t, gateway.BalanceNotAvailable, unsupported.Balance(ctx))
	assert.Empty(t, transport.Calls())

	_, err = unsupported.Credits(ctx)
	assert.ErrorIs(t, err, gateway.ErrInvalidCommand)
}

func TestPullDeliveryReports(t *testing.T) {
	body := `{"results":[{"bulkId":"b","messageId":"m","to":"41793026731","sentAt":"2015-02-12T09:51:43.123+0100","doneAt":"2015-02-12T09:51:43.127+0100","status":{"groupId":3,"id":5,"name":"DELIVERED_TO_HANDSET"}}]}`
	transport := mock.NewTransport(zeroLogger(), mock.WithScript(
		mock.Step{Status: 200, Body: body},
		mock.Step{Scenario: mock.ScenarioHTTPError, Status: 500},
	))
	gw := newGateway(t, infobip.New(), transport, models.GatewayConfig{})

	reports, err := gw.PullDeliveryReports(context.Background(), gateway.ReportQuery{MessageIDs: []string{"m"}, BulkID: "b"})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, models.DeliveryStatusDelivered, reports[0].Status)
	assert.Equal(t, "infobip", reports[0].Gateway)
	assert.Equal(t, "m", transport.Calls()[0].Query.Get("messageId"))

	_, err = gw.PullDeliveryReports(context.Background(), gateway.ReportQuery{})
	assert.ErrorIs(t, err, gateway.ErrHTTPStatus)

	rs := newGateway(t, routesms.New(), mock.NewTransport(zeroLogger()), models.GatewayConfig{})
	_, err = rs.PullDeliveryReports(context.Background(), gateway.ReportQuery{})
	assert.ErrorIs(t, err, gateway.ErrInvalidCommand)
}

func TestParsePushedDeliveryReport(t *testing.T) {
	gw := newGateway(t, routesms.New(), mock.NewTransport(zeroLogger()), models.GatewayConfig{}, gateway.WithName("routesms-ng"))

	reports, err := gw.ParsePushedDeliveryReport([]byte(`{"sMobileNo":"1","sMessageId":"x","sStatus":"DELIVRD"}`))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "routesms-ng", reports[0].Gateway)

	_, err = gw.ParsePushedDeliveryReport([]byte(`{"sMobileNo":`))
	assert.ErrorIs(t, err, gateway.ErrMalformedResponse)
}

type recordingObserver struct {
	mu        sync.Mutex
	exchanges []string
	batches   []int
	reports   []models.DeliveryStatus
}

func (o *recordingObserver) ObserveExchange(provider string, cmd gateway.Command, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.exchanges = append(o.exchanges, provider+"/"+string(cmd)+"/"+outcome)
}

func (o *recordingObserver) ObserveBatch(_ string, recipients int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.batches = append(o.batches, recipients)
}

func (o *recordingObserver) ObserveReport(_ string, status models.DeliveryStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reports = append(o.reports, status)
}

func TestObserverReceivesOutcomes(t *testing.T) {
	obs := &recordingObserver{}
	transport := mock.NewTransport(zeroLogger(), mock.WithScript(
		mock.Step{Scenario: mock.ScenarioSuccess},
		mock.Step{Scenario: mock.ScenarioTransportError},
		mock.Step{Status: 200, Body: `{"messages":[]}`},
	))
	gw := newGateway(t, infobip.New(), transport, models.GatewayConfig{MaxRecipients: 1}, gateway.WithObserver(obs))

	_, err := gw.Send(context.Background(), models.OutboundMessage{Recipients: []string{"1", "2", "3"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"infobip/send/ok", "infobip/send/transport_error", "infobip/send/rejected"}, obs.exchanges)
	assert.Equal(t, []int{1, 1, 1}, obs.batches)
}

func TestSendHonoursCancelledContext(t *testing.T) {
	transport := mock.NewTransport(zeroLogger())
	gw := newGateway(t, infobip.New(), transport, models.GatewayConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := gw.Send(ctx, models.OutboundMessage{Recipients: []string{"1"}})
	require.NoError(t, err)
	assert.False(t, res.Status)
	assert.Contains(t, res.ErrorMessage, "context canceled")
}

func TestSendDetailedClassifiesFailures(t *testing.T) {
	cases := []struct {
		name      string
		steps     []mock.Step
		failures  int
		temporary bool
	}{
		{
			name:      "all transport",
			steps:     []mock.Step{{Scenario: mock.ScenarioTransportError}, {Scenario: mock.ScenarioHTTPError, Status: 502}},
			failures:  2,
			temporary: true,
		},
		{
			name:     "auth failure",
			steps:    []mock.Step{{Scenario: mock.ScenarioTransportError}, {Scenario: mock.ScenarioHTTPError, Status: 401}},
			failures: 2,
		},
		{
			name:     "partial success",
			steps:    []mock.Step{{Scenario: mock.ScenarioSuccess}, {Scenario: mock.ScenarioTransportError}},
			failures: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			transport := mock.NewTransport(zeroLogger(), mock.WithScript(tc.steps...))
			gw := newGateway(t, infobip.New(), transport, models.GatewayConfig{MaxRecipients: 1})

			out, err := gw.SendDetailed(context.Background(), models.OutboundMessage{Recipients: []string{"1", "2"}, Message: "x"})
			require.NoError(t, err)
			assert.Len(t, out.Failures, tc.failures)
			assert.Equal(t, tc.temporary, out.Temporary())
		})
	}
}
