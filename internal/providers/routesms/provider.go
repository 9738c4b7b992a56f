package routesms

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ajayykmr/sms-dispatch-go/internal/gateway"
	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

// Name identifies the RouteSMS provider.
const Name = "routesms"

const (
	endpointBulkSMS = "/bulksms/bulksms"
	maxRecipients   = 400
	testMessage     = "Configuration Successful"
	// dlrURLParams is appended to the delivery report URL. RouteSMS
	// substitutes the placeholders when it calls back.
	dlrURLParams = "sender=%P&recipient=%p&time_delivered=%t&message_id=%I&status=%d&uuid=%7&reason=%2"
)

// Option customises the provider.
type Option func(*Provider)

// WithLogger sets the logger used for pushed report entries that are skipped.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// Provider talks to the RouteSMS query-string API. It supports send and
// test only; RouteSMS has no balance or report pull endpoint.
type Provider struct {
	logger zerolog.Logger
}

// New constructs the RouteSMS provider.
func New(opts ...Option) *Provider {
	p := &Provider{logger: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Name implements gateway.Provider.
func (p *Provider) Name() string { return Name }

// Supports implements gateway.Provider.
func (p *Provider) Supports(cmd gateway.Command) bool {
	return cmd == gateway.CommandSend || cmd == gateway.CommandTest
}

// MaxRecipients implements gateway.Provider.
func (p *Provider) MaxRecipients() int { return maxRecipients }

// BuildRequest implements gateway.Provider.
func (p *Provider) BuildRequest(cmd gateway.Command, payload gateway.CommandPayload, cfg models.GatewayConfig) (*gateway.HTTPParameters, error) {
	query := url.Values{}
	query.Set("username", cfg.Username)
	query.Set("password", cfg.Password)

	msg := payload.Message
	switch cmd {
	case gateway.CommandSend:
		if len(msg.Recipients) == 0 {
			return nil, gateway.InvalidRequest("at least one recipient is required")
		}
		query.Set("type", messageType(msg))
		query.Set("destination", strings.Join(msg.Recipients, ","))
		query.Set("source", gateway.CleanSender(msg.Sender))
		query.Set("message", msg.Message)
		if reportURL := msg.Option(models.OptionDeliveryReportURL); cfg.ReportsEnabled && reportURL != "" {
			query.Set("dlr", "1")
			query.Set("dlr-url", withDLRParams(reportURL))
		} else {
			query.Set("dlr", "0")
		}
	case gateway.CommandTest:
		if strings.TrimSpace(cfg.TestNumber) == "" {
			return nil, gateway.InvalidRequest("test number is not configured")
		}
		source := gateway.CleanSender(msg.Sender)
		if source == "" {
			return nil, gateway.InvalidRequest("test sender is not configured")
		}
		query.Set("type", "0")
		query.Set("dlr", "0")
		query.Set("destination", strings.TrimSpace(cfg.TestNumber))
		query.Set("source", source)
		query.Set("message", testMessage)
	default:
		return nil, gateway.InvalidCommand(Name, cmd)
	}

	return &gateway.HTTPParameters{
		Method: http.MethodGet,
		URL:    gateway.BuildURL(cfg, endpointBulkSMS),
		Query:  query,
	}, nil
}

// ParseResponse implements gateway.Provider. The test command is answered
// with a regular send response.
func (p *Provider) ParseResponse(cmd gateway.Command, body []byte) (*gateway.CommandResult, error) {
	switch cmd {
	case gateway.CommandSend, gateway.CommandTest:
		msg, err := parseMessageResponse(body)
		if err != nil {
			return nil, err
		}
		return &gateway.CommandResult{Status: msg.Status, ErrorMessage: msg.ErrorMessage, Message: msg}, nil
	}
	return nil, gateway.InvalidCommand(Name, cmd)
}

// ParseDeliveryReport implements gateway.Provider.
func (p *Provider) ParseDeliveryReport(body []byte) ([]models.DeliveryReport, error) {
	return parseDeliveryReport(body, p.logger)
}

func messageType(msg models.OutboundMessage) string {
	if flash, err := strconv.ParseBool(msg.Option(models.OptionFlash)); err == nil && flash {
		return "1"
	}
	return "0"
}

func withDLRParams(reportURL string) string {
	sep := "?"
	if strings.Contains(reportURL, "?") {
		sep = "&"
	}
	return reportURL + sep + dlrURLParams
}
