package infobip

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ajayykmr/sms-dispatch-go/internal/gateway"
	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

// Name identifies the Infobip provider.
const Name = "infobip"

const (
	endpointSendAdvanced   = "/sms/1/text/advanced"
	endpointDeliveryReport = "/sms/1/reports"
	endpointCreditBalance  = "/account/1/balance"
)

// Option customises the Infobip provider.
type Option func(*Provider)

// WithIDGenerator overrides the generator used for bulk ids.
func WithIDGenerator(ids gateway.IDGenerator) Option {
	return func(p *Provider) {
		if ids != nil {
			p.ids = ids
		}
	}
}

// Provider talks to the Infobip JSON REST API.
type Provider struct {
	ids gateway.IDGenerator
}

// New constructs the Infobip provider.
func New(opts ...Option) *Provider {
	p := &Provider{ids: gateway.UUIDGenerator{}}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Name implements gateway.Provider.
func (p *Provider) Name() string { return Name }

// MaxRecipients implements gateway.Provider. Infobip takes a whole
// destination list in one request.
func (p *Provider) MaxRecipients() int { return 0 }

// Supports implements gateway.Provider. Infobip implements every command.
func (p *Provider) Supports(cmd gateway.Command) bool {
	switch cmd {
	case gateway.CommandSend, gateway.CommandTest, gateway.CommandCredits, gateway.CommandReport:
		return true
	}
	return false
}

type destination struct {
	To string `json:"to"`
}

type outboundMessage struct {
	From              string        `json:"from,omitempty"`
	Destinations      []destination `json:"destinations"`
	Text              string        `json:"text"`
	Flash             bool          `json:"flash"`
	NotifyURL         string        `json:"notifyUrl,omitempty"`
	NotifyContentType string        `json:"notifyContentType,omitempty"`
}

type sendRequest struct {
	BulkID   string            `json:"bulkId"`
	Messages []outboundMessage `json:"messages"`
}

// BuildRequest implements gateway.Provider.
func (p *Provider) BuildRequest(cmd gateway.Command, payload gateway.CommandPayload, cfg models.GatewayConfig) (*gateway.HTTPParameters, error) {
	params := &gateway.HTTPParameters{
		Method: http.MethodGet,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
		Auth: &gateway.BasicAuth{Username: cfg.Username, Password: cfg.Password},
	}

	switch cmd {
	case gateway.CommandSend:
		body, err := p.sendBody(payload.Message, cfg)
		if err != nil {
			return nil, err
		}
		params.Method = http.MethodPost
		params.URL = gateway.BuildURL(cfg, endpointSendAdvanced)
		params.Body = body
	case gateway.CommandReport:
		params.URL = gateway.BuildURL(cfg, endpointDeliveryReport)
		params.Query = url.Values{}
		if ids := nonEmpty(payload.MessageIDs); len(ids) > 0 {
			params.Query.Set("messageId", strings.Join(ids, ","))
		}
		if payload.BulkID != "" {
			params.Query.Set("bulkId", payload.BulkID)
		}
	case gateway.CommandCredits, gateway.CommandTest:
		params.URL = gateway.BuildURL(cfg, endpointCreditBalance)
	default:
		return nil, gateway.InvalidCommand(Name, cmd)
	}
	return params, nil
}

func (p *Provider) sendBody(msg models.OutboundMessage, cfg models.GatewayConfig) ([]byte, error) {
	if len(msg.Recipients) == 0 {
		return nil, gateway.InvalidRequest("at least one recipient is required")
	}
	out := outboundMessage{
		From:         msg.Sender,
		Destinations: make([]destination, 0, len(msg.Recipients)),
		Text:         msg.Message,
	}
	for _, r := range msg.Recipients {
		out.Destinations = append(out.Destinations, destination{To: r})
	}
	if flash, err := strconv.ParseBool(msg.Option(models.OptionFlash)); err == nil {
		out.Flash = flash
	}
	if notify := msg.Option(models.OptionDeliveryReportURL); cfg.ReportsEnabled && notify != "" {
		out.NotifyURL = notify
		out.NotifyContentType = "application/json"
	}

	body, err := json.Marshal(sendRequest{
		BulkID:   p.ids.NewID(),
		Messages: []outboundMessage{out},
	})
	if err != nil {
		return nil, gateway.InvalidRequest("encode message: %v", err)
	}
	return body, nil
}

// ParseResponse implements gateway.Provider.
func (p *Provider) ParseResponse(cmd gateway.Command, body []byte) (*gateway.CommandResult, error) {
	switch cmd {
	case gateway.CommandSend:
		msg, err := parseMessageResponse(body)
		if err != nil {
			return nil, err
		}
		return &gateway.CommandResult{Status: msg.Status, ErrorMessage: msg.ErrorMessage, Message: msg}, nil
	case gateway.CommandReport:
		reports, err := parseDeliveryReports(body)
		if err != nil {
			return nil, err
		}
		return &gateway.CommandResult{Status: true, Reports: reports}, nil
	case gateway.CommandCredits:
		balance, err := parseCredits(body)
		if err != nil {
			return nil, err
		}
		return &gateway.CommandResult{Status: balance.Status, ErrorMessage: balance.ErrorMessage, Balance: balance}, nil
	case gateway.CommandTest:
		return &gateway.CommandResult{Status: true}, nil
	}
	return nil, gateway.InvalidCommand(Name, cmd)
}

// ParseDeliveryReport implements gateway.Provider. Pushed reports share the
// shape of pulled ones.
func (p *Provider) ParseDeliveryReport(body []byte) ([]models.DeliveryReport, error) {
	return parseDeliveryReports(body)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
