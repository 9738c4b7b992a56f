package sms

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	common "github.com/ajayykmr/sms-dispatch-go/internal/adapters/common"
	"github.com/ajayykmr/sms-dispatch-go/internal/gateway"
	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

// Sender is the part of *gateway.Gateway the adapter depends on.
type Sender interface {
	Name() string
	SendDetailed(ctx context.Context, msg models.OutboundMessage) (*gateway.SendOutcome, error)
}

// Option modifies adapter behaviour.
type Option func(*Adapter)

// WithDefaultSender sets the sender used for requests without a from field.
func WithDefaultSender(sender string) Option {
	return func(a *Adapter) {
		a.defaultSender = strings.TrimSpace(sender)
	}
}

// WithReportURL sets the delivery report callback attached to every message
// unless the request carries its own.
func WithReportURL(url string) Option {
	return func(a *Adapter) {
		a.reportURL = strings.TrimSpace(url)
	}
}

// Adapter implements common.Adapter on top of a gateway.
type Adapter struct {
	logger        zerolog.Logger
	sender        Sender
	defaultSender string
	reportURL     string
}

// NewAdapter constructs an SMS adapter using the supplied gateway.
func NewAdapter(sender Sender, logger zerolog.Logger, opts ...Option) (*Adapter, error) {
	if sender == nil {
		return nil, errors.New("sms adapter: gateway dependency is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	a := &Adapter{
		logger: logger,
		sender: sender,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Send converts the validated request into an outbound message and submits it
// once. A request no batch of which was accepted yields a rejected response
// together with a classified error.
func (a *Adapter) Send(ctx context.Context, msg *common.ValidatedMessage) (*common.ProviderResponse, error) {
	if msg == nil || msg.Request == nil {
		return nil, common.WrapPermanent(errors.New("sms adapter: message request is nil"))
	}
	req := msg.Request

	out, err := a.sender.SendDetailed(ctx, a.buildOutbound(req))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		a.logger.Error().
			Str("message_id", req.MessageID).
			Str("gateway", a.sender.Name()).
			Err(err).
			Msg("sms adapter: gateway refused command")
		return nil, common.WrapPermanent(err)
	}

	resp := a.buildResponse(req, out.Result)
	if resp.Accepted() {
		a.logger.Debug().
			Str("message_id", req.MessageID).
			Str("gateway", resp.Gateway).
			Int("reports", len(out.Result.Reports)).
			Msg("sms adapter: message accepted")
		return resp, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return resp, ctxErr
	}

	sendErr := fmt.Errorf("sms adapter: gateway %s rejected message: %s", resp.Gateway, firstLine(resp.Message))
	a.logger.Warn().
		Str("message_id", req.MessageID).
		Str("gateway", resp.Gateway).
		Int("failed_exchanges", len(out.Failures)).
		Bool("temporary", out.Temporary()).
		Msg("sms adapter: send failed")
	if out.Temporary() {
		return resp, common.WrapTransient(sendErr)
	}
	return resp, common.WrapPermanent(sendErr)
}

func (a *Adapter) buildOutbound(req *models.SMSRequest) models.OutboundMessage {
	out := req.Outbound(a.defaultSender)
	if a.reportURL != "" && out.Option(models.OptionDeliveryReportURL) == "" {
		if out.Options == nil {
			out.Options = make(map[string]string, 1)
		}
		out.Options[models.OptionDeliveryReportURL] = a.reportURL
	}
	return out
}

func (a *Adapter) buildResponse(req *models.SMSRequest, result *models.SmsMessageResult) *common.ProviderResponse {
	status := common.StatusRejected
	if result.Status {
		status = common.StatusAccepted
	}

	meta := map[string]string{
		"message_id": req.MessageID,
		"recipients": strconv.Itoa(len(result.Reports)),
	}
	if result.CreditUsed > 0 {
		meta["credit_used"] = strconv.FormatFloat(result.CreditUsed, 'f', -1, 64)
	}
	if strings.TrimSpace(req.TraceID) != "" {
		meta["trace_id"] = req.TraceID
	}
	if strings.TrimSpace(req.TenantID) != "" {
		meta["tenant_id"] = req.TenantID
	}

	return &common.ProviderResponse{
		Gateway: a.sender.Name(),
		Status:  status,
		Message: result.ErrorMessage,
		Result:  result,
		Meta:    meta,
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	if s == "" {
		return gateway.UnknownGatewayError
	}
	return s
}
