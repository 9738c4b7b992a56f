package gateway

import (
	"context"
	"strings"

	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

// SendOutcome is the aggregated result of Send together with the exchange
// failures of the batches that produced no parsable response.
type SendOutcome struct {
	Result   *models.SmsMessageResult
	Failures []*Error
}

// Temporary reports whether every batch failed at the transport layer or with
// a 5xx status, in which case resubmitting the message may succeed.
func (o *SendOutcome) Temporary() bool {
	if o == nil || o.Result == nil || o.Result.Status || len(o.Failures) == 0 {
		return false
	}
	for _, f := range o.Failures {
		if !f.Temporary() {
			return false
		}
	}
	return true
}

// Send submits msg to the provider, splitting the recipients into batches of
// at most MaxRecipients, or in a single request when the limit is zero. Batch outcomes are aggregated: Status is true if any
// batch was accepted, error messages are joined by newlines, credits used are
// summed, the credit balance is taken from the last batch and reports are
// merged by recipient with later batches replacing earlier entries. Send
// never returns an error except ErrInvalidCommand.
func (g *Gateway) Send(ctx context.Context, msg models.OutboundMessage) (*models.SmsMessageResult, error) {
	out, err := g.SendDetailed(ctx, msg)
	if err != nil {
		return nil, err
	}
	return out.Result, nil
}

// SendDetailed behaves like Send and additionally returns the per-batch
// exchange failures.
func (g *Gateway) SendDetailed(ctx context.Context, msg models.OutboundMessage) (*SendOutcome, error) {
	result := models.NewSmsMessageResult()
	out := &SendOutcome{Result: result}
	if len(msg.Recipients) == 0 {
		return out, nil
	}
	if !g.provider.Supports(CommandSend) {
		return nil, InvalidCommand(g.provider.Name(), CommandSend)
	}

	var messages strings.Builder
	for i, batch := range Batches(msg.Recipients, g.config.MaxRecipients) {
		batchMsg := msg
		batchMsg.Recipients = batch
		g.observer.ObserveBatch(g.provider.Name(), len(batch))

		res, err := g.executor.Execute(ctx, CommandRequest{
			Command: CommandSend,
			Payload: CommandPayload{Message: batchMsg},
		}, g.config)
		if err != nil {
			return nil, err
		}
		if res.Err != nil {
			out.Failures = append(out.Failures, res.Err)
		}

		batchResult := res.Message
		if batchResult == nil {
			batchResult = &models.SmsMessageResult{Status: res.Status, ErrorMessage: res.ErrorMessage}
		}

		result.Status = result.Status || batchResult.Status
		messages.WriteString("\n")
		messages.WriteString(batchResult.ErrorMessage)
		result.CreditUsed += batchResult.CreditUsed
		result.CreditBalance = batchResult.CreditBalance

		for _, recipient := range result.MergeReports(g.tagReportMap(batchResult.Reports)) {
			g.logger.Warn().
				Int("batch", i).
				Str("recipient", recipient).
				Msg("delivery report replaced by a later batch")
		}
	}
	result.ErrorMessage = strings.TrimSpace(messages.String())
	return out, nil
}

func (g *Gateway) tagReportMap(reports map[string]models.DeliveryReport) map[string]models.DeliveryReport {
	for recipient, report := range reports {
		if report.Gateway == "" {
			report.Gateway = g.name
			reports[recipient] = report
		}
	}
	return reports
}
