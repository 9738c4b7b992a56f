package routesms

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ajayykmr/sms-dispatch-go/internal/gateway"
	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

const dlrTimeLayout = "2006-01-02 15:04:05"

// parseMessageResponse normalizes a bulksms answer. The body is a comma
// separated list of "<code>|<recipient>[|<message id>]" entries. A body made
// of a single code without a recipient segment is an error-only response.
func parseMessageResponse(body []byte) (*models.SmsMessageResult, error) {
	result := models.NewSmsMessageResult()
	raw := strings.TrimSpace(string(body))
	if raw == "" {
		result.ErrorMessage = gateway.UnknownGatewayError
		return result, nil
	}

	entries := strings.Split(raw, ",")
	if len(entries) == 1 && !strings.Contains(entries[0], "|") {
		code := strings.TrimSpace(entries[0])
		if rc, ok := lookupCode(code); ok {
			result.ErrorMessage = rc.description
			return result, nil
		}
		if code == codeSubmitted {
			result.Status = true
			result.ErrorMessage = gateway.MessageSubmitted
			return result, nil
		}
		return nil, gateway.Malformed(fmt.Errorf("unexpected response %q", truncate(code)))
	}

	result.Status = true
	result.ErrorMessage = gateway.MessageSubmitted
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		report, err := parseEntry(entry)
		if err != nil {
			return nil, err
		}
		result.Reports[report.Recipient] = report
	}
	return result, nil
}

func parseEntry(entry string) (models.DeliveryReport, error) {
	parts := strings.Split(entry, "|")
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		return models.DeliveryReport{}, gateway.Malformed(fmt.Errorf("entry %q has no recipient", truncate(entry)))
	}
	code := strings.TrimSpace(parts[0])
	report := models.DeliveryReport{
		Recipient:        strings.TrimSpace(parts[1]),
		GatewayErrorCode: code,
	}
	if len(parts) > 2 {
		report.MessageID = strings.TrimSpace(parts[2])
	}

	if code == codeSubmitted {
		report.Status = models.DeliveryStatusSent
		report.ErrorCode = models.ErrorCodeOK
		report.GatewayErrorCode = ""
		return report, nil
	}
	if rc, ok := lookupCode(code); ok {
		report.Status = models.DeliveryStatusRejected
		report.ErrorCode = rc.code
		report.ErrorMessage = rc.description
		report.GatewayErrorMessage = rc.description
		return report, nil
	}
	report.Status = models.DeliveryStatusUnknown
	report.ErrorCode = models.ErrorCodeUnknown
	report.ErrorMessage = fmt.Sprintf("Unknown response code %s", code)
	return report, nil
}

// pushedReport lists the fields RouteSMS posts to the delivery report URL,
// together with the names used by the dlr-url placeholders.
type pushedReport struct {
	MobileNo      string `json:"sMobileNo"`
	MessageID     string `json:"sMessageId"`
	Submitted     string `json:"dtSubmit"`
	Done          string `json:"dtDone"`
	Status        string `json:"sStatus"`
	Recipient     string `json:"recipient"`
	UUID          string `json:"uuid"`
	PlainID       string `json:"message_id"`
	PlainStatus   string `json:"status"`
	TimeDelivered string `json:"time_delivered"`
	Reason        string `json:"reason"`
}

// parseDeliveryReport accepts a JSON object, a JSON array of objects or a
// URL-encoded form body. Invalid entries of an array are skipped as long as
// at least one entry is usable.
func parseDeliveryReport(body []byte, logger zerolog.Logger) ([]models.DeliveryReport, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []models.DeliveryReport{}, nil
	}

	var pushed []pushedReport
	switch trimmed[0] {
	case '{':
		var one pushedReport
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, gateway.Malformed(err)
		}
		pushed = append(pushed, one)
	case '[':
		if err := json.Unmarshal(trimmed, &pushed); err != nil {
			return nil, gateway.Malformed(err)
		}
	default:
		form, err := url.ParseQuery(string(trimmed))
		if err != nil {
			return nil, gateway.Malformed(err)
		}
		pushed = append(pushed, pushedReport{
			MobileNo:      form.Get("sMobileNo"),
			MessageID:     form.Get("sMessageId"),
			Submitted:     form.Get("dtSubmit"),
			Done:          form.Get("dtDone"),
			Status:        form.Get("sStatus"),
			Recipient:     form.Get("recipient"),
			UUID:          form.Get("uuid"),
			PlainID:       form.Get("message_id"),
			PlainStatus:   form.Get("status"),
			TimeDelivered: form.Get("time_delivered"),
			Reason:        form.Get("reason"),
		})
	}

	reports := make([]models.DeliveryReport, 0, len(pushed))
	var firstErr error
	for i, p := range pushed {
		report, err := p.normalize()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			logger.Warn().Err(err).Int("entry", i).Str("message_id", p.MessageID).Msg("skipping invalid delivery report entry")
			continue
		}
		reports = append(reports, report)
	}
	if len(reports) == 0 && firstErr != nil {
		return nil, gateway.Malformed(firstErr)
	}
	return reports, nil
}

func (p pushedReport) normalize() (models.DeliveryReport, error) {
	recipient := firstNonEmpty(p.MobileNo, p.Recipient)
	if recipient == "" {
		return models.DeliveryReport{}, errors.New("delivery report has no recipient")
	}

	queued, err := epochSeconds(p.Submitted)
	if err != nil {
		return models.DeliveryReport{}, err
	}
	delivered, err := epochSeconds(firstNonEmpty(p.Done, p.TimeDelivered))
	if err != nil {
		return models.DeliveryReport{}, err
	}

	report := models.DeliveryReport{
		Recipient:     recipient,
		MessageID:     firstNonEmpty(p.MessageID, p.UUID, p.PlainID),
		TimeQueued:    models.ReportTime{Epoch: queued},
		TimeDelivered: models.ReportTime{Epoch: delivered},
		ErrorCode:     models.ErrorCodeOK,
	}
	if p.Status != "" {
		report.Status = dlrStatus(strings.ToUpper(p.Status))
		report.GatewayStatus = p.Status
	} else {
		report.Status = callbackStatus(p.PlainStatus)
		report.GatewayStatus = p.PlainStatus
		report.GatewayStatusDescription = p.Reason
	}
	if report.Status == models.DeliveryStatusRejected || report.Status == models.DeliveryStatusNotDelivered {
		report.ErrorCode = models.ErrorCodeOther
		report.ErrorMessage = firstNonEmpty(p.Reason, report.GatewayStatus)
	}
	return report, nil
}

// callbackStatus maps the numeric %d placeholder of the dlr-url.
func callbackStatus(code string) models.DeliveryStatus {
	switch strings.TrimSpace(code) {
	case "1":
		return models.DeliveryStatusDelivered
	case "2":
		return models.DeliveryStatusNotDelivered
	case "4":
		return models.DeliveryStatusQueued
	case "8":
		return models.DeliveryStatusSent
	case "16":
		return models.DeliveryStatusRejected
	}
	return dlrStatus(strings.ToUpper(strings.TrimSpace(code)))
}

func epochSeconds(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	t, err := time.ParseInLocation(dlrTimeLayout, value, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("parse time %q: %w", value, err)
	}
	return t.Unix(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string) string {
	const limit = 64
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
