package infobip

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ajayykmr/sms-dispatch-go/internal/gateway"
	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

type apiStatus struct {
	ID          int    `json:"id"`
	GroupID     int    `json:"groupId"`
	GroupName   string `json:"groupName"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type apiError struct {
	ID          int    `json:"id"`
	GroupID     int    `json:"groupId"`
	GroupName   string `json:"groupName"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Permanent   bool   `json:"permanent"`
}

type apiMessage struct {
	To        string     `json:"to"`
	MessageID string     `json:"messageId"`
	SMSCount  int        `json:"smsCount"`
	Status    *apiStatus `json:"status"`
	Error     *apiError  `json:"error"`
}

type messageResponse struct {
	BulkID   string       `json:"bulkId"`
	Messages []apiMessage `json:"messages"`
}

type apiReport struct {
	BulkID    string     `json:"bulkId"`
	MessageID string     `json:"messageId"`
	To        string     `json:"to"`
	SentAt    string     `json:"sentAt"`
	DoneAt    string     `json:"doneAt"`
	SMSCount  int        `json:"smsCount"`
	Status    *apiStatus `json:"status"`
	Error     *apiError  `json:"error"`
}

type reportResponse struct {
	Results []apiReport `json:"results"`
}

// parseMessageResponse normalizes the answer to a send request. The batch is
// accepted when the provider returned at least one message entry.
func parseMessageResponse(body []byte) (*models.SmsMessageResult, error) {
	result := models.NewSmsMessageResult()
	if len(bytes.TrimSpace(body)) == 0 {
		result.ErrorMessage = gateway.UnknownGatewayError
		return result, nil
	}

	var resp messageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, gateway.Malformed(err)
	}
	if len(resp.Messages) == 0 {
		result.ErrorMessage = gateway.UnknownGatewayError
		return result, nil
	}

	result.Status = true
	result.ErrorMessage = gateway.MessageSubmitted
	for _, m := range resp.Messages {
		report := newReport(m.Status, m.Error)
		report.Recipient = m.To
		report.MessageID = m.MessageID
		report.BulkID = resp.BulkID
		result.Reports[m.To] = report
		result.CreditUsed += float64(m.SMSCount)
	}
	return result, nil
}

// parseDeliveryReports normalizes pulled or pushed delivery reports. An empty
// body yields no reports.
func parseDeliveryReports(body []byte) ([]models.DeliveryReport, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return []models.DeliveryReport{}, nil
	}
	var resp reportResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, gateway.Malformed(err)
	}

	reports := make([]models.DeliveryReport, 0, len(resp.Results))
	for _, r := range resp.Results {
		report := newReport(r.Status, r.Error)
		report.Recipient = r.To
		report.MessageID = r.MessageID
		report.BulkID = r.BulkID
		report.TimeQueued = models.ReportTime{Text: r.SentAt}
		report.TimeDelivered = models.ReportTime{Text: r.DoneAt}
		reports = append(reports, report)
	}
	return reports, nil
}

// parseCredits formats the account balance as "<currency> <balance>", or the
// bare amount when no currency is reported.
func parseCredits(body []byte) (*models.CreditBalance, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return &models.CreditBalance{
			Balance:      gateway.CreditsNotAvailable,
			ErrorMessage: gateway.UnknownGatewayError,
		}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var original map[string]any
	if err := dec.Decode(&original); err != nil {
		return nil, gateway.Malformed(err)
	}

	balance := &models.CreditBalance{Status: true, Balance: gateway.CreditsNotAvailable, Original: original}
	if amount, ok := original["balance"]; ok && amount != nil {
		balance.Balance = fmt.Sprint(amount)
		if currency, ok := original["currency"].(string); ok && strings.TrimSpace(currency) != "" {
			balance.Balance = strings.TrimSpace(currency) + " " + balance.Balance
		}
	}
	return balance, nil
}

func newReport(status *apiStatus, apiErr *apiError) models.DeliveryReport {
	report := models.DeliveryReport{
		Status:    models.DeliveryStatusUnknown,
		ErrorCode: models.ErrorCodeOK,
	}
	if status != nil {
		report.Status = canonicalStatus(status.ID, status.GroupID)
		report.GatewayStatus = status.Name
		report.GatewayStatusCode = strconv.Itoa(status.ID)
		report.GatewayStatusDescription = status.Description
	}
	if apiErr == nil {
		return report
	}

	report.GatewayErrorCode = strconv.Itoa(apiErr.ID)
	report.GatewayErrorMessage = apiErr.Description
	if apiErr.ID == 0 {
		return report
	}

	resolved := canonicalError(apiErr.ID, apiErr.GroupID, apiErr.Permanent)
	report.ErrorCode = resolved.code
	report.PermanentError = resolved.permanent
	report.ErrorMessage = apiErr.Description
	if report.ErrorMessage == "" {
		report.ErrorMessage = resolved.description
	}
	return report
}
