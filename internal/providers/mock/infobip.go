package mock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/ajayykmr/sms-dispatch-go/internal/gateway"
)

var messageSeq atomic.Int64

// InfobipResponder answers like the Infobip API and accepts every
// destination of a send request.
func InfobipResponder(params *gateway.HTTPParameters) (int, []byte) {
	switch {
	case strings.HasSuffix(params.URL, "/sms/1/text/advanced"):
		return http.StatusOK, acceptAll(params.Body)
	case strings.HasSuffix(params.URL, "/account/1/balance"):
		return http.StatusOK, []byte(`{"balance":100,"currency":"EUR"}`)
	case strings.HasSuffix(params.URL, "/sms/1/reports"):
		return http.StatusOK, []byte(`{"results":[]}`)
	}
	return http.StatusNotFound, nil
}

type sendRequest struct {
	BulkID   string `json:"bulkId"`
	Messages []struct {
		Destinations []struct {
			To string `json:"to"`
		} `json:"destinations"`
	} `json:"messages"`
}

type acceptedMessage struct {
	To        string         `json:"to"`
	MessageID string         `json:"messageId"`
	SMSCount  int            `json:"smsCount"`
	Status    map[string]any `json:"status"`
}

func acceptAll(body []byte) []byte {
	var req sendRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return []byte(`{"messages":[]}`)
	}
	out := struct {
		BulkID   string            `json:"bulkId"`
		Messages []acceptedMessage `json:"messages"`
	}{BulkID: req.BulkID}
	for _, m := range req.Messages {
		for _, d := range m.Destinations {
			out.Messages = append(out.Messages, acceptedMessage{
				To:        d.To,
				MessageID: fmt.Sprintf("mock-%d", messageSeq.Add(1)),
				SMSCount:  1,
				Status: map[string]any{
					"groupId":     0,
					"groupName":   "ACCEPTED",
					"id":          0,
					"name":        "MESSAGE_ACCEPTED",
					"description": "Message accepted",
				},
			})
		}
	}
	data, _ := json.Marshal(out)
	return data
}
