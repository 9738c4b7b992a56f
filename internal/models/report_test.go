package models_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

func TestMergeReportsLaterBatchWins(t *testing.T) {
	res := models.NewSmsMessageResult()

	first := map[string]models.DeliveryReport{
		"111": {Recipient: "111", Status: models.DeliveryStatusQueued, ErrorCode: models.ErrorCodeOK},
		"222": {Recipient: "222", Status: models.DeliveryStatusQueued, ErrorCode: models.ErrorCodeOK},
	}
	require.Empty(t, res.MergeReports(first))

	second := map[string]models.DeliveryReport{
		"222": {Recipient: "222", Status: models.DeliveryStatusRejected, ErrorCode: models.ErrorCodeDestNumber},
		"333": {Recipient: "333", Status: models.DeliveryStatusQueued, ErrorCode: models.ErrorCodeOK},
	}
	replaced := res.MergeReports(second)

	assert.Equal(t, []string{"222"}, replaced)
	assert.Len(t, res.Reports, 3)
	assert.Equal(t, models.DeliveryStatusRejected, res.Reports["222"].Status)

	recipients := res.Recipients()
	sort.Strings(recipients)
	assert.Equal(t, []string{"111", "222", "333"}, recipients)
}

func TestMergeReportsIdenticalIsNotReplacement(t *testing.T) {
	res := &models.SmsMessageResult{}
	report := map[string]models.DeliveryReport{"111": {Recipient: "111", Status: models.DeliveryStatusQueued}}

	res.MergeReports(report)
	assert.Empty(t, res.MergeReports(report))
	assert.Len(t, res.Reports, 1)
}

func TestDeliveryStatusValidAndFinal(t *testing.T) {
	assert.True(t, models.DeliveryStatusPending.Valid())
	assert.False(t, models.DeliveryStatus("bounced").Valid())
	assert.True(t, models.DeliveryStatusExpired.Final())
	assert.False(t, models.DeliveryStatusSent.Final())
	assert.True(t, models.ReportTime{}.IsZero())
	assert.False(t, models.ReportTime{Epoch: 1}.IsZero())
}
