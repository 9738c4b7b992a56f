package routesms

import "github.com/ajayykmr/sms-dispatch-go/internal/models"

const codeSubmitted = "1701"

type responseCode struct {
	description string
	code        models.ErrorCode
}

// responseCodes lists the RouteSMS error codes. 1701 (submitted) is the
// only success code.
var responseCodes = map[string]responseCode{
	"1702": {description: "Invalid URL Error, This means that one of the parameters was not provided or left blank", code: models.ErrorCodeInvalidCall},
	"1703": {description: "Invalid value in username or password field", code: models.ErrorCodeAuth},
	"1704": {description: `Invalid value in "type" field`, code: models.ErrorCodeOther},
	"1705": {description: "Invalid Message", code: models.ErrorCodeMsgOther},
	"1706": {description: "Invalid Destination", code: models.ErrorCodeDestNumber},
	"1707": {description: "Invalid Source (Sender)", code: models.ErrorCodeSrcNumber},
	"1708": {description: `Invalid value for "dlr" field`, code: models.ErrorCodeOther},
	"1709": {description: "User validation failed", code: models.ErrorCodeAuth},
	"1710": {description: "Internal Error", code: models.ErrorCodeUnknown},
	"1025": {description: "Insufficient Credit", code: models.ErrorCodeCredit},
}

// dlrStatuses maps the sStatus values of pushed delivery reports.
var dlrStatuses = map[string]models.DeliveryStatus{
	"DELIVRD":  models.DeliveryStatusDelivered,
	"UNDELIV":  models.DeliveryStatusNotDelivered,
	"REJECTD":  models.DeliveryStatusRejected,
	"EXPIRED":  models.DeliveryStatusExpired,
	"DELETED":  models.DeliveryStatusExpired,
	"UNKNOWN":  models.DeliveryStatusQueued,
	"ACKED":    models.DeliveryStatusQueued,
	"ENROUTE":  models.DeliveryStatusQueued,
	"ACCEPTED": models.DeliveryStatusQueued,
}

func lookupCode(code string) (responseCode, bool) {
	rc, ok := responseCodes[code]
	return rc, ok
}

func dlrStatus(status string) models.DeliveryStatus {
	if s, ok := dlrStatuses[status]; ok {
		return s
	}
	return models.DeliveryStatusUnknown
}
