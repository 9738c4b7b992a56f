package gateway

import "github.com/ajayykmr/sms-dispatch-go/internal/models"

// Command names an operation a provider may implement.
type Command string

const (
	CommandSend    Command = "send"
	CommandTest    Command = "test"
	CommandCredits Command = "credits"
	CommandReport  Command = "report"
)

// Result messages shared by providers.
const (
	UnknownGatewayError = "Unknown gateway error"
	MessageSubmitted    = "Message submitted successfully"
	BalanceNotAvailable = "Not currently available"
	CreditsNotAvailable = "Not available"
)

// CommandPayload carries the inputs of a command. Only the fields relevant
// to the command are read.
type CommandPayload struct {
	// Message is the batch to submit for CommandSend and the test message
	// template for CommandTest.
	Message models.OutboundMessage
	// MessageIDs and BulkID filter CommandReport.
	MessageIDs []string
	BulkID     string
}

// CommandRequest is one command addressed to the executor.
type CommandRequest struct {
	Command Command
	Payload CommandPayload
	// Config overrides the gateway configuration for this request only.
	Config *models.GatewayConfig
}

// CommandResult is the normalized outcome of a command. Status reports
// overall acceptance; Err is set when the exchange itself failed and is nil
// for provider-level rejections.
type CommandResult struct {
	Status       bool
	ErrorMessage string
	Err          *Error

	Message *models.SmsMessageResult
	Reports []models.DeliveryReport
	Balance *models.CreditBalance
}

// Failed builds the result of an exchange that did not produce a parsable
// provider answer.
func Failed(err *Error) *CommandResult {
	return &CommandResult{Status: false, ErrorMessage: err.Message(), Err: err}
}
