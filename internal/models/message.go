package models

// Recognised OutboundMessage options.
const (
	OptionDeliveryReportURL = "delivery_report_url"
	OptionFlash             = "flash"
)

// OutboundMessage is a single message destined for one or more recipients.
type OutboundMessage struct {
	Sender     string            `json:"sender"`
	Recipients []string          `json:"recipients"`
	Message    string            `json:"message"`
	Options    map[string]string `json:"options,omitempty"`
}

// Option returns the named option or the empty string.
func (m OutboundMessage) Option(key string) string {
	if m.Options == nil {
		return ""
	}
	return m.Options[key]
}

// GatewayConfig holds the connection settings of one provider account.
type GatewayConfig struct {
	Server         string `json:"server" yaml:"server"`
	Port           int    `json:"port,omitempty" yaml:"port"`
	SSL            bool   `json:"ssl" yaml:"ssl"`
	Username       string `json:"username" yaml:"username"`
	Password       string `json:"-" yaml:"password"`
	ReportsEnabled bool   `json:"reports_enabled" yaml:"reports"`
	MaxRecipients  int    `json:"max_recipients,omitempty" yaml:"max_recipients"`
	SkipValidation bool   `json:"skip_validation,omitempty" yaml:"skip_validation"`
	TestNumber     string `json:"test_number,omitempty" yaml:"test_number"`
}
