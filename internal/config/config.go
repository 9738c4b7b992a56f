package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

// Supported gateway backends.
const (
	BackendInfobip  = "infobip"
	BackendRouteSMS = "routesms"
	BackendMock     = "mock"
)

// Config captures all runtime configuration for the SMS dispatch binaries.
type Config struct {
	App           AppConfig
	Kafka         KafkaConfig
	Topics        TopicPair
	ConsumerGroup string
	Worker        WorkerConfig
	Validation    ValidationConfig
	Gateway       GatewaySettings
	Timeouts      TimeoutConfig
	Webhook       WebhookConfig
}

// AppConfig contains generic application level settings.
type AppConfig struct {
	Env      string
	LogLevel string
}

// KafkaConfig defines broker information.
type KafkaConfig struct {
	Brokers []string
}

// TopicPair groups the request, status and DLQ topics of the SMS channel.
type TopicPair struct {
	Request string
	Status  string
	DLQ     string
}

// WorkerConfig controls the worker engine.
type WorkerConfig struct {
	Concurrency         int
	CommitOnSuccessOnly bool
	// MetricsListen is the address of the worker /metrics endpoint; empty disables it.
	MetricsListen string
}

// ValidationConfig holds the limits used while validating inbound requests.
type ValidationConfig struct {
	MsgMaxBytes      int
	SMSRecipientsMax int
	SMSBodyMax       int
	MetaMaxEntries   int
	MetaMaxKeyLen    int
	MetaMaxValueLen  int
}

// GatewaySettings selects and configures the SMS gateway. It can be loaded
// from the YAML file named by SMS_GATEWAY_FILE.
type GatewaySettings struct {
	Backend       string               `yaml:"gateway"`
	Name          string               `yaml:"name"`
	ReportURL     string               `yaml:"report_url"`
	DefaultSender string               `yaml:"default_sender"`
	MockScenario  string               `yaml:"mock_scenario"`
	Account       models.GatewayConfig `yaml:"account"`
}

// TimeoutConfig contains timeout thresholds for outbound providers.
type TimeoutConfig struct {
	ProviderTimeoutSeconds int
}

// WebhookConfig configures the delivery report receiver.
type WebhookConfig struct {
	Listen    string
	StorePath string
}

// Load reads environment variables, applies defaults, validates required
// values and returns a populated Config instance. Values from the gateway
// file are used as defaults for the SMS_GATEWAY_* variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	ldr := &envLoader{}

	cfg := &Config{}
	cfg.App.Env = ldr.getString("APP_ENV", "development", false)
	cfg.App.LogLevel = ldr.getString("LOG_LEVEL", "info", false)

	cfg.Kafka.Brokers = ldr.getStringSlice("KAFKA_BROKERS", false)
	cfg.Topics = TopicPair{
		Request: ldr.getString("KAFKA_SMS_REQUEST_TOPIC", "", false),
		Status:  ldr.getString("KAFKA_SMS_STATUS_TOPIC", "", false),
		DLQ:     ldr.getString("KAFKA_SMS_DLQ_TOPIC", "", false),
	}
	cfg.ConsumerGroup = ldr.getString("SMS_CONSUMER_GROUP", "", false)

	cfg.Worker.Concurrency = ldr.getInt("WORKER_CONCURRENCY", 10, false)
	cfg.Worker.CommitOnSuccessOnly = ldr.getBool("COMMIT_ON_SUCCESS_ONLY", true, false)
	cfg.Worker.MetricsListen = ldr.getString("METRICS_LISTEN", "", false)

	cfg.Validation.MsgMaxBytes = ldr.getInt("MSG_MAX_BYTES", 200000, false)
	cfg.Validation.SMSRecipientsMax = ldr.getInt("SMS_RECIPIENTS_MAX", 1000, false)
	cfg.Validation.SMSBodyMax = ldr.getInt("SMS_BODY_MAX", 1600, false)
	cfg.Validation.MetaMaxEntries = ldr.getInt("META_MAX_ENTRIES", 20, false)
	cfg.Validation.MetaMaxKeyLen = ldr.getInt("META_MAX_KEY_LEN", 64, false)
	cfg.Validation.MetaMaxValueLen = ldr.getInt("META_MAX_VALUE_LEN", 256, false)

	file := GatewaySettings{}
	if path := ldr.getString("SMS_GATEWAY_FILE", "", false); path != "" {
		loaded, err := LoadGatewayFile(path)
		if err != nil {
			ldr.addError(err.Error())
		} else {
			file = *loaded
		}
	}
	cfg.Gateway = ldr.gatewaySettings(file)

	cfg.Timeouts.ProviderTimeoutSeconds = ldr.getInt("PROVIDER_TIMEOUT_SECONDS", 30, false)

	cfg.Webhook.Listen = ldr.getString("WEBHOOK_LISTEN", ":8080", false)
	cfg.Webhook.StorePath = ldr.getString("REPORT_STORE_PATH", "reports.db", false)

	if cfg.Worker.Concurrency < 1 {
		ldr.addError("WORKER_CONCURRENCY must be >= 1")
	}

	if err := ldr.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadGatewayFile parses a YAML gateway file.
func LoadGatewayFile(path string) (*GatewaySettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gateway file %s: %w", path, err)
	}
	settings := &GatewaySettings{}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse gateway file %s: %w", path, err)
	}
	return settings, nil
}

// RequireKafka checks the settings only the Kafka worker needs.
func (c *Config) RequireKafka() error {
	var errs []string
	if len(c.Kafka.Brokers) == 0 {
		errs = append(errs, "KAFKA_BROKERS is required")
	}
	if c.Topics.Request == "" {
		errs = append(errs, "KAFKA_SMS_REQUEST_TOPIC is required")
	}
	if c.Topics.Status == "" {
		errs = append(errs, "KAFKA_SMS_STATUS_TOPIC is required")
	}
	if c.Topics.DLQ == "" {
		errs = append(errs, "KAFKA_SMS_DLQ_TOPIC is required")
	}
	if c.ConsumerGroup == "" {
		errs = append(errs, "SMS_CONSUMER_GROUP is required")
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.New("config validation failed: " + strings.Join(errs, "; "))
}

func (l *envLoader) gatewaySettings(file GatewaySettings) GatewaySettings {
	gs := GatewaySettings{}
	gs.Backend = strings.ToLower(l.getString("SMS_GATEWAY", file.Backend, true))
	gs.Name = l.getString("SMS_GATEWAY_NAME", file.Name, false)
	gs.ReportURL = l.getString("SMS_GATEWAY_REPORT_URL", file.ReportURL, false)
	gs.DefaultSender = l.getString("SMS_DEFAULT_SENDER", file.DefaultSender, false)
	gs.MockScenario = l.getString("SMS_MOCK_SCENARIO", file.MockScenario, false)

	acc := &gs.Account
	acc.Server = l.getString("SMS_GATEWAY_SERVER", file.Account.Server, false)
	acc.Port = l.getInt("SMS_GATEWAY_PORT", file.Account.Port, false)
	acc.SSL = l.getBool("SMS_GATEWAY_SSL", file.Account.SSL, false)
	acc.Username = l.getString("SMS_GATEWAY_USERNAME", file.Account.Username, false)
	acc.Password = l.getString("SMS_GATEWAY_PASSWORD", file.Account.Password, false)
	acc.ReportsEnabled = l.getBool("SMS_GATEWAY_REPORTS", file.Account.ReportsEnabled, false)
	acc.TestNumber = l.getString("SMS_GATEWAY_TEST_NUMBER", file.Account.TestNumber, false)
	acc.MaxRecipients = l.getInt("SMS_GATEWAY_MAX_RECIPIENTS", file.Account.MaxRecipients, false)
	acc.SkipValidation = l.getBool("SMS_GATEWAY_SKIP_VALIDATION", file.Account.SkipValidation, false)

	switch gs.Backend {
	case "":
	case BackendInfobip, BackendRouteSMS:
		if acc.Server == "" {
			l.addError("SMS_GATEWAY_SERVER is required")
		}
	case BackendMock:
		if acc.Server == "" {
			acc.Server = "mock.invalid"
		}
	default:
		l.addError(fmt.Sprintf("SMS_GATEWAY must be one of %s, %s, %s", BackendInfobip, BackendRouteSMS, BackendMock))
	}
	if acc.MaxRecipients < 0 {
		l.addError("SMS_GATEWAY_MAX_RECIPIENTS cannot be negative")
	}
	if acc.ReportsEnabled && gs.ReportURL == "" {
		l.addError("SMS_GATEWAY_REPORT_URL is required when SMS_GATEWAY_REPORTS is enabled")
	}
	return gs
}

type envLoader struct {
	errs []string
}

func (l *envLoader) validate() error {
	if len(l.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(l.errs, "; "))
}

func (l *envLoader) getString(key, def string, required bool) string {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val != "" {
			return val
		}
	}
	if required && def == "" {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getInt(key string, def int, required bool) int {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				l.addError(fmt.Sprintf("%s must be a valid integer", key))
				return def
			}
			return i
		}
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getBool(key string, def bool, required bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val != "" {
			parsed, err := strconv.ParseBool(val)
			if err != nil {
				l.addError(fmt.Sprintf("%s must be a valid boolean", key))
				return def
			}
			return parsed
		}
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getStringSlice(key string, required bool) []string {
	raw := l.getString(key, "", required)
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if required && len(out) == 0 {
		l.addError(fmt.Sprintf("%s must contain at least one entry", key))
	}
	return out
}

func (l *envLoader) addError(err string) {
	l.errs = append(l.errs, err)
}
