package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ajayykmr/sms-dispatch-go/internal/config"
)

func setKafkaEnv(t *testing.T) {
	t.Helper()
	t.Setenv("KAFKA_BROKERS", "broker-a:9092, broker-b:9093")
	t.Setenv("KAFKA_SMS_REQUEST_TOPIC", "sms.request")
	t.Setenv("KAFKA_SMS_STATUS_TOPIC", "sms.status")
	t.Setenv("KAFKA_SMS_DLQ_TOPIC", "sms.dlq")
	t.Setenv("SMS_CONSUMER_GROUP", "sms-consumer")
}

func TestLoadSuccess(t *testing.T) {
	setKafkaEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SMS_GATEWAY", "Infobip")
	t.Setenv("SMS_GATEWAY_SERVER", "api.infobip.com")
	t.Setenv("SMS_GATEWAY_SSL", "true")
	t.Setenv("SMS_GATEWAY_USERNAME", "user")
	t.Setenv("SMS_GATEWAY_PASSWORD", "secret")
	t.Setenv("SMS_GATEWAY_REPORTS", "true")
	t.Setenv("SMS_GATEWAY_REPORT_URL", "https://hooks.example.com/dlr/infobip")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantBrokers := []string{"broker-a:9092", "broker-b:9093"}
	if !reflect.DeepEqual(cfg.Kafka.Brokers, wantBrokers) {
		t.Fatalf("expected brokers %v, got %v", wantBrokers, cfg.Kafka.Brokers)
	}
	if err := cfg.RequireKafka(); err != nil {
		t.Fatalf("unexpected kafka validation error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected app env production, got %s", cfg.App.Env)
	}
	if cfg.App.LogLevel != "warn" {
		t.Fatalf("expected log level warn, got %s", cfg.App.LogLevel)
	}
	if cfg.Gateway.Backend != config.BackendInfobip {
		t.Fatalf("expected infobip backend, got %s", cfg.Gateway.Backend)
	}
	acc := cfg.Gateway.Account
	if acc.Server != "api.infobip.com" || !acc.SSL || acc.Username != "user" || acc.Password != "secret" {
		t.Fatalf("unexpected gateway account: %+v", acc)
	}
	if acc.MaxRecipients != 0 {
		t.Fatalf("expected max recipients left to the provider, got %d", acc.MaxRecipients)
	}
	if cfg.Timeouts.ProviderTimeoutSeconds != 30 {
		t.Fatalf("expected default provider timeout 30, got %d", cfg.Timeouts.ProviderTimeoutSeconds)
	}
	if cfg.Worker.Concurrency != 10 || !cfg.Worker.CommitOnSuccessOnly {
		t.Fatalf("unexpected worker defaults: %+v", cfg.Worker)
	}
}

func TestLoadMockBackendNeedsNoServer(t *testing.T) {
	t.Setenv("SMS_GATEWAY", "mock")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading mock gateway: %v", err)
	}
	if cfg.Gateway.Account.Server == "" {
		t.Fatalf("expected mock gateway to get a placeholder server")
	}
}

func TestLoadMissingGateway(t *testing.T) {
	t.Setenv("SMS_GATEWAY", "")

	_, err := config.Load()
	if err == nil {
		t.Fatalf("expected error when SMS_GATEWAY is missing")
	}
	if !strings.Contains(err.Error(), "SMS_GATEWAY is required") {
		t.Fatalf("expected error message to mention missing gateway, got %q", err.Error())
	}
}

func TestLoadAccumulatesErrors(t *testing.T) {
	t.Setenv("SMS_GATEWAY", "routesms")
	t.Setenv("SMS_GATEWAY_SERVER", "")
	t.Setenv("SMS_GATEWAY_PORT", "eighty")
	t.Setenv("SMS_GATEWAY_REPORTS", "yes please")

	_, err := config.Load()
	if err == nil {
		t.Fatalf("expected validation error")
	}

	msg := err.Error()
	for _, want := range []string{
		"SMS_GATEWAY_SERVER is required",
		"SMS_GATEWAY_PORT must be a valid integer",
		"SMS_GATEWAY_REPORTS must be a valid boolean",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
}

func TestLoadInvalidGateway(t *testing.T) {
	t.Setenv("SMS_GATEWAY", "twilio")

	_, err := config.Load()
	if err == nil {
		t.Fatalf("expected error when gateway invalid")
	}
	if !strings.Contains(err.Error(), "SMS_GATEWAY must be one of") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadGatewayFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	content := `gateway: routesms
name: routesms-ng
default_sender: ACME
account:
  server: smpp.example.com
  port: 8080
  username: fileuser
  password: filepass
  max_recipients: 100
  test_number: "2348030000000"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write gateway file: %v", err)
	}
	t.Setenv("SMS_GATEWAY", "")
	t.Setenv("SMS_GATEWAY_FILE", path)
	t.Setenv("SMS_GATEWAY_USERNAME", "envuser")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gs := cfg.Gateway
	if gs.Backend != config.BackendRouteSMS || gs.Name != "routesms-ng" || gs.DefaultSender != "ACME" {
		t.Fatalf("unexpected gateway settings: %+v", gs)
	}
	if gs.Account.Server != "smpp.example.com" || gs.Account.Port != 8080 {
		t.Fatalf("unexpected account endpoint: %+v", gs.Account)
	}
	if gs.Account.Username != "envuser" {
		t.Fatalf("expected environment to override file username, got %s", gs.Account.Username)
	}
	if gs.Account.Password != "filepass" || gs.Account.MaxRecipients != 100 {
		t.Fatalf("expected file values to be kept: %+v", gs.Account)
	}
}

func TestLoadMissingGatewayFile(t *testing.T) {
	t.Setenv("SMS_GATEWAY", "mock")
	t.Setenv("SMS_GATEWAY_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := config.Load(); err == nil || !strings.Contains(err.Error(), "read gateway file") {
		t.Fatalf("expected gateway file error, got %v", err)
	}
}

func TestRequireKafka(t *testing.T) {
	t.Setenv("SMS_GATEWAY", "mock")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("SMS_CONSUMER_GROUP", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = cfg.RequireKafka()
	if err == nil {
		t.Fatalf("expected kafka validation error")
	}
	if !strings.Contains(err.Error(), "KAFKA_BROKERS is required") || !strings.Contains(err.Error(), "SMS_CONSUMER_GROUP is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}
