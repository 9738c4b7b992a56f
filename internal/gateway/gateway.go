package gateway

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

// Option customises a Gateway.
type Option func(*Gateway)

// WithName sets the instance name attached to delivery reports. It defaults
// to the provider name.
func WithName(name string) Option {
	return func(g *Gateway) {
		if name = strings.TrimSpace(name); name != "" {
			g.name = name
		}
	}
}

// WithTransport overrides the HTTP transport.
func WithTransport(t Transport) Option {
	return func(g *Gateway) {
		if t != nil {
			g.transport = t
		}
	}
}

// WithObserver installs an instrumentation observer.
func WithObserver(o Observer) Option {
	return func(g *Gateway) {
		if o != nil {
			g.observer = o
		}
	}
}

// WithDefaultSender sets the sender used by the test command.
func WithDefaultSender(sender string) Option {
	return func(g *Gateway) {
		g.defaultSender = strings.TrimSpace(sender)
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// Gateway is the provider-agnostic entry point: it batches sends, runs
// commands through an Executor and normalizes pushed delivery reports.
type Gateway struct {
	name          string
	provider      Provider
	config        models.GatewayConfig
	defaultSender string
	transport     Transport
	observer      Observer
	logger        zerolog.Logger
	executor      *Executor
}

// New constructs a Gateway for provider configured with cfg.
func New(provider Provider, cfg models.GatewayConfig, opts ...Option) (*Gateway, error) {
	if provider == nil {
		return nil, errors.New("gateway: provider is required")
	}
	if strings.TrimSpace(cfg.Server) == "" {
		return nil, errors.New("gateway: server is required")
	}
	if cfg.MaxRecipients < 0 {
		return nil, errors.New("gateway: max recipients must not be negative")
	}

	g := &Gateway{
		name:     provider.Name(),
		provider: provider,
		config:   cfg,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	if g.config.MaxRecipients == 0 {
		g.config.MaxRecipients = provider.MaxRecipients()
	}
	if g.transport == nil {
		g.transport = NewHTTPTransport()
	}
	if reflect.ValueOf(g.logger).IsZero() {
		g.logger = zerolog.Nop()
	}
	g.logger = g.logger.With().Str("gateway", g.name).Logger()
	g.executor = NewExecutor(provider, g.transport, g.observer, g.logger)
	return g, nil
}

// Name returns the instance name.
func (g *Gateway) Name() string { return g.name }

// Provider returns the provider name.
func (g *Gateway) Provider() string { return g.provider.Name() }

// Config returns a copy of the gateway configuration.
func (g *Gateway) Config() models.GatewayConfig { return g.config }

// MaxRecipients returns the batch size used by Send. Zero sends every
// recipient in one request.
func (g *Gateway) MaxRecipients() int { return g.config.MaxRecipients }

// Supports reports whether the provider implements cmd.
func (g *Gateway) Supports(cmd Command) bool { return g.provider.Supports(cmd) }

// Execute runs an arbitrary command through the executor.
func (g *Gateway) Execute(ctx context.Context, req CommandRequest) (*CommandResult, error) {
	return g.executor.Execute(ctx, req, g.config)
}

// Test checks the configuration, or override when non-nil, against the
// provider.
func (g *Gateway) Test(ctx context.Context, override *models.GatewayConfig) (models.TestResult, error) {
	res, err := g.executor.Execute(ctx, CommandRequest{
		Command: CommandTest,
		Payload: CommandPayload{Message: models.OutboundMessage{Sender: g.defaultSender}},
		Config:  override,
	}, g.config)
	if err != nil {
		return models.TestResult{}, err
	}
	return models.TestResult{Status: res.Status, ErrorMessage: res.ErrorMessage}, nil
}

// Credits queries the provider balance.
func (g *Gateway) Credits(ctx context.Context) (*models.CreditBalance, error) {
	res, err := g.executor.Execute(ctx, CommandRequest{Command: CommandCredits}, g.config)
	if err != nil {
		return nil, err
	}
	if res.Balance != nil {
		return res.Balance, nil
	}
	return &models.CreditBalance{
		Status:       res.Status,
		Balance:      CreditsNotAvailable,
		ErrorMessage: res.ErrorMessage,
	}, nil
}

// Balance returns the formatted balance, or BalanceNotAvailable when the
// provider has no balance endpoint or the query failed.
func (g *Gateway) Balance(ctx context.Context) string {
	if !g.provider.Supports(CommandCredits) {
		return BalanceNotAvailable
	}
	balance, err := g.Credits(ctx)
	if err != nil || !balance.Status || balance.Balance == "" {
		return BalanceNotAvailable
	}
	return balance.Balance
}

// ReportQuery filters pulled delivery reports.
type ReportQuery struct {
	MessageIDs []string
	BulkID     string
}

// PullDeliveryReports fetches reports from the provider. A failed exchange is
// returned as a *Error; unsupported providers yield ErrInvalidCommand.
func (g *Gateway) PullDeliveryReports(ctx context.Context, query ReportQuery) ([]models.DeliveryReport, error) {
	res, err := g.executor.Execute(ctx, CommandRequest{
		Command: CommandReport,
		Payload: CommandPayload{MessageIDs: query.MessageIDs, BulkID: query.BulkID},
	}, g.config)
	if err != nil {
		return nil, err
	}
	if res.Err != nil {
		return nil, res.Err
	}
	return g.tagReports(res.Reports), nil
}

// ParsePushedDeliveryReport normalizes a report body posted by the provider.
func (g *Gateway) ParsePushedDeliveryReport(body []byte) ([]models.DeliveryReport, error) {
	reports, err := g.provider.ParseDeliveryReport(body)
	if err != nil {
		return nil, &Error{Kind: ErrMalformedResponse, Provider: g.provider.Name(), Command: CommandReport, Err: err}
	}
	return g.tagReports(reports), nil
}

func (g *Gateway) tagReports(reports []models.DeliveryReport) []models.DeliveryReport {
	if reports == nil {
		return []models.DeliveryReport{}
	}
	for i := range reports {
		if reports[i].Gateway == "" {
			reports[i].Gateway = g.name
		}
		g.observer.ObserveReport(g.provider.Name(), reports[i].Status)
	}
	return reports
}
