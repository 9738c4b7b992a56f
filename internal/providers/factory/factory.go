package factory

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ajayykmr/sms-dispatch-go/internal/config"
	"github.com/ajayykmr/sms-dispatch-go/internal/gateway"
	"github.com/ajayykmr/sms-dispatch-go/internal/providers/infobip"
	"github.com/ajayykmr/sms-dispatch-go/internal/providers/mock"
	"github.com/ajayykmr/sms-dispatch-go/internal/providers/routesms"
)

// Options carries the collaborators shared by every backend.
type Options struct {
	Timeout  time.Duration
	Observer gateway.Observer
	IDs      gateway.IDGenerator
	Logger   zerolog.Logger
}

// Gateway constructs the configured SMS gateway. Supports the infobip,
// routesms and mock backends; mock speaks the Infobip protocol against an
// in-process transport.
func Gateway(settings config.GatewaySettings, opts Options) (*gateway.Gateway, error) {
	logger := opts.Logger
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	backend := normalize(settings.Backend, config.BackendMock)

	var (
		provider  gateway.Provider
		transport gateway.Transport
	)
	switch backend {
	case config.BackendInfobip:
		provider = newInfobip(opts)
		transport = gateway.NewHTTPTransport(gateway.WithTimeout(opts.Timeout))
	case config.BackendRouteSMS:
		provider = routesms.New(routesms.WithLogger(logger.With().Str("component", "routesms").Logger()))
		transport = gateway.NewHTTPTransport(gateway.WithTimeout(opts.Timeout))
	case config.BackendMock:
		scenario, err := mock.ParseScenario(settings.MockScenario)
		if err != nil {
			return nil, fmt.Errorf("factory: mock gateway: %w", err)
		}
		provider = newInfobip(opts)
		transport = mock.NewTransport(logger.With().Str("component", "mock-transport").Logger(), mock.WithScenario(scenario))
	default:
		return nil, fmt.Errorf("factory: unsupported sms gateway backend %q", settings.Backend)
	}

	gwOpts := []gateway.Option{
		gateway.WithName(settings.Name),
		gateway.WithDefaultSender(settings.DefaultSender),
		gateway.WithTransport(transport),
		gateway.WithLogger(logger),
	}
	if opts.Observer != nil {
		gwOpts = append(gwOpts, gateway.WithObserver(opts.Observer))
	}

	gw, err := gateway.New(provider, settings.Account, gwOpts...)
	if err != nil {
		return nil, fmt.Errorf("factory: %s gateway init: %w", backend, err)
	}
	logger.Info().
		Str("backend", backend).
		Str("gateway", gw.Name()).
		Str("server", settings.Account.Server).
		Int("max_recipients", gw.MaxRecipients()).
		Msg("sms gateway initialised")
	return gw, nil
}

func newInfobip(opts Options) *infobip.Provider {
	if opts.IDs != nil {
		return infobip.New(infobip.WithIDGenerator(opts.IDs))
	}
	return infobip.New()
}

func normalize(value, def string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return def
	}
	return value
}
