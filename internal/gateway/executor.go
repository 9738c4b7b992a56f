package gateway

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/rs/zerolog"

	"github.com/ajayykmr/sms-dispatch-go/internal/adapters/common"
	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

// Executor runs one command against a provider: it builds the request,
// performs the exchange and normalizes the answer. Every failure other than
// an unsupported command is turned into a CommandResult with Status false.
type Executor struct {
	provider  Provider
	transport Transport
	observer  Observer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewExecutor wires an executor. A nil observer disables instrumentation.
func NewExecutor(provider Provider, transport Transport, observer Observer, logger zerolog.Logger) *Executor {
	if observer == nil {
		observer = nopObserver{}
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &Executor{
		provider:  provider,
		transport: transport,
		observer:  observer,
		logger:    logger,
		now:       time.Now,
	}
}

// Execute runs req using cfg unless req carries its own configuration. The
// returned error is non-nil only for ErrInvalidCommand.
func (e *Executor) Execute(ctx context.Context, req CommandRequest, cfg models.GatewayConfig) (*CommandResult, error) {
	if req.Config != nil {
		cfg = *req.Config
	}
	name := e.provider.Name()
	started := e.now()
	log := e.logger.With().Str("provider", name).Str("command", string(req.Command)).Logger()

	params, err := e.provider.BuildRequest(req.Command, req.Payload, cfg)
	if err != nil {
		if errors.Is(err, ErrInvalidCommand) {
			e.observer.ObserveExchange(name, req.Command, OutcomeOf(ErrInvalidCommand), 0)
			return nil, err
		}
		gwErr := &Error{Kind: ErrInvalidRequest, Provider: name, Command: req.Command, Err: err}
		log.Warn().Err(err).Msg("unable to build provider request")
		return e.fail(gwErr, 0), nil
	}

	resp, err := e.transport.Execute(ctx, params)
	elapsed := e.now().Sub(started)
	if err != nil {
		gwErr := &Error{Kind: ErrTransport, Provider: name, Command: req.Command, Err: err}
		log.Warn().Err(err).Str("url", params.URL).Dur("elapsed", elapsed).Msg("provider request failed")
		return e.fail(gwErr, elapsed), nil
	}

	log.Debug().
		Str("method", params.Method).
		Str("url", params.URL).
		Int("status_code", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("provider exchange completed")

	if !resp.Success() {
		gwErr := &Error{
			Kind:       ErrHTTPStatus,
			Provider:   name,
			Command:    req.Command,
			StatusCode: resp.StatusCode,
			Reason:     resp.Reason,
		}
		log.Warn().
			Int("status_code", resp.StatusCode).
			Str("body", common.TruncateRaw(string(resp.Body), common.DefaultRawBodyLimit)).
			Msg("provider returned http error")
		return e.fail(gwErr, elapsed), nil
	}

	result, err := e.provider.ParseResponse(req.Command, resp.Body)
	if err != nil {
		gwErr := &Error{Kind: ErrMalformedResponse, Provider: name, Command: req.Command, Err: err}
		log.Debug().
			Err(err).
			Str("body", common.TruncateRaw(string(resp.Body), common.DefaultRawBodyLimit)).
			Msg("unable to parse provider response")
		return e.fail(gwErr, elapsed), nil
	}

	outcome := OutcomeOK
	if !result.Status {
		outcome = OutcomeRejected
	}
	e.observer.ObserveExchange(name, req.Command, outcome, elapsed)
	return result, nil
}

func (e *Executor) fail(err *Error, elapsed time.Duration) *CommandResult {
	e.observer.ObserveExchange(err.Provider, err.Command, err.Outcome(), elapsed)
	return Failed(err)
}
