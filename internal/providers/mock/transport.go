package mock

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ajayykmr/sms-dispatch-go/internal/gateway"
)

// Scenario enumerates the behaviours supported by the mock transport.
type Scenario string

const (
	ScenarioSuccess        Scenario = "success"
	ScenarioHTTPError      Scenario = "http_error"
	ScenarioTransportError Scenario = "transport_error"
	ScenarioMalformed      Scenario = "malformed"
	ScenarioTimeout        Scenario = "timeout"
)

// ParseScenario validates a scenario name.
func ParseScenario(name string) (Scenario, error) {
	s := Scenario(strings.ToLower(strings.TrimSpace(name)))
	switch s {
	case "":
		return ScenarioSuccess, nil
	case ScenarioSuccess, ScenarioHTTPError, ScenarioTransportError, ScenarioMalformed, ScenarioTimeout:
		return s, nil
	}
	return "", fmt.Errorf("mock transport: unknown scenario %q", name)
}

// Responder produces the status code and body of a successful exchange.
type Responder func(params *gateway.HTTPParameters) (int, []byte)

// Step scripts the outcome of one call. A zero Status with ScenarioSuccess
// delegates to the responder.
type Step struct {
	Scenario Scenario
	Status   int
	Body     string
}

// Option customises the mock transport.
type Option func(*Transport)

// WithScenario sets the scenario used once the script is exhausted.
func WithScenario(s Scenario) Option {
	return func(t *Transport) {
		t.defaultScenario = s
	}
}

// WithLatency configures the artificial latency injected before answering.
func WithLatency(d time.Duration) Option {
	return func(t *Transport) {
		if d < 0 {
			d = 0
		}
		t.latency = d
	}
}

// WithResponder overrides the responder used for successful exchanges.
func WithResponder(r Responder) Option {
	return func(t *Transport) {
		if r != nil {
			t.responder = r
		}
	}
}

// WithScript queues per-call outcomes consumed in order.
func WithScript(steps ...Step) Option {
	return func(t *Transport) {
		t.script = append(t.script, steps...)
	}
}

// Transport is a deterministic gateway.Transport used by the mock gateway
// backend and by tests. It records every request it receives.
type Transport struct {
	logger          zerolog.Logger
	defaultScenario Scenario
	latency         time.Duration
	responder       Responder

	mu     sync.Mutex
	script []Step
	calls  []gateway.HTTPParameters
}

// NewTransport constructs a mock transport answering like Infobip.
func NewTransport(logger zerolog.Logger, opts ...Option) *Transport {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	t := &Transport{
		logger:          logger,
		defaultScenario: ScenarioSuccess,
		responder:       InfobipResponder,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// Calls returns a copy of the recorded requests.
func (t *Transport) Calls() []gateway.HTTPParameters {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]gateway.HTTPParameters, len(t.calls))
	copy(out, t.calls)
	return out
}

// Execute implements gateway.Transport.
func (t *Transport) Execute(ctx context.Context, params *gateway.HTTPParameters) (*gateway.HTTPResponse, error) {
	if params == nil {
		return nil, errors.New("mock transport: parameters are required")
	}
	step := t.next(params)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if t.latency > 0 && step.Scenario != ScenarioTimeout {
		timer := time.NewTimer(t.latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	t.logger.Debug().Str("scenario", string(step.Scenario)).Str("url", params.URL).Msg("mock exchange")

	switch step.Scenario {
	case ScenarioSuccess:
		status, body := step.Status, []byte(step.Body)
		if status == 0 {
			status, body = t.responder(params)
		}
		return response(status, body), nil
	case ScenarioHTTPError:
		status := step.Status
		if status == 0 {
			status = http.StatusServiceUnavailable
		}
		return response(status, []byte(step.Body)), nil
	case ScenarioTransportError:
		return nil, errors.New("mock transport: connection refused")
	case ScenarioMalformed:
		return response(http.StatusOK, []byte("<html>mock: not json</html>")), nil
	case ScenarioTimeout:
		if t.latency <= 0 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		timer := time.NewTimer(t.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, errors.New("mock transport: timeout")
		}
	default:
		return nil, fmt.Errorf("mock transport: unknown scenario %s", step.Scenario)
	}
}

func (t *Transport) next(params *gateway.HTTPParameters) Step {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, *params)
	if len(t.script) == 0 {
		return Step{Scenario: t.defaultScenario}
	}
	step := t.script[0]
	t.script = t.script[1:]
	if step.Scenario == "" {
		step.Scenario = ScenarioSuccess
	}
	return step
}

func response(status int, body []byte) *gateway.HTTPResponse {
	return &gateway.HTTPResponse{
		StatusCode: status,
		Reason:     http.StatusText(status),
		Body:       body,
	}
}
