// Package webhook receives delivery reports pushed by SMS providers.
package webhook

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/kataras/iris/v12"
	"github.com/rs/zerolog"

	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

// ReportParser normalizes a pushed delivery report body.
type ReportParser interface {
	ParsePushedDeliveryReport(body []byte) ([]models.DeliveryReport, error)
}

// ReportStore persists normalized reports.
type ReportStore interface {
	Save(ctx context.Context, gateway string, reports []models.DeliveryReport) error
}

// ReportPublisher forwards reports downstream, e.g. to the status topic.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report models.DeliveryReport) error
}

// Server is the iris application serving the delivery report endpoints.
type Server struct {
	app       *iris.Application
	parsers   map[string]ReportParser
	store     ReportStore
	publisher ReportPublisher
	metrics   http.Handler
	checks    map[string]func() error
	logger    zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithGateway registers the parser answering /dlr/{name}.
func WithGateway(name string, parser ReportParser) Option {
	return func(s *Server) {
		if name != "" && parser != nil {
			s.parsers[name] = parser
		}
	}
}

// WithPublisher forwards every stored report to publisher.
func WithPublisher(publisher ReportPublisher) Option {
	return func(s *Server) {
		s.publisher = publisher
	}
}

// WithMetrics mounts handler at /metrics.
func WithMetrics(handler http.Handler) Option {
	return func(s *Server) {
		s.metrics = handler
	}
}

// WithHealthCheck adds a dependency probed by /healthz.
func WithHealthCheck(name string, check func() error) Option {
	return func(s *Server) {
		if name != "" && check != nil {
			s.checks[name] = check
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		if !reflect.ValueOf(logger).IsZero() {
			s.logger = logger
		}
	}
}

// New builds the application. At least one gateway must be registered.
func New(store ReportStore, opts ...Option) (*Server, error) {
	if store == nil {
		return nil, errors.New("webhook: report store is required")
	}
	s := &Server{
		parsers: make(map[string]ReportParser),
		checks:  make(map[string]func() error),
		store:   store,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.parsers) == 0 {
		return nil, errors.New("webhook: no gateway registered")
	}

	app := iris.New()
	app.Logger().SetLevel("disable")
	app.Get("/healthz", s.health)
	app.Post("/dlr/{gateway}", s.receive)
	app.Get("/dlr/{gateway}", s.receive)
	if s.metrics != nil {
		app.Get("/metrics", iris.FromStd(s.metrics))
	}
	s.app = app
	return s, nil
}

// App exposes the iris application, mainly for tests.
func (s *Server) App() *iris.Application { return s.app }

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("webhook listening")
	err := s.app.Listen(addr, iris.WithoutServerError(iris.ErrServerClosed), iris.WithoutStartupLog)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) health(ctx iris.Context) {
	failing := iris.Map{}
	for name, check := range s.checks {
		if err := check(); err != nil {
			failing[name] = err.Error()
		}
	}
	if len(failing) > 0 {
		s.logger.Warn().Interface("failing", failing).Msg("health check failed")
		ctx.StopWithJSON(http.StatusServiceUnavailable, iris.Map{"status": "degraded", "checks": failing})
		return
	}
	_ = ctx.JSON(iris.Map{"status": "ok"})
}

func (s *Server) receive(ctx iris.Context) {
	name := ctx.Params().Get("gateway")
	log := s.logger.With().Str("gateway", name).Str("method", ctx.Method()).Logger()

	parser, ok := s.parsers[name]
	if !ok {
		log.Warn().Msg("delivery report for unknown gateway")
		ctx.StopWithJSON(http.StatusNotFound, iris.Map{"error": "unknown gateway"})
		return
	}

	body, err := reportBody(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("read delivery report body")
		ctx.StopWithJSON(http.StatusBadRequest, iris.Map{"error": "unreadable body"})
		return
	}

	reports, err := parser.ParsePushedDeliveryReport(body)
	if err != nil {
		log.Warn().Err(err).Int("bytes", len(body)).Msg("malformed delivery report")
		ctx.StopWithJSON(http.StatusBadRequest, iris.Map{"error": err.Error()})
		return
	}

	reqCtx := ctx.Request().Context()
	if err := s.store.Save(reqCtx, name, reports); err != nil {
		log.Error().Err(err).Int("reports", len(reports)).Msg("store delivery reports")
		ctx.StopWithJSON(http.StatusInternalServerError, iris.Map{"error": "store failure"})
		return
	}

	if s.publisher != nil {
		for _, report := range reports {
			if err := s.publisher.PublishReport(reqCtx, report); err != nil {
				log.Warn().Err(err).Str("recipient", report.Recipient).Msg("publish delivery report")
			}
		}
	}

	log.Debug().Int("reports", len(reports)).Msg("delivery reports received")
	_ = ctx.JSON(iris.Map{"received": len(reports)})
}

// reportBody returns the POST body, falling back to the query string for
// providers that push reports as GET callbacks.
func reportBody(ctx iris.Context) ([]byte, error) {
	if ctx.Method() == http.MethodPost {
		body, err := ctx.GetBody()
		if err != nil {
			return nil, err
		}
		if len(strings.TrimSpace(string(body))) > 0 {
			return body, nil
		}
	}
	return []byte(ctx.Request().URL.RawQuery), nil
}
