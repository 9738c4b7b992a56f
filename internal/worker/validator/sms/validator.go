package smsvalidator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ajayykmr/sms-dispatch-go/internal/config"
	"github.com/ajayykmr/sms-dispatch-go/internal/models"
	"github.com/ajayykmr/sms-dispatch-go/internal/util"
	"github.com/ajayykmr/sms-dispatch-go/internal/worker"
)

// Option customises a Validator.
type Option func(*Validator)

// WithSkipNumberValidation only trims recipient numbers instead of
// normalizing them.
func WithSkipNumberValidation(skip bool) Option {
	return func(v *Validator) {
		v.skipNumbers = skip
	}
}

// Validator implements worker.Validator for SMS payloads.
type Validator struct {
	logger      zerolog.Logger
	cfg         config.ValidationConfig
	skipNumbers bool
}

// New constructs a Validator.
func New(cfg config.ValidationConfig, logger zerolog.Logger, opts ...Option) *Validator {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	v := &Validator{logger: logger, cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// ParseAndValidate parses the payload and returns a validated message.
func (v *Validator) ParseAndValidate(ctx context.Context, channel string, payload []byte) (*worker.ValidatedMessage, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if len(payload) == 0 {
		return nil, errors.New("sms validator: payload is empty")
	}

	var req models.SMSRequest
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("sms validator: decode: %w", err)
	}

	if err := v.applyDefaultsAndValidate(channel, &req); err != nil {
		partial := &worker.ValidatedMessage{
			Channel:   channel,
			MessageID: strings.TrimSpace(req.MessageID),
			TraceID:   strings.TrimSpace(req.TraceID),
			TenantID:  strings.TrimSpace(req.TenantID),
		}
		return partial, err
	}

	raw := make([]byte, len(payload))
	copy(raw, payload)

	validated := &worker.ValidatedMessage{
		Channel:    req.Channel,
		MessageID:  req.MessageID,
		TraceID:    req.TraceID,
		TenantID:   req.TenantID,
		CreatedAt:  req.CreatedAt,
		Metadata:   req.Meta,
		Request:    &req,
		RawPayload: raw,
	}

	v.logger.Debug().
		Str("message_id", req.MessageID).
		Int("recipients", len(req.To)).
		Msg("sms validator: request accepted")
	return validated, nil
}

func (v *Validator) applyDefaultsAndValidate(channel string, req *models.SMSRequest) error {
	req.Channel = strings.TrimSpace(strings.ToLower(req.Channel))
	if req.Channel == "" {
		req.Channel = channel
	}
	if channel != "" && req.Channel != strings.ToLower(channel) {
		return fmt.Errorf("sms validator: channel mismatch: expected %s, got %s", channel, req.Channel)
	}

	if _, err := util.ParseUUIDv4(req.MessageID); err != nil {
		return fmt.Errorf("sms validator: message_id: %w", err)
	}
	req.MessageID = strings.TrimSpace(req.MessageID)
	req.TraceID = strings.TrimSpace(req.TraceID)
	req.TenantID = strings.TrimSpace(req.TenantID)

	if req.CreatedAt.IsZero() {
		return errors.New("sms validator: created_at is required")
	}
	req.CreatedAt = req.CreatedAt.UTC()

	if strings.TrimSpace(req.From) != "" {
		from, err := util.ValidateSender(req.From)
		if err != nil {
			return fmt.Errorf("sms validator: from: %w", err)
		}
		req.From = from
	}

	to, err := v.recipients(req.To)
	if err != nil {
		return fmt.Errorf("sms validator: to: %w", err)
	}
	req.To = to

	if strings.TrimSpace(req.Body) == "" {
		return errors.New("sms validator: body is required")
	}
	if err := util.EnsureMaxRunes("body", req.Body, v.cfg.SMSBodyMax); err != nil {
		return fmt.Errorf("sms validator: %w", err)
	}

	if err := validateOptions(req.Options); err != nil {
		return err
	}

	meta, err := util.ValidateMetadata(req.Meta, v.cfg.MetaMaxEntries, v.cfg.MetaMaxKeyLen, v.cfg.MetaMaxValueLen)
	if err != nil {
		return fmt.Errorf("sms validator: metadata: %w", err)
	}
	req.Meta = meta

	return nil
}

func (v *Validator) recipients(to []string) ([]string, error) {
	if !v.skipNumbers {
		return util.NormalizeMSISDNList(to, 1, v.cfg.SMSRecipientsMax)
	}
	out := make([]string, 0, len(to))
	for _, r := range to {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("expected at least 1 phone number(s); got 0")
	}
	if max := v.cfg.SMSRecipientsMax; max > 0 && len(out) > max {
		return nil, fmt.Errorf("expected at most %d phone number(s); got %d", max, len(out))
	}
	return out, nil
}

func validateOptions(options map[string]string) error {
	for key, value := range options {
		switch key {
		case models.OptionDeliveryReportURL:
			if _, err := util.ValidateHTTPURL(value); err != nil {
				return fmt.Errorf("sms validator: options.%s: %w", key, err)
			}
		case models.OptionFlash:
			if _, err := strconv.ParseBool(value); err != nil {
				return fmt.Errorf("sms validator: options.%s: must be a boolean", key)
			}
		default:
			return fmt.Errorf("sms validator: unsupported option %q", key)
		}
	}
	return nil
}
