package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/unit-converter/internal/core/converter"
	"github.com/kirillkom/unit-converter/internal/core/domain"
	"github.com/kirillkom/unit-converter/internal/core/ports"
)

const DefaultPrecision = 6

// engine is the part of converter.Converter the use case calls.
type engine interface {
	ConvertRequest(req domain.ConversionRequest) (domain.ConversionResult, error)
	Categories() []domain.Category
	Units(category domain.Category) ([]domain.Unit, error)
}

type ConvertUseCase struct {
	converter engine
	attempts  *slog.Logger
	events    ports.ConversionEventPublisher
	precision int
	now       func() time.Time
}

type ConvertOption func(*ConvertUseCase)

// WithEventPublisher fans every attempt out to publisher as well as the log.
func WithEventPublisher(publisher ports.ConversionEventPublisher) ConvertOption {
	return func(uc *ConvertUseCase) {
		uc.events = publisher
	}
}

func WithPrecision(precision int) ConvertOption {
	return func(uc *ConvertUseCase) {
		if precision >= 0 {
			uc.precision = precision
		}
	}
}

// NewConvertUseCase builds the use case. attempts receives one record per
// conversion attempt and is normally backed by the conversion log file.
func NewConvertUseCase(conv *converter.Converter, attempts *slog.Logger, opts ...ConvertOption) *ConvertUseCase {
	if attempts == nil {
		attempts = slog.New(slog.DiscardHandler)
	}
	uc := &ConvertUseCase{
		converter: conv,
		attempts:  attempts,
		precision: DefaultPrecision,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *ConvertUseCase) Precision() int {
	return uc.precision
}

func (uc *ConvertUseCase) Categories() []domain.Category {
	return uc.converter.Categories()
}

func (uc *ConvertUseCase) Units(category domain.Category) ([]domain.Unit, error) {
	return uc.converter.Units(category)
}

// Convert parses the raw input, converts it and records the attempt.
func (uc *ConvertUseCase) Convert(ctx context.Context, input domain.ConversionInput) (*domain.ConversionResult, error) {
	event := domain.ConversionEvent{
		Category: strings.TrimSpace(input.Category),
		Input:    strings.TrimSpace(input.Value),
		FromUnit: strings.TrimSpace(input.FromUnit),
		ToUnit:   strings.TrimSpace(input.ToUnit),
		Username: input.Username,
	}

	result, err := uc.convert(input)
	if err != nil {
		uc.recordFailure(ctx, event, err)
		return nil, err
	}

	event.Category = string(result.Category)
	event.Output = result.Format(uc.precision)
	event.ToUnit = result.Unit
	event.Level = domain.EventInfo
	event.Message = withUser(fmt.Sprintf("%s: %s %s → %s %s",
		result.Category.Label(), domain.Clip(event.Input), event.FromUnit, event.Output, event.ToUnit), input.Username)
	uc.record(ctx, slog.LevelInfo, event)
	return result, nil
}

func (uc *ConvertUseCase) convert(input domain.ConversionInput) (*domain.ConversionResult, error) {
	category, err := domain.ParseCategory(input.Category)
	if err != nil {
		return nil, err
	}
	value, err := ParseValue(input.Value)
	if err != nil {
		return nil, err
	}
	result, err := uc.converter.ConvertRequest(domain.ConversionRequest{
		Value:    value,
		Category: category,
		FromUnit: input.FromUnit,
		ToUnit:   input.ToUnit,
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SelectCategory resolves a 1-based menu number into a category.
func (uc *ConvertUseCase) SelectCategory(ctx context.Context, choice string) (domain.Category, error) {
	categories := uc.converter.Categories()
	trimmed := strings.TrimSpace(choice)

	n, err := strconv.Atoi(trimmed)
	if err != nil {
		err = domain.WrapError(domain.ErrInvalidNumericInput, "select category", fmt.Errorf("%s is not a number", domain.Quote(trimmed)))
		uc.recordFailure(ctx, domain.ConversionEvent{Input: trimmed}, err)
		return "", err
	}
	if n < 1 || n > len(categories) {
		err = domain.WrapError(domain.ErrUnknownCategory, "select category", fmt.Errorf("choice %d is outside 1-%d", n, len(categories)))
		uc.recordFailure(ctx, domain.ConversionEvent{Input: trimmed}, err)
		return "", err
	}
	return categories[n-1], nil
}

// ParseValue accepts any finite real number, including zero and negatives.
func ParseValue(raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, domain.WrapError(domain.ErrInvalidNumericInput, "parse value", fmt.Errorf("%s is not a number", domain.Quote(trimmed)))
	}
	return v, nil
}

func (uc *ConvertUseCase) recordFailure(ctx context.Context, event domain.ConversionEvent, err error) {
	event.Error = err.Error()
	if domain.IsInputError(err) {
		category := domain.Clip(event.Category)
		if category == "" {
			category = "category selection"
		}
		event.Level = domain.EventWarning
		event.Message = withUser(fmt.Sprintf("Conversion error in %s: %v", category, err), event.Username)
		uc.record(ctx, slog.LevelWarn, event)
		return
	}
	event.Level = domain.EventError
	event.Message = withUser(fmt.Sprintf("Unexpected error: %v", err), event.Username)
	uc.record(ctx, slog.LevelError, event)
}

func (uc *ConvertUseCase) record(ctx context.Context, level slog.Level, event domain.ConversionEvent) {
	event.Time = uc.now()
	if requestID, ok := ctx.Value(RequestIDKey{}).(string); ok {
		event.RequestID = requestID
	}
	uc.attempts.Log(ctx, level, event.Message)

	if uc.events == nil {
		return
	}
	if err := uc.events.PublishConversion(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("conversion_event_publish_failed", "error", err, "category", event.Category)
	}
}

// RequestIDKey carries the inbound request id so published events can be
// correlated with access logs.
type RequestIDKey struct{}

func withUser(msg, username string) string {
	if username == "" {
		return msg
	}
	return msg + " by " + username
}
