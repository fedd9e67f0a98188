package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kurzwaffle/antiques/internal/domain"
	"github.com/Kurzwaffle/antiques/internal/session"
	pkgkafka "github.com/Kurzwaffle/antiques/pkg/kafka"
	"github.com/Kurzwaffle/antiques/pkg/logger"
)

// Kafka topic constants for storefront session events.
const (
	TopicCartUpdated     = "storefront.cart.updated"
	TopicCartCleared     = "storefront.cart.cleared"
	TopicCurrencyChanged = "storefront.session.currency_changed"
	TopicSessionEnded    = "storefront.session.ended"
)

// Aggregate type constant.
const AggregateTypeSession = "session"

// Source identifier for events originating from the storefront.
const SourceStorefront = "storefront"

// Topics lists every topic the storefront writes to.
var Topics = []string{TopicCartUpdated, TopicCartCleared, TopicCurrencyChanged, TopicSessionEnded}

// SessionChangedData is the payload shared by all session events.
type SessionChangedData struct {
	SessionID       string          `json:"session_id"`
	Version         int64           `json:"version"`
	ProductID       string          `json:"product_id,omitempty"`
	ItemCount       int             `json:"item_count"`
	TotalAmount     string          `json:"total_amount"`
	BaseCurrency    domain.Currency `json:"base_currency"`
	DisplayCurrency domain.Currency `json:"display_currency"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

// Publisher is the part of pkg/kafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront session events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the storefront.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// TopicFor maps a session change to its topic.
func TopicFor(kind session.ChangeKind) (string, bool) {
	switch kind {
	case session.ChangeCartUpdated:
		return TopicCartUpdated, true
	case session.ChangeCartCleared:
		return TopicCartCleared, true
	case session.ChangeCurrency:
		return TopicCurrencyChanged, true
	case session.ChangeEnded:
		return TopicSessionEnded, true
	default:
		return "", false
	}
}

// PublishChange publishes the event for one session change.
func (p *Producer) PublishChange(ctx context.Context, c session.Change) error {
	topic, ok := TopicFor(c.Kind)
	if !ok {
		return fmt.Errorf("no topic for change %q", c.Kind)
	}

	data := SessionChangedData{
		SessionID:       c.SessionID,
		Version:         c.Version,
		ProductID:       c.ProductID,
		ItemCount:       c.Count,
		TotalAmount:     c.Total.StringFixed(2),
		BaseCurrency:    domain.BaseCurrency,
		DisplayCurrency: c.Currency,
		OccurredAt:      c.At,
	}

	evt, err := pkgkafka.NewEvent(topic, c.SessionID, AggregateTypeSession, SourceStorefront, int(c.Version), data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published session event",
		slog.String("topic", topic),
		slog.String("session_id", c.SessionID),
		slog.Int64("version", c.Version),
	)
	return nil
}

// Discard drops every event. It stands in for Kafka when publishing is
// disabled.
type Discard struct{}

// Publish does nothing.
func (Discard) Publish(context.Context, string, *pkgkafka.Event) error { return nil }
