package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Kurzwaffle/antiques/internal/domain"
	"github.com/Kurzwaffle/antiques/internal/repository"
	"github.com/Kurzwaffle/antiques/internal/session"
	apperrors "github.com/Kurzwaffle/antiques/pkg/errors"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerItem is the maximum quantity allowed for a single cart entry.
	MaxQuantityPerItem = 100
	// MaxItemsPerCart is the maximum number of distinct products allowed in a cart.
	MaxItemsPerCart = 50
)

// maxSaveAttempts bounds the reload-apply-save loop when concurrent requests
// for the same session keep winning the version check.
const maxSaveAttempts = 3

// ProductCatalog resolves product ids for the cart.
type ProductCatalog interface {
	Get(ctx context.Context, id string) (domain.Product, error)
}

// ChangePublisher forwards saved session changes, e.g. to Kafka.
type ChangePublisher interface {
	PublishChange(ctx context.Context, c session.Change) error
}

// StorefrontService runs the cart and currency use cases against sessions
// kept in a SessionRepository.
type StorefrontService struct {
	sessions  repository.SessionRepository
	catalog   ProductCatalog
	publisher ChangePublisher
	rates     domain.Rates
	metrics   *Metrics
	logger    *slog.Logger
	newID     func() string
}

// NewStorefrontService creates a new storefront service. metrics may be nil.
func NewStorefrontService(
	sessions repository.SessionRepository,
	catalog ProductCatalog,
	publisher ChangePublisher,
	rates domain.Rates,
	metrics *Metrics,
	logger *slog.Logger,
) *StorefrontService {
	return &StorefrontService{
		sessions:  sessions,
		catalog:   catalog,
		publisher: publisher,
		rates:     rates,
		metrics:   metrics,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Rates returns the exchange table sessions are restored with.
func (s *StorefrontService) Rates() domain.Rates {
	return s.rates
}

// StartSession creates an empty session in the base currency.
func (s *StorefrontService) StartSession(ctx context.Context) (*CartView, error) {
	sess := session.New(s.newID(), s.rates)
	if err := s.sessions.Create(ctx, sess.Snapshot()); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.metrics.session("started")
	s.logger.InfoContext(ctx, "session started",
		slog.String("session_id", sess.ID()),
	)
	return NewCartView(sess), nil
}

// GetCart returns the cart view of a session.
func (s *StorefrontService) GetCart(ctx context.Context, sessionID string) (*CartView, error) {
	sess, _, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return NewCartView(sess), nil
}

// EndSession disposes the session and deletes it from the store.
func (s *StorefrontService) EndSession(ctx context.Context, sessionID string) error {
	sess, _, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}

	var changes []session.Change
	sess.Subscribe(session.ObserverFunc(func(c session.Change) { changes = append(changes, c) }))
	sess.Dispose()

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.publish(ctx, changes)

	s.metrics.session("ended")
	s.logger.InfoContext(ctx, "session ended",
		slog.String("session_id", sessionID),
		slog.Int("item_count", sess.Count()),
	)
	return nil
}

// SetCurrency changes the display currency. Unsupported codes leave the
// selection unchanged.
func (s *StorefrontService) SetCurrency(ctx context.Context, sessionID string, code string) (*CartView, error) {
	currency, _ := domain.ParseCurrency(code)

	sess, err := s.mutate(ctx, sessionID, func(sess *session.Session) error {
		sess.SetCurrency(currency)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "currency selected",
		slog.String("session_id", sessionID),
		slog.String("currency", string(sess.Currency())),
	)
	return NewCartView(sess), nil
}

// AddItem adds quantity of a catalog product to the cart. A quantity below 1
// adds one.
func (s *StorefrontService) AddItem(ctx context.Context, sessionID, productID string, quantity int) (*CartView, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	product, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	sess, err := s.mutate(ctx, sessionID, func(sess *session.Session) error {
		existing := sess.Quantity(product.ID)
		if existing == 0 && sess.Len() >= MaxItemsPerCart {
			return apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", MaxItemsPerCart))
		}
		if existing+max(quantity, 1) > MaxQuantityPerItem {
			return apperrors.InvalidInput(fmt.Sprintf("combined quantity must not exceed %d", MaxQuantityPerItem))
		}
		sess.AddItem(product, quantity)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("session_id", sessionID),
		slog.String("product_id", product.ID),
		slog.Int("quantity", sess.Quantity(product.ID)),
	)
	return NewCartView(sess), nil
}

// UpdateQuantity sets the quantity of a cart entry; zero or less removes it.
// Products not in the cart are ignored.
func (s *StorefrontService) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*CartView, error) {
	if quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	sess, err := s.mutate(ctx, sessionID, func(sess *session.Session) error {
		sess.UpdateQuantity(productID, quantity)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart item quantity updated",
		slog.String("session_id", sessionID),
		slog.String("product_id", productID),
		slog.Int("quantity", sess.Quantity(productID)),
	)
	return NewCartView(sess), nil
}

// RemoveItem drops a product from the cart. Absent products are ignored.
func (s *StorefrontService) RemoveItem(ctx context.Context, sessionID, productID string) (*CartView, error) {
	sess, err := s.mutate(ctx, sessionID, func(sess *session.Session) error {
		sess.RemoveItem(productID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("session_id", sessionID),
		slog.String("product_id", productID),
	)
	return NewCartView(sess), nil
}

// ClearCart empties the cart.
func (s *StorefrontService) ClearCart(ctx context.Context, sessionID string) (*CartView, error) {
	sess, err := s.mutate(ctx, sessionID, func(sess *session.Session) error {
		sess.ClearCart()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("session_id", sessionID),
	)
	return NewCartView(sess), nil
}

func (s *StorefrontService) load(ctx context.Context, sessionID string) (*session.Session, int64, error) {
	if sessionID == "" {
		return nil, 0, apperrors.InvalidInput("session id is required")
	}

	snap, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("get session: %w", err)
	}
	return session.Restore(snap, s.rates), snap.Version, nil
}

// mutate loads the session, applies fn and saves the result if it changed
// anything. A lost version race reloads and reapplies fn, up to
// maxSaveAttempts times, before answering with a conflict.
func (s *StorefrontService) mutate(ctx context.Context, sessionID string, fn func(*session.Session) error) (*session.Session, error) {
	for attempt := 1; ; attempt++ {
		sess, expectedVersion, err := s.load(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		var changes []session.Change
		unsubscribe := sess.Subscribe(session.ObserverFunc(func(c session.Change) {
			changes = append(changes, c)
		}))
		err = fn(sess)
		unsubscribe()
		if err != nil {
			return nil, err
		}
		if len(changes) == 0 {
			return sess, nil
		}

		ok, err := s.sessions.SaveIfVersion(ctx, sess.Snapshot(), expectedVersion)
		if err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
		if ok {
			for _, c := range changes {
				s.metrics.change(string(c.Kind))
			}
			s.publish(ctx, changes)
			return sess, nil
		}

		s.metrics.conflict()
		if attempt >= maxSaveAttempts {
			return nil, apperrors.Conflict("session was modified concurrently, please retry")
		}
		s.logger.DebugContext(ctx, "session version conflict, retrying",
			slog.String("session_id", sessionID),
			slog.Int("attempt", attempt),
		)
	}
}

func (s *StorefrontService) publish(ctx context.Context, changes []session.Change) {
	for _, c := range changes {
		if err := s.publisher.PublishChange(ctx, c); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish session event",
				slog.String("session_id", c.SessionID),
				slog.String("kind", string(c.Kind)),
				slog.String("error", err.Error()),
			)
		}
	}
}
