package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/Kurzwaffle/antiques/internal/domain"
	apperrors "github.com/Kurzwaffle/antiques/pkg/errors"
	"github.com/Kurzwaffle/antiques/pkg/pagination"
)

// Filter narrows a listing the way the shop page does. Zero values match
// everything; price bounds are inclusive.
type Filter struct {
	Search   string
	Category string
	Era      string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Featured *bool
	InStock  *bool
}

// Match reports whether p passes every set criterion.
func (f Filter) Match(p domain.Product) bool {
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		if !strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) &&
			!strings.Contains(strings.ToLower(p.ShortDescription), term) {
			return false
		}
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Era != "" && p.Era != f.Era {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.Featured != nil && p.Featured != *f.Featured {
		return false
	}
	if f.InStock != nil && p.InStock != *f.InStock {
		return false
	}
	return true
}

// Facets are the distinct filter values present in the catalog, in the order
// they first appear.
type Facets struct {
	Categories []string `json:"categories"`
	Eras       []string `json:"eras"`
}

// CategoryCount is one row of the dashboard's per-category breakdown.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Stats summarizes the catalog for the admin dashboard.
type Stats struct {
	Source     string          `json:"source"`
	Products   int             `json:"products"`
	Featured   int             `json:"featured"`
	InStock    int             `json:"in_stock"`
	SoldOut    int             `json:"sold_out"`
	Skipped    int             `json:"skipped"`
	ByCategory []CategoryCount `json:"by_category"`
	LoadedAt   time.Time       `json:"loaded_at"`
}

type snapshot struct {
	products []domain.Product
	byID     map[string]int
	bySlug   map[string]int
	skipped  int
	loadedAt time.Time
}

// Service serves catalog reads from an in-memory snapshot of the source. The
// snapshot is reloaded on the first read after the refresh interval; a failed
// reload keeps serving the previous snapshot.
type Service struct {
	source   Source
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.RWMutex
	snap *snapshot

	// reloads collapses concurrent stale reads into one source fetch.
	reloads singleflight.Group
}

// NewService creates a catalog service. An interval of zero never reloads
// once a snapshot is loaded.
func NewService(source Source, interval time.Duration, logger *slog.Logger) *Service {
	return &Service{
		source:   source,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Refresh loads the source and replaces the snapshot. Records that fail
// normalization are skipped with a warning.
func (s *Service) Refresh(ctx context.Context) error {
	records, err := s.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch %s catalog: %w", s.source.Name(), err)
	}

	next := &snapshot{
		products: make([]domain.Product, 0, len(records)),
		byID:     make(map[string]int, len(records)),
		bySlug:   make(map[string]int, len(records)),
		loadedAt: s.now(),
	}
	for _, rec := range records {
		p, err := Normalize(rec)
		if err != nil {
			next.skipped++
			s.logger.WarnContext(ctx, "skipping catalog record",
				slog.String("source", s.source.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		if _, dup := next.byID[p.ID]; dup {
			next.skipped++
			s.logger.WarnContext(ctx, "skipping duplicate catalog record",
				slog.String("source", s.source.Name()),
				slog.String("product_id", p.ID),
			)
			continue
		}
		next.byID[p.ID] = len(next.products)
		if _, taken := next.bySlug[p.Slug]; !taken {
			next.bySlug[p.Slug] = len(next.products)
		}
		next.products = append(next.products, p)
	}

	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "catalog loaded",
		slog.String("source", s.source.Name()),
		slog.Int("products", len(next.products)),
		slog.Int("skipped", next.skipped),
	)
	return nil
}

func (s *Service) current(ctx context.Context) (*snapshot, error) {
	snap := s.loaded()
	if s.fresh(snap) {
		return snap, nil
	}

	_, err, _ := s.reloads.Do("refresh", func() (any, error) {
		// A flight that finished while this caller waited may already
		// have replaced the stale snapshot.
		if cur := s.loaded(); cur != snap && s.fresh(cur) {
			return nil, nil
		}
		return nil, s.Refresh(ctx)
	})
	if err != nil {
		if snap == nil {
			return nil, apperrors.Unavailable("catalog", err)
		}
		s.logger.ErrorContext(ctx, "catalog refresh failed, serving previous snapshot",
			slog.String("source", s.source.Name()),
			slog.Time("loaded_at", snap.loadedAt),
			slog.String("error", err.Error()),
		)
		return snap, nil
	}

	return s.loaded(), nil
}

func (s *Service) loaded() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Service) fresh(snap *snapshot) bool {
	return snap != nil && (s.interval <= 0 || s.now().Sub(snap.loadedAt) < s.interval)
}

// Ready fails until a snapshot has been loaded.
func (s *Service) Ready(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return errors.New("catalog not loaded")
	}
	return nil
}

// List returns one page of the products matching f, in catalog order.
func (s *Service) List(ctx context.Context, f Filter, page pagination.Params) (pagination.Result[domain.Product], error) {
	snap, err := s.current(ctx)
	if err != nil {
		return pagination.Result[domain.Product]{}, err
	}

	matched := make([]domain.Product, 0, len(snap.products))
	for _, p := range snap.products {
		if f.Match(p) {
			matched = append(matched, p)
		}
	}
	return pagination.Slice(matched, page), nil
}

// All returns every product in catalog order.
func (s *Service) All(ctx context.Context) ([]domain.Product, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, len(snap.products))
	copy(out, snap.products)
	return out, nil
}

// Get looks a product up by id, falling back to its slug.
func (s *Service) Get(ctx context.Context, id string) (domain.Product, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	if i, ok := snap.byID[id]; ok {
		return snap.products[i], nil
	}
	if i, ok := snap.bySlug[id]; ok {
		return snap.products[i], nil
	}
	return domain.Product{}, apperrors.NotFound("product", id)
}

// Featured returns the products flagged for the home page.
func (s *Service) Featured(ctx context.Context) ([]domain.Product, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	out := []domain.Product{}
	for _, p := range snap.products {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out, nil
}

// Facets returns the distinct categories and eras.
func (s *Service) Facets(ctx context.Context) (Facets, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return Facets{}, err
	}

	out := Facets{Categories: []string{}, Eras: []string{}}
	seenCat, seenEra := map[string]bool{}, map[string]bool{}
	for _, p := range snap.products {
		if p.Category != "" && !seenCat[p.Category] {
			seenCat[p.Category] = true
			out.Categories = append(out.Categories, p.Category)
		}
		if p.Era != "" && !seenEra[p.Era] {
			seenEra[p.Era] = true
			out.Eras = append(out.Eras, p.Era)
		}
	}
	return out, nil
}

// Stats counts the snapshot for the dashboard.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{
		Source:     s.source.Name(),
		Products:   len(snap.products),
		Skipped:    snap.skipped,
		LoadedAt:   snap.loadedAt,
		ByCategory: []CategoryCount{},
	}
	index := map[string]int{}
	for _, p := range snap.products {
		if p.Featured {
			st.Featured++
		}
		if p.InStock {
			st.InStock++
		} else {
			st.SoldOut++
		}
		i, ok := index[p.Category]
		if !ok {
			i = len(st.ByCategory)
			index[p.Category] = i
			st.ByCategory = append(st.ByCategory, CategoryCount{Category: p.Category})
		}
		st.ByCategory[i].Count++
	}
	return st, nil
}
