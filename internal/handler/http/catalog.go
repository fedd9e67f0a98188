package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Kurzwaffle/antiques/internal/catalog"
	"github.com/Kurzwaffle/antiques/internal/domain"
	apperrors "github.com/Kurzwaffle/antiques/pkg/errors"
	"github.com/Kurzwaffle/antiques/pkg/httputil"
	"github.com/Kurzwaffle/antiques/pkg/pagination"
)

// CatalogHandler serves read-only product and currency endpoints.
type CatalogHandler struct {
	catalog *catalog.Service
	rates   domain.Rates
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *catalog.Service, rates domain.Rates, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: svc,
		rates:   rates,
		logger:  logger,
	}
}

// ProductView is a product with its price in the requested display currency.
type ProductView struct {
	domain.Product
	Image          string          `json:"image"`
	Currency       domain.Currency `json:"currency"`
	DisplayPrice   decimal.Decimal `json:"display_price"`
	FormattedPrice string          `json:"formatted_price"`
}

// CurrencyView is one row of the rate table.
type CurrencyView struct {
	Code   domain.Currency `json:"code"`
	Symbol string          `json:"symbol"`
	Rate   decimal.Decimal `json:"rate"`
	Base   bool            `json:"base"`
}

func (h *CatalogHandler) view(p domain.Product, c domain.Currency) ProductView {
	return ProductView{
		Product:        p,
		Image:          p.PrimaryImage(),
		Currency:       c,
		DisplayPrice:   h.rates.Convert(c, p.Price).Round(2),
		FormattedPrice: h.rates.Format(c, p.Price),
	}
}

// ListProducts handles GET /api/v1/products
//
// Query: search, category, era, min_price, max_price, featured, in_stock,
// currency, page, per_page.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	currency, err := currencyParam(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	page, err := h.catalog.List(r.Context(), filter, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	views := make([]ProductView, len(page.Items))
	for i, p := range page.Items {
		views[i] = h.view(p, currency)
	}
	httputil.WriteData(w, http.StatusOK, pagination.Result[ProductView]{
		Items:      views,
		TotalCount: page.TotalCount,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalPages: page.TotalPages,
		HasNext:    page.HasNext,
		HasPrev:    page.HasPrev,
	})
}

// FeaturedProducts handles GET /api/v1/products/featured
func (h *CatalogHandler) FeaturedProducts(w http.ResponseWriter, r *http.Request) {
	currency, err := currencyParam(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	products, err := h.catalog.Featured(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	views := make([]ProductView, len(products))
	for i, p := range products {
		views[i] = h.view(p, currency)
	}
	httputil.WriteData(w, http.StatusOK, views)
}

// Facets handles GET /api/v1/products/facets
func (h *CatalogHandler) Facets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.catalog.Facets(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, facets)
}

// GetProduct handles GET /api/v1/products/{id}; {id} may also be a slug.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	currency, err := currencyParam(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	product, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, h.view(product, currency))
}

// Currencies handles GET /api/v1/currencies
func (h *CatalogHandler) Currencies(w http.ResponseWriter, r *http.Request) {
	out := make([]CurrencyView, len(domain.Currencies))
	for i, c := range domain.Currencies {
		out[i] = CurrencyView{
			Code:   c,
			Symbol: c.Symbol(),
			Rate:   h.rates.Rate(c),
			Base:   c == domain.BaseCurrency,
		}
	}
	httputil.WriteData(w, http.StatusOK, out)
}

// --- Helpers ---

func currencyParam(r *http.Request) (domain.Currency, error) {
	raw := r.URL.Query().Get("currency")
	if raw == "" {
		return domain.BaseCurrency, nil
	}
	c, ok := domain.ParseCurrency(raw)
	if !ok {
		return "", apperrors.InvalidInput("unsupported currency: " + raw)
	}
	return c, nil
}

func filterFromQuery(r *http.Request) (catalog.Filter, error) {
	q := r.URL.Query()
	f := catalog.Filter{
		Search:   strings.TrimSpace(q.Get("search")),
		Category: q.Get("category"),
		Era:      q.Get("era"),
	}

	var err error
	if f.MinPrice, err = decimalParam(q.Get("min_price"), "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = decimalParam(q.Get("max_price"), "max_price"); err != nil {
		return f, err
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return f, apperrors.InvalidInput("min_price must not exceed max_price")
	}
	if f.Featured, err = boolParam(q.Get("featured"), "featured"); err != nil {
		return f, err
	}
	if f.InStock, err = boolParam(q.Get("in_stock"), "in_stock"); err != nil {
		return f, err
	}
	return f, nil
}

func decimalParam(raw, name string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, apperrors.InvalidInput(name + " must be a non-negative number")
	}
	return &d, nil
}

func boolParam(raw, name string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.InvalidInput(name + " must be true or false")
	}
	return &b, nil
}
