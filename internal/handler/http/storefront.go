package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Kurzwaffle/antiques/internal/service"
	"github.com/Kurzwaffle/antiques/pkg/httputil"
	"github.com/Kurzwaffle/antiques/pkg/middleware"
	"github.com/Kurzwaffle/antiques/pkg/validator"
)

// StorefrontHandler handles session, cart and currency endpoints.
type StorefrontHandler struct {
	service *service.StorefrontService
	logger  *slog.Logger
}

// NewStorefrontHandler creates a new storefront HTTP handler.
func NewStorefrontHandler(svc *service.StorefrontService, logger *slog.Logger) *StorefrontHandler {
	return &StorefrontHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// SetCurrencyRequest is the JSON body of PUT /sessions/{id}/currency.
type SetCurrencyRequest struct {
	Currency string `json:"currency" validate:"required,oneof=USD EUR GBP"`
}

// AddItemRequest is the JSON body of POST /sessions/{id}/cart/items.
// A missing, zero or negative quantity adds one.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=100"`
	Quantity  int    `json:"quantity" validate:"lte=100"`
}

// UpdateQuantityRequest is the JSON body of PUT /sessions/{id}/cart/items/{productId}.
// Zero or a negative quantity removes the item.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"lte=100"`
}

// --- Handlers ---

// StartSession handles POST /api/v1/sessions
func (h *StorefrontHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.StartSession(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set(middleware.SessionHeader, view.SessionID)
	w.Header().Set("Location", "/api/v1/sessions/"+view.SessionID)
	httputil.WriteData(w, http.StatusCreated, view)
}

// GetSession handles GET /api/v1/sessions/{id}
func (h *StorefrontHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetCart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, view)
}

// EndSession handles DELETE /api/v1/sessions/{id}
func (h *StorefrontHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.EndSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetCurrency handles PUT /api/v1/sessions/{id}/currency
func (h *StorefrontHandler) SetCurrency(w http.ResponseWriter, r *http.Request) {
	var req SetCurrencyRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view, err := h.service.SetCurrency(r.Context(), chi.URLParam(r, "id"), req.Currency)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, view)
}

// AddItem handles POST /api/v1/sessions/{id}/cart/items
func (h *StorefrontHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view, err := h.service.AddItem(r.Context(), chi.URLParam(r, "id"), req.ProductID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, view)
}

// UpdateItemQuantity handles PUT /api/v1/sessions/{id}/cart/items/{productId}
func (h *StorefrontHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view, err := h.service.UpdateQuantity(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "productId"), req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, view)
}

// RemoveItem handles DELETE /api/v1/sessions/{id}/cart/items/{productId}
func (h *StorefrontHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.RemoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, view)
}

// ClearCart handles DELETE /api/v1/sessions/{id}/cart
func (h *StorefrontHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.ClearCart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, view)
}
