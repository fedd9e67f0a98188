package http

import (
	"log/slog"
	"net/http"

	"github.com/Kurzwaffle/antiques/internal/service"
	"github.com/Kurzwaffle/antiques/pkg/httputil"
	"github.com/Kurzwaffle/antiques/pkg/middleware"
	"github.com/Kurzwaffle/antiques/pkg/validator"
)

// AdminHandler handles the admin sign-in and the dashboard.
type AdminHandler struct {
	service *service.AdminService
	logger  *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(svc *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		service: svc,
		logger:  logger,
	}
}

// MeResponse describes the holder of the bearer token.
type MeResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Login handles POST /api/v1/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.SignInInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	sess, err := h.service.SignIn(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, sess)
}

// Me handles GET /api/v1/admin/me
func (h *AdminHandler) Me(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, MeResponse{
		UserID: middleware.SubjectFromContext(r.Context()),
		Email:  middleware.EmailFromContext(r.Context()),
		Role:   middleware.RoleFromContext(r.Context()),
	})
}

// Dashboard handles GET /api/v1/admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Dashboard(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, stats)
}
