package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/diagnosis/cinelist/pkg/response"
	"github.com/diagnosis/cinelist/services/auth/internal/service"
	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	authService service.AuthService
	otpService  service.OTPService
}

func New(authService service.AuthService, otpService service.OTPService) *Handlers {
	return &Handlers{
		authService: authService,
		otpService:  otpService,
	}
}

// Routes mounts the auth endpoints. requireToken and requireStaff guard the
// session and admin routes; limit wraps the credential endpoints.
func (h *Handlers) Routes(r chi.Router, requireToken, requireStaff, limit func(http.Handler) http.Handler) {
	r.Post("/register", h.Register)

	r.Group(func(r chi.Router) {
		r.Use(limit)
		r.Post("/login", h.Login)
		r.Post("/verify", h.Verify)
		r.Post("/resend-otp", h.ResendOTP)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireToken)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
		r.Delete("/me", h.DeleteMe)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireStaff)
		r.Get("/users", h.ListUsers)
		r.Delete("/users/{id}", h.DeleteUser)
	})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.E(apperr.Validation, "Invalid JSON format")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	response.WriteJSON(w, statusCode, data)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	response.FromError(w, r, err)
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.E(apperr.Validation, "Invalid user ID")
	}
	return id, nil
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
