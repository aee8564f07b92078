package handlers

import (
	"net/http"

	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/diagnosis/cinelist/pkg/auth"
	"github.com/diagnosis/cinelist/services/auth/internal/domain"
)

// Register handles user registration
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Registration successful. An OTP has been sent to your email.",
		"user":    user.ToUserInfo(),
	})
}

// Verify checks an emailed OTP and marks the account verified
func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.otpService.Verify(r.Context(), req.Email, string(req.OTP))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Email verified successfully",
		"user":    user.ToUserInfo(),
	})
}

// ResendOTP issues a fresh OTP, invalidating the previous one
func (h *Handlers) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.ResendOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.otpService.Issue(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "OTP sent to your email",
	})
}

// Login handles user authentication
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), auth.BearerToken(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out",
	})
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.E(apperr.Unauthenticated, "authentication required"))
		return
	}

	user, err := h.authService.GetUser(r.Context(), p.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user.ToUserInfo())
}

// DeleteMe removes the caller's account along with its watchlist and token
func (h *Handlers) DeleteMe(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.E(apperr.Unauthenticated, "authentication required"))
		return
	}

	if err := h.authService.DeleteUser(r.Context(), p.UserID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Admin handlers

// ListUsers handles listing all users (staff only)
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	users, err := h.authService.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}

	userInfos := make([]*domain.UserInfo, len(users))
	for i := range users {
		userInfos[i] = users[i].ToUserInfo()
	}

	writeJSON(w, http.StatusOK, userInfos)
}

// DeleteUser handles deleting a user (staff only)
func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.authService.DeleteUser(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
