package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/api"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/domain"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/geo"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/settings"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/pkg/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AccountBackend interface {
	Login(ctx context.Context, email, password string) (*api.Session, error)
	ListNotifications(ctx context.Context) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

type AccountHandler struct {
	backend  AccountBackend
	settings *settings.Store
	geocoder geo.Geocoder
	timeout  time.Duration
}

// NewAccountHandler accepts a nil geocoder.
func NewAccountHandler(backend AccountBackend, st *settings.Store, geocoder geo.Geocoder, timeout time.Duration) *AccountHandler {
	return &AccountHandler{
		backend:  backend,
		settings: st,
		geocoder: geocoder,
		timeout:  timeout,
	}
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AddressRequestDTO struct {
	Address string `json:"address"`
}

type ProfileResponseDTO struct {
	UserID          string              `json:"user_id,omitempty"`
	Name            string              `json:"name,omitempty"`
	Email           string              `json:"email,omitempty"`
	LoggedIn        bool                `json:"logged_in"`
	Address         string              `json:"address,omitempty"`
	Location        *domain.Coordinates `json:"location,omitempty"`
	Language        string              `json:"language,omitempty"`
	ResolvedAddress string              `json:"resolved_address,omitempty"`
}

func profileDTO(st *domain.Settings) ProfileResponseDTO {
	return ProfileResponseDTO{
		UserID:   st.UserID,
		Name:     st.Name,
		Email:    st.Email,
		LoggedIn: st.LoggedIn(),
		Address:  st.Address,
		Location: st.Location,
		Language: st.Language,
	}
}

// POST /api/v1/auth/login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid_credentials", "email and password are required")
		return
	}

	sess, err := h.backend.Login(ctx, req.Email, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}
	st, err := h.settings.SignIn(ctx, sess.Token, sess.UserID, sess.Name, sess.Email)
	if err != nil {
		handleError(w, r, err)
		return
	}

	logger.FromContext(r.Context(), nil).Info("signed in", zap.String("user_id", sess.UserID))
	respondJSON(w, http.StatusOK, profileDTO(st))
}

// POST /api/v1/auth/logout
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.SignOut(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/profile
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	st, err := h.settings.Load(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profileDTO(st))
}

// PUT /api/v1/profile/address
func (h *AccountHandler) SetAddress(w http.ResponseWriter, r *http.Request) {
	var req AddressRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := h.settings.SetAddress(r.Context(), strings.TrimSpace(req.Address))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profileDTO(st))
}

// PUT /api/v1/profile/location
//
// Stores the device location. When a geocoder is configured the response
// carries the address it resolves to; failing to resolve is not an error.
func (h *AccountHandler) SetLocation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	var req domain.Coordinates
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lon < -180 || req.Lon > 180 {
		respondError(w, http.StatusBadRequest, "invalid_location", "lat must be within ±90 and lon within ±180")
		return
	}

	st, err := h.settings.SetLocation(ctx, req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := profileDTO(st)
	if h.geocoder != nil {
		addr, err := h.geocoder.Reverse(ctx, req)
		if err != nil {
			logger.FromContext(r.Context(), nil).Info("reverse geocode failed", zap.Error(err))
		} else {
			resp.ResolvedAddress = addr
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// GET /api/v1/notifications
func (h *AccountHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	notes, err := h.backend.ListNotifications(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(notes))
}

// PUT /api/v1/notifications/{id}/read
func (h *AccountHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	if err := h.backend.MarkNotificationRead(ctx, chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
