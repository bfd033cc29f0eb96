package http

import (
	"net/http"
	"time"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/cart"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/checkout"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/pkg/logger"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	submitter *checkout.Submitter
	view      *cart.View
	timeout   time.Duration
}

func NewCheckoutHandler(submitter *checkout.Submitter, view *cart.View, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		submitter: submitter,
		view:      view,
		timeout:   timeout,
	}
}

// CheckoutRequestDTO: Selected defaults to the cart view's current selection
// when omitted.
type CheckoutRequestDTO struct {
	Selected []string `json:"selected"`
	Note     string   `json:"note"`
	Address  string   `json:"address"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Selected == nil {
		selected, err := h.view.Selected(ctx)
		if err != nil {
			handleError(w, r, err)
			return
		}
		req.Selected = selected
	}

	order, err := h.submitter.Submit(ctx, checkout.Request{
		Selected: req.Selected,
		Note:     req.Note,
		Address:  req.Address,
	})
	if order == nil {
		handleError(w, r, err)
		return
	}

	log := logger.FromContext(r.Context(), nil)
	if err != nil {
		// placed, but the local cart still holds the entries
		log.Warn("checkout completed with cart sync failure", zap.String("order_id", order.ID), zap.Error(err))
	}
	if _, err := h.view.Submitted(ctx); err != nil {
		log.Warn("failed to refresh cart after checkout", zap.Error(err))
	}

	respondJSON(w, http.StatusCreated, order)
}

// POST /api/v1/checkout/quote
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Selected == nil {
		selected, err := h.view.Selected(ctx)
		if err != nil {
			handleError(w, r, err)
			return
		}
		req.Selected = selected
	}

	quote, err := h.submitter.Quote(ctx, req.Selected)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}
