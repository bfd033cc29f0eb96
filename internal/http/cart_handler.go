package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/cart"
	"github.com/go-chi/chi/v5"
)

// maxDelta bounds a single add request, not the quantity an entry may reach.
const maxDelta = 999

type CartHandler struct {
	view       *cart.View
	reconciler *cart.Reconciler
	timeout    time.Duration
}

func NewCartHandler(view *cart.View, reconciler *cart.Reconciler, timeout time.Duration) *CartHandler {
	return &CartHandler{
		view:       view,
		reconciler: reconciler,
		timeout:    timeout,
	}
}

type AddItemRequestDTO struct {
	ItemKey string `json:"item_key"`
	Delta   int    `json:"delta"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type SelectionRequestDTO struct {
	All bool `json:"all"`
}

// GET /api/v1/cart
//
// With ?selected=a,b the cart is priced for that selection only and the
// view's own selection is left alone.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	if r.URL.Query().Has("selected") {
		priced, err := h.reconciler.Reconcile(ctx, cart.NewSelection(splitKeys(r.URL.Query().Get("selected"))...))
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, priced)
		return
	}

	h.respond(ctx, w, r, func(ctx context.Context) (*cart.Priced, error) {
		return h.view.Refresh(ctx)
	})
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ItemKey = strings.TrimSpace(req.ItemKey)
	if req.ItemKey == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_key", "item_key is required")
		return
	}
	if req.Delta == 0 || req.Delta > maxDelta || req.Delta < -maxDelta {
		respondError(w, http.StatusBadRequest, "invalid_delta", "delta must be non-zero and at most 999 in size")
		return
	}

	h.respond(ctx, w, r, func(ctx context.Context) (*cart.Priced, error) {
		return h.view.Add(ctx, req.ItemKey, req.Delta)
	})
}

// PUT /api/v1/cart/items/{item_key}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	key := chi.URLParam(r, "item_key")
	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity < 0 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must not be negative")
		return
	}

	h.respond(ctx, w, r, func(ctx context.Context) (*cart.Priced, error) {
		return h.view.SetQuantity(ctx, key, req.Quantity)
	})
}

// DELETE /api/v1/cart/items/{item_key}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	key := chi.URLParam(r, "item_key")
	h.respond(ctx, w, r, func(ctx context.Context) (*cart.Priced, error) {
		return h.view.Remove(ctx, key)
	})
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	h.respond(ctx, w, r, h.view.Clear)
}

// POST /api/v1/cart/selection/{item_key}
func (h *CartHandler) Select(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	key := chi.URLParam(r, "item_key")
	h.respond(ctx, w, r, func(ctx context.Context) (*cart.Priced, error) {
		return h.view.Select(ctx, key)
	})
}

// DELETE /api/v1/cart/selection/{item_key}
func (h *CartHandler) Deselect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	key := chi.URLParam(r, "item_key")
	h.respond(ctx, w, r, func(ctx context.Context) (*cart.Priced, error) {
		return h.view.Deselect(ctx, key)
	})
}

// PUT /api/v1/cart/selection
func (h *CartHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	var req SelectionRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respond(ctx, w, r, func(ctx context.Context) (*cart.Priced, error) {
		if req.All {
			return h.view.SelectAll(ctx)
		}
		return h.view.DeselectAll(ctx)
	})
}

// respond opens the view on first use, runs fn and writes the priced cart.
func (h *CartHandler) respond(ctx context.Context, w http.ResponseWriter, r *http.Request, fn func(ctx context.Context) (*cart.Priced, error)) {
	if err := h.view.Ensure(ctx); err != nil {
		handleError(w, r, err)
		return
	}
	priced, err := fn(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, priced)
}

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
