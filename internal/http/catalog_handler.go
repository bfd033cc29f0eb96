package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CatalogBackend interface {
	ListItems(ctx context.Context) ([]*domain.RemoteItem, error)
	GetItem(ctx context.Context, id string) (*domain.RemoteItem, error)
	ListShops(ctx context.Context) ([]*domain.Shop, error)
	GetShop(ctx context.Context, id string) (*domain.Shop, error)
	ListShopItems(ctx context.Context, shopID string) ([]*domain.RemoteItem, error)
	ListReviews(ctx context.Context, itemID string) ([]domain.Review, error)
	CreateReview(ctx context.Context, itemID string, rating int, comment string) (*domain.Review, error)
}

type CatalogHandler struct {
	catalog CatalogBackend
	timeout time.Duration
}

func NewCatalogHandler(catalog CatalogBackend, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type ItemsResponse struct {
	Items []*domain.RemoteItem `json:"items"`
}

type ShopsResponse struct {
	Shops []*domain.Shop `json:"shops"`
}

type CreateReviewRequestDTO struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// GET /api/v1/items
func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	items, err := h.catalog.ListItems(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, &ItemsResponse{Items: nonNil(items)})
}

// GET /api/v1/items/{id}
func (h *CatalogHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	item, err := h.catalog.GetItem(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// GET /api/v1/shops
func (h *CatalogHandler) ListShops(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	shops, err := h.catalog.ListShops(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, &ShopsResponse{Shops: nonNil(shops)})
}

// GET /api/v1/shops/{id}
func (h *CatalogHandler) GetShop(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	shop, err := h.catalog.GetShop(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, shop)
}

// GET /api/v1/shops/{id}/items
func (h *CatalogHandler) ListShopItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	items, err := h.catalog.ListShopItems(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, &ItemsResponse{Items: nonNil(items)})
}

// GET /api/v1/items/{id}/reviews
func (h *CatalogHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	reviews, err := h.catalog.ListReviews(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(reviews))
}

// POST /api/v1/items/{id}/reviews
func (h *CatalogHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	var req CreateReviewRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondError(w, http.StatusBadRequest, "invalid_rating", "rating must be between 1 and 5")
		return
	}

	review, err := h.catalog.CreateReview(ctx, chi.URLParam(r, "id"), req.Rating, req.Comment)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, review)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return make([]T, 0)
	}
	return s
}
