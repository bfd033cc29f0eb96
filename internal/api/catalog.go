package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/domain"
)

// itemRecord is the backend's collection item as served on the wire.
type itemRecord struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Available   *bool    `json:"available"`
	Images      []string `json:"images"`
	Category    string   `json:"category"`
	ShopID      string   `json:"shopId"`
}

func (r *itemRecord) validate() error {
	if r.ID == "" {
		return errors.New("item without _id")
	}
	if r.Price == nil {
		return errors.New("item " + r.ID + " without price")
	}
	if *r.Price < 0 {
		return errors.New("item " + r.ID + " with negative price")
	}
	return nil
}

func (r *itemRecord) toDomain() *domain.RemoteItem {
	available := true
	if r.Available != nil {
		available = *r.Available
	}
	return &domain.RemoteItem{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       *r.Price,
		Available:   available,
		Images:      r.Images,
		Category:    r.Category,
		ShopID:      r.ShopID,
	}
}

type itemList []itemRecord

func (l *itemList) validate() error {
	for i := range *l {
		if err := (*l)[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

func (l itemList) toDomain() []*domain.RemoteItem {
	out := make([]*domain.RemoteItem, 0, len(l))
	for i := range l {
		out = append(out, l[i].toDomain())
	}
	return out
}

// ListItems returns the whole catalog (GET /collection).
func (c *Client) ListItems(ctx context.Context) ([]*domain.RemoteItem, error) {
	var list itemList
	if err := c.call(ctx, http.MethodGet, "/collection", nil, &list, nil); err != nil {
		return nil, err
	}
	return list.toDomain(), nil
}

// GetItem returns one catalog item (GET /collection/getOne/{id}).
func (c *Client) GetItem(ctx context.Context, id string) (*domain.RemoteItem, error) {
	if err := requireID("item id", id); err != nil {
		return nil, err
	}
	var rec itemRecord
	if err := c.call(ctx, http.MethodGet, "/collection/getOne/"+url.PathEscape(id), nil, &rec, nil); err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

// ListShopItems returns the items of one shop (GET /collection/getAll/{shopId}).
func (c *Client) ListShopItems(ctx context.Context, shopID string) ([]*domain.RemoteItem, error) {
	if err := requireID("shop id", shopID); err != nil {
		return nil, err
	}
	var list itemList
	if err := c.call(ctx, http.MethodGet, "/collection/getAll/"+url.PathEscape(shopID), nil, &list, nil); err != nil {
		return nil, err
	}
	return list.toDomain(), nil
}
