package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/domain"
)

type shopRecord struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Address     string   `json:"address,omitempty"`
	OwnerID     string   `json:"ownerId,omitempty"`
	Images      []string `json:"images,omitempty"`
	IsOpen      bool     `json:"isOpen"`
}

func (r *shopRecord) validate() error {
	if r.ID == "" {
		return errors.New("shop without _id")
	}
	return nil
}

func (r *shopRecord) toDomain() *domain.Shop {
	return &domain.Shop{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Address:     r.Address,
		OwnerID:     r.OwnerID,
		Images:      r.Images,
		IsOpen:      r.IsOpen,
	}
}

type shopList []shopRecord

func (l *shopList) validate() error {
	for i := range *l {
		if err := (*l)[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

// ShopInput is the writable part of a shop.
type ShopInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Address     string   `json:"address,omitempty"`
	Images      []string `json:"images,omitempty"`
	IsOpen      *bool    `json:"isOpen,omitempty"`
}

func (in ShopInput) check() error {
	if strings.TrimSpace(in.Name) == "" {
		return &APIError{Kind: KindValidation, Message: "shop name is required"}
	}
	return nil
}

func (c *Client) ListShops(ctx context.Context) ([]*domain.Shop, error) {
	var list shopList
	if err := c.call(ctx, http.MethodGet, "/owner", nil, &list, nil); err != nil {
		return nil, err
	}
	out := make([]*domain.Shop, 0, len(list))
	for i := range list {
		out = append(out, list[i].toDomain())
	}
	return out, nil
}

func (c *Client) GetShop(ctx context.Context, id string) (*domain.Shop, error) {
	if err := requireID("shop id", id); err != nil {
		return nil, err
	}
	var rec shopRecord
	if err := c.call(ctx, http.MethodGet, "/owner/getOne/"+url.PathEscape(id), nil, &rec, nil); err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func (c *Client) CreateShop(ctx context.Context, in ShopInput) (*domain.Shop, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	var rec shopRecord
	if err := c.call(ctx, http.MethodPost, "/owner", in, &rec, nil); err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func (c *Client) UpdateShop(ctx context.Context, id string, in ShopInput) (*domain.Shop, error) {
	if err := requireID("shop id", id); err != nil {
		return nil, err
	}
	if err := in.check(); err != nil {
		return nil, err
	}
	var rec shopRecord
	if err := c.call(ctx, http.MethodPut, "/owner/update/"+url.PathEscape(id), in, &rec, nil); err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}
