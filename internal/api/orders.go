package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/domain"
)

const IdempotencyHeader = "Idempotency-Key"

type OrderItem struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

type OrderRequest struct {
	Items   []OrderItem `json:"items"`
	Address string      `json:"address"`
	Note    string      `json:"note,omitempty"`
}

func (r OrderRequest) check() error {
	if len(r.Items) == 0 {
		return &APIError{Kind: KindValidation, Message: "order has no items"}
	}
	for _, it := range r.Items {
		if it.ItemID == "" || it.Quantity <= 0 {
			return &APIError{Kind: KindValidation, Message: "order item needs an id and a positive quantity"}
		}
	}
	return nil
}

type orderLineRecord struct {
	ItemID   string  `json:"itemId"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type orderRecord struct {
	ID        string            `json:"_id"`
	UserID    string            `json:"userId"`
	Items     []orderLineRecord `json:"items"`
	Address   string            `json:"address"`
	Status    string            `json:"status"`
	Total     float64           `json:"total"`
	Note      string            `json:"note"`
	CreatedAt time.Time         `json:"createdAt"`
}

func (r *orderRecord) validate() error {
	if r.ID == "" {
		return errors.New("order without _id")
	}
	return nil
}

func (r *orderRecord) toDomain() *domain.Order {
	lines := make([]domain.OrderLine, 0, len(r.Items))
	for _, it := range r.Items {
		lines = append(lines, domain.OrderLine{
			ItemKey:   it.ItemID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
		})
	}
	status := domain.OrderStatus(r.Status)
	if status == "" {
		status = domain.OrderStatusPending
	}
	return &domain.Order{
		ID:        r.ID,
		UserID:    r.UserID,
		Items:     lines,
		Address:   r.Address,
		Status:    status,
		Total:     r.Total,
		Note:      r.Note,
		CreatedAt: r.CreatedAt,
	}
}

type orderList []orderRecord

func (l *orderList) validate() error {
	for i := range *l {
		if err := (*l)[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

type quoteRecord struct {
	Subtotal *float64 `json:"subtotal"`
	Shipping float64  `json:"shipping"`
	Total    *float64 `json:"total"`
	Currency string   `json:"currency"`
}

func (r *quoteRecord) validate() error {
	if r.Subtotal == nil || r.Total == nil {
		return errors.New("quote without subtotal or total")
	}
	return nil
}

// CreateOrder submits an order (POST /orders). idempotencyKey is sent as the
// Idempotency-Key header so the backend can drop duplicate submissions.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest, idempotencyKey string) (*domain.Order, error) {
	if err := req.check(); err != nil {
		return nil, err
	}
	var header http.Header
	if idempotencyKey != "" {
		header = http.Header{IdempotencyHeader: []string{idempotencyKey}}
	}
	var rec orderRecord
	if err := c.call(ctx, http.MethodPost, "/orders", req, &rec, header); err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func (c *Client) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	var list orderList
	if err := c.call(ctx, http.MethodGet, "/orders", nil, &list, nil); err != nil {
		return nil, err
	}
	out := make([]*domain.Order, 0, len(list))
	for i := range list {
		out = append(out, list[i].toDomain())
	}
	return out, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if err := requireID("order id", id); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, &APIError{Kind: KindValidation, Message: "unknown order status " + string(status)}
	}
	body := struct {
		Status domain.OrderStatus `json:"status"`
	}{status}
	var rec orderRecord
	if err := c.call(ctx, http.MethodPut, "/orders/status/"+url.PathEscape(id), body, &rec, nil); err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

// QuoteOrder asks the backend to price items (POST /orders/quote).
func (c *Client) QuoteOrder(ctx context.Context, items []OrderItem) (*domain.Quote, error) {
	req := OrderRequest{Items: items}
	if err := req.check(); err != nil {
		return nil, err
	}
	body := struct {
		Items []OrderItem `json:"items"`
	}{items}
	var rec quoteRecord
	if err := c.call(ctx, http.MethodPost, "/orders/quote", body, &rec, nil); err != nil {
		return nil, err
	}
	return &domain.Quote{
		Subtotal: *rec.Subtotal,
		Shipping: rec.Shipping,
		Total:    *rec.Total,
		Currency: rec.Currency,
	}, nil
}
