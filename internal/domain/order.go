package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusAccepted  OrderStatus = "ACCEPTED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:  {OrderStatusAccepted, OrderStatusCancelled},
	OrderStatusAccepted: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:  {OrderStatusDelivered},
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusAccepted, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether an order in status from may move to status to.
func CanTransitionTo(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type OrderLine struct {
	ItemKey   string  `json:"item_id"`
	Name      string  `json:"name,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price,omitempty"`
}

// Order is the server's record of a submitted order.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id,omitempty"`
	Items     []OrderLine `json:"items"`
	Address   string      `json:"address"`
	Status    OrderStatus `json:"status"`
	Total     float64     `json:"total"`
	Note      string      `json:"note,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Quote is the server-computed price for a prospective order.
type Quote struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency,omitempty"`
}
