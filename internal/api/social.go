package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/domain"
)

type reviewRecord struct {
	ID        string `json:"_id"`
	ItemID    string `json:"itemId"`
	UserID    string `json:"userId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"createdAt"`
}

type reviewList []reviewRecord

func (l *reviewList) validate() error {
	for _, r := range *l {
		if r.ID == "" {
			return errors.New("review without _id")
		}
	}
	return nil
}

func (r reviewRecord) toDomain() domain.Review {
	return domain.Review{
		ID:        r.ID,
		ItemID:    r.ItemID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

type messageRecord struct {
	ID             string    `json:"_id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Body           string    `json:"message"`
	SentAt         time.Time `json:"createdAt"`
}

type messageList []messageRecord

func (l *messageList) validate() error {
	for _, m := range *l {
		if m.ID == "" {
			return errors.New("message without _id")
		}
	}
	return nil
}

func (m messageRecord) toDomain() domain.Message {
	return domain.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Body:           m.Body,
		SentAt:         m.SentAt,
	}
}

type notificationRecord struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Body      string    `json:"message"`
	Read      bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

type notificationList []notificationRecord

func (l *notificationList) validate() error {
	for _, n := range *l {
		if n.ID == "" {
			return errors.New("notification without _id")
		}
	}
	return nil
}

type deliveryRecord struct {
	OrderID  string `json:"orderId"`
	DriverID string `json:"driverId"`
	Status   string `json:"status"`
	Location *struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *deliveryRecord) validate() error {
	if r.OrderID == "" {
		return errors.New("delivery without orderId")
	}
	if r.Location == nil {
		return errors.New("delivery without location")
	}
	return nil
}

func (c *Client) ListReviews(ctx context.Context, itemID string) ([]domain.Review, error) {
	if err := requireID("item id", itemID); err != nil {
		return nil, err
	}
	var list reviewList
	if err := c.call(ctx, http.MethodGet, "/reviews/"+url.PathEscape(itemID), nil, &list, nil); err != nil {
		return nil, err
	}
	out := make([]domain.Review, 0, len(list))
	for _, r := range list {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) CreateReview(ctx context.Context, itemID string, rating int, comment string) (*domain.Review, error) {
	if err := requireID("item id", itemID); err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, &APIError{Kind: KindValidation, Message: "rating must be between 1 and 5"}
	}
	body := struct {
		ItemID  string `json:"itemId"`
		Rating  int    `json:"rating"`
		Comment string `json:"comment,omitempty"`
	}{itemID, rating, comment}

	var rec reviewRecord
	if err := c.call(ctx, http.MethodPost, "/reviews", body, &rec, nil); err != nil {
		return nil, err
	}
	r := rec.toDomain()
	return &r, nil
}

func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	if err := requireID("conversation id", conversationID); err != nil {
		return nil, err
	}
	var list messageList
	if err := c.call(ctx, http.MethodGet, "/messages/"+url.PathEscape(conversationID), nil, &list, nil); err != nil {
		return nil, err
	}
	out := make([]domain.Message, 0, len(list))
	for _, m := range list {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (c *Client) SendMessage(ctx context.Context, conversationID, text string) (*domain.Message, error) {
	if err := requireID("conversation id", conversationID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, &APIError{Kind: KindValidation, Message: "message must not be empty"}
	}
	body := struct {
		ConversationID string `json:"conversationId"`
		Message        string `json:"message"`
	}{conversationID, text}

	var rec messageRecord
	if err := c.call(ctx, http.MethodPost, "/messages", body, &rec, nil); err != nil {
		return nil, err
	}
	m := rec.toDomain()
	return &m, nil
}

func (c *Client) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	var list notificationList
	if err := c.call(ctx, http.MethodGet, "/notifications", nil, &list, nil); err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(list))
	for _, n := range list {
		out = append(out, domain.Notification{
			ID:        n.ID,
			Title:     n.Title,
			Body:      n.Body,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return out, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	if err := requireID("notification id", id); err != nil {
		return err
	}
	return c.call(ctx, http.MethodPut, "/notifications/read/"+url.PathEscape(id), nil, nil, nil)
}

// GetDelivery returns the driver's latest position for an order.
func (c *Client) GetDelivery(ctx context.Context, orderID string) (*domain.Delivery, error) {
	if err := requireID("order id", orderID); err != nil {
		return nil, err
	}
	var rec deliveryRecord
	if err := c.call(ctx, http.MethodGet, "/deliveries/order/"+url.PathEscape(orderID), nil, &rec, nil); err != nil {
		return nil, err
	}
	return &domain.Delivery{
		OrderID:   rec.OrderID,
		DriverID:  rec.DriverID,
		Status:    rec.Status,
		Location:  domain.Coordinates{Lat: rec.Location.Lat, Lon: rec.Location.Lng},
		UpdatedAt: rec.UpdatedAt,
	}, nil
}
