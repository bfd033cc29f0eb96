package domain

import "time"

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Settings is the persisted user/settings object. Token is the bearer token
// returned by login.
type Settings struct {
	UserID    string       `json:"user_id,omitempty"`
	Name      string       `json:"name,omitempty"`
	Email     string       `json:"email,omitempty"`
	Token     string       `json:"token,omitempty"`
	Address   string       `json:"address,omitempty"`
	Location  *Coordinates `json:"location,omitempty"`
	Language  string       `json:"language,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (s *Settings) LoggedIn() bool {
	return s.Token != ""
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Body           string    `json:"body"`
	SentAt         time.Time `json:"sent_at"`
}

type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Delivery carries the live position of the driver for an order.
type Delivery struct {
	OrderID   string      `json:"order_id"`
	DriverID  string      `json:"driver_id,omitempty"`
	Status    string      `json:"status"`
	Location  Coordinates `json:"location"`
	UpdatedAt time.Time   `json:"updated_at"`
}
