package domain

// RemoteItem is a catalog entry served by the backend. It is never persisted
// locally; reconciliation fetches it fresh on every pass.
type RemoteItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Available   bool     `json:"available"`
	Images      []string `json:"images,omitempty"`
	Category    string   `json:"category,omitempty"`
	ShopID      string   `json:"shop_id,omitempty"`
}

type Shop struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Address     string   `json:"address,omitempty"`
	OwnerID     string   `json:"owner_id,omitempty"`
	Images      []string `json:"images,omitempty"`
	IsOpen      bool     `json:"is_open"`
}

type Review struct {
	ID        string `json:"id"`
	ItemID    string `json:"item_id"`
	UserID    string `json:"user_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}
