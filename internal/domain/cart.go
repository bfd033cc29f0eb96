package domain

import "time"

// Cart is the client-owned collection of pending purchases. Entries keep insertion order.
type Cart struct {
	Entries   []CartEntry `json:"entries" bson:"entries"`
	UpdatedAt time.Time   `json:"updated_at" bson:"updated_at"`
}

// CartEntry references a remote catalog item. Quantity is always positive;
// an entry whose quantity drops to zero is removed, never kept at zero.
type CartEntry struct {
	ItemKey  string    `json:"item_key" bson:"item_key"`
	Quantity int       `json:"quantity" bson:"quantity"`
	AddedAt  time.Time `json:"added_at" bson:"added_at"`
}

func (c *Cart) Keys() []string {
	keys := make([]string, 0, len(c.Entries))
	for _, e := range c.Entries {
		keys = append(keys, e.ItemKey)
	}
	return keys
}

// Find returns the index of the entry for key, or -1.
func (c *Cart) Find(key string) int {
	for i, e := range c.Entries {
		if e.ItemKey == key {
			return i
		}
	}
	return -1
}

func (c *Cart) Quantity(key string) int {
	if i := c.Find(key); i >= 0 {
		return c.Entries[i].Quantity
	}
	return 0
}

func (c *Cart) Len() int {
	return len(c.Entries)
}

// Without returns a copy of the cart minus the given keys.
func (c *Cart) Without(keys ...string) *Cart {
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	out := &Cart{UpdatedAt: c.UpdatedAt, Entries: make([]CartEntry, 0, len(c.Entries))}
	for _, e := range c.Entries {
		if _, ok := drop[e.ItemKey]; ok {
			continue
		}
		out.Entries = append(out.Entries, e)
	}
	return out
}
