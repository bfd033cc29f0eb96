package cart

import (
	"sort"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/domain"
)

// Selection is the transient set of entries marked for checkout. It lives only
// as long as the view that owns it and is never persisted.
type Selection map[string]struct{}

// SelectAll is the default selection when a cart view loads.
func SelectAll(c *domain.Cart) Selection {
	return NewSelection(c.Keys()...)
}

func NewSelection(keys ...string) Selection {
	s := make(Selection, len(keys))
	for _, k := range keys {
		if k != "" {
			s[k] = struct{}{}
		}
	}
	return s
}

func (s Selection) Has(key string) bool {
	_, ok := s[key]
	return ok
}

func (s Selection) Add(key string)    { s[key] = struct{}{} }
func (s Selection) Remove(key string) { delete(s, key) }

// Toggle flips key and reports whether it is now selected.
func (s Selection) Toggle(key string) bool {
	if s.Has(key) {
		delete(s, key)
		return false
	}
	s[key] = struct{}{}
	return true
}

// Retain drops keys that are no longer in the cart.
func (s Selection) Retain(c *domain.Cart) {
	for k := range s {
		if c.Find(k) < 0 {
			delete(s, k)
		}
	}
}

// Keys returns the selected keys in sorted order.
func (s Selection) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}
