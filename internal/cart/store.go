package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/domain"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/storage"
	"go.uber.org/zap"
)

var ErrInvalidKey = errors.New("item key must not be empty")

// Store is the durable item key -> quantity mapping. Every mutation persists
// the whole cart before returning. The mutex only orders callers inside this
// process; another process writing the same storage wins if it writes last.
type Store struct {
	mu  sync.Mutex
	kv  storage.KV
	log *zap.Logger
	now func() time.Time
}

func NewStore(kv storage.KV, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{kv: kv, log: log, now: time.Now}
}

// Load returns the persisted cart. A missing or unreadable record yields an
// empty cart; only storage failures are returned as errors.
func (s *Store) Load(ctx context.Context) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Add changes the quantity of key by delta. The entry is created when absent
// and delta is positive, and removed when the result is zero or less.
func (s *Store) Add(ctx context.Context, key string, delta int) (*domain.Cart, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	return s.mutate(ctx, func(c *domain.Cart) bool {
		i := c.Find(key)
		if i < 0 {
			if delta <= 0 {
				return false
			}
			c.Entries = append(c.Entries, domain.CartEntry{ItemKey: key, Quantity: delta, AddedAt: s.now()})
			return true
		}
		if delta == 0 {
			return false
		}
		c.Entries[i].Quantity += delta
		if c.Entries[i].Quantity <= 0 {
			c.Entries = append(c.Entries[:i], c.Entries[i+1:]...)
		}
		return true
	})
}

// SetQuantity replaces the quantity of key. Zero or less removes the entry.
func (s *Store) SetQuantity(ctx context.Context, key string, quantity int) (*domain.Cart, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	return s.mutate(ctx, func(c *domain.Cart) bool {
		i := c.Find(key)
		switch {
		case i < 0 && quantity <= 0:
			return false
		case i < 0:
			c.Entries = append(c.Entries, domain.CartEntry{ItemKey: key, Quantity: quantity, AddedAt: s.now()})
		case quantity <= 0:
			c.Entries = append(c.Entries[:i], c.Entries[i+1:]...)
		default:
			c.Entries[i].Quantity = quantity
		}
		return true
	})
}

// Remove deletes key. Removing an absent key leaves the cart unchanged.
func (s *Store) Remove(ctx context.Context, key string) (*domain.Cart, error) {
	return s.RemoveMany(ctx, key)
}

// RemoveMany deletes every given key that is present.
func (s *Store) RemoveMany(ctx context.Context, keys ...string) (*domain.Cart, error) {
	return s.mutate(ctx, func(c *domain.Cart) bool {
		before := c.Len()
		*c = *c.Without(keys...)
		return c.Len() != before
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, storage.KeyCart); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// mutate applies fn to the loaded cart and persists it when fn reports a change.
func (s *Store) mutate(ctx context.Context, fn func(c *domain.Cart) bool) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if !fn(c) {
		return c, nil
	}

	c.UpdatedAt = s.now()
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) load(ctx context.Context) (*domain.Cart, error) {
	data, err := s.kv.Get(ctx, storage.KeyCart)
	if errors.Is(err, storage.ErrNotFound) {
		return &domain.Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var c domain.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		s.log.Warn("discarding unreadable cart", zap.Error(err))
		return &domain.Cart{}, nil
	}
	return sanitize(&c), nil
}

func (s *Store) save(ctx context.Context, c *domain.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyCart, data); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// sanitize drops entries a hand-edited or older record may carry:
// empty keys, non-positive quantities and duplicate keys (first one wins).
func sanitize(c *domain.Cart) *domain.Cart {
	seen := make(map[string]struct{}, len(c.Entries))
	out := &domain.Cart{UpdatedAt: c.UpdatedAt, Entries: make([]domain.CartEntry, 0, len(c.Entries))}
	for _, e := range c.Entries {
		if e.ItemKey == "" || e.Quantity <= 0 {
			continue
		}
		if _, dup := seen[e.ItemKey]; dup {
			continue
		}
		seen[e.ItemKey] = struct{}{}
		out.Entries = append(out.Entries, e)
	}
	return out
}
