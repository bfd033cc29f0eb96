package cart

import (
	"context"
	"sync"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/domain"
)

// View is the per-view cart state: the selection set plus the latest priced
// result. Every cart or selection change re-runs reconciliation.
type View struct {
	mu         sync.Mutex
	store      *Store
	reconciler *Reconciler
	selection  Selection
	priced     *Priced
	opened     bool
}

func NewView(store *Store, reconciler *Reconciler) *View {
	return &View{store: store, reconciler: reconciler}
}

// Open loads the view with every entry selected.
func (v *View) Open(ctx context.Context) (*Priced, error) {
	c, err := v.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	v.selection = SelectAll(c)
	v.opened = true
	v.mu.Unlock()
	return v.Refresh(ctx)
}

// Ensure selects every entry the first time the view is used. Later calls
// leave the selection alone.
func (v *View) Ensure(ctx context.Context) error {
	v.mu.Lock()
	opened := v.opened
	v.mu.Unlock()
	if opened {
		return nil
	}

	c, err := v.store.Load(ctx)
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.opened {
		v.selection = SelectAll(c)
		v.opened = true
	}
	return nil
}

// Refresh re-runs reconciliation with the current selection.
func (v *View) Refresh(ctx context.Context) (*Priced, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selection == nil {
		v.selection = Selection{}
	}

	priced, err := v.reconciler.Reconcile(ctx, v.selection.Clone())
	if err != nil {
		return nil, err
	}
	for _, k := range priced.Removed {
		v.selection.Remove(k)
	}
	v.priced = priced
	return priced, nil
}

func (v *View) Toggle(ctx context.Context, key string) (*Priced, error) {
	v.withSelection(func(s Selection) { s.Toggle(key) })
	return v.Refresh(ctx)
}

func (v *View) Select(ctx context.Context, key string) (*Priced, error) {
	v.withSelection(func(s Selection) { s.Add(key) })
	return v.Refresh(ctx)
}

func (v *View) Deselect(ctx context.Context, key string) (*Priced, error) {
	v.withSelection(func(s Selection) { s.Remove(key) })
	return v.Refresh(ctx)
}

func (v *View) SelectAll(ctx context.Context) (*Priced, error) {
	c, err := v.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	v.withSelection(func(s Selection) {
		for _, k := range c.Keys() {
			s.Add(k)
		}
	})
	return v.Refresh(ctx)
}

func (v *View) DeselectAll(ctx context.Context) (*Priced, error) {
	v.withSelection(func(s Selection) {
		for k := range s {
			s.Remove(k)
		}
	})
	return v.Refresh(ctx)
}

// Add changes an entry's quantity. A newly created entry joins the selection.
func (v *View) Add(ctx context.Context, key string, delta int) (*Priced, error) {
	before, err := v.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	after, err := v.store.Add(ctx, key, delta)
	if err != nil {
		return nil, err
	}
	v.track(before, after, key)
	return v.Refresh(ctx)
}

// SetQuantity sets an entry's quantity; zero or less removes it.
func (v *View) SetQuantity(ctx context.Context, key string, quantity int) (*Priced, error) {
	before, err := v.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	after, err := v.store.SetQuantity(ctx, key, quantity)
	if err != nil {
		return nil, err
	}
	v.track(before, after, key)
	return v.Refresh(ctx)
}

func (v *View) Remove(ctx context.Context, key string) (*Priced, error) {
	after, err := v.store.Remove(ctx, key)
	if err != nil {
		return nil, err
	}
	v.withSelection(func(s Selection) { s.Retain(after) })
	return v.Refresh(ctx)
}

// Clear empties the cart.
func (v *View) Clear(ctx context.Context) (*Priced, error) {
	if err := v.store.Clear(ctx); err != nil {
		return nil, err
	}
	v.withSelection(func(s Selection) {
		for k := range s {
			s.Remove(k)
		}
	})
	return v.Refresh(ctx)
}

// Selected returns the selected keys still in the cart, in cart order. Keys
// the latest pass found unavailable are left out.
func (v *View) Selected(ctx context.Context) ([]string, error) {
	if err := v.Ensure(ctx); err != nil {
		return nil, err
	}
	c, err := v.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	unavailable := make(map[string]bool)
	if v.priced != nil {
		for _, l := range v.priced.Lines {
			if l.Item != nil && !l.Item.Available {
				unavailable[l.Entry.ItemKey] = true
			}
		}
	}
	var keys []string
	for _, e := range c.Entries {
		if v.selection.Has(e.ItemKey) && !unavailable[e.ItemKey] {
			keys = append(keys, e.ItemKey)
		}
	}
	return keys, nil
}

// Submitted forgets the selection after a successful order and refreshes.
func (v *View) Submitted(ctx context.Context) (*Priced, error) {
	v.withSelection(func(s Selection) {
		for k := range s {
			s.Remove(k)
		}
	})
	return v.Refresh(ctx)
}

func (v *View) track(before, after *domain.Cart, key string) {
	v.withSelection(func(s Selection) {
		if before.Find(key) < 0 && after.Find(key) >= 0 {
			s.Add(key)
		}
		s.Retain(after)
	})
}

func (v *View) withSelection(fn func(s Selection)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selection == nil {
		v.selection = Selection{}
	}
	fn(v.selection)
}
