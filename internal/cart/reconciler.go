package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/domain"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/pkg/circuitbreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	defaultFetchConcurrency = 8
	defaultFetchTimeout     = 15 * time.Second
)

// ItemFetcher resolves a cart key against the remote catalog.
type ItemFetcher interface {
	GetItem(ctx context.Context, id string) (*domain.RemoteItem, error)
}

// Line is one reconciled cart entry.
type Line struct {
	Entry     domain.CartEntry   `json:"entry"`
	Item      *domain.RemoteItem `json:"item"`
	LineTotal float64            `json:"line_total"`
	Selected  bool               `json:"selected"`
}

// Priced is the displayable result of a reconciliation pass. Only selected,
// available lines count toward Subtotal.
type Priced struct {
	Lines    []Line   `json:"lines"`
	Removed  []string `json:"removed,omitempty"`
	Subtotal float64  `json:"subtotal"`
	Shipping float64  `json:"shipping"`
	Total    float64  `json:"total"`
}

// SelectedKeys returns the keys of the lines that counted toward the subtotal.
func (p *Priced) SelectedKeys() []string {
	var keys []string
	for _, l := range p.Lines {
		if l.Selected {
			keys = append(keys, l.Entry.ItemKey)
		}
	}
	return keys
}

type ReconcilerOption func(*Reconciler)

// WithPrunePolicy overrides which fetch errors remove an entry. By default
// every failure prunes except a circuit breaker refusing the call. Context
// errors never prune, whatever the policy.
func WithPrunePolicy(prune func(err error) bool) ReconcilerOption {
	return func(r *Reconciler) { r.prune = prune }
}

func WithConcurrency(n int) ReconcilerOption {
	return func(r *Reconciler) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithFetchTimeout bounds a shared item fetch. It runs detached from any one
// caller, so this is its only deadline.
func WithFetchTimeout(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if d > 0 {
			r.fetchTimeout = d
		}
	}
}

// defaultPrune keeps entries whose fetch never reached the backend.
func defaultPrune(err error) bool {
	return !circuitbreaker.IsOpen(err)
}

func prunable(err error, policy func(error) bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return policy(err)
}

type Reconciler struct {
	store        *Store
	items        ItemFetcher
	pricing      Pricing
	log          *zap.Logger
	prune        func(err error) bool
	concurrency  int
	fetchTimeout time.Duration
	sfg         singleflight.Group // collapses concurrent fetches of the same item
}

func NewReconciler(store *Store, items ItemFetcher, pricing Pricing, log *zap.Logger, opts ...ReconcilerOption) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Reconciler{
		store:        store,
		items:        items,
		pricing:      pricing,
		log:          log,
		prune:        defaultPrune,
		concurrency:  defaultFetchConcurrency,
		fetchTimeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reconciler) Pricing() Pricing {
	return r.pricing
}

// Reconcile fetches every cart entry's item, removes entries that no longer
// resolve and prices the remainder. A nil selection selects every entry.
// If ctx ends mid-pass nothing is pruned and the context error is returned.
func (r *Reconciler) Reconcile(ctx context.Context, selection Selection) (*Priced, error) {
	c, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if selection == nil {
		selection = SelectAll(c)
	}

	items := make([]*domain.RemoteItem, c.Len())
	fetchErrs := make([]error, c.Len())

	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for i, e := range c.Entries {
		g.Go(func() error {
			items[i], fetchErrs[i] = r.fetch(ctx, e.ItemKey)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var gone []string
	priced := &Priced{Lines: make([]Line, 0, c.Len())}
	for i, e := range c.Entries {
		if fetchErrs[i] != nil {
			if prunable(fetchErrs[i], r.prune) {
				r.log.Info("removing cart entry that no longer resolves",
					zap.String("item_key", e.ItemKey), zap.Error(fetchErrs[i]))
				gone = append(gone, e.ItemKey)
				continue
			}
			r.log.Warn("keeping unresolved cart entry",
				zap.String("item_key", e.ItemKey), zap.Error(fetchErrs[i]))
			priced.Lines = append(priced.Lines, Line{Entry: e})
			continue
		}

		item := items[i]
		line := Line{
			Entry:     e,
			Item:      item,
			LineTotal: roundMoney(item.Price * float64(e.Quantity)),
			Selected:  selection.Has(e.ItemKey) && item.Available,
		}
		if line.Selected {
			priced.Subtotal += line.LineTotal
		}
		priced.Lines = append(priced.Lines, line)
	}

	if len(gone) > 0 {
		if _, err := r.store.RemoveMany(ctx, gone...); err != nil {
			return nil, fmt.Errorf("failed to prune cart: %w", err)
		}
		priced.Removed = gone
	}

	priced.Subtotal = roundMoney(priced.Subtotal)
	priced.Shipping, priced.Total = r.pricing.Total(priced.Subtotal)
	return priced, nil
}

// fetch joins any in-flight fetch of key. The shared call is detached from
// ctx so one caller giving up does not fail the others.
func (r *Reconciler) fetch(ctx context.Context, key string) (*domain.RemoteItem, error) {
	ch := r.sfg.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.fetchTimeout)
		defer cancel()
		return r.items.GetItem(fetchCtx, key)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	item, ok := res.Val.(*domain.RemoteItem)
	if !ok || item == nil {
		return nil, errors.New("empty item response")
	}
	return item, nil
}
