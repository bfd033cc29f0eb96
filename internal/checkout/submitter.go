package checkout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/api"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/cart"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNothingSelected = errors.New("no cart items selected")
	ErrNoAddress       = errors.New("no delivery address")
)

// OrderClient is the part of the backend client checkout needs.
type OrderClient interface {
	CreateOrder(ctx context.Context, req api.OrderRequest, idempotencyKey string) (*domain.Order, error)
	QuoteOrder(ctx context.Context, items []api.OrderItem) (*domain.Quote, error)
}

type Request struct {
	Selected []string
	Note     string
	// Address overrides the resolved profile address when set.
	Address string
}

type Submitter struct {
	// mu serialises submissions so a repeated request sees the first one's
	// cart changes and ledger entry.
	mu      sync.Mutex
	store   *cart.Store
	orders  OrderClient
	ledger  Ledger
	address *AddressResolver
	log     *zap.Logger
	newKey  func() string
}

func NewSubmitter(store *cart.Store, orders OrderClient, ledger Ledger, address *AddressResolver, log *zap.Logger) *Submitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Submitter{
		store:   store,
		orders:  orders,
		ledger:  ledger,
		address: address,
		log:     log,
		newKey:  uuid.NewString,
	}
}

// Submit places one order for the selected cart entries. On success exactly
// those entries leave the cart. On failure the cart is not touched.
//
// If the order was placed but the cart could not be updated, both the order
// and the error are returned.
func (s *Submitter) Submit(ctx context.Context, req Request) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.selectedItems(ctx, req.Selected)
	if err != nil {
		return nil, err
	}

	address := strings.TrimSpace(req.Address)
	if address == "" {
		address, err = s.address.Resolve(ctx)
		if err != nil {
			return nil, err
		}
	}

	orderReq := api.OrderRequest{Items: items, Address: address, Note: strings.TrimSpace(req.Note)}
	key, err := s.idempotencyKey(ctx, orderReq)
	if err != nil {
		return nil, err
	}

	log := s.log.With(zap.String("idempotency_key", key), zap.Int("items", len(items)))

	order, err := s.orders.CreateOrder(ctx, orderReq, key)
	if err != nil {
		if outcomeUnknown(err) {
			log.Warn("order outcome unknown, key kept for retry", zap.Error(err))
		} else if markErr := s.ledger.MarkFailed(context.WithoutCancel(ctx), key, err.Error()); markErr != nil {
			log.Error("failed to record failed submission", zap.Error(markErr))
		}
		return nil, fmt.Errorf("submit order: %w", err)
	}

	if err := s.ledger.MarkSubmitted(context.WithoutCancel(ctx), key, order.ID); err != nil {
		log.Error("failed to record submitted order", zap.String("order_id", order.ID), zap.Error(err))
	}

	submitted := make([]string, len(items))
	for i, it := range items {
		submitted[i] = it.ItemID
	}
	if _, err := s.store.RemoveMany(context.WithoutCancel(ctx), submitted...); err != nil {
		log.Error("order placed but cart not updated", zap.String("order_id", order.ID), zap.Error(err))
		return order, fmt.Errorf("order %s placed but cart not updated: %w", order.ID, err)
	}

	log.Info("order submitted", zap.String("order_id", order.ID))
	return order, nil
}

// Quote asks the backend to price the selected entries.
func (s *Submitter) Quote(ctx context.Context, selected []string) (*domain.Quote, error) {
	items, err := s.selectedItems(ctx, selected)
	if err != nil {
		return nil, err
	}
	q, err := s.orders.QuoteOrder(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("quote order: %w", err)
	}
	return q, nil
}

// selectedItems returns the order lines for the selected keys that are still
// in the cart, in cart order.
func (s *Submitter) selectedItems(ctx context.Context, selected []string) ([]api.OrderItem, error) {
	c, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	want := cart.NewSelection(selected...)
	var items []api.OrderItem
	for _, e := range c.Entries {
		if want.Has(e.ItemKey) {
			items = append(items, api.OrderItem{ItemID: e.ItemKey, Quantity: e.Quantity})
		}
	}
	if len(items) == 0 {
		return nil, ErrNothingSelected
	}
	return items, nil
}

// idempotencyKey reuses the key of a pending attempt with the same payload,
// otherwise records a new attempt.
func (s *Submitter) idempotencyKey(ctx context.Context, req api.OrderRequest) (string, error) {
	fp := Fingerprint(req)

	pending, err := s.ledger.FindPending(ctx, fp)
	if err == nil {
		s.log.Info("retrying pending submission", zap.String("idempotency_key", pending.IdempotencyKey))
		return pending.IdempotencyKey, nil
	}
	if !errors.Is(err, ErrSubmissionNotFound) {
		return "", fmt.Errorf("lookup pending submission: %w", err)
	}

	keys := make([]string, len(req.Items))
	for i, it := range req.Items {
		keys[i] = it.ItemID
	}
	sub := &Submission{
		IdempotencyKey: s.newKey(),
		Fingerprint:    fp,
		Status:         SubmissionPending,
		ItemKeys:       keys,
	}
	if err := s.ledger.CreateSubmission(ctx, sub); err != nil {
		return "", fmt.Errorf("record submission: %w", err)
	}
	return sub.IdempotencyKey, nil
}

// Fingerprint identifies an order payload independent of item order.
func Fingerprint(req api.OrderRequest) string {
	lines := make([]string, len(req.Items))
	for i, it := range req.Items {
		lines[i] = it.ItemID + ":" + strconv.Itoa(it.Quantity)
	}
	sort.Strings(lines)

	h := sha256.New()
	h.Write([]byte(strings.Join(lines, ",")))
	h.Write([]byte{0})
	h.Write([]byte(req.Address))
	h.Write([]byte{0})
	h.Write([]byte(req.Note))
	return hex.EncodeToString(h.Sum(nil))
}

// outcomeUnknown reports whether the backend may have created the order
// despite the error.
func outcomeUnknown(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, api.ErrUnavailable) ||
		errors.Is(err, api.ErrShape)
}
