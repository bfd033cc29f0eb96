package checkout

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/api"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/cart"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/domain"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/geo"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOrders struct {
	err   error
	calls []api.OrderRequest
	keys  []string
	quote *domain.Quote
}

func (m *mockOrders) CreateOrder(_ context.Context, req api.OrderRequest, key string) (*domain.Order, error) {
	m.calls = append(m.calls, req)
	m.keys = append(m.keys, key)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Order{ID: "order-1", Address: req.Address, Status: domain.OrderStatusPending}, nil
}

func (m *mockOrders) QuoteOrder(_ context.Context, items []api.OrderItem) (*domain.Quote, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.quote, nil
}

type staticProfile struct {
	settings *domain.Settings
}

func (p staticProfile) Load(context.Context) (*domain.Settings, error) {
	return p.settings, nil
}

type stubGeocoder struct {
	addr string
	err  error
}

func (g stubGeocoder) Reverse(context.Context, domain.Coordinates) (string, error) {
	return g.addr, g.err
}

type fixture struct {
	store  *cart.Store
	orders *mockOrders
	ledger *Repository
	sub    *Submitter
}

func newFixture(t *testing.T, profile *domain.Settings) *fixture {
	t.Helper()
	kv, err := storage.NewSQLiteKV(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	f := &fixture{
		store:  cart.NewStore(kv, nil),
		orders: &mockOrders{},
		ledger: newSQLiteLedger(t),
	}
	f.sub = NewSubmitter(f.store, f.orders, f.ledger, NewAddressResolver(staticProfile{profile}, nil), nil)

	n := 0
	f.sub.newKey = func() string {
		n++
		return "key-" + string(rune('0'+n))
	}
	return f
}

func (f *fixture) seed(t *testing.T, items map[string]int) {
	t.Helper()
	for _, key := range []string{"A", "B", "C"} {
		if qty, ok := items[key]; ok {
			_, err := f.store.Add(context.Background(), key, qty)
			require.NoError(t, err)
		}
	}
}

func cartKeys(t *testing.T, s *cart.Store) []string {
	t.Helper()
	c, err := s.Load(context.Background())
	require.NoError(t, err)
	return c.Keys()
}

func TestSubmit_RemovesOnlySubmittedEntries(t *testing.T) {
	f := newFixture(t, &domain.Settings{Address: "12 Temple Rd, Kandy"})
	f.seed(t, map[string]int{"A": 2, "B": 1, "C": 4})

	order, err := f.sub.Submit(context.Background(), Request{Selected: []string{"A", "B"}, Note: " gift "})
	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)

	require.Len(t, f.orders.calls, 1)
	req := f.orders.calls[0]
	assert.Equal(t, []api.OrderItem{{ItemID: "A", Quantity: 2}, {ItemID: "B", Quantity: 1}}, req.Items)
	assert.Equal(t, "12 Temple Rd, Kandy", req.Address)
	assert.Equal(t, "gift", req.Note)

	assert.Equal(t, []string{"C"}, cartKeys(t, f.store))

	got, err := f.ledger.GetSubmission(context.Background(), f.orders.keys[0])
	require.NoError(t, err)
	assert.Equal(t, SubmissionSubmitted, got.Status)
	assert.Equal(t, "order-1", got.OrderID)
}

func TestSubmit_FailureLeavesCartUntouched(t *testing.T) {
	f := newFixture(t, &domain.Settings{Address: "12 Temple Rd"})
	f.seed(t, map[string]int{"A": 2, "B": 1, "C": 4})
	f.orders.err = &api.APIError{Kind: api.KindValidation, Status: http.StatusBadRequest, Message: "item sold out"}

	_, err := f.sub.Submit(context.Background(), Request{Selected: []string{"A", "B"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrValidation)

	assert.ElementsMatch(t, []string{"A", "B", "C"}, cartKeys(t, f.store))

	got, err := f.ledger.GetSubmission(context.Background(), f.orders.keys[0])
	require.NoError(t, err)
	assert.Equal(t, SubmissionFailed, got.Status)
}

func TestSubmit_UnknownOutcomeReusesKey(t *testing.T) {
	f := newFixture(t, &domain.Settings{Address: "12 Temple Rd"})
	f.seed(t, map[string]int{"A": 1, "B": 3})
	ctx := context.Background()

	f.orders.err = &api.APIError{Kind: api.KindNetwork, Message: "connection reset"}
	_, err := f.sub.Submit(ctx, Request{Selected: []string{"B", "A"}})
	require.Error(t, err)

	f.orders.err = nil
	_, err = f.sub.Submit(ctx, Request{Selected: []string{"A", "B"}})
	require.NoError(t, err)

	require.Len(t, f.orders.keys, 2)
	assert.Equal(t, f.orders.keys[0], f.orders.keys[1])
	assert.Empty(t, cartKeys(t, f.store))
}

func TestSubmit_DefiniteFailureRetiresKey(t *testing.T) {
	f := newFixture(t, &domain.Settings{Address: "12 Temple Rd"})
	f.seed(t, map[string]int{"A": 1})
	ctx := context.Background()

	f.orders.err = &api.APIError{Kind: api.KindUnauthorized, Status: http.StatusUnauthorized}
	_, err := f.sub.Submit(ctx, Request{Selected: []string{"A"}})
	require.Error(t, err)

	f.orders.err = nil
	_, err = f.sub.Submit(ctx, Request{Selected: []string{"A"}})
	require.NoError(t, err)

	require.Len(t, f.orders.keys, 2)
	assert.NotEqual(t, f.orders.keys[0], f.orders.keys[1])
}

func TestSubmit_ConcurrentDuplicatePlacesOneOrder(t *testing.T) {
	f := newFixture(t, &domain.Settings{Address: "12 Temple Rd"})
	f.seed(t, map[string]int{"A": 1, "B": 1})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.sub.Submit(context.Background(), Request{Selected: []string{"A", "B"}})
		}()
	}
	wg.Wait()

	assert.Len(t, f.orders.calls, 1)
	assert.ElementsMatch(t, []error{nil, ErrNothingSelected}, errs)
}

func TestSubmit_Preconditions(t *testing.T) {
	f := newFixture(t, &domain.Settings{})
	f.seed(t, map[string]int{"A": 1})
	ctx := context.Background()

	_, err := f.sub.Submit(ctx, Request{})
	assert.ErrorIs(t, err, ErrNothingSelected)

	_, err = f.sub.Submit(ctx, Request{Selected: []string{"gone"}})
	assert.ErrorIs(t, err, ErrNothingSelected)

	_, err = f.sub.Submit(ctx, Request{Selected: []string{"A"}})
	assert.ErrorIs(t, err, ErrNoAddress)

	assert.Empty(t, f.orders.calls)
	assert.Equal(t, []string{"A"}, cartKeys(t, f.store))

	_, err = f.sub.Submit(ctx, Request{Selected: []string{"A"}, Address: "Galle Fort"})
	require.NoError(t, err)
	assert.Equal(t, "Galle Fort", f.orders.calls[0].Address)
}

func TestQuote(t *testing.T) {
	f := newFixture(t, &domain.Settings{})
	f.seed(t, map[string]int{"A": 1, "B": 2})
	f.orders.quote = &domain.Quote{Subtotal: 4000, Shipping: 350, Total: 4350}

	q, err := f.sub.Quote(context.Background(), []string{"B"})
	require.NoError(t, err)
	assert.Equal(t, 4350.0, q.Total)

	_, err = f.sub.Quote(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNothingSelected)
}

func TestAddressResolver(t *testing.T) {
	ctx := context.Background()
	loc := &domain.Coordinates{Lat: 7.29, Lon: 80.63}

	addr, err := NewAddressResolver(staticProfile{&domain.Settings{Address: " Kandy "}}, stubGeocoder{addr: "unused"}).Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Kandy", addr)

	addr, err = NewAddressResolver(staticProfile{&domain.Settings{Location: loc}}, stubGeocoder{addr: "Peradeniya"}).Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Peradeniya", addr)

	_, err = NewAddressResolver(staticProfile{&domain.Settings{Location: loc}}, stubGeocoder{err: geo.ErrNoResult}).Resolve(ctx)
	assert.ErrorIs(t, err, ErrNoAddress)

	boom := errors.New("geocoder down")
	_, err = NewAddressResolver(staticProfile{&domain.Settings{Location: loc}}, stubGeocoder{err: boom}).Resolve(ctx)
	assert.ErrorIs(t, err, ErrNoAddress)
	assert.ErrorIs(t, err, boom)

	_, err = NewAddressResolver(staticProfile{&domain.Settings{Location: loc}}, nil).Resolve(ctx)
	assert.ErrorIs(t, err, ErrNoAddress)
}

func TestFingerprint_IgnoresItemOrder(t *testing.T) {
	a := api.OrderRequest{Items: []api.OrderItem{{ItemID: "A", Quantity: 1}, {ItemID: "B", Quantity: 2}}, Address: "x"}
	b := api.OrderRequest{Items: []api.OrderItem{{ItemID: "B", Quantity: 2}, {ItemID: "A", Quantity: 1}}, Address: "x"}
	c := api.OrderRequest{Items: []api.OrderItem{{ItemID: "A", Quantity: 2}, {ItemID: "B", Quantity: 2}}, Address: "x"}

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
}
