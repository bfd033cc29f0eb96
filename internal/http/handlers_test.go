package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/api"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/cart"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/checkout"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/domain"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/live"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/media"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/settings"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBackend struct {
	mu        sync.Mutex
	items     map[string]*domain.RemoteItem
	orderErr  error
	orders    []api.OrderRequest
	uploadErr error
	uploads   []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{items: map[string]*domain.RemoteItem{
		"A": {ID: "A", Name: "Clay pot", Price: 1200, Available: true},
		"B": {ID: "B", Name: "Batik scarf", Price: 2500, Available: true},
		"C": {ID: "C", Name: "Mask", Price: 4000, Available: true},
	}}
}

func (b *fakeBackend) notFound(what string) error {
	return &api.APIError{Kind: api.KindNotFound, Status: http.StatusNotFound, Message: what + " not found"}
}

func (b *fakeBackend) GetItem(_ context.Context, id string) (*domain.RemoteItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	it, ok := b.items[id]
	if !ok {
		return nil, b.notFound("item")
	}
	cp := *it
	return &cp, nil
}

func (b *fakeBackend) ListItems(context.Context) ([]*domain.RemoteItem, error) {
	return []*domain.RemoteItem{b.items["A"]}, nil
}

func (b *fakeBackend) ListShops(context.Context) ([]*domain.Shop, error) { return nil, nil }

func (b *fakeBackend) GetShop(_ context.Context, id string) (*domain.Shop, error) {
	return nil, b.notFound("shop")
}

func (b *fakeBackend) ListShopItems(context.Context, string) ([]*domain.RemoteItem, error) {
	return nil, &api.APIError{Kind: api.KindUnavailable, Message: "circuit open"}
}

func (b *fakeBackend) ListReviews(context.Context, string) ([]domain.Review, error) { return nil, nil }

func (b *fakeBackend) CreateReview(_ context.Context, itemID string, rating int, comment string) (*domain.Review, error) {
	return &domain.Review{ID: "r1", ItemID: itemID, Rating: rating, Comment: comment}, nil
}

func (b *fakeBackend) CreateOrder(_ context.Context, req api.OrderRequest, _ string) (*domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders = append(b.orders, req)
	if b.orderErr != nil {
		return nil, b.orderErr
	}
	return &domain.Order{ID: "o1", Address: req.Address, Status: domain.OrderStatusPending}, nil
}

func (b *fakeBackend) QuoteOrder(_ context.Context, items []api.OrderItem) (*domain.Quote, error) {
	return &domain.Quote{Subtotal: 1200, Shipping: 350, Total: 1550}, nil
}

func (b *fakeBackend) ListOrders(context.Context) ([]*domain.Order, error) { return nil, nil }

func (b *fakeBackend) UpdateOrderStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	return &domain.Order{ID: id, Status: status}, nil
}

func (b *fakeBackend) Login(_ context.Context, email, password string) (*api.Session, error) {
	if password != "secret" {
		return nil, &api.APIError{Kind: api.KindUnauthorized, Status: http.StatusUnauthorized, Message: "bad credentials"}
	}
	return &api.Session{Token: "jwt", UserID: "u1", Name: "Kamala", Email: email}, nil
}

func (b *fakeBackend) ListNotifications(context.Context) ([]domain.Notification, error) {
	return []domain.Notification{{ID: "n1", Title: "Order shipped"}}, nil
}

func (b *fakeBackend) MarkNotificationRead(context.Context, string) error { return nil }

func (b *fakeBackend) SendMessage(_ context.Context, conversationID, text string) (*domain.Message, error) {
	return &domain.Message{ID: "m1", ConversationID: conversationID, Body: text}, nil
}

func (b *fakeBackend) UploadMedia(_ context.Context, name string, content io.Reader) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.uploadErr != nil && len(b.uploads) > 0 {
		return "", b.uploadErr
	}
	b.uploads = append(b.uploads, name)
	return "https://cdn.example/" + name, nil
}

type chanFeed[T any] struct {
	updates []live.Update[T]
}

func (f chanFeed[T]) Subscribe(ctx context.Context, key string) <-chan live.Update[T] {
	out := make(chan live.Update[T])
	go func() {
		defer close(out)
		for _, u := range f.updates {
			select {
			case out <- u:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

type testEnv struct {
	backend  *fakeBackend
	store    *cart.Store
	settings *settings.Store
	server   *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	kv, err := storage.NewSQLiteKV(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	ledger, err := checkout.NewRepository("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, ledger.RunMigrations())
	t.Cleanup(func() { ledger.Close() })

	b := newFakeBackend()
	store := cart.NewStore(kv, nil)
	st := settings.NewStore(kv, nil)
	reconciler := cart.NewReconciler(store, b, cart.DefaultPricing(), nil)
	view := cart.NewView(store, reconciler)
	submitter := checkout.NewSubmitter(store, b, ledger, checkout.NewAddressResolver(st, nil), nil)

	messages := chanFeed[[]domain.Message]{updates: []live.Update[[]domain.Message]{
		{Value: []domain.Message{{ID: "m1", Body: "ayubowan"}}},
		{Err: &api.APIError{Kind: api.KindNetwork, Message: "offline"}},
	}}
	deliveries := chanFeed[*domain.Delivery]{updates: []live.Update[*domain.Delivery]{
		{Value: &domain.Delivery{OrderID: "o1", Status: "ON_THE_WAY", Location: domain.Coordinates{Lat: 6.9, Lon: 79.8}}},
	}}

	timeout := 5 * time.Second
	handler := NewRouter(RouterConfig{RequestTimeout: timeout, MaxRequestBodySize: 1 << 20}, Handlers{
		Cart:     NewCartHandler(view, reconciler, timeout),
		Checkout: NewCheckoutHandler(submitter, view, timeout),
		Orders:   NewOrdersHandler(b, timeout),
		Catalog:  NewCatalogHandler(b, timeout),
		Account:  NewAccountHandler(b, st, nil, timeout),
		Live:     NewLiveHandler(messages, deliveries, b, timeout),
		Media:    NewMediaHandler(media.NewUploader(b, nil), 1<<20, timeout),
		Tokens:   st,
	}, zap.NewNop())

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &testEnv{backend: b, store: store, settings: st, server: srv}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.server.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/v1/auth/login", LoginRequestDTO{Email: "k@example.com", Password: "secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestCart_AddAndPrice(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ItemKey: "A", Delta: 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	priced := decode[cart.Priced](t, resp)
	assert.Equal(t, 2400.0, priced.Subtotal)
	assert.Equal(t, 350.0, priced.Shipping)
	assert.Equal(t, 2750.0, priced.Total)

	resp = env.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ItemKey: "C", Delta: 1})
	priced = decode[cart.Priced](t, resp)
	assert.Equal(t, 6400.0, priced.Subtotal)
	assert.Equal(t, 0.0, priced.Shipping)

	resp = env.do(t, http.MethodGet, "/api/v1/cart?selected=A", nil)
	priced = decode[cart.Priced](t, resp)
	assert.Equal(t, []string{"A"}, priced.SelectedKeys())
	assert.Equal(t, 2750.0, priced.Total)

	// the explicit selection does not stick
	resp = env.do(t, http.MethodGet, "/api/v1/cart", nil)
	priced = decode[cart.Priced](t, resp)
	assert.Equal(t, []string{"A", "C"}, priced.SelectedKeys())
}

func TestCart_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		code   string
	}{
		{"missing key", http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{Delta: 1}, "invalid_item_key"},
		{"zero delta", http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ItemKey: "A"}, "invalid_delta"},
		{"negative quantity", http.MethodPut, "/api/v1/cart/items/A", UpdateQuantityRequestDTO{Quantity: -1}, "invalid_quantity"},
		{"bad json", http.MethodPost, "/api/v1/cart/items", "nope", "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, resp).Code)
		})
	}
}

func TestCart_QuantityHasNoLocalUpperBound(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ItemKey: "A", Delta: 1})

	resp := env.do(t, http.MethodPut, "/api/v1/cart/items/A", UpdateQuantityRequestDTO{Quantity: 1500})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	priced := decode[cart.Priced](t, resp)
	require.Len(t, priced.Lines, 1)
	assert.Equal(t, 1500, priced.Lines[0].Entry.Quantity)

	resp = env.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ItemKey: "A", Delta: 1000})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCart_UnknownItemIsPruned(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ItemKey: "ghost", Delta: 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	priced := decode[cart.Priced](t, resp)
	assert.Equal(t, []string{"ghost"}, priced.Removed)
	assert.Empty(t, priced.Lines)
}

func TestCart_SelectionRoutes(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ItemKey: "A", Delta: 1})
	env.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ItemKey: "B", Delta: 1})

	priced := decode[cart.Priced](t, env.do(t, http.MethodDelete, "/api/v1/cart/selection/A", nil))
	assert.Equal(t, []string{"B"}, priced.SelectedKeys())

	priced = decode[cart.Priced](t, env.do(t, http.MethodPut, "/api/v1/cart/selection", SelectionRequestDTO{All: false}))
	assert.Empty(t, priced.SelectedKeys())

	priced = decode[cart.Priced](t, env.do(t, http.MethodPost, "/api/v1/cart/selection/B", nil))
	assert.Equal(t, []string{"B"}, priced.SelectedKeys())

	priced = decode[cart.Priced](t, env.do(t, http.MethodDelete, "/api/v1/cart/items/B", nil))
	assert.Len(t, priced.Lines, 1)

	priced = decode[cart.Priced](t, env.do(t, http.MethodDelete, "/api/v1/cart", nil))
	assert.Empty(t, priced.Lines)
}

func TestCheckout_RequiresLogin(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/v1/checkout", CheckoutRequestDTO{Selected: []string{"A"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCheckout_SubmitsSelection(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.do(t, http.MethodPut, "/api/v1/profile/address", AddressRequestDTO{Address: "5 Lake Rd, Kandy"})
	for _, k := range []string{"A", "B", "C"} {
		env.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ItemKey: k, Delta: 1})
	}
	env.do(t, http.MethodDelete, "/api/v1/cart/selection/C", nil)

	resp := env.do(t, http.MethodPost, "/api/v1/checkout", map[string]string{"note": "wrap it"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	order := decode[domain.Order](t, resp)
	assert.Equal(t, "o1", order.ID)

	require.Len(t, env.backend.orders, 1)
	assert.Equal(t, "5 Lake Rd, Kandy", env.backend.orders[0].Address)
	assert.Len(t, env.backend.orders[0].Items, 2)

	c, err := env.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, c.Keys())

	priced := decode[cart.Priced](t, env.do(t, http.MethodGet, "/api/v1/cart", nil))
	assert.Empty(t, priced.SelectedKeys())
}

func TestCheckout_DefaultsToWholeCartBeforeAnyCartView(t *testing.T) {
	env := newTestEnv(t)
	for _, k := range []string{"A", "B"} {
		_, err := env.store.Add(context.Background(), k, 1)
		require.NoError(t, err)
	}
	env.login(t)
	env.do(t, http.MethodPut, "/api/v1/profile/address", AddressRequestDTO{Address: "5 Lake Rd, Kandy"})

	resp := env.do(t, http.MethodPost, "/api/v1/checkout/quote", map[string]string{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/checkout", map[string]string{"note": "x"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, env.backend.orders, 1)
	assert.Len(t, env.backend.orders[0].Items, 2)

	c, err := env.store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, c.Keys())
}

func TestCheckout_Failures(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ItemKey: "A", Delta: 1})

	resp := env.do(t, http.MethodPost, "/api/v1/checkout", CheckoutRequestDTO{Selected: []string{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "nothing_selected", decode[ErrorResponse](t, resp).Code)

	resp = env.do(t, http.MethodPost, "/api/v1/checkout", CheckoutRequestDTO{Selected: []string{"A"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "no_address", decode[ErrorResponse](t, resp).Code)

	env.backend.orderErr = &api.APIError{Kind: api.KindServer, Status: http.StatusInternalServerError, Message: "db down"}
	resp = env.do(t, http.MethodPost, "/api/v1/checkout", CheckoutRequestDTO{Selected: []string{"A"}, Address: "Galle"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	c, err := env.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, c.Keys())
}

func TestCheckout_Quote(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ItemKey: "A", Delta: 1})

	resp := env.do(t, http.MethodPost, "/api/v1/checkout/quote", CheckoutRequestDTO{Selected: []string{"A"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1550.0, decode[domain.Quote](t, resp).Total)
}

func TestAccount_LoginLogout(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/auth/login", LoginRequestDTO{Email: "k@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/auth/login", LoginRequestDTO{Email: "k@example.com", Password: "secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[ProfileResponseDTO](t, resp)
	assert.True(t, profile.LoggedIn)
	assert.Equal(t, "Kamala", profile.Name)

	token, err := env.settings.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jwt", token)

	resp = env.do(t, http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	profile = decode[ProfileResponseDTO](t, env.do(t, http.MethodGet, "/api/v1/profile", nil))
	assert.False(t, profile.LoggedIn)
}

func TestAccount_Location(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPut, "/api/v1/profile/location", domain.Coordinates{Lat: 95, Lon: 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/api/v1/profile/location", domain.Coordinates{Lat: 7.29, Lon: 80.63})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[ProfileResponseDTO](t, resp)
	require.NotNil(t, profile.Location)
	assert.Equal(t, 7.29, profile.Location.Lat)
}

func TestCatalog_ErrorMapping(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/items/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode[ErrorResponse](t, resp)
	assert.Equal(t, "not_found", body.Code)
	assert.Equal(t, "not_found", body.Details)

	resp = env.do(t, http.MethodGet, "/api/v1/shops/s1/items", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/shops", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []*domain.Shop{}, decode[ShopsResponse](t, resp).Shops)
}

func TestOrders_UpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	resp := env.do(t, http.MethodPut, "/api/v1/orders/o1/status", UpdateStatusRequestDTO{Status: "lost"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/api/v1/orders/o1/status", UpdateStatusRequestDTO{Status: "shipped"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.OrderStatusShipped, decode[domain.Order](t, resp).Status)

	resp = env.do(t, http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]domain.Order](t, resp))
}

func readEvents(t *testing.T, body io.Reader, n int) []string {
	t.Helper()
	var events []string
	sc := bufio.NewScanner(body)
	var current string
	for sc.Scan() && len(events) < n {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			events = append(events, current+" "+strings.TrimPrefix(line, "data: "))
		}
	}
	return events
}

func TestLive_StreamsUpdatesAndErrors(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	resp := env.do(t, http.MethodGet, "/api/v1/live/messages/c1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := readEvents(t, resp.Body, 2)
	require.Len(t, events, 2)
	assert.Contains(t, events[0], `update [{"id":"m1"`)
	assert.Contains(t, events[1], `error {"error":`)
	assert.Contains(t, events[1], `"code":"service_unavailable"`)

	resp = env.do(t, http.MethodGet, "/api/v1/live/deliveries/o1", nil)
	events = readEvents(t, resp.Body, 1)
	require.Len(t, events, 1)
	assert.Contains(t, events[0], `"status":"ON_THE_WAY"`)
}

func TestLive_SendMessage(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	resp := env.do(t, http.MethodPost, "/api/v1/live/messages/c1", SendMessageRequestDTO{Text: " "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/live/messages/c1", SendMessageRequestDTO{Text: "is it handmade?"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "c1", decode[domain.Message](t, resp).ConversationID)
}

func uploadRequest(t *testing.T, url string, names ...string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, n := range names {
		part, err := mw.CreateFormFile("files", n)
		require.NoError(t, err)
		_, err = part.Write([]byte("bytes of " + n))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestMedia_Upload(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	resp, err := env.server.Client().Do(uploadRequest(t, env.server.URL+"/api/v1/media", "a.jpg", "b.jpg"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, []string{"https://cdn.example/a.jpg", "https://cdn.example/b.jpg"}, decode[UploadResponseDTO](t, resp).URLs)
}

func TestMedia_PartialFailure(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.backend.uploadErr = &api.APIError{Kind: api.KindNetwork, Message: "reset"}

	resp, err := env.server.Client().Do(uploadRequest(t, env.server.URL+"/api/v1/media", "a.jpg", "b.jpg", "c.jpg"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decode[UploadResponseDTO](t, resp)
	assert.Equal(t, []string{"https://cdn.example/a.jpg"}, body.URLs)
	assert.Contains(t, body.Error, "upload b.jpg")
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{checkout.ErrNothingSelected, http.StatusBadRequest},
		{checkout.ErrNoAddress, http.StatusBadRequest},
		{cart.ErrInvalidKey, http.StatusBadRequest},
		{&api.APIError{Kind: api.KindNotFound}, http.StatusNotFound},
		{&api.APIError{Kind: api.KindValidation}, http.StatusBadRequest},
		{&api.APIError{Kind: api.KindUnauthorized}, http.StatusUnauthorized},
		{&api.APIError{Kind: api.KindShape}, http.StatusBadGateway},
		{&api.APIError{Kind: api.KindNetwork}, http.StatusServiceUnavailable},
		{&api.APIError{Kind: api.KindUnavailable}, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got, _ := errorStatus(tt.err)
		assert.Equal(t, tt.want, got, "%v", tt.err)
	}
}

func TestHandleError_HidesInternalMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	handleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("sqlite: disk I/O error"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "internal server error", body.Error)
}
