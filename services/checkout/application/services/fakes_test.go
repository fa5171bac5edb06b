package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgcache "github.com/ghuser/storefront/pkg/cache"
	"github.com/ghuser/storefront/pkg/config"
	"github.com/ghuser/storefront/pkg/logger"
	checkoutdomain "github.com/ghuser/storefront/services/checkout/domain"
	"github.com/ghuser/storefront/services/checkout/domain/models"
)

func testLogger() logger.Logger {
	return logger.New(&config.Config{LogLevel: "error"})
}

func newRedis(t *testing.T) (*pkgcache.RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return pkgcache.WrapRedisClient(rdb), mr
}

// memCarts is an in-memory cart store shared by concurrent checkouts.
type memCarts struct {
	mu        sync.Mutex
	lines     map[uuid.UUID][]models.CartLine
	deleteErr error
	onLoad    func()
	afterLoad func()
}

func newMemCarts() *memCarts {
	return &memCarts{lines: make(map[uuid.UUID][]models.CartLine)}
}

func (m *memCarts) add(userID uuid.UUID, name string, price int64, qty int) models.CartLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := models.CartLine{CartItemID: uuid.New(), ItemID: uuid.New(), Name: name, Price: price, Quantity: qty}
	m.lines[userID] = append(m.lines[userID], l)
	return l
}

func (m *memCarts) count(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lines[userID])
}

func (m *memCarts) LoadCart(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	if m.onLoad != nil {
		m.onLoad()
	}
	m.mu.Lock()
	cart := &models.Cart{UserID: userID, Lines: slices.Clone(m.lines[userID])}
	m.mu.Unlock()
	if m.afterLoad != nil {
		m.afterLoad()
	}
	return cart, nil
}

func (m *memCarts) DeleteLines(_ context.Context, userID uuid.UUID, purchased []models.PurchasedLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	bought := make(map[uuid.UUID]int, len(purchased))
	for _, p := range purchased {
		bought[p.CartItemID] = p.Quantity
	}
	kept := m.lines[userID][:0]
	for _, l := range m.lines[userID] {
		if qty, ok := bought[l.CartItemID]; ok {
			if l.Quantity <= qty {
				continue
			}
			l.Quantity -= qty
		}
		kept = append(kept, l)
	}
	m.lines[userID] = kept
	return nil
}

// bump adds n to a line already in the cart, like a concurrent AddItem.
func (m *memCarts) bump(userID, cartItemID uuid.UUID, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.lines[userID] {
		if m.lines[userID][i].CartItemID == cartItemID {
			m.lines[userID][i].Quantity += n
		}
	}
}

func (m *memCarts) quantity(userID, cartItemID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lines[userID] {
		if l.CartItemID == cartItemID {
			return l.Quantity
		}
	}
	return 0
}

// memOrders enforces one order per charge like the charge_id unique key.
type memOrders struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*models.Order
	createErr error
	// commitOnErr stores the order before returning createErr, like a commit
	// whose acknowledgement was lost.
	commitOnErr bool
	findErr     error
	gets        int
}

func newMemOrders() *memOrders {
	return &memOrders{byID: make(map[uuid.UUID]*models.Order)}
}

func (m *memOrders) Create(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.ChargeID == o.ChargeID {
			return checkoutdomain.ErrOrderExists
		}
	}
	if m.createErr != nil && !m.commitOnErr {
		return m.createErr
	}
	m.byID[o.ID] = o
	return m.createErr
}

func (m *memOrders) GetByID(_ context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	o, ok := m.byID[orderID]
	if !ok || o.UserID != userID {
		return nil, checkoutdomain.ErrOrderNotFound
	}
	return o, nil
}

func (m *memOrders) FindByChargeID(_ context.Context, chargeID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, o := range m.byID {
		if o.ChargeID == chargeID {
			return o, nil
		}
	}
	return nil, checkoutdomain.ErrOrderNotFound
}

func (m *memOrders) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// fakeGateway honours idempotency keys: a repeated key returns the first
// charge without capturing again.
type fakeGateway struct {
	mu        sync.Mutex
	byKey     map[string]*models.Charge
	captured  int
	keys      []string
	chargeErr error
	refundErr error
	refunds   []string
	// capture overrides the captured amount when non-zero.
	capture int64
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{byKey: make(map[string]*models.Charge)}
}

func (g *fakeGateway) Charge(_ context.Context, req models.ChargeRequest) (*models.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.keys = append(g.keys, req.IdempotencyKey)
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	if c, ok := g.byKey[req.IdempotencyKey]; ok {
		return c, nil
	}
	g.captured++
	amount := req.Amount
	if g.capture != 0 {
		amount = g.capture
	}
	c := &models.Charge{ID: fmt.Sprintf("ch_%d", g.captured), Amount: amount, Currency: req.Currency}
	g.byKey[req.IdempotencyKey] = c
	return c, nil
}

func (g *fakeGateway) Refund(_ context.Context, chargeID, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return g.refundErr
	}
	g.refunds = append(g.refunds, chargeID)
	return nil
}

type scheduledClear struct {
	orderID, userID uuid.UUID
	lines           []models.PurchasedLine
}

type recordingScheduler struct {
	mu    sync.Mutex
	calls []scheduledClear
}

func (s *recordingScheduler) ScheduleClear(_ context.Context, orderID, userID uuid.UUID, lines []models.PurchasedLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, scheduledClear{orderID, userID, lines})
	return nil
}

type reportedError struct {
	err  error
	tags map[string]string
}

type checkoutFixture struct {
	svc     *CheckoutService
	carts   *memCarts
	orders  *memOrders
	gateway *fakeGateway
	guard   *pkgcache.CheckoutGuard
	clears  *recordingScheduler
	mr      *miniredis.Miniredis

	mu       sync.Mutex
	reported []reportedError
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	rc, mr := newRedis(t)
	f := &checkoutFixture{
		carts:   newMemCarts(),
		orders:  newMemOrders(),
		gateway: newFakeGateway(),
		guard:   pkgcache.NewCheckoutGuard(rc, 5*time.Second),
		clears:  &recordingScheduler{},
		mr:      mr,
	}
	f.svc = NewCheckoutService(CheckoutDeps{
		Carts:   f.carts,
		Orders:  f.orders,
		Gateway: f.gateway,
		Guard:   f.guard,
		Clears:  f.clears,
		Report: func(_ context.Context, err error, tags map[string]string) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.reported = append(f.reported, reportedError{err, tags})
		},
		Currency: "usd",
		Logger:   testLogger(),
	})
	return f
}
