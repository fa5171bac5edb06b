package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/storefront/pkg/database/dbtest"
	checkoutdomain "github.com/ghuser/storefront/services/checkout/domain"
	"github.com/ghuser/storefront/services/checkout/domain/models"
	domainsvcs "github.com/ghuser/storefront/services/checkout/domain/services"
)

type fixture struct {
	pg     *dbtest.Postgres
	userID uuid.UUID
	carts  *CartRepository
	orders *OrderRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pg := dbtest.New(t)
	userID := uuid.New()
	pg.Exec(t, `INSERT INTO users (id, email, password_hash) VALUES ($1, 'buyer@example.com', 'x')`, userID)
	return &fixture{pg: pg, userID: userID, carts: NewCartRepository(pg.Database), orders: NewOrderRepository(pg.Database, nil)}
}

// addLine puts qty of a new item priced price into the cart.
func (f *fixture) addLine(t *testing.T, name string, price int64, qty int) uuid.UUID {
	t.Helper()
	itemID, lineID := uuid.New(), uuid.New()
	f.pg.Exec(t, `INSERT INTO items (id, name, price) VALUES ($1, $2, $3)`, itemID, name, price)
	f.pg.Exec(t, `INSERT INTO cart_items (id, user_id, item_id, quantity) VALUES ($1, $2, $3, $4)`, lineID, f.userID, itemID, qty)
	return lineID
}

func (f *fixture) quantity(t *testing.T, lineID uuid.UUID) int {
	t.Helper()
	var qty int
	err := f.pg.DB().QueryRowContext(context.Background(), `SELECT COALESCE(sum(quantity), 0) FROM cart_items WHERE id = $1`, lineID).Scan(&qty)
	require.NoError(t, err)
	return qty
}

func TestLoadCart_JoinsItemData(t *testing.T) {
	f := newFixture(t)
	a := f.addLine(t, "Item A", 500, 2)
	f.addLine(t, "Item B", 1500, 1)

	cart, err := f.carts.LoadCart(context.Background(), f.userID)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 2)
	assert.Equal(t, a, cart.Lines[0].CartItemID)
	assert.Equal(t, int64(2500), domainsvcs.CartTotal(cart.Lines))

	empty, err := f.carts.LoadCart(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

func TestDeleteLines_RemovesOnlyPurchasedQuantity(t *testing.T) {
	f := newFixture(t)
	exact := f.addLine(t, "Item A", 500, 2)
	grown := f.addLine(t, "Item B", 1500, 1)
	untouched := f.addLine(t, "Item C", 700, 1)

	cart, err := f.carts.LoadCart(context.Background(), f.userID)
	require.NoError(t, err)
	purchased := cart.Purchased()[:2]

	f.pg.Exec(t, `UPDATE cart_items SET quantity = quantity + 2 WHERE id = $1`, grown)

	require.NoError(t, f.carts.DeleteLines(context.Background(), f.userID, purchased))
	assert.Zero(t, f.quantity(t, exact))
	assert.Equal(t, 2, f.quantity(t, grown))
	assert.Equal(t, 1, f.quantity(t, untouched))

	// A retried clear finds nothing left to take.
	require.NoError(t, f.carts.DeleteLines(context.Background(), f.userID, purchased))
	assert.Equal(t, 2, f.quantity(t, grown))
}

func TestDeleteLines_IgnoresOtherUsers(t *testing.T) {
	f := newFixture(t)
	line := f.addLine(t, "Item A", 500, 1)

	err := f.carts.DeleteLines(context.Background(), uuid.New(), []models.PurchasedLine{{CartItemID: line, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, f.quantity(t, line))
}

func newOrder(userID uuid.UUID, chargeID string) *models.Order {
	return &models.Order{
		ID:        uuid.New(),
		UserID:    userID,
		ChargeID:  chargeID,
		Currency:  "usd",
		Total:     2500,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		Items: []models.OrderItem{
			{ID: uuid.New(), Name: "Item A", Price: 500, Quantity: 2},
			{ID: uuid.New(), Name: "Item B", Description: "blue", Price: 1500, Quantity: 1},
		},
	}
}

func TestOrderRepository_CreateAndLoad(t *testing.T) {
	f := newFixture(t)
	order := newOrder(f.userID, "ch_1")
	require.NoError(t, f.orders.Create(context.Background(), order))

	got, err := f.orders.GetByID(context.Background(), f.userID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ChargeID, got.ChargeID)
	assert.Equal(t, order.Total, got.Total)
	assert.True(t, order.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, order.Items, got.Items)

	byCharge, err := f.orders.FindByChargeID(context.Background(), "ch_1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byCharge.ID)

	_, err = f.orders.GetByID(context.Background(), uuid.New(), order.ID)
	require.ErrorIs(t, err, checkoutdomain.ErrOrderNotFound)
	_, err = f.orders.FindByChargeID(context.Background(), "ch_unknown")
	require.ErrorIs(t, err, checkoutdomain.ErrOrderNotFound)
}

func TestOrderRepository_DuplicateChargeIsOrderExists(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.orders.Create(context.Background(), newOrder(f.userID, "ch_1")))

	err := f.orders.Create(context.Background(), newOrder(f.userID, "ch_1"))
	require.ErrorIs(t, err, checkoutdomain.ErrOrderExists)

	var n int
	require.NoError(t, f.pg.DB().QueryRowContext(context.Background(), `SELECT count(*) FROM order_items`).Scan(&n))
	assert.Equal(t, 2, n, "the rejected order leaves no items behind")
}
