package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/pkg/database"
	"github.com/ghuser/storefront/pkg/events"
	checkoutdomain "github.com/ghuser/storefront/services/checkout/domain"
	domainevents "github.com/ghuser/storefront/services/checkout/domain/events"
	"github.com/ghuser/storefront/services/checkout/domain/models"
	"github.com/ghuser/storefront/services/checkout/infrastructure/persistence/postgres/db"
)

const constraintOrderChargeUnique = "orders_charge_id_key"

// OrderRepository implements repositories.OrderRepository against PostgreSQL.
type OrderRepository struct {
	db  *database.Database
	bus *events.EventBus
}

// NewOrderRepository returns an OrderRepository backed by the given connection
// pool and event bus. The bus publishes OrderPlacedEvents inside the order's
// transaction (outbox). A nil bus disables publishing.
func NewOrderRepository(db *database.Database, bus *events.EventBus) *OrderRepository {
	return &OrderRepository{db: db, bus: bus}
}

// Create persists the order and its items and publishes OrderPlacedEvent
// within the same transaction.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		q := db.New(tx)
		if err := q.InsertOrder(ctx, db.InsertOrderParams{
			ID:        order.ID,
			UserID:    order.UserID,
			ChargeID:  order.ChargeID,
			Currency:  order.Currency,
			Total:     order.Total,
			CreatedAt: order.CreatedAt,
		}); err != nil {
			if database.PgCode(err) == database.CodeUniqueViolation && database.ConstraintName(err) == constraintOrderChargeUnique {
				return checkoutdomain.ErrOrderExists
			}
			return database.Classify(err, "insert order")
		}

		for i, it := range order.Items {
			if err := q.InsertOrderItem(ctx, db.InsertOrderItemParams{
				ID:          it.ID,
				OrderID:     order.ID,
				Position:    int32(i),
				Name:        it.Name,
				Description: it.Description,
				ImageUrl:    it.ImageURL,
				Price:       it.Price,
				Quantity:    int32(it.Quantity),
			}); err != nil {
				return database.Classify(err, "insert order item")
			}
		}

		if r.bus != nil {
			if err := r.publishPlaced(ctx, tx, order); err != nil {
				return database.Classify(err, "publish order placed")
			}
		}
		return nil
	})
}

// GetByID loads the user's order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	q := db.New(r.db.DB())
	row, err := q.GetOrderByID(ctx, db.GetOrderByIDParams{ID: orderID, UserID: userID})
	return r.withItems(ctx, q, row, err)
}

// FindByChargeID loads the order paid by chargeID.
func (r *OrderRepository) FindByChargeID(ctx context.Context, chargeID string) (*models.Order, error) {
	q := db.New(r.db.DB())
	row, err := q.GetOrderByChargeID(ctx, chargeID)
	return r.withItems(ctx, q, row, err)
}

func (r *OrderRepository) withItems(ctx context.Context, q *db.Queries, row db.Order, err error) (*models.Order, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, checkoutdomain.ErrOrderNotFound
		}
		return nil, database.Classify(err, "query order")
	}

	items, err := q.ListOrderItems(ctx, row.ID)
	if err != nil {
		return nil, database.Classify(err, "query order items")
	}
	return rowToOrder(row, items), nil
}

func (r *OrderRepository) publishPlaced(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	items := make([]domainevents.OrderPlacedItem, len(order.Items))
	for i, it := range order.Items {
		items[i] = domainevents.OrderPlacedItem{
			Name:        it.Name,
			Description: it.Description,
			ImageURL:    it.ImageURL,
			Price:       it.Price,
			Quantity:    it.Quantity,
		}
	}
	event := domainevents.OrderPlacedEvent{
		EventID:    uuid.New(),
		Version:    1,
		OrderID:    order.ID,
		UserID:     order.UserID,
		ChargeID:   order.ChargeID,
		Currency:   order.Currency,
		Total:      order.Total,
		Items:      items,
		OccurredAt: order.CreatedAt,
	}
	msg, err := events.NewEventMessage(event.EventID.String(), event.Version, event)
	if err != nil {
		return err
	}
	return r.bus.PublishInTx(ctx, tx, domainevents.TopicOrderPlaced, msg)
}

// rowToOrder maps a db.Order and its items to a domain models.Order.
func rowToOrder(row db.Order, items []db.OrderItem) *models.Order {
	o := &models.Order{
		ID:        row.ID,
		UserID:    row.UserID,
		ChargeID:  row.ChargeID,
		Currency:  row.Currency,
		Total:     row.Total,
		CreatedAt: row.CreatedAt,
	}
	for _, it := range items {
		o.Items = append(o.Items, models.OrderItem{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			ImageURL:    it.ImageUrl,
			Price:       it.Price,
			Quantity:    int(it.Quantity),
		})
	}
	return o
}
