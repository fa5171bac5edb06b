package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/pkg/apperr"
	"github.com/ghuser/storefront/pkg/database"
	cartdomain "github.com/ghuser/storefront/services/cart/domain"
	"github.com/ghuser/storefront/services/cart/domain/models"
	"github.com/ghuser/storefront/services/cart/infrastructure/persistence/postgres/db"
)

const (
	constraintCartItemFK = "cart_items_item_id_fkey"
	constraintCartUserFK = "cart_items_user_id_fkey"
)

// CartRepository implements repositories.CartRepository against PostgreSQL.
type CartRepository struct {
	db *database.Database
}

// NewCartRepository returns a CartRepository backed by the given connection pool.
func NewCartRepository(db *database.Database) *CartRepository {
	return &CartRepository{db: db}
}

// AddOrIncrement upserts the (user, item) line. The increment happens inside
// the ON CONFLICT clause, so concurrent callers serialize on the row lock and
// none of their increments is lost.
func (r *CartRepository) AddOrIncrement(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	q := db.New(r.db.DB())
	row, err := q.UpsertCartItem(ctx, db.UpsertCartItemParams{
		ID:     uuid.New(),
		UserID: userID,
		ItemID: itemID,
	})
	if err != nil {
		if database.PgCode(err) == database.CodeForeignKeyViolation {
			switch database.ConstraintName(err) {
			case constraintCartItemFK:
				return nil, cartdomain.ErrItemNotFound
			case constraintCartUserFK:
				return nil, fmt.Errorf("%w: unknown user", apperr.ErrUnauthenticated)
			}
		}
		return nil, database.Classify(err, "upsert cart item")
	}
	return rowToCartItem(row), nil
}

func rowToCartItem(row db.CartItem) *models.CartItem {
	return &models.CartItem{
		ID:        row.ID,
		UserID:    row.UserID,
		ItemID:    row.ItemID,
		Quantity:  int(row.Quantity),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
