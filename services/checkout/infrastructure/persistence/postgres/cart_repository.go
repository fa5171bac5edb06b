package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/pkg/database"
	"github.com/ghuser/storefront/services/checkout/domain/models"
	"github.com/ghuser/storefront/services/checkout/infrastructure/persistence/postgres/db"
)

// CartRepository implements repositories.CartRepository against PostgreSQL.
type CartRepository struct {
	db *database.Database
}

// NewCartRepository returns a CartRepository backed by the given connection pool.
func NewCartRepository(db *database.Database) *CartRepository {
	return &CartRepository{db: db}
}

// LoadCart reads every line of the user with the item data current at read time.
func (r *CartRepository) LoadCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	q := db.New(r.db.DB())
	rows, err := q.ListCartLines(ctx, userID)
	if err != nil {
		return nil, database.Classify(err, "query cart")
	}

	cart := &models.Cart{UserID: userID, Lines: make([]models.CartLine, len(rows))}
	for i, row := range rows {
		cart.Lines[i] = models.CartLine{
			CartItemID:  row.ID,
			ItemID:      row.ItemID,
			Name:        row.Name,
			Description: row.Description,
			ImageURL:    row.ImageUrl,
			Price:       row.Price,
			Quantity:    int(row.Quantity),
		}
	}
	return cart, nil
}

// DeleteLines removes the purchased lines in one transaction. A line still at
// or below its purchased quantity is deleted; a line that grew meanwhile is
// decremented instead.
func (r *CartRepository) DeleteLines(ctx context.Context, userID uuid.UUID, lines []models.PurchasedLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		q := db.New(tx)
		for _, l := range lines {
			deleted, err := q.DeletePurchasedLine(ctx, db.DeletePurchasedLineParams{
				UserID:   userID,
				ID:       l.CartItemID,
				Quantity: int32(l.Quantity),
			})
			if err != nil {
				return database.Classify(err, "delete cart line")
			}
			if deleted > 0 {
				continue
			}
			if _, err := q.DecrementPurchasedLine(ctx, db.DecrementPurchasedLineParams{
				UserID:   userID,
				ID:       l.CartItemID,
				Quantity: int32(l.Quantity),
			}); err != nil {
				return database.Classify(err, "decrement cart line")
			}
		}
		return nil
	})
}
