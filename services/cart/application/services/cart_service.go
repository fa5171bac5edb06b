package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/pkg/apperr"
	"github.com/ghuser/storefront/pkg/logger"
	"github.com/ghuser/storefront/pkg/retry"
	"github.com/ghuser/storefront/services/cart/domain/models"
	"github.com/ghuser/storefront/services/cart/domain/repositories"
)

// CartService manages the authenticated user's cart lines.
type CartService struct {
	repo repositories.CartRepository
	log  logger.Logger
}

// NewCartService returns a CartService wired with the given repository.
func NewCartService(repo repositories.CartRepository, log logger.Logger) *CartService {
	return &CartService{repo: repo, log: log}
}

// AddItem adds one unit of itemID to the user's cart. Concurrent calls for the
// same pair never lose an increment: N calls leave one line with quantity N.
func (s *CartService) AddItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, apperr.ErrUnauthenticated
	}

	line, err := retry.OnConflict(ctx, func(ctx context.Context) (*models.CartItem, error) {
		return s.repo.AddOrIncrement(ctx, userID, itemID)
	})
	if err != nil {
		return nil, fmt.Errorf("add item to cart: %w", err)
	}

	s.log.InfoContext(ctx, "cart item added",
		"user_id", userID, "item_id", itemID, "quantity", line.Quantity)
	return line, nil
}
