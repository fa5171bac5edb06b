package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ghuser/storefront/pkg/apperr"
	pkgcache "github.com/ghuser/storefront/pkg/cache"
	"github.com/ghuser/storefront/pkg/logger"
	"github.com/ghuser/storefront/services/checkout/domain/models"
	"github.com/ghuser/storefront/services/checkout/domain/repositories"
)

// OrderService serves the order read side. Reads are served from Redis when
// available.
type OrderService struct {
	repo  repositories.OrderRepository
	cache *pkgcache.OrderCache
	log   logger.Logger
}

// NewOrderService returns an OrderService. orderCache may be nil.
func NewOrderService(repo repositories.OrderRepository, orderCache *pkgcache.OrderCache, log logger.Logger) *OrderService {
	return &OrderService{repo: repo, cache: orderCache, log: log}
}

// GetByID retrieves one of the user's orders using a read-through cache:
//  1. Check Redis first.
//  2. On miss (or cache error), query Postgres.
//  3. Warm the cache with the Postgres result.
func (s *OrderService) GetByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, apperr.ErrUnauthenticated
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID, orderID)
		if err == nil {
			return FromCachedOrder(cached), nil
		}
		if !errors.Is(err, redis.Nil) {
			s.log.WarnContext(ctx, "order cache read failed", "order_id", orderID, "error", err)
		}
	}

	order, err := s.repo.GetByID(ctx, userID, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(context.WithoutCancel(ctx), ToCachedOrder(order)); err != nil {
			s.log.WarnContext(ctx, "order cache warm failed", "order_id", orderID, "error", err)
		}
	}
	return order, nil
}

// ToCachedOrder maps an order to its Redis read model.
func ToCachedOrder(o *models.Order) *pkgcache.CachedOrder {
	items := make([]pkgcache.CachedOrderItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = pkgcache.CachedOrderItem{
			Name:        it.Name,
			Description: it.Description,
			ImageURL:    it.ImageURL,
			Price:       it.Price,
			Quantity:    it.Quantity,
		}
	}
	return &pkgcache.CachedOrder{
		ID:        o.ID,
		UserID:    o.UserID,
		ChargeID:  o.ChargeID,
		Currency:  o.Currency,
		Total:     o.Total,
		CreatedAt: o.CreatedAt,
		Items:     items,
	}
}

// FromCachedOrder maps the Redis read model back to an order. Item ids are
// not cached and come back as uuid.Nil.
func FromCachedOrder(c *pkgcache.CachedOrder) *models.Order {
	items := make([]models.OrderItem, len(c.Items))
	for i, it := range c.Items {
		items[i] = models.OrderItem{
			Name:        it.Name,
			Description: it.Description,
			ImageURL:    it.ImageURL,
			Price:       it.Price,
			Quantity:    it.Quantity,
		}
	}
	return &models.Order{
		ID:        c.ID,
		UserID:    c.UserID,
		ChargeID:  c.ChargeID,
		Currency:  c.Currency,
		Total:     c.Total,
		CreatedAt: c.CreatedAt,
		Items:     items,
	}
}
