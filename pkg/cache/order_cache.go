package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// OrderCacheTTL is the time-to-live for cached orders.
	OrderCacheTTL = 24 * time.Hour

	orderCacheKeyPrefix = "order"
)

// CachedOrderItem is one line of a cached order snapshot.
type CachedOrderItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
}

// CachedOrder is the denormalized order read model stored in Redis.
// Scalar fields are hash fields; the line items are one JSON-encoded field.
type CachedOrder struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ChargeID  string
	Currency  string
	Total     int64
	CreatedAt time.Time
	Items     []CachedOrderItem
}

// OrderCache provides structured read/write operations for order cache entries.
// Keys are scoped by userID so one user can never read another user's order.
// Key format: "order:{userID}:{orderID}"
type OrderCache struct {
	client *RedisClient
}

// NewOrderCache creates a new OrderCache backed by the given RedisClient.
func NewOrderCache(r *RedisClient) *OrderCache {
	return &OrderCache{client: r}
}

// Get retrieves a cached order by user + order ID.
// Returns redis.Nil error when the key does not exist or has expired.
func (c *OrderCache) Get(ctx context.Context, userID, orderID uuid.UUID) (*CachedOrder, error) {
	vals, err := c.client.Client().HGetAll(ctx, c.key(userID, orderID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 {
		return nil, redis.Nil
	}

	id, err := uuid.Parse(vals["id"])
	if err != nil {
		return nil, fmt.Errorf("cache parse id: %w", err)
	}
	uid, err := uuid.Parse(vals["user_id"])
	if err != nil {
		return nil, fmt.Errorf("cache parse user_id: %w", err)
	}
	total, err := strconv.ParseInt(vals["total"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cache parse total: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, vals["created_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse created_at: %w", err)
	}
	var items []CachedOrderItem
	if err := json.Unmarshal([]byte(vals["items"]), &items); err != nil {
		return nil, fmt.Errorf("cache parse items: %w", err)
	}

	return &CachedOrder{
		ID:        id,
		UserID:    uid,
		ChargeID:  vals["charge_id"],
		Currency:  vals["currency"],
		Total:     total,
		CreatedAt: createdAt,
		Items:     items,
	}, nil
}

// Set writes a cached order as a Redis hash with a 24-hour TTL.
// Orders are write-once, so entries are never invalidated, only expired.
func (c *OrderCache) Set(ctx context.Context, order *CachedOrder) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("cache encode items: %w", err)
	}

	key := c.key(order.UserID, order.ID)
	pipe := c.client.Client().TxPipeline()
	pipe.HSet(ctx, key,
		"id", order.ID.String(),
		"user_id", order.UserID.String(),
		"charge_id", order.ChargeID,
		"currency", order.Currency,
		"total", strconv.FormatInt(order.Total, 10),
		"created_at", order.CreatedAt.UTC().Format(time.RFC3339Nano),
		"items", string(items),
	)
	pipe.Expire(ctx, key, OrderCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// key builds the Redis key: "order:{userID}:{orderID}"
func (c *OrderCache) key(userID, orderID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", orderCacheKeyPrefix, userID, orderID)
}
