package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/pkg/apperr"
	"github.com/ghuser/storefront/pkg/config"
	"github.com/ghuser/storefront/pkg/logger"
	cartdomain "github.com/ghuser/storefront/services/cart/domain"
	"github.com/ghuser/storefront/services/cart/domain/models"
)

type lineKey struct{ user, item uuid.UUID }

// memCartRepo mimics the atomic upsert: the whole read-modify-write happens
// under one lock, the way the row lock serializes ON CONFLICT updates.
type memCartRepo struct {
	mu        sync.Mutex
	lines     map[lineKey]*models.CartItem
	items     map[uuid.UUID]bool
	conflicts int // number of leading calls that fail with a serialization error
	calls     int
}

func newMemCartRepo(items ...uuid.UUID) *memCartRepo {
	known := make(map[uuid.UUID]bool, len(items))
	for _, id := range items {
		known[id] = true
	}
	return &memCartRepo{lines: make(map[lineKey]*models.CartItem), items: known}
}

func (m *memCartRepo) AddOrIncrement(_ context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.conflicts > 0 {
		m.conflicts--
		return nil, fmt.Errorf("%w: upsert cart item", apperr.ErrWriteConflict)
	}
	if !m.items[itemID] {
		return nil, cartdomain.ErrItemNotFound
	}
	k := lineKey{userID, itemID}
	line, ok := m.lines[k]
	if !ok {
		line = &models.CartItem{ID: uuid.New(), UserID: userID, ItemID: itemID, CreatedAt: time.Now()}
		m.lines[k] = line
	}
	line.Quantity++
	cp := *line
	return &cp, nil
}

func newTestLogger() logger.Logger {
	return logger.New(&config.Config{LogLevel: "error"})
}

func TestAddItem_FirstAddCreatesLine(t *testing.T) {
	itemID := uuid.New()
	svc := NewCartService(newMemCartRepo(itemID), newTestLogger())

	line, err := svc.AddItem(context.Background(), uuid.New(), itemID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", line.Quantity)
	}
}

func TestAddItem_RepeatIncrements(t *testing.T) {
	itemID := uuid.New()
	userID := uuid.New()
	svc := NewCartService(newMemCartRepo(itemID), newTestLogger())

	first, _ := svc.AddItem(context.Background(), userID, itemID)
	second, err := svc.AddItem(context.Background(), userID, itemID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Quantity != 2 || second.ID != first.ID {
		t.Fatalf("expected same line with quantity 2, got %+v", second)
	}
}

func TestAddItem_ConcurrentCallsKeepEveryIncrement(t *testing.T) {
	const n = 50
	itemID := uuid.New()
	userID := uuid.New()
	repo := newMemCartRepo(itemID)
	svc := NewCartService(repo, newTestLogger())

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddItem(context.Background(), userID, itemID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.lines) != 1 {
		t.Fatalf("expected exactly one line, got %d", len(repo.lines))
	}
	if got := repo.lines[lineKey{userID, itemID}].Quantity; got != n {
		t.Fatalf("expected quantity %d, got %d", n, got)
	}
}

func TestAddItem_Unauthenticated(t *testing.T) {
	repo := newMemCartRepo()
	svc := NewCartService(repo, newTestLogger())

	_, err := svc.AddItem(context.Background(), uuid.Nil, uuid.New())
	if !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if repo.calls != 0 {
		t.Fatal("store must not be touched without a user")
	}
}

func TestAddItem_UnknownItem(t *testing.T) {
	svc := NewCartService(newMemCartRepo(), newTestLogger())

	_, err := svc.AddItem(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, cartdomain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("ErrItemNotFound must match apperr.ErrNotFound, got %v", err)
	}
}

func TestAddItem_RetriesWriteConflict(t *testing.T) {
	itemID := uuid.New()
	repo := newMemCartRepo(itemID)
	repo.conflicts = 2
	svc := NewCartService(repo, newTestLogger())

	line, err := svc.AddItem(context.Background(), uuid.New(), itemID)
	if err != nil {
		t.Fatalf("expected conflicts to be retried, got %v", err)
	}
	if line.Quantity != 1 || repo.calls != 3 {
		t.Fatalf("expected quantity 1 after 3 calls, got quantity %d after %d calls", line.Quantity, repo.calls)
	}
}

func TestAddItem_PersistentConflictSurfaces(t *testing.T) {
	itemID := uuid.New()
	repo := newMemCartRepo(itemID)
	repo.conflicts = 10
	svc := NewCartService(repo, newTestLogger())

	_, err := svc.AddItem(context.Background(), uuid.New(), itemID)
	if !errors.Is(err, apperr.ErrWriteConflict) {
		t.Fatalf("expected ErrWriteConflict, got %v", err)
	}
}
