package postgres

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/storefront/pkg/apperr"
	"github.com/ghuser/storefront/pkg/config"
	"github.com/ghuser/storefront/pkg/database/dbtest"
	"github.com/ghuser/storefront/pkg/events"
	accountdomain "github.com/ghuser/storefront/services/account/domain"
	domainevents "github.com/ghuser/storefront/services/account/domain/events"
	"github.com/ghuser/storefront/services/account/domain/models"
)

func seedUser(t *testing.T, pg *dbtest.Postgres, email string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	pg.Exec(t, `INSERT INTO users (id, email, password_hash) VALUES ($1, $2, 'old')`, id, email)
	return id
}

func notice(userID uuid.UUID, expiry time.Time) domainevents.PasswordResetRequestedEvent {
	return domainevents.PasswordResetRequestedEvent{
		EventID:     uuid.New(),
		Version:     1,
		UserID:      userID,
		Email:       "user@example.com",
		SealedToken: "sealed",
		ExpiresAt:   expiry,
		OccurredAt:  time.Now(),
	}
}

func TestIssueResetToken_ReplacesPendingToken(t *testing.T) {
	pg := dbtest.New(t)
	repo := NewUserRepository(pg.Database, nil)
	id := seedUser(t, pg, "user@example.com")
	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)

	require.NoError(t, repo.IssueResetToken(context.Background(), "hash-1", notice(id, expiry)))
	require.NoError(t, repo.IssueResetToken(context.Background(), "hash-2", notice(id, expiry)))

	_, err := repo.FindByResetToken(context.Background(), "hash-1")
	require.ErrorIs(t, err, accountdomain.ErrInvalidToken)

	u, err := repo.FindByResetToken(context.Background(), "hash-2")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, models.Email("user@example.com"), u.Email)
	assert.True(t, expiry.Equal(u.ResetTokenExpiry))
}

func TestIssueResetToken_UnknownUser(t *testing.T) {
	pg := dbtest.New(t)
	repo := NewUserRepository(pg.Database, nil)

	err := repo.IssueResetToken(context.Background(), "hash", notice(uuid.New(), time.Now().Add(time.Hour)))
	require.ErrorIs(t, err, accountdomain.ErrUserNotFound)
}

func TestIssueResetToken_PublishesNoticeWithToken(t *testing.T) {
	pg := dbtest.New(t)
	bus, err := events.NewEventBus(&config.Config{DatabaseURL: pg.URL, ServiceName: "storefront"}, pg.Log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	require.NoError(t, bus.InitializeTopic(domainevents.TopicPasswordResetRequested))

	repo := NewUserRepository(pg.Database, bus)
	id := seedUser(t, pg, "user@example.com")
	sent := notice(id, time.Now().Add(time.Hour))
	require.NoError(t, repo.IssueResetToken(context.Background(), "hash", sent))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	got := make(chan domainevents.PasswordResetRequestedEvent, 1)
	_, err = bus.Subscribe(ctx, domainevents.TopicPasswordResetRequested, func(_ context.Context, msg *message.Message) error {
		var evt domainevents.PasswordResetRequestedEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return err
		}
		got <- evt
		return nil
	})
	require.NoError(t, err)

	select {
	case evt := <-got:
		assert.Equal(t, sent.EventID, evt.EventID)
		assert.Equal(t, id, evt.UserID)
		assert.Equal(t, "sealed", evt.SealedToken)
	case <-ctx.Done():
		t.Fatal("reset notice was not delivered")
	}
}

func TestConsumeResetToken_OnlyOnce(t *testing.T) {
	pg := dbtest.New(t)
	repo := NewUserRepository(pg.Database, nil)
	id := seedUser(t, pg, "user@example.com")
	require.NoError(t, repo.IssueResetToken(context.Background(), "hash", notice(id, time.Now().Add(time.Hour))))

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = repo.ConsumeResetToken(context.Background(), id, "hash", "new-hash")
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrWriteConflict)
	}
	assert.Equal(t, 1, succeeded)

	u, err := repo.FindByEmail(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", u.PasswordHash)
	assert.Empty(t, u.ResetTokenHash)
	assert.True(t, u.ResetTokenExpiry.IsZero())
}

func TestConsumeResetToken_CheckViolationIsPolicyViolation(t *testing.T) {
	pg := dbtest.New(t)
	repo := NewUserRepository(pg.Database, nil)
	id := seedUser(t, pg, "user@example.com")
	require.NoError(t, repo.IssueResetToken(context.Background(), "hash", notice(id, time.Now().Add(time.Hour))))

	err := repo.ConsumeResetToken(context.Background(), id, "hash", strings.Repeat("x", 256))
	require.ErrorIs(t, err, accountdomain.ErrPolicyViolation)

	u, err := repo.FindByResetToken(context.Background(), "hash")
	require.NoError(t, err, "a rejected password keeps the token")
	assert.Equal(t, "old", u.PasswordHash)
}

func TestFindByEmail_Unknown(t *testing.T) {
	pg := dbtest.New(t)
	repo := NewUserRepository(pg.Database, nil)

	_, err := repo.FindByEmail(context.Background(), "none@example.com")
	require.ErrorIs(t, err, accountdomain.ErrUserNotFound)
}
