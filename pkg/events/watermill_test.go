package events

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/storefront/pkg/config"
	"github.com/ghuser/storefront/pkg/logger"
)

func nopLogger() logger.Logger {
	return logger.New(&config.Config{LogLevel: "error"})
}

var fastRetry = HandlerRetry{Attempts: 3, BaseDelay: time.Millisecond}

func TestHandleWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failFirst int
		wantErr   bool
		wantCalls int
	}{
		{"success on first attempt", 0, false, 1},
		{"success after two failures", 2, false, 3},
		{"exhausts attempts", 10, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			handler := func(context.Context, *message.Message) error {
				calls++
				if calls <= tt.failFirst {
					return errors.New("order cache unavailable")
				}
				return nil
			}
			err := handleWithRetry(context.Background(), message.NewMessage("id", nil), handler, fastRetry, nopLogger())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestHandleWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	handler := func(context.Context, *message.Message) error {
		calls++
		return errors.New("boom")
	}
	err := handleWithRetry(ctx, message.NewMessage("id", nil), handler, HandlerRetry{Attempts: 3, BaseDelay: time.Second}, nopLogger())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancel, got %d", calls)
	}
}

// Publishers join the caller's *sql.Tx directly; subscribers poll through *sql.DB.
var (
	_ watermillsql.ContextExecutor = (*sql.Tx)(nil)
	_ watermillsql.ContextExecutor = (*sql.DB)(nil)
	_ watermillsql.Beginner        = (*sql.DB)(nil)
)

func TestNewEventBus_BuildsWithoutConnecting(t *testing.T) {
	cfg := &config.Config{DatabaseURL: "postgres://storefront@127.0.0.1:1/storefront", ServiceName: "storefront"}
	for _, forwarder := range []bool{false, true} {
		bus, err := newEventBus(cfg, nopLogger(), forwarder)
		if err != nil {
			t.Fatalf("forwarder=%v: newEventBus: %v", forwarder, err)
		}
		if bus.useForwarder != forwarder {
			t.Errorf("useForwarder = %v, want %v", bus.useForwarder, forwarder)
		}
		if err := bus.Close(); err != nil {
			t.Errorf("forwarder=%v: Close: %v", forwarder, err)
		}
	}
}

func TestSQLPublisher_AcceptsTxExecutor(t *testing.T) {
	db, err := sql.Open("pgx", "postgres://storefront@127.0.0.1:1/storefront")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	bus := &EventBus{db: db, wlog: &slogAdapter{log: nopLogger()}}
	pub, err := bus.sqlPublisher(db, false)
	if err != nil {
		t.Fatalf("sqlPublisher: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestStartForwarder_NonForwarderMode(t *testing.T) {
	bus := &EventBus{useForwarder: false}
	if err := bus.StartForwarder(context.Background()); err == nil {
		t.Fatal("expected error for non-forwarder EventBus")
	}
}

func TestNewEventMessage(t *testing.T) {
	msg, err := NewEventMessage("evt-1", 2, map[string]any{"order_id": "o-1"})
	if err != nil {
		t.Fatalf("NewEventMessage: %v", err)
	}
	if got := msg.Metadata.Get(MetadataEventID); got != "evt-1" {
		t.Errorf("event_id = %q", got)
	}
	if got := msg.Metadata.Get(MetadataEventVersion); got != "2" {
		t.Errorf("event_version = %q", got)
	}
	if string(msg.Payload) != `{"order_id":"o-1"}` {
		t.Errorf("payload = %s", msg.Payload)
	}
}

func TestNewEventMessage_Unmarshalable(t *testing.T) {
	if _, err := NewEventMessage("evt-1", 1, make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}
}

func TestTracePropagation(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background()) //nolint:errcheck
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	ctx, span := otel.Tracer("test").Start(context.Background(), "checkout.create_order")
	defer span.End()

	msg := message.NewMessage("id", nil)
	injectTrace(ctx, []*message.Message{msg})

	got := trace.SpanFromContext(extractTrace(context.Background(), msg)).SpanContext()
	if !got.IsValid() {
		t.Fatal("extracted span context is not valid")
	}
	if got.TraceID() != span.SpanContext().TraceID() {
		t.Errorf("trace id = %s, want %s", got.TraceID(), span.SpanContext().TraceID())
	}
}
