package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/getsentry/sentry-go"
	"go.opentelemetry.io/otel"

	"github.com/ghuser/storefront/pkg/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		ServiceName:    "test-service",
		ServiceVersion: "test",
		Environment:    "testing",
		OtelEndpoint:   "", // disabled
	}
}

func TestSetup_NoOtelEndpoint(t *testing.T) {
	shutdown, handler, err := Setup(context.Background(), baseConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected non-nil shutdown")
	}
	if handler == nil {
		t.Fatal("expected non-nil metrics handler")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_MetricsHandlerServesPrometheusFormat(t *testing.T) {
	_, handler, err := Setup(context.Background(), baseConfig())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", http.NoBody))

	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	ct := rr.Header().Get("Content-Type")
	if !strings.Contains(ct, "text/plain") {
		t.Errorf("expected text/plain content-type, got %q", ct)
	}
}

func TestSetup_InstallsTraceContextPropagator(t *testing.T) {
	shutdown, _, err := Setup(context.Background(), baseConfig())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer shutdown(context.Background()) //nolint:errcheck

	fields := otel.GetTextMapPropagator().Fields()
	if !slices.Contains(fields, "traceparent") {
		t.Fatalf("expected traceparent propagation, got fields %v", fields)
	}
}

func TestCaptureError_WithoutSentry(t *testing.T) {
	// Sentry is not initialised in tests; capture must be a silent no-op.
	CaptureError(context.Background(), errors.New("refund failed"), map[string]string{"charge_id": "ch_1"})
}

func TestScrubEvent(t *testing.T) {
	event := &sentry.Event{Request: &sentry.Request{
		URL:         "https://api.example.com/api/account/password-reset/confirm",
		QueryString: "resetToken=abc",
		Cookies:     "storefront_session=xyz",
		Data:        `{"token":"abc","password":"new-password"}`,
		Headers: map[string]string{
			"Cookie":       "storefront_session=xyz",
			"Content-Type": "application/json",
		},
	}}

	got := scrubEvent(event, nil)

	if got.Request.Cookies != "" || got.Request.Data != "" || got.Request.QueryString != "" {
		t.Errorf("request not scrubbed: %+v", got.Request)
	}
	if _, ok := got.Request.Headers["Cookie"]; ok {
		t.Error("cookie header kept")
	}
	if got.Request.Headers["Content-Type"] != "application/json" {
		t.Error("unrelated header dropped")
	}
	if got.Request.URL == "" {
		t.Error("url should be kept")
	}
}

func TestScrubEvent_NoRequest(t *testing.T) {
	event := &sentry.Event{Message: "unresolved charge ch_1"}
	if got := scrubEvent(event, nil); got != event {
		t.Fatal("event without request must pass through")
	}
}

func TestSampleRatio(t *testing.T) {
	for in, want := range map[float64]float64{0: 1, -1: 1, 2: 1, 0.25: 0.25, 1: 1} {
		if got := sampleRatio(in); got != want {
			t.Errorf("sampleRatio(%v) = %v, want %v", in, got, want)
		}
	}
}
