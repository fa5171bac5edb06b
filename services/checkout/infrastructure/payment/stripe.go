// Package payment implements the PaymentGateway against a Stripe-compatible
// HTTP API (form-encoded requests, Idempotency-Key header, JSON responses).
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ghuser/storefront/pkg/logger"
	checkoutdomain "github.com/ghuser/storefront/services/checkout/domain"
	"github.com/ghuser/storefront/services/checkout/domain/models"
)

const (
	maxResponseBytes = 1 << 20

	codeAlreadyRefunded = "charge_already_refunded"
	typeCardError       = "card_error"
)

// Config configures a StripeGateway.
type Config struct {
	BaseURL string // e.g. https://api.stripe.com
	APIKey  string
	Timeout time.Duration

	// Breaker tuning; zero values pick the defaults below.
	FailureThreshold uint32        // consecutive failures that open the breaker (default 5)
	OpenTimeout      time.Duration // time the breaker stays open (default 30s)
}

// StripeGateway is a PaymentGateway talking to a Stripe-compatible API through
// a circuit breaker. Declines are business answers and never trip the breaker.
type StripeGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     logger.Logger
}

type chargeResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewStripeGateway returns a gateway with an OTel-instrumented HTTP client.
func NewStripeGateway(cfg Config, log logger.Logger) *StripeGateway {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout == 0 {
		openTimeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			var ge *gatewayError
			return err == nil || (errors.As(err, &ge) && ge.answered())
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &StripeGateway{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
		log:     log,
	}
}

// Charge captures req.Amount. Repeating a request with the same
// IdempotencyKey returns the original charge instead of creating another.
func (g *StripeGateway) Charge(ctx context.Context, req models.ChargeRequest) (*models.Charge, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", req.Currency)
	form.Set("source", req.Source)

	body, err := g.post(ctx, "/v1/charges", form, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	var resp chargeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode charge: %w", checkoutdomain.ErrPaymentGatewayUnavailable, err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("%w: charge response without id", checkoutdomain.ErrPaymentGatewayUnavailable)
	}
	if resp.Status == "failed" {
		return nil, fmt.Errorf("%w: charge %s failed", checkoutdomain.ErrPaymentDeclined, resp.ID)
	}
	return &models.Charge{ID: resp.ID, Amount: resp.Amount, Currency: resp.Currency}, nil
}

// Refund returns the full amount of chargeID. A charge that is already
// refunded counts as success.
func (g *StripeGateway) Refund(ctx context.Context, chargeID, idempotencyKey string) error {
	form := url.Values{}
	form.Set("charge", chargeID)

	_, err := g.post(ctx, "/v1/refunds", form, idempotencyKey)
	if err != nil {
		var ge *gatewayError
		if errors.As(err, &ge) && ge.Code == codeAlreadyRefunded {
			return nil
		}
		if errors.Is(err, checkoutdomain.ErrPaymentDeclined) {
			return fmt.Errorf("%w: refund rejected: %v", checkoutdomain.ErrPaymentGatewayUnavailable, err)
		}
		return err
	}
	return nil
}

func (g *StripeGateway) post(ctx context.Context, path string, form url.Values, idempotencyKey string) ([]byte, error) {
	body, err := g.breaker.Execute(func() ([]byte, error) {
		return g.do(ctx, path, form, idempotencyKey)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", checkoutdomain.ErrPaymentGatewayUnavailable, err)
	}
	return body, err
}

func (g *StripeGateway) do(ctx context.Context, path string, form url.Values, idempotencyKey string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", checkoutdomain.ErrPaymentGatewayUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", checkoutdomain.ErrPaymentGatewayUnavailable, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %w", checkoutdomain.ErrPaymentGatewayUnavailable, path, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	ge := &gatewayError{Path: path, Status: resp.StatusCode}
	var e errorResponse
	if json.Unmarshal(body, &e) == nil {
		ge.Code, ge.Type = e.Error.Code, e.Error.Type
	}
	return nil, ge
}

// gatewayError is a non-2xx answer. Only a card refusal is a decline; any
// other answer (idempotency conflicts, invalid requests, auth, rate limits,
// server errors) leaves the charge state unknown and maps to
// ErrPaymentGatewayUnavailable so the caller keeps its idempotency key.
type gatewayError struct {
	Path   string
	Status int
	Code   string
	Type   string
}

func (e *gatewayError) declined() bool {
	return e.Status == http.StatusPaymentRequired || e.Type == typeCardError
}

// answered reports whether the gateway was healthy enough to judge the
// request. Those answers do not count against the circuit breaker.
func (e *gatewayError) answered() bool {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return false
	}
	return e.Status >= 400 && e.Status < 500
}

func (e *gatewayError) Error() string {
	return fmt.Sprintf("%s: %s returned %d: %s (%s)", e.Unwrap(), e.Path, e.Status, e.Code, e.Type)
}

func (e *gatewayError) Unwrap() error {
	if e.declined() {
		return checkoutdomain.ErrPaymentDeclined
	}
	return checkoutdomain.ErrPaymentGatewayUnavailable
}
