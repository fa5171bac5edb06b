package validator_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgvalidator "github.com/ghuser/storefront/pkg/validator"
)

type resetForm struct {
	Token    string `json:"token"    validate:"required,hexadecimal,max=16"`
	Password string `json:"password" validate:"required,min=8"`
	Confirm  string `json:"confirm"  validate:"required,eqfield=Password"`
	Email    string `json:"email"    validate:"omitempty,email"`
}

func TestValidate_valid(t *testing.T) {
	f := resetForm{Token: "deadbeef", Password: "long-enough", Confirm: "long-enough"}
	if err := pkgvalidator.Validate(&f); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestFormatValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		form  resetForm
		field string
		want  string
	}{
		{"required", resetForm{Password: "long-enough", Confirm: "long-enough"}, "token", "This field is required"},
		{"hexadecimal", resetForm{Token: "xyz", Password: "long-enough", Confirm: "long-enough"}, "token", "Must be a hexadecimal string"},
		{"max", resetForm{Token: strings.Repeat("a", 17), Password: "long-enough", Confirm: "long-enough"}, "token", "Maximum length is 16"},
		{"min", resetForm{Token: "ab", Password: "short", Confirm: "short"}, "password", "Minimum length is 8"},
		{"eqfield", resetForm{Token: "ab", Password: "long-enough", Confirm: "different!"}, "confirm", "Must match Password"},
		{"email", resetForm{Token: "ab", Password: "long-enough", Confirm: "long-enough", Email: "nope"}, "email", "Must be a valid email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := pkgvalidator.FormatValidationErrors(pkgvalidator.Validate(&tt.form))
			if m[tt.field] != tt.want {
				t.Errorf("%s: got %q, want %q (all: %v)", tt.field, m[tt.field], tt.want, m)
			}
		})
	}
}

func TestFormatValidationErrors_wrapped(t *testing.T) {
	err := fmt.Errorf("decode: %w", pkgvalidator.Validate(&resetForm{}))
	if m := pkgvalidator.FormatValidationErrors(err); m["token"] == "" {
		t.Errorf("expected wrapped validation errors to be formatted, got %v", m)
	}
}

func TestFormatValidationErrors_nonValidationError(t *testing.T) {
	m := pkgvalidator.FormatValidationErrors(http.ErrNoCookie)
	if len(m) != 0 {
		t.Errorf("expected empty map for non-validation error, got %v", m)
	}
}

// --- ValidateRequest ---

type checkoutReq struct {
	PaymentToken string `json:"payment_token" validate:"required,max=255"`
}

func TestValidateRequest_valid(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"payment_token":"tok_visa"}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	req, ok := pkgvalidator.ValidateRequest[checkoutReq](w, r)
	if !ok {
		t.Fatalf("expected ok=true, got false. Response: %s", w.Body.String())
	}
	if req.PaymentToken != "tok_visa" {
		t.Errorf("unexpected PaymentToken: %q", req.PaymentToken)
	}
}

func TestValidateRequest_invalidJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{bad json"))
	w := httptest.NewRecorder()

	if _, ok := pkgvalidator.ValidateRequest[checkoutReq](w, r); ok {
		t.Fatal("expected ok=false for malformed JSON")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestValidateRequest_missingField(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	if _, ok := pkgvalidator.ValidateRequest[checkoutReq](w, r); ok {
		t.Fatal("expected ok=false for missing payment_token")
	}
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "payment_token") {
		t.Errorf("expected field name in body, got: %s", w.Body.String())
	}
}
