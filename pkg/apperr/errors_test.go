package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors_Distinct(t *testing.T) {
	all := []error{ErrUnauthenticated, ErrNotFound, ErrStoreUnavailable, ErrWriteConflict}
	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Fatalf("%v must not match %v", a, b)
			}
		}
	}
}

func TestSentinelErrors_WrappedIdentity(t *testing.T) {
	wrapped := fmt.Errorf("%w: upsert cart item: %w", ErrStoreUnavailable, errors.New("conn reset"))
	if !errors.Is(wrapped, ErrStoreUnavailable) {
		t.Fatal("errors.Is must match wrapped ErrStoreUnavailable")
	}
	if errors.Is(wrapped, ErrWriteConflict) {
		t.Fatal("wrapped ErrStoreUnavailable must not match ErrWriteConflict")
	}
}
