package domain

import (
	"fmt"

	"github.com/ghuser/storefront/pkg/apperr"
)

// Sentinel errors for the cart domain. Use errors.Is() to check these.
var (
	// ErrItemNotFound indicates the catalog item being added does not exist.
	// It matches apperr.ErrNotFound.
	ErrItemNotFound = fmt.Errorf("item %w", apperr.ErrNotFound)
)
