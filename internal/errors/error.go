// Package errors provides custom error types for product-related operations.
package errors

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidID is returned by a store when an identifier is not in the store's format.
	ErrInvalidID = errors.New("invalid product ID")
)
