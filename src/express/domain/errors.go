package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Precondition failures: the caller supplied an incomplete request. Surfaced
// immediately, never retried, never fatal for the manager.
var (
	ErrWalletAddressNotFound   = errors.New("wallet address not found")
	ErrDestinationNotFound     = errors.New("destination not found")
	ErrAmountNotFound          = errors.New("amount not found")
	ErrContractAddressNotFound = errors.New("contract address not found")

	// ErrGasModelNotFound: the fee collaborator returned no option matching
	// the active gas policy. Fatal for the current cycle.
	ErrGasModelNotFound = errors.New("gas model not found")

	ErrProviderNotFound = errors.New("provider not found")
)

// APIErrorCode classifies provider-reported errors.
type APIErrorCode string

const (
	APIErrorCodeUnknown        APIErrorCode = "unknown"
	APIErrorCodeTooSmallAmount APIErrorCode = "too_small_amount"
)

// APIError is a provider-reported failure. TooSmallAmount carries the minimum
// acceptable amount in major units so the caller can render it.
type APIError struct {
	Code      APIErrorCode
	Message   string
	MinAmount decimal.Decimal
}

func (e *APIError) Error() string {
	if e.Code == APIErrorCodeTooSmallAmount {
		return fmt.Sprintf("express api: amount too small, minimum %s", e.MinAmount)
	}
	return fmt.Sprintf("express api: %s", e.Message)
}

// AsAPIError unwraps err into an *APIError if one is in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
