package domain

import "errors"

var (
	// ErrDepositNotFound is returned when looking up a deposit that is not
	// in the unclaimed store.
	ErrDepositNotFound = errors.New("deposit not found in unclaimed store")
)
