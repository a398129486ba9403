package application

import (
	"errors"
	"fmt"
)

var (
	// ErrClaimInProgress is returned when a claim for the same deposit is
	// already in flight. At most one claim attempt per (txid, vout) may
	// run at a time.
	ErrClaimInProgress = errors.New(
		"a claim for this deposit is already in progress",
	)
	// ErrDepositNotClaimable is returned when attempting to claim a
	// deposit whose utxo went missing, ie. after a reorg or double-spend.
	ErrDepositNotClaimable = errors.New(
		"deposit utxo is missing, claiming it is not possible anymore",
	)
	// ErrRefundFeeTooLow is returned when the total fee of a refund
	// request is below the relay floor.
	ErrRefundFeeTooLow = fmt.Errorf(
		"refund fee must be at least %d sats", minRefundFeeSats,
	)
	// ErrInvalidMultiplicity is returned for an optimization multiplicity
	// greater than MaxMultiplicity.
	ErrInvalidMultiplicity = fmt.Errorf(
		"optimization multiplicity cannot be greater than %d", MaxMultiplicity,
	)
	// ErrInvalidMaxLeavesPerSwap is returned for a zero leaves-per-swap
	// limit.
	ErrInvalidMaxLeavesPerSwap = errors.New(
		"optimization max leaves per swap must be greater than 0",
	)
)
