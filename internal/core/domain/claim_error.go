package domain

import "fmt"

// ClaimErrorType enumerates the variants of a ClaimError.
type ClaimErrorType int

const (
	// ClaimErrorMaxFeeExceeded means the fee required to claim the deposit
	// exceeded the resolved ceiling. Recoverable, the caller may retry
	// with a higher explicit max fee.
	ClaimErrorMaxFeeExceeded ClaimErrorType = iota
	// ClaimErrorMissingUtxo means the deposit utxo is no longer spendable,
	// usually after a chain reorg or a double-spend. Terminal.
	ClaimErrorMissingUtxo
	// ClaimErrorGeneric is an opaque failure, retry is up to the caller.
	ClaimErrorGeneric
)

// ClaimError is attached to a Deposit when a claim attempt fails. It is
// cleared only by a successful claim or an explicit user action.
type ClaimError struct {
	Type                       ClaimErrorType
	MaxFee                     *MaxFee
	RequiredFeeSats            uint64
	RequiredFeeRateSatPerVbyte uint64
	Message                    string
}

func NewMaxFeeExceededError(
	maxFee *MaxFee, requiredFeeSats, requiredFeeRateSatPerVbyte uint64,
) *ClaimError {
	return &ClaimError{
		Type:                       ClaimErrorMaxFeeExceeded,
		MaxFee:                     maxFee,
		RequiredFeeSats:            requiredFeeSats,
		RequiredFeeRateSatPerVbyte: requiredFeeRateSatPerVbyte,
	}
}

func NewMissingUtxoError(txid string, vout uint32) *ClaimError {
	return &ClaimError{
		Type:    ClaimErrorMissingUtxo,
		Message: fmt.Sprintf("utxo %s:%d not found or already spent", txid, vout),
	}
}

func NewGenericClaimError(message string) *ClaimError {
	return &ClaimError{Type: ClaimErrorGeneric, Message: message}
}

func (e *ClaimError) Error() string {
	switch e.Type {
	case ClaimErrorMaxFeeExceeded:
		return fmt.Sprintf(
			"max deposit claim fee exceeded: required %d sats (%d sat/vB)",
			e.RequiredFeeSats, e.RequiredFeeRateSatPerVbyte,
		)
	case ClaimErrorMissingUtxo:
		return e.Message
	case ClaimErrorGeneric:
		return e.Message
	default:
		return "unknown claim error"
	}
}
