package application

const (
	// claimTxSizeVBytes is the estimated virtual size of a deposit claim
	// transaction, one taproot input and one taproot output.
	claimTxSizeVBytes = 99
	// refundTxSizeVBytes is the estimated virtual size of a deposit
	// refund transaction.
	refundTxSizeVBytes = 99
	// minRefundFeeSats is the minimum total fee accepted for a refund.
	// Anything below risks not being relayed by the network.
	minRefundFeeSats = 194

	// DefaultMaxLeavesPerSwap is the soft limit on the number of leaves
	// moved by a single optimization round.
	DefaultMaxLeavesPerSwap = 64
	// MaxMultiplicity is the highest accepted optimization multiplicity.
	MaxMultiplicity = 5
)
