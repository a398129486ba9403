package ports

import "context"

// ClaimQuote is the offer returned by the operators for claiming a
// deposit utxo. CreditAmountSats is the amount actually credited to the
// wallet, the difference with the utxo value is the fee the operators
// require for the claim.
type ClaimQuote struct {
	TxID             string
	Vout             uint32
	CreditAmountSats uint64
	SignedQuote      string
}

// Payment is the wallet-side result of a completed claim ceremony.
type Payment struct {
	ID         string
	AmountSats uint64
	FeeSats    uint64
	Timestamp  int64
}

// SignedTx is a fully co-signed transaction ready for broadcast.
type SignedTx struct {
	TxID  string
	TxHex string
}

// Signer is the opaque threshold-signing capability required to authorize
// claim, refund and leaf-swap ceremonies. Only one ceremony at a time may
// be in flight system-wide, callers serialize through a shared SignerGate.
type Signer interface {
	// FetchClaimQuote asks the operators for a quote to claim the deposit
	// utxo identified by the raw transaction and output index.
	FetchClaimQuote(
		ctx context.Context, txHex string, vout uint32,
	) (*ClaimQuote, error)
	// ClaimDeposit runs the threshold-signing ceremony that finalizes the
	// claim described by the given quote.
	ClaimDeposit(ctx context.Context, quote *ClaimQuote) (*Payment, error)
	// SignRefund co-signs a transaction spending the deposit utxo back to
	// the given destination address with the given total fee.
	SignRefund(
		ctx context.Context, txHex string, vout uint32,
		destination string, feeSats uint64,
	) (*SignedTx, error)
	// SwapLeaves executes one atomic swap ceremony, giving up the provided
	// leaves in exchange for new ones with the target denominations.
	// Either all threshold signatures are collected and the swap is
	// finalized, or the whole round is discarded.
	SwapLeaves(
		ctx context.Context, leaves []Leaf, targetValues []uint64,
	) ([]Leaf, error)
}
