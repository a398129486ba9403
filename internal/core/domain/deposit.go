package domain

// Deposit holds info about an on-chain utxo sent to the wallet's static
// deposit address. It stays in the unclaimed store until it is either
// claimed into the wallet or explicitly refunded.
type Deposit struct {
	TxID       string
	Vout       uint32
	AmountSats uint64
	RefundTx   string
	RefundTxID string
	ClaimError *ClaimError
	Timestamp  int64
}

// DepositKey represents the ID of a Deposit, composed by its txid and vout.
type DepositKey struct {
	TxID string
	Vout uint32
}

func (d Deposit) Key() DepositKey {
	return DepositKey{
		TxID: d.TxID,
		Vout: d.Vout,
	}
}

// IsClaimable returns whether a claim for the deposit may be attempted.
// Deposits that hit a missing utxo (reorg or double-spend) are terminal.
func (d Deposit) IsClaimable() bool {
	if d.ClaimError == nil {
		return true
	}
	return d.ClaimError.Type != ClaimErrorMissingUtxo
}
