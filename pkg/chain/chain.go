package chain

// TxStatus is the confirmation status of a transaction.
type TxStatus struct {
	Confirmed   bool
	BlockHeight uint32
	BlockTime   int64
}

// Utxo represents an unspent transaction output paying to a watched
// address.
type Utxo struct {
	TxID      string
	Vout      uint32
	ValueSats uint64
	Status    TxStatus
}

// RecommendedFees holds the live fee tiers of the network, in satoshis
// per virtual byte. They are fetched fresh for every claim attempt and
// never cached, network congestion is volatile.
type RecommendedFees struct {
	FastestFee  uint64 `json:"fastestFee"`
	HalfHourFee uint64 `json:"halfHourFee"`
	HourFee     uint64 `json:"hourFee"`
	EconomyFee  uint64 `json:"economyFee"`
	MinimumFee  uint64 `json:"minimumFee"`
}

// Service is the representation of a chain data provider that allows to
// fetch utxos and transactions, to broadcast raw transactions and to
// retrieve the recommended fee tiers.
type Service interface {
	// GetAddressUtxos returns the unspent outputs paying to the given
	// address.
	GetAddressUtxos(addr string) ([]Utxo, error)
	// GetUtxosForAddresses returns the unspent outputs paying to any of
	// the given addresses.
	GetUtxosForAddresses(addresses []string) ([]Utxo, error)
	// GetTransactionStatus returns the confirmation status of the tx
	// identified by its hash.
	GetTransactionStatus(txid string) (*TxStatus, error)
	// GetTransactionHex fetches the transaction in hex format given its
	// hash.
	GetTransactionHex(txid string) (string, error)
	// BroadcastTransaction publishes the given raw transaction to the
	// network and returns its hash.
	BroadcastTransaction(txHex string) (string, error)
	// GetRecommendedFees returns the current recommended fee tiers.
	GetRecommendedFees() (*RecommendedFees, error)
}
