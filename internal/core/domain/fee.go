package domain

// FeeType enumerates the variants of an explicit Fee.
type FeeType int

const (
	// FeeFixed is an absolute amount in satoshis.
	FeeFixed FeeType = iota
	// FeeRate is a fee rate in satoshis per virtual byte.
	FeeRate
)

// Fee is an explicit, caller-chosen fee for a single transaction. It is
// used verbatim for refunds and manual claim retries, it never goes
// through the automatic claim policy.
type Fee struct {
	Type        FeeType
	AmountSats  uint64
	SatPerVbyte uint64
}

func NewFixedFee(amountSats uint64) Fee {
	return Fee{Type: FeeFixed, AmountSats: amountSats}
}

func NewRateFee(satPerVbyte uint64) Fee {
	return Fee{Type: FeeRate, SatPerVbyte: satPerVbyte}
}

// SatsForSize returns the total fee in satoshis the Fee yields for a
// transaction of the given virtual size.
func (f Fee) SatsForSize(vbytes uint64) uint64 {
	switch f.Type {
	case FeeFixed:
		return f.AmountSats
	case FeeRate:
		return f.SatPerVbyte * vbytes
	default:
		return 0
	}
}

// MaxFeeType enumerates the variants of a MaxFee policy.
type MaxFeeType int

const (
	// MaxFeeFixed caps the claim fee at an absolute amount of satoshis,
	// independently of the transaction size.
	MaxFeeFixed MaxFeeType = iota
	// MaxFeeRate caps the claim fee at a rate in satoshis per virtual byte.
	MaxFeeRate
	// MaxFeeNetworkRecommended caps the claim fee at the network's fastest
	// recommended rate plus a leeway, resolved at the moment of each claim
	// attempt.
	MaxFeeNetworkRecommended
)

// MaxFee is the policy governing automatic deposit claiming, held in the
// wallet config. A nil *MaxFee disables automatic claiming entirely.
type MaxFee struct {
	Type              MaxFeeType
	AmountSats        uint64
	SatPerVbyte       uint64
	LeewaySatPerVbyte uint64
}

func NewFixedMaxFee(amountSats uint64) *MaxFee {
	return &MaxFee{Type: MaxFeeFixed, AmountSats: amountSats}
}

func NewRateMaxFee(satPerVbyte uint64) *MaxFee {
	return &MaxFee{Type: MaxFeeRate, SatPerVbyte: satPerVbyte}
}

func NewNetworkRecommendedMaxFee(leewaySatPerVbyte uint64) *MaxFee {
	return &MaxFee{
		Type:              MaxFeeNetworkRecommended,
		LeewaySatPerVbyte: leewaySatPerVbyte,
	}
}

// NeedsLiveFees returns whether resolving the policy requires fetching the
// network's recommended fees.
func (m *MaxFee) NeedsLiveFees() bool {
	return m != nil && m.Type == MaxFeeNetworkRecommended
}
