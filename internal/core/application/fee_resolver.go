package application

import (
	"github.com/shopspring/decimal"
	"github.com/sparkwallet/sparkd/internal/core/domain"
	"github.com/sparkwallet/sparkd/pkg/chain"
)

// claimFeeCeiling resolves a max-fee policy into a concrete ceiling in
// satoshis for a claim transaction of the given virtual size. It returns
// false when no ceiling can be resolved: the policy is nil (automatic
// claiming disabled) or it needs live fees that were not provided.
//
// The function is pure, for MaxFeeNetworkRecommended the caller must
// fetch the recommended fees at the moment of the claim attempt.
func claimFeeCeiling(
	policy *domain.MaxFee, vbytes uint64, liveFees *chain.RecommendedFees,
) (uint64, bool) {
	if policy == nil {
		return 0, false
	}

	switch policy.Type {
	case domain.MaxFeeFixed:
		return policy.AmountSats, true
	case domain.MaxFeeRate:
		return policy.SatPerVbyte * vbytes, true
	case domain.MaxFeeNetworkRecommended:
		if liveFees == nil {
			return 0, false
		}
		return (liveFees.FastestFee + policy.LeewaySatPerVbyte) * vbytes, true
	default:
		return 0, false
	}
}

// feeRateSatPerVbyte converts a total fee into a rate for a transaction
// of the given virtual size, rounding up.
func feeRateSatPerVbyte(feeSats, vbytes uint64) uint64 {
	if vbytes == 0 {
		return 0
	}
	return uint64(decimal.NewFromInt(int64(feeSats)).
		Div(decimal.NewFromInt(int64(vbytes))).
		Ceil().IntPart())
}
