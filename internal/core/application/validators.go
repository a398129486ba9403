package application

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/sparkwallet/sparkd/internal/core/domain"
)

func validateTxID(txid string) error {
	if _, err := chainhash.NewHashFromStr(txid); err != nil {
		return fmt.Errorf("invalid txid: %w", err)
	}
	return nil
}

func validateAddress(addr string, net *chaincfg.Params) error {
	decoded, err := btcutil.DecodeAddress(addr, net)
	if err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}
	if !decoded.IsForNet(net) {
		return errors.New("address is not for the configured network")
	}
	return nil
}

// validateRefundFee enforces the relay floor on the total fee the given
// Fee yields for a refund transaction. It runs before any transaction is
// constructed.
func validateRefundFee(fee domain.Fee) (uint64, error) {
	totalFee := fee.SatsForSize(refundTxSizeVBytes)
	if totalFee < minRefundFeeSats {
		return 0, ErrRefundFeeTooLow
	}
	return totalFee, nil
}
