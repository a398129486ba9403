package application

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/sparkwallet/sparkd/internal/core/domain"
	"github.com/sparkwallet/sparkd/internal/core/ports"
	"github.com/sparkwallet/sparkd/pkg/chain"
	"github.com/sparkwallet/sparkd/pkg/circuitbreaker"
)

// DepositService coordinates claim and refund attempts for on-chain
// deposits. It owns the unclaimed-deposits store: every claim outcome is
// recorded there before being surfaced to the caller, and the store entry
// is cleared only by a successful claim.
type DepositService interface {
	// ClaimDeposit attempts to claim the deposit identified by txid and
	// vout into the wallet. A non-nil maxFee overrides the configured
	// claim policy for this one attempt.
	ClaimDeposit(
		ctx context.Context, txid string, vout uint32, maxFee *domain.MaxFee,
	) (*ports.Payment, error)
	// RefundDeposit sends the deposit utxo back to the given destination
	// address with the given explicit fee, bypassing the claim policy.
	RefundDeposit(
		ctx context.Context, txid string, vout uint32,
		destination string, fee domain.Fee,
	) (*RefundResult, error)
	// ListUnclaimedDeposits returns a read-only snapshot of the deposits
	// still waiting to be claimed or refunded.
	ListUnclaimedDeposits(ctx context.Context) ([]domain.Deposit, error)
	// RecommendedFees returns the network's live fee tiers.
	RecommendedFees(ctx context.Context) (*chain.RecommendedFees, error)
}

type depositService struct {
	depositRepository domain.DepositRepository
	chainSvc          chain.Service
	signerSvc         ports.Signer
	signerGate        *SignerGate
	maxClaimFee       *domain.MaxFee
	depositAddress    string
	netParams         *chaincfg.Params
	cb                *gobreaker.CircuitBreaker

	inflightMtx sync.Mutex
	inflight    map[domain.DepositKey]struct{}
}

func NewDepositService(
	depositRepository domain.DepositRepository,
	chainSvc chain.Service,
	signerSvc ports.Signer,
	signerGate *SignerGate,
	maxClaimFee *domain.MaxFee,
	depositAddress string,
	netParams *chaincfg.Params,
) DepositService {
	return &depositService{
		depositRepository: depositRepository,
		chainSvc:          chainSvc,
		signerSvc:         signerSvc,
		signerGate:        signerGate,
		maxClaimFee:       maxClaimFee,
		depositAddress:    depositAddress,
		netParams:         netParams,
		cb:                circuitbreaker.NewCircuitBreaker("chain"),
		inflight:          make(map[domain.DepositKey]struct{}),
	}
}

func (s *depositService) ClaimDeposit(
	ctx context.Context, txid string, vout uint32, maxFee *domain.MaxFee,
) (*ports.Payment, error) {
	if err := validateTxID(txid); err != nil {
		return nil, err
	}

	key := domain.DepositKey{TxID: txid, Vout: vout}
	if !s.lockClaim(key) {
		return nil, ErrClaimInProgress
	}
	defer s.unlockClaim(key)

	deposit, err := s.depositRepository.GetDeposit(ctx, txid, vout)
	if err != nil {
		return nil, err
	}
	if !deposit.IsClaimable() {
		return nil, ErrDepositNotClaimable
	}

	policy := maxFee
	if policy == nil {
		policy = s.maxClaimFee
	}

	payment, claimErr := s.claimUtxo(ctx, deposit, policy)
	if claimErr != nil {
		log.WithError(claimErr).Warnf(
			"failed to claim deposit %s:%d", txid, vout,
		)
		if err := s.depositRepository.UpdateDeposit(
			ctx, txid, vout,
			func(d *domain.Deposit) (*domain.Deposit, error) {
				d.ClaimError = claimErr
				return d, nil
			},
		); err != nil {
			log.WithError(err).Errorf(
				"failed to persist claim error for deposit %s:%d", txid, vout,
			)
		}
		return nil, claimErr
	}

	if err := s.depositRepository.DeleteDeposit(ctx, txid, vout); err != nil {
		return nil, fmt.Errorf(
			"deposit claimed but clearing it from store failed: %w", err,
		)
	}

	log.Infof(
		"claimed deposit %s:%d for %d sats", txid, vout, payment.AmountSats,
	)
	return payment, nil
}

// claimUtxo runs a single claim attempt within the resolved fee ceiling.
// It never broadcasts nor signs anything when the required fee exceeds
// the ceiling.
func (s *depositService) claimUtxo(
	ctx context.Context, deposit *domain.Deposit, policy *domain.MaxFee,
) (*ports.Payment, *domain.ClaimError) {
	utxo, claimErr := s.findDepositUtxo(deposit.TxID, deposit.Vout)
	if claimErr != nil {
		return nil, claimErr
	}

	txHex, err := s.getTransactionHex(deposit.TxID)
	if err != nil {
		return nil, domain.NewGenericClaimError(err.Error())
	}

	quote, err := s.signerSvc.FetchClaimQuote(ctx, txHex, deposit.Vout)
	if err != nil {
		return nil, domain.NewGenericClaimError(
			fmt.Sprintf("fetching claim quote: %s", err),
		)
	}

	requiredFeeSats := uint64(0)
	if utxo.ValueSats > quote.CreditAmountSats {
		requiredFeeSats = utxo.ValueSats - quote.CreditAmountSats
	}
	requiredFeeRate := feeRateSatPerVbyte(requiredFeeSats, claimTxSizeVBytes)

	// The ceiling is resolved now, against fees fetched for this very
	// attempt. A MaxFeeNetworkRecommended policy must never reuse a stale
	// snapshot.
	var liveFees *chain.RecommendedFees
	if policy.NeedsLiveFees() {
		liveFees, err = s.RecommendedFees(ctx)
		if err != nil {
			return nil, domain.NewGenericClaimError(
				fmt.Sprintf("fetching recommended fees: %s", err),
			)
		}
	}
	ceiling, ok := claimFeeCeiling(policy, claimTxSizeVBytes, liveFees)
	if !ok {
		return nil, domain.NewMaxFeeExceededError(
			nil, requiredFeeSats, requiredFeeRate,
		)
	}
	if requiredFeeSats > ceiling {
		return nil, domain.NewMaxFeeExceededError(
			policy, requiredFeeSats, requiredFeeRate,
		)
	}

	log.Debugf(
		"claiming deposit %s:%d, required fee %d sats within ceiling %d sats",
		deposit.TxID, deposit.Vout, requiredFeeSats, ceiling,
	)

	if err := s.signerGate.Acquire(ctx); err != nil {
		return nil, domain.NewGenericClaimError(err.Error())
	}
	defer s.signerGate.Release()

	payment, err := s.signerSvc.ClaimDeposit(ctx, quote)
	if err != nil {
		return nil, domain.NewGenericClaimError(
			fmt.Sprintf("claim ceremony: %s", err),
		)
	}
	return payment, nil
}

func (s *depositService) RefundDeposit(
	ctx context.Context, txid string, vout uint32,
	destination string, fee domain.Fee,
) (*RefundResult, error) {
	if err := validateTxID(txid); err != nil {
		return nil, err
	}
	if err := validateAddress(destination, s.netParams); err != nil {
		return nil, err
	}
	totalFee, err := validateRefundFee(fee)
	if err != nil {
		return nil, err
	}

	if _, err := s.depositRepository.GetDeposit(ctx, txid, vout); err != nil {
		return nil, err
	}

	txHex, err := s.getTransactionHex(txid)
	if err != nil {
		return nil, fmt.Errorf("retrieving deposit tx: %w", err)
	}

	if err := s.signerGate.Acquire(ctx); err != nil {
		return nil, err
	}
	signedTx, err := s.signerSvc.SignRefund(
		ctx, txHex, vout, destination, totalFee,
	)
	s.signerGate.Release()
	if err != nil {
		return nil, fmt.Errorf("refund ceremony: %w", err)
	}

	if err := s.depositRepository.UpdateDeposit(
		ctx, txid, vout,
		func(d *domain.Deposit) (*domain.Deposit, error) {
			d.RefundTx = signedTx.TxHex
			d.RefundTxID = signedTx.TxID
			return d, nil
		},
	); err != nil {
		return nil, fmt.Errorf("persisting refund tx: %w", err)
	}

	if _, err := s.cb.Execute(func() (interface{}, error) {
		return s.chainSvc.BroadcastTransaction(signedTx.TxHex)
	}); err != nil {
		return nil, fmt.Errorf("broadcasting refund tx: %w", err)
	}

	log.Infof("refunded deposit %s:%d with tx %s", txid, vout, signedTx.TxID)

	return &RefundResult{TxID: signedTx.TxID, TxHex: signedTx.TxHex}, nil
}

func (s *depositService) ListUnclaimedDeposits(
	ctx context.Context,
) ([]domain.Deposit, error) {
	return s.depositRepository.ListDeposits(ctx)
}

func (s *depositService) RecommendedFees(
	ctx context.Context,
) (*chain.RecommendedFees, error) {
	iFees, err := s.cb.Execute(func() (interface{}, error) {
		return s.chainSvc.GetRecommendedFees()
	})
	if err != nil {
		return nil, err
	}
	return iFees.(*chain.RecommendedFees), nil
}

// findDepositUtxo checks the deposit utxo is still unspent on-chain.
// A deposit that disappeared from the address utxo set has been reorged
// out or double-spent and is not claimable anymore.
func (s *depositService) findDepositUtxo(
	txid string, vout uint32,
) (*chain.Utxo, *domain.ClaimError) {
	iUtxos, err := s.cb.Execute(func() (interface{}, error) {
		return s.chainSvc.GetAddressUtxos(s.depositAddress)
	})
	if err != nil {
		return nil, domain.NewGenericClaimError(
			fmt.Sprintf("fetching deposit utxos: %s", err),
		)
	}
	for _, utxo := range iUtxos.([]chain.Utxo) {
		if utxo.TxID == txid && utxo.Vout == vout {
			return &utxo, nil
		}
	}
	return nil, domain.NewMissingUtxoError(txid, vout)
}

func (s *depositService) getTransactionHex(txid string) (string, error) {
	iTxHex, err := s.cb.Execute(func() (interface{}, error) {
		return s.chainSvc.GetTransactionHex(txid)
	})
	if err != nil {
		return "", err
	}
	txHex := strings.TrimSpace(iTxHex.(string))

	// Sanity check the raw tx before handing it to the signer.
	rawTx, err := hex.DecodeString(txHex)
	if err != nil {
		return "", fmt.Errorf("invalid tx hex: %w", err)
	}
	msgTx := &wire.MsgTx{}
	if err := msgTx.Deserialize(bytes.NewReader(rawTx)); err != nil {
		return "", fmt.Errorf("invalid raw tx: %w", err)
	}

	return txHex, nil
}

func (s *depositService) lockClaim(key domain.DepositKey) bool {
	s.inflightMtx.Lock()
	defer s.inflightMtx.Unlock()
	if _, ok := s.inflight[key]; ok {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *depositService) unlockClaim(key domain.DepositKey) {
	s.inflightMtx.Lock()
	defer s.inflightMtx.Unlock()
	delete(s.inflight, key)
}
