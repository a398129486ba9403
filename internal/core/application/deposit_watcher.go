package application

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sparkwallet/sparkd/internal/core/domain"
	"github.com/sparkwallet/sparkd/pkg/chain"
)

// DepositWatcher periodically scans the wallet's static deposit address
// for confirmed utxos, records the ones not yet tracked and, when a
// claim fee policy is configured, attempts to claim them automatically.
type DepositWatcher interface {
	// ObserveChain starts the periodic scan. Calling it while already
	// observing is a no-op.
	ObserveChain()
	// StopObserveChain stops the periodic scan and waits for an in-flight
	// iteration to finish.
	StopObserveChain()
}

type depositWatcher struct {
	depositRepository domain.DepositRepository
	chainSvc          chain.Service
	depositSvc        DepositService
	depositAddress    string
	interval          time.Duration
	autoClaim         bool

	mtx     sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
}

func NewDepositWatcher(
	depositRepository domain.DepositRepository,
	chainSvc chain.Service,
	depositSvc DepositService,
	depositAddress string,
	interval time.Duration,
	autoClaim bool,
) DepositWatcher {
	return &depositWatcher{
		depositRepository: depositRepository,
		chainSvc:          chainSvc,
		depositSvc:        depositSvc,
		depositAddress:    depositAddress,
		interval:          interval,
		autoClaim:         autoClaim,
	}
}

func (w *depositWatcher) ObserveChain() {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	if w.started {
		return
	}
	w.started = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	log.Infof(
		"start observing address %s every %s", w.depositAddress, w.interval,
	)
	go w.observe()
}

func (w *depositWatcher) StopObserveChain() {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	if !w.started {
		return
	}
	close(w.stopCh)
	<-w.doneCh
	w.started = false

	log.Infof("stopped observing address %s", w.depositAddress)
}

func (w *depositWatcher) observe() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.scan()
	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *depositWatcher) scan() {
	ctx := context.Background()

	utxos, err := w.chainSvc.GetAddressUtxos(w.depositAddress)
	if err != nil {
		log.WithError(err).Warn("failed to scan deposit address")
		return
	}

	for _, utxo := range utxos {
		if !utxo.Status.Confirmed {
			continue
		}

		deposit := domain.Deposit{
			TxID:       utxo.TxID,
			Vout:       utxo.Vout,
			AmountSats: utxo.ValueSats,
			Timestamp:  time.Now().Unix(),
		}
		isNew, err := w.depositRepository.AddDeposit(ctx, deposit)
		if err != nil {
			log.WithError(err).Warnf(
				"failed to track deposit %s:%d", utxo.TxID, utxo.Vout,
			)
			continue
		}
		if isNew {
			log.Infof(
				"detected new deposit %s:%d of %d sats",
				utxo.TxID, utxo.Vout, utxo.ValueSats,
			)
		}

		if w.autoClaim && w.shouldAutoClaim(ctx, utxo.TxID, utxo.Vout) {
			w.tryClaim(ctx, utxo.TxID, utxo.Vout)
		}
	}
}

// shouldAutoClaim filters out deposits whose last claim attempt failed
// for a reason that won't resolve on its own. Fee-exceeded deposits are
// re-attempted on every scan since live fees move, all other failures
// wait for an explicit caller action.
func (w *depositWatcher) shouldAutoClaim(
	ctx context.Context, txid string, vout uint32,
) bool {
	deposit, err := w.depositRepository.GetDeposit(ctx, txid, vout)
	if err != nil {
		return false
	}
	if deposit.ClaimError == nil {
		return true
	}
	return deposit.ClaimError.Type == domain.ClaimErrorMaxFeeExceeded
}

// tryClaim attempts an automatic claim with the configured policy. A fee
// ceiling rejection is expected during high-fee periods and only logged,
// the deposit stays tracked and gets retried at the next scan.
func (w *depositWatcher) tryClaim(ctx context.Context, txid string, vout uint32) {
	if _, err := w.depositSvc.ClaimDeposit(ctx, txid, vout, nil); err != nil {
		if errors.Is(err, ErrClaimInProgress) {
			return
		}
		var claimErr *domain.ClaimError
		if errors.As(err, &claimErr) &&
			claimErr.Type == domain.ClaimErrorMaxFeeExceeded {
			log.Debugf(
				"deposit %s:%d not claimed, required fee %d sats above ceiling",
				txid, vout, claimErr.RequiredFeeSats,
			)
			return
		}
		log.WithError(err).Warnf(
			"failed to auto-claim deposit %s:%d", txid, vout,
		)
	}
}
