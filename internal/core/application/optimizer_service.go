package application

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/sparkwallet/sparkd/internal/core/ports"
)

// OptimizerService reshapes the wallet's leaf set by swapping leaves with
// the operator, one round at a time. A run is fire-and-forget: starting
// it returns immediately and progress is observed through events or
// polled snapshots.
type OptimizerService interface {
	// StartLeafOptimization plans and runs an optimization in the
	// background. If a run is already active the call is a no-op.
	StartLeafOptimization(ctx context.Context)
	// CancelLeafOptimization requests cancellation of the active run and
	// blocks until it stops. The round in flight always completes first.
	CancelLeafOptimization(ctx context.Context) error
	// GetLeafOptimizationProgress returns a snapshot of the run state.
	GetLeafOptimizationProgress(ctx context.Context) OptimizationProgress
	// NeedsOptimization reports whether the current leaf set is worth
	// optimizing under the configured multiplicity.
	NeedsOptimization(ctx context.Context) (bool, error)
	// AddOptimizationListener registers a listener for run events and
	// returns its id.
	AddOptimizationListener(listener OptimizationListener) string
	// RemoveOptimizationListener unregisters the listener with the given
	// id, returning whether it was registered.
	RemoveOptimizationListener(id string) bool
}

type optimizerService struct {
	treeSvc    ports.TreeService
	signerSvc  ports.Signer
	signerGate *SignerGate
	config     OptimizationConfig
	eventBus   *OptimizationEventBus

	mtx        sync.Mutex
	active     bool
	cancelled  bool
	terminated chan struct{}
	progress   OptimizationProgress
}

func NewOptimizerService(
	treeSvc ports.TreeService,
	signerSvc ports.Signer,
	signerGate *SignerGate,
	config OptimizationConfig,
) (OptimizerService, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &optimizerService{
		treeSvc:    treeSvc,
		signerSvc:  signerSvc,
		signerGate: signerGate,
		config:     config,
		eventBus:   NewOptimizationEventBus(),
	}, nil
}

func (s *optimizerService) StartLeafOptimization(ctx context.Context) {
	s.mtx.Lock()
	if s.active {
		s.mtx.Unlock()
		log.Debug("leaf optimization already running, skipping start")
		return
	}
	s.active = true
	s.cancelled = false
	s.terminated = make(chan struct{})
	s.progress = OptimizationProgress{}
	s.mtx.Unlock()

	go s.runOptimization(ctx)
}

func (s *optimizerService) CancelLeafOptimization(ctx context.Context) error {
	s.mtx.Lock()
	if !s.active {
		s.mtx.Unlock()
		return nil
	}
	s.cancelled = true
	terminated := s.terminated
	s.mtx.Unlock()

	log.Debug("requested leaf optimization cancellation")

	select {
	case <-terminated:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *optimizerService) GetLeafOptimizationProgress(
	_ context.Context,
) OptimizationProgress {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.progress
}

func (s *optimizerService) NeedsOptimization(
	ctx context.Context,
) (bool, error) {
	leaves, err := s.treeSvc.ListLeaves(ctx)
	if err != nil {
		return false, fmt.Errorf("listing leaves: %w", err)
	}
	return needsOptimization(leafValues(leaves), s.config), nil
}

func (s *optimizerService) AddOptimizationListener(
	listener OptimizationListener,
) string {
	return s.eventBus.AddListener(listener)
}

func (s *optimizerService) RemoveOptimizationListener(id string) bool {
	return s.eventBus.RemoveListener(id)
}

func (s *optimizerService) runOptimization(ctx context.Context) {
	defer func() {
		s.mtx.Lock()
		s.active = false
		s.progress = OptimizationProgress{}
		close(s.terminated)
		s.mtx.Unlock()
	}()

	leaves, err := s.treeSvc.ListLeaves(ctx)
	if err != nil {
		s.publishFailure(0, 0, fmt.Errorf("listing leaves: %w", err))
		return
	}

	plan := planOptimizationSwaps(leafValues(leaves), s.config)
	if len(plan) == 0 {
		log.Debug("leaf set already optimal, skipping optimization")
		s.eventBus.Publish(OptimizationEvent{Type: OptimizationSkipped})
		return
	}
	totalRounds := uint32(len(plan))

	// All rounds are reserved upfront so that concurrent transfers cannot
	// spend the leaves a later round is planned around.
	reservations, err := s.reserveAllRounds(ctx, plan)
	if err != nil {
		s.publishFailure(0, totalRounds, err)
		return
	}

	s.setProgress(OptimizationProgress{
		IsRunning:   true,
		TotalRounds: totalRounds,
	})
	s.eventBus.Publish(OptimizationEvent{
		Type:        OptimizationStarted,
		TotalRounds: totalRounds,
	})
	log.Infof("starting leaf optimization, %d rounds", totalRounds)

	for i, swap := range plan {
		round := uint32(i + 1)

		if s.isCancelled() {
			s.cancelReservations(ctx, reservations[i:])
			s.eventBus.Publish(OptimizationEvent{
				Type:         OptimizationCancelled,
				CurrentRound: round - 1,
				TotalRounds:  totalRounds,
			})
			log.Infof(
				"leaf optimization cancelled after %d of %d rounds",
				round-1, totalRounds,
			)
			return
		}

		s.setProgress(OptimizationProgress{
			IsRunning:    true,
			CurrentRound: round,
			TotalRounds:  totalRounds,
		})

		if err := s.runRound(ctx, reservations[i], swap); err != nil {
			s.cancelReservations(ctx, reservations[i:])
			s.publishFailure(
				round, totalRounds, fmt.Errorf("round %d: %w", round, err),
			)
			return
		}

		s.eventBus.Publish(OptimizationEvent{
			Type:         OptimizationRoundCompleted,
			CurrentRound: round,
			TotalRounds:  totalRounds,
		})
		log.Debugf("completed optimization round %d of %d", round, totalRounds)
	}

	s.eventBus.Publish(OptimizationEvent{
		Type:         OptimizationCompleted,
		CurrentRound: totalRounds,
		TotalRounds:  totalRounds,
	})
	log.Infof("leaf optimization completed, %d rounds", totalRounds)
}

// reserveAllRounds reserves the exact leaf values each planned round
// gives away. On any failure the reservations already made are rolled
// back.
func (s *optimizerService) reserveAllRounds(
	ctx context.Context, plan []swapPlan,
) ([]ports.LeavesReservation, error) {
	reservations := make([]ports.LeavesReservation, 0, len(plan))
	for i, swap := range plan {
		reservation, err := s.treeSvc.ReserveLeaves(ctx, swap.toGive)
		if err != nil {
			s.cancelReservations(ctx, reservations)
			return nil, fmt.Errorf(
				"reserving leaves for round %d: %w", i+1, err,
			)
		}
		reservations = append(reservations, *reservation)
	}
	return reservations, nil
}

func (s *optimizerService) runRound(
	ctx context.Context, reservation ports.LeavesReservation, swap swapPlan,
) error {
	if err := s.signerGate.Acquire(ctx); err != nil {
		return err
	}
	newLeaves, err := s.signerSvc.SwapLeaves(
		ctx, reservation.Leaves, swap.toReceive,
	)
	s.signerGate.Release()
	if err != nil {
		return fmt.Errorf("swapping leaves: %w", err)
	}

	if err := s.treeSvc.FinalizeReservation(
		ctx, reservation.ID, newLeaves,
	); err != nil {
		return fmt.Errorf("finalizing reservation: %w", err)
	}
	return nil
}

func (s *optimizerService) cancelReservations(
	ctx context.Context, reservations []ports.LeavesReservation,
) {
	for _, reservation := range reservations {
		if err := s.treeSvc.CancelReservation(ctx, reservation.ID); err != nil {
			log.WithError(err).Warnf(
				"failed to cancel leaves reservation %s", reservation.ID,
			)
		}
	}
}

func (s *optimizerService) publishFailure(
	round, totalRounds uint32, err error,
) {
	log.WithError(err).Warn("leaf optimization failed")
	s.eventBus.Publish(OptimizationEvent{
		Type:         OptimizationFailed,
		CurrentRound: round,
		TotalRounds:  totalRounds,
		Error:        err.Error(),
	})
}

func (s *optimizerService) setProgress(progress OptimizationProgress) {
	s.mtx.Lock()
	s.progress = progress
	s.mtx.Unlock()
}

func (s *optimizerService) isCancelled() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.cancelled
}

func leafValues(leaves []ports.Leaf) []uint64 {
	values := make([]uint64, 0, len(leaves))
	for _, leaf := range leaves {
		values = append(values, leaf.ValueSats)
	}
	return values
}
