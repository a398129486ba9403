package application

// OptimizationConfig holds the tunables of the leaf optimizer.
// Multiplicity controls the optimization aggressiveness: 0 maximizes the
// amount that can be unilaterally exited, higher values create more
// leaves per denomination for transfer flexibility.
type OptimizationConfig struct {
	AutoEnabled      bool
	Multiplicity     uint32
	MaxLeavesPerSwap uint32
}

func (c OptimizationConfig) Validate() error {
	if c.Multiplicity > MaxMultiplicity {
		return ErrInvalidMultiplicity
	}
	if c.MaxLeavesPerSwap == 0 {
		return ErrInvalidMaxLeavesPerSwap
	}
	return nil
}

// OptimizationProgress is a point-in-time snapshot of the optimizer
// state, not a subscription.
type OptimizationProgress struct {
	IsRunning    bool
	CurrentRound uint32
	TotalRounds  uint32
}

// OptimizationEventType enumerates the lifecycle events of an
// optimization run.
type OptimizationEventType int

const (
	OptimizationStarted OptimizationEventType = iota
	OptimizationRoundCompleted
	OptimizationCompleted
	OptimizationCancelled
	OptimizationFailed
	OptimizationSkipped
)

func (t OptimizationEventType) String() string {
	switch t {
	case OptimizationStarted:
		return "started"
	case OptimizationRoundCompleted:
		return "round_completed"
	case OptimizationCompleted:
		return "completed"
	case OptimizationCancelled:
		return "cancelled"
	case OptimizationFailed:
		return "failed"
	case OptimizationSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// OptimizationEvent is broadcast to registered listeners during an
// optimization run. Events are ephemeral, they are never persisted.
type OptimizationEvent struct {
	Type         OptimizationEventType
	CurrentRound uint32
	TotalRounds  uint32
	Error        string
}

// RefundResult is the outcome of a deposit refund: the id and raw hex of
// the broadcast refund transaction.
type RefundResult struct {
	TxID  string
	TxHex string
}
