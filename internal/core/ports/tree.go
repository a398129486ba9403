package ports

import "context"

// Leaf is a spendable unit within the wallet's internal utxo-like tree,
// representing a portion of the balance.
type Leaf struct {
	ID        string
	ValueSats uint64
}

// LeavesReservation is a set of leaves locked for exclusive use by an
// in-progress operation. A reservation is either finalized, replacing the
// reserved leaves with new ones, or cancelled, releasing them unchanged.
type LeavesReservation struct {
	ID     string
	Leaves []Leaf
}

// TreeService is the boundary to the wallet's leaf tree.
type TreeService interface {
	// ListLeaves returns the leaves currently available for spending,
	// excluding any reserved ones.
	ListLeaves(ctx context.Context) ([]Leaf, error)
	// ReserveLeaves locks leaves matching exactly the given denominations.
	ReserveLeaves(
		ctx context.Context, exactValues []uint64,
	) (*LeavesReservation, error)
	// FinalizeReservation consumes the reservation, atomically replacing
	// the reserved leaves with newLeaves.
	FinalizeReservation(
		ctx context.Context, reservationID string, newLeaves []Leaf,
	) error
	// CancelReservation releases the reserved leaves unchanged.
	CancelReservation(ctx context.Context, reservationID string) error
}
