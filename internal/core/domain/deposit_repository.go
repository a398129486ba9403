package domain

import "context"

// DepositRepository is the abstraction for any kind of database intended
// to persist unclaimed deposits. It is the single source of truth for
// claim state: implementations must apply the update closure atomically
// so concurrent readers never observe a torn deposit.
type DepositRepository interface {
	// AddDeposit adds the provided deposit to the repository. It returns
	// whether the deposit was actually inserted, those already existing
	// won't be re-added.
	AddDeposit(ctx context.Context, deposit Deposit) (bool, error)
	// GetDeposit returns the deposit identified by txid and vout, or
	// ErrDepositNotFound.
	GetDeposit(ctx context.Context, txid string, vout uint32) (*Deposit, error)
	// ListDeposits returns a snapshot of all unclaimed deposits.
	ListDeposits(ctx context.Context) ([]Deposit, error)
	// UpdateDeposit fetches the deposit identified by txid and vout,
	// applies updateFn to it and persists the result in a single
	// transaction.
	UpdateDeposit(
		ctx context.Context, txid string, vout uint32,
		updateFn func(deposit *Deposit) (*Deposit, error),
	) error
	// DeleteDeposit removes the deposit identified by txid and vout.
	DeleteDeposit(ctx context.Context, txid string, vout uint32) error
}
