package dbbadger

import (
	"context"

	"github.com/dgraph-io/badger/v3"
	"github.com/sparkwallet/sparkd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type depositRepositoryImpl struct {
	store *badgerhold.Store
}

// NewDepositRepositoryImpl initialize a badger implementation of the
// domain.DepositRepository
func NewDepositRepositoryImpl(store *badgerhold.Store) domain.DepositRepository {
	return depositRepositoryImpl{store}
}

func (d depositRepositoryImpl) AddDeposit(
	ctx context.Context, deposit domain.Deposit,
) (bool, error) {
	if err := d.store.Insert(deposit.Key(), &deposit); err != nil {
		if err == badgerhold.ErrKeyExists {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d depositRepositoryImpl) GetDeposit(
	ctx context.Context, txid string, vout uint32,
) (*domain.Deposit, error) {
	key := domain.DepositKey{TxID: txid, Vout: vout}

	var deposit domain.Deposit
	if err := d.store.Get(key, &deposit); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrDepositNotFound
		}
		return nil, err
	}
	return &deposit, nil
}

func (d depositRepositoryImpl) ListDeposits(
	ctx context.Context,
) ([]domain.Deposit, error) {
	deposits := make([]domain.Deposit, 0)
	if err := d.store.Find(&deposits, nil); err != nil {
		return nil, err
	}
	return deposits, nil
}

func (d depositRepositoryImpl) UpdateDeposit(
	ctx context.Context, txid string, vout uint32,
	updateFn func(deposit *domain.Deposit) (*domain.Deposit, error),
) error {
	key := domain.DepositKey{TxID: txid, Vout: vout}

	// Get and update run in the same badger transaction so that
	// concurrent updates of the same deposit cannot interleave.
	return d.store.Badger().Update(func(tx *badger.Txn) error {
		var deposit domain.Deposit
		if err := d.store.TxGet(tx, key, &deposit); err != nil {
			if err == badgerhold.ErrNotFound {
				return domain.ErrDepositNotFound
			}
			return err
		}

		updated, err := updateFn(&deposit)
		if err != nil {
			return err
		}

		return d.store.TxUpdate(tx, key, updated)
	})
}

func (d depositRepositoryImpl) DeleteDeposit(
	ctx context.Context, txid string, vout uint32,
) error {
	key := domain.DepositKey{TxID: txid, Vout: vout}

	if err := d.store.Delete(key, domain.Deposit{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return domain.ErrDepositNotFound
		}
		return err
	}
	return nil
}
