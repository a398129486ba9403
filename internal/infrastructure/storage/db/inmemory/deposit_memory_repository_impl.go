package inmemory

import (
	"context"
	"sync"

	"github.com/sparkwallet/sparkd/internal/core/domain"
)

type DepositRepositoryImpl struct {
	locker   sync.RWMutex
	deposits map[domain.DepositKey]domain.Deposit
}

// NewDepositRepositoryImpl returns a new empty DepositRepositoryImpl
func NewDepositRepositoryImpl() domain.DepositRepository {
	return &DepositRepositoryImpl{
		deposits: make(map[domain.DepositKey]domain.Deposit),
	}
}

func (d *DepositRepositoryImpl) AddDeposit(
	ctx context.Context, deposit domain.Deposit,
) (bool, error) {
	d.locker.Lock()
	defer d.locker.Unlock()

	if _, ok := d.deposits[deposit.Key()]; ok {
		return false, nil
	}
	d.deposits[deposit.Key()] = deposit
	return true, nil
}

func (d *DepositRepositoryImpl) GetDeposit(
	ctx context.Context, txid string, vout uint32,
) (*domain.Deposit, error) {
	d.locker.RLock()
	defer d.locker.RUnlock()

	deposit, ok := d.deposits[domain.DepositKey{TxID: txid, Vout: vout}]
	if !ok {
		return nil, domain.ErrDepositNotFound
	}
	return &deposit, nil
}

func (d *DepositRepositoryImpl) ListDeposits(
	ctx context.Context,
) ([]domain.Deposit, error) {
	d.locker.RLock()
	defer d.locker.RUnlock()

	result := make([]domain.Deposit, 0, len(d.deposits))
	for _, deposit := range d.deposits {
		result = append(result, deposit)
	}
	return result, nil
}

func (d *DepositRepositoryImpl) UpdateDeposit(
	ctx context.Context, txid string, vout uint32,
	updateFn func(deposit *domain.Deposit) (*domain.Deposit, error),
) error {
	d.locker.Lock()
	defer d.locker.Unlock()

	key := domain.DepositKey{TxID: txid, Vout: vout}
	deposit, ok := d.deposits[key]
	if !ok {
		return domain.ErrDepositNotFound
	}

	updated, err := updateFn(&deposit)
	if err != nil {
		return err
	}

	d.deposits[key] = *updated
	return nil
}

func (d *DepositRepositoryImpl) DeleteDeposit(
	ctx context.Context, txid string, vout uint32,
) error {
	d.locker.Lock()
	defer d.locker.Unlock()

	key := domain.DepositKey{TxID: txid, Vout: vout}
	if _, ok := d.deposits[key]; !ok {
		return domain.ErrDepositNotFound
	}
	delete(d.deposits, key)
	return nil
}
