package application_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/sparkwallet/sparkd/internal/core/domain"
	"github.com/sparkwallet/sparkd/internal/core/ports"
	"github.com/sparkwallet/sparkd/pkg/chain"
)

// **** DepositRepository ****

type mockDepositRepository struct {
	mock.Mock
}

func (m *mockDepositRepository) AddDeposit(
	ctx context.Context, deposit domain.Deposit,
) (bool, error) {
	args := m.Called(ctx, deposit)

	var res bool
	if a := args.Get(0); a != nil {
		res = a.(bool)
	}
	return res, args.Error(1)
}

func (m *mockDepositRepository) GetDeposit(
	ctx context.Context, txid string, vout uint32,
) (*domain.Deposit, error) {
	args := m.Called(ctx, txid, vout)

	var res *domain.Deposit
	if a := args.Get(0); a != nil {
		res = a.(*domain.Deposit)
	}
	return res, args.Error(1)
}

func (m *mockDepositRepository) ListDeposits(
	ctx context.Context,
) ([]domain.Deposit, error) {
	args := m.Called(ctx)

	var res []domain.Deposit
	if a := args.Get(0); a != nil {
		res = a.([]domain.Deposit)
	}
	return res, args.Error(1)
}

func (m *mockDepositRepository) UpdateDeposit(
	ctx context.Context, txid string, vout uint32,
	updateFn func(deposit *domain.Deposit) (*domain.Deposit, error),
) error {
	args := m.Called(ctx, txid, vout, updateFn)
	return args.Error(0)
}

func (m *mockDepositRepository) DeleteDeposit(
	ctx context.Context, txid string, vout uint32,
) error {
	args := m.Called(ctx, txid, vout)
	return args.Error(0)
}

// **** chain.Service ****

type mockChainService struct {
	mock.Mock
}

func (m *mockChainService) GetAddressUtxos(addr string) ([]chain.Utxo, error) {
	args := m.Called(addr)

	var res []chain.Utxo
	if a := args.Get(0); a != nil {
		res = a.([]chain.Utxo)
	}
	return res, args.Error(1)
}

func (m *mockChainService) GetUtxosForAddresses(
	addresses []string,
) ([]chain.Utxo, error) {
	args := m.Called(addresses)

	var res []chain.Utxo
	if a := args.Get(0); a != nil {
		res = a.([]chain.Utxo)
	}
	return res, args.Error(1)
}

func (m *mockChainService) GetTransactionStatus(
	txid string,
) (*chain.TxStatus, error) {
	args := m.Called(txid)

	var res *chain.TxStatus
	if a := args.Get(0); a != nil {
		res = a.(*chain.TxStatus)
	}
	return res, args.Error(1)
}

func (m *mockChainService) GetTransactionHex(txid string) (string, error) {
	args := m.Called(txid)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

func (m *mockChainService) BroadcastTransaction(txHex string) (string, error) {
	args := m.Called(txHex)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

func (m *mockChainService) GetRecommendedFees() (*chain.RecommendedFees, error) {
	args := m.Called()

	var res *chain.RecommendedFees
	if a := args.Get(0); a != nil {
		res = a.(*chain.RecommendedFees)
	}
	return res, args.Error(1)
}

// **** Signer ****

type mockSigner struct {
	mock.Mock
}

func (m *mockSigner) FetchClaimQuote(
	ctx context.Context, txHex string, vout uint32,
) (*ports.ClaimQuote, error) {
	args := m.Called(ctx, txHex, vout)

	var res *ports.ClaimQuote
	if a := args.Get(0); a != nil {
		res = a.(*ports.ClaimQuote)
	}
	return res, args.Error(1)
}

func (m *mockSigner) ClaimDeposit(
	ctx context.Context, quote *ports.ClaimQuote,
) (*ports.Payment, error) {
	args := m.Called(ctx, quote)

	var res *ports.Payment
	if a := args.Get(0); a != nil {
		res = a.(*ports.Payment)
	}
	return res, args.Error(1)
}

func (m *mockSigner) SignRefund(
	ctx context.Context, txHex string, vout uint32,
	destination string, feeSats uint64,
) (*ports.SignedTx, error) {
	args := m.Called(ctx, txHex, vout, destination, feeSats)

	var res *ports.SignedTx
	if a := args.Get(0); a != nil {
		res = a.(*ports.SignedTx)
	}
	return res, args.Error(1)
}

func (m *mockSigner) SwapLeaves(
	ctx context.Context, leaves []ports.Leaf, targetValues []uint64,
) ([]ports.Leaf, error) {
	args := m.Called(ctx, leaves, targetValues)

	var res []ports.Leaf
	if a := args.Get(0); a != nil {
		res = a.([]ports.Leaf)
	}
	return res, args.Error(1)
}

// **** TreeService ****

type mockTreeService struct {
	mock.Mock
}

func (m *mockTreeService) ListLeaves(ctx context.Context) ([]ports.Leaf, error) {
	args := m.Called(ctx)

	var res []ports.Leaf
	if a := args.Get(0); a != nil {
		res = a.([]ports.Leaf)
	}
	return res, args.Error(1)
}

func (m *mockTreeService) ReserveLeaves(
	ctx context.Context, exactValues []uint64,
) (*ports.LeavesReservation, error) {
	args := m.Called(ctx, exactValues)

	var res *ports.LeavesReservation
	if a := args.Get(0); a != nil {
		res = a.(*ports.LeavesReservation)
	}
	return res, args.Error(1)
}

func (m *mockTreeService) FinalizeReservation(
	ctx context.Context, reservationID string, newLeaves []ports.Leaf,
) error {
	args := m.Called(ctx, reservationID, newLeaves)
	return args.Error(0)
}

func (m *mockTreeService) CancelReservation(
	ctx context.Context, reservationID string,
) error {
	args := m.Called(ctx, reservationID)
	return args.Error(0)
}
