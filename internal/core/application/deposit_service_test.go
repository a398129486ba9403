package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sparkwallet/sparkd/internal/core/application"
	"github.com/sparkwallet/sparkd/internal/core/domain"
	"github.com/sparkwallet/sparkd/internal/core/ports"
	"github.com/sparkwallet/sparkd/pkg/chain"
)

const (
	depositTxID = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"
	depositVout = uint32(0)
	// Raw hex of the tx above, returned by the mocked chain service.
	depositTxHex = "01000000010000000000000000000000000000000000000000000000" +
		"000000000000000000ffffffff4d04ffff001d0104455468652054696d6573203033" +
		"2f4a616e2f32303039204368616e63656c6c6f72206f6e206272696e6b206f662073" +
		"65636f6e64206261696c6f757420666f722062616e6b73ffffffff0100f2052a0100" +
		"0000434104678afdb0fe5548271967f1a67130b7105cd6a828e03909a67962e0ea1f" +
		"61deb649f6bc3f4cef38c4f35504e51ec112de5c384df7ba0b8d578a4c702b6bf11d" +
		"5fac00000000"

	depositAddr     = "tb1qtestdepositaddressxxxxxxxxxxxxxxxxxxxx"
	destinationAddr = "tb1qrp33g0q5c5txsp9arysrx4k6zdkfs4nce4xj0gdcccefvpysxf3q0sl5k7"

	depositValueSats = uint64(100000)
	creditAmountSats = uint64(98000)
	// requiredFeeSats = depositValueSats - creditAmountSats.
	requiredFeeSats = uint64(2000)
)

func newTestMocks() (
	*mockDepositRepository, *mockChainService, *mockSigner,
) {
	return &mockDepositRepository{}, &mockChainService{}, &mockSigner{}
}

func newTestDepositService(
	repo *mockDepositRepository, chainSvc *mockChainService, signer *mockSigner,
	maxClaimFee *domain.MaxFee,
) application.DepositService {
	return application.NewDepositService(
		repo, chainSvc, signer, application.NewSignerGate(),
		maxClaimFee, depositAddr, &chaincfg.TestNet3Params,
	)
}

func mockClaimableDeposit(
	repo *mockDepositRepository, chainSvc *mockChainService, signer *mockSigner,
) {
	repo.On("GetDeposit", mock.Anything, depositTxID, depositVout).Return(
		&domain.Deposit{
			TxID:       depositTxID,
			Vout:       depositVout,
			AmountSats: depositValueSats,
		}, nil,
	)
	chainSvc.On("GetAddressUtxos", depositAddr).Return(
		[]chain.Utxo{{
			TxID:      depositTxID,
			Vout:      depositVout,
			ValueSats: depositValueSats,
			Status:    chain.TxStatus{Confirmed: true},
		}}, nil,
	)
	chainSvc.On("GetTransactionHex", depositTxID).Return(depositTxHex, nil)
	signer.On(
		"FetchClaimQuote", mock.Anything, depositTxHex, depositVout,
	).Return(
		&ports.ClaimQuote{
			TxID:             depositTxID,
			Vout:             depositVout,
			CreditAmountSats: creditAmountSats,
			SignedQuote:      "quote",
		}, nil,
	)
}

func TestClaimDeposit(t *testing.T) {
	ctx := context.Background()

	t.Run("claims when required fee is within a fixed ceiling", func(t *testing.T) {
		repo, chainSvc, signer := newTestMocks()
		mockClaimableDeposit(repo, chainSvc, signer)
		signer.On("ClaimDeposit", mock.Anything, mock.Anything).Return(
			&ports.Payment{ID: "pay1", AmountSats: creditAmountSats}, nil,
		)
		repo.On("DeleteDeposit", mock.Anything, depositTxID, depositVout).
			Return(nil)

		svc := newTestDepositService(
			repo, chainSvc, signer, domain.NewFixedMaxFee(2500),
		)

		payment, err := svc.ClaimDeposit(ctx, depositTxID, depositVout, nil)
		require.NoError(t, err)
		require.NotNil(t, payment)
		assert.Equal(t, creditAmountSats, payment.AmountSats)
		repo.AssertCalled(
			t, "DeleteDeposit", mock.Anything, depositTxID, depositVout,
		)
	})

	t.Run("rejects and persists error when fee exceeds ceiling", func(t *testing.T) {
		repo, chainSvc, signer := newTestMocks()
		mockClaimableDeposit(repo, chainSvc, signer)

		var persisted *domain.Deposit
		repo.On(
			"UpdateDeposit", mock.Anything, depositTxID, depositVout, mock.Anything,
		).Run(func(args mock.Arguments) {
			updateFn := args.Get(3).(func(*domain.Deposit) (*domain.Deposit, error))
			persisted, _ = updateFn(&domain.Deposit{
				TxID: depositTxID, Vout: depositVout,
			})
		}).Return(nil)

		svc := newTestDepositService(
			repo, chainSvc, signer, domain.NewFixedMaxFee(1500),
		)

		payment, err := svc.ClaimDeposit(ctx, depositTxID, depositVout, nil)
		require.Error(t, err)
		require.Nil(t, payment)

		var claimErr *domain.ClaimError
		require.ErrorAs(t, err, &claimErr)
		assert.Equal(t, domain.ClaimErrorMaxFeeExceeded, claimErr.Type)
		assert.Equal(t, requiredFeeSats, claimErr.RequiredFeeSats)
		assert.Equal(t, uint64(21), claimErr.RequiredFeeRateSatPerVbyte)
		require.NotNil(t, claimErr.MaxFee)
		assert.Equal(t, domain.MaxFeeFixed, claimErr.MaxFee.Type)

		require.NotNil(t, persisted)
		assert.Equal(t, claimErr, persisted.ClaimError)
		signer.AssertNotCalled(t, "ClaimDeposit", mock.Anything, mock.Anything)
	})

	t.Run("rejects with nil max fee when no policy configured", func(t *testing.T) {
		repo, chainSvc, signer := newTestMocks()
		mockClaimableDeposit(repo, chainSvc, signer)
		repo.On(
			"UpdateDeposit", mock.Anything, depositTxID, depositVout, mock.Anything,
		).Return(nil)

		svc := newTestDepositService(repo, chainSvc, signer, nil)

		_, err := svc.ClaimDeposit(ctx, depositTxID, depositVout, nil)
		var claimErr *domain.ClaimError
		require.ErrorAs(t, err, &claimErr)
		assert.Equal(t, domain.ClaimErrorMaxFeeExceeded, claimErr.Type)
		assert.Nil(t, claimErr.MaxFee)
		assert.Equal(t, requiredFeeSats, claimErr.RequiredFeeSats)
	})

	t.Run("explicit max fee overrides the configured policy", func(t *testing.T) {
		repo, chainSvc, signer := newTestMocks()
		mockClaimableDeposit(repo, chainSvc, signer)
		signer.On("ClaimDeposit", mock.Anything, mock.Anything).Return(
			&ports.Payment{ID: "pay1", AmountSats: creditAmountSats}, nil,
		)
		repo.On("DeleteDeposit", mock.Anything, depositTxID, depositVout).
			Return(nil)

		// Configured policy would reject, the per-call override allows.
		svc := newTestDepositService(
			repo, chainSvc, signer, domain.NewFixedMaxFee(100),
		)

		_, err := svc.ClaimDeposit(
			ctx, depositTxID, depositVout, domain.NewRateMaxFee(30),
		)
		require.NoError(t, err)
	})

	t.Run("network recommended ceiling uses live fees", func(t *testing.T) {
		repo, chainSvc, signer := newTestMocks()
		mockClaimableDeposit(repo, chainSvc, signer)
		chainSvc.On("GetRecommendedFees").Return(
			&chain.RecommendedFees{FastestFee: 10}, nil,
		)
		repo.On(
			"UpdateDeposit", mock.Anything, depositTxID, depositVout, mock.Anything,
		).Return(nil)

		// (10 + 2) * 99 = 1188 sats, below the 2000 required.
		svc := newTestDepositService(
			repo, chainSvc, signer, domain.NewNetworkRecommendedMaxFee(2),
		)

		_, err := svc.ClaimDeposit(ctx, depositTxID, depositVout, nil)
		var claimErr *domain.ClaimError
		require.ErrorAs(t, err, &claimErr)
		assert.Equal(t, domain.ClaimErrorMaxFeeExceeded, claimErr.Type)
		chainSvc.AssertCalled(t, "GetRecommendedFees")
	})

	t.Run("missing utxo is persisted as terminal error", func(t *testing.T) {
		repo, chainSvc, signer := newTestMocks()
		repo.On("GetDeposit", mock.Anything, depositTxID, depositVout).Return(
			&domain.Deposit{TxID: depositTxID, Vout: depositVout}, nil,
		)
		chainSvc.On("GetAddressUtxos", depositAddr).Return([]chain.Utxo{}, nil)

		var persisted *domain.Deposit
		repo.On(
			"UpdateDeposit", mock.Anything, depositTxID, depositVout, mock.Anything,
		).Run(func(args mock.Arguments) {
			updateFn := args.Get(3).(func(*domain.Deposit) (*domain.Deposit, error))
			persisted, _ = updateFn(&domain.Deposit{
				TxID: depositTxID, Vout: depositVout,
			})
		}).Return(nil)

		svc := newTestDepositService(
			repo, chainSvc, signer, domain.NewFixedMaxFee(2500),
		)

		_, err := svc.ClaimDeposit(ctx, depositTxID, depositVout, nil)
		var claimErr *domain.ClaimError
		require.ErrorAs(t, err, &claimErr)
		assert.Equal(t, domain.ClaimErrorMissingUtxo, claimErr.Type)
		require.NotNil(t, persisted)
		assert.False(t, persisted.IsClaimable())
	})

	t.Run("rejects deposits already marked unclaimable", func(t *testing.T) {
		repo, chainSvc, signer := newTestMocks()
		repo.On("GetDeposit", mock.Anything, depositTxID, depositVout).Return(
			&domain.Deposit{
				TxID:       depositTxID,
				Vout:       depositVout,
				ClaimError: domain.NewMissingUtxoError(depositTxID, depositVout),
			}, nil,
		)

		svc := newTestDepositService(
			repo, chainSvc, signer, domain.NewFixedMaxFee(2500),
		)

		_, err := svc.ClaimDeposit(ctx, depositTxID, depositVout, nil)
		require.ErrorIs(t, err, application.ErrDepositNotClaimable)
	})

	t.Run("rejects invalid txid", func(t *testing.T) {
		repo, chainSvc, signer := newTestMocks()
		svc := newTestDepositService(repo, chainSvc, signer, nil)

		_, err := svc.ClaimDeposit(ctx, "not-a-txid", 0, nil)
		require.Error(t, err)
	})

	t.Run("only one claim per deposit at a time", func(t *testing.T) {
		repo, chainSvc, signer := newTestMocks()
		mockClaimableDeposit(repo, chainSvc, signer)
		repo.On("DeleteDeposit", mock.Anything, depositTxID, depositVout).
			Return(nil)

		ceremonyStarted := make(chan struct{})
		release := make(chan struct{})
		signer.On("ClaimDeposit", mock.Anything, mock.Anything).Run(
			func(_ mock.Arguments) {
				close(ceremonyStarted)
				<-release
			},
		).Return(&ports.Payment{ID: "pay1"}, nil)

		svc := newTestDepositService(
			repo, chainSvc, signer, domain.NewFixedMaxFee(2500),
		)

		var wg sync.WaitGroup
		wg.Add(1)
		var firstErr error
		go func() {
			defer wg.Done()
			_, firstErr = svc.ClaimDeposit(ctx, depositTxID, depositVout, nil)
		}()

		<-ceremonyStarted
		_, err := svc.ClaimDeposit(ctx, depositTxID, depositVout, nil)
		require.ErrorIs(t, err, application.ErrClaimInProgress)

		close(release)
		wg.Wait()
		require.NoError(t, firstErr)
	})
}

func TestRefundDeposit(t *testing.T) {
	ctx := context.Background()

	t.Run("signs, persists and broadcasts the refund", func(t *testing.T) {
		repo, chainSvc, signer := newTestMocks()
		repo.On("GetDeposit", mock.Anything, depositTxID, depositVout).Return(
			&domain.Deposit{TxID: depositTxID, Vout: depositVout}, nil,
		)
		chainSvc.On("GetTransactionHex", depositTxID).Return(depositTxHex, nil)
		// 2 sat/vB * 99 vB = 198 sats total.
		signer.On(
			"SignRefund", mock.Anything, depositTxHex, depositVout,
			destinationAddr, uint64(198),
		).Return(&ports.SignedTx{TxID: "refundtxid", TxHex: "beef"}, nil)
		repo.On(
			"UpdateDeposit", mock.Anything, depositTxID, depositVout, mock.Anything,
		).Return(nil)
		chainSvc.On("BroadcastTransaction", "beef").Return("refundtxid", nil)

		svc := newTestDepositService(repo, chainSvc, signer, nil)

		res, err := svc.RefundDeposit(
			ctx, depositTxID, depositVout, destinationAddr, domain.NewRateFee(2),
		)
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, "refundtxid", res.TxID)
		assert.Equal(t, "beef", res.TxHex)
		chainSvc.AssertCalled(t, "BroadcastTransaction", "beef")
	})

	t.Run("rejects fee below the relay floor", func(t *testing.T) {
		repo, chainSvc, signer := newTestMocks()
		svc := newTestDepositService(repo, chainSvc, signer, nil)

		_, err := svc.RefundDeposit(
			ctx, depositTxID, depositVout, destinationAddr,
			domain.NewFixedFee(100),
		)
		require.ErrorIs(t, err, application.ErrRefundFeeTooLow)
		signer.AssertNotCalled(
			t, "SignRefund", mock.Anything, mock.Anything, mock.Anything,
			mock.Anything, mock.Anything,
		)
	})

	t.Run("rejects invalid destination address", func(t *testing.T) {
		repo, chainSvc, signer := newTestMocks()
		svc := newTestDepositService(repo, chainSvc, signer, nil)

		_, err := svc.RefundDeposit(
			ctx, depositTxID, depositVout, "invalid-address",
			domain.NewFixedFee(500),
		)
		require.Error(t, err)
	})

	t.Run("does not broadcast if persisting the refund fails", func(t *testing.T) {
		repo, chainSvc, signer := newTestMocks()
		repo.On("GetDeposit", mock.Anything, depositTxID, depositVout).Return(
			&domain.Deposit{TxID: depositTxID, Vout: depositVout}, nil,
		)
		chainSvc.On("GetTransactionHex", depositTxID).Return(depositTxHex, nil)
		signer.On(
			"SignRefund", mock.Anything, mock.Anything, mock.Anything,
			mock.Anything, mock.Anything,
		).Return(&ports.SignedTx{TxID: "refundtxid", TxHex: "beef"}, nil)
		repo.On(
			"UpdateDeposit", mock.Anything, depositTxID, depositVout, mock.Anything,
		).Return(errors.New("db error"))

		svc := newTestDepositService(repo, chainSvc, signer, nil)

		_, err := svc.RefundDeposit(
			ctx, depositTxID, depositVout, destinationAddr, domain.NewFixedFee(500),
		)
		require.Error(t, err)
		chainSvc.AssertNotCalled(t, "BroadcastTransaction", mock.Anything)
	})
}

func TestListUnclaimedDeposits(t *testing.T) {
	repo, chainSvc, signer := newTestMocks()
	deposits := []domain.Deposit{
		{TxID: depositTxID, Vout: 0, AmountSats: 1000},
		{TxID: depositTxID, Vout: 1, AmountSats: 2000},
	}
	repo.On("ListDeposits", mock.Anything).Return(deposits, nil)

	svc := newTestDepositService(repo, chainSvc, signer, nil)

	got, err := svc.ListUnclaimedDeposits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, deposits, got)
}
