package chain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cyphera/authority-proxy/internal/client/chain"
	"github.com/cyphera/authority-proxy/internal/logger"
	"github.com/cyphera/authority-proxy/internal/mocks"
	"github.com/cyphera/authority-proxy/internal/programs"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger("test")
}

func fastRetry() chain.Option {
	return chain.WithRetryConfig(chain.RetryConfig{
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      1.5,
		MaxElapsedTime:  50 * time.Millisecond,
	})
}

func statuses(status *rpc.SignatureStatusesResult) *rpc.GetSignatureStatusesResult {
	return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{status}}
}

func TestClient_GetAccountData(t *testing.T) {
	ctx := context.Background()
	address := solana.NewWallet().PublicKey()

	tests := []struct {
		name       string
		setupMocks func(m *mocks.MockRPC)
		wantData   []byte
		wantErr    error
	}{
		{
			name: "returns account bytes",
			setupMocks: func(m *mocks.MockRPC) {
				m.On("GetAccountInfoWithOpts", ctx, address, mock.Anything).
					Return(mocks.AccountInfo(programs.MetadataProgramID, []byte{4, 1, 2}), nil)
			},
			wantData: []byte{4, 1, 2},
		},
		{
			name: "maps rpc not found",
			setupMocks: func(m *mocks.MockRPC) {
				m.On("GetAccountInfoWithOpts", ctx, address, mock.Anything).Return(nil, rpc.ErrNotFound)
			},
			wantErr: chain.ErrAccountNotFound,
		},
		{
			name: "treats empty data as missing",
			setupMocks: func(m *mocks.MockRPC) {
				m.On("GetAccountInfoWithOpts", ctx, address, mock.Anything).
					Return(mocks.AccountInfo(programs.SystemProgramID, nil), nil)
			},
			wantErr: chain.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(mocks.MockRPC)
			tt.setupMocks(m)
			client := chain.NewClientWithRPC(m)

			data, err := client.GetAccountData(ctx, address)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantData, data)
			}
			m.AssertExpectations(t)
		})
	}
}

func TestClient_AccountExists(t *testing.T) {
	ctx := context.Background()
	present, missing, broken := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	rpcErr := errors.New("connection refused")

	m := new(mocks.MockRPC)
	m.On("GetAccountInfoWithOpts", ctx, present, mock.Anything).Return(mocks.AccountInfo(programs.MetadataProgramID, []byte{4}), nil)
	m.On("GetAccountInfoWithOpts", ctx, missing, mock.Anything).Return(nil, rpc.ErrNotFound)
	m.On("GetAccountInfoWithOpts", ctx, broken, mock.Anything).Return(nil, rpcErr)
	client := chain.NewClientWithRPC(m)

	exists, err := client.AccountExists(ctx, present)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = client.AccountExists(ctx, missing)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = client.AccountExists(ctx, broken)
	assert.ErrorIs(t, err, rpcErr)
}

func TestClient_LatestBlockhash(t *testing.T) {
	ctx := context.Background()
	hash := solana.HashFromBytes(make([]byte, 32))
	hash[0] = 7

	m := new(mocks.MockRPC)
	m.On("GetLatestBlockhash", ctx, rpc.CommitmentFinalized).Return(&rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{Blockhash: hash},
	}, nil)

	client := chain.NewClientWithRPC(m, chain.WithCommitment(rpc.CommitmentFinalized))
	got, err := client.LatestBlockhash(ctx)
	require.NoError(t, err)
	assert.Equal(t, hash, got)
}

func TestClient_WaitForConfirmation(t *testing.T) {
	ctx := context.Background()
	sig := solana.Signature{1}

	t.Run("polls until confirmed", func(t *testing.T) {
		m := new(mocks.MockRPC)
		m.On("GetSignatureStatuses", ctx, true, []solana.Signature{sig}).Return(statuses(nil), nil).Once()
		m.On("GetSignatureStatuses", ctx, true, []solana.Signature{sig}).
			Return(statuses(&rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusProcessed}), nil).Once()
		m.On("GetSignatureStatuses", ctx, true, []solana.Signature{sig}).
			Return(statuses(&rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusConfirmed}), nil).Once()

		client := chain.NewClientWithRPC(m, fastRetry())
		require.NoError(t, client.WaitForConfirmation(ctx, sig))
		m.AssertNumberOfCalls(t, "GetSignatureStatuses", 3)
	})

	t.Run("stops on a failed transaction", func(t *testing.T) {
		m := new(mocks.MockRPC)
		m.On("GetSignatureStatuses", ctx, true, []solana.Signature{sig}).Return(statuses(&rpc.SignatureStatusesResult{
			Err:                map[string]interface{}{"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 7}}},
			ConfirmationStatus: rpc.ConfirmationStatusConfirmed,
		}), nil)

		client := chain.NewClientWithRPC(m, fastRetry())
		err := client.WaitForConfirmation(ctx, sig)
		assert.ErrorIs(t, err, chain.ErrTransactionFailed)
		m.AssertNumberOfCalls(t, "GetSignatureStatuses", 1)
	})

	t.Run("gives up when never confirmed", func(t *testing.T) {
		m := new(mocks.MockRPC)
		m.On("GetSignatureStatuses", ctx, true, []solana.Signature{sig}).Return(statuses(nil), nil)

		client := chain.NewClientWithRPC(m, fastRetry())
		assert.ErrorIs(t, client.WaitForConfirmation(ctx, sig), chain.ErrNotConfirmed)
	})

	t.Run("finalized commitment waits for finalization", func(t *testing.T) {
		m := new(mocks.MockRPC)
		m.On("GetSignatureStatuses", ctx, true, []solana.Signature{sig}).
			Return(statuses(&rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusConfirmed}), nil)

		client := chain.NewClientWithRPC(m, fastRetry(), chain.WithCommitment(rpc.CommitmentFinalized))
		assert.ErrorIs(t, client.WaitForConfirmation(ctx, sig), chain.ErrNotConfirmed)
	})
}

func TestClient_SendTransaction(t *testing.T) {
	ctx := context.Background()
	tx := &solana.Transaction{}
	sig := solana.Signature{9}

	m := new(mocks.MockRPC)
	m.On("SendTransactionWithOpts", ctx, tx, rpc.TransactionOpts{PreflightCommitment: rpc.CommitmentConfirmed}).Return(sig, nil)

	got, err := chain.NewClientWithRPC(m).SendTransaction(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, sig, got)

	failing := new(mocks.MockRPC)
	failing.On("SendTransactionWithOpts", ctx, tx, mock.Anything).Return(solana.Signature{}, errors.New("blockhash not found"))
	_, err = chain.NewClientWithRPC(failing).SendTransaction(ctx, tx)
	assert.ErrorContains(t, err, "failed to send transaction")
}
