package mocks

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/mock"
)

// MockRPC provides a mock for the Solana JSON-RPC client
type MockRPC struct {
	mock.Mock
}

func (m *MockRPC) GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error) {
	args := m.Called(ctx, account, opts)
	out, _ := args.Get(0).(*rpc.GetAccountInfoResult)
	return out, args.Error(1)
}

func (m *MockRPC) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	args := m.Called(ctx, commitment)
	out, _ := args.Get(0).(*rpc.GetLatestBlockhashResult)
	return out, args.Error(1)
}

func (m *MockRPC) SendTransactionWithOpts(ctx context.Context, transaction *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
	args := m.Called(ctx, transaction, opts)
	sig, _ := args.Get(0).(solana.Signature)
	return sig, args.Error(1)
}

func (m *MockRPC) GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	args := m.Called(ctx, searchTransactionHistory, transactionSignatures)
	out, _ := args.Get(0).(*rpc.GetSignatureStatusesResult)
	return out, args.Error(1)
}

// AccountInfo builds a GetAccountInfo response carrying data.
func AccountInfo(owner solana.PublicKey, data []byte) *rpc.GetAccountInfoResult {
	return &rpc.GetAccountInfoResult{
		Value: &rpc.Account{
			Owner: owner,
			Data:  rpc.DataBytesOrJSONFromBytes(data),
		},
	}
}
