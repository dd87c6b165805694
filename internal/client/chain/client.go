// Package chain wraps the Solana JSON-RPC calls the proxy needs: account
// reads for the record probe, blockhashes, submission and confirmation.
package chain

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cyphera/authority-proxy/internal/logger"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	// ErrAccountNotFound is returned when an account has no data on chain.
	ErrAccountNotFound = errors.New("account not found")
	// ErrTransactionFailed is returned when a submitted transaction lands with an error.
	ErrTransactionFailed = errors.New("transaction failed")
	// ErrNotConfirmed is returned when confirmation polling runs out of time.
	ErrNotConfirmed = errors.New("transaction not confirmed")
)

// RPC is the subset of *rpc.Client used here.
type RPC interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, transaction *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// RetryConfig controls confirmation polling.
type RetryConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxElapsedTime  time.Duration
}

// DefaultRetryConfig polls quickly at first and gives up after a minute.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      1.5,
		MaxElapsedTime:  time.Minute,
	}
}

// Option configures a Client.
type Option func(*Client)

// WithCommitment sets the commitment used for reads and confirmation.
func WithCommitment(commitment rpc.CommitmentType) Option {
	return func(c *Client) {
		c.commitment = commitment
	}
}

// WithRetryConfig overrides confirmation polling.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// Client is a thin, logged wrapper over an RPC endpoint.
type Client struct {
	rpc        RPC
	commitment rpc.CommitmentType
	retry      RetryConfig
	logger     *zap.Logger
}

// NewClient dials endpoint over HTTP.
func NewClient(endpoint string, opts ...Option) *Client {
	return NewClientWithRPC(rpc.New(endpoint), opts...)
}

// NewClientWithRPC wraps an existing RPC implementation.
func NewClientWithRPC(r RPC, opts ...Option) *Client {
	c := &Client{
		rpc:        r,
		commitment: rpc.CommitmentConfirmed,
		retry:      DefaultRetryConfig(),
		logger:     logger.OrNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetAccountData returns the raw data of address, or ErrAccountNotFound.
func (c *Client) GetAccountData(ctx context.Context, address solana.PublicKey) ([]byte, error) {
	out, err := c.rpc.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, errors.Wrap(ErrAccountNotFound, address.String())
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get account %s", address)
	}
	if out == nil || out.Value == nil || out.Value.Data == nil {
		return nil, errors.Wrap(ErrAccountNotFound, address.String())
	}

	data := out.Value.Data.GetBinary()
	if len(data) == 0 {
		return nil, errors.Wrap(ErrAccountNotFound, address.String())
	}
	return data, nil
}

// AccountExists reports whether address holds any data.
func (c *Client) AccountExists(ctx context.Context, address solana.PublicKey) (bool, error) {
	_, err := c.GetAccountData(ctx, address)
	if errors.Is(err, ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// LatestBlockhash returns a recent blockhash for transaction building.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	out, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Hash{}, errors.Wrap(err, "failed to get latest blockhash")
	}
	if out == nil || out.Value == nil {
		return solana.Hash{}, errors.New("empty blockhash response")
	}
	return out.Value.Blockhash, nil
}

// SendTransaction submits a signed transaction.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "failed to send transaction")
	}
	c.logger.Info("Submitted transaction", zap.String("signature", sig.String()))
	return sig, nil
}

// WaitForConfirmation polls the signature status with exponential backoff
// until it reaches the client's commitment. A transaction that landed with
// an error stops polling immediately.
func (c *Client) WaitForConfirmation(ctx context.Context, sig solana.Signature) error {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.retry.InitialInterval
	expBackoff.MaxInterval = c.retry.MaxInterval
	expBackoff.Multiplier = c.retry.Multiplier
	expBackoff.MaxElapsedTime = c.retry.MaxElapsedTime

	attempts := 0
	operation := func() error {
		attempts++
		out, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			return errors.Wrap(err, "failed to get signature status")
		}
		if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
			return ErrNotConfirmed
		}

		status := out.Value[0]
		if status.Err != nil {
			return backoff.Permanent(errors.Wrapf(ErrTransactionFailed, "%v", status.Err))
		}
		if !c.reached(status.ConfirmationStatus) {
			return ErrNotConfirmed
		}
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(expBackoff, ctx))
	if err != nil {
		c.logger.Warn("Transaction confirmation failed",
			zap.String("signature", sig.String()),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("Transaction confirmed",
		zap.String("signature", sig.String()),
		zap.Int("attempts", attempts),
	)
	return nil
}

func (c *Client) reached(status rpc.ConfirmationStatusType) bool {
	switch c.commitment {
	case rpc.CommitmentFinalized:
		return status == rpc.ConfirmationStatusFinalized
	case rpc.CommitmentProcessed:
		return status != ""
	default:
		return status == rpc.ConfirmationStatusConfirmed || status == rpc.ConfirmationStatusFinalized
	}
}
