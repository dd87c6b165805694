package services

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/cyphera/authority-proxy/internal/client/chain"
	"github.com/cyphera/authority-proxy/internal/constants"
	"github.com/cyphera/authority-proxy/internal/delegation"
	"github.com/cyphera/authority-proxy/internal/logger"
	"github.com/cyphera/authority-proxy/internal/metadata"
	"github.com/cyphera/authority-proxy/internal/mintwrapper"
	"github.com/cyphera/authority-proxy/internal/pda"
	"github.com/cyphera/authority-proxy/internal/registry"
	"github.com/cyphera/authority-proxy/internal/signer"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=../mocks/mock_chain.go -package=mocks github.com/cyphera/authority-proxy/internal/services ChainReader

// ChainReader is the read side of the RPC client.
type ChainReader interface {
	GetAccountData(ctx context.Context, address solana.PublicKey) ([]byte, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
}

var (
	// ErrMintWrapperNotFound is returned when the wrapper account does not exist.
	ErrMintWrapperNotFound = errors.New(constants.MintWrapperNotFound)
	// ErrWrapperAddressMismatch is returned when the wrapper's stored seeds
	// do not rebuild the address it was loaded from.
	ErrWrapperAddressMismatch = errors.New("mint wrapper address does not match its seeds")
	// ErrMintMismatch is returned when the requested mint is not the wrapper's mint.
	ErrMintMismatch = errors.New("token mint is not managed by the mint wrapper")
)

// PlanParams identifies one delegation.
type PlanParams struct {
	MintWrapper        solana.PublicKey
	MinterAuthority    solana.PublicKey
	NewUpdateAuthority solana.PublicKey
	// TokenMint is optional. When set it must equal the wrapper's mint.
	TokenMint *solana.PublicKey
}

// AccountView is one account of a dispatched call.
type AccountView struct {
	Address  solana.PublicKey `json:"address"`
	Writable bool             `json:"writable"`
	Signer   bool             `json:"signer"`
}

// DispatchStep is one inner call the proxy would make.
type DispatchStep struct {
	Step        string        `json:"step"`
	Instruction string        `json:"instruction"`
	Opcode      uint8         `json:"opcode"`
	Accounts    []AccountView `json:"accounts"`
	Data        string        `json:"data"`
	SignedBy    string        `json:"signed_by"`
}

// Plan is the dry-run outcome of a delegation against current chain state.
type Plan struct {
	RequestID              string             `json:"request_id"`
	MintWrapper            solana.PublicKey   `json:"mint_wrapper"`
	TokenMint              solana.PublicKey   `json:"token_mint"`
	Metadata               solana.PublicKey   `json:"metadata"`
	RecordExists           bool               `json:"record_exists"`
	CurrentUpdateAuthority *solana.PublicKey  `json:"current_update_authority,omitempty"`
	NewUpdateAuthority     solana.PublicKey   `json:"new_update_authority"`
	Trace                  []delegation.State `json:"trace"`
	Dispatches             []DispatchStep     `json:"dispatches"`
}

// UnsignedTransaction is the outer proxy call, ready for the minter to sign.
type UnsignedTransaction struct {
	Transaction string              `json:"transaction"`
	Blockhash   solana.Hash         `json:"blockhash"`
	Plan        *Plan               `json:"plan"`
	Tx          *solana.Transaction `json:"-"`
}

// MetadataStatus describes a mint's metadata record.
type MetadataStatus struct {
	Address         solana.PublicKey  `json:"address"`
	Bump            uint8             `json:"bump"`
	Exists          bool              `json:"exists"`
	UpdateAuthority *solana.PublicKey `json:"update_authority,omitempty"`
	IsMutable       *bool             `json:"is_mutable,omitempty"`
	Name            string            `json:"name,omitempty"`
	Symbol          string            `json:"symbol,omitempty"`
	URI             string            `json:"uri,omitempty"`
}

// DelegationService plans and builds metadata authority delegations.
type DelegationService struct {
	programID solana.PublicKey
	chain     ChainReader
	logger    *zap.Logger
}

// NewDelegationService creates a service for the mint wrapper deployment programID.
func NewDelegationService(programID solana.PublicKey, chainReader ChainReader) *DelegationService {
	return &DelegationService{
		programID: programID,
		chain:     chainReader,
		logger:    logger.OrNop(),
	}
}

// MetadataAddress derives the metadata record of mint.
func (s *DelegationService) MetadataAddress(mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return pda.FindMetadataAddress(mint)
}

// GetMetadataStatus derives the record of mint and reports what is stored there.
func (s *DelegationService) GetMetadataStatus(ctx context.Context, mint solana.PublicKey) (*MetadataStatus, error) {
	address, bump, err := pda.FindMetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	status := &MetadataStatus{Address: address, Bump: bump}

	summary, err := s.fetchRecord(ctx, address)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return status, nil
	}

	status.Exists = true
	status.UpdateAuthority = &summary.UpdateAuthority
	status.IsMutable = &summary.IsMutable
	status.Name = summary.Name
	status.Symbol = summary.Symbol
	status.URI = summary.URI
	return status, nil
}

// Plan replays the delegation against a simulator seeded with current chain
// state and reports the inner calls it would make. Rejections are returned
// exactly as the on-chain program would surface them.
func (s *DelegationService) Plan(ctx context.Context, params PlanParams) (*Plan, error) {
	log := s.logger.With(
		zap.String("mint_wrapper", params.MintWrapper.String()),
		zap.String("new_update_authority", params.NewUpdateAuthority.String()),
	)

	wrapper, vault, err := s.loadMintWrapper(ctx, params.MintWrapper)
	if err != nil {
		return nil, err
	}
	mint := wrapper.TokenMint
	if params.TokenMint != nil && !params.TokenMint.Equals(mint) {
		return nil, fmt.Errorf("%w: wrapper mint is %s", ErrMintMismatch, mint)
	}

	record, _, err := pda.FindMetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	plan := &Plan{
		MintWrapper:        params.MintWrapper,
		TokenMint:          mint,
		Metadata:           record,
		NewUpdateAuthority: params.NewUpdateAuthority,
	}

	opts := []registry.Option{
		registry.WithSigners(params.MinterAuthority),
		registry.WithLogger(s.logger),
	}
	summary, err := s.fetchRecord(ctx, record)
	if err != nil {
		return nil, err
	}
	if summary != nil {
		plan.RecordExists = true
		plan.CurrentUpdateAuthority = &summary.UpdateAuthority
		opts = append(opts, registry.WithRecord(record, registry.Record{
			Mint:            summary.Mint,
			UpdateAuthority: summary.UpdateAuthority,
			Data: metadata.DataV2{
				Name:                 summary.Name,
				Symbol:               summary.Symbol,
				URI:                  summary.URI,
				SellerFeeBasisPoints: summary.SellerFeeBasisPoints,
			},
			PrimarySaleHappened: summary.PrimarySaleHappened,
			IsMutable:           summary.IsMutable,
		}))
	}

	sim := registry.NewSimulator(opts...)
	req := delegation.NewRequest(vault, params.MinterAuthority, mint, record, params.NewUpdateAuthority)
	plan.RequestID = req.ID

	var result *delegation.Result
	err = sim.Atomically(ctx, func(tx *registry.Tx) error {
		var err error
		result, err = delegation.NewHandler(s.programID, tx, s.logger).SetMetaplexUpdateAuthority(ctx, req)
		return err
	})
	if err != nil {
		log.Info("Delegation plan rejected", zap.Error(err))
		return nil, err
	}

	plan.Trace = result.Trace
	for _, d := range sim.Dispatched() {
		plan.Dispatches = append(plan.Dispatches, toDispatchStep(d))
	}

	log.Debug("Delegation plan built",
		zap.String("request_id", plan.RequestID),
		zap.Bool("record_exists", plan.RecordExists),
		zap.Int("dispatches", len(plan.Dispatches)),
	)
	return plan, nil
}

// BuildTransaction plans the delegation and, if it would succeed, returns
// the unsigned outer transaction with the minter authority as fee payer.
func (s *DelegationService) BuildTransaction(ctx context.Context, params PlanParams) (*UnsignedTransaction, error) {
	plan, err := s.Plan(ctx, params)
	if err != nil {
		return nil, err
	}

	ix, err := mintwrapper.NewSetMetaplexUpdateAuthorityInstruction(s.programID, mintwrapper.SetMetaplexUpdateAuthorityAccounts{
		MintWrapper:        params.MintWrapper,
		MinterAuthority:    params.MinterAuthority,
		TokenMint:          plan.TokenMint,
		NewUpdateAuthority: params.NewUpdateAuthority,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build proxy instruction: %w", err)
	}

	blockhash, err := s.chain.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		blockhash,
		solana.TransactionPayer(params.MinterAuthority),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble transaction: %w", err)
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}

	return &UnsignedTransaction{
		Transaction: base64.StdEncoding.EncodeToString(raw),
		Blockhash:   blockhash,
		Plan:        plan,
		Tx:          tx,
	}, nil
}

func (s *DelegationService) loadMintWrapper(ctx context.Context, address solana.PublicKey) (*mintwrapper.MintWrapper, signer.Vault, error) {
	data, err := s.chain.GetAccountData(ctx, address)
	if errors.Is(err, chain.ErrAccountNotFound) {
		return nil, signer.Vault{}, fmt.Errorf("%w: %s", ErrMintWrapperNotFound, address)
	}
	if err != nil {
		return nil, signer.Vault{}, fmt.Errorf("failed to fetch mint wrapper: %w", err)
	}

	wrapper, err := mintwrapper.DecodeMintWrapper(data)
	if err != nil {
		return nil, signer.Vault{}, err
	}
	vault, err := wrapper.Vault(s.programID)
	if err != nil {
		return nil, signer.Vault{}, err
	}
	if !vault.Address.Equals(address) {
		return nil, signer.Vault{}, fmt.Errorf("%w: seeds give %s", ErrWrapperAddressMismatch, vault.Address)
	}
	return wrapper, vault, nil
}

// fetchRecord returns nil when the record has no data yet.
func (s *DelegationService) fetchRecord(ctx context.Context, address solana.PublicKey) (*metadata.RecordSummary, error) {
	data, err := s.chain.GetAccountData(ctx, address)
	if errors.Is(err, chain.ErrAccountNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to probe metadata record: %w", err)
	}
	return metadata.DecodeRecordSummary(data)
}

func toDispatchStep(d registry.Dispatch) DispatchStep {
	step := DispatchStep{
		Instruction: d.Name,
		Opcode:      d.Opcode,
		Data:        hex.EncodeToString(d.Data),
		SignedBy:    d.PDASigner.String(),
	}
	switch d.Opcode {
	case metadata.InstructionCreateMetadataAccountV3:
		step.Step = constants.StepCreate
	case metadata.InstructionUpdateMetadataAccountV2:
		step.Step = constants.StepUpdate
	}
	for _, meta := range d.Accounts {
		step.Accounts = append(step.Accounts, AccountView{
			Address:  meta.PublicKey,
			Writable: meta.IsWritable,
			Signer:   meta.IsSigner,
		})
	}
	return step
}
