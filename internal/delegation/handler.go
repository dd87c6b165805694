// Package delegation moves the update authority of a mint's Metaplex
// metadata record from the mint wrapper vault to a new authority, creating
// the record first when it does not exist.
package delegation

import (
	"context"
	"fmt"

	"github.com/cyphera/authority-proxy/internal/constants"
	"github.com/cyphera/authority-proxy/internal/logger"
	"github.com/cyphera/authority-proxy/internal/metadata"
	"github.com/cyphera/authority-proxy/internal/pda"
	"github.com/cyphera/authority-proxy/internal/programs"
	"github.com/cyphera/authority-proxy/internal/signer"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=../mocks/mock_registry.go -package=mocks github.com/cyphera/authority-proxy/internal/delegation Registry

// Registry is the metadata program as seen from the proxy. RecordExists
// probes whether a record's storage is populated; Invoke performs one
// signed cross-program call.
type Registry interface {
	RecordExists(ctx context.Context, record solana.PublicKey) (bool, error)
	Invoke(ctx context.Context, call *signer.SignedCall) error
}

// Request is one invocation of the proxy. Program accounts are supplied by
// the caller and checked against the fixed identities before use.
type Request struct {
	ID                 string
	Vault              signer.Vault
	MinterAuthority    solana.PublicKey
	TokenMint          solana.PublicKey
	MetadataProgram    solana.PublicKey
	MetadataInfo       solana.PublicKey
	NewUpdateAuthority solana.PublicKey
	SystemProgram      solana.PublicKey
	InstructionsSysvar solana.PublicKey
}

// NewRequest fills in the fixed program accounts and a request ID.
func NewRequest(vault signer.Vault, minterAuthority, mint, record, newAuthority solana.PublicKey) Request {
	return Request{
		ID:                 uuid.New().String(),
		Vault:              vault,
		MinterAuthority:    minterAuthority,
		TokenMint:          mint,
		MetadataProgram:    programs.MetadataProgramID,
		MetadataInfo:       record,
		NewUpdateAuthority: newAuthority,
		SystemProgram:      programs.SystemProgramID,
		InstructionsSysvar: programs.InstructionsSysvarID,
	}
}

// State is a step of the delegation state machine.
type State string

const (
	StateStart            State = "start"
	StateAddressValidated State = "address_validated"
	StateRecordMissing    State = "record_missing"
	StateRecordPresent    State = "record_present"
	StateCreated          State = "created"
	StateUpdatePending    State = "update_pending"
	StateDone             State = "done"
)

// Result reports what an invocation did.
type Result struct {
	Record     solana.PublicKey
	Created    bool
	Dispatched []string
	Trace      []State
}

// Handler runs delegation requests against a Registry.
type Handler struct {
	programID solana.PublicKey
	registry  Registry
	logger    *zap.Logger
}

// NewHandler creates a handler acting for the mint wrapper program
// programID. A nil logger falls back to the global logger.
func NewHandler(programID solana.PublicKey, registry Registry, log *zap.Logger) *Handler {
	if log == nil {
		log = logger.OrNop()
	}
	return &Handler{
		programID: programID,
		registry:  registry,
		logger:    log,
	}
}

// SetMetaplexUpdateAuthority validates the metadata address, creates the
// record when its storage is empty and then reassigns its update authority
// to req.NewUpdateAuthority. The first failing step aborts the invocation.
func (h *Handler) SetMetaplexUpdateAuthority(ctx context.Context, req Request) (*Result, error) {
	log := h.logger.With(
		zap.String("request_id", req.ID),
		zap.String("mint", req.TokenMint.String()),
		zap.String("metadata", req.MetadataInfo.String()),
		zap.String("vault", req.Vault.Address.String()),
		zap.String("new_update_authority", req.NewUpdateAuthority.String()),
	)
	result := &Result{Record: req.MetadataInfo, Trace: []State{StateStart}}

	if err := checkProgramAccounts(req); err != nil {
		log.Warn("Rejected program account", zap.Error(err))
		return nil, err
	}

	if err := pda.ValidateMetadataAddress(req.MetadataInfo, req.TokenMint); err != nil {
		log.Warn("Metadata address does not match derivation", zap.Error(err))
		return nil, err
	}
	result.Trace = append(result.Trace, StateAddressValidated)

	exists, err := h.registry.RecordExists(ctx, req.MetadataInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to probe metadata record: %w", err)
	}

	if !exists {
		result.Trace = append(result.Trace, StateRecordMissing)
		log.Info("Metadata record missing, creating it with the vault as update authority")

		create, err := metadata.NewDelegationCreateInstruction(
			req.MetadataInfo,
			req.TokenMint,
			req.Vault.Address,
			req.MinterAuthority,
		)
		if err != nil {
			log.Error("Failed to encode create instruction", zap.Error(err))
			return nil, err
		}
		if err := h.dispatch(ctx, req.Vault, constants.StepCreate, create); err != nil {
			log.Error("Create dispatch rejected", zap.Error(err))
			return nil, err
		}
		result.Created = true
		result.Dispatched = append(result.Dispatched, constants.StepCreate)
		result.Trace = append(result.Trace, StateCreated)
	} else {
		result.Trace = append(result.Trace, StateRecordPresent)
	}
	result.Trace = append(result.Trace, StateUpdatePending)

	// The vault is the current authority both right after creation and
	// between delegations.
	update, err := metadata.NewDelegationUpdateInstruction(
		req.MetadataInfo,
		req.Vault.Address,
		req.NewUpdateAuthority,
	)
	if err != nil {
		log.Error("Failed to encode update instruction", zap.Error(err))
		return nil, err
	}
	if err := h.dispatch(ctx, req.Vault, constants.StepUpdate, update); err != nil {
		log.Error("Update dispatch rejected", zap.Error(err))
		return nil, err
	}
	result.Dispatched = append(result.Dispatched, constants.StepUpdate)
	result.Trace = append(result.Trace, StateDone)

	log.Info("Metadata update authority reassigned", zap.Bool("created", result.Created))
	return result, nil
}

// CreateMintMetadataRequest creates a record with descriptive content and
// leaves the vault as its update authority.
type CreateMintMetadataRequest struct {
	ID              string
	Vault           signer.Vault
	MinterAuthority solana.PublicKey
	TokenMint       solana.PublicKey
	MetadataProgram solana.PublicKey
	MetadataInfo    solana.PublicKey
	Name            string
	Symbol          string
	URI             string
}

// CreateMintMetadata validates the metadata address and dispatches a single
// create call carrying name, symbol and URI. An existing record is
// rejected by the metadata program and surfaced as ErrDispatchRejected.
func (h *Handler) CreateMintMetadata(ctx context.Context, req CreateMintMetadataRequest) error {
	log := h.logger.With(
		zap.String("request_id", req.ID),
		zap.String("mint", req.TokenMint.String()),
		zap.String("metadata", req.MetadataInfo.String()),
	)

	if !programs.IsMetadataProgram(req.MetadataProgram) {
		return fmt.Errorf("%w: metadata program %s", ErrInvalidProgram, req.MetadataProgram)
	}
	if err := pda.ValidateMetadataAddress(req.MetadataInfo, req.TokenMint); err != nil {
		log.Warn("Metadata address does not match derivation", zap.Error(err))
		return err
	}

	create, err := metadata.NewCreateMetadataAccountV3Instruction(
		metadata.CreateMetadataAccountV3Accounts{
			Metadata:        req.MetadataInfo,
			Mint:            req.TokenMint,
			MintAuthority:   req.Vault.Address,
			Payer:           req.MinterAuthority,
			UpdateAuthority: req.Vault.Address,
		},
		metadata.CreateMetadataAccountArgsV3{
			Data: metadata.DataV2{
				Name:   req.Name,
				Symbol: req.Symbol,
				URI:    req.URI,
			},
			IsMutable: true,
		},
	)
	if err != nil {
		return err
	}
	if err := h.dispatch(ctx, req.Vault, constants.StepCreate, create); err != nil {
		log.Error("Create dispatch rejected", zap.Error(err))
		return err
	}

	log.Info("Mint metadata created", zap.String("name", req.Name), zap.String("symbol", req.Symbol))
	return nil
}

// dispatch signs ix as the vault and hands it to the registry. Each call
// gets its own capability.
func (h *Handler) dispatch(ctx context.Context, vault signer.Vault, step string, ix solana.Instruction) error {
	call, err := signer.SignAsVault(h.programID, vault, ix)
	if err != nil {
		return fmt.Errorf("failed to sign %s as vault: %w", step, err)
	}
	if err := h.registry.Invoke(ctx, call); err != nil {
		return &DispatchError{Step: step, Err: err}
	}
	return nil
}

func checkProgramAccounts(req Request) error {
	if !programs.IsMetadataProgram(req.MetadataProgram) {
		return fmt.Errorf("%w: metadata program %s", ErrInvalidProgram, req.MetadataProgram)
	}
	if !req.SystemProgram.Equals(programs.SystemProgramID) {
		return fmt.Errorf("%w: system program %s", ErrInvalidProgram, req.SystemProgram)
	}
	if !req.InstructionsSysvar.Equals(programs.InstructionsSysvarID) {
		return fmt.Errorf("%w: instructions sysvar %s", ErrInvalidProgram, req.InstructionsSysvar)
	}
	return nil
}
