package mintwrapper

import (
	"bytes"
	"fmt"

	"github.com/cyphera/authority-proxy/internal/pda"
	"github.com/cyphera/authority-proxy/internal/programs"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Instruction names as registered with the program.
const (
	InstructionSetMetaplexUpdateAuthority = "set_metaplex_update_authority"
	InstructionCreateMintMetadata         = "create_mint_metadata"
)

// Sighash returns the 8-byte selector of a global instruction.
func Sighash(name string) [discriminatorSize]byte {
	return hashPrefix("global:" + name)
}

// SetMetaplexUpdateAuthorityAccounts are the accounts of the proxy call.
// The metadata record is derived from TokenMint.
type SetMetaplexUpdateAuthorityAccounts struct {
	MintWrapper        solana.PublicKey
	MinterAuthority    solana.PublicKey
	TokenMint          solana.PublicKey
	NewUpdateAuthority solana.PublicKey
}

// NewSetMetaplexUpdateAuthorityInstruction builds the outer proxy call.
func NewSetMetaplexUpdateAuthorityInstruction(programID solana.PublicKey, accounts SetMetaplexUpdateAuthorityAccounts) (*solana.GenericInstruction, error) {
	metadataInfo, _, err := pda.FindMetadataAddress(accounts.TokenMint)
	if err != nil {
		return nil, err
	}

	selector := Sighash(InstructionSetMetaplexUpdateAuthority)
	return solana.NewInstruction(
		programID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(accounts.MintWrapper, true, false),
			solana.NewAccountMeta(accounts.MinterAuthority, false, true),
			solana.NewAccountMeta(accounts.TokenMint, true, false),
			solana.NewAccountMeta(programs.MetadataProgramID, false, false),
			solana.NewAccountMeta(metadataInfo, true, false),
			solana.NewAccountMeta(accounts.NewUpdateAuthority, true, false),
			solana.NewAccountMeta(programs.SystemProgramID, false, false),
			solana.NewAccountMeta(programs.InstructionsSysvarID, false, false),
		},
		selector[:],
	), nil
}

// CreateMintMetadataAccounts are the accounts of the metadata creation call.
type CreateMintMetadataAccounts struct {
	MintWrapper     solana.PublicKey
	MinterAuthority solana.PublicKey
	TokenMint       solana.PublicKey
}

// CreateMintMetadataArgs are the descriptive fields of the new record.
type CreateMintMetadataArgs struct {
	Name   string
	Symbol string
	URI    string
}

// NewCreateMintMetadataInstruction builds the call that creates a record
// with the wrapper vault as its update authority.
func NewCreateMintMetadataInstruction(programID solana.PublicKey, accounts CreateMintMetadataAccounts, args CreateMintMetadataArgs) (*solana.GenericInstruction, error) {
	metadataInfo, _, err := pda.FindMetadataAddress(accounts.TokenMint)
	if err != nil {
		return nil, err
	}

	selector := Sighash(InstructionCreateMintMetadata)
	buf := bytes.NewBuffer(selector[:])
	if err := bin.NewBorshEncoder(buf).Encode(args); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", InstructionCreateMintMetadata, err)
	}

	return solana.NewInstruction(
		programID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(accounts.MintWrapper, true, false),
			solana.NewAccountMeta(accounts.MinterAuthority, true, true),
			solana.NewAccountMeta(accounts.TokenMint, true, false),
			solana.NewAccountMeta(programs.MetadataProgramID, false, false),
			solana.NewAccountMeta(metadataInfo, true, false),
			solana.NewAccountMeta(programs.SystemProgramID, false, false),
		},
		buf.Bytes(),
	), nil
}
