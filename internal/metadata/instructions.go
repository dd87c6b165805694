// Package metadata encodes the two Metaplex token metadata instructions the
// proxy dispatches: CreateMetadataAccountV3 and UpdateMetadataAccountV2.
package metadata

import (
	"bytes"

	"github.com/cyphera/authority-proxy/internal/programs"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Instruction opcodes understood by the metadata program.
const (
	InstructionUpdateMetadataAccountV2 uint8 = 15
	InstructionCreateMetadataAccountV3 uint8 = 33
)

// Account counts of the encoded instructions.
const (
	CreateMetadataAccountV3AccountCount = 6
	UpdateMetadataAccountV2AccountCount = 2
)

// CreateMetadataAccountV3Accounts lists the accounts of a create call.
type CreateMetadataAccountV3Accounts struct {
	Metadata        solana.PublicKey
	Mint            solana.PublicKey
	MintAuthority   solana.PublicKey
	Payer           solana.PublicKey
	UpdateAuthority solana.PublicKey
}

// NewCreateMetadataAccountV3Instruction encodes opcode 33 followed by args.
// Account order is positional and fixed by the metadata program.
func NewCreateMetadataAccountV3Instruction(accounts CreateMetadataAccountV3Accounts, args CreateMetadataAccountArgsV3) (*solana.GenericInstruction, error) {
	data, err := encode(InstructionCreateMetadataAccountV3, args)
	if err != nil {
		return nil, encodingError("create_metadata_accounts_v3", err)
	}

	return solana.NewInstruction(
		programs.MetadataProgramID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(accounts.Metadata, true, false),
			solana.NewAccountMeta(accounts.Mint, false, false),
			solana.NewAccountMeta(accounts.MintAuthority, false, true),
			solana.NewAccountMeta(accounts.Payer, true, true),
			solana.NewAccountMeta(accounts.UpdateAuthority, false, true),
			solana.NewAccountMeta(programs.SystemProgramID, false, false),
		},
		data,
	), nil
}

// NewUpdateMetadataAccountV2Instruction encodes opcode 15 followed by args,
// signed by the record's current update authority.
func NewUpdateMetadataAccountV2Instruction(metadata, updateAuthority solana.PublicKey, args UpdateMetadataAccountArgsV2) (*solana.GenericInstruction, error) {
	data, err := encode(InstructionUpdateMetadataAccountV2, args)
	if err != nil {
		return nil, encodingError("update_metadata_accounts_v2", err)
	}

	return solana.NewInstruction(
		programs.MetadataProgramID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(metadata, true, false),
			solana.NewAccountMeta(updateAuthority, false, true),
		},
		data,
	), nil
}

// NewDelegationCreateInstruction builds the create call the proxy issues
// when the record does not exist yet. The proxy originates no descriptive
// content, so name, symbol and URI are empty and the record stays mutable.
// The vault is both mint authority and initial update authority.
func NewDelegationCreateInstruction(record, mint, vault, payer solana.PublicKey) (*solana.GenericInstruction, error) {
	return NewCreateMetadataAccountV3Instruction(
		CreateMetadataAccountV3Accounts{
			Metadata:        record,
			Mint:            mint,
			MintAuthority:   vault,
			Payer:           payer,
			UpdateAuthority: vault,
		},
		CreateMetadataAccountArgsV3{
			Data:      DataV2{},
			IsMutable: true,
		},
	)
}

// NewDelegationUpdateInstruction builds the update call that moves the
// update authority from current to newAuthority without touching the
// descriptive fields.
func NewDelegationUpdateInstruction(record, current, newAuthority solana.PublicKey) (*solana.GenericInstruction, error) {
	isMutable := true
	return NewUpdateMetadataAccountV2Instruction(
		record,
		current,
		UpdateMetadataAccountArgsV2{
			UpdateAuthority: &newAuthority,
			IsMutable:       &isMutable,
		},
	)
}

type marshaler interface {
	MarshalWithEncoder(encoder *bin.Encoder) error
}

func encode(opcode uint8, args marshaler) ([]byte, error) {
	buf := new(bytes.Buffer)
	encoder := bin.NewBorshEncoder(buf)
	if err := encoder.WriteUint8(opcode); err != nil {
		return nil, err
	}
	if err := args.MarshalWithEncoder(encoder); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
