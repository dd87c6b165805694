// Package signer reconstructs the mint wrapper's program-derived signing
// authority. The vault holds no private key: its signature is the seed set
// it was derived from, handed to the runtime for one outgoing call.
package signer

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"
)

// VaultSeedPrefix is the first seed of every mint wrapper address.
const VaultSeedPrefix = "MintWrapper"

var (
	// ErrSeedMismatch means the vault's seeds do not rebuild its address.
	ErrSeedMismatch = errors.New("vault signer seeds do not match vault address")
	// ErrVaultNotSigner means the instruction never asks the vault to sign.
	ErrVaultNotSigner = errors.New("instruction does not require the vault's signature")
	// ErrCapabilityConsumed means a signed call was dispatched twice.
	ErrCapabilityConsumed = errors.New("signing capability already consumed")
	// ErrNotSerializable is returned by every marshal method of SignedCall.
	ErrNotSerializable = errors.New("signing capability cannot be serialized")
)

// Vault is the program-derived authority that signs for the proxy.
type Vault struct {
	Address solana.PublicKey
	Base    solana.PublicKey
	Bump    uint8
}

// DeriveVault finds the vault address and bump for base under programID.
func DeriveVault(programID, base solana.PublicKey) (Vault, error) {
	address, bump, err := solana.FindProgramAddress(
		[][]byte{[]byte(VaultSeedPrefix), base.Bytes()},
		programID,
	)
	if err != nil {
		return Vault{}, fmt.Errorf("failed to derive vault for base %s: %w", base, err)
	}
	return Vault{Address: address, Base: base, Bump: bump}, nil
}

// SignerSeeds returns a fresh copy of the vault's seeds including its bump.
func (v Vault) SignerSeeds() [][]byte {
	return [][]byte{
		[]byte(VaultSeedPrefix),
		v.Base.Bytes(),
		{v.Bump},
	}
}

// SignedCall authorizes exactly one dispatch of one instruction on behalf
// of the vault. It is consumed by the dispatcher and cannot be serialized.
type SignedCall struct {
	instruction solana.Instruction
	programID   solana.PublicKey
	vault       solana.PublicKey
	seeds       [][]byte
	consumed    atomic.Bool
}

// SignAsVault checks that the vault's seeds rebuild its address under
// programID and that ix expects the vault as a signer, then returns the
// capability backing a single dispatch of ix.
func SignAsVault(programID solana.PublicKey, vault Vault, ix solana.Instruction) (*SignedCall, error) {
	seeds := vault.SignerSeeds()

	derived, err := solana.CreateProgramAddress(seeds, programID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeedMismatch, err)
	}
	if !derived.Equals(vault.Address) {
		return nil, fmt.Errorf("%w: seeds give %s, vault is %s", ErrSeedMismatch, derived, vault.Address)
	}

	if !requiresSigner(ix, vault.Address) {
		return nil, ErrVaultNotSigner
	}

	return &SignedCall{
		instruction: ix,
		programID:   programID,
		vault:       vault.Address,
		seeds:       seeds,
	}, nil
}

// Instruction returns the instruction this capability is scoped to.
func (c *SignedCall) Instruction() solana.Instruction {
	return c.instruction
}

// Signer returns the vault address the capability signs for.
func (c *SignedCall) Signer() solana.PublicKey {
	return c.vault
}

// ProgramID returns the program whose authority the seeds derive under.
func (c *SignedCall) ProgramID() solana.PublicKey {
	return c.programID
}

// Consume hands the signer seeds to the dispatcher. It succeeds once.
func (c *SignedCall) Consume() ([][]byte, error) {
	if !c.consumed.CompareAndSwap(false, true) {
		return nil, ErrCapabilityConsumed
	}
	seeds := c.seeds
	c.seeds = nil
	return seeds, nil
}

// Consumed reports whether the capability has been used.
func (c *SignedCall) Consumed() bool {
	return c.consumed.Load()
}

func (c *SignedCall) String() string {
	return fmt.Sprintf("SignedCall{program=%s vault=%s consumed=%t}", c.instruction.ProgramID(), c.vault, c.Consumed())
}

func (c *SignedCall) MarshalJSON() ([]byte, error)   { return nil, ErrNotSerializable }
func (c *SignedCall) MarshalText() ([]byte, error)   { return nil, ErrNotSerializable }
func (c *SignedCall) MarshalBinary() ([]byte, error) { return nil, ErrNotSerializable }

// VerifySeeds returns the address seeds derive under programID. Dispatchers
// use it to confirm a program-derived signer.
func VerifySeeds(programID solana.PublicKey, seeds [][]byte) (solana.PublicKey, error) {
	address, err := solana.CreateProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %v", ErrSeedMismatch, err)
	}
	return address, nil
}

func requiresSigner(ix solana.Instruction, key solana.PublicKey) bool {
	for _, meta := range ix.Accounts() {
		if meta.IsSigner && meta.PublicKey.Equals(key) {
			return true
		}
	}
	return false
}
