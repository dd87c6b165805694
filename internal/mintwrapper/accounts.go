// Package mintwrapper is a client for the Quarry mint wrapper program: it
// derives its addresses, decodes its accounts and builds the instructions
// that route metadata authority through the wrapper vault.
package mintwrapper

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/cyphera/authority-proxy/internal/signer"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// MinterSeedPrefix is the first seed of a minter account.
const MinterSeedPrefix = "MintWrapperMinter"

const discriminatorSize = 8

var (
	// ErrAccountDiscriminator is returned when account data belongs to another type.
	ErrAccountDiscriminator = errors.New("account discriminator mismatch")

	mintWrapperDiscriminator = accountDiscriminator("MintWrapper")
	minterDiscriminator      = accountDiscriminator("Minter")
)

// MintWrapper is the on-chain wrapper account.
type MintWrapper struct {
	Base           solana.PublicKey
	Bump           uint8
	HardCap        uint64
	Admin          solana.PublicKey
	PendingAdmin   solana.PublicKey
	TokenMint      solana.PublicKey
	NumMinters     uint64
	TotalAllowance uint64
	TotalMinted    uint64
}

// Vault rebuilds the wrapper's signing identity from its stored seeds.
func (w *MintWrapper) Vault(programID solana.PublicKey) (signer.Vault, error) {
	vault := signer.Vault{Base: w.Base, Bump: w.Bump}
	address, err := solana.CreateProgramAddress(vault.SignerSeeds(), programID)
	if err != nil {
		return signer.Vault{}, fmt.Errorf("%w: %v", signer.ErrSeedMismatch, err)
	}
	vault.Address = address
	return vault, nil
}

// Minter is the per-authority allowance account.
type Minter struct {
	MintWrapper     solana.PublicKey
	MinterAuthority solana.PublicKey
	Bump            uint8
	Index           uint64
	Allowance       uint64
	TotalMinted     uint64
}

// FindMintWrapperAddress derives the wrapper for base.
func FindMintWrapperAddress(base, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	vault, err := signer.DeriveVault(programID, base)
	if err != nil {
		return solana.PublicKey{}, 0, err
	}
	return vault.Address, vault.Bump, nil
}

// FindMinterAddress derives the minter account of authority under wrapper.
func FindMinterAddress(wrapper, authority, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{
		[]byte(MinterSeedPrefix),
		wrapper.Bytes(),
		authority.Bytes(),
	}, programID)
}

// DecodeMintWrapper parses wrapper account data.
func DecodeMintWrapper(data []byte) (*MintWrapper, error) {
	wrapper := new(MintWrapper)
	if err := decodeAccount(data, mintWrapperDiscriminator, wrapper); err != nil {
		return nil, fmt.Errorf("failed to decode mint wrapper: %w", err)
	}
	return wrapper, nil
}

// DecodeMinter parses minter account data.
func DecodeMinter(data []byte) (*Minter, error) {
	minter := new(Minter)
	if err := decodeAccount(data, minterDiscriminator, minter); err != nil {
		return nil, fmt.Errorf("failed to decode minter: %w", err)
	}
	return minter, nil
}

// EncodeMintWrapper serializes w with its discriminator. Used to seed fixtures.
func EncodeMintWrapper(w *MintWrapper) ([]byte, error) {
	return encodeAccount(mintWrapperDiscriminator, w)
}

// EncodeMinter serializes m with its discriminator.
func EncodeMinter(m *Minter) ([]byte, error) {
	return encodeAccount(minterDiscriminator, m)
}

func decodeAccount(data []byte, discriminator [discriminatorSize]byte, v interface{}) error {
	if len(data) < discriminatorSize {
		return fmt.Errorf("%w: %d bytes", ErrAccountDiscriminator, len(data))
	}
	if !bytes.Equal(data[:discriminatorSize], discriminator[:]) {
		return ErrAccountDiscriminator
	}
	return bin.NewBorshDecoder(data[discriminatorSize:]).Decode(v)
}

func encodeAccount(discriminator [discriminatorSize]byte, v interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(discriminator[:])
	if err := bin.NewBorshEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func accountDiscriminator(name string) [discriminatorSize]byte {
	return hashPrefix("account:" + name)
}

func hashPrefix(preimage string) [discriminatorSize]byte {
	sum := sha256.Sum256([]byte(preimage))
	var out [discriminatorSize]byte
	copy(out[:], sum[:discriminatorSize])
	return out
}
