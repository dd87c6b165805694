// Package pda derives and validates the program addresses used by the
// metadata authority proxy.
package pda

import (
	"errors"
	"fmt"

	"github.com/cyphera/authority-proxy/internal/programs"
	"github.com/gagliardetto/solana-go"
)

// MetadataSeedPrefix is the namespace tag the metadata program uses for
// its per-mint records.
const MetadataSeedPrefix = "metadata"

// ErrUnauthorized is returned when a supplied record address is not the
// canonical address for the mint.
var ErrUnauthorized = errors.New("unauthorized: metadata account is not the canonical address for the mint")

// RecordSeeds returns the seed set for the record of mint under registryID.
func RecordSeeds(registryID, mint solana.PublicKey) [][]byte {
	return [][]byte{
		[]byte(MetadataSeedPrefix),
		registryID.Bytes(),
		mint.Bytes(),
	}
}

// FindRecordAddress derives the record address and bump for mint under
// registryID. The result is deterministic for a given pair.
func FindRecordAddress(registryID, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	address, bump, err := solana.FindProgramAddress(RecordSeeds(registryID, mint), registryID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive record address for mint %s: %w", mint, err)
	}
	return address, bump, nil
}

// FindMetadataAddress derives the Metaplex metadata address for mint.
func FindMetadataAddress(mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return FindRecordAddress(programs.MetadataProgramID, mint)
}

// ValidateRecordAddress recomputes the record address for mint under
// registryID and fails with ErrUnauthorized unless record matches it.
func ValidateRecordAddress(registryID, record, mint solana.PublicKey) error {
	expected, _, err := FindRecordAddress(registryID, mint)
	if err != nil {
		return err
	}
	if !expected.Equals(record) {
		return fmt.Errorf("%w: got %s, want %s", ErrUnauthorized, record, expected)
	}
	return nil
}

// ValidateMetadataAddress is ValidateRecordAddress for the metadata program.
func ValidateMetadataAddress(record, mint solana.PublicKey) error {
	return ValidateRecordAddress(programs.MetadataProgramID, record, mint)
}
