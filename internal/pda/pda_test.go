package pda_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/cyphera/authority-proxy/internal/pda"
	"github.com/cyphera/authority-proxy/internal/programs"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(b byte) solana.PublicKey {
	return solana.PublicKeyFromBytes(bytes.Repeat([]byte{b}, 32))
}

func TestFindMetadataAddress_Deterministic(t *testing.T) {
	mints := []solana.PublicKey{key(1), key(2), key(0xAB), solana.NewWallet().PublicKey()}

	for _, mint := range mints {
		first, firstBump, err := pda.FindMetadataAddress(mint)
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			again, bump, err := pda.FindMetadataAddress(mint)
			require.NoError(t, err)
			assert.Equal(t, first, again)
			assert.Equal(t, firstBump, bump)
		}
	}
}

func TestFindRecordAddress_MatchesSeedsWithBump(t *testing.T) {
	registry := programs.MetadataProgramID
	mint := key(7)

	address, bump, err := pda.FindRecordAddress(registry, mint)
	require.NoError(t, err)

	seeds := append(pda.RecordSeeds(registry, mint), []byte{bump})
	rebuilt, err := solana.CreateProgramAddress(seeds, registry)
	require.NoError(t, err)
	assert.Equal(t, address, rebuilt)
}

func TestFindRecordAddress_DependsOnRegistry(t *testing.T) {
	mint := key(9)

	underMetadata, _, err := pda.FindRecordAddress(programs.MetadataProgramID, mint)
	require.NoError(t, err)
	underOther, _, err := pda.FindRecordAddress(key(3), mint)
	require.NoError(t, err)

	assert.NotEqual(t, underMetadata, underOther)
}

func TestValidateMetadataAddress(t *testing.T) {
	mintA := key(1)
	mintB := key(2)

	canonicalA, _, err := pda.FindMetadataAddress(mintA)
	require.NoError(t, err)
	canonicalB, _, err := pda.FindMetadataAddress(mintB)
	require.NoError(t, err)
	otherRegistryA, _, err := pda.FindRecordAddress(key(3), mintA)
	require.NoError(t, err)

	tests := []struct {
		name    string
		record  solana.PublicKey
		mint    solana.PublicKey
		wantErr bool
	}{
		{name: "canonical address passes", record: canonicalA, mint: mintA},
		{name: "address of another mint is rejected", record: canonicalB, mint: mintA, wantErr: true},
		{name: "mint itself is rejected", record: mintA, mint: mintA, wantErr: true},
		{name: "zero address is rejected", record: solana.PublicKey{}, mint: mintA, wantErr: true},
		{name: "derivation under another registry is rejected", record: otherRegistryA, mint: mintA, wantErr: true},
		{name: "random address is rejected", record: solana.NewWallet().PublicKey(), mint: mintA, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pda.ValidateMetadataAddress(tt.record, tt.mint)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, pda.ErrUnauthorized))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateMetadataAddress_RejectsEveryOtherMintsRecord(t *testing.T) {
	target := key(0x42)
	for i := 0; i < 32; i++ {
		other := solana.NewWallet().PublicKey()
		record, _, err := pda.FindMetadataAddress(other)
		require.NoError(t, err)

		err = pda.ValidateMetadataAddress(record, target)
		assert.ErrorIs(t, err, pda.ErrUnauthorized)
	}
}
