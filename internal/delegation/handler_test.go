package delegation_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/cyphera/authority-proxy/internal/delegation"
	"github.com/cyphera/authority-proxy/internal/logger"
	"github.com/cyphera/authority-proxy/internal/metadata"
	"github.com/cyphera/authority-proxy/internal/mocks"
	"github.com/cyphera/authority-proxy/internal/pda"
	"github.com/cyphera/authority-proxy/internal/programs"
	"github.com/cyphera/authority-proxy/internal/signer"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	logger.InitLogger("test")
}

var wrapperProgram = key(0x51)

func key(b byte) solana.PublicKey {
	return solana.PublicKeyFromBytes(bytes.Repeat([]byte{b}, 32))
}

type fixture struct {
	vault  signer.Vault
	minter solana.PublicKey
	mint   solana.PublicKey
	record solana.PublicKey
	target solana.PublicKey
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	vault, err := signer.DeriveVault(wrapperProgram, key(0x22))
	require.NoError(t, err)

	mint := key(0x0A)
	record, _, err := pda.FindMetadataAddress(mint)
	require.NoError(t, err)

	return fixture{
		vault:  vault,
		minter: key(0x0B),
		mint:   mint,
		record: record,
		target: key(0x0C),
	}
}

func (f fixture) request() delegation.Request {
	return delegation.NewRequest(f.vault, f.minter, f.mint, f.record, f.target)
}

// decodeCall inspects a dispatched capability without consuming it.
func decodeCall(t *testing.T, call *signer.SignedCall) (*metadata.DecodedInstruction, []*solana.AccountMeta) {
	t.Helper()
	data, err := call.Instruction().Data()
	require.NoError(t, err)
	decoded, err := metadata.DecodeInstruction(data)
	require.NoError(t, err)
	return decoded, call.Instruction().Accounts()
}

func TestHandler_RecordMissing_CreatesThenUpdates(t *testing.T) {
	f := newFixture(t)
	registry := mocks.NewMockRegistryForTest(t)
	handler := delegation.NewHandler(wrapperProgram, registry, nil)
	ctx := context.Background()

	var dispatched []*metadata.DecodedInstruction
	gomock.InOrder(
		registry.EXPECT().RecordExists(ctx, f.record).Return(false, nil),
		registry.EXPECT().Invoke(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, call *signer.SignedCall) error {
			decoded, accounts := decodeCall(t, call)
			dispatched = append(dispatched, decoded)

			assert.Equal(t, metadata.InstructionCreateMetadataAccountV3, decoded.Opcode)
			require.Len(t, accounts, 6)
			assert.Equal(t, f.record, accounts[0].PublicKey)
			assert.Equal(t, f.mint, accounts[1].PublicKey)
			assert.Equal(t, f.vault.Address, accounts[2].PublicKey)
			assert.Equal(t, f.minter, accounts[3].PublicKey)
			assert.Equal(t, f.vault.Address, accounts[4].PublicKey, "vault is the initial update authority")
			assert.Equal(t, f.vault.Address, call.Signer())
			return nil
		}),
		registry.EXPECT().Invoke(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, call *signer.SignedCall) error {
			decoded, accounts := decodeCall(t, call)
			dispatched = append(dispatched, decoded)

			assert.Equal(t, metadata.InstructionUpdateMetadataAccountV2, decoded.Opcode)
			require.Len(t, accounts, 2)
			assert.Equal(t, f.vault.Address, accounts[1].PublicKey)
			require.NotNil(t, decoded.Update.UpdateAuthority)
			assert.Equal(t, f.target, *decoded.Update.UpdateAuthority)
			assert.Equal(t, f.vault.Address, call.Signer())
			return nil
		}),
	)

	result, err := handler.SetMetaplexUpdateAuthority(ctx, f.request())
	require.NoError(t, err)

	assert.Len(t, dispatched, 2)
	assert.True(t, result.Created)
	assert.Equal(t, f.record, result.Record)
	assert.Equal(t, []delegation.State{
		delegation.StateStart,
		delegation.StateAddressValidated,
		delegation.StateRecordMissing,
		delegation.StateCreated,
		delegation.StateUpdatePending,
		delegation.StateDone,
	}, result.Trace)
}

func TestHandler_RecordPresent_UpdatesOnly(t *testing.T) {
	f := newFixture(t)
	registry := mocks.NewMockRegistryForTest(t)
	handler := delegation.NewHandler(wrapperProgram, registry, nil)
	ctx := context.Background()

	registry.EXPECT().RecordExists(ctx, f.record).Return(true, nil)
	registry.EXPECT().Invoke(ctx, gomock.Any()).Times(1).DoAndReturn(func(_ context.Context, call *signer.SignedCall) error {
		decoded, _ := decodeCall(t, call)
		assert.Equal(t, metadata.InstructionUpdateMetadataAccountV2, decoded.Opcode)
		assert.Nil(t, decoded.Update.Data, "descriptive fields are left alone")
		assert.Equal(t, f.target, *decoded.Update.UpdateAuthority)
		assert.NotEqual(t, f.vault.Address, *decoded.Update.UpdateAuthority)
		return nil
	})

	result, err := handler.SetMetaplexUpdateAuthority(ctx, f.request())
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Len(t, result.Dispatched, 1)
	assert.Contains(t, result.Trace, delegation.StateRecordPresent)
}

func TestHandler_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registryErr := errors.New("custom program error: 0x39")

	otherRecord, _, err := pda.FindMetadataAddress(key(0x0D))
	require.NoError(t, err)

	tests := []struct {
		name       string
		mutate     func(*delegation.Request)
		setupMocks func(*mocks.MockRegistry)
		wantErr    error
	}{
		{
			name:       "record of another mint",
			mutate:     func(r *delegation.Request) { r.MetadataInfo = otherRecord },
			setupMocks: func(*mocks.MockRegistry) {},
			wantErr:    delegation.ErrUnauthorized,
		},
		{
			name:       "mint passed as record",
			mutate:     func(r *delegation.Request) { r.MetadataInfo = f.mint },
			setupMocks: func(*mocks.MockRegistry) {},
			wantErr:    delegation.ErrUnauthorized,
		},
		{
			name:       "impostor metadata program",
			mutate:     func(r *delegation.Request) { r.MetadataProgram = key(0x66) },
			setupMocks: func(*mocks.MockRegistry) {},
			wantErr:    delegation.ErrInvalidProgram,
		},
		{
			name:       "wrong system program",
			mutate:     func(r *delegation.Request) { r.SystemProgram = key(0x67) },
			setupMocks: func(*mocks.MockRegistry) {},
			wantErr:    delegation.ErrInvalidProgram,
		},
		{
			name:       "wrong instructions sysvar",
			mutate:     func(r *delegation.Request) { r.InstructionsSysvar = programs.SystemProgramID },
			setupMocks: func(*mocks.MockRegistry) {},
			wantErr:    delegation.ErrInvalidProgram,
		},
		{
			name:   "create rejected",
			mutate: func(*delegation.Request) {},
			setupMocks: func(m *mocks.MockRegistry) {
				m.EXPECT().RecordExists(ctx, f.record).Return(false, nil)
				m.EXPECT().Invoke(ctx, gomock.Any()).Times(1).Return(registryErr)
			},
			wantErr: delegation.ErrDispatchRejected,
		},
		{
			name:   "update rejected",
			mutate: func(*delegation.Request) {},
			setupMocks: func(m *mocks.MockRegistry) {
				m.EXPECT().RecordExists(ctx, f.record).Return(true, nil)
				m.EXPECT().Invoke(ctx, gomock.Any()).Times(1).Return(registryErr)
			},
			wantErr: delegation.ErrDispatchRejected,
		},
		{
			name:   "probe failure",
			mutate: func(*delegation.Request) {},
			setupMocks: func(m *mocks.MockRegistry) {
				m.EXPECT().RecordExists(ctx, f.record).Return(false, registryErr)
			},
			wantErr: registryErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := mocks.NewMockRegistryForTest(t)
			tt.setupMocks(registry)
			handler := delegation.NewHandler(wrapperProgram, registry, nil)

			req := f.request()
			tt.mutate(&req)

			result, err := handler.SetMetaplexUpdateAuthority(ctx, req)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHandler_DispatchRejectionIsVerbatim(t *testing.T) {
	f := newFixture(t)
	registry := mocks.NewMockRegistryForTest(t)
	handler := delegation.NewHandler(wrapperProgram, registry, nil)
	ctx := context.Background()
	registryErr := errors.New("Error processing Instruction 0: custom program error: 0x7")

	registry.EXPECT().RecordExists(ctx, f.record).Return(true, nil)
	registry.EXPECT().Invoke(ctx, gomock.Any()).Return(registryErr)

	_, err := handler.SetMetaplexUpdateAuthority(ctx, f.request())
	require.Error(t, err)

	var dispatchErr *delegation.DispatchError
	require.True(t, errors.As(err, &dispatchErr))
	assert.Equal(t, "update_metadata_accounts_v2", dispatchErr.Step)
	assert.Same(t, registryErr, dispatchErr.Err)
	assert.ErrorIs(t, err, registryErr)
	assert.Contains(t, err.Error(), registryErr.Error())
}

func TestHandler_VaultSeedsMustMatch(t *testing.T) {
	f := newFixture(t)
	registry := mocks.NewMockRegistryForTest(t)
	handler := delegation.NewHandler(key(0x52), registry, nil)
	ctx := context.Background()

	registry.EXPECT().RecordExists(ctx, f.record).Return(true, nil)

	_, err := handler.SetMetaplexUpdateAuthority(ctx, f.request())
	assert.ErrorIs(t, err, signer.ErrSeedMismatch)
}

func TestHandler_CreateMintMetadata(t *testing.T) {
	f := newFixture(t)
	registry := mocks.NewMockRegistryForTest(t)
	handler := delegation.NewHandler(wrapperProgram, registry, nil)
	ctx := context.Background()

	registry.EXPECT().Invoke(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, call *signer.SignedCall) error {
		decoded, accounts := decodeCall(t, call)
		require.NotNil(t, decoded.Create)
		assert.Equal(t, "Quarry", decoded.Create.Data.Name)
		assert.Equal(t, "QRY", decoded.Create.Data.Symbol)
		assert.Equal(t, "https://example.com/qry.json", decoded.Create.Data.URI)
		assert.Equal(t, f.vault.Address, accounts[4].PublicKey)
		return nil
	})

	err := handler.CreateMintMetadata(ctx, delegation.CreateMintMetadataRequest{
		Vault:           f.vault,
		MinterAuthority: f.minter,
		TokenMint:       f.mint,
		MetadataProgram: programs.MetadataProgramID,
		MetadataInfo:    f.record,
		Name:            "Quarry",
		Symbol:          "QRY",
		URI:             "https://example.com/qry.json",
	})
	require.NoError(t, err)

	err = handler.CreateMintMetadata(ctx, delegation.CreateMintMetadataRequest{
		Vault:           f.vault,
		MinterAuthority: f.minter,
		TokenMint:       f.mint,
		MetadataProgram: programs.MetadataProgramID,
		MetadataInfo:    key(0x01),
	})
	assert.ErrorIs(t, err, delegation.ErrUnauthorized)
}
