package delegation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cyphera/authority-proxy/internal/delegation"
	"github.com/cyphera/authority-proxy/internal/metadata"
	"github.com/cyphera/authority-proxy/internal/registry"
	"github.com/cyphera/authority-proxy/internal/signer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runAtomically executes one invocation the way the runtime does: all of
// its dispatches commit together or not at all.
func runAtomically(ctx context.Context, sim *registry.Simulator, req delegation.Request) (*delegation.Result, error) {
	var result *delegation.Result
	err := sim.Atomically(ctx, func(tx *registry.Tx) error {
		var err error
		result, err = delegation.NewHandler(wrapperProgram, tx, nil).SetMetaplexUpdateAuthority(ctx, req)
		return err
	})
	return result, err
}

func TestScenario_NoRecordYet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sim := registry.NewSimulator(registry.WithSigners(f.minter))

	result, err := runAtomically(ctx, sim, f.request())
	require.NoError(t, err)
	assert.True(t, result.Created)

	dispatched := sim.Dispatched()
	require.Len(t, dispatched, 2)
	assert.Equal(t, metadata.InstructionCreateMetadataAccountV3, dispatched[0].Opcode)
	assert.Equal(t, f.vault.Address, dispatched[0].Accounts[4].PublicKey)
	assert.Equal(t, metadata.InstructionUpdateMetadataAccountV2, dispatched[1].Opcode)
	for _, d := range dispatched {
		assert.Equal(t, f.vault.Address, d.PDASigner)
	}

	record, ok := sim.Record(f.record)
	require.True(t, ok)
	assert.Equal(t, f.target, record.UpdateAuthority)
	assert.Equal(t, f.mint, record.Mint)
	assert.Equal(t, metadata.DataV2{}, record.Data)
	assert.True(t, record.IsMutable)
}

func TestScenario_RecordAlreadyHeldByVault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	existing := registry.Record{
		Mint:            f.mint,
		UpdateAuthority: f.vault.Address,
		Data:            metadata.DataV2{Name: "Quarry", Symbol: "QRY", URI: "https://example.com/qry.json"},
		IsMutable:       true,
	}
	sim := registry.NewSimulator(registry.WithSigners(f.minter), registry.WithRecord(f.record, existing))

	result, err := runAtomically(ctx, sim, f.request())
	require.NoError(t, err)
	assert.False(t, result.Created)

	dispatched := sim.Dispatched()
	require.Len(t, dispatched, 1)
	assert.Equal(t, metadata.InstructionUpdateMetadataAccountV2, dispatched[0].Opcode)

	record, ok := sim.Record(f.record)
	require.True(t, ok)
	assert.Equal(t, f.target, record.UpdateAuthority)
	assert.Equal(t, existing.Data, record.Data, "descriptive fields are never modified")
}

func TestScenario_AddressMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sim := registry.NewSimulator(registry.WithSigners(f.minter))

	req := f.request()
	req.MetadataInfo = key(0x77)

	_, err := runAtomically(ctx, sim, req)
	assert.ErrorIs(t, err, delegation.ErrUnauthorized)
	assert.Empty(t, sim.Dispatched())
}

func TestScenario_RecordHeldBySomeoneElse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sim := registry.NewSimulator(
		registry.WithSigners(f.minter),
		registry.WithRecord(f.record, registry.Record{Mint: f.mint, UpdateAuthority: key(0x99), IsMutable: true}),
	)

	_, err := runAtomically(ctx, sim, f.request())
	assert.ErrorIs(t, err, delegation.ErrDispatchRejected)
	assert.ErrorIs(t, err, registry.ErrUpdateAuthorityIncorrect)

	record, _ := sim.Record(f.record)
	assert.Equal(t, key(0x99), record.UpdateAuthority)
}

func TestScenario_UnsignedPayerRejectsCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sim := registry.NewSimulator()

	_, err := runAtomically(ctx, sim, f.request())
	assert.ErrorIs(t, err, delegation.ErrDispatchRejected)
	assert.ErrorIs(t, err, registry.ErrMissingSignature)
	assert.Empty(t, sim.Dispatched())
}

// rejectUpdates lets creates through and refuses every update.
type rejectUpdates struct {
	*registry.Tx
}

func (r rejectUpdates) Invoke(ctx context.Context, call *signer.SignedCall) error {
	data, err := call.Instruction().Data()
	if err != nil {
		return err
	}
	if data[0] == metadata.InstructionUpdateMetadataAccountV2 {
		return errUpdateRefused
	}
	return r.Tx.Invoke(ctx, call)
}

var errUpdateRefused = errors.New("update refused")

func TestScenario_FailedUpdateRollsBackCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sim := registry.NewSimulator(registry.WithSigners(f.minter))

	err := sim.Atomically(ctx, func(tx *registry.Tx) error {
		_, err := delegation.NewHandler(wrapperProgram, rejectUpdates{tx}, nil).SetMetaplexUpdateAuthority(ctx, f.request())
		if err == nil {
			return nil
		}
		assert.Len(t, tx.Dispatched(), 1, "create was staged before the update failed")
		return err
	})
	assert.ErrorIs(t, err, errUpdateRefused)

	exists, err := sim.RecordExists(ctx, f.record)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Empty(t, sim.Dispatched())
}

func TestScenario_RepeatedDelegationNeedsVaultAuthority(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sim := registry.NewSimulator(registry.WithSigners(f.minter))

	_, err := runAtomically(ctx, sim, f.request())
	require.NoError(t, err)

	// Authority now belongs to the target, so the vault can no longer move it.
	_, err = runAtomically(ctx, sim, f.request())
	assert.ErrorIs(t, err, registry.ErrUpdateAuthorityIncorrect)
	assert.Len(t, sim.Dispatched(), 2)
}
