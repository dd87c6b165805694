// Package registry is an in-memory stand-in for the Metaplex token metadata
// program. It decodes the calls the proxy dispatches, enforces the
// program's account and signer rules and keeps the resulting records.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/cyphera/authority-proxy/internal/logger"
	"github.com/cyphera/authority-proxy/internal/metadata"
	"github.com/cyphera/authority-proxy/internal/pda"
	"github.com/cyphera/authority-proxy/internal/programs"
	"github.com/cyphera/authority-proxy/internal/signer"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Record is the state the simulator keeps per metadata account.
type Record struct {
	Mint                solana.PublicKey
	UpdateAuthority     solana.PublicKey
	Data                metadata.DataV2
	PrimarySaleHappened bool
	IsMutable           bool
}

// Dispatch is one accepted call, in the order it was applied.
type Dispatch struct {
	Opcode    uint8
	Name      string
	Accounts  []solana.AccountMeta
	Data      []byte
	PDASigner solana.PublicKey
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithSigners marks keys as having signed the enclosing transaction.
func WithSigners(keys ...solana.PublicKey) Option {
	return func(s *Simulator) {
		for _, key := range keys {
			s.signers[key] = struct{}{}
		}
	}
}

// WithRecord seeds an existing record at address.
func WithRecord(address solana.PublicKey, record Record) Option {
	return func(s *Simulator) {
		s.records[address] = record
	}
}

// WithLogger overrides the global logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Simulator) {
		s.logger = log
	}
}

// Simulator holds committed records. Invocations are serialized, and each
// one is applied all-or-nothing.
type Simulator struct {
	mu         sync.Mutex
	records    map[solana.PublicKey]Record
	signers    map[solana.PublicKey]struct{}
	dispatched []Dispatch
	logger     *zap.Logger
}

// NewSimulator creates an empty simulator.
func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		records: make(map[solana.PublicKey]Record),
		signers: make(map[solana.PublicKey]struct{}),
		logger:  logger.OrNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record returns the committed record at address.
func (s *Simulator) Record(address solana.PublicKey) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[address]
	return record, ok
}

// Dispatched returns a copy of the committed dispatch log.
func (s *Simulator) Dispatched() []Dispatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Dispatch, len(s.dispatched))
	copy(out, s.dispatched)
	return out
}

// RecordExists reports whether the record's storage is populated.
func (s *Simulator) RecordExists(_ context.Context, address solana.PublicKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[address]
	return ok, nil
}

// Invoke applies a single call as its own atomic unit.
func (s *Simulator) Invoke(ctx context.Context, call *signer.SignedCall) error {
	return s.Atomically(ctx, func(tx *Tx) error {
		return tx.Invoke(ctx, call)
	})
}

// Atomically runs fn against a staged view of the simulator. Writes and
// dispatches are committed only if fn returns nil.
func (s *Simulator) Atomically(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{sim: s, staged: make(map[solana.PublicKey]Record)}
	if err := fn(tx); err != nil {
		s.logger.Debug("Rolled back simulated invocation",
			zap.Int("staged_dispatches", len(tx.dispatched)),
			zap.Error(err),
		)
		return err
	}

	for address, record := range tx.staged {
		s.records[address] = record
	}
	s.dispatched = append(s.dispatched, tx.dispatched...)
	return nil
}

// Tx is a staged invocation. It is only valid inside Atomically.
type Tx struct {
	sim        *Simulator
	staged     map[solana.PublicKey]Record
	dispatched []Dispatch
}

// RecordExists reports whether the record exists in the staged view.
func (tx *Tx) RecordExists(_ context.Context, address solana.PublicKey) (bool, error) {
	_, ok := tx.lookup(address)
	return ok, nil
}

// Dispatched returns the calls staged so far.
func (tx *Tx) Dispatched() []Dispatch {
	out := make([]Dispatch, len(tx.dispatched))
	copy(out, tx.dispatched)
	return out
}

// Invoke consumes the capability, checks signers and applies the call to
// the staged view.
func (tx *Tx) Invoke(ctx context.Context, call *signer.SignedCall) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	seeds, err := call.Consume()
	if err != nil {
		return err
	}
	pdaSigner, err := signer.VerifySeeds(call.ProgramID(), seeds)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMissingSignature, err)
	}

	ix := call.Instruction()
	if !programs.IsMetadataProgram(ix.ProgramID()) {
		return ErrIncorrectProgramID
	}

	data, err := ix.Data()
	if err != nil {
		return err
	}
	decoded, err := metadata.DecodeInstruction(data)
	if err != nil {
		return err
	}

	accounts := make([]solana.AccountMeta, 0, len(ix.Accounts()))
	for _, meta := range ix.Accounts() {
		if meta.IsSigner && !tx.signed(meta.PublicKey, pdaSigner) {
			return fmt.Errorf("%w: %s", ErrMissingSignature, meta.PublicKey)
		}
		accounts = append(accounts, *meta)
	}

	switch {
	case decoded.Create != nil:
		err = tx.create(accounts, decoded.Create)
	case decoded.Update != nil:
		err = tx.update(accounts, decoded.Update)
	}
	if err != nil {
		return err
	}

	tx.dispatched = append(tx.dispatched, Dispatch{
		Opcode:    decoded.Opcode,
		Name:      decoded.Name(),
		Accounts:  accounts,
		Data:      data,
		PDASigner: pdaSigner,
	})
	return nil
}

func (tx *Tx) create(accounts []solana.AccountMeta, args *metadata.CreateMetadataAccountArgsV3) error {
	if len(accounts) != metadata.CreateMetadataAccountV3AccountCount {
		return ErrInvalidAccountLayout
	}
	record, mint, updateAuthority := accounts[0], accounts[1], accounts[4]
	if !record.IsWritable {
		return ErrAccountNotWritable
	}
	if !accounts[5].PublicKey.Equals(programs.SystemProgramID) {
		return ErrInvalidAccountLayout
	}
	if err := pda.ValidateMetadataAddress(record.PublicKey, mint.PublicKey); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMetadataKey, err)
	}
	if _, ok := tx.lookup(record.PublicKey); ok {
		return ErrAlreadyInitialized
	}

	tx.staged[record.PublicKey] = Record{
		Mint:            mint.PublicKey,
		UpdateAuthority: updateAuthority.PublicKey,
		Data:            args.Data,
		IsMutable:       args.IsMutable,
	}
	return nil
}

func (tx *Tx) update(accounts []solana.AccountMeta, args *metadata.UpdateMetadataAccountArgsV2) error {
	if len(accounts) != metadata.UpdateMetadataAccountV2AccountCount {
		return ErrInvalidAccountLayout
	}
	address, authority := accounts[0], accounts[1]
	if !address.IsWritable {
		return ErrAccountNotWritable
	}

	record, ok := tx.lookup(address.PublicKey)
	if !ok {
		return ErrUninitialized
	}
	if !authority.PublicKey.Equals(record.UpdateAuthority) {
		return ErrUpdateAuthorityIncorrect
	}
	if !record.IsMutable {
		return ErrDataIsImmutable
	}

	if args.Data != nil {
		record.Data = *args.Data
	}
	if args.UpdateAuthority != nil {
		record.UpdateAuthority = *args.UpdateAuthority
	}
	if args.PrimarySaleHappened != nil && *args.PrimarySaleHappened {
		record.PrimarySaleHappened = true
	}
	if args.IsMutable != nil {
		record.IsMutable = *args.IsMutable
	}

	tx.staged[address.PublicKey] = record
	return nil
}

func (tx *Tx) lookup(address solana.PublicKey) (Record, bool) {
	if record, ok := tx.staged[address]; ok {
		return record, true
	}
	record, ok := tx.sim.records[address]
	return record, ok
}

func (tx *Tx) signed(key, pdaSigner solana.PublicKey) bool {
	if key.Equals(pdaSigner) {
		return true
	}
	_, ok := tx.sim.signers[key]
	return ok
}
