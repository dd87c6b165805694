// Package programs holds the fixed on-chain program identities the proxy
// talks to. They are compared by exact equality at the trust boundary.
package programs

import (
	"github.com/gagliardetto/solana-go"
)

// DefaultMintWrapperProgramID is the Quarry mint wrapper deployment.
// Forks override it through MINT_WRAPPER_PROGRAM_ID.
const DefaultMintWrapperProgramID = "QMWoBmAyJLAsA1Lh9ugMTw2gciTihncciphzdNzdZYV"

var (
	// MetadataProgramID is the Metaplex token metadata program.
	MetadataProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

	// SystemProgramID is the native system program.
	SystemProgramID = solana.SystemProgramID

	// InstructionsSysvarID is the instruction introspection sysvar.
	InstructionsSysvarID = solana.SysVarInstructionsPubkey
)

// IsMetadataProgram reports whether id is the metadata program.
func IsMetadataProgram(id solana.PublicKey) bool {
	return id.Equals(MetadataProgramID)
}
