package metadata

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// ErrUnknownInstruction is returned for opcodes this package does not model.
var ErrUnknownInstruction = errors.New("unknown metadata instruction")

// DecodedInstruction is the parsed form of an encoded instruction payload.
// Exactly one of Create and Update is set.
type DecodedInstruction struct {
	Opcode uint8
	Create *CreateMetadataAccountArgsV3
	Update *UpdateMetadataAccountArgsV2
}

// Name returns the metadata program's name for the decoded instruction.
func (d *DecodedInstruction) Name() string {
	switch d.Opcode {
	case InstructionCreateMetadataAccountV3:
		return "CreateMetadataAccountV3"
	case InstructionUpdateMetadataAccountV2:
		return "UpdateMetadataAccountV2"
	default:
		return fmt.Sprintf("Unknown(%d)", d.Opcode)
	}
}

// DecodeInstruction parses an instruction payload. Trailing bytes are an
// error, matching the metadata program's strict deserialization.
func DecodeInstruction(data []byte) (*DecodedInstruction, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrUnknownInstruction)
	}

	decoder := bin.NewBorshDecoder(data[1:])
	decoded := &DecodedInstruction{Opcode: data[0]}

	switch decoded.Opcode {
	case InstructionCreateMetadataAccountV3:
		decoded.Create = new(CreateMetadataAccountArgsV3)
		if err := decoded.Create.UnmarshalWithDecoder(decoder); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", decoded.Name(), err)
		}
	case InstructionUpdateMetadataAccountV2:
		decoded.Update = new(UpdateMetadataAccountArgsV2)
		if err := decoded.Update.UnmarshalWithDecoder(decoder); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", decoded.Name(), err)
		}
	default:
		return nil, fmt.Errorf("%w: opcode %d", ErrUnknownInstruction, decoded.Opcode)
	}

	if remaining := decoder.Remaining(); remaining != 0 {
		return nil, fmt.Errorf("failed to decode %s: %d trailing bytes", decoded.Name(), remaining)
	}
	return decoded, nil
}
