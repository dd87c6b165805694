package metadata

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ErrEncodingInvariant means a fixed-shape argument struct failed to
// serialize. It indicates a defect, not a runtime condition.
var ErrEncodingInvariant = errors.New("encoding invariant violated")

// DataV2 is the descriptive block of a metadata record.
type DataV2 struct {
	Name   string
	Symbol string
	URI    string
	// Royalty basis points paid to creators on secondary sales (0-10000).
	SellerFeeBasisPoints uint16

	// Unused placeholders, always nil. They only keep the Borsh layout.
	Creators   *uint8
	Collection *uint8
	Uses       *uint8
}

// CreateMetadataAccountArgsV3 is the argument block of opcode 33.
type CreateMetadataAccountArgsV3 struct {
	Data      DataV2
	IsMutable bool
	// Unused, always nil.
	CollectionDetails *uint8
}

// UpdateMetadataAccountArgsV2 is the argument block of opcode 15.
type UpdateMetadataAccountArgsV2 struct {
	Data                *DataV2
	UpdateAuthority     *solana.PublicKey
	PrimarySaleHappened *bool
	IsMutable           *bool
}

func (obj DataV2) MarshalWithEncoder(encoder *bin.Encoder) (err error) {
	if err = encoder.Encode(obj.Name); err != nil {
		return err
	}
	if err = encoder.Encode(obj.Symbol); err != nil {
		return err
	}
	if err = encoder.Encode(obj.URI); err != nil {
		return err
	}
	if err = encoder.Encode(obj.SellerFeeBasisPoints); err != nil {
		return err
	}
	for _, placeholder := range []*uint8{obj.Creators, obj.Collection, obj.Uses} {
		if err = writeOptionalUint8(encoder, placeholder); err != nil {
			return err
		}
	}
	return nil
}

func (obj *DataV2) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	if err = decoder.Decode(&obj.Name); err != nil {
		return err
	}
	if err = decoder.Decode(&obj.Symbol); err != nil {
		return err
	}
	if err = decoder.Decode(&obj.URI); err != nil {
		return err
	}
	if err = decoder.Decode(&obj.SellerFeeBasisPoints); err != nil {
		return err
	}
	if obj.Creators, err = readOptionalUint8(decoder); err != nil {
		return err
	}
	if obj.Collection, err = readOptionalUint8(decoder); err != nil {
		return err
	}
	obj.Uses, err = readOptionalUint8(decoder)
	return err
}

func (obj CreateMetadataAccountArgsV3) MarshalWithEncoder(encoder *bin.Encoder) (err error) {
	if err = obj.Data.MarshalWithEncoder(encoder); err != nil {
		return err
	}
	if err = encoder.WriteBool(obj.IsMutable); err != nil {
		return err
	}
	return writeOptionalUint8(encoder, obj.CollectionDetails)
}

func (obj *CreateMetadataAccountArgsV3) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	if err = obj.Data.UnmarshalWithDecoder(decoder); err != nil {
		return err
	}
	if obj.IsMutable, err = decoder.ReadBool(); err != nil {
		return err
	}
	obj.CollectionDetails, err = readOptionalUint8(decoder)
	return err
}

func (obj UpdateMetadataAccountArgsV2) MarshalWithEncoder(encoder *bin.Encoder) (err error) {
	// Serialize `Data` param (optional):
	if obj.Data == nil {
		err = encoder.WriteBool(false)
	} else {
		if err = encoder.WriteBool(true); err != nil {
			return err
		}
		err = obj.Data.MarshalWithEncoder(encoder)
	}
	if err != nil {
		return err
	}

	// Serialize `UpdateAuthority` param (optional):
	if obj.UpdateAuthority == nil {
		err = encoder.WriteBool(false)
	} else {
		if err = encoder.WriteBool(true); err != nil {
			return err
		}
		err = encoder.Encode(*obj.UpdateAuthority)
	}
	if err != nil {
		return err
	}

	if err = writeOptionalBool(encoder, obj.PrimarySaleHappened); err != nil {
		return err
	}
	return writeOptionalBool(encoder, obj.IsMutable)
}

func (obj *UpdateMetadataAccountArgsV2) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	ok, err := decoder.ReadBool()
	if err != nil {
		return err
	}
	if ok {
		obj.Data = new(DataV2)
		if err = obj.Data.UnmarshalWithDecoder(decoder); err != nil {
			return err
		}
	}

	ok, err = decoder.ReadBool()
	if err != nil {
		return err
	}
	if ok {
		obj.UpdateAuthority = new(solana.PublicKey)
		if err = decoder.Decode(obj.UpdateAuthority); err != nil {
			return err
		}
	}

	if obj.PrimarySaleHappened, err = readOptionalBool(decoder); err != nil {
		return err
	}
	obj.IsMutable, err = readOptionalBool(decoder)
	return err
}

func writeOptionalUint8(encoder *bin.Encoder, v *uint8) error {
	if v == nil {
		return encoder.WriteBool(false)
	}
	if err := encoder.WriteBool(true); err != nil {
		return err
	}
	return encoder.WriteUint8(*v)
}

func readOptionalUint8(decoder *bin.Decoder) (*uint8, error) {
	ok, err := decoder.ReadBool()
	if err != nil || !ok {
		return nil, err
	}
	v, err := decoder.ReadUint8()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func writeOptionalBool(encoder *bin.Encoder, v *bool) error {
	if v == nil {
		return encoder.WriteBool(false)
	}
	if err := encoder.WriteBool(true); err != nil {
		return err
	}
	return encoder.WriteBool(*v)
}

func readOptionalBool(decoder *bin.Decoder) (*bool, error) {
	ok, err := decoder.ReadBool()
	if err != nil || !ok {
		return nil, err
	}
	v, err := decoder.ReadBool()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func encodingError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrEncodingInvariant, op, err)
}
