package metadata

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// KeyMetadataV1 is the account discriminator of an initialized metadata record.
const KeyMetadataV1 uint8 = 4

// recordHeaderSize covers key, update authority and mint.
const recordHeaderSize = 1 + 32 + 32

// ErrNotMetadataRecord is returned when account data does not start with a
// metadata record header.
var ErrNotMetadataRecord = errors.New("account is not a metadata record")

// RecordHeader is the fixed-width prefix of an on-chain metadata record.
type RecordHeader struct {
	Key             uint8
	UpdateAuthority solana.PublicKey
	Mint            solana.PublicKey
}

// creatorSize is address, verified flag and share.
const creatorSize = 32 + 1 + 1

// RecordSummary is the header plus the fields the proxy cares about.
// Strings are returned as stored, including any zero padding.
type RecordSummary struct {
	RecordHeader
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	PrimarySaleHappened  bool
	IsMutable            bool
}

// DecodeRecordHeader reads the header of a metadata account.
func DecodeRecordHeader(data []byte) (*RecordHeader, error) {
	if len(data) < recordHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrNotMetadataRecord, len(data))
	}
	if data[0] != KeyMetadataV1 {
		return nil, fmt.Errorf("%w: key %d", ErrNotMetadataRecord, data[0])
	}
	return &RecordHeader{
		Key:             data[0],
		UpdateAuthority: solana.PublicKeyFromBytes(data[1:33]),
		Mint:            solana.PublicKeyFromBytes(data[33:65]),
	}, nil
}

// DecodeRecordSummary reads the header, the descriptive fields and the
// mutability flags. Creators are skipped; anything after is_mutable is
// ignored.
func DecodeRecordSummary(data []byte) (*RecordSummary, error) {
	header, err := DecodeRecordHeader(data)
	if err != nil {
		return nil, err
	}

	summary := &RecordSummary{RecordHeader: *header}
	decoder := bin.NewBorshDecoder(data[recordHeaderSize:])
	for _, field := range []*string{&summary.Name, &summary.Symbol, &summary.URI} {
		if err := decoder.Decode(field); err != nil {
			return nil, fmt.Errorf("failed to decode metadata record: %w", err)
		}
	}
	if err := decoder.Decode(&summary.SellerFeeBasisPoints); err != nil {
		return nil, fmt.Errorf("failed to decode metadata record: %w", err)
	}
	if err := skipCreators(decoder); err != nil {
		return nil, fmt.Errorf("failed to decode metadata record: %w", err)
	}
	if summary.PrimarySaleHappened, err = decoder.ReadBool(); err != nil {
		return nil, fmt.Errorf("failed to decode metadata record: %w", err)
	}
	if summary.IsMutable, err = decoder.ReadBool(); err != nil {
		return nil, fmt.Errorf("failed to decode metadata record: %w", err)
	}
	return summary, nil
}

func skipCreators(decoder *bin.Decoder) error {
	present, err := decoder.ReadBool()
	if err != nil || !present {
		return err
	}
	count, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return err
	}
	return decoder.SkipBytes(uint(count) * creatorSize)
}
