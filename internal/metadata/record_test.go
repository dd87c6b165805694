package metadata_test

import (
	"encoding/binary"
	"testing"

	"github.com/cyphera/authority-proxy/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func borshString(s string) []byte {
	out := binary.LittleEndian.AppendUint32(nil, uint32(len(s)))
	return append(out, s...)
}

func recordBytes(key byte) []byte {
	data := []byte{key}
	data = append(data, make([]byte, 32)...)
	copy(data[1:33], []byte{0x0C, 0x0C})
	mint := make([]byte, 32)
	mint[0] = 0x0A
	data = append(data, mint...)
	data = append(data, borshString("Quarry\x00\x00")...)
	data = append(data, borshString("QRY")...)
	data = append(data, borshString("https://example.com/qry.json")...)
	data = append(data, 0xF4, 0x01)
	data = append(data, 1, 1, 0, 0, 0) // one creator
	data = append(data, make([]byte, 34)...)
	data = append(data, 0, 1) // primary_sale_happened, is_mutable
	return append(data, 255, 1, 0) // edition nonce and the rest are not read
}

func TestDecodeRecordSummary(t *testing.T) {
	summary, err := metadata.DecodeRecordSummary(recordBytes(metadata.KeyMetadataV1))
	require.NoError(t, err)

	assert.Equal(t, metadata.KeyMetadataV1, summary.Key)
	assert.Equal(t, byte(0x0C), summary.UpdateAuthority[0])
	assert.Equal(t, byte(0x0C), summary.UpdateAuthority[1])
	assert.Equal(t, byte(0x0A), summary.Mint[0])
	assert.Equal(t, "Quarry\x00\x00", summary.Name)
	assert.Equal(t, "QRY", summary.Symbol)
	assert.Equal(t, "https://example.com/qry.json", summary.URI)
	assert.Equal(t, uint16(500), summary.SellerFeeBasisPoints)
	assert.False(t, summary.PrimarySaleHappened)
	assert.True(t, summary.IsMutable)
}

func TestDecodeRecordHeader_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "short", data: recordBytes(metadata.KeyMetadataV1)[:40]},
		{name: "edition account", data: recordBytes(6)},
		{name: "uninitialized", data: recordBytes(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := metadata.DecodeRecordHeader(tt.data)
			assert.ErrorIs(t, err, metadata.ErrNotMetadataRecord)
		})
	}
}

func TestDecodeRecordSummary_Truncated(t *testing.T) {
	data := recordBytes(metadata.KeyMetadataV1)[:70]
	_, err := metadata.DecodeRecordSummary(data)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, metadata.ErrNotMetadataRecord)
}
