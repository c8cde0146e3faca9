package txn

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sisu-network/dfees/types"
)

func TestEstimateSize(t *testing.T) {
	codec := NewCodec()

	rec := transferRecord(ed25519Blob("A"))
	cls, err := Classify(rec)
	require.Nil(t, err)

	body, err := codec.Marshal(rec, cls.Kind)
	require.Nil(t, err)

	size, err := EstimateSize(rec, cls, codec)
	require.Nil(t, err)

	// Body plus a 64-byte ed25519 signature plus the 32-byte default hash.
	require.Equal(t, len(body)+64+32, size)
}

func TestEstimateSizeMonotonicity(t *testing.T) {
	codec := NewCodec()

	rec := transferRecord(ed25519Blob("A"))
	cls, err := Classify(rec)
	require.Nil(t, err)

	base, err := EstimateSize(rec, cls, codec)
	require.Nil(t, err)

	prev := base
	for _, memo := range []string{"a", "ab", "some longer memo content"} {
		rec.Memo = memo

		size, err := EstimateSize(rec, cls, codec)
		require.Nil(t, err)
		require.Greater(t, size, prev)
		prev = size
	}

	// A longer embedded fee string also grows the wire form.
	rec.Memo = ""
	rec.Transfer.Fee = "0.076923"
	withFee, err := EstimateSize(rec, cls, codec)
	require.Nil(t, err)
	require.Equal(t, base+len(rec.Transfer.Fee), withFee)
}

func TestEstimateSizeHashContributions(t *testing.T) {
	codec := NewCodec()

	// One chained sha3-512 tag swaps the default 32-byte digest for 64
	// bytes; the key blob itself also grows by the tag characters.
	rec := transferRecord(ed25519Blob("A", "b"))
	cls, err := Classify(rec)
	require.Nil(t, err)

	size, err := EstimateSize(rec, cls, codec)
	require.Nil(t, err)

	body, err := codec.Marshal(rec, cls.Kind)
	require.Nil(t, err)
	require.Equal(t, len(body)+64+64, size)
}

func TestCodecDeterminism(t *testing.T) {
	codec := NewCodec()
	rec := transferRecord(ed25519Blob("A"))

	first, err := codec.Marshal(rec, types.TxTransfer)
	require.Nil(t, err)

	for i := 0; i < 3; i++ {
		again, err := codec.Marshal(rec, types.TxTransfer)
		require.Nil(t, err)
		require.Equal(t, first, again)
	}
}

func TestCodecKindMismatch(t *testing.T) {
	codec := NewCodec()

	_, err := codec.Marshal(transferRecord(ed25519Blob("A")), types.TxMint)
	require.NotNil(t, err)

	_, err = codec.Marshal(nil, types.TxTransfer)
	require.NotNil(t, err)
}
