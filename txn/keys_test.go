package txn

import (
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"github.com/sisu-network/dfees/types"
)

func ed25519Blob(tags ...string) string {
	parts := append(tags, base58.Encode(make([]byte, 32)))
	return strings.Join(parts, "_")
}

func ed448Blob(tags ...string) string {
	parts := append(tags, base58.Encode(make([]byte, 57)))
	return strings.Join(parts, "_")
}

func TestParseKeyBlob(t *testing.T) {
	key, hashes, err := parseKeyBlob(ed25519Blob("A"))
	require.Nil(t, err)
	require.Equal(t, types.KeyEd25519, key.Kind)
	require.Equal(t, 32, key.PubLength)
	require.Equal(t, 64, key.SigLength)
	require.False(t, key.Restricted)
	require.Equal(t, 0, len(hashes))

	key, hashes, err = parseKeyBlob(ed448Blob("r", "B", "b"))
	require.Nil(t, err)
	require.Equal(t, types.KeyEd448, key.Kind)
	require.Equal(t, 114, key.SigLength)
	require.True(t, key.Restricted)
	require.Equal(t, []types.HashDescriptor{{Kind: types.HashSha3512, ByteLength: 64}}, hashes)

	// Chained hash tags each contribute.
	_, hashes, err = parseKeyBlob(ed25519Blob("A", "a", "c"))
	require.Nil(t, err)
	require.Equal(t, 2, len(hashes))
	require.Equal(t, types.HashSha3256, hashes[0].Kind)
	require.Equal(t, types.HashBlake3, hashes[1].Kind)
}

func TestParseKeyBlobErrors(t *testing.T) {
	cases := []struct {
		name string
		blob string
	}{
		{"no prefix", base58.Encode(make([]byte, 32))},
		{"unknown key tag", ed25519Blob("Z")},
		{"unknown hash tag", ed25519Blob("A", "z")},
		{"bad base58", "A_0OIl"},
		{"wrong material length", "A_" + base58.Encode(make([]byte, 31))},
		{"restricted only", "r_" + base58.Encode(make([]byte, 32))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := parseKeyBlob(tc.blob)
			require.NotNil(t, err)

			clsErr, ok := err.(*types.ClassificationError)
			require.True(t, ok)
			require.Greater(t, clsErr.ByteLength, 0)
		})
	}
}
