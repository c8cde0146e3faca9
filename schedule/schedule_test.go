package schedule

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sisu-network/dfees/config"
	"github.com/sisu-network/dfees/types"
)

func TestResolveFeeTypes(t *testing.T) {
	cls := &types.Classification{
		Kind: types.TxTransfer,
		Keys: []types.KeyDescriptor{
			{Kind: types.KeyEd25519, PubLength: 32, SigLength: 64},
		},
		Hashes: []types.HashDescriptor{
			{Kind: types.HashSha3256, ByteLength: 32},
		},
	}

	tokens := ResolveFeeTypes(cls)
	require.Equal(t, []FeeType{FeeTypeKeyEd25519, FeeTypeHashSha3256, FeeTypeByteTransfer}, tokens)

	// Restricted key adds the marker once, even with multiple hash tags.
	cls.Keys[0].Restricted = true
	cls.Hashes = append(cls.Hashes, types.HashDescriptor{Kind: types.HashBlake3, ByteLength: 32})

	tokens = ResolveFeeTypes(cls)
	require.Equal(t, []FeeType{
		FeeTypeKeyEd25519, FeeTypeRestricted, FeeTypeHashSha3256, FeeTypeHashBlake3, FeeTypeByteTransfer,
	}, tokens)
}

func TestSum(t *testing.T) {
	s, err := New(nil)
	require.Nil(t, err)

	totals, err := s.Sum([]FeeType{FeeTypeKeyEd25519, FeeTypeHashSha3256, FeeTypeByteTransfer})
	require.Nil(t, err)
	require.Equal(t, "0.04", totals.FixedUsd.String())
	require.Equal(t, "0.00015", totals.PerByteUsd.String())
}

func TestSumRestrictedMultiplier(t *testing.T) {
	s, err := New(nil)
	require.Nil(t, err)

	// The multiplier applies to the whole fixed subtotal, once.
	totals, err := s.Sum([]FeeType{
		FeeTypeKeyEd25519, FeeTypeRestricted, FeeTypeHashSha3512, FeeTypeByteMint,
	})
	require.Nil(t, err)
	require.True(t, totals.FixedUsd.Equal(decimal.RequireFromString("0.1")),
		"got %s", totals.FixedUsd)

	// A second restricted marker must not compound.
	compounded, err := s.Sum([]FeeType{
		FeeTypeKeyEd25519, FeeTypeRestricted, FeeTypeRestricted, FeeTypeHashSha3512, FeeTypeByteMint,
	})
	require.Nil(t, err)
	require.True(t, compounded.FixedUsd.Equal(totals.FixedUsd))
}

func TestSumUnknownFeeType(t *testing.T) {
	s, err := New(nil)
	require.Nil(t, err)

	_, err = s.Sum([]FeeType{FeeType("key_dilithium")})
	require.NotNil(t, err)

	unknown, ok := err.(*types.UnknownFeeTypeError)
	require.True(t, ok)
	require.Equal(t, "key_dilithium", unknown.FeeType)
}

func TestOverrideMerge(t *testing.T) {
	s, err := New(map[string]config.FeeEntry{
		"key_ed25519": {Fixed: "0.05"},
	})
	require.Nil(t, err)

	// Overridden entry.
	totals, err := s.Sum([]FeeType{FeeTypeKeyEd25519, FeeTypeByteTransfer})
	require.Nil(t, err)
	require.True(t, totals.FixedUsd.Equal(decimal.RequireFromString("0.05")))

	// Untouched entries survive the merge.
	totals, err = s.Sum([]FeeType{FeeTypeKeyEd448, FeeTypeByteTransfer})
	require.Nil(t, err)
	require.True(t, totals.FixedUsd.Equal(decimal.RequireFromString("0.03")))
	require.True(t, totals.PerByteUsd.Equal(decimal.RequireFromString("0.00015")))

	_, err = New(map[string]config.FeeEntry{"key_ed25519": {Fixed: "oops"}})
	require.NotNil(t, err)

	// The restricted marker has no entry to override; accepting one would
	// silently drop it.
	_, err = New(map[string]config.FeeEntry{"restricted_key": {Fixed: "0.5"}})
	require.NotNil(t, err)
}
