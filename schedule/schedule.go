package schedule

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sisu-network/dfees/config"
	"github.com/sisu-network/dfees/types"
	"github.com/sisu-network/dfees/utils"
)

// FeeType is one token of the fee schedule: a fixed cost per detected key or
// hash, one per-byte cost per transaction kind, and the restricted marker.
type FeeType string

const (
	FeeTypeKeyEd25519 FeeType = "key_ed25519"
	FeeTypeKeyEd448   FeeType = "key_ed448"

	FeeTypeHashSha3256 FeeType = "hash_sha3_256"
	FeeTypeHashSha3512 FeeType = "hash_sha3_512"
	FeeTypeHashBlake3  FeeType = "hash_blake3"

	FeeTypeByteTransfer     FeeType = "byte_transfer"
	FeeTypeByteMint         FeeType = "byte_mint"
	FeeTypeByteVote         FeeType = "byte_vote"
	FeeTypeByteContractCall FeeType = "byte_contract_call"

	// FeeTypeRestricted multiplies the accumulated fixed subtotal once,
	// regardless of how many restricted keys were detected. It does not
	// compound per key.
	FeeTypeRestricted FeeType = "restricted_key"
)

// Entry is the USD contribution of one fee type.
type Entry struct {
	FixedUsd   decimal.Decimal
	PerByteUsd decimal.Decimal
}

// Totals is the summed USD contribution of a token list, before the per-byte
// part is multiplied by the transaction size.
type Totals struct {
	FixedUsd   decimal.Decimal
	PerByteUsd decimal.Decimal
}

var restrictedMultiplier = decimal.NewFromInt(2)

func builtinEntries() map[FeeType]Entry {
	usd := decimal.RequireFromString

	return map[FeeType]Entry{
		FeeTypeKeyEd25519: {FixedUsd: usd("0.02")},
		FeeTypeKeyEd448:   {FixedUsd: usd("0.03")},

		FeeTypeHashSha3256: {FixedUsd: usd("0.02")},
		FeeTypeHashSha3512: {FixedUsd: usd("0.03")},
		FeeTypeHashBlake3:  {FixedUsd: usd("0.02")},

		FeeTypeByteTransfer:     {PerByteUsd: usd("0.00015")},
		FeeTypeByteMint:         {PerByteUsd: usd("0.0002")},
		FeeTypeByteVote:         {PerByteUsd: usd("0.0001")},
		FeeTypeByteContractCall: {PerByteUsd: usd("0.00025")},
	}
}

// Schedule maps fee types to their USD contributions. Config overrides are
// merged over the built-in table at construction.
type Schedule struct {
	entries map[FeeType]Entry
}

func New(overrides map[string]config.FeeEntry) (*Schedule, error) {
	entries := builtinEntries()

	for name, o := range overrides {
		if FeeType(name) == FeeTypeRestricted {
			// The marker is a multiplier, not a fee entry; an override
			// would be silently dead.
			return nil, fmt.Errorf("fee schedule override %s: the restricted marker carries no entry", name)
		}

		entry := entries[FeeType(name)]

		if o.Fixed != "" {
			fixed, err := utils.ParseDecimal(o.Fixed)
			if err != nil {
				return nil, fmt.Errorf("fee schedule override %s: %w", name, err)
			}
			entry.FixedUsd = fixed
		}
		if o.PerByte != "" {
			perByte, err := utils.ParseDecimal(o.PerByte)
			if err != nil {
				return nil, fmt.Errorf("fee schedule override %s: %w", name, err)
			}
			entry.PerByteUsd = perByte
		}

		entries[FeeType(name)] = entry
	}

	return &Schedule{entries: entries}, nil
}

// ResolveFeeTypes maps a classification to its fee tokens: one per key, one
// per hash, the restricted marker when any key is restricted, and exactly one
// per-byte token for the kind.
func ResolveFeeTypes(cls *types.Classification) []FeeType {
	tokens := make([]FeeType, 0, len(cls.Keys)+len(cls.Hashes)+2)

	restricted := false
	for _, key := range cls.Keys {
		tokens = append(tokens, keyFeeType(key.Kind))
		if key.Restricted {
			restricted = true
		}
	}
	if restricted {
		tokens = append(tokens, FeeTypeRestricted)
	}

	for _, hash := range cls.Hashes {
		tokens = append(tokens, hashFeeType(hash.Kind))
	}

	tokens = append(tokens, byteFeeType(cls.Kind))

	return tokens
}

// Sum accumulates the USD contributions of a token list. The restricted
// marker scales the whole fixed subtotal by a constant multiplier. Results
// round to a millionth of a cent; a missing entry is an error, never zero.
func (s *Schedule) Sum(tokens []FeeType) (Totals, error) {
	fixed := decimal.Zero
	perByte := decimal.Zero
	restricted := false

	for _, token := range tokens {
		if token == FeeTypeRestricted {
			restricted = true
			continue
		}

		entry, ok := s.entries[token]
		if !ok {
			return Totals{}, &types.UnknownFeeTypeError{FeeType: string(token)}
		}

		fixed = fixed.Add(entry.FixedUsd)
		perByte = perByte.Add(entry.PerByteUsd)
	}

	if restricted {
		fixed = fixed.Mul(restrictedMultiplier)
	}

	return Totals{
		FixedUsd:   utils.RoundUsd(fixed),
		PerByteUsd: utils.RoundUsd(perByte),
	}, nil
}

func keyFeeType(kind types.KeyKind) FeeType {
	switch kind {
	case types.KeyEd448:
		return FeeTypeKeyEd448
	default:
		return FeeTypeKeyEd25519
	}
}

func hashFeeType(kind types.HashKind) FeeType {
	switch kind {
	case types.HashSha3512:
		return FeeTypeHashSha3512
	case types.HashBlake3:
		return FeeTypeHashBlake3
	default:
		return FeeTypeHashSha3256
	}
}

func byteFeeType(kind types.TxKind) FeeType {
	switch kind {
	case types.TxMint:
		return FeeTypeByteMint
	case types.TxVote:
		return FeeTypeByteVote
	case types.TxContractCall:
		return FeeTypeByteContractCall
	default:
		return FeeTypeByteTransfer
	}
}
