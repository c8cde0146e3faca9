package txn

import (
	"github.com/sisu-network/dfees/types"
)

// defaultHash is charged when no key blob embeds a hash tag. Absence of a
// detectable hash kind is not an error.
var defaultHash = types.HashDescriptor{Kind: types.HashSha3256, ByteLength: 32}

// Classify structurally inspects a record and returns its kind plus key and
// hash descriptors. The explicit Kind discriminator is authoritative when
// set; otherwise payload pointers are probed in a fixed order (transfer,
// mint, vote, contract call), since two kinds could structurally overlap the
// order is part of the contract. Pure: repeated calls on the same record
// return the same result and the record is never mutated.
func Classify(rec *types.TxRecord) (*types.Classification, error) {
	if rec == nil {
		return nil, &types.ClassificationError{Reason: "nil transaction record"}
	}

	kind, err := detectKind(rec)
	if err != nil {
		return nil, err
	}

	auth := rec.Auth
	if kind == types.TxTransfer {
		// The value-transfer kind carries auth inside its payload.
		auth = rec.Transfer.Auth
	}
	if auth == nil || len(auth.PublicKeys) == 0 {
		return nil, &types.ClassificationError{Reason: "transaction has no signing keys"}
	}
	if len(auth.PublicKeys) > 1 {
		return nil, &types.ClassificationError{Reason: "multisig structures are not supported"}
	}

	keys := make([]types.KeyDescriptor, 0, len(auth.PublicKeys))
	hashes := make([]types.HashDescriptor, 0, 1)
	for _, blob := range auth.PublicKeys {
		key, keyHashes, err := parseKeyBlob(blob)
		if err != nil {
			return nil, err
		}

		keys = append(keys, key)
		hashes = append(hashes, keyHashes...)
	}

	if len(hashes) == 0 {
		hashes = append(hashes, defaultHash)
	}

	return &types.Classification{
		Kind:   kind,
		Keys:   keys,
		Hashes: hashes,
	}, nil
}

func detectKind(rec *types.TxRecord) (types.TxKind, error) {
	if rec.Kind != types.TxUnknown {
		if !payloadMatches(rec, rec.Kind) {
			return types.TxUnknown, &types.ClassificationError{
				Reason: "kind discriminator " + rec.Kind.String() + " has no matching payload",
			}
		}

		return rec.Kind, nil
	}

	switch {
	case rec.Transfer != nil:
		return types.TxTransfer, nil
	case rec.Mint != nil:
		return types.TxMint, nil
	case rec.Vote != nil:
		return types.TxVote, nil
	case rec.ContractCall != nil:
		return types.TxContractCall, nil
	}

	return types.TxUnknown, &types.ClassificationError{Reason: "no known payload present"}
}

func payloadMatches(rec *types.TxRecord, kind types.TxKind) bool {
	switch kind {
	case types.TxTransfer:
		return rec.Transfer != nil
	case types.TxMint:
		return rec.Mint != nil
	case types.TxVote:
		return rec.Vote != nil
	case types.TxContractCall:
		return rec.ContractCall != nil
	}

	return false
}
