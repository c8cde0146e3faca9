package txn

import (
	"github.com/sisu-network/dfees/types"
)

// EstimateSize returns the exact wire size the transaction will occupy once
// signatures and hashes are attached: serialized body plus one signature per
// detected key plus one digest per detected hash kind. The classifier already
// substitutes the default hash when none was detectable. Pure function of its
// inputs.
func EstimateSize(rec *types.TxRecord, cls *types.Classification, codec Codec) (int, error) {
	body, err := codec.Marshal(rec, cls.Kind)
	if err != nil {
		return 0, err
	}

	size := len(body)
	for _, key := range cls.Keys {
		size += key.SigLength
	}
	for _, hash := range cls.Hashes {
		size += hash.ByteLength
	}

	return size, nil
}
