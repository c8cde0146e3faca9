package txn

import (
	"strings"

	"github.com/mr-tron/base58"

	"github.com/sisu-network/dfees/types"
)

// Key blobs are "_"-separated: an optional restricted marker, one key tag,
// zero or more hash tags, then the base58 key material. Examples:
//
//	A_4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi
//	r_B_b_...
//	A_a_c_...
//
// The hash tags name the digest chain applied to the transaction content at
// signing time; each detected tag contributes bytes and a fixed fee.
const (
	keyBlobSeparator = "_"
	restrictedMarker = "r"
)

type keyAlg struct {
	kind      types.KeyKind
	pubLength int
	sigLength int
}

var keyAlgs = map[string]keyAlg{
	"A": {kind: types.KeyEd25519, pubLength: 32, sigLength: 64},
	"B": {kind: types.KeyEd448, pubLength: 57, sigLength: 114},
}

var hashAlgs = map[string]types.HashDescriptor{
	"a": {Kind: types.HashSha3256, ByteLength: 32},
	"b": {Kind: types.HashSha3512, ByteLength: 64},
	"c": {Kind: types.HashBlake3, ByteLength: 32},
}

// parseKeyBlob decodes one encoded public key into its key descriptor and any
// hash descriptors its tags embed. Unknown or malformed tokens fail with the
// offending byte length for diagnosis.
func parseKeyBlob(blob string) (types.KeyDescriptor, []types.HashDescriptor, error) {
	parts := strings.Split(blob, keyBlobSeparator)
	if len(parts) < 2 {
		return types.KeyDescriptor{}, nil, &types.ClassificationError{
			Reason:     "key blob has no tag prefix",
			ByteLength: len(blob),
		}
	}

	restricted := false
	if parts[0] == restrictedMarker {
		restricted = true
		parts = parts[1:]
		if len(parts) < 2 {
			return types.KeyDescriptor{}, nil, &types.ClassificationError{
				Reason:     "restricted key blob has no tag prefix",
				ByteLength: len(blob),
			}
		}
	}

	alg, ok := keyAlgs[parts[0]]
	if !ok {
		return types.KeyDescriptor{}, nil, &types.ClassificationError{
			Reason:     "unknown key tag " + parts[0],
			ByteLength: len(blob),
		}
	}

	hashes := make([]types.HashDescriptor, 0, 1)
	for _, tag := range parts[1 : len(parts)-1] {
		hash, ok := hashAlgs[tag]
		if !ok {
			return types.KeyDescriptor{}, nil, &types.ClassificationError{
				Reason:     "unknown hash tag " + tag,
				ByteLength: len(blob),
			}
		}
		hashes = append(hashes, hash)
	}

	material, err := base58.Decode(parts[len(parts)-1])
	if err != nil {
		return types.KeyDescriptor{}, nil, &types.ClassificationError{
			Reason:     "key material is not valid base58",
			ByteLength: len(parts[len(parts)-1]),
		}
	}
	if len(material) != alg.pubLength {
		return types.KeyDescriptor{}, nil, &types.ClassificationError{
			Reason:     "key material length does not match " + alg.kind.String(),
			ByteLength: len(material),
		}
	}

	return types.KeyDescriptor{
		Kind:       alg.kind,
		PubLength:  alg.pubLength,
		SigLength:  alg.sigLength,
		Restricted: restricted,
	}, hashes, nil
}
