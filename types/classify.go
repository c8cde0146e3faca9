package types

// KeyKind is the signing-key algorithm family. It determines public key and
// signature byte lengths and the fixed fee charged per key.
type KeyKind int

const (
	KeyEd25519 KeyKind = iota
	KeyEd448
)

func (k KeyKind) String() string {
	switch k {
	case KeyEd25519:
		return "ed25519"
	case KeyEd448:
		return "ed448"
	}

	return "unknown"
}

// HashKind is the digest algorithm used for the transaction content hash.
type HashKind int

const (
	HashSha3256 HashKind = iota
	HashSha3512
	HashBlake3
)

func (h HashKind) String() string {
	switch h {
	case HashSha3256:
		return "sha3_256"
	case HashSha3512:
		return "sha3_512"
	case HashBlake3:
		return "blake3"
	}

	return "unknown"
}

// KeyDescriptor is derived from a key blob during classification. It is
// recomputed per call, never stored on the record.
type KeyDescriptor struct {
	Kind       KeyKind
	PubLength  int
	SigLength  int
	Restricted bool
}

// HashDescriptor is derived from the hash tags embedded in a key blob.
type HashDescriptor struct {
	Kind       HashKind
	ByteLength int
}

// Classification is the result of structurally inspecting a transaction
// record: its kind plus the key and hash contributions that will be attached
// at signing time.
type Classification struct {
	Kind   TxKind
	Keys   []KeyDescriptor
	Hashes []HashDescriptor
}
