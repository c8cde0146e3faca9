package txn

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/sisu-network/dfees/types"
)

const wireVersion = 1

// Codec serializes a record to its wire form. The per-byte fee math is
// size-sensitive down to the byte, so the estimator must use the exact
// encoding the transport layer submits, not an approximation.
type Codec interface {
	Marshal(rec *types.TxRecord, kind types.TxKind) ([]byte, error)
}

// wireCodec is the canonical deterministic encoding: fixed field order per
// kind, 4-byte big-endian length prefix on every variable-length field.
type wireCodec struct{}

func NewCodec() Codec {
	return wireCodec{}
}

func (wireCodec) Marshal(rec *types.TxRecord, kind types.TxKind) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("cannot marshal nil record")
	}

	buf := &bytes.Buffer{}
	buf.WriteByte(wireVersion)
	buf.WriteByte(byte(kind))
	writeString(buf, rec.Memo)

	switch kind {
	case types.TxTransfer:
		t := rec.Transfer
		if t == nil {
			return nil, fmt.Errorf("record has no transfer payload")
		}

		writeAuth(buf, t.Auth)
		writeString(buf, t.ContractId)
		writeString(buf, t.Recipient)
		writeString(buf, t.Amount)
		writeString(buf, t.Fee)
		writeString(buf, t.FeeId)
		writeString(buf, t.ContractFee)

	case types.TxMint:
		m := rec.Mint
		if m == nil {
			return nil, fmt.Errorf("record has no mint payload")
		}

		writeAuth(buf, rec.Auth)
		writeString(buf, m.ContractId)
		writeString(buf, m.Recipient)
		writeString(buf, m.Amount)

	case types.TxVote:
		v := rec.Vote
		if v == nil {
			return nil, fmt.Errorf("record has no vote payload")
		}

		writeAuth(buf, rec.Auth)
		writeString(buf, v.ProposalId)
		if v.Support {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}

	case types.TxContractCall:
		c := rec.ContractCall
		if c == nil {
			return nil, fmt.Errorf("record has no contract call payload")
		}

		writeAuth(buf, rec.Auth)
		writeString(buf, c.ContractId)
		writeString(buf, c.Method)
		writeUint32(buf, uint32(len(c.Args)))
		for _, arg := range c.Args {
			writeBytes(buf, arg)
		}

	default:
		return nil, fmt.Errorf("cannot marshal unknown transaction kind %d", kind)
	}

	return buf.Bytes(), nil
}

func writeAuth(buf *bytes.Buffer, auth *types.AuthSection) {
	if auth == nil {
		writeUint32(buf, 0)
		return
	}

	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], auth.Nonce)
	buf.Write(nonce[:])

	writeUint32(buf, uint32(len(auth.PublicKeys)))
	for _, key := range auth.PublicKeys {
		writeString(buf, key)
	}
}

func writeString(buf *bytes.Buffer, s string) {
	writeUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	writeUint32(buf, uint32(len(b)))
	buf.Write(b)
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
