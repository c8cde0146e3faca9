package types

// TxKind identifies the structural variant of a transaction record.
type TxKind int

const (
	TxUnknown TxKind = iota
	TxTransfer
	TxMint
	TxVote
	TxContractCall
)

func (k TxKind) String() string {
	switch k {
	case TxTransfer:
		return "transfer"
	case TxMint:
		return "mint"
	case TxVote:
		return "vote"
	case TxContractCall:
		return "contract_call"
	}

	return "unknown"
}

// AuthSection holds the signing keys of a transaction. Keys are encoded blobs
// in the form "[r_]<keyTag>[_<hashTag>...]_<base58 payload>".
type AuthSection struct {
	PublicKeys []string `json:"public_keys"`
	Nonce      uint64   `json:"nonce"`
}

// TransferPayload is the value-transfer variant. Auth lives inside the payload
// for this kind only. Fee, FeeId and ContractFee are filled in during fee
// assembly and are part of the wire form, so their stringified length feeds
// back into the serialized size.
type TransferPayload struct {
	Auth        *AuthSection `json:"auth"`
	ContractId  string       `json:"contract_id"`
	Recipient   string       `json:"recipient"`
	Amount      string       `json:"amount"`
	Fee         string       `json:"fee"`
	FeeId       string       `json:"fee_id"`
	ContractFee string       `json:"contract_fee"`
}

type MintPayload struct {
	ContractId string `json:"contract_id"`
	Recipient  string `json:"recipient"`
	Amount     string `json:"amount"`
}

type VotePayload struct {
	ProposalId string `json:"proposal_id"`
	Support    bool   `json:"support"`
}

type ContractCallPayload struct {
	ContractId string   `json:"contract_id"`
	Method     string   `json:"method"`
	Args       [][]byte `json:"args"`
}

// TxRecord is the unsigned transaction shape shared with the signing layer.
// Exactly one payload pointer is set. Kind, when not TxUnknown, is
// authoritative; otherwise the classifier probes the payload pointers.
type TxRecord struct {
	Kind TxKind `json:"kind,omitempty"`
	Memo string `json:"memo"`

	// Auth for every kind except transfer, which carries its own.
	Auth *AuthSection `json:"auth,omitempty"`

	Transfer     *TransferPayload     `json:"transfer,omitempty"`
	Mint         *MintPayload         `json:"mint,omitempty"`
	Vote         *VotePayload         `json:"vote,omitempty"`
	ContractCall *ContractCallPayload `json:"contract_call,omitempty"`
}

// Clone returns a deep copy. Fee assembly mutates the working copy (fee fields
// are embedded in the wire form), never the caller's record.
func (r *TxRecord) Clone() *TxRecord {
	if r == nil {
		return nil
	}

	c := *r
	c.Auth = r.Auth.clone()

	if r.Transfer != nil {
		t := *r.Transfer
		t.Auth = r.Transfer.Auth.clone()
		c.Transfer = &t
	}
	if r.Mint != nil {
		m := *r.Mint
		c.Mint = &m
	}
	if r.Vote != nil {
		v := *r.Vote
		c.Vote = &v
	}
	if r.ContractCall != nil {
		cc := *r.ContractCall
		cc.Args = make([][]byte, len(r.ContractCall.Args))
		for i, arg := range r.ContractCall.Args {
			cc.Args[i] = append([]byte(nil), arg...)
		}
		c.ContractCall = &cc
	}

	return &c
}

func (a *AuthSection) clone() *AuthSection {
	if a == nil {
		return nil
	}

	c := *a
	c.PublicKeys = append([]string(nil), a.PublicKeys...)

	return &c
}
