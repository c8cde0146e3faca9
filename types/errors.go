package types

import (
	"fmt"
	"strings"
)

// ClassificationError means the transaction record's shape could not be
// mapped to a kind, key kind or hash kind. It is always surfaced, never
// defaulted around.
type ClassificationError struct {
	Reason string
	// ByteLength is the length of the offending key material, when the
	// failure came from a key blob. Zero otherwise.
	ByteLength int
}

func (e *ClassificationError) Error() string {
	if e.ByteLength > 0 {
		return fmt.Sprintf("cannot classify transaction: %s (byte length %d)", e.Reason, e.ByteLength)
	}

	return fmt.Sprintf("cannot classify transaction: %s", e.Reason)
}

// UnknownFeeTypeError is a fee-schedule lookup miss. Lookup misses are fatal
// rather than zero-valued so a schedule gap cannot silently undercharge.
type UnknownFeeTypeError struct {
	FeeType string
}

func (e *UnknownFeeTypeError) Error() string {
	return fmt.Sprintf("unknown fee type %q", e.FeeType)
}

// UnsupportedCurrencyError means the denomination resolver has no decimals
// entry for a currency and no fallback applies.
type UnsupportedCurrencyError struct {
	Currency string
}

func (e *UnsupportedCurrencyError) Error() string {
	return fmt.Sprintf("unsupported currency %q: no denomination configured", e.Currency)
}

// FeeContractNotAllowedError means the requested pay currency is not in the
// contract's allow-list. The allowed list is included for actionability.
type FeeContractNotAllowedError struct {
	ContractId string
	Requested  string
	Allowed    []string
}

func (e *FeeContractNotAllowedError) Error() string {
	return fmt.Sprintf("fee currency %q not allowed for contract %s, allowed: [%s]",
		e.Requested, e.ContractId, strings.Join(e.Allowed, ", "))
}
