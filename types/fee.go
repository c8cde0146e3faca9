package types

import "github.com/shopspring/decimal"

// RateSource says where a rate value came from. Fallback use is recoverable
// and observable here rather than through an error.
type RateSource int

const (
	RateSourceLive RateSource = iota
	RateSourceFallback
)

func (s RateSource) String() string {
	if s == RateSourceFallback {
		return "fallback"
	}

	return "live"
}

// Rate is a USD-per-unit exchange rate plus provenance metadata.
type Rate struct {
	Value   decimal.Decimal
	Source  RateSource
	Floored bool
}

// ContractFeeType selects how a contract charges its fee.
type ContractFeeType int

const (
	ContractFeeNone ContractFeeType = iota
	ContractFeeFixed
	ContractFeePercentage
	ContractFeeCurrencyEquivalent
)

func (t ContractFeeType) String() string {
	switch t {
	case ContractFeeFixed:
		return "fixed"
	case ContractFeePercentage:
		return "percentage"
	case ContractFeeCurrencyEquivalent:
		return "cur_equivalent"
	}

	return "none"
}

// ContractFeeConfig is the fee policy of a single contract, fetched from the
// contract-metadata source or supplied through config overrides.
// AllowedFeeIds is never empty for a valid config.
type ContractFeeConfig struct {
	FeeType       ContractFeeType
	FeeAmount     string
	AllowedFeeIds []string
}

// BreakdownDetail carries the per-component USD values and the recoverable
// condition flags. Callers that ignore it still get usable top-level fees.
type BreakdownDetail struct {
	FixedUsd     string `json:"fixed_usd"`
	PerByteUsd   string `json:"per_byte_usd"`
	NetworkUsd   string `json:"network_usd"`
	ContractUsd  string `json:"contract_usd,omitempty"`
	InterfaceUsd string `json:"interface_usd,omitempty"`

	ContractFeeCurrency string `json:"contract_fee_currency,omitempty"`
	ContractFeeAmount   string `json:"contract_fee_amount,omitempty"`
	ContractFeeDegraded bool   `json:"contract_fee_degraded,omitempty"`

	// RateSources maps currency id to "live" or "fallback" for every rate
	// consulted during assembly.
	RateSources map[string]string `json:"rate_sources,omitempty"`
}

// FeeBreakdown is the output of one fee calculation. All top-level money
// values are decimal strings in the settlement currency's smallest unit.
// Produced fresh per call, never cached.
type FeeBreakdown struct {
	NetworkFee   string `json:"network_fee"`
	ContractFee  string `json:"contract_fee,omitempty"`
	InterfaceFee string `json:"interface_fee,omitempty"`
	TotalFee     string `json:"total_fee"`

	FeeCurrencyId string `json:"fee_currency_id"`
	SizeBytes     int    `json:"size_bytes"`

	// Converged is false when the size/fee fixed-point loop hit its
	// iteration bound; the values are then best-effort, not an error.
	Converged  bool `json:"converged"`
	Iterations int  `json:"iterations"`

	Detail BreakdownDetail `json:"detail"`
}
