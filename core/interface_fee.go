package core

import (
	"context"
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/sisu-network/dfees/utils"
)

// InterfaceFeeSpec is an optional third-party routing fee. The three fields
// are all-or-nothing: supplying any of them without the others is an error.
type InterfaceFeeSpec struct {
	Amount          string
	FeeCurrencyId   string
	ProviderAddress string
}

// interfaceFeeResult is the resolved fee in settlement-currency units plus
// its USD value for the breakdown.
type interfaceFeeResult struct {
	Amount   decimal.Decimal
	UsdValue decimal.Decimal
}

// resolveInterfaceFee validates the spec and converts its amount into the
// settlement currency. It returns nil when the spec is absent or when the
// amount rounds to zero smallest units, so downstream serialization omits
// the component entirely.
func (c *Calculator) resolveInterfaceFee(ctx context.Context, spec *InterfaceFeeSpec,
	settlementCurrencyId string, session *calcSession) (*interfaceFeeResult, error) {

	if spec == nil {
		return nil, nil
	}

	if spec.Amount == "" || spec.FeeCurrencyId == "" || spec.ProviderAddress == "" {
		return nil, fmt.Errorf("interface fee requires amount, fee currency and provider address together")
	}
	if !ethcommon.IsHexAddress(spec.ProviderAddress) {
		return nil, fmt.Errorf("invalid interface fee provider address %q", spec.ProviderAddress)
	}

	amount, err := utils.ParseDecimal(spec.Amount)
	if err != nil {
		return nil, fmt.Errorf("interface fee amount: %w", err)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("interface fee amount must be positive, got %s", amount)
	}

	feeRate, err := c.getRate(ctx, spec.FeeCurrencyId, session)
	if err != nil {
		return nil, err
	}
	usd := amount.Mul(feeRate.Value)

	converted := amount
	if spec.FeeCurrencyId != settlementCurrencyId {
		settlementRate, err := c.getRate(ctx, settlementCurrencyId, session)
		if err != nil {
			return nil, err
		}
		converted = usd.Div(settlementRate.Value)
	}

	// A fee below the settlement currency's resolution is treated as
	// absent, not as a zero-value component.
	units, err := c.denoms.ToSmallestUnits(converted, settlementCurrencyId)
	if err != nil {
		return nil, err
	}
	if units == "0" {
		return nil, nil
	}

	return &interfaceFeeResult{
		Amount:   converted,
		UsdValue: utils.RoundUsd(usd),
	}, nil
}
