package token

import (
	"github.com/shopspring/decimal"

	"github.com/sisu-network/dfees/types"
	"github.com/sisu-network/dfees/utils"
)

// fallbackDecimals covers the currencies the SDK ships with. Config can add
// to or override this table; anything else is an unsupported currency.
var fallbackDecimals = map[string]int32{
	"ETH":  18,
	"SISU": 18,
	"DAI":  18,
	"USDC": 6,
	"USDT": 6,
	"BTC":  8,
}

// Resolver maps a currency id to its smallest-unit exponent and converts
// amounts between whole units and smallest units.
type Resolver struct {
	overrides map[string]int32
}

func NewResolver(overrides map[string]int) *Resolver {
	m := make(map[string]int32, len(overrides))
	for id, dec := range overrides {
		m[id] = int32(dec)
	}

	return &Resolver{overrides: m}
}

// Decimals returns the number of decimal places of the currency's smallest
// unit. Explicit config wins over the fallback table.
func (r *Resolver) Decimals(id string) (int32, error) {
	if dec, ok := r.overrides[id]; ok {
		return dec, nil
	}
	if dec, ok := fallbackDecimals[id]; ok {
		return dec, nil
	}

	return 0, &types.UnsupportedCurrencyError{Currency: id}
}

// ToSmallestUnits converts a whole-unit amount to an integral smallest-unit
// decimal string. Amounts finer than the currency's precision are rounded.
func (r *Resolver) ToSmallestUnits(amount decimal.Decimal, id string) (string, error) {
	dec, err := r.Decimals(id)
	if err != nil {
		return "", err
	}

	return amount.Shift(dec).Round(0).String(), nil
}

// FromSmallestUnits converts an integral smallest-unit string back to whole
// units. Inverse of ToSmallestUnits for any amount within the currency's
// precision.
func (r *Resolver) FromSmallestUnits(units string, id string) (decimal.Decimal, error) {
	dec, err := r.Decimals(id)
	if err != nil {
		return decimal.Zero, err
	}

	d, err := utils.ParseDecimal(units)
	if err != nil {
		return decimal.Zero, err
	}

	return d.Shift(-dec), nil
}
