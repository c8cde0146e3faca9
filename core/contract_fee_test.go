package core

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sisu-network/dfees/config"
	"github.com/sisu-network/dfees/core/rates"
	"github.com/sisu-network/dfees/schedule"
	"github.com/sisu-network/dfees/token"
	"github.com/sisu-network/dfees/txn"
	"github.com/sisu-network/dfees/types"
)

// testRates serves fixed USD rates; unknown currencies fail with no fallback
// configured.
var testRates = map[string]string{
	"ETH":  "1000",
	"DAI":  "1",
	"USDC": "1",
	"SISU": "0.05",
}

func testConfig() config.Dfees {
	cfg := config.Dfees{
		RateFloors: map[string]string{
			"SISU": "0.1",
		},
	}
	cfg.ApplyDefaults()

	return cfg
}

func newTestCalculator(t *testing.T, cfg config.Dfees, codec txn.Codec,
	feeConfigs FeeConfigFetcher) (*Calculator, *rates.MockFetcher) {

	fetcher := &rates.MockFetcher{
		FetchRateFunc: func(_ context.Context, id string) (decimal.Decimal, error) {
			if rate, ok := testRates[id]; ok {
				return decimal.RequireFromString(rate), nil
			}

			return decimal.Zero, fmt.Errorf("no rate source for %s", id)
		},
	}

	cache, err := rates.NewCache(cfg, fetcher)
	require.Nil(t, err)

	sched, err := schedule.New(cfg.FeeSchedule)
	require.Nil(t, err)

	if codec == nil {
		codec = txn.NewCodec()
	}

	calc, err := NewCalculator(cfg, sched, cache, token.NewResolver(nil), codec, feeConfigs)
	require.Nil(t, err)

	return calc, fetcher
}

func newSession() *calcSession {
	return &calcSession{sources: make(map[string]string)}
}

func feeConfigFetcher(cfg *types.ContractFeeConfig) *MockFeeConfigFetcher {
	return &MockFeeConfigFetcher{
		FetchFeeConfigFunc: func(_ context.Context, contractId string) (*types.ContractFeeConfig, error) {
			return cfg, nil
		},
	}
}

func TestResolveContractFeeFixed(t *testing.T) {
	calc, _ := newTestCalculator(t, testConfig(), nil, feeConfigFetcher(&types.ContractFeeConfig{
		FeeType:       types.ContractFeeFixed,
		FeeAmount:     "2.5",
		AllowedFeeIds: []string{"DAI"},
	}))

	result, err := calc.resolveContractFee(context.Background(), &ContractFeeRequest{
		ContractId:            "DAI",
		TransactionValue:      decimal.NewFromInt(100),
		TransactionCurrencyId: "DAI",
		PayCurrencyId:         "DAI",
	}, newSession())
	require.Nil(t, err)

	require.Equal(t, types.ContractFeeFixed, result.FeeType)
	require.True(t, result.Amount.Equal(decimal.RequireFromString("2.5")))
	require.Equal(t, "DAI", result.Currency)
	require.False(t, result.Degraded)
}

func TestResolveContractFeePercentageSameCurrency(t *testing.T) {
	calc, fetcher := newTestCalculator(t, testConfig(), nil, feeConfigFetcher(&types.ContractFeeConfig{
		FeeType:       types.ContractFeePercentage,
		FeeAmount:     "1.5",
		AllowedFeeIds: []string{"ETH", "DAI"},
	}))

	result, err := calc.resolveContractFee(context.Background(), &ContractFeeRequest{
		ContractId:            "ETH",
		TransactionValue:      decimal.RequireFromString("125.5"),
		TransactionCurrencyId: "ETH",
		PayCurrencyId:         "ETH",
	}, newSession())
	require.Nil(t, err)

	// Exact: value * pct / 100, the amount never routes through USD. The
	// USD valuation still happens so a different settlement currency can
	// re-denominate the fee later.
	require.Equal(t, "1.8825", result.Amount.String())
	require.Equal(t, "1882.5", result.UsdValue.String())
	require.Equal(t, uint64(1), fetcher.CallCount.Load())
	require.False(t, result.Degraded)
}

func TestResolveContractFeePercentageSameCurrencyDegraded(t *testing.T) {
	calc, _ := newTestCalculator(t, testConfig(), nil, feeConfigFetcher(&types.ContractFeeConfig{
		FeeType:       types.ContractFeePercentage,
		FeeAmount:     "1.5",
		AllowedFeeIds: []string{"XXX"},
	}))

	// The amount is still exact without a rate source; only the USD
	// valuation is missing, and the result says so.
	result, err := calc.resolveContractFee(context.Background(), &ContractFeeRequest{
		ContractId:            "XXX",
		TransactionValue:      decimal.NewFromInt(100),
		TransactionCurrencyId: "XXX",
		PayCurrencyId:         "XXX",
	}, newSession())
	require.Nil(t, err)

	require.Equal(t, "1.5", result.Amount.String())
	require.True(t, result.UsdValue.IsZero())
	require.True(t, result.Degraded)
}

func TestResolveContractFeePercentageCrossCurrency(t *testing.T) {
	calc, _ := newTestCalculator(t, testConfig(), nil, feeConfigFetcher(&types.ContractFeeConfig{
		FeeType:       types.ContractFeePercentage,
		FeeAmount:     "1",
		AllowedFeeIds: []string{"DAI"},
	}))

	// 2 ETH at 1000 USD -> 2000 USD, 1% -> 20 USD -> 20 DAI.
	result, err := calc.resolveContractFee(context.Background(), &ContractFeeRequest{
		ContractId:            "ETH",
		TransactionValue:      decimal.NewFromInt(2),
		TransactionCurrencyId: "ETH",
		PayCurrencyId:         "DAI",
	}, newSession())
	require.Nil(t, err)

	require.True(t, result.Amount.Equal(decimal.NewFromInt(20)))
	require.True(t, result.UsdValue.Equal(decimal.NewFromInt(20)))
	require.False(t, result.Degraded)
}

func TestResolveContractFeePercentageDegraded(t *testing.T) {
	calc, _ := newTestCalculator(t, testConfig(), nil, feeConfigFetcher(&types.ContractFeeConfig{
		FeeType:       types.ContractFeePercentage,
		FeeAmount:     "2",
		AllowedFeeIds: []string{"XXX"},
	}))

	// The pay currency has no rate source and no fallback: the resolver
	// keeps the unconverted percentage value and flags it.
	result, err := calc.resolveContractFee(context.Background(), &ContractFeeRequest{
		ContractId:            "ETH",
		TransactionValue:      decimal.NewFromInt(50),
		TransactionCurrencyId: "ETH",
		PayCurrencyId:         "XXX",
	}, newSession())
	require.Nil(t, err)

	require.True(t, result.Amount.Equal(decimal.NewFromInt(1)))
	require.True(t, result.Degraded)
}

func TestResolveContractFeeCurrencyEquivalent(t *testing.T) {
	t.Run("converted", func(t *testing.T) {
		calc, _ := newTestCalculator(t, testConfig(), nil, feeConfigFetcher(&types.ContractFeeConfig{
			FeeType:       types.ContractFeeCurrencyEquivalent,
			FeeAmount:     "5",
			AllowedFeeIds: []string{"ETH"},
		}))

		// 5 USD at 1000 USD/ETH.
		result, err := calc.resolveContractFee(context.Background(), &ContractFeeRequest{
			ContractId:    "ETH",
			PayCurrencyId: "ETH",
		}, newSession())
		require.Nil(t, err)

		require.Equal(t, "0.005", result.Amount.String())
		require.False(t, result.Degraded)
	})

	t.Run("degraded keeps USD face value", func(t *testing.T) {
		calc, _ := newTestCalculator(t, testConfig(), nil, feeConfigFetcher(&types.ContractFeeConfig{
			FeeType:       types.ContractFeeCurrencyEquivalent,
			FeeAmount:     "5",
			AllowedFeeIds: []string{"XXX"},
		}))

		result, err := calc.resolveContractFee(context.Background(), &ContractFeeRequest{
			ContractId:    "ETH",
			PayCurrencyId: "XXX",
		}, newSession())
		require.Nil(t, err)

		require.True(t, result.Amount.Equal(decimal.NewFromInt(5)))
		require.True(t, result.Degraded)
	})
}

func TestResolveContractFeeNone(t *testing.T) {
	calc, _ := newTestCalculator(t, testConfig(), nil, feeConfigFetcher(&types.ContractFeeConfig{
		FeeType:       types.ContractFeeNone,
		AllowedFeeIds: []string{"DAI"},
	}))

	result, err := calc.resolveContractFee(context.Background(), &ContractFeeRequest{
		ContractId:    "DAI",
		PayCurrencyId: "DAI",
	}, newSession())
	require.Nil(t, err)
	require.True(t, result.Amount.IsZero())
}

func TestResolveContractFeeNotAllowed(t *testing.T) {
	calc, _ := newTestCalculator(t, testConfig(), nil, feeConfigFetcher(&types.ContractFeeConfig{
		FeeType:       types.ContractFeeFixed,
		FeeAmount:     "1",
		AllowedFeeIds: []string{"DAI", "USDC"},
	}))

	_, err := calc.resolveContractFee(context.Background(), &ContractFeeRequest{
		ContractId:    "SOMETOKEN",
		PayCurrencyId: "ETH",
	}, newSession())
	require.NotNil(t, err)

	notAllowed, ok := err.(*types.FeeContractNotAllowedError)
	require.True(t, ok)
	require.Equal(t, "ETH", notAllowed.Requested)
	require.Equal(t, []string{"DAI", "USDC"}, notAllowed.Allowed)
}

func TestResolveContractFeeConfigOverride(t *testing.T) {
	cfg := testConfig()
	cfg.ContractFees = map[string]config.ContractFee{
		"DAI": {FeeType: "fixed", FeeAmount: "0.25", AllowedFeeIds: []string{"DAI"}},
	}

	// No metadata source at all: the override must be enough.
	calc, _ := newTestCalculator(t, cfg, nil, nil)

	result, err := calc.resolveContractFee(context.Background(), &ContractFeeRequest{
		ContractId:    "DAI",
		PayCurrencyId: "DAI",
	}, newSession())
	require.Nil(t, err)
	require.True(t, result.Amount.Equal(decimal.RequireFromString("0.25")))

	// A contract without an override still needs a source.
	_, err = calc.resolveContractFee(context.Background(), &ContractFeeRequest{
		ContractId:    "ETH",
		PayCurrencyId: "ETH",
	}, newSession())
	require.NotNil(t, err)
}
