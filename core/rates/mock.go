package rates

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/atomic"
)

type MockFetcher struct {
	FetchRateFunc func(ctx context.Context, currencyId string) (decimal.Decimal, error)

	// CallCount counts FetchRate invocations across goroutines.
	CallCount atomic.Uint64
}

func (m *MockFetcher) FetchRate(ctx context.Context, currencyId string) (decimal.Decimal, error) {
	m.CallCount.Inc()

	if m.FetchRateFunc != nil {
		return m.FetchRateFunc(ctx, currencyId)
	}

	return decimal.Zero, nil
}
