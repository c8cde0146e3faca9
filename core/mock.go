package core

import (
	"context"

	"github.com/sisu-network/dfees/types"
)

type MockFeeConfigFetcher struct {
	FetchFeeConfigFunc func(ctx context.Context, contractId string) (*types.ContractFeeConfig, error)
}

func (m *MockFeeConfigFetcher) FetchFeeConfig(ctx context.Context, contractId string) (*types.ContractFeeConfig, error) {
	if m.FetchFeeConfigFunc != nil {
		return m.FetchFeeConfigFunc(ctx, contractId)
	}

	return nil, nil
}

// MockCodec returns a fixed body size regardless of the record, used to pin
// sizes in fee-math tests.
type MockCodec struct {
	MarshalFunc func(rec *types.TxRecord, kind types.TxKind) ([]byte, error)
}

func (m *MockCodec) Marshal(rec *types.TxRecord, kind types.TxKind) ([]byte, error) {
	if m.MarshalFunc != nil {
		return m.MarshalFunc(rec, kind)
	}

	return nil, nil
}
