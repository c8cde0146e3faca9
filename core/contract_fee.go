package core

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sisu-network/lib/log"
	"github.com/ybbus/jsonrpc/v3"

	"github.com/sisu-network/dfees/types"
	"github.com/sisu-network/dfees/utils"
)

// FeeConfigFetcher retrieves a contract's fee policy from the metadata
// source.
type FeeConfigFetcher interface {
	FetchFeeConfig(ctx context.Context, contractId string) (*types.ContractFeeConfig, error)
}

type rpcFeeConfigFetcher struct {
	client jsonrpc.RPCClient
}

func NewRpcFeeConfigFetcher(url string) FeeConfigFetcher {
	return &rpcFeeConfigFetcher{
		client: jsonrpc.NewClient(url),
	}
}

func (f *rpcFeeConfigFetcher) FetchFeeConfig(ctx context.Context, contractId string) (*types.ContractFeeConfig, error) {
	type response struct {
		FeeType       string   `json:"fee_type"`
		FeeAmount     string   `json:"fee_amount"`
		AllowedFeeIds []string `json:"allowed_fee_ids"`
	}

	resp := &response{}
	err := f.client.CallFor(ctx, resp, "contract_getFeeConfig", contractId)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fee config for contract %s: %w", contractId, err)
	}

	cfg := &types.ContractFeeConfig{
		FeeType:       parseContractFeeType(resp.FeeType),
		FeeAmount:     resp.FeeAmount,
		AllowedFeeIds: resp.AllowedFeeIds,
	}
	if len(cfg.AllowedFeeIds) == 0 {
		return nil, fmt.Errorf("contract %s fee config has an empty allowed fee list", contractId)
	}

	return cfg, nil
}

func parseContractFeeType(s string) types.ContractFeeType {
	switch s {
	case "fixed":
		return types.ContractFeeFixed
	case "percentage":
		return types.ContractFeePercentage
	case "cur_equivalent":
		return types.ContractFeeCurrencyEquivalent
	}

	return types.ContractFeeNone
}

// ContractFeeRequest asks for the fee a specific contract charges on a value
// transfer.
type ContractFeeRequest struct {
	ContractId string

	// TransactionValue is the transferred amount, denominated in
	// TransactionCurrencyId.
	TransactionValue      decimal.Decimal
	TransactionCurrencyId string

	// PayCurrencyId is the currency the contract fee will be paid in. It
	// must be a member of the contract's allowed list.
	PayCurrencyId string
}

// ContractFeeResult is the resolved fee. Amount is denominated in
// PayCurrencyId units. Degraded marks a result computed without a currency
// conversion after a rate lookup failed; it is usable but approximate.
type ContractFeeResult struct {
	FeeType  types.ContractFeeType
	Amount   decimal.Decimal
	Currency string
	UsdValue decimal.Decimal
	Degraded bool
}

// resolveContractFee resolves the contract's policy and computes the fee.
// Config overrides are consulted before the metadata source.
//
// Conversion failures degrade rather than fail: the percentage branch keeps
// the un-converted percentage math, the currency-equivalent branch keeps the
// USD face value, and both set Degraded.
func (c *Calculator) resolveContractFee(ctx context.Context, req *ContractFeeRequest,
	session *calcSession) (*ContractFeeResult, error) {
	feeCfg, err := c.fetchFeeConfig(ctx, req.ContractId)
	if err != nil {
		return nil, err
	}

	if !contains(feeCfg.AllowedFeeIds, req.PayCurrencyId) {
		return nil, &types.FeeContractNotAllowedError{
			ContractId: req.ContractId,
			Requested:  req.PayCurrencyId,
			Allowed:    feeCfg.AllowedFeeIds,
		}
	}

	result := &ContractFeeResult{
		FeeType:  feeCfg.FeeType,
		Currency: req.PayCurrencyId,
	}

	if feeCfg.FeeType == types.ContractFeeNone {
		return result, nil
	}

	amount, err := utils.ParseDecimal(feeCfg.FeeAmount)
	if err != nil {
		return nil, fmt.Errorf("contract %s fee amount: %w", req.ContractId, err)
	}

	switch feeCfg.FeeType {
	case types.ContractFeeFixed:
		result.Amount = amount

		// Best-effort USD value so a cross-currency settlement can be
		// re-denominated later.
		payRate, payErr := c.getRate(ctx, req.PayCurrencyId, session)
		if payErr != nil {
			result.Degraded = true
		} else {
			result.UsdValue = utils.RoundUsd(amount.Mul(payRate.Value))
		}

	case types.ContractFeePercentage:
		if req.PayCurrencyId == req.TransactionCurrencyId {
			// Same-currency shortcut: the amount never passes through
			// USD. The USD value is still needed for settlement in a
			// different currency, so it is computed best-effort like
			// the fixed branch.
			result.Amount = req.TransactionValue.Mul(amount).Div(decimal.NewFromInt(100))

			payRate, payErr := c.getRate(ctx, req.PayCurrencyId, session)
			if payErr != nil {
				result.Degraded = true
			} else {
				result.UsdValue = utils.RoundUsd(result.Amount.Mul(payRate.Value))
			}
			break
		}

		// Route the fee value through USD so percentage fees stay
		// comparable across arbitrary currency pairs.
		txRate, txErr := c.getRate(ctx, req.TransactionCurrencyId, session)
		payRate, payErr := c.getRate(ctx, req.PayCurrencyId, session)
		if txErr != nil || payErr != nil {
			log.Warnf("Contract %s fee conversion failed, keeping unconverted percentage value",
				req.ContractId)
			result.Amount = req.TransactionValue.Mul(amount).Div(decimal.NewFromInt(100))
			result.Degraded = true
			break
		}

		usd := req.TransactionValue.Mul(txRate.Value).Mul(amount).Div(decimal.NewFromInt(100))
		result.UsdValue = utils.RoundUsd(usd)
		result.Amount = usd.Div(payRate.Value)

	case types.ContractFeeCurrencyEquivalent:
		// The configured amount is a USD face value.
		result.UsdValue = amount

		payRate, payErr := c.getRate(ctx, req.PayCurrencyId, session)
		if payErr != nil {
			log.Warnf("Contract %s fee conversion failed, keeping USD face value", req.ContractId)
			result.Amount = amount
			result.Degraded = true
			break
		}

		result.Amount = amount.Div(payRate.Value)
	}

	return result, nil
}

func (c *Calculator) fetchFeeConfig(ctx context.Context, contractId string) (*types.ContractFeeConfig, error) {
	if override, ok := c.cfg.ContractFees[contractId]; ok {
		feeCfg := &types.ContractFeeConfig{
			FeeType:       parseContractFeeType(override.FeeType),
			FeeAmount:     override.FeeAmount,
			AllowedFeeIds: override.AllowedFeeIds,
		}
		if len(feeCfg.AllowedFeeIds) == 0 {
			return nil, fmt.Errorf("contract %s fee override has an empty allowed fee list", contractId)
		}

		return feeCfg, nil
	}

	if c.feeConfigs == nil {
		return nil, fmt.Errorf("no fee config source for contract %s", contractId)
	}

	return c.feeConfigs.FetchFeeConfig(ctx, contractId)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}

	return false
}
