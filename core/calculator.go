package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sisu-network/lib/log"

	"github.com/sisu-network/dfees/config"
	"github.com/sisu-network/dfees/core/rates"
	"github.com/sisu-network/dfees/schedule"
	"github.com/sisu-network/dfees/token"
	"github.com/sisu-network/dfees/txn"
	"github.com/sisu-network/dfees/types"
	"github.com/sisu-network/dfees/utils"
)

// Calculator assembles network, contract and interface fees into one
// breakdown. All collaborators are injected; two calculators with different
// configs can run side by side.
type Calculator struct {
	cfg        config.Dfees
	schedule   *schedule.Schedule
	rates      *rates.Cache
	denoms     *token.Resolver
	codec      txn.Codec
	feeConfigs FeeConfigFetcher

	feeTolerance decimal.Decimal
}

func NewCalculator(cfg config.Dfees, sched *schedule.Schedule, ratesCache *rates.Cache,
	denoms *token.Resolver, codec txn.Codec, feeConfigs FeeConfigFetcher) (*Calculator, error) {

	cfg.ApplyDefaults()

	tolerance, err := utils.ParseDecimal(cfg.FeeTolerance)
	if err != nil {
		return nil, fmt.Errorf("fee tolerance: %w", err)
	}

	return &Calculator{
		cfg:          cfg,
		schedule:     sched,
		rates:        ratesCache,
		denoms:       denoms,
		codec:        codec,
		feeConfigs:   feeConfigs,
		feeTolerance: tolerance,
	}, nil
}

// FeeRequest is one fee calculation. ContractFeeCurrencyId, when set,
// requests the contract fee and names the currency it is paid in.
type FeeRequest struct {
	Record               *types.TxRecord
	SettlementCurrencyId string

	ContractFeeCurrencyId string
	InterfaceFee          *InterfaceFeeSpec
}

// calcSession accumulates per-call observability: which rate sources served
// each currency.
type calcSession struct {
	sources map[string]string
}

func (c *Calculator) getRate(ctx context.Context, currencyId string, session *calcSession) (types.Rate, error) {
	rate, err := c.rates.GetRate(ctx, currencyId)
	if err == nil && session != nil {
		session.sources[currencyId] = rate.Source.String()
	}

	return rate, err
}

// CalculateFee classifies the record, resolves every fee component and
// returns the breakdown in the settlement currency's smallest unit.
//
// Sequencing matters: the contract fee is computed before the network fee
// because its fields are embedded in the wire form and change the size the
// per-byte fee is charged on. The caller's record is never mutated; fee
// fields are written to a working copy.
func (c *Calculator) CalculateFee(ctx context.Context, req *FeeRequest) (*types.FeeBreakdown, error) {
	if req == nil || req.Record == nil {
		return nil, fmt.Errorf("fee request has no transaction record")
	}
	if req.SettlementCurrencyId == "" {
		return nil, fmt.Errorf("fee request has no settlement currency")
	}

	cls, err := txn.Classify(req.Record)
	if err != nil {
		return nil, err
	}

	working := req.Record.Clone()
	session := &calcSession{sources: make(map[string]string)}

	c.prefetchRates(ctx, req, working)

	// Contract fee first: its value is embedded in the working copy.
	var contractFee *ContractFeeResult
	if req.ContractFeeCurrencyId != "" {
		contractFee, err = c.contractFeeForRecord(ctx, req, working, cls, session)
		if err != nil {
			return nil, err
		}
	}

	interfaceFee, err := c.resolveInterfaceFee(ctx, req.InterfaceFee, req.SettlementCurrencyId, session)
	if err != nil {
		return nil, err
	}

	settlementRate, err := c.getRate(ctx, req.SettlementCurrencyId, session)
	if err != nil {
		return nil, err
	}

	tokens := schedule.ResolveFeeTypes(cls)
	totals, err := c.schedule.Sum(tokens)
	if err != nil {
		return nil, err
	}

	network, err := c.solveNetworkFee(working, cls, totals, settlementRate, req.SettlementCurrencyId)
	if err != nil {
		return nil, err
	}

	return c.assemble(req, cls, session, contractFee, interfaceFee, network, settlementRate)
}

// prefetchRates warms the cache for every distinct currency this call will
// need, in parallel, so assembly makes at most one network round trip per
// currency. Errors are ignored here and surface where the rate is actually
// used.
func (c *Calculator) prefetchRates(ctx context.Context, req *FeeRequest, working *types.TxRecord) {
	ids := map[string]bool{req.SettlementCurrencyId: true}

	if req.ContractFeeCurrencyId != "" {
		ids[req.ContractFeeCurrencyId] = true
		if working.Transfer != nil {
			ids[working.Transfer.ContractId] = true
		}
	}
	if req.InterfaceFee != nil && req.InterfaceFee.FeeCurrencyId != "" {
		ids[req.InterfaceFee.FeeCurrencyId] = true
	}

	wg := &sync.WaitGroup{}
	for id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()

			if _, err := c.rates.GetRate(ctx, id); err != nil {
				log.Debug("Rate prefetch for ", id, " failed: ", err)
			}
		}(id)
	}
	wg.Wait()
}

func (c *Calculator) contractFeeForRecord(ctx context.Context, req *FeeRequest,
	working *types.TxRecord, cls *types.Classification, session *calcSession) (*ContractFeeResult, error) {

	if cls.Kind != types.TxTransfer {
		return nil, fmt.Errorf("contract fees apply to value transfers, not %s transactions", cls.Kind)
	}

	value, err := utils.ParseDecimal(working.Transfer.Amount)
	if err != nil {
		return nil, fmt.Errorf("transfer amount: %w", err)
	}

	result, err := c.resolveContractFee(ctx, &ContractFeeRequest{
		ContractId:            working.Transfer.ContractId,
		TransactionValue:      value,
		TransactionCurrencyId: working.Transfer.ContractId,
		PayCurrencyId:         req.ContractFeeCurrencyId,
	}, session)
	if err != nil {
		return nil, err
	}

	if result.Amount.IsPositive() {
		payDecimals, err := c.denoms.Decimals(req.ContractFeeCurrencyId)
		if err != nil {
			return nil, err
		}

		result.Amount = result.Amount.Round(payDecimals)
		// Embedded so the size estimate sees the final wire form.
		working.Transfer.ContractFee = result.Amount.String()
	}

	return result, nil
}

// networkFee is the solved per-call network fee.
type networkFee struct {
	units      decimal.Decimal // settlement currency whole units
	usd        decimal.Decimal
	perByteUsd decimal.Decimal
	sizeBytes  int
	converged  bool
	iterations int
}

// solveNetworkFee computes fixed + perByte * size in USD and converts to the
// settlement currency. For transfers the stringified fee value is part of the
// serialized record, so fee and size are solved as a bounded fixed point:
// embed the candidate fee, re-measure, recompute, until both the byte delta
// and the fee delta are within tolerance. Hitting the iteration bound returns
// the last values flagged as non-converged instead of failing.
func (c *Calculator) solveNetworkFee(working *types.TxRecord, cls *types.Classification,
	totals schedule.Totals, settlementRate types.Rate, settlementCurrencyId string) (*networkFee, error) {

	settlementDecimals, err := c.denoms.Decimals(settlementCurrencyId)
	if err != nil {
		return nil, err
	}

	feeInSize := cls.Kind == types.TxTransfer

	feeUnits := decimal.Zero
	prevFee := decimal.Zero
	prevSize := 0

	result := &networkFee{}

	for i := 0; i < c.cfg.MaxIterations; i++ {
		result.iterations = i + 1

		if feeInSize {
			working.Transfer.Fee = feeUnits.String()
			working.Transfer.FeeId = settlementCurrencyId
		}

		size, err := txn.EstimateSize(working, cls, c.codec)
		if err != nil {
			return nil, err
		}

		usd := utils.RoundUsd(totals.FixedUsd.Add(totals.PerByteUsd.Mul(decimal.NewFromInt(int64(size)))))
		feeUnits = usd.Div(settlementRate.Value).Round(settlementDecimals)

		result.units = feeUnits
		result.usd = usd
		result.perByteUsd = utils.RoundUsd(totals.PerByteUsd.Mul(decimal.NewFromInt(int64(size))))
		result.sizeBytes = size

		if !feeInSize {
			result.converged = true
			break
		}

		sizeDelta := size - prevSize
		if sizeDelta < 0 {
			sizeDelta = -sizeDelta
		}

		if i > 0 && sizeDelta <= c.cfg.SizeToleranceBytes &&
			feeUnits.Sub(prevFee).Abs().LessThanOrEqual(c.feeTolerance) {
			result.converged = true
			break
		}

		prevFee = feeUnits
		prevSize = size
	}

	if !result.converged && feeInSize {
		log.Warnf("Network fee did not converge within %d iterations, returning best effort",
			c.cfg.MaxIterations)
	}

	return result, nil
}

func (c *Calculator) assemble(req *FeeRequest, cls *types.Classification, session *calcSession,
	contractFee *ContractFeeResult, interfaceFee *interfaceFeeResult, network *networkFee,
	settlementRate types.Rate) (*types.FeeBreakdown, error) {

	breakdown := &types.FeeBreakdown{
		FeeCurrencyId: req.SettlementCurrencyId,
		SizeBytes:     network.sizeBytes,
		Converged:     network.converged,
		Iterations:    network.iterations,
		Detail: types.BreakdownDetail{
			FixedUsd:    totalsFixed(network),
			PerByteUsd:  network.perByteUsd.String(),
			NetworkUsd:  network.usd.String(),
			RateSources: session.sources,
		},
	}

	networkUnits, err := c.denoms.ToSmallestUnits(network.units, req.SettlementCurrencyId)
	if err != nil {
		return nil, err
	}
	breakdown.NetworkFee = networkUnits

	total := network.units

	if contractFee != nil {
		settlementAmount := contractFee.Amount
		if contractFee.Currency != req.SettlementCurrencyId && contractFee.Amount.IsPositive() {
			settlementAmount = c.convertToSettlement(contractFee, settlementRate)
		}

		units, err := c.denoms.ToSmallestUnits(settlementAmount, req.SettlementCurrencyId)
		if err != nil {
			return nil, err
		}

		breakdown.ContractFee = units
		breakdown.Detail.ContractUsd = contractFee.UsdValue.String()
		breakdown.Detail.ContractFeeCurrency = contractFee.Currency
		breakdown.Detail.ContractFeeAmount = contractFee.Amount.String()
		breakdown.Detail.ContractFeeDegraded = contractFee.Degraded

		total = total.Add(settlementAmount)
	}

	if interfaceFee != nil {
		units, err := c.denoms.ToSmallestUnits(interfaceFee.Amount, req.SettlementCurrencyId)
		if err != nil {
			return nil, err
		}

		breakdown.InterfaceFee = units
		breakdown.Detail.InterfaceUsd = interfaceFee.UsdValue.String()

		total = total.Add(interfaceFee.Amount)
	}

	totalUnits, err := c.denoms.ToSmallestUnits(total, req.SettlementCurrencyId)
	if err != nil {
		return nil, err
	}
	breakdown.TotalFee = totalUnits

	return breakdown, nil
}

// convertToSettlement re-denominates a contract fee paid in another currency
// into settlement units through its USD value. When the USD value is unknown
// (degraded resolution) the raw amount is kept and the degraded flag already
// marks the result.
func (c *Calculator) convertToSettlement(contractFee *ContractFeeResult, settlementRate types.Rate) decimal.Decimal {
	if contractFee.UsdValue.IsZero() {
		return contractFee.Amount
	}

	return contractFee.UsdValue.Div(settlementRate.Value)
}

func totalsFixed(network *networkFee) string {
	return network.usd.Sub(network.perByteUsd).String()
}
