package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	// DefaultRateTtl keeps quotes tracking live markets. Single-digit
	// seconds on purpose.
	DefaultRateTtl = 5_000 // ms

	DefaultMaxIterations      = 10
	DefaultSizeToleranceBytes = 1
	DefaultFeeTolerance       = "0.000001"
)

// FeeEntry is one fee-schedule override. Values are USD decimal strings.
// Overrides merge over the built-in schedule, they do not replace it.
type FeeEntry struct {
	Fixed   string `toml:"fixed"`
	PerByte string `toml:"per_byte"`
}

// ContractFee is a per-contract fee policy override, consulted before the
// contract-metadata source.
type ContractFee struct {
	FeeType       string   `toml:"fee_type"` // none | fixed | percentage | cur_equivalent
	FeeAmount     string   `toml:"fee_amount"`
	AllowedFeeIds []string `toml:"allowed_fee_ids"`
}

type Dfees struct {
	// RateUrl serves GET <RateUrl>/<currencyId> -> {"rate": <number>}.
	RateUrl    string `toml:"rate_url"`
	RateApiKey string `toml:"rate_api_key"`

	// ContractMetaUrl is the json-rpc endpoint for contract fee configs.
	ContractMetaUrl string `toml:"contract_meta_url"`

	RateTtlMs int64 `toml:"rate_ttl_ms"`

	// RateFloors is the per-currency minimum USD rate. The floor applies to
	// live and fallback rates alike.
	RateFloors map[string]string `toml:"rate_floors"`

	// FallbackRates are used when a live fetch fails.
	FallbackRates map[string]string `toml:"fallback_rates"`

	// TokenDecimals overrides the built-in denomination table.
	TokenDecimals map[string]int `toml:"token_decimals"`

	FeeSchedule  map[string]FeeEntry    `toml:"fee_schedule"`
	ContractFees map[string]ContractFee `toml:"contract_fees"`

	// Convergence solver tuning. The defaults are working values, not
	// precision guarantees.
	MaxIterations      int    `toml:"max_iterations"`
	SizeToleranceBytes int    `toml:"size_tolerance_bytes"`
	FeeTolerance       string `toml:"fee_tolerance"`
}

// Load reads a toml config file and overlays secrets from the environment
// (optionally via a .env file).
func Load(path string) (Dfees, error) {
	// A missing .env is fine; env vars may come from the process.
	godotenv.Load()

	cfg := Dfees{}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if key := os.Getenv("DFEES_RATE_API_KEY"); key != "" {
		cfg.RateApiKey = key
	}

	cfg.ApplyDefaults()

	return cfg, nil
}

// ApplyDefaults fills the zero-valued tuning knobs.
func (c *Dfees) ApplyDefaults() {
	if c.RateTtlMs == 0 {
		c.RateTtlMs = DefaultRateTtl
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.SizeToleranceBytes == 0 {
		c.SizeToleranceBytes = DefaultSizeToleranceBytes
	}
	if c.FeeTolerance == "" {
		c.FeeTolerance = DefaultFeeTolerance
	}
}
