package config

const DfeesConfigTemplate = `rate_url = "{{ .RateUrl }}"
contract_meta_url = "{{ .ContractMetaUrl }}"
rate_ttl_ms = {{ .RateTtlMs }}

max_iterations = {{ .MaxIterations }}
size_tolerance_bytes = {{ .SizeToleranceBytes }}
fee_tolerance = "{{ .FeeTolerance }}"

[rate_floors]{{ range $k, $v := .RateFloors }}
{{ $k }} = "{{ $v }}"{{ end }}

[fallback_rates]{{ range $k, $v := .FallbackRates }}
{{ $k }} = "{{ $v }}"{{ end }}

[token_decimals]{{ range $k, $v := .TokenDecimals }}
{{ $k }} = {{ $v }}{{ end }}

[fee_schedule]{{ range $k, $v := .FeeSchedule }}
	[fee_schedule.{{ $k }}]
	fixed = "{{ $v.Fixed }}"
	per_byte = "{{ $v.PerByte }}"
{{ end }}
`
