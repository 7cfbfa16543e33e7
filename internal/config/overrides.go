package config

// Overrides carries command line values that take precedence over the file and
// environment. Nil fields are left untouched.
type Overrides struct {
	Category   *string
	MinEdge    *float64
	Stake      *float64
	MaxMarkets *int
	Mode       *string
	Verbose    bool
}

// Apply writes every non-nil override into cfg. A comma separated category
// switches the scan to multi-category mode.
func (o Overrides) Apply(cfg *Config) {
	if o.Category != nil {
		cats := splitList(*o.Category)
		switch len(cats) {
		case 0:
			cfg.Scan.Category = ""
			cfg.Scan.Categories = nil
		case 1:
			cfg.Scan.Category = cats[0]
			cfg.Scan.Categories = nil
		default:
			cfg.Scan.Category = cats[0]
			cfg.Scan.Categories = cats
		}
	}
	if o.MinEdge != nil {
		cfg.Scan.MinEdge = *o.MinEdge
	}
	if o.Stake != nil {
		cfg.Scan.Stake = *o.Stake
	}
	if o.MaxMarkets != nil {
		cfg.Scan.MaxMarkets = *o.MaxMarkets
	}
	if o.Mode != nil {
		cfg.Mode = *o.Mode
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}
}
