package region

// DefaultDefinitions returns the built-in region set used when no
// regions.yaml is present. Cost figures are per-extraction estimates for
// each provider tier; cooldowns match the providers' observed rate-limit
// windows.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Name:              "us-central",
			RegionCode:        "us-central1",
			BaseURL:           "https://extract-us-central.agentforge.dev",
			IPRanges:          []string{"34.66.0.0/16", "35.192.0.0/14"},
			CostTier:          1,
			CostPerExtraction: 0.0015,
			MaxConcurrent:     10,
			CooldownMinutes:   30,
			EnhancedService:   true,
		},
		{
			Name:              "europe-west",
			RegionCode:        "europe-west1",
			BaseURL:           "https://extract-eu-west.agentforge.dev",
			IPRanges:          []string{"34.76.0.0/16", "35.187.0.0/17"},
			CostTier:          2,
			CostPerExtraction: 0.0018,
			MaxConcurrent:     8,
			CooldownMinutes:   30,
			EnhancedService:   true,
		},
		{
			Name:              "asia-southeast",
			RegionCode:        "asia-southeast1",
			BaseURL:           "https://extract-asia-se.agentforge.dev",
			IPRanges:          []string{"34.87.0.0/16"},
			CostTier:          3,
			CostPerExtraction: 0.0020,
			MaxConcurrent:     6,
			CooldownMinutes:   30,
			EnhancedService:   false,
		},
	}
}
