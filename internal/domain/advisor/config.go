package advisor

// Config tunes the purchasing recommendation math.
type Config struct {
	// SafetyBuffer scales the recommended purchase above the bare
	// shortage to absorb yield loss and spillage.
	SafetyBuffer float64

	// HighPriorityRatio is the shortage-to-need ratio above which a
	// recommendation is flagged high priority.
	HighPriorityRatio float64

	// UrgentDays and StandardDays set the suggested ordering horizon.
	UrgentDays   int
	StandardDays int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		SafetyBuffer:      1.2,
		HighPriorityRatio: 0.5,
		UrgentDays:        1,
		StandardDays:      3,
	}
}
