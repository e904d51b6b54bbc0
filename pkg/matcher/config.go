package matcher

// Config holds the scoring weights and the acceptance threshold.
// A zero weight disables that rule; negative weights fall back to the defaults.
type Config struct {
	TitleExactWeight         int
	TitleWordWeight          int
	VisionTitleWordWeight    int
	KeywordWeight            int
	SalientKeywordWeight     int
	FolderHintWeight         int
	ColorHintWeight          int
	VisionPriorityMultiplier int
	AcceptanceThreshold      int
	// VisionPriority boosts evidence found in the vision description over OCR text.
	VisionPriority bool
}

// DefaultConfig returns the weights the identify tool ships with.
func DefaultConfig() Config {
	return Config{
		TitleExactWeight:         20,
		TitleWordWeight:          5,
		VisionTitleWordWeight:    50,
		KeywordWeight:            2,
		SalientKeywordWeight:     15,
		FolderHintWeight:         30,
		ColorHintWeight:          15,
		VisionPriorityMultiplier: 5,
		AcceptanceThreshold:      15,
		VisionPriority:           true,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	fix := func(v *int, def int) {
		if *v < 0 {
			*v = def
		}
	}
	fix(&c.TitleExactWeight, d.TitleExactWeight)
	fix(&c.TitleWordWeight, d.TitleWordWeight)
	fix(&c.VisionTitleWordWeight, d.VisionTitleWordWeight)
	fix(&c.KeywordWeight, d.KeywordWeight)
	fix(&c.SalientKeywordWeight, d.SalientKeywordWeight)
	fix(&c.FolderHintWeight, d.FolderHintWeight)
	fix(&c.ColorHintWeight, d.ColorHintWeight)
	fix(&c.AcceptanceThreshold, d.AcceptanceThreshold)
	if c.VisionPriorityMultiplier < 1 {
		c.VisionPriorityMultiplier = d.VisionPriorityMultiplier
	}
	return c
}
