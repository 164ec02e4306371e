package health

// Status is the qualitative band a numeric score falls into.
type Status string

const (
	StatusGood     Status = "good"
	StatusFair     Status = "fair"
	StatusPoor     Status = "poor"
	StatusCritical Status = "critical"
)

// Score is the derived health value for one report.
type Score struct {
	Value  int    `json:"score"`
	Status Status `json:"status"`
}

const (
	criticalPenalty = 15
	warningPenalty  = 5
)

// ComputeScore derives the bounded health score from alert counts.
// score = max(0, 100 - 15*critical - 5*warning); only counts matter.
func ComputeScore(counts AlertCounts) Score {
	value := 100 - criticalPenalty*counts.Critical - warningPenalty*counts.Warning
	if value < 0 {
		value = 0
	}
	return Score{Value: value, Status: bandFor(value)}
}

func bandFor(value int) Status {
	switch {
	case value >= 80:
		return StatusGood
	case value >= 60:
		return StatusFair
	case value >= 40:
		return StatusPoor
	default:
		return StatusCritical
	}
}
