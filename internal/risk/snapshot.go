package risk

import (
	"time"

	"recession-meter/internal/series"
)

// Snapshot is the compact hand-off for the explanation generator: the latest
// score plus the latest present value of every frame column.
type Snapshot struct {
	Date       time.Time
	Score      float64
	Indicators map[string]float64
}

// Extract reads the last row of the frame and the last score. It performs no
// computation and has no side effects.
func Extract(frame *series.Frame, res *Result) Snapshot {
	last := len(res.Scores) - 1
	return Snapshot{
		Date:       res.Dates[last],
		Score:      res.Scores[last],
		Indicators: frame.LastRow(),
	}
}
