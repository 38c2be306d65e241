package risk

import "time"

// Event marks a date where the risk score rose sharply versus the prior
// date, attributed to the indicator that moved hardest.
type Event struct {
	Date  time.Time
	Score float64
	Delta float64
	// Dominant names the indicator with the largest absolute pre-clip signed
	// change at the event date.
	Dominant string
}

// DetectEvents scans the scored series for day-over-day rises above the
// configured threshold. Attribution ties resolve to the earliest indicator
// in config order.
func (s *Scorer) DetectEvents(res *Result) []Event {
	var events []Event
	for i := 1; i < len(res.Scores); i++ {
		delta := res.Scores[i] - res.Scores[i-1]
		if delta <= s.cfg.EventThreshold {
			continue
		}
		events = append(events, Event{
			Date:     res.Dates[i],
			Score:    res.Scores[i],
			Delta:    delta,
			Dominant: dominant(res.contributions[i]),
		})
	}
	return events
}

func dominant(contribs []Contribution) string {
	name := ""
	best := -1.0
	for _, c := range contribs {
		mag := c.SignedChange
		if mag < 0 {
			mag = -mag
		}
		if mag > best {
			best = mag
			name = c.Name
		}
	}
	return name
}
