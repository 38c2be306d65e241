// Package risk turns an aligned indicator frame into a daily 0-100 recession
// risk series, detects days of sharp escalation, and extracts the latest
// snapshot handed to the explanation generator.
package risk

import (
	"errors"
	"time"

	"recession-meter/internal/series"
)

// ErrInsufficientHistory indicates the frame holds fewer than two dates, so
// no day-over-day change (and hence no score) can be computed.
var ErrInsufficientHistory = errors.New("risk: frame has fewer than 2 dates")

// Indicator couples one frame column with its scoring parameters.
type Indicator struct {
	Name string
	// Weight is the indicator's relative importance (positive).
	Weight float64
	// RiskRising is true when a rising value means more recession risk.
	RiskRising bool
}

// Config is the immutable scoring configuration for one dataset. Indicator
// order is significant: event attribution ties resolve to the first entry.
type Config struct {
	Indicators []Indicator
	// SpreadName designates the yield-curve spread column that triggers the
	// inversion bonus while negative. Empty disables the bonus.
	SpreadName string
	// ClipLimit caps a single indicator's single-day signed change.
	ClipLimit float64
	// InversionFactor scales the spread weight into the fixed inversion bonus.
	InversionFactor float64
	// EventThreshold is the day-over-day score rise that flags an event.
	EventThreshold float64
}

// DefaultClipLimit bounds any one indicator's daily influence to +/-20%.
const DefaultClipLimit = 0.2

// DefaultInversionFactor sets the inversion bonus to half the spread weight.
const DefaultInversionFactor = 0.5

// DefaultEventThreshold flags day-over-day score rises above 5 points.
const DefaultEventThreshold = 5.0

// Contribution records one indicator's pre-clip, pre-weight signed change at
// one date, kept for event attribution.
type Contribution struct {
	Name         string
	SignedChange float64
}

// Result is the scored series plus the per-date contributions behind it.
type Result struct {
	Dates  []time.Time
	Scores []float64
	// contributions[i] holds the scoring indicators in config order for date i.
	contributions [][]Contribution
}

// Scorer computes composite risk scores from an aligned frame.
type Scorer struct {
	cfg Config
}

// NewScorer validates and captures the configuration.
func NewScorer(cfg Config) *Scorer {
	if cfg.ClipLimit <= 0 {
		cfg.ClipLimit = DefaultClipLimit
	}
	if cfg.InversionFactor <= 0 {
		cfg.InversionFactor = DefaultInversionFactor
	}
	if cfg.EventThreshold <= 0 {
		cfg.EventThreshold = DefaultEventThreshold
	}
	return &Scorer{cfg: cfg}
}

// Score produces one risk value per frame date. Each date depends only on its
// own and the immediately preceding date's indicator values; the first date
// is scored with zero change for every indicator.
func (s *Scorer) Score(frame *series.Frame) (*Result, error) {
	n := frame.Len()
	if n < 2 {
		return nil, ErrInsufficientHistory
	}

	res := &Result{
		Dates:         frame.Dates(),
		Scores:        make([]float64, n),
		contributions: make([][]Contribution, n),
	}

	for i := 0; i < n; i++ {
		res.Scores[i], res.contributions[i] = s.scoreDate(frame, i)
	}
	return res, nil
}

// scoreDate evaluates a single date against its predecessor.
func (s *Scorer) scoreDate(frame *series.Frame, i int) (float64, []Contribution) {
	contribs := make([]Contribution, 0, len(s.cfg.Indicators))
	score := 0.0

	for _, ind := range s.cfg.Indicators {
		if !frame.HasColumn(ind.Name) {
			continue
		}
		change := dayChange(frame, ind.Name, i)
		if !ind.RiskRising {
			change = -change
		}
		contribs = append(contribs, Contribution{Name: ind.Name, SignedChange: change})
		score += clip(change, s.cfg.ClipLimit) * ind.Weight
	}

	if s.cfg.SpreadName != "" {
		if cell := frame.At(s.cfg.SpreadName, i); cell.Valid && cell.Value < 0 {
			score += s.spreadWeight() * s.cfg.InversionFactor
		}
	}

	return clamp(score, 0, 100), contribs
}

// dayChange returns the percent change of a column versus the prior date.
// The first date, an absent cell on either side, and a zero prior value all
// yield zero change.
func dayChange(frame *series.Frame, name string, i int) float64 {
	if i == 0 {
		return 0
	}
	cur := frame.At(name, i)
	prev := frame.At(name, i-1)
	if !cur.Valid || !prev.Valid || prev.Value == 0 {
		return 0
	}
	return (cur.Value - prev.Value) / prev.Value
}

func (s *Scorer) spreadWeight() float64 {
	for _, ind := range s.cfg.Indicators {
		if ind.Name == s.cfg.SpreadName {
			return ind.Weight
		}
	}
	return 0
}

func clip(v, limit float64) float64 {
	return clamp(v, -limit, limit)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
