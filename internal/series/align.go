package series

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/interp"
)

// ErrNoData indicates that no series survived sourcing, so no frame can be built.
var ErrNoData = errors.New("series: no data to align")

// Align reindexes the given sparse series onto one shared daily calendar
// covering the union of their date ranges. Gaps between observations are
// filled by linear interpolation; dates before the first or after the last
// observation of a series stay absent (no extrapolation).
func Align(input []Series) (*Frame, error) {
	cleaned := make([]Series, 0, len(input))
	var min, max time.Time

	for _, s := range input {
		s.Sort()
		pts := dedupeDaily(s.Points)
		if len(pts) == 0 {
			continue
		}
		if min.IsZero() || pts[0].Date.Before(min) {
			min = pts[0].Date
		}
		last := pts[len(pts)-1].Date
		if max.IsZero() || last.After(max) {
			max = last
		}
		cleaned = append(cleaned, Series{Name: s.Name, Points: pts})
	}

	if len(cleaned) == 0 {
		return nil, ErrNoData
	}

	frame := NewFrame(min, max)
	for _, s := range cleaned {
		cells, err := resampleDaily(frame, s)
		if err != nil {
			return nil, err
		}
		if err := frame.AddColumn(s.Name, cells); err != nil {
			return nil, err
		}
	}

	return frame, nil
}

// resampleDaily projects one sparse series onto the frame's daily index.
func resampleDaily(frame *Frame, s Series) ([]Cell, error) {
	origin := frame.Dates()[0]

	xs := make([]float64, len(s.Points))
	ys := make([]float64, len(s.Points))
	for i, p := range s.Points {
		xs[i] = dayOffset(origin, p.Date)
		ys[i] = p.Value
	}

	cells := make([]Cell, frame.Len())
	if len(s.Points) == 1 {
		// A single observation cannot anchor interpolation; it stands alone.
		idx := int(xs[0])
		cells[idx] = Some(ys[0])
		return cells, nil
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("series: fit %q: %w", s.Name, err)
	}

	first, last := xs[0], xs[len(xs)-1]
	for i := range cells {
		x := float64(i)
		if x < first || x > last {
			continue
		}
		cells[i] = Some(pl.Predict(x))
	}
	return cells, nil
}

// dedupeDaily truncates observation timestamps to their UTC day and keeps the
// last value seen for each day. Input must be sorted ascending.
func dedupeDaily(points []Point) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		day := midnightUTC(p.Date)
		if n := len(out); n > 0 && out[n-1].Date.Equal(day) {
			out[n-1].Value = p.Value
			continue
		}
		out = append(out, Point{Date: day, Value: p.Value})
	}
	return out
}

func dayOffset(origin, t time.Time) float64 {
	return midnightUTC(t).Sub(origin).Hours() / 24
}
