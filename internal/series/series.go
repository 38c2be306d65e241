package series

import (
	"fmt"
	"sort"
	"time"
)

// Point is a single dated observation.
type Point struct {
	Date  time.Time
	Value float64
}

// Series holds the sparse, irregularly-dated observations of one indicator
// as sourced externally. Points are kept in ascending date order.
type Series struct {
	Name   string
	Points []Point
}

// Sort orders the points ascending by date.
func (s *Series) Sort() {
	sort.Slice(s.Points, func(i, j int) bool {
		return s.Points[i].Date.Before(s.Points[j].Date)
	})
}

// Cell is one frame entry: either a present numeric value or explicitly absent.
type Cell struct {
	Value float64
	Valid bool
}

// Some wraps a present value.
func Some(v float64) Cell {
	return Cell{Value: v, Valid: true}
}

// None is the absent cell.
var None = Cell{}

// Frame is the daily-resampled table joining all indicator columns over one
// gap-free ascending date range. Columns preserve insertion order.
type Frame struct {
	dates   []time.Time
	order   []string
	columns map[string][]Cell
}

// NewFrame builds an empty frame over the inclusive [from, to] daily range.
func NewFrame(from, to time.Time) *Frame {
	from = midnightUTC(from)
	to = midnightUTC(to)

	days := int(to.Sub(from).Hours()/24) + 1
	dates := make([]time.Time, 0, days)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}

	return &Frame{
		dates:   dates,
		columns: make(map[string][]Cell),
	}
}

// Len returns the number of daily rows.
func (f *Frame) Len() int {
	return len(f.dates)
}

// Dates returns the ascending daily index.
func (f *Frame) Dates() []time.Time {
	return f.dates
}

// Columns lists column names in insertion order.
func (f *Frame) Columns() []string {
	return f.order
}

// HasColumn reports whether the named column exists.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.columns[name]
	return ok
}

// Column returns the cells of the named column.
func (f *Frame) Column(name string) ([]Cell, bool) {
	cells, ok := f.columns[name]
	return cells, ok
}

// At returns the cell for one column at row index i.
func (f *Frame) At(name string, i int) Cell {
	cells, ok := f.columns[name]
	if !ok || i < 0 || i >= len(cells) {
		return None
	}
	return cells[i]
}

// AddColumn appends a column; cells must cover every frame date.
func (f *Frame) AddColumn(name string, cells []Cell) error {
	if len(cells) != len(f.dates) {
		return fmt.Errorf("series: column %q has %d cells, frame has %d dates", name, len(cells), len(f.dates))
	}
	if _, exists := f.columns[name]; exists {
		return fmt.Errorf("series: column %q already present", name)
	}
	f.columns[name] = cells
	f.order = append(f.order, name)
	return nil
}

// LastRow returns the present values of the final row keyed by column name.
func (f *Frame) LastRow() map[string]float64 {
	if len(f.dates) == 0 {
		return nil
	}
	last := len(f.dates) - 1
	row := make(map[string]float64, len(f.order))
	for _, name := range f.order {
		if cell := f.columns[name][last]; cell.Valid {
			row[name] = cell.Value
		}
	}
	return row
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
