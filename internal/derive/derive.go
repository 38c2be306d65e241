// Package derive appends indicator columns computed from other columns of an
// aligned frame. A derived column is only added when every prerequisite
// column is present; otherwise the frame is left untouched.
package derive

import (
	"recession-meter/internal/series"
)

// annualLookbackDays is the lookback used for year-over-year rates.
const annualLookbackDays = 365

// AppendAnnualRate appends the year-over-year percent change of the src
// column as out: (v[t] / v[t-365d] - 1) * 100. The first 365 days of the
// frame, and any date where either operand is absent, stay absent.
// Reports whether the column was added.
func AppendAnnualRate(frame *series.Frame, src, out string) (bool, error) {
	base, ok := frame.Column(src)
	if !ok {
		return false, nil
	}

	cells := make([]series.Cell, frame.Len())
	for i := annualLookbackDays; i < len(cells); i++ {
		cur := base[i]
		prev := base[i-annualLookbackDays]
		if !cur.Valid || !prev.Valid || prev.Value == 0 {
			continue
		}
		cells[i] = series.Some((cur.Value/prev.Value - 1) * 100)
	}

	if err := frame.AddColumn(out, cells); err != nil {
		return false, err
	}
	return true, nil
}

// AppendSpread appends the elementwise difference long - short as out.
// Dates where either operand is absent stay absent. Reports whether the
// column was added.
func AppendSpread(frame *series.Frame, long, short, out string) (bool, error) {
	longCol, ok := frame.Column(long)
	if !ok {
		return false, nil
	}
	shortCol, ok := frame.Column(short)
	if !ok {
		return false, nil
	}

	cells := make([]series.Cell, frame.Len())
	for i := range cells {
		l, s := longCol[i], shortCol[i]
		if !l.Valid || !s.Valid {
			continue
		}
		cells[i] = series.Some(l.Value - s.Value)
	}

	if err := frame.AddColumn(out, cells); err != nil {
		return false, err
	}
	return true, nil
}
