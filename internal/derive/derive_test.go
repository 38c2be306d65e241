package derive

import (
	"math"
	"testing"
	"time"

	"recession-meter/internal/series"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func constantColumn(n int, v float64) []series.Cell {
	cells := make([]series.Cell, n)
	for i := range cells {
		cells[i] = series.Some(v)
	}
	return cells
}

func TestAppendAnnualRate(t *testing.T) {
	from := day(2022, 1, 1)
	frame := series.NewFrame(from, from.AddDate(0, 0, 400))

	cells := make([]series.Cell, frame.Len())
	for i := range cells {
		cells[i] = series.Some(100 + float64(i))
	}
	if err := frame.AddColumn("CPI", cells); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}

	added, err := AppendAnnualRate(frame, "CPI", "Annual Inflation (%)")
	if err != nil {
		t.Fatalf("AppendAnnualRate: %v", err)
	}
	if !added {
		t.Fatal("CPI 存在时应追加年率列")
	}

	col, ok := frame.Column("Annual Inflation (%)")
	if !ok {
		t.Fatal("年率列缺失")
	}

	// 回看期内不应有值
	for i := 0; i < 365; i++ {
		if col[i].Valid {
			t.Fatalf("第 %d 天处于回看期, 不应有值", i)
		}
	}

	// (465/100 - 1) * 100 at index 365
	want := (cells[365].Value/cells[0].Value - 1) * 100
	if got := col[365]; !got.Valid || math.Abs(got.Value-want) > 1e-9 {
		t.Fatalf("期望年率 %f, 实际 %+v", want, got)
	}
}

func TestAppendAnnualRateMissingColumn(t *testing.T) {
	frame := series.NewFrame(day(2024, 1, 1), day(2024, 1, 10))

	added, err := AppendAnnualRate(frame, "CPI", "Annual Inflation (%)")
	if err != nil {
		t.Fatalf("AppendAnnualRate: %v", err)
	}
	if added {
		t.Fatal("前置列缺失时不应追加")
	}
	if frame.HasColumn("Annual Inflation (%)") {
		t.Fatal("年率列不应存在")
	}
}

func TestAppendSpread(t *testing.T) {
	frame := series.NewFrame(day(2024, 1, 1), day(2024, 1, 5))

	long := constantColumn(frame.Len(), 4.5)
	short := constantColumn(frame.Len(), 5.0)
	short[2] = series.None

	if err := frame.AddColumn("10-Year Rate", long); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	if err := frame.AddColumn("3-Month Rate", short); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}

	added, err := AppendSpread(frame, "10-Year Rate", "3-Month Rate", "Yield Curve (10y-3m)")
	if err != nil {
		t.Fatalf("AppendSpread: %v", err)
	}
	if !added {
		t.Fatal("两条利率列齐备时应追加利差列")
	}

	if got := frame.At("Yield Curve (10y-3m)", 0); !got.Valid || math.Abs(got.Value-(-0.5)) > 1e-9 {
		t.Fatalf("期望利差 -0.5, 实际 %+v", got)
	}
	if frame.At("Yield Curve (10y-3m)", 2).Valid {
		t.Fatal("任一操作数缺失时利差应缺失")
	}
}

func TestAppendSpreadMissingPrerequisite(t *testing.T) {
	frame := series.NewFrame(day(2024, 1, 1), day(2024, 1, 5))
	if err := frame.AddColumn("10-Year Rate", constantColumn(frame.Len(), 4.5)); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}

	added, err := AppendSpread(frame, "10-Year Rate", "3-Month Rate", "Yield Curve (10y-3m)")
	if err != nil {
		t.Fatalf("AppendSpread: %v", err)
	}
	if added {
		t.Fatal("缺少短端利率时不应追加")
	}
}
