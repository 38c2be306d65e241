package series

import (
	"errors"
	"math"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAlignNoData(t *testing.T) {
	if _, err := Align(nil); !errors.Is(err, ErrNoData) {
		t.Fatalf("空输入应返回 ErrNoData, 实际 %v", err)
	}

	empty := []Series{{Name: "A"}, {Name: "B"}}
	if _, err := Align(empty); !errors.Is(err, ErrNoData) {
		t.Fatalf("全空序列应返回 ErrNoData, 实际 %v", err)
	}
}

func TestAlignDailyIndex(t *testing.T) {
	input := []Series{
		{Name: "A", Points: []Point{
			{Date: day(2024, 1, 1), Value: 1},
			{Date: day(2024, 1, 11), Value: 11},
		}},
		{Name: "B", Points: []Point{
			{Date: day(2024, 1, 5), Value: 100},
			{Date: day(2024, 1, 15), Value: 200},
		}},
	}

	frame, err := Align(input)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}

	if frame.Len() != 15 {
		t.Fatalf("期望 15 天, 实际 %d", frame.Len())
	}

	dates := frame.Dates()
	for i := 1; i < len(dates); i++ {
		if dates[i].Sub(dates[i-1]) != 24*time.Hour {
			t.Fatalf("日期索引存在缺口: %s -> %s", dates[i-1], dates[i])
		}
		if !dates[i].After(dates[i-1]) {
			t.Fatal("日期索引必须严格递增")
		}
	}
}

func TestAlignLinearInterpolation(t *testing.T) {
	input := []Series{
		{Name: "A", Points: []Point{
			{Date: day(2024, 1, 1), Value: 10},
			{Date: day(2024, 1, 11), Value: 20},
		}},
	}

	frame, err := Align(input)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}

	// Midpoint of a 10-day gap.
	cell := frame.At("A", 5)
	if !cell.Valid {
		t.Fatal("插值结果应为有效值")
	}
	if math.Abs(cell.Value-15) > 1e-9 {
		t.Fatalf("期望线性插值 15, 实际 %f", cell.Value)
	}
}

func TestAlignNoExtrapolation(t *testing.T) {
	input := []Series{
		{Name: "A", Points: []Point{
			{Date: day(2024, 1, 1), Value: 1},
			{Date: day(2024, 1, 31), Value: 31},
		}},
		{Name: "B", Points: []Point{
			{Date: day(2024, 1, 10), Value: 5},
			{Date: day(2024, 1, 20), Value: 6},
		}},
	}

	frame, err := Align(input)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}

	if frame.At("B", 0).Valid {
		t.Fatal("B 在首个观测日前不应外推")
	}
	if frame.At("B", frame.Len()-1).Valid {
		t.Fatal("B 在末个观测日后不应外推")
	}
	if !frame.At("B", 9).Valid || !frame.At("B", 19).Valid {
		t.Fatal("B 在观测区间内应有值")
	}
}

func TestAlignSinglePoint(t *testing.T) {
	input := []Series{
		{Name: "A", Points: []Point{
			{Date: day(2024, 1, 1), Value: 1},
			{Date: day(2024, 1, 5), Value: 5},
		}},
		{Name: "B", Points: []Point{
			{Date: day(2024, 1, 3), Value: 42},
		}},
	}

	frame, err := Align(input)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}

	if got := frame.At("B", 2); !got.Valid || got.Value != 42 {
		t.Fatalf("单点序列应落在其观测日, 实际 %+v", got)
	}
	if frame.At("B", 1).Valid || frame.At("B", 3).Valid {
		t.Fatal("单点序列不应被插值扩散")
	}
}

func TestAlignColumnOrderStable(t *testing.T) {
	input := []Series{
		{Name: "Z", Points: []Point{{Date: day(2024, 1, 1), Value: 1}, {Date: day(2024, 1, 2), Value: 2}}},
		{Name: "A", Points: []Point{{Date: day(2024, 1, 1), Value: 1}, {Date: day(2024, 1, 2), Value: 2}}},
	}

	frame, err := Align(input)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}

	cols := frame.Columns()
	if len(cols) != 2 || cols[0] != "Z" || cols[1] != "A" {
		t.Fatalf("列顺序应保持输入顺序, 实际 %v", cols)
	}
}

func TestLastRowSkipsAbsent(t *testing.T) {
	input := []Series{
		{Name: "A", Points: []Point{
			{Date: day(2024, 1, 1), Value: 1},
			{Date: day(2024, 1, 10), Value: 10},
		}},
		{Name: "B", Points: []Point{
			{Date: day(2024, 1, 1), Value: 7},
			{Date: day(2024, 1, 5), Value: 8},
		}},
	}

	frame, err := Align(input)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}

	row := frame.LastRow()
	if _, ok := row["B"]; ok {
		t.Fatal("末行缺失的列不应出现在快照中")
	}
	if v, ok := row["A"]; !ok || v != 10 {
		t.Fatalf("末行 A 应为 10, 实际 %v", row)
	}
}
