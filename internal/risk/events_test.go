package risk

import (
	"testing"
	"time"
)

func datesFrom(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func TestDetectEventsThreshold(t *testing.T) {
	scores := []float64{40, 41, 47, 46}
	res := &Result{
		Dates:  datesFrom(day(2024, 3, 1), len(scores)),
		Scores: scores,
		contributions: [][]Contribution{
			nil,
			{{Name: "X", SignedChange: 0.01}},
			{{Name: "X", SignedChange: 0.15}, {Name: "Y", SignedChange: -0.02}},
			{{Name: "X", SignedChange: -0.01}},
		},
	}

	scorer := NewScorer(Config{EventThreshold: 5})
	events := scorer.DetectEvents(res)

	if len(events) != 1 {
		t.Fatalf("期望 1 个事件, 实际 %d", len(events))
	}
	ev := events[0]
	if !ev.Date.Equal(day(2024, 3, 3)) {
		t.Fatalf("事件日期错误: %s", ev.Date)
	}
	if ev.Delta != 6 {
		t.Fatalf("期望跳变 +6, 实际 %f", ev.Delta)
	}
	if ev.Score != 47 {
		t.Fatalf("期望分数 47, 实际 %f", ev.Score)
	}
	if ev.Dominant != "X" {
		t.Fatalf("主导指标应为 X, 实际 %s", ev.Dominant)
	}
}

func TestDetectEventsExactThresholdExcluded(t *testing.T) {
	scores := []float64{40, 45}
	res := &Result{
		Dates:         datesFrom(day(2024, 3, 1), len(scores)),
		Scores:        scores,
		contributions: [][]Contribution{nil, nil},
	}

	scorer := NewScorer(Config{EventThreshold: 5})
	if events := scorer.DetectEvents(res); len(events) != 0 {
		t.Fatalf("恰好等于阈值不应触发事件, 实际 %d 个", len(events))
	}
}

func TestDominantNegativeChange(t *testing.T) {
	// 绝对值最大者胜出, 负向变动同样参与。
	contribs := []Contribution{
		{Name: "A", SignedChange: 0.05},
		{Name: "B", SignedChange: -0.30},
		{Name: "C", SignedChange: 0.10},
	}
	if got := dominant(contribs); got != "B" {
		t.Fatalf("期望 B, 实际 %s", got)
	}
}

func TestDominantTieFirstWins(t *testing.T) {
	contribs := []Contribution{
		{Name: "A", SignedChange: 0.2},
		{Name: "B", SignedChange: -0.2},
	}
	if got := dominant(contribs); got != "A" {
		t.Fatalf("平局应取配置序靠前者, 实际 %s", got)
	}
}

func TestDetectEventsAttributionFromFrame(t *testing.T) {
	// 端到端: 由帧驱动的事件应归因于变动最猛的指标。
	frame := buildFrame(t, 2, map[string][]float64{
		"Mild":  {100, 101},
		"Sharp": {100, 60},
	})
	scorer := NewScorer(Config{
		Indicators: []Indicator{
			{Name: "Mild", Weight: 10, RiskRising: true},
			{Name: "Sharp", Weight: 40, RiskRising: false},
		},
		EventThreshold: 5,
	})

	res, err := scorer.Score(frame)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	events := scorer.DetectEvents(res)
	if len(events) != 1 {
		t.Fatalf("期望 1 个事件, 实际 %d", len(events))
	}
	if events[0].Dominant != "Sharp" {
		t.Fatalf("主导指标应为 Sharp, 实际 %s", events[0].Dominant)
	}
}
