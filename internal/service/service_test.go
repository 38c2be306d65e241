package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"recession-meter/internal/config"
	"recession-meter/internal/fetcher"
	"recession-meter/internal/series"
)

// fakeFetcher serves canned series and fails unknown codes.
type fakeFetcher struct {
	data map[string]series.Series
}

func (f *fakeFetcher) FetchSeries(ctx context.Context, code string) (series.Series, error) {
	s, ok := f.data[code]
	if !ok {
		return series.Series{}, fmt.Errorf("%w: %s", fetcher.ErrSeriesUnavailable, code)
	}
	return s, nil
}

var _ fetcher.SeriesFetcher = (*fakeFetcher)(nil)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dailySeries(code string, start time.Time, values ...float64) series.Series {
	pts := make([]series.Point, len(values))
	for i, v := range values {
		pts[i] = series.Point{Date: start.AddDate(0, 0, i), Value: v}
	}
	return series.Series{Name: code, Points: pts}
}

func testConfig(datasets map[string]config.DatasetConfig) *config.Config {
	return &config.Config{
		Scoring: config.ScoringConfig{
			ClipLimit:       0.2,
			InversionFactor: 0.5,
			EventThreshold:  5,
		},
		Datasets: datasets,
	}
}

func TestEvaluateCountryDropsUnavailable(t *testing.T) {
	start := day(2024, 1, 1)
	ff := &fakeFetcher{data: map[string]series.Series{
		"XSER": dailySeries("XSER", start, 100, 80),
	}}

	cfg := testConfig(map[string]config.DatasetConfig{
		"USA": {Indicators: []config.IndicatorConfig{
			{Name: "X", Code: "XSER", Weight: 30, RiskRising: false},
			{Name: "Gone", Code: "MISSING", Weight: 50, RiskRising: true},
		}},
	})

	svc := New(cfg, nil, ff, nil, nil, nil, nil, zerolog.Nop())

	eval, err := svc.EvaluateCountry(context.Background(), "USA")
	if err != nil {
		t.Fatalf("EvaluateCountry: %v", err)
	}

	if len(eval.Warnings) != 1 {
		t.Fatalf("应有 1 条降级警告, 实际 %d", len(eval.Warnings))
	}
	if eval.Frame.HasColumn("Gone") {
		t.Fatal("不可用指标不应出现在帧中")
	}
	if math.Abs(eval.Result.Scores[1]-6) > 1e-9 {
		t.Fatalf("剩余指标应正常评分, 期望 6, 实际 %f", eval.Result.Scores[1])
	}
}

func TestEvaluateCountryEmptyDataset(t *testing.T) {
	ff := &fakeFetcher{data: nil}

	cfg := testConfig(map[string]config.DatasetConfig{
		"USA": {Indicators: []config.IndicatorConfig{
			{Name: "X", Code: "NOPE1", Weight: 30},
			{Name: "Y", Code: "NOPE2", Weight: 20},
		}},
	})

	svc := New(cfg, nil, ff, nil, nil, nil, nil, zerolog.Nop())

	if _, err := svc.EvaluateCountry(context.Background(), "USA"); !errors.Is(err, ErrDatasetEmpty) {
		t.Fatalf("全部指标缺失应返回 ErrDatasetEmpty, 实际 %v", err)
	}
}

func TestEvaluateCountryUnknown(t *testing.T) {
	svc := New(testConfig(nil), nil, &fakeFetcher{}, nil, nil, nil, nil, zerolog.Nop())
	if _, err := svc.EvaluateCountry(context.Background(), "Atlantis"); err == nil {
		t.Fatal("未配置的数据集应报错")
	}
}

func TestEvaluateCountryAppendsSpread(t *testing.T) {
	start := day(2024, 1, 1)
	ff := &fakeFetcher{data: map[string]series.Series{
		"GS10":  dailySeries("GS10", start, 4.0, 4.0, 4.0),
		"TB3MS": dailySeries("TB3MS", start, 4.5, 4.5, 4.5),
	}}

	cfg := testConfig(map[string]config.DatasetConfig{
		"USA": {
			Indicators: []config.IndicatorConfig{
				{Name: "Yield Curve (10y-3m)", Weight: 35, RiskRising: false},
				{Name: "10-Year Rate", Code: "GS10", Weight: 5, RiskRising: true},
				{Name: "3-Month Rate", Code: "TB3MS", Weight: 5, RiskRising: true},
			},
			Derived: config.DerivedConfig{
				SpreadLong:  "10-Year Rate",
				SpreadShort: "3-Month Rate",
				SpreadName:  "Yield Curve (10y-3m)",
			},
		},
	})

	svc := New(cfg, nil, ff, nil, nil, nil, nil, zerolog.Nop())

	eval, err := svc.EvaluateCountry(context.Background(), "USA")
	if err != nil {
		t.Fatalf("EvaluateCountry: %v", err)
	}

	if !eval.Frame.HasColumn("Yield Curve (10y-3m)") {
		t.Fatal("利差列应被追加")
	}
	// 利率不变但曲线倒挂 (-0.5): 每日均应含固定倒挂奖励 17.5。
	for i, score := range eval.Result.Scores {
		if math.Abs(score-17.5) > 1e-9 {
			t.Fatalf("第 %d 天期望 17.5, 实际 %f", i, score)
		}
	}
}

func TestCountriesStableOrder(t *testing.T) {
	cfg := testConfig(map[string]config.DatasetConfig{
		"USA": {Indicators: []config.IndicatorConfig{{Name: "X", Weight: 1}}},
		"DEU": {Indicators: []config.IndicatorConfig{{Name: "X", Weight: 1}}},
		"JPN": {Indicators: []config.IndicatorConfig{{Name: "X", Weight: 1}}},
	})

	svc := New(cfg, nil, &fakeFetcher{}, nil, nil, nil, nil, zerolog.Nop())

	countries := svc.Countries()
	want := []string{"DEU", "JPN", "USA"}
	for i, c := range want {
		if countries[i] != c {
			t.Fatalf("国家顺序应稳定排序, 实际 %v", countries)
		}
	}
}

func TestSnapshotFeedsExplanationContext(t *testing.T) {
	start := day(2024, 1, 1)
	ff := &fakeFetcher{data: map[string]series.Series{
		"XSER": dailySeries("XSER", start, 100, 90, 80),
	}}

	cfg := testConfig(map[string]config.DatasetConfig{
		"USA": {Indicators: []config.IndicatorConfig{
			{Name: "X", Code: "XSER", Weight: 30, RiskRising: false},
		}},
	})

	svc := New(cfg, nil, ff, nil, nil, nil, nil, zerolog.Nop())

	eval, err := svc.EvaluateCountry(context.Background(), "USA")
	if err != nil {
		t.Fatalf("EvaluateCountry: %v", err)
	}

	if eval.Snapshot.Indicators["X"] != 80 {
		t.Fatalf("快照应取末行指标值, 实际 %+v", eval.Snapshot.Indicators)
	}
	if eval.Snapshot.Score != eval.Result.Scores[len(eval.Result.Scores)-1] {
		t.Fatal("快照分数应与末日分数一致")
	}
}
