package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"recession-meter/internal/storage"
)

// Export renders a country's scored history as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}
	if opts.Country == "" {
		return errors.New("--country must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.AddDate(0, 0, -opts.MaxPoints)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	scores, err := store.ListScoresBetween(ctx, opts.Country, from, to)
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		a.Logger.Info().Str("country", opts.Country).Msg("no scores found for export window")
		return nil
	}

	downsampled := downsampleScores(scores, opts.MaxPoints)
	a.Logger.Info().Int("total", len(scores)).Int("exported", len(downsampled)).Msg("exporting scores")

	if opts.CSVPath != "" {
		if err := writeScoresCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeScoresPNG(opts.PNGPath, opts.Country, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleScores(scores []storage.ScoreRow, max int) []storage.ScoreRow {
	if max <= 0 || len(scores) <= max {
		return scores
	}

	result := make([]storage.ScoreRow, 0, max)
	step := float64(len(scores)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(scores) {
			idx = len(scores) - 1
		}
		result = append(result, scores[idx])
	}
	return result
}

func writeScoresCSV(path string, scores []storage.ScoreRow) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"score_date", "country", "risk_pct"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range scores {
		record := []string{
			row.ScoreDate.Format("2006-01-02"),
			row.Country,
			fmt.Sprintf("%.4f", row.Score),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeScoresPNG(path, country string, scores []storage.ScoreRow) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(scores))
	y := make([]float64, len(scores))
	for i, row := range scores {
		x[i] = row.ScoreDate
		y[i] = row.Score
	}

	scoreFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.1f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Risk (%)",
			ValueFormatter: scoreFormatter,
			Range:          &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    country + " Risk Index",
				XValues: x,
				YValues: y,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
