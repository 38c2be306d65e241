package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
)

// Show prints a country's recent scores and events.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show scores")
	}
	if closeStore != nil {
		defer closeStore()
	}

	scores, err := store.ListRecentScores(ctx, opts.Country, opts.Limit)
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		fmt.Fprintln(os.Stdout, "no scores found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Date\tCountry\tRisk (%)")
	for _, row := range scores {
		fmt.Fprintf(writer, "%s\t%s\t%.1f\n",
			row.ScoreDate.Format("2006-01-02"), row.Country, row.Score)
	}
	writer.Flush()

	events, err := store.ListRecentEvents(ctx, opts.Country, opts.Limit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	fmt.Fprintln(os.Stdout, "\nRecent events:")
	writer = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Date\tScore\tDelta\tDominant")
	for _, ev := range events {
		fmt.Fprintf(writer, "%s\t%.1f\t%+.1f\t%s\n",
			ev.EventDate.Format("2006-01-02"), ev.Score, ev.Delta, sanitizeInline(ev.Dominant))
	}
	writer.Flush()
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
