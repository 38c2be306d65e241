package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"recession-meter/internal/service"
	"recession-meter/internal/storage"
)

// Evaluate runs the full pipeline once for the selected countries and prints
// the outcome: latest score, detected events, indicator tail, and (when
// configured) the generated assessment.
func (a *App) Evaluate(ctx context.Context, opts EvaluateOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	var scoreStore storage.ScoreStore
	var eventStore storage.EventStore
	if store != nil {
		scoreStore = store
		eventStore = store
	}

	svc := service.New(a.Config, nil, a.newFetcher(), scoreStore, eventStore, a.newNotifier(), a.newExplainer(), a.Logger)

	countries := opts.Countries
	if len(countries) == 0 {
		countries = svc.Countries()
	}

	failures := 0
	for _, country := range countries {
		eval, err := svc.EvaluateCountry(ctx, country)
		if err != nil {
			failures++
			a.Logger.Warn().Err(err).Str("country", country).Msg("evaluation skipped")
			continue
		}
		printEvaluation(eval, opts.TailRows)
	}

	if failures == len(countries) {
		return errors.New("no dataset could be evaluated")
	}
	return nil
}

func printEvaluation(eval *service.Evaluation, tailRows int) {
	fmt.Fprintf(os.Stdout, "\n== %s ==\n", eval.Country)
	fmt.Fprintf(os.Stdout, "Latest risk score (%s): %.1f\n",
		eval.Snapshot.Date.Format("2006-01-02"), eval.Snapshot.Score)

	for _, warning := range eval.Warnings {
		fmt.Fprintf(os.Stdout, "warning: %s\n", warning)
	}

	if len(eval.Events) > 0 {
		fmt.Fprintln(os.Stdout, "\nRisk escalation events:")
		writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "Date\tScore\tDelta\tDominant indicator")
		for _, ev := range eval.Events {
			fmt.Fprintf(writer, "%s\t%.1f\t%+.1f\t%s\n",
				ev.Date.Format("2006-01-02"), ev.Score, ev.Delta, ev.Dominant)
		}
		writer.Flush()
	}

	printTail(eval, tailRows)

	if len(eval.Snapshot.Indicators) > 0 {
		fmt.Fprintln(os.Stdout, "\nLatest indicator values:")
		writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		names := make([]string, 0, len(eval.Snapshot.Indicators))
		for name := range eval.Snapshot.Indicators {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(writer, "%s\t%.4f\n", name, eval.Snapshot.Indicators[name])
		}
		writer.Flush()
	}

	if eval.Explanation != "" {
		fmt.Fprintln(os.Stdout, "\nAI risk assessment:")
		fmt.Fprintln(os.Stdout, eval.Explanation)
	}
}

// printTail renders the last rows of the scored series with each date's
// risk value, mirroring the tabular tail of the aligned frame.
func printTail(eval *service.Evaluation, rows int) {
	if rows <= 0 {
		rows = 10
	}
	n := len(eval.Result.Scores)
	if rows > n {
		rows = n
	}

	fmt.Fprintln(os.Stdout, "\nRecent risk scores:")
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Date\tRisk (%)")
	for i := n - rows; i < n; i++ {
		fmt.Fprintf(writer, "%s\t%.1f\n", eval.Result.Dates[i].Format("2006-01-02"), eval.Result.Scores[i])
	}
	writer.Flush()
}
