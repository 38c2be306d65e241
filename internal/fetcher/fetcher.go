package fetcher

import (
	"context"
	"errors"

	"recession-meter/internal/series"
)

// ErrSeriesUnavailable marks a configured series that could not be sourced.
// Callers drop the indicator and continue; it is never fatal to the run.
var ErrSeriesUnavailable = errors.New("fetcher: series unavailable")

// SeriesFetcher retrieves one raw indicator series by its source code.
type SeriesFetcher interface {
	FetchSeries(ctx context.Context, code string) (series.Series, error)
}
