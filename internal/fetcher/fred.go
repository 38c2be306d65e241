package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"recession-meter/internal/series"
)

const observationsPath = "/fred/series/observations"

// missingObservation is FRED's marker for a dated row without a value.
const missingObservation = "."

// FREDOptions parameterise the FRED observations fetcher.
type FREDOptions struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
}

// FRED fetches observation series from the St. Louis Fed API.
type FRED struct {
	opts    FREDOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewFRED constructs a FRED series fetcher.
func NewFRED(opts FREDOptions, logger zerolog.Logger) *FRED {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.stlouisfed.org"
	}

	return &FRED{
		opts:    opts,
		logger:  logger.With().Str("component", "fred_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchSeries retrieves the full observation history of one series code.
// Source failures are wrapped in ErrSeriesUnavailable so callers can drop
// the indicator without aborting the run.
func (f *FRED) FetchSeries(ctx context.Context, code string) (series.Series, error) {
	if f.opts.APIKey == "" {
		return series.Series{}, errors.New("fred api key not configured")
	}
	if code == "" {
		return series.Series{}, errors.New("series code required")
	}

	query := url.Values{}
	query.Set("series_id", code)
	query.Set("api_key", f.opts.APIKey)
	query.Set("file_type", "json")

	endpoint := f.baseURL + observationsPath + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return series.Series{}, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(f.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return series.Series{}, fmt.Errorf("%w: %s: %v", ErrSeriesUnavailable, code, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return series.Series{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return series.Series{}, fmt.Errorf("%w: %s: %v", ErrSeriesUnavailable, code, parseHTTPError(resp.StatusCode, payload))
	}

	var obsRes observationsResponse
	if err := json.Unmarshal(payload, &obsRes); err != nil {
		return series.Series{}, fmt.Errorf("%w: %s: %v", ErrSeriesUnavailable, code, err)
	}

	points := make([]series.Point, 0, len(obsRes.Observations))
	skipped := 0
	for _, obs := range obsRes.Observations {
		if obs.Value == missingObservation {
			skipped++
			continue
		}
		date, err := time.Parse("2006-01-02", obs.Date)
		if err != nil {
			return series.Series{}, fmt.Errorf("parse observation date %q: %w", obs.Date, err)
		}
		value, err := decimal.NewFromString(obs.Value)
		if err != nil {
			return series.Series{}, fmt.Errorf("parse observation value %q: %w", obs.Value, err)
		}
		points = append(points, series.Point{Date: date, Value: value.InexactFloat64()})
	}

	f.logger.Debug().Str("series", code).
		Int("observations", len(points)).
		Int("skipped", skipped).
		Msg("series fetched")

	return series.Series{Name: code, Points: points}, nil
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

type errorResponse struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.ErrorMessage != "" {
		return fmt.Errorf("fred api error (%d): %s", status, apiErr.ErrorMessage)
	}
	if len(payload) > 0 {
		return fmt.Errorf("fred api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("fred api error (%d)", status)
}

var _ SeriesFetcher = (*FRED)(nil)
