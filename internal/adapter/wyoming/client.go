package wyoming

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/pw-import/internal/domain"
	"github.com/couchcryptid/pw-import/internal/observability"
)

const source = "wyoming"

var (
	// pwRe matches the station information line carrying the sounding's
	// precipitable water, e.g.
	// "Precipitable water [mm] for entire sounding: 11.27".
	pwRe = regexp.MustCompile(`Precipitable water \[mm\] for entire sounding:\s*(-?\d+(?:\.\d+)?)`)

	// The archive answers 200 with these bodies instead of a proper status.
	noDataMarkers = []string{"Can't get", "Sorry, unable to generate"}
	busyMarkers   = []string{"Server is too busy", "Please try again later"}
)

// Client implements domain.SoundingSource against the University of Wyoming
// upper-air archive.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a sounding archive client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// PrecipitableWater returns the precipitable water in mm of the launch at
// the given time. It returns domain.ErrNoData when the archive has no
// sounding for the station and time.
func (c *Client) PrecipitableWater(ctx context.Context, station string, at time.Time) (float64, error) {
	at = at.UTC()
	ddhh := at.Format("0215")
	params := url.Values{
		"region": {"naconf"},
		"TYPE":   {"TEXT:LIST"},
		"YEAR":   {at.Format("2006")},
		"MONTH":  {at.Format("01")},
		"FROM":   {ddhh},
		"TO":     {ddhh},
		"STNM":   {station},
	}

	start := time.Now()
	pw, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.RemoteDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		c.metrics.RemoteRequests.WithLabelValues(source, "success").Inc()
	case errors.Is(err, domain.ErrNoData):
		c.metrics.RemoteRequests.WithLabelValues(source, "no_data").Inc()
		c.logger.Debug("no sounding available", "station", station, "time", at)
		return 0, fmt.Errorf("%s at %s: %w", station, at.Format(time.RFC3339), domain.ErrNoData)
	default:
		c.metrics.RemoteRequests.WithLabelValues(source, "error").Inc()
		return 0, err
	}
	return pw, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &domain.HTTPError{Source: source, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, &domain.HTTPError{Source: source, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return 0, &domain.HTTPError{
			Source:     source,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(body))),
		}
	}

	return parseSounding(string(body))
}

// parseSounding extracts the precipitable water from an archive TEXT:LIST page.
func parseSounding(page string) (float64, error) {
	for _, m := range busyMarkers {
		if strings.Contains(page, m) {
			return 0, &domain.HTTPError{
				Source:     source,
				StatusCode: http.StatusServiceUnavailable,
				Err:        errors.New("archive busy"),
			}
		}
	}
	for _, m := range noDataMarkers {
		if strings.Contains(page, m) {
			return 0, domain.ErrNoData
		}
	}

	match := pwRe.FindStringSubmatch(page)
	if len(match) != 2 {
		return 0, domain.ErrNoData
	}
	v, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, fmt.Errorf("parse precipitable water %q: %w", match[1], err)
	}
	return v, nil
}
