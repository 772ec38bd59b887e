package mesowest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/pw-import/internal/domain"
	"github.com/couchcryptid/pw-import/internal/observability"
)

const (
	source = "mesowest"

	// Synoptic request window format, always UTC.
	windowLayout = "200601021504"

	// Local-time observations are stamped with a numeric offset.
	localLayout = "2006-01-02T15:04:05-0700"

	// windowPad widens the UTC request window on both sides so a
	// station-local calendar day is fully covered for any offset from
	// UTC-12 to UTC+14.
	windowPad = 14 * time.Hour
)

// Client implements domain.SurfaceSource using the MesoWest/Synoptic
// time-series API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a MesoWest time-series client.
func NewClient(baseURL, token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// Observations returns the station's observations whose station-local
// calendar date equals day, in the order the API reports them.
func (c *Client) Observations(ctx context.Context, station string, day time.Time) ([]domain.SurfaceObservation, error) {
	y, m, d := day.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	params := url.Values{
		"stid":       {station},
		"start":      {from.Add(-windowPad).Format(windowLayout)},
		"end":        {from.Add(24*time.Hour + windowPad).Format(windowLayout)},
		"vars":       {"air_temp,relative_humidity"},
		"obtimezone": {"local"},
		"token":      {c.token},
	}

	start := time.Now()
	obs, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.RemoteDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.RemoteRequests.WithLabelValues(source, "error").Inc()
		return nil, fmt.Errorf("%s on %s: %w", station, day.Format(time.DateOnly), err)
	}

	sameDay := obs[:0]
	for _, o := range obs {
		oy, om, od := o.Time.Date()
		if oy == y && om == m && od == d {
			sameDay = append(sameDay, o)
		}
	}
	if len(sameDay) == 0 {
		c.metrics.RemoteRequests.WithLabelValues(source, "no_data").Inc()
		return nil, fmt.Errorf("%s on %s: %w", station, day.Format(time.DateOnly), domain.ErrNoData)
	}

	c.metrics.RemoteRequests.WithLabelValues(source, "success").Inc()
	c.logger.Debug("surface observations fetched", "station", station, "day", day.Format(time.DateOnly), "count", len(sameDay))
	return sameDay, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]domain.SurfaceObservation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.HTTPError{Source: source, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &domain.HTTPError{Source: source, StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
	}

	var ts response
	if err := json.NewDecoder(resp.Body).Decode(&ts); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	switch ts.Summary.ResponseCode {
	case 1:
	case 2:
		// "No stations found for this request" and friends.
		return nil, domain.ErrNoData
	default:
		return nil, fmt.Errorf("mesowest API error: code %d: %s", ts.Summary.ResponseCode, ts.Summary.ResponseMessage)
	}

	if len(ts.Stations) == 0 {
		return nil, domain.ErrNoData
	}
	return ts.Stations[0].Observations.toDomain()
}

// MesoWest API response types.

type response struct {
	Summary  summary   `json:"SUMMARY"`
	Stations []station `json:"STATION"`
}

type summary struct {
	ResponseCode    int    `json:"RESPONSE_CODE"`
	ResponseMessage string `json:"RESPONSE_MESSAGE"`
}

type station struct {
	STID         string       `json:"STID"`
	Observations observations `json:"OBSERVATIONS"`
}

type observations struct {
	DateTime         []string   `json:"date_time"`
	AirTemp          []*float64 `json:"air_temp_set_1"`
	RelativeHumidity []*float64 `json:"relative_humidity_set_1"`
}

// toDomain zips the parallel series, skipping entries missing either value.
func (o observations) toDomain() ([]domain.SurfaceObservation, error) {
	out := make([]domain.SurfaceObservation, 0, len(o.DateTime))
	for i, raw := range o.DateTime {
		if i >= len(o.AirTemp) || i >= len(o.RelativeHumidity) {
			break
		}
		if o.AirTemp[i] == nil || o.RelativeHumidity[i] == nil {
			continue
		}
		t, err := parseObservationTime(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.SurfaceObservation{
			Time:             t,
			RelativeHumidity: *o.RelativeHumidity[i],
			Temperature:      *o.AirTemp[i],
		})
	}
	return out, nil
}

func parseObservationTime(s string) (time.Time, error) {
	if t, err := time.Parse(localLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse observation time %q: %w", s, err)
	}
	return t, nil
}
