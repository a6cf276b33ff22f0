// Package nasa implements the APOD API client. One GET per run,
// parameterized by logical date so reruns and backfills fetch the
// record for that date rather than whatever "today" happens to be.
package nasa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/skyops/apodsync/pkg/config"
)

const (
	apodEndpoint = "/planetary/apod"

	// maxErrorBodyBytes caps how much of an error response body is
	// captured for diagnostics.
	maxErrorBodyBytes = 2048
)

// APODResponse mirrors the upstream APOD API response shape. Every
// field is optional; defaulting is the transformer's job.
type APODResponse struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	URL         string `json:"url"`
	HDURL       string `json:"hdurl"`
	MediaType   string `json:"media_type"`
	Copyright   string `json:"copyright"`
	Date        string `json:"date"`
}

// Empty reports whether none of the expected fields are present.
func (r *APODResponse) Empty() bool {
	return r.Title == "" && r.Explanation == "" &&
		r.URL == "" && r.MediaType == ""
}

// Client fetches APOD records from the NASA API.
type Client interface {
	// FetchAPOD retrieves the record for the given logical date
	// (YYYY-MM-DD).
	FetchAPOD(ctx context.Context, date string) (*APODResponse, error)
}

// Compile-time interface check.
var _ Client = (*client)(nil)

type client struct {
	log  logrus.FieldLogger
	cfg  *config.NASAConfig
	http *http.Client
}

// NewClient creates a new APOD API client with a bounded per-call timeout.
func NewClient(
	log logrus.FieldLogger,
	cfg *config.NASAConfig,
) Client {
	return &client{
		log: log.WithField("component", "nasa"),
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// FetchAPOD performs the APOD API call for a specific logical date and
// validates the response enough to hand it to the transformer.
func (c *client) FetchAPOD(
	ctx context.Context, date string,
) (*APODResponse, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + apodEndpoint

	params := url.Values{
		"api_key": {c.cfg.APIKey},
		"date":    {date},
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil,
	)
	if err != nil {
		return nil, fmt.Errorf("building apod request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling apod api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK ||
		resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var record APODResponse
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, &DataError{
			Reason: "malformed response body",
			Err:    err,
		}
	}

	if record.Empty() {
		return nil, &DataError{
			Reason: fmt.Sprintf("response for %s contains none of the expected fields", date),
		}
	}

	c.log.WithFields(logrus.Fields{
		"date":       date,
		"media_type": record.MediaType,
	}).Debug("Fetched APOD record")

	return &record, nil
}
