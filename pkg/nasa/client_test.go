package nasa

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyops/apodsync/pkg/config"
)

func testClient(baseURL string) Client {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return NewClient(log, &config.NASAConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})
}

func TestClient_FetchAPOD(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/planetary/apod", r.URL.Path)
			assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
			assert.Equal(t, "2024-01-01", r.URL.Query().Get("date"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"title": "Earthrise",
				"explanation": "desc",
				"url": "http://x/img.jpg",
				"hdurl": "http://x/img_hd.jpg",
				"media_type": "image",
				"copyright": "J. Photographer",
				"date": "2024-01-01"
			}`))
		}))
	defer server.Close()

	record, err := testClient(server.URL).FetchAPOD(
		context.Background(), "2024-01-01",
	)
	require.NoError(t, err)

	assert.Equal(t, "Earthrise", record.Title)
	assert.Equal(t, "desc", record.Explanation)
	assert.Equal(t, "http://x/img.jpg", record.URL)
	assert.Equal(t, "http://x/img_hd.jpg", record.HDURL)
	assert.Equal(t, "image", record.MediaType)
	assert.Equal(t, "J. Photographer", record.Copyright)
}

func TestClient_FetchAPOD_DateParameterized(t *testing.T) {
	// Each call must carry the requested logical date, never an
	// implicit "today".
	var gotDates []string

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotDates = append(gotDates, r.URL.Query().Get("date"))
			_, _ = w.Write([]byte(`{"title":"t","url":"u"}`))
		}))
	defer server.Close()

	client := testClient(server.URL)

	for _, date := range []string{"2023-06-15", "2024-01-01"} {
		_, err := client.FetchAPOD(context.Background(), date)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"2023-06-15", "2024-01-01"}, gotDates)
}

func TestClient_FetchAPOD_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus bool
		wantData   bool
	}{
		{
			name:       "rate limited",
			status:     http.StatusTooManyRequests,
			body:       `{"error":"OVER_RATE_LIMIT"}`,
			wantStatus: true,
		},
		{
			name:       "upstream unavailable",
			status:     http.StatusServiceUnavailable,
			body:       "service unavailable",
			wantStatus: true,
		},
		{
			name:     "malformed body",
			status:   http.StatusOK,
			body:     `{"title": "Earthrise"`,
			wantData: true,
		},
		{
			name:     "empty object",
			status:   http.StatusOK,
			body:     `{}`,
			wantData: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(tt.status)
					_, _ = w.Write([]byte(tt.body))
				}))
			defer server.Close()

			_, err := testClient(server.URL).FetchAPOD(
				context.Background(), "2024-01-01",
			)
			require.Error(t, err)

			var statusErr *StatusError

			var dataErr *DataError

			assert.Equal(t, tt.wantStatus, errors.As(err, &statusErr))
			assert.Equal(t, tt.wantData, errors.As(err, &dataErr))

			if tt.wantStatus {
				assert.Equal(t, tt.status, statusErr.StatusCode)
			}
		})
	}
}

func TestClient_FetchAPOD_PartialRecord(t *testing.T) {
	// Partial absence is tolerated; defaulting is deferred to the
	// transformer.
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"url":"http://x/img.jpg"}`))
		}))
	defer server.Close()

	record, err := testClient(server.URL).FetchAPOD(
		context.Background(), "2024-01-01",
	)
	require.NoError(t, err)
	assert.Equal(t, "http://x/img.jpg", record.URL)
	assert.Empty(t, record.Title)
}

func TestClient_FetchAPOD_ConnectionRefused(t *testing.T) {
	// Point at a server that is no longer listening.
	server := httptest.NewServer(http.HandlerFunc(
		func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	_, err := testClient(server.URL).FetchAPOD(
		context.Background(), "2024-01-01",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calling apod api")
}

func TestAPODResponse_Empty(t *testing.T) {
	assert.True(t, (&APODResponse{}).Empty())
	assert.True(t, (&APODResponse{Date: "2024-01-01"}).Empty())
	assert.False(t, (&APODResponse{URL: "x"}).Empty())
	assert.False(t, (&APODResponse{Title: "t"}).Empty())
}
