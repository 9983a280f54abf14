// Package piped provides a client for the Piped stream and playlist API.
package piped

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/osa030/relaytune/internal/infra/metrics"
)

const (
	// Family is the metrics label of this backend.
	Family = "stream"

	// DefaultDirectoryURL lists public Piped API instances.
	DefaultDirectoryURL = "https://piped-instances.kavin.rocks/"
)

// Config represents Piped client configuration.
type Config struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	DirectoryURL      string
	Metrics           *metrics.Metrics
}

// Client is a Piped API client. The mirror base URL is passed per call so
// the caller owns mirror selection.
type Client struct {
	httpClient   *http.Client
	limiter      *rate.Limiter
	directoryURL string
	metrics      *metrics.Metrics
}

// AudioStream is one audio rendition of a video.
type AudioStream struct {
	URL      string `json:"url"`
	Bitrate  int    `json:"bitrate"`
	MimeType string `json:"mimeType"`
	Quality  string `json:"quality"`
}

// RelatedStream is an entry in a related or playlist listing.
// Duration is kept raw so missing or malformed values stay detectable.
type RelatedStream struct {
	URL      string          `json:"url"`
	Title    string          `json:"title"`
	Type     string          `json:"type"`
	Duration json.RawMessage `json:"duration"`
}

// StreamsResponse is the response of /streams/{id}.
type StreamsResponse struct {
	Title          string          `json:"title"`
	Uploader       string          `json:"uploader"`
	Duration       float64         `json:"duration"`
	AudioStreams   []AudioStream   `json:"audioStreams"`
	RelatedStreams []RelatedStream `json:"relatedStreams"`
}

// PlaylistResponse is the response of /playlists/{id} and its next pages.
type PlaylistResponse struct {
	Name           string          `json:"name"`
	NextPage       *string         `json:"nextpage"`
	RelatedStreams []RelatedStream `json:"relatedStreams"`
}

// Instance is an entry of the Piped instance directory.
type Instance struct {
	Name     string `json:"name"`
	APIURL   string `json:"api_url"`
	UpToDate bool   `json:"up_to_date"`
}

// ErrUnavailable marks a video or playlist the mirror refused to serve,
// such as a region-blocked or deleted video. Other mirrors answer the same.
var ErrUnavailable = errors.New("unavailable on backend")

// apiError is the error body Piped returns for unavailable videos.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// New creates a new Piped client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	directory := cfg.DirectoryURL
	if directory == "" {
		directory = DefaultDirectoryURL
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		limiter:      rate.NewLimiter(limit, 1),
		directoryURL: directory,
		metrics:      cfg.Metrics,
	}
}

// DurationSeconds parses the reported duration.
// Negative values (live streams) and non-numeric values are not ok.
func (r RelatedStream) DurationSeconds() (int64, bool) {
	raw := strings.TrimSpace(string(r.Duration))
	if raw == "" || raw == "null" {
		return 0, false
	}
	raw = strings.Trim(raw, `"`)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return int64(v), true
}

// IsPlaylist reports whether the entry links to a playlist or mix.
func (r RelatedStream) IsPlaylist() bool {
	return strings.Contains(r.URL, "/playlist")
}

// Streams fetches stream metadata for a video.
func (c *Client) Streams(ctx context.Context, baseURL, videoID string) (*StreamsResponse, error) {
	reqURL := strings.TrimRight(baseURL, "/") + "/streams/" + url.PathEscape(videoID)

	var resp StreamsResponse
	if err := c.getJSON(ctx, "streams", reqURL, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to fetch streams: id=%s", videoID)
	}
	return &resp, nil
}

// Playlist fetches the first page of a playlist.
func (c *Client) Playlist(ctx context.Context, baseURL, playlistID string) (*PlaylistResponse, error) {
	reqURL := strings.TrimRight(baseURL, "/") + "/playlists/" + url.PathEscape(playlistID)

	var resp PlaylistResponse
	if err := c.getJSON(ctx, "playlists", reqURL, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to fetch playlist: id=%s", playlistID)
	}
	return &resp, nil
}

// PlaylistNextPage fetches the page identified by the opaque nextpage cursor.
func (c *Client) PlaylistNextPage(ctx context.Context, baseURL, playlistID, nextPage string) (*PlaylistResponse, error) {
	params := url.Values{}
	params.Set("nextpage", nextPage)
	reqURL := strings.TrimRight(baseURL, "/") + "/nextpage/playlists/" + url.PathEscape(playlistID) + "?" + params.Encode()

	var resp PlaylistResponse
	if err := c.getJSON(ctx, "nextpage", reqURL, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to fetch playlist page: id=%s", playlistID)
	}
	return &resp, nil
}

// Instances fetches API base URLs from the instance directory.
func (c *Client) Instances(ctx context.Context) ([]string, error) {
	var instances []Instance
	if err := c.getJSON(ctx, "directory", c.directoryURL, &instances); err != nil {
		return nil, errors.Wrap(err, "failed to fetch piped instances")
	}

	domains := make([]string, 0, len(instances))
	for _, inst := range instances {
		if inst.APIURL == "" {
			continue
		}
		domains = append(domains, strings.TrimRight(inst.APIURL, "/"))
	}
	if len(domains) == 0 {
		return nil, errors.New("piped instance directory returned no api urls")
	}
	zlog.Info().Msgf("fetched piped instances: count=%d", len(domains))
	return domains, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, reqURL string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter wait failed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(Family, endpoint, "error", time.Since(start).Seconds())
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()
	c.metrics.ObserveRequest(Family, endpoint, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			err := errors.Newf("piped api error %d: %s", resp.StatusCode, apiErr.Error)
			if endpoint != "directory" {
				// The mirror answered; the item itself cannot be served.
				return errors.Mark(err, ErrUnavailable)
			}
			return err
		}
		if resp.StatusCode == http.StatusNotFound && (endpoint == "streams" || endpoint == "playlists") {
			return errors.Mark(errors.Newf("unexpected status: %d", resp.StatusCode), ErrUnavailable)
		}
		return errors.Newf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	zlog.Debug().Msgf("piped request ok: endpoint=%s url=%s", endpoint, reqURL)
	return nil
}
