// Package invidious provides a client for the Invidious video metadata API.
package invidious

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
	lru "github.com/hashicorp/golang-lru/v2"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/osa030/relaytune/internal/infra/metrics"
)

const (
	// Family is the metrics label of this backend.
	Family = "metadata"

	// DefaultDirectoryURL lists public Invidious instances.
	DefaultDirectoryURL = "https://api.invidious.io/instances.json?sort_by=type,health"

	defaultCacheSize = 1024
)

// Config represents Invidious client configuration.
type Config struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	DirectoryURL      string
	CacheSize         int
	Metrics           *metrics.Metrics
}

// Client is an Invidious API client with a genre cache.
// Genres do not depend on the mirror, so the cache is keyed by video ID only.
type Client struct {
	httpClient   *http.Client
	limiter      *rate.Limiter
	directoryURL string
	genreCache   *lru.Cache[string, string]
	metrics      *metrics.Metrics
}

// VideoResponse is the subset of /api/v1/videos/{id} used by the player.
type VideoResponse struct {
	Title         string `json:"title"`
	Genre         string `json:"genre"`
	LengthSeconds int64  `json:"lengthSeconds"`
}

// ErrUnavailable marks a video the mirror refused to describe.
var ErrUnavailable = errors.New("unavailable on backend")

// apiError is the error body Invidious returns for unavailable videos.
type apiError struct {
	Error string `json:"error"`
}

// instanceInfo is the detail object of an instance directory entry.
type instanceInfo struct {
	API  *bool  `json:"api"`
	Type string `json:"type"`
	URI  string `json:"uri"`
}

// New creates a new Invidious client.
func New(cfg Config) (*Client, error) {
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
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create genre cache")
	}

	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		limiter:      rate.NewLimiter(limit, 1),
		directoryURL: directory,
		genreCache:   cache,
		metrics:      cfg.Metrics,
	}, nil
}

// Video fetches video metadata.
func (c *Client) Video(ctx context.Context, baseURL, videoID string) (*VideoResponse, error) {
	reqURL := strings.TrimRight(baseURL, "/") + "/api/v1/videos/" + url.PathEscape(videoID)

	var resp VideoResponse
	if err := c.getJSON(ctx, "videos", reqURL, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to fetch video: id=%s", videoID)
	}
	return &resp, nil
}

// Genre returns the genre of a video, using the cache when possible.
func (c *Client) Genre(ctx context.Context, baseURL, videoID string) (string, error) {
	if genre, ok := c.genreCache.Get(videoID); ok {
		zlog.Debug().Msgf("genre cache hit: id=%s genre=%s", videoID, genre)
		return genre, nil
	}

	video, err := c.Video(ctx, baseURL, videoID)
	if err != nil {
		return "", err
	}
	c.genreCache.Add(videoID, video.Genre)
	return video.Genre, nil
}

// Instances fetches HTTPS API instances from the directory.
func (c *Client) Instances(ctx context.Context) ([]string, error) {
	var entries [][]json.RawMessage
	if err := c.getJSON(ctx, "directory", c.directoryURL, &entries); err != nil {
		return nil, errors.Wrap(err, "failed to fetch invidious instances")
	}

	domains := make([]string, 0, len(entries))
	for _, entry := range entries {
		if len(entry) < 2 {
			continue
		}
		var info instanceInfo
		if err := json.Unmarshal(entry[1], &info); err != nil {
			continue
		}
		if info.API == nil || !*info.API || info.Type != "https" || info.URI == "" {
			continue
		}
		domains = append(domains, strings.TrimRight(info.URI, "/"))
	}
	if len(domains) == 0 {
		return nil, errors.New("invidious instance directory returned no api instances")
	}
	zlog.Info().Msgf("fetched invidious instances: count=%d", len(domains))
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
		if endpoint == "videos" {
			var apiErr apiError
			if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
				return errors.Mark(errors.Newf("invidious api error %d: %s", resp.StatusCode, apiErr.Error), ErrUnavailable)
			}
			if resp.StatusCode == http.StatusNotFound {
				return errors.Mark(errors.Newf("unexpected status: %d", resp.StatusCode), ErrUnavailable)
			}
		}
		return errors.Newf("unexpected status: %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}
