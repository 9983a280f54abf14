// Package mirrors ranks backend mirrors by response latency.
package mirrors

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Paths answered cheaply by each backend family.
const (
	PipedCheckPath     = "/healthcheck"
	InvidiousCheckPath = "/api/v1/stats"
)

// Result is the latency check outcome of one mirror.
type Result struct {
	Domain  string
	Latency time.Duration
	Err     error
}

// Ranker checks mirrors concurrently.
type Ranker struct {
	httpClient  *http.Client
	concurrency int
}

// NewRanker creates a ranker. timeout bounds each check.
func NewRanker(timeout time.Duration, concurrency int) *Ranker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Ranker{
		httpClient:  &http.Client{Timeout: timeout},
		concurrency: concurrency,
	}
}

// Measure checks every domain. Results keep the input order.
func (r *Ranker) Measure(ctx context.Context, domains []string, checkPath string) []Result {
	results := make([]Result, len(domains))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, domain := range domains {
		g.Go(func() error {
			latency, err := r.check(gctx, domain, checkPath)
			mu.Lock()
			results[i] = Result{Domain: domain, Latency: latency, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Rank returns the reachable domains ordered by latency, fastest first.
func (r *Ranker) Rank(ctx context.Context, domains []string, checkPath string) ([]string, error) {
	results := r.Measure(ctx, domains, checkPath)

	reachable := make([]Result, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			zlog.Debug().Msgf("mirror check failed: domain=%s error=%v", res.Domain, res.Err)
			continue
		}
		reachable = append(reachable, res)
	}
	if len(reachable) == 0 {
		return nil, errors.Newf("no reachable mirror among %d", len(domains))
	}

	sort.SliceStable(reachable, func(i, j int) bool {
		return reachable[i].Latency < reachable[j].Latency
	})

	ranked := make([]string, len(reachable))
	for i, res := range reachable {
		ranked[i] = res.Domain
	}
	zlog.Info().Msgf("ranked mirrors: reachable=%d total=%d fastest=%s", len(ranked), len(domains), ranked[0])
	return ranked, nil
}

func (r *Ranker) check(ctx context.Context, domain, checkPath string) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(domain, "/")+checkPath, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create request")
	}

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, errors.Newf("unexpected status: %d", resp.StatusCode)
	}
	return time.Since(start), nil
}
