package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/scopecheck/pkg/metrics"
)

const maxErrorBody = 512

type client struct {
	base        *url.URL
	http        *http.Client
	concurrency int
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// New creates a lookup client. When cfg is not enabled every call returns
// ErrDisabled. httpClient may be nil; a client with cfg's timeout is used.
// m may be nil.
func New(cfg *Config, httpClient *http.Client, logger *slog.Logger, m *metrics.Metrics) (System, error) {
	c := &client{
		http:        httpClient,
		concurrency: max(cfg.Concurrency, 1),
		logger:      logger.With("system", "lookup"),
		metrics:     m,
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.TimeoutDuration()}
	}

	if cfg.Enabled() {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse lookup base_url: %w", err)
		}
		c.base = base
	}

	return c, nil
}

func (c *client) Handler(maxBodySize int64) *Handler {
	return NewHandler(c, c.logger, maxBodySize)
}

func (c *client) RecentExperiments(ctx context.Context) ([]int, error) {
	var ids []int
	if err := c.get(ctx, "recent", "experiments/recent", nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *client) Chips(ctx context.Context, experimentID int) ([]string, error) {
	if experimentID < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, experimentID)
	}

	var chips []string
	path := "experiments/" + strconv.Itoa(experimentID) + "/chips"
	if err := c.get(ctx, "chips", path, nil, &chips); err != nil {
		return nil, err
	}
	return chips, nil
}

func (c *client) Libraries(ctx context.Context, chips []string) (map[string]string, error) {
	libraries := make(map[string]string, len(chips))
	if len(chips) == 0 {
		return libraries, nil
	}

	if err := c.get(ctx, "libraries", "chips/libraries", url.Values{"chip": chips}, &libraries); err != nil {
		return nil, err
	}
	return libraries, nil
}

func (c *client) Discover(ctx context.Context, ids []int) ([]Experiment, error) {
	results := make([]Experiment, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			exp, err := c.resolve(ctx, id)
			if err != nil {
				return fmt.Errorf("experiment %d: %w", id, err)
			}
			results[i] = exp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *client) resolve(ctx context.Context, id int) (Experiment, error) {
	chips, err := c.Chips(ctx, id)
	if err != nil {
		return Experiment{}, err
	}

	libraries, err := c.Libraries(ctx, chips)
	if err != nil {
		return Experiment{}, err
	}

	exp := Experiment{ID: id, Chips: make([]Chip, len(chips))}
	for i, name := range chips {
		exp.Chips[i] = Chip{Name: name, Library: libraries[name]}
	}
	return exp, nil
}

func (c *client) get(ctx context.Context, op, path string, params url.Values, out any) (err error) {
	if c.base == nil {
		return ErrDisabled
	}

	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.Observe("lookup_"+op, err, time.Since(start))
		}
	}()

	target := c.base.JoinPath(path)
	if params != nil {
		target.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("lookup request failed", "op", op, "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("%w: %s returned %d", ErrUnavailable, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrUnavailable, path, err)
	}
	return nil
}
