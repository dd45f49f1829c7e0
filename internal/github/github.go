// Package github provides an HTTP client for the GitHub REST API,
// covering the read-only subset the scanner needs: repository lists,
// recursive git trees, raw file contents and per-repo language bytes.
//
// All calls go through a shared token bucket so concurrent scans stay
// inside GitHub's rate budget, and every response is cached with an
// endpoint-specific TTL so repeated card loads for the same user do
// not re-hit the API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/gitcards/git-cards/internal/cache"
	apperrors "github.com/gitcards/git-cards/internal/pkg/errors"
	"github.com/gitcards/git-cards/internal/pkg/hash"
)

// Cache TTLs per endpoint class. Repo lists churn slowly, file blobs
// are immutable for a given SHA-less raw URL in practice, trees sit in
// between.
const (
	RepoListTTL = time.Hour
	TreeTTL     = 30 * time.Minute
	FileTTL     = 24 * time.Hour
)

// MaxFileSize is the largest raw file the client will return. Larger
// files are truncated at the read, not rejected, because generated and
// minified files past this size carry no extra identifier signal.
const MaxFileSize = 100 * 1024

// Repo is one repository owned by the scanned user.
type Repo struct {
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	DefaultBranch string    `json:"default_branch"`
	Fork          bool      `json:"fork"`
	Size          int       `json:"size"`
	PushedAt      time.Time `json:"pushed_at"`
}

// TreeEntry is one entry of a recursive git tree.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// Config configures the client.
type Config struct {
	// APIBaseURL is the REST API root, https://api.github.com unless
	// pointed at a test server.
	APIBaseURL string

	// RawBaseURL is the raw content root,
	// https://raw.githubusercontent.com unless overridden.
	RawBaseURL string

	// Token is an optional bearer token; unauthenticated requests get
	// 60 req/h from GitHub, authenticated ones 5000.
	Token string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// RequestsPerSecond caps the sustained request rate across all
	// concurrent scans.
	RequestsPerSecond float64

	// Burst is the token bucket size.
	Burst int

	// MaxIdleConns and MaxConnsPerHost tune the connection pool.
	MaxIdleConns    int
	MaxConnsPerHost int
	IdleConnTimeout time.Duration

	// Metrics receives request and cache observations. Nil disables
	// recording.
	Metrics Recorder
}

// Recorder receives client-side metrics. Implementations must be safe
// for concurrent use; the scanner drives the client from many workers.
type Recorder interface {
	RecordGitHubRequest(endpoint string, latencyMs int64, err error)
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		APIBaseURL:        "https://api.github.com",
		RawBaseURL:        "https://raw.githubusercontent.com",
		Timeout:           10 * time.Second,
		RequestsPerSecond: 10,
		Burst:             20,
		MaxIdleConns:      100,
		MaxConnsPerHost:   50,
		IdleConnTimeout:   90 * time.Second,
	}
}

// Client talks to the GitHub API on behalf of the scanner.
type Client struct {
	apiBase    string
	rawBase    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      cache.Cache
	metrics    Recorder
}

// New creates a client. A nil store disables caching.
func New(cfg Config, store cache.Cache) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.github.com"
	}
	if cfg.RawBaseURL == "" {
		cfg.RawBaseURL = "https://raw.githubusercontent.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Burst == 0 {
		cfg.Burst = 20
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxConnsPerHost == 0 {
		cfg.MaxConnsPerHost = 50
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}
	if store == nil {
		store = cache.Nop{}
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		apiBase: strings.TrimRight(cfg.APIBaseURL, "/"),
		rawBase: strings.TrimRight(cfg.RawBaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		cache:   store,
		metrics: cfg.Metrics,
	}
}

// ListRepos returns the user's own repositories, forks excluded,
// newest push first.
func (c *Client) ListRepos(ctx context.Context, user string) ([]Repo, error) {
	path := fmt.Sprintf("/users/%s/repos?per_page=100&sort=pushed&type=owner", url.PathEscape(user))

	body, err := c.getCached(ctx, c.apiBase+path, "repos:"+user, "repos", RepoListTTL)
	if err != nil {
		return nil, err
	}

	var repos []Repo
	if err := json.Unmarshal(body, &repos); err != nil {
		return nil, apperrors.UpstreamError("decoding repo list", err)
	}

	out := repos[:0]
	for _, r := range repos {
		if r.Fork {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PushedAt.After(out[j].PushedAt) })
	return out, nil
}

// Tree returns the recursive git tree of the repo's default branch.
// Only blob entries are returned.
func (c *Client) Tree(ctx context.Context, user, repo, branch string) ([]TreeEntry, error) {
	if branch == "" {
		branch = "HEAD"
	}
	path := fmt.Sprintf("/repos/%s/%s/git/trees/%s?recursive=1",
		url.PathEscape(user), url.PathEscape(repo), url.PathEscape(branch))

	body, err := c.getCached(ctx, c.apiBase+path, fmt.Sprintf("tree:%s/%s@%s", user, repo, branch), "tree", TreeTTL)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Tree      []TreeEntry `json:"tree"`
		Truncated bool        `json:"truncated"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.UpstreamError("decoding git tree", err)
	}

	blobs := make([]TreeEntry, 0, len(resp.Tree))
	for _, e := range resp.Tree {
		if e.Type == "blob" {
			blobs = append(blobs, e)
		}
	}
	return blobs, nil
}

// RawFile returns the file's content from the raw content host,
// truncated to MaxFileSize.
func (c *Client) RawFile(ctx context.Context, user, repo, branch, filePath string) ([]byte, error) {
	if branch == "" {
		branch = "HEAD"
	}
	segments := strings.Split(filePath, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	rawURL := fmt.Sprintf("%s/%s/%s/%s/%s",
		c.rawBase, url.PathEscape(user), url.PathEscape(repo),
		url.PathEscape(branch), strings.Join(segments, "/"))

	key := hash.FileKey(user, repo, branch, filePath)

	if body, err := c.cache.Get(ctx, key); err == nil {
		c.recordCacheHit("raw")
		return body, nil
	}
	c.recordCacheMiss("raw")

	start := time.Now()
	body, err := c.fetch(ctx, rawURL, MaxFileSize)
	c.recordRequest("raw", start, err)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(ctx, key, body, FileTTL)
	return body, nil
}

// Languages returns the byte counts GitHub attributes to each language
// in the repo.
func (c *Client) Languages(ctx context.Context, user, repo string) (map[string]int64, error) {
	path := fmt.Sprintf("/repos/%s/%s/languages", url.PathEscape(user), url.PathEscape(repo))

	body, err := c.getCached(ctx, c.apiBase+path, fmt.Sprintf("langs:%s/%s", user, repo), "languages", RepoListTTL)
	if err != nil {
		return nil, err
	}

	var langs map[string]int64
	if err := json.Unmarshal(body, &langs); err != nil {
		return nil, apperrors.UpstreamError("decoding language stats", err)
	}
	return langs, nil
}

// getCached serves the URL from cache when possible, otherwise fetches
// and stores the response. Cache failures degrade to a plain fetch.
func (c *Client) getCached(ctx context.Context, rawURL, key, endpoint string, ttl time.Duration) ([]byte, error) {
	if body, err := c.cache.Get(ctx, key); err == nil {
		c.recordCacheHit(endpoint)
		return body, nil
	}
	c.recordCacheMiss(endpoint)

	start := time.Now()
	body, err := c.fetch(ctx, rawURL, 0)
	c.recordRequest(endpoint, start, err)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(ctx, key, body, ttl)
	return body, nil
}

func (c *Client) recordRequest(endpoint string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordGitHubRequest(endpoint, time.Since(start).Milliseconds(), err)
}

func (c *Client) recordCacheHit(endpoint string) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordCacheHit(endpoint)
}

func (c *Client) recordCacheMiss(endpoint string) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordCacheMiss(endpoint)
}

// fetch performs one rate-limited GET. A positive maxBytes truncates
// the body at that size; zero means unbounded (API JSON responses).
func (c *Client) fetch(ctx context.Context, rawURL string, maxBytes int64) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.TimeoutError("waiting for rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperrors.UpstreamError("creating request", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "git-cards")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.UpstreamError("request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.NotFoundError("resource")
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		retry := parseRetryAfter(resp.Header)
		return nil, apperrors.RateLimitedError(retry)
	case resp.StatusCode >= 400:
		return nil, apperrors.UpstreamError(fmt.Sprintf("HTTP %d from %s", resp.StatusCode, resp.Request.URL.Host), nil)
	}

	var reader io.Reader = resp.Body
	if maxBytes > 0 {
		reader = io.LimitReader(resp.Body, maxBytes)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperrors.UpstreamError("reading response", err)
	}
	return body, nil
}

func parseRetryAfter(h http.Header) int {
	if v := h.Get("Retry-After"); v != "" {
		var seconds int
		if _, err := fmt.Sscanf(v, "%d", &seconds); err == nil {
			return seconds
		}
	}
	return 0
}
