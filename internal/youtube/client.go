// Package youtube collects the comments of a video through the YouTube
// Data API v3: every top-level comment thread, page by page, and when
// asked the full reply chain of each thread.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	gojson "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/cognicore/basket/internal/logging"
)

// DefaultBaseURL is the public Data API root.
const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

// APIKeyEnvVar is consulted when Config.APIKey is empty.
const APIKeyEnvVar = "YOUTUBE_API_KEY"

// pageSize is the API maximum for both list endpoints.
const pageSize = 100

// ErrMissingAPIKey is returned by New when no key is configured.
var ErrMissingAPIKey = errors.New("youtube: missing API key (set " + APIKeyEnvVar + ")")

// StatusError is a non-200 API response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("youtube: request failed: %d / %s", e.Code, e.Message)
}

// Temporary reports whether the request may succeed when retried.
func (e *StatusError) Temporary() bool {
	switch e.Code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Config configures a Client.
type Config struct {
	APIKey            string
	BaseURL           string
	IncludeReplies    bool
	MaxTotal          int           // stop after this many comments, 0 for all
	RequestsPerSecond float64       // request pacing
	MaxRetries        int           // attempts per request, including the first
	Timeout           time.Duration // per HTTP request
	ReplyWorkers      int           // concurrent reply fetches per page

	// InitialBackoff is the first retry delay; it doubles per attempt with
	// jitter. Zero means one second.
	InitialBackoff time.Duration

	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client fetches comment threads and replies.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// New builds a client, filling defaults for zero fields.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(APIKeyEnvVar)
	}
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.ReplyWorkers <= 0 {
		cfg.ReplyWorkers = 4
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}

	c := &Client{
		cfg:     cfg,
		http:    cfg.HTTPClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger != nil {
		c.log = cfg.Logger.With().Str("component", "youtube").Logger()
	} else {
		c.log = logging.With().Str("component", "youtube").Logger()
	}
	return c, nil
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0.4
	b.MaxInterval = 32 * c.cfg.InitialBackoff
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.MaxRetries-1)), ctx)
}

// getJSON issues GET endpoint?params and decodes the body into out,
// retrying rate-limit and server errors with exponential backoff.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	params.Set("key", c.cfg.APIKey)
	if params.Get("pageToken") == "" {
		params.Del("pageToken")
	}
	u := c.cfg.BaseURL + "/" + endpoint + "?" + params.Encode()

	op := func() ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}
		return c.fetch(ctx, u)
	}
	notify := func(err error, wait time.Duration) {
		c.log.Warn().Err(err).Str("endpoint", endpoint).Dur("sleep", wait).Msg("retrying")
	}

	body, err := backoff.RetryNotifyWithData(op, c.newBackOff(ctx), notify)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Temporary() {
			return fmt.Errorf("youtube: max retries exceeded for %s: %w", endpoint, err)
		}
		return err
	}
	if err := gojson.Unmarshal(body, out); err != nil {
		return fmt.Errorf("youtube: decode %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, err // transport errors are retried
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusOK {
		return body, nil
	}

	se := &StatusError{Code: resp.StatusCode, Message: errorMessage(body)}
	if se.Temporary() {
		return nil, se
	}
	return nil, backoff.Permanent(se)
}

// errorMessage extracts error.message from an API error body, falling back
// to the raw text.
func errorMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if gojson.Unmarshal(body, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return msg
}
