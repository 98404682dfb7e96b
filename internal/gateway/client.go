package gateway

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/lumieapp/lumie-sync/internal/credentials"
	"github.com/lumieapp/lumie-sync/internal/errors"
	"github.com/lumieapp/lumie-sync/internal/ratelimit"
)

const (
	// Rate limit: 10 requests per second per collection, burst of 5.
	defaultRPS   = 10.0
	defaultBurst = 5

	// HTTP client settings.
	defaultTimeout = 30 * time.Second
)

// Collection keys for rate limiting.
const (
	keyTags     = "tags"
	keyBags     = "bags"
	keyProducts = "products"
	keyUsage    = "usage"
	keyJourney  = "journey"
)

// Client is a rate-limited HTTP client for the Lumie backend.
type Client struct {
	baseURL  *url.URL
	ownerID  string
	clientID string

	http     *http.Client
	creds    credentials.Provider
	limiter  *ratelimit.KeyedRateLimiter
	validate *validator.Validate
	logger   *slog.Logger
}

// Options configures optional client settings.
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64
}

// New creates a new backend client. All collection endpoints are scoped to
// the given owner.
func New(baseURL, ownerID string, creds credentials.Provider, logger *slog.Logger, opts Options) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = defaultRPS
	}

	return &Client{
		baseURL:  parsed,
		ownerID:  ownerID,
		clientID: uuid.NewString(),
		http: &http.Client{
			Timeout: opts.Timeout,
		},
		creds:    creds,
		limiter:  ratelimit.New(opts.RequestsPerSecond, defaultBurst),
		validate: validator.New(),
		logger:   logger,
	}, nil
}

// doJSON executes one request with rate limiting and bearer auth, decoding
// the response body into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, key, path string, body, out any) error {
	if err := c.limiter.Wait(ctx, key); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	token, err := c.creds.Token()
	if err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.MarshalWrite(buf, body); err != nil {
			return errors.Wrap(err, errors.CodeInternal, "encode request body")
		}
		reqBody = buf
	}

	u := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Client-ID", c.clientID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("backend request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, errors.CodeNetwork, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, method, path); err != nil {
		return err
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.UnmarshalRead(resp.Body, out); err != nil {
		return errors.Wrapf(err, errors.CodeDecoding, "decode %s %s response", method, path)
	}
	return nil
}

// checkStatus maps non-2xx responses onto the error taxonomy.
func (c *Client) checkStatus(resp *http.Response, method, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Drain a bounded amount for the error message.
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.Unauthorized(fmt.Sprintf("%s %s: status %d", method, path, resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return errors.NotFoundf("%s %s: status 404", method, path)
	case resp.StatusCode == http.StatusConflict:
		return errors.Conflict(fmt.Sprintf("%s %s: status 409", method, path))
	case resp.StatusCode >= 500:
		return errors.Network(fmt.Sprintf("%s %s: status %d", method, path, resp.StatusCode))
	default:
		return errors.Network(fmt.Sprintf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, string(snippet)))
	}
}

// userPath builds an owner-scoped path, e.g. users/{owner}/tags.
// Every segment is escaped so backend identifiers can't break the path.
func (c *Client) userPath(parts ...string) string {
	segments := make([]string, 0, len(parts)+2)
	segments = append(segments, "users", url.PathEscape(c.ownerID))
	for _, p := range parts {
		segments = append(segments, url.PathEscape(p))
	}
	return strings.Join(segments, "/")
}
