package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/okian/podium/internal/adapters/http/auth"
	"github.com/okian/podium/internal/domain/types"
)

const maxRetries = 5

// ErrUnhealthy is returned when the service health check fails.
var ErrUnhealthy = errors.New("service unhealthy")

// APIError is a non-2xx response from the service.
type APIError struct {
	Status     int
	Code       string
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("http %d %s: %s", e.Status, e.Code, e.Message)
}

// Client talks to the podium HTTP API on behalf of many users, minting a
// token for each user from the shared secret.
type Client struct {
	baseURL string
	http    *http.Client
	issuer  *auth.HS256
	stats   *Stats

	mu     sync.Mutex
	tokens map[string]string
}

// NewClient creates a client for cfg.BaseURL.
func NewClient(cfg *Config, stats *Stats) (*Client, error) {
	issuer, err := auth.NewHS256(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		issuer:  issuer,
		stats:   stats,
		tokens:  make(map[string]string),
	}, nil
}

func (c *Client) token(user string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.tokens[user]; ok {
		return t, nil
	}
	t, err := c.issuer.Issue(user)
	if err != nil {
		return "", err
	}
	c.tokens[user] = t
	return t, nil
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/healthz", "", nil, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	return nil
}

// Leaderboard fetches the full leaderboard for eventID.
func (c *Client) Leaderboard(ctx context.Context, eventID string) (types.LeaderboardResponse, error) {
	var lb types.LeaderboardResponse
	err := c.do(ctx, http.MethodGet, "/api/events/"+eventID+"/leaderboard", "", nil, &lb)
	return lb, err
}

// do sends in as JSON as user and decodes the response into out. A 429 is
// retried after the advertised delay.
func (c *Client) do(ctx context.Context, method, path, user string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}
	for attempt := 0; ; attempt++ {
		err := c.once(ctx, method, path, user, body, out)
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusTooManyRequests || attempt >= maxRetries {
			if err != nil {
				c.stats.Failed.Add(1)
			}
			return err
		}
		c.stats.RateLimited.Add(1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(apiErr.RetryAfter):
		}
	}
}

func (c *Client) once(ctx context.Context, method, path, user string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		token, err := c.token(user)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.stats.Requests.Add(1)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var er types.ErrorResponse
		if json.Unmarshal(data, &er) == nil {
			apiErr.Code, apiErr.Message = er.Code, er.Message
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			apiErr.RetryAfter = time.Second
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
				apiErr.RetryAfter = time.Duration(secs) * time.Second
			}
		}
		return apiErr
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
