// Package connector delivers outbound messages to the channel connector
// service that routed the inbound activity. Each message is posted to the
// conversation's activities endpoint on the service URL carried by the
// message itself.
package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"welcome-bot/internal/domain"
)

// tokenPayload is the expected JSON shape stored in SSM for the bearer token.
type tokenPayload struct {
	Token string `json:"token"`
}

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures non-2xx connector responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("connector: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client posts outbound messages back to the connector service. It performs
// no retries and no reordering: the caller's Send order is the wire order.
type Client struct {
	httpClient   *http.Client
	getter       Getter
	paramPrefix  string
	authDisabled bool
	serviceURL   string // optional override; normally taken per-message

	tokenOnce sync.Once
	token     string
	tokenErr  error
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithAuthDisabled skips bearer-token auth entirely. Local emulators do not
// verify credentials.
func WithAuthDisabled() Option {
	return func(c *Client) {
		c.authDisabled = true
	}
}

// WithServiceURL pins all sends to one connector endpoint instead of the
// service URL carried on each message.
func WithServiceURL(serviceURL string) Option {
	return func(c *Client) {
		c.serviceURL = strings.TrimSpace(serviceURL)
	}
}

// NewClient creates a Client backed by the given paramstore Getter for
// bearer-token retrieval. The token is fetched on the first Send and reused
// for the lifetime of the process. With WithAuthDisabled the getter and
// prefix may be omitted.
func NewClient(ps Getter, paramPrefix string, opts ...Option) (*Client, error) {
	c := &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		getter:      ps,
		paramPrefix: strings.TrimRight(strings.TrimSpace(paramPrefix), "/"),
	}
	for _, opt := range opts {
		opt(c)
	}

	if !c.authDisabled {
		if c.getter == nil {
			return nil, errors.New("connector: paramstore getter must not be nil")
		}
		if c.paramPrefix == "" {
			return nil, errors.New("connector: parameter prefix must not be empty")
		}
	}
	return c, nil
}

// Send delivers one outbound message. Errors propagate unchanged to the
// caller; the host owns retry policy.
func (c *Client) Send(ctx context.Context, msg domain.OutboundMessage) error {
	serviceURL := c.serviceURL
	if serviceURL == "" {
		serviceURL = strings.TrimSpace(msg.ServiceURL)
	}
	if serviceURL == "" {
		return errors.New("connector: message has no service URL")
	}
	if msg.Conversation.ID == "" {
		return errors.New("connector: message has no conversation id")
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("connector: marshal message: %w", err)
	}

	endpoint := activitiesURL(serviceURL, msg.Conversation.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("connector: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if !c.authDisabled {
		token, err := c.resolveToken(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return fmt.Errorf("connector: send failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        endpoint,
			Body:       string(buf),
		}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<20))
	return nil
}

// resolveToken fetches the bearer token from SSM on the first call and
// returns the cached result on every subsequent call within the same
// process lifetime.
func (c *Client) resolveToken(ctx context.Context) (string, error) {
	c.tokenOnce.Do(func() {
		c.token, c.tokenErr = fetchTokenFromParamStore(ctx, c.getter, c.tokenParameterName())
	})
	return c.token, c.tokenErr
}

func (c *Client) tokenParameterName() string {
	return c.paramPrefix + "/connector-token"
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func activitiesURL(serviceURL, conversationID string) string {
	base := strings.TrimRight(serviceURL, "/")
	return base + "/v3/conversations/" + url.PathEscape(conversationID) + "/activities"
}

func fetchTokenFromParamStore(ctx context.Context, getter Getter, name string) (string, error) {
	if getter == nil {
		return "", errors.New("connector: paramstore getter is nil")
	}

	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("connector: fetch token from paramstore: %w", err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("connector: unmarshal paramstore token value as JSON: %w", err)
	}
	if tp.Token == "" {
		return "", errors.New("connector: bearer token is empty")
	}
	return tp.Token, nil
}
