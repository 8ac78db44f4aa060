// Package slidesgpt talks to the remote SlidesGPT generation service.  The
// remote API is stateless per call; continuity across calls is carried only
// by the correlation identity headers attached to every request.
package slidesgpt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"slides2mcp/internal/model"
)

const (
	defaultBaseURL = "https://api.slidesgpt.com"
	defaultTimeout = 60 * time.Second

	// apiVersion is the protocol-version marker sent on every generate call.
	apiVersion = "v1"

	headerUserID         = "ephemeral-user-id"
	headerConversationID = "conversation-id"
)

// Identity is the remote correlation identity of one presentation context.
// The remote service groups calls carrying the same identity into one deck.
type Identity struct {
	UserID         string
	ConversationID string
}

// Client issues HTTP calls against the SlidesGPT endpoints.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *slog.Logger
	// MaxRetries bounds the retry envelope around idempotent calls.
	MaxRetries int
}

// NewClient returns a client for the given base URL.  An empty baseURL
// selects the production endpoint.
func NewClient(baseURL, apiKey string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		APIKey:     strings.TrimSpace(apiKey),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		Logger:     slog.Default(),
		MaxRetries: 2,
	}
}

type generateRequest struct {
	API string `json:"api"`
	model.Slide
}

// Generate asks the remote service to render one slide.  Generation is not
// idempotent on the remote side, so the call is made exactly once; a non-2xx
// status yields a RemoteError with the status and raw body.
func (c *Client) Generate(ctx context.Context, slide model.Slide, id Identity) (*model.GenerateResult, error) {
	body, err := json.Marshal(generateRequest{API: apiVersion, Slide: slide})
	if err != nil {
		return nil, &model.RemoteError{Op: "generate", Cause: err}
	}

	var out model.GenerateResult
	if err := c.doJSON(ctx, http.MethodPost, "/generate", id, bytes.NewReader(body), &out, "generate"); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchImages looks up stock image candidates for a caption.  An empty
// result list is a valid answer, not an error.  The call is idempotent and
// retried with exponential backoff on transient failures.
func (c *Client) SearchImages(ctx context.Context, caption string) ([]model.ImageResult, error) {
	path := "/search?caption=" + url.QueryEscape(caption)

	var results []model.ImageResult
	op := func() error {
		results = nil
		err := c.doJSON(ctx, http.MethodGet, path, Identity{}, nil, &results, "search")
		if err != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), uint64(c.MaxRetries)), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}
	if results == nil {
		results = []model.ImageResult{}
	}
	return results, nil
}

type applyThemeRequest struct {
	DeckID  string `json:"deckId"`
	ThemeID string `json:"themeId"`
}

// ApplyTheme re-renders every slide of a deck in the given theme.  Applying
// the same theme twice converges on the same deck state, so transient
// failures are retried.
func (c *Client) ApplyTheme(ctx context.Context, deckID, themeID string, id Identity) (*model.ThemeResult, error) {
	body, err := json.Marshal(applyThemeRequest{DeckID: deckID, ThemeID: themeID})
	if err != nil {
		return nil, &model.RemoteError{Op: "apply-theme", Cause: err}
	}

	var out model.ThemeResult
	op := func() error {
		out = model.ThemeResult{}
		// Fresh reader per attempt: a consumed bytes.Reader cannot be rewound.
		err := c.doJSON(ctx, http.MethodPost, "/apply-theme", id, bytes.NewReader(body), &out, "apply-theme")
		if err != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), uint64(c.MaxRetries)), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}
	return &out, nil
}

// doJSON performs one request and decodes a JSON response into out.  A body
// reader, when non-nil, must be re-creatable by the caller for retries (we
// marshal to a fresh bytes.Reader per attempt in the retrying methods).
func (c *Client) doJSON(ctx context.Context, method, path string, id Identity, body io.Reader, out interface{}, op string) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return &model.RemoteError{Op: op, Cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	if id.UserID != "" {
		req.Header.Set(headerUserID, id.UserID)
	}
	if id.ConversationID != "" {
		req.Header.Set(headerConversationID, id.ConversationID)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return &model.RemoteError{Op: op, Retryable: true, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &model.RemoteError{Op: op, StatusCode: resp.StatusCode, Retryable: true, Cause: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &model.RemoteError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
			Retryable:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &model.RemoteError{
			Op:    op,
			Cause: fmt.Errorf("malformed response body: %w", err),
			Body:  strings.TrimSpace(string(raw)),
		}
	}
	return nil
}

func newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	return bo
}

func isRetryable(err error) bool {
	re, ok := err.(*model.RemoteError)
	return ok && re.Retryable
}
