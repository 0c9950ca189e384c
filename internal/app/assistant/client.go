package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"backend/internal/config"

	"go.uber.org/zap"
)

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []Turn `json:"messages"`
	Stream   bool   `json:"stream"`
}

type apiError struct {
	LimitReached bool   `json:"limit_reached"`
	Message      string `json:"message"`
	Error        struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client streams chat completions from the upstream model endpoint and
// surfaces exactly one terminal signal per request.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	logger     *zap.SugaredLogger
}

func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		// No client timeout: the response is an open stream; lifetime is
		// bounded by the request context.
		httpClient: &http.Client{},
		endpoint:   cfg.AIEndpoint,
		apiKey:     cfg.AIAPIKey,
		model:      cfg.AIModel,
		logger:     logger.Sugar(),
	}
}

// StreamChat posts the prior turns and invokes onDelta for every text
// fragment, in arrival order, as soon as it decodes.
func (c *Client) StreamChat(ctx context.Context, turns []Turn, onDelta func(string)) error {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: turns,
		Stream:   true,
	})
	if err != nil {
		return fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp)
	}

	decoder := NewDecoder()
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, delta := range decoder.Feed(buf[:n]) {
				onDelta(delta)
			}
		}
		if decoder.Done() {
			break
		}
		if readErr == io.EOF {
			// Stream ended without an explicit sentinel: flush whatever
			// is still decodable, then treat it as a clean completion.
			for _, delta := range decoder.Close() {
				onDelta(delta)
			}
			break
		}
		if readErr != nil {
			return fmt.Errorf("%w: %v", ErrTransport, readErr)
		}
	}

	if dropped := decoder.Dropped(); dropped > 0 {
		c.logger.Warnw("Dropped malformed stream frames at end of stream", "count", dropped)
	}
	return nil
}

func (c *Client) statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr apiError
	_ = json.Unmarshal(raw, &apiErr)
	msg := apiErr.Error.Message
	if msg == "" {
		msg = apiErr.Message
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusPaymentRequired:
		if apiErr.LimitReached {
			return ErrQuotaExceeded
		}
		return ErrServiceUnavailable
	default:
		if msg == "" {
			msg = string(raw)
		}
		return fmt.Errorf("assistant request failed with status %d: %s", resp.StatusCode, msg)
	}
}
