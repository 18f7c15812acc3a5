// Package line is the LINE Messaging API client: webhook signature
// verification and reply/push delivery. Replies are best-effort; the
// webhook endpoint acknowledges the platform regardless of send outcome.
package line

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cw-satou/astral-backend/internal/pkg/ctxutil"
	"github.com/cw-satou/astral-backend/internal/pkg/envutil"
	"github.com/cw-satou/astral-backend/internal/pkg/httpx"
	"github.com/cw-satou/astral-backend/internal/pkg/logger"
)

type Client interface {
	ValidateSignature(body []byte, signature string) bool
	ReplyText(ctx context.Context, replyToken string, texts ...string) error
	PushText(ctx context.Context, to string, texts ...string) error
}

type Config struct {
	ChannelSecret      string
	ChannelAccessToken string
	BaseURL            string
	Timeout            time.Duration
	MaxRetries         int
}

func ConfigFromEnv() Config {
	timeoutSec := envutil.Int("LINE_TIMEOUT_SECONDS", 30)
	maxRetries := envutil.Int("LINE_MAX_RETRIES", 4)

	return Config{
		ChannelSecret:      strings.TrimSpace(os.Getenv("LINE_CHANNEL_SECRET")),
		ChannelAccessToken: strings.TrimSpace(os.Getenv("LINE_CHANNEL_ACCESS_TOKEN")),
		BaseURL:            strings.TrimSpace(os.Getenv("LINE_BASE_URL")),
		Timeout:            time.Duration(timeoutSec) * time.Second,
		MaxRetries:         maxRetries,
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.ChannelSecret == "" {
		return nil, fmt.Errorf("missing LINE_CHANNEL_SECRET")
	}
	if cfg.ChannelAccessToken == "" {
		return nil, fmt.Errorf("missing LINE_CHANNEL_ACCESS_TOKEN")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.line.me"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 4
	}

	return &client{
		log:        log.With("client", "LineClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
	maxRetries int
}

// --- webhook wire types ---

type WebhookRequest struct {
	Destination string         `json:"destination"`
	Events      []WebhookEvent `json:"events"`
}

type WebhookEvent struct {
	Type       string          `json:"type"`
	ReplyToken string          `json:"replyToken,omitempty"`
	Source     *EventSource    `json:"source,omitempty"`
	Message    *MessageContent `json:"message,omitempty"`
	Timestamp  int64           `json:"timestamp,omitempty"`
}

type EventSource struct {
	Type   string `json:"type"`
	UserID string `json:"userId,omitempty"`
}

type MessageContent struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Text string `json:"text,omitempty"`
}

// --- messaging wire types ---

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []textMessage `json:"messages"`
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

// ValidateSignature checks the X-Line-Signature header: base64 of
// HMAC-SHA256 over the raw body keyed by the channel secret.
func (c *client) ValidateSignature(body []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return false
	}
	provided, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.cfg.ChannelSecret))
	_, _ = mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}

func (c *client) ReplyText(ctx context.Context, replyToken string, texts ...string) error {
	replyToken = strings.TrimSpace(replyToken)
	if replyToken == "" {
		return fmt.Errorf("line: replyToken required")
	}
	msgs, err := buildTextMessages(texts)
	if err != nil {
		return err
	}
	return c.do(ctx, "/v2/bot/message/reply", replyRequest{ReplyToken: replyToken, Messages: msgs})
}

func (c *client) PushText(ctx context.Context, to string, texts ...string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("line: to required")
	}
	msgs, err := buildTextMessages(texts)
	if err != nil {
		return err
	}
	return c.do(ctx, "/v2/bot/message/push", pushRequest{To: to, Messages: msgs})
}

func buildTextMessages(texts []string) ([]textMessage, error) {
	msgs := make([]textMessage, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		msgs = append(msgs, textMessage{Type: "text", Text: t})
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("line: at least one non-empty message required")
	}
	// the messaging API caps one request at five messages
	if len(msgs) > 5 {
		msgs = msgs[:5]
	}
	return msgs, nil
}

// ---------- HTTP / retry helpers ----------

type apiError struct {
	Message string `json:"message"`
}

type HTTPError struct {
	StatusCode int
	Body       string
	APIError   *apiError
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "line: <nil error>"
	}
	if e.APIError != nil && strings.TrimSpace(e.APIError.Message) != "" {
		return fmt.Sprintf("line http %d: %s", e.StatusCode, e.APIError.Message)
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 4000 {
		msg = msg[:4000] + "..."
	}
	return fmt.Sprintf("line http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) do(ctx context.Context, path string, body any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx != nil && ctx.Err() != nil {
			return ctx.Err()
		}

		resp, err := c.doOnce(ctx, path, body)
		if err == nil {
			return nil
		}

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("LINE request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return errors.New("unreachable retry loop")
}

func (c *client) doOnce(ctx context.Context, path string, body any) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), "POST", c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.ChannelAccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		he := &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && strings.TrimSpace(ae.Message) != "" {
			he.APIError = &ae
		}
		return resp, he
	}

	return resp, nil
}
