package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// Sender delivers a short text message to one recipient.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// RetryableError indicates a transient delivery failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

const twilioAPI = "https://api.twilio.com/2010-04-01"

// TwilioSender sends WhatsApp messages through the Twilio Messages API.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	attempts   uint
	delay      time.Duration
	httpClient *http.Client
	log        *slog.Logger
}

// TwilioOption customizes a TwilioSender.
type TwilioOption func(*TwilioSender)

// WithBaseURL points the sender at another API root.
func WithBaseURL(u string) TwilioOption {
	return func(s *TwilioSender) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithRetry sets the attempt count and the base delay between attempts.
func WithRetry(attempts uint, delay time.Duration) TwilioOption {
	return func(s *TwilioSender) {
		s.attempts = attempts
		s.delay = delay
	}
}

func NewTwilioSender(accountSID, authToken, from string, log *slog.Logger, opts ...TwilioOption) *TwilioSender {
	s := &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       WhatsAppAddress(from),
		baseURL:    twilioAPI,
		attempts:   3,
		delay:      time.Second,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// WhatsAppAddress adds the "whatsapp:" scheme to a bare phone number.
func WhatsAppAddress(number string) string {
	number = strings.TrimSpace(number)
	if number == "" || strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}

type twilioResponse struct {
	SID     string `json:"sid"`
	Message string `json:"message"`
}

// Send posts body to the recipient, retrying on 429 and 5xx responses.
func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	to = WhatsAppAddress(to)
	log := s.log.With("to", to)
	return retry.Do(
		func() error {
			sid, err := s.post(ctx, to, body)
			if err != nil {
				return err
			}
			log.Info("whatsapp message sent", "sid", sid)
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("retryable send error", "attempt", n, "error", err)
		}),
	)
}

func (s *TwilioSender) post(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("From", s.from)
	form.Set("To", to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.baseURL, url.PathEscape(s.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.accountSID, s.authToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("twilio api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var tr twilioResponse
	if err := json.Unmarshal(respBody, &tr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return tr.SID, nil
}

// Close releases idle connections.
func (s *TwilioSender) Close() {
	s.httpClient.CloseIdleConnections()
}

// SendChunked splits text with Split and sends each part in order, pausing
// delay between parts. It stops at the first failed part.
func SendChunked(ctx context.Context, s Sender, to, text string, maxLen int, delay time.Duration) error {
	parts, err := Split(text, maxLen)
	if err != nil {
		return err
	}
	for i, part := range parts {
		if i > 0 && delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := s.Send(ctx, to, part); err != nil {
			return fmt.Errorf("send part %d/%d: %w", i+1, len(parts), err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
