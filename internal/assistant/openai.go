package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyCompletion is returned when the model answers without choices.
var ErrEmptyCompletion = errors.New("completion returned no choices")

// RetryConfig holds retry settings for model requests.
type RetryConfig struct {
	MaxAttempts       int
	BackoffBase       time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
}

// DefaultRetryConfig keeps phrasing retries short: the fixed reply is always
// available as a fallback.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       2,
		BackoffBase:       500 * time.Millisecond,
		BackoffMultiplier: 2.0,
		MaxBackoff:        5 * time.Second,
	}
}

// OpenAIOptions configures the OpenAI phraser.
type OpenAIOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
	Retry       RetryConfig
}

// OpenAI phrases replies through the chat completions API.
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
	retry       RetryConfig
	logger      *slog.Logger
}

// NewOpenAI creates a phraser for any OpenAI-compatible endpoint.
func NewOpenAI(opts OpenAIOptions, logger *slog.Logger) *OpenAI {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	retry := opts.Retry
	if retry.MaxAttempts < 1 {
		retry = DefaultRetryConfig()
	}

	return &OpenAI{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: opts.Temperature,
		timeout:     opts.Timeout,
		retry:       retry,
		logger:      logger.With("system", "openai", "model", opts.Model),
	}
}

func (o *OpenAI) Phrase(ctx context.Context, req PhraseRequest) (string, error) {
	prompt := ComposePrompt(req)

	msgs := make([]openai.ChatCompletionMessage, len(prompt))
	for i, m := range prompt {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	request := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    msgs,
		Temperature: o.temperature,
	}

	backoff := o.retry.BackoffBase
	var lastErr error

	for attempt := 1; attempt <= o.retry.MaxAttempts; attempt++ {
		text, err := o.complete(ctx, request)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !transient(err) || attempt == o.retry.MaxAttempts {
			break
		}

		o.logger.Debug("retrying completion", "attempt", attempt, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(time.Duration(float64(backoff)*o.retry.BackoffMultiplier), o.retry.MaxBackoff)
	}

	return "", fmt.Errorf("openai completion: %w", lastErr)
}

func (o *OpenAI) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// transient reports whether a failed request is worth retrying: rate
// limits, server errors and timeouts.
func transient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}

	return false
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
