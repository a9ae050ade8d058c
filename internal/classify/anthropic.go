package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const defaultAnthropicURL = "https://api.anthropic.com"

// AnthropicClassifier asks the Anthropic Messages API to label a line.
// Answers are cached by text, since running headers and footers repeat on
// every page.
type AnthropicClassifier struct {
	apiKey     string
	model      string
	baseURL    string
	attempts   uint
	delay      time.Duration
	httpClient *http.Client
	schema     *jsonschema.Schema

	cache sync.Map // string -> Prediction
}

func NewAnthropicClassifier(apiKey, model, baseURL string) (*AnthropicClassifier, error) {
	if baseURL == "" {
		baseURL = defaultAnthropicURL
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("prediction.json", strings.NewReader(predictionSchema)); err != nil {
		return nil, fmt.Errorf("load prediction schema: %w", err)
	}
	schema, err := compiler.Compile("prediction.json")
	if err != nil {
		return nil, fmt.Errorf("compile prediction schema: %w", err)
	}
	return &AnthropicClassifier{
		apiKey:   apiKey,
		model:    model,
		baseURL:  strings.TrimRight(baseURL, "/"),
		attempts: 3,
		delay:    500 * time.Millisecond,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		schema: schema,
	}, nil
}

func (c *AnthropicClassifier) Name() string { return "anthropic:" + c.model }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Classify labels text, retrying transient API failures with backoff.
func (c *AnthropicClassifier) Classify(ctx context.Context, text string) (Prediction, error) {
	key := strings.TrimSpace(text)
	if p, ok := c.cache.Load(key); ok {
		return p.(Prediction), nil
	}

	var pred Prediction
	err := retry.Do(
		func() error {
			var err error
			pred, err = c.call(ctx, key)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(IsRetryable),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return Prediction{}, err
	}
	c.cache.Store(key, pred)
	return pred, nil
}

func (c *AnthropicClassifier) call(ctx context.Context, text string) (Prediction, error) {
	reqBody := anthropicRequest{
		Model:     c.model,
		MaxTokens: 64,
		Messages: []anthropicMessage{
			{Role: "user", Content: BuildHeadingPrompt(text)},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return Prediction{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return Prediction{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Prediction{}, fmt.Errorf("anthropic api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Prediction{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return Prediction{}, &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return Prediction{}, fmt.Errorf("anthropic api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return Prediction{}, fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return Prediction{}, fmt.Errorf("anthropic error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if len(apiResp.Content) == 0 {
		return Prediction{}, fmt.Errorf("empty response from anthropic")
	}

	return c.parse(apiResp.Content[0].Text)
}

// parse validates the model's answer against the prediction schema.
func (c *AnthropicClassifier) parse(raw string) (Prediction, error) {
	text := stripCodeBlock(raw)

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return Prediction{}, fmt.Errorf("parse prediction json: %w (raw: %s)", err, truncate(text, 200))
	}
	if err := c.schema.Validate(doc); err != nil {
		return Prediction{}, fmt.Errorf("prediction does not match schema: %w", err)
	}

	var p Prediction
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return Prediction{}, fmt.Errorf("decode prediction: %w", err)
	}
	return p, nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// Close releases resources.
func (c *AnthropicClassifier) Close() {
	c.httpClient.CloseIdleConnections()
}
