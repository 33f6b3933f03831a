package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"blanknote-backend/internal/llm"
	"blanknote-backend/internal/results"
	"blanknote-backend/internal/shared/metrics"
)

const chatAPIURL = "https://api.openai.com/v1/chat/completions"

// Client implements llm.Analyzer using OpenAI Chat Completions in JSON mode.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI analyzer client.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeoutFromEnv()},
	}, nil
}

func timeoutFromEnv() time.Duration {
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return timeout
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float32       `json:"temperature,omitempty"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// AnalyzeIntro produces the teaser-grade analysis from the 5 intro answers.
func (c *Client) AnalyzeIntro(ctx context.Context, answers []results.Answer) (results.IntroAnalysis, error) {
	raw, err := c.completeJSON(ctx, introSystemPrompt, introUserPreamble+"\n\n"+formatAnswers(answers), 500)
	if err != nil {
		return results.IntroAnalysis{}, err
	}
	analysis, err := results.ParseIntroAnalysis(raw)
	if err != nil {
		return results.IntroAnalysis{}, &llm.ProviderError{Kind: llm.KindMalformed, Err: err}
	}
	return analysis, nil
}

// AnalyzeDeep produces the full analysis from the combined answer set.
func (c *Client) AnalyzeDeep(ctx context.Context, introAnswers, deepAnswers []results.Answer) (results.FullAnalysis, error) {
	all := make([]results.Answer, 0, len(introAnswers)+len(deepAnswers))
	all = append(all, introAnswers...)
	all = append(all, deepAnswers...)

	raw, err := c.completeJSON(ctx, deepSystemPrompt, deepUserPreamble+"\n\n"+formatAnswers(all), 2500)
	if err != nil {
		return results.FullAnalysis{}, err
	}
	analysis, err := results.ParseFullAnalysis(raw)
	if err != nil {
		return results.FullAnalysis{}, &llm.ProviderError{Kind: llm.KindMalformed, Err: err}
	}
	return analysis, nil
}

func (c *Client) completeJSON(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (json.RawMessage, error) {
	temp := float32(0.8)
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: &temp,
		MaxTokens:   maxTokens,
		ResponseFormat: responseFormat{
			Type: "json_object",
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &llm.ProviderError{Kind: llm.KindGeneric, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, chatAPIURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &llm.ProviderError{Kind: llm.KindGeneric, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, &llm.ProviderError{Kind: llm.KindUpstreamBusy, Err: fmt.Errorf("openai request timeout: %w", err)}
		}
		return nil, &llm.ProviderError{Kind: llm.KindGeneric, Err: err}
	}
	defer resp.Body.Close()
	metrics.ObserveAnalysisDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &llm.ProviderError{Kind: llm.KindGeneric, Err: err}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &llm.ProviderError{Kind: llm.KindMalformed, Err: fmt.Errorf("openai response parse: %w", err)}
	}
	if parsed.Error != nil {
		return nil, classifyAPIError(parsed.Error.Message, parsed.Error.Type, parsed.Error.Code)
	}
	if len(parsed.Choices) == 0 {
		return nil, &llm.ProviderError{Kind: llm.KindMalformed, Err: fmt.Errorf("openai response missing choices")}
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return nil, &llm.ProviderError{Kind: llm.KindMalformed, Err: fmt.Errorf("openai response empty content")}
	}
	return json.RawMessage(content), nil
}

func classifyAPIError(message, errType, code string) error {
	joined := strings.ToLower(message + " " + errType + " " + code)
	err := fmt.Errorf("openai error: %s (%s)", message, errType)
	switch {
	case strings.Contains(joined, "insufficient_quota"):
		return &llm.ProviderError{Kind: llm.KindQuotaExceeded, Err: err}
	case strings.Contains(joined, "rate_limit"):
		return &llm.ProviderError{Kind: llm.KindUpstreamBusy, Err: err}
	default:
		return &llm.ProviderError{Kind: llm.KindGeneric, Err: err}
	}
}

var _ llm.Analyzer = (*Client)(nil)
