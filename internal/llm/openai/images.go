package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"blanknote-backend/internal/llm"
)

const imagesAPIURL = "https://api.openai.com/v1/images/generations"

// ImageClient implements llm.ImageSynthesizer using the OpenAI images API.
type ImageClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewImageClient constructs a new image synthesizer client.
func NewImageClient(apiKey, model string) (*ImageClient, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("IMAGE_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	return &ImageClient{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeoutFromEnv()},
	}, nil
}

type imageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	N       int    `json:"n"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
	Style   string `json:"style"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate produces one image for the prompt and returns its temporary URL.
func (c *ImageClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := imageRequest{
		Model:   c.model,
		Prompt:  prompt + imageStyleSuffix,
		N:       1,
		Size:    "1024x1024",
		Quality: "standard",
		Style:   "vivid",
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, imagesAPIURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed imageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("openai image response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai image error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Data) == 0 || strings.TrimSpace(parsed.Data[0].URL) == "" {
		return "", fmt.Errorf("openai image response missing url")
	}
	return parsed.Data[0].URL, nil
}

var _ llm.ImageSynthesizer = (*ImageClient)(nil)
