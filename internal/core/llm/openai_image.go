package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/markdave123-py/baboon-api/internal/core"
)

const openAIBaseURL = "https://api.openai.com/v1"

// OpenAIImager calls the OpenAI images API and returns the hosted image URL.
type OpenAIImager struct {
	http  *resty.Client
	model string
	size  string
}

func NewOpenAIImager(apiKey, model string) (*OpenAIImager, error) {
	return newOpenAIImager(openAIBaseURL, apiKey, model)
}

func newOpenAIImager(baseURL, apiKey, model string) (*OpenAIImager, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if model == "" {
		model = "dall-e-3"
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(2 * time.Minute)
	return &OpenAIImager{http: client, model: model, size: "1024x1024"}, nil
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *OpenAIImager) GenerateImage(ctx context.Context, prompt string) (string, error) {
	var (
		out    imageResponse
		apiErr apiError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(imageRequest{Model: c.model, Prompt: prompt, N: 1, Size: c.size, ResponseFormat: "url"}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/images/generations")
	if err != nil {
		return "", core.E(core.KindGenerationFailed, "openai generate", err)
	}
	if resp.IsError() {
		return "", core.Errorf(core.KindGenerationFailed, "openai generate", "status %d: %s", resp.StatusCode(), apiErr.Error.Message)
	}
	if len(out.Data) == 0 || out.Data[0].URL == "" {
		return "", core.Errorf(core.KindGenerationFailed, "openai generate", "no image url in response")
	}
	return out.Data[0].URL, nil
}

var _ core.ImageGenerator = (*OpenAIImager)(nil)
