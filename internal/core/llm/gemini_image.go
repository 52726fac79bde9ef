package llm

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/markdave123-py/baboon-api/internal/core"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiImager asks a Gemini image model for a picture. Gemini returns the
// image inline, so the result is handed back as a data: URL.
type GeminiImager struct {
	http      *resty.Client
	modelName string
}

func NewGeminiImager(apiKey, modelName string) (*GeminiImager, error) {
	return newGeminiImager(geminiBaseURL, apiKey, modelName)
}

func newGeminiImager(baseURL, apiKey, modelName string) (*GeminiImager, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash-preview-image-generation"
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("x-goog-api-key", apiKey).
		SetTimeout(2 * time.Minute)
	return &GeminiImager{http: client, modelName: modelName}, nil
}

type geminiPart struct {
	Text       string        `json:"text,omitempty"`
	InlineData *geminiInline `json:"inlineData,omitempty"`
}

type geminiInline struct {
	MIMEType string `json:"mimeType"`
	// base64, as sent on the wire
	Data string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generateRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		// image models reject text-only output
		ResponseModalities []string `json:"responseModalities"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      *geminiContent `json:"content"`
		FinishReason string         `json:"finishReason"`
	} `json:"candidates"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (g *GeminiImager) GenerateImage(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}
	req.GenerationConfig.ResponseModalities = []string{"TEXT", "IMAGE"}

	var (
		out    generateResponse
		apiErr geminiError
	)
	resp, err := g.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&apiErr).
		Post("/models/" + url.PathEscape(g.modelName) + ":generateContent")
	if err != nil {
		return "", core.E(core.KindGenerationFailed, "gemini generate", err)
	}
	if resp.IsError() {
		return "", core.Errorf(core.KindGenerationFailed, "gemini generate", "status %d: %s", resp.StatusCode(), apiErr.Error.Message)
	}
	return firstImage(&out)
}

// firstImage pulls the first inline image out of a Gemini response.
func firstImage(resp *generateResponse) (string, error) {
	if resp == nil {
		return "", core.Errorf(core.KindGenerationFailed, "gemini generate", "empty response")
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			if strings.HasPrefix(p.InlineData.MIMEType, "image/") {
				return "data:" + p.InlineData.MIMEType + ";base64," + p.InlineData.Data, nil
			}
		}
	}
	return "", core.Errorf(core.KindGenerationFailed, "gemini generate", "no image in response")
}

var _ core.ImageGenerator = (*GeminiImager)(nil)
