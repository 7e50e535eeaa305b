package openaicompat

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client speaks the OpenAI-compatible chat completions protocol. Any
// backend exposing /v1/chat/completions works: a hosted API or a local
// inference server.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	visionModel string
	httpClient  *http.Client
}

func New(baseURL, apiKey, model, visionModel string) *Client {
	if visionModel == "" {
		visionModel = model
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		visionModel: visionModel,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a system+user text exchange and returns the assistant
// message.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	request := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.1,
	}
	return c.chat(ctx, "completion", request)
}

// CompleteVision sends the prompt together with the image, inlined as a
// base64 data URL the way the multimodal chat protocol expects.
func (c *Client) CompleteVision(ctx context.Context, imagePath, prompt string) (string, error) {
	dataURL, err := encodeImage(imagePath)
	if err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	request := chatRequest{
		Model: c.visionModel,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
				},
			},
		},
		Temperature: 0.1,
	}
	return c.chat(ctx, "vision", request)
}

func (c *Client) chat(ctx context.Context, operation string, request chatRequest) (string, error) {
	var response chatResponse
	if err := c.postJSON(ctx, "/v1/chat/completions", request, &response, operation); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("llm %s: empty choices", operation)
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

var imageMimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

func encodeImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mime, ok := imageMimeTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
