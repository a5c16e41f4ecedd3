// Package llm is a minimal client for the OpenAI-compatible completions
// and image generation wire format. Any backend implementing the same
// HTTP shape (OpenAI, Azure OpenAI, OpenRouter, vLLM, Ollama) works.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the upstream used when no override is configured.
const DefaultBaseURL = "https://api.openai.com"

// Message is one entry of a completion request, in prompt order.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a chat completion call: an ordered message list and a model.
type Request struct {
	Model    string
	Messages []Message
}

// Response carries the model's reply and the total token usage of the call.
type Response struct {
	Content    string
	TokensUsed int
}

// Image is the result of an image generation call.
type Image struct {
	URL           string
	RevisedPrompt string
}

// Client calls the completion service over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a completion client. An empty baseURL selects the
// OpenAI upstream.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Wire types for the chat completions endpoint.
type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// ChatCompletion issues one chat completion request. Failures of any kind
// (transport, HTTP status, empty choice list) surface as a GenerationError
// wrapping the underlying cause.
func (c *Client) ChatCompletion(ctx context.Context, req Request) (*Response, error) {
	var out chatResponse
	err := c.post(ctx, "/v1/chat/completions", chatRequest{
		Model:    req.Model,
		Messages: req.Messages,
	}, &out)
	if err != nil {
		return nil, &GenerationError{Op: "chat completion", Err: err}
	}
	if len(out.Choices) == 0 {
		return nil, &GenerationError{Op: "chat completion", Err: fmt.Errorf("no choices in response")}
	}

	return &Response{
		Content:    out.Choices[0].Message.Content,
		TokensUsed: out.Usage.TotalTokens,
	}, nil
}

// Wire types for the image generation endpoint.
type imageRequest struct {
	Prompt  string `json:"prompt"`
	Model   string `json:"model"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
}

type imageResponse struct {
	Data []struct {
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

// GenerateImage issues one image generation request. dall-e-2 works worse;
// "hd" quality costs twice as much as standard.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	var out imageResponse
	err := c.post(ctx, "/v1/images/generations", imageRequest{
		Prompt:  prompt,
		Model:   "dall-e-3",
		Size:    "1024x1024",
		Quality: "standard",
	}, &out)
	if err != nil {
		return nil, &GenerationError{Op: "image generation", Err: err}
	}
	if len(out.Data) == 0 {
		return nil, &GenerationError{Op: "image generation", Err: fmt.Errorf("no images in response")}
	}

	return &Image{
		URL:           out.Data[0].URL,
		RevisedPrompt: out.Data[0].RevisedPrompt,
	}, nil
}

// post sends a JSON request and decodes the JSON response into out.
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Keep the upstream's error body; operators need it verbatim.
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(data))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
