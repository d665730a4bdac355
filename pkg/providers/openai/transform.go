package openai

import (
	"fmt"

	"getgsa/onboarding/pkg/providers"
)

// ChatRequest is an OpenAI chat completion request.
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatMessage is a message in OpenAI format.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat selects JSON mode.
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatResponse is an OpenAI chat completion response.
type ChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   ChatUsage    `json:"usage"`
}

// ChatChoice is one completion choice.
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatUsage is token usage in OpenAI format.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// transformRequest converts a provider-agnostic request, filling the model
// from defaultModel when the request leaves it empty.
func transformRequest(req *providers.CompletionRequest, defaultModel string) (*ChatRequest, error) {
	if len(req.Messages) == 0 {
		return nil, &providers.ValidationError{Field: "messages", Message: "at least one message is required"}
	}
	if req.Temperature < 0 || req.Temperature > 2 {
		return nil, &providers.ValidationError{
			Field:   "temperature",
			Message: fmt.Sprintf("must be between 0 and 2, got %g", req.Temperature),
		}
	}

	out := &ChatRequest{
		Model:       req.Model,
		Messages:    make([]ChatMessage, len(req.Messages)),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if out.Model == "" {
		out.Model = defaultModel
	}
	if out.Model == "" {
		return nil, &providers.ValidationError{Field: "model", Message: "model is required"}
	}
	for i, m := range req.Messages {
		switch m.Role {
		case providers.RoleSystem, providers.RoleUser, providers.RoleAssistant:
		default:
			return nil, &providers.ValidationError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: fmt.Sprintf("unsupported role %q", m.Role),
			}
		}
		out.Messages[i] = ChatMessage{Role: m.Role, Content: m.Content}
	}
	if req.JSON {
		out.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}
	return out, nil
}

// transformResponse normalizes the first choice of resp.
func transformResponse(resp *ChatResponse, provider string) (*providers.CompletionResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, &providers.ParseError{
			Provider: provider,
			Cause:    fmt.Errorf("response has no choices"),
		}
	}
	choice := resp.Choices[0]
	return &providers.CompletionResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage: providers.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Created: resp.Created,
	}, nil
}
