package ai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainProvider runs prompts through a langchaingo model.
type LangChainProvider struct {
	llm llms.Model
}

var _ LLMProvider = (*LangChainProvider)(nil)

// NewLangChainProvider builds a langchaingo OpenAI-compatible model against baseURL (Groq by default).
func NewLangChainProvider(baseURL, apiKey, model string, httpClient *http.Client) (*LangChainProvider, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
		openai.WithBaseURL(baseURL),
	}
	if httpClient != nil {
		opts = append(opts, openai.WithHTTPClient(httpClient))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create langchain model: %w", err)
	}
	return &LangChainProvider{llm: llm}, nil
}

// NewLangChainProviderFromModel wraps an existing langchaingo model.
func NewLangChainProviderFromModel(llm llms.Model) *LangChainProvider {
	return &LangChainProvider{llm: llm}
}

// Complete generates a single response for prompt with temperature 0.
func (p *LangChainProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := llms.GenerateFromSinglePrompt(ctx, p.llm, prompt, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("langchain generate: %w", err)
	}
	return resp, nil
}
