package extraction

import (
	"fmt"

	"getgsa/onboarding/pkg/compliance/report"
	"getgsa/onboarding/pkg/config"
	"getgsa/onboarding/pkg/providers"
	"getgsa/onboarding/pkg/providers/openai"
)

// Collaborators are the AI-facing pieces of the pipeline.
type Collaborators struct {
	Extractor Extractor
	Renderer  report.ProseRenderer

	// Provider is the model client, nil when no role uses one. The caller
	// owns it and must Close it.
	Provider providers.Provider
}

// New builds the extractor and prose renderer selected by cfg. A role set
// to "llm" without an API key runs its deterministic counterpart when
// fallback is enabled.
func New(cfg config.AssistantConfig, opts Options) (*Collaborators, error) {
	c := &Collaborators{}
	logger := opts.logger()

	useLLM := cfg.UsesLLM()
	if useLLM && cfg.Provider.APIKey == "" && cfg.Fallback {
		logger.Warn("no API key configured, using pattern extraction and template prose",
			"extractor", cfg.Extractor,
			"prose", cfg.Prose,
		)
		useLLM = false
	}

	if useLLM {
		p, err := openai.NewProvider(providers.FromConfig(cfg.Provider))
		if err != nil {
			return nil, fmt.Errorf("failed to create provider: %w", err)
		}
		c.Provider = p
	}

	pattern := NewPatternExtractor()
	if useLLM && cfg.Extractor == "llm" {
		llm, err := NewLLMExtractor(c.Provider, cfg.Provider.Model)
		if err != nil {
			c.Provider.Close()
			return nil, err
		}
		var fallback Extractor
		if cfg.Fallback {
			fallback = pattern
		}
		c.Extractor = WithFallback(llm, fallback, opts)
	} else {
		c.Extractor = WithFallback(pattern, nil, opts)
	}

	template := report.NewTemplateRenderer()
	if useLLM && cfg.Prose == "llm" {
		var fallback report.ProseRenderer
		if cfg.Fallback {
			fallback = template
		}
		c.Renderer = RendererWithFallback(NewLLMRenderer(c.Provider, cfg.Provider.Model), fallback, opts)
	} else {
		c.Renderer = template
	}

	logger.Info("assistant configured",
		"extractor", describe(useLLM && cfg.Extractor == "llm", "llm", "pattern"),
		"prose", describe(useLLM && cfg.Prose == "llm", "llm", "template"),
		"fallback", cfg.Fallback,
	)
	return c, nil
}

// Close releases the provider, if any.
func (c *Collaborators) Close() error {
	if c.Provider == nil {
		return nil
	}
	return c.Provider.Close()
}

func describe(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
