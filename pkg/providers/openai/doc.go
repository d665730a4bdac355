// Package openai implements providers.Provider for the OpenAI chat
// completions API and compatible servers.
//
// Requests with JSON set are sent with response_format json_object, which
// the LLM extractor relies on.
//
// # Basic Usage
//
//	p, err := openai.NewProvider(providers.ProviderConfig{
//	    BaseURL: "https://api.openai.com/v1",
//	    APIKey:  apiKey,
//	    Model:   "gpt-4o-mini",
//	})
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	resp, err := p.Complete(ctx, &providers.CompletionRequest{
//	    Messages: []providers.Message{{Role: providers.RoleUser, Content: "Hello!"}},
//	})
package openai
