package llm

import (
	"errors"
	"fmt"
	"strings"
)

// New builds a Client for the configured provider.
func New(opts Options) (Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("llm api key is required")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, errors.New("llm model is required")
	}
	switch p := strings.ToLower(strings.TrimSpace(opts.Provider)); p {
	case "", "openai":
		return newOpenAI(opts), nil
	case "anthropic":
		return newAnthropic(opts), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", p)
	}
}
