package geminigen

import (
	"context"
	"fmt"
	"os"

	"parley/pkg/wire"
	"parley/pkg/wire/emulate"
)

// Factory 建立 gemini-genai Dialer (模擬雙工)
type Factory struct{}

func init() {
	wire.RegisterProvider("gemini-genai", &Factory{})
}

func (f *Factory) Create(group wire.ProviderConfig) ([]wire.Dialer, error) {
	keys := group.APIKeys
	if len(keys) == 0 {
		if env := os.Getenv("GEMINI_API_KEY"); env != "" {
			keys = []string{env}
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("gemini-genai requires at least one api key (config or GEMINI_API_KEY)")
	}
	if len(group.Models) == 0 {
		return nil, fmt.Errorf("gemini-genai requires at least one model")
	}

	var dialers []wire.Dialer
	for _, model := range group.Models {
		for _, key := range keys {
			client, err := NewClient(context.Background(), key, model)
			if err != nil {
				return nil, err
			}
			dialers = append(dialers, &emulate.Dialer{Client: client})
		}
	}
	return dialers, nil
}
