package openaichat

import (
	"fmt"
	"os"

	"parley/pkg/wire"
	"parley/pkg/wire/emulate"
)

// Factory 建立 openai Dialer (模擬雙工)，base_url 可指向任何相容服務
type Factory struct{}

func init() {
	wire.RegisterProvider("openai", &Factory{})
}

func (f *Factory) Create(group wire.ProviderConfig) ([]wire.Dialer, error) {
	keys := group.APIKeys
	if len(keys) == 0 {
		if env := os.Getenv("OPENAI_API_KEY"); env != "" {
			keys = []string{env}
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("openai requires at least one api key (config or OPENAI_API_KEY)")
	}
	if len(group.Models) == 0 {
		return nil, fmt.Errorf("openai requires at least one model")
	}

	var dialers []wire.Dialer
	for _, model := range group.Models {
		for _, key := range keys {
			client := NewClient("openai", key, model, group.BaseURL)
			dialers = append(dialers, &emulate.Dialer{Client: client})
		}
	}
	return dialers, nil
}
