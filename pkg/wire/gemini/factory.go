package gemini

import (
	"fmt"
	"os"

	"parley/pkg/wire"
)

// Factory 建立 gemini-live Dialer
type Factory struct{}

func init() {
	wire.RegisterProvider("gemini-live", &Factory{})
}

// Create 為每個 api key x model 組合建立一個 Dialer
func (f *Factory) Create(group wire.ProviderConfig) ([]wire.Dialer, error) {
	keys := group.APIKeys
	if len(keys) == 0 {
		if env := os.Getenv("GEMINI_API_KEY"); env != "" {
			keys = []string{env}
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("gemini-live requires at least one api key (config or GEMINI_API_KEY)")
	}
	if len(group.Models) == 0 {
		return nil, fmt.Errorf("gemini-live requires at least one model")
	}

	host := ""
	if v, ok := group.Options["host"].(string); ok {
		host = v
	}

	var dialers []wire.Dialer
	for _, model := range group.Models {
		for _, key := range keys {
			dialers = append(dialers, NewDialer(key, model, host))
		}
	}
	return dialers, nil
}
