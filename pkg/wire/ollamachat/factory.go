package ollamachat

import (
	"fmt"

	"parley/pkg/wire"
	"parley/pkg/wire/emulate"
)

// Factory 建立 ollama Dialer (模擬雙工)
type Factory struct{}

func init() {
	wire.RegisterProvider("ollama", &Factory{})
}

func (f *Factory) Create(group wire.ProviderConfig) ([]wire.Dialer, error) {
	if len(group.Models) == 0 {
		return nil, fmt.Errorf("ollama requires at least one model")
	}

	var dialers []wire.Dialer
	for _, model := range group.Models {
		client, err := NewClient(model, group.BaseURL)
		if err != nil {
			return nil, err
		}
		dialers = append(dialers, &emulate.Dialer{Client: client})
	}
	return dialers, nil
}
