package console

import (
	jsoniter "github.com/json-iterator/go"

	"parley/pkg/api"
	"parley/pkg/channels"
	"parley/pkg/config"
)

// Factory 建立 console frontend
type Factory struct{}

func init() {
	channels.RegisterFrontend("console", &Factory{})
}

func (f *Factory) Create(rawConfig jsoniter.RawMessage, system *config.SystemConfig) (api.Frontend, error) {
	return NewConsoleFrontend(), nil
}
