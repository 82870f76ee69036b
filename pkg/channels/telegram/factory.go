package telegram

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"parley/pkg/api"
	"parley/pkg/channels"
	"parley/pkg/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Factory 建立 telegram frontend
type Factory struct{}

func init() {
	channels.RegisterFrontend("telegram", &Factory{})
}

func (f *Factory) Create(rawConfig jsoniter.RawMessage, system *config.SystemConfig) (api.Frontend, error) {
	var cfg TelegramConfig
	if err := json.Unmarshal(rawConfig, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse telegram config: %w", err)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram requires a bot token")
	}

	return NewTelegramFrontend(cfg, system.TelegramMessageLimit)
}
