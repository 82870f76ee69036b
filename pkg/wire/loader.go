package wire

import (
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NewFromConfig 根據原始 JSON 配置建立 Dialer。
// 配置是一個有序的 provider group 陣列，依序嘗試；
// 每個 group 透過已註冊的 Factory 展開為一組 atomic dialers。
func NewFromConfig(raw jsoniter.RawMessage, maxRetries int, retryDelay time.Duration) (Dialer, error) {
	var groups []ProviderConfig
	if err := json.Unmarshal(raw, &groups); err != nil {
		// 允許單一物件寫法，向後相容
		var single ProviderConfig
		if err2 := json.Unmarshal(raw, &single); err2 != nil {
			return nil, fmt.Errorf("failed to parse llm config: %w", err)
		}
		groups = []ProviderConfig{single}
	}

	if len(groups) == 0 {
		return nil, fmt.Errorf("llm config contains no provider groups")
	}

	var dialers []Dialer
	for _, group := range groups {
		factory, ok := GetProviderFactory(group.Type)
		if !ok {
			slog.Warn("⚠️ Unknown provider type in config, skipping", "type", group.Type)
			continue
		}

		created, err := factory.Create(group)
		if err != nil {
			return nil, fmt.Errorf("failed to create provider '%s': %w", group.Type, err)
		}

		slog.Info("✅ Provider group loaded", "type", group.Type, "dialers", len(created))
		dialers = append(dialers, created...)
	}

	if len(dialers) == 0 {
		return nil, fmt.Errorf("no usable provider could be created from config")
	}

	if len(dialers) == 1 {
		return dialers[0], nil
	}

	return &FallbackDialer{
		Dialers:    dialers,
		MaxRetries: maxRetries,
		RetryDelay: retryDelay,
	}, nil
}
