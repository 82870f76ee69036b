package channels

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"parley/pkg/api"
	"parley/pkg/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FrontendFactory defines the abstract interface for platform-specific
// frontend creators. This allows the system to support new platforms
// (e.g., Line, Discord) without modifying the core session logic.
type FrontendFactory interface {
	// Create instantiates a concrete Frontend implementation using the
	// provided configuration and shared system settings.
	Create(rawConfig jsoniter.RawMessage, system *config.SystemConfig) (api.Frontend, error)
}

// frontendRegistry stores the mapping between platform names
// (e.g., "telegram") and their factory implementations.
var frontendRegistry = make(map[string]FrontendFactory)

// RegisterFrontend adds a new FrontendFactory to the global registry.
// This is typically called during the package's init() phase.
func RegisterFrontend(name string, factory FrontendFactory) {
	frontendRegistry[name] = factory
}

// GetFrontendFactory retrieves a registered FrontendFactory by platform name.
func GetFrontendFactory(name string) (FrontendFactory, bool) {
	f, ok := frontendRegistry[name]
	return f, ok
}

// LoadFromConfig 根據配置建立 operator frontend。
// 配置為空時預設使用 console。
func LoadFromConfig(rawConfig jsoniter.RawMessage, system *config.SystemConfig) (api.Frontend, error) {
	frontendType := "console"
	if len(rawConfig) > 0 {
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(rawConfig, &head); err != nil {
			return nil, fmt.Errorf("failed to parse frontend config: %w", err)
		}
		if head.Type != "" {
			frontendType = head.Type
		}
	}

	factory, ok := GetFrontendFactory(frontendType)
	if !ok {
		return nil, fmt.Errorf("unknown frontend type '%s'", frontendType)
	}

	return factory.Create(rawConfig, system)
}
