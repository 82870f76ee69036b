package config

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// Config defines the global application configuration structure.
// This structure maps directly to the config.json file and holds
// business-level settings: which provider dials the model service,
// which frontend faces the operator, and the session persona.
type Config struct {
	// LLM holds the ordered provider group configuration in raw JSON.
	// Groups are tried in order when the session channel is opened.
	LLM jsoniter.RawMessage `json:"llm"`
	// Frontend contains the configuration payload for the operator-facing
	// frontend in raw JSON (e.g., {"type": "console"}).
	Frontend jsoniter.RawMessage `json:"frontend"`
	// SystemPrompt is the instruction text sent to the service during the
	// session handshake and stored as the leading system turn of the history.
	SystemPrompt string `json:"system_prompt"`
	// ResponseModalities is the requested response modality list. Anything
	// other than TEXT is downgraded with a warning at session open.
	ResponseModalities []string `json:"response_modalities,omitempty"`
}

// Validate ensures the configuration structure contains all mandatory fields.
// It acts as a primary guard before the system proceeds to initialization.
func (c *Config) Validate() error {
	if len(c.LLM) == 0 {
		return fmt.Errorf("mandatory 'llm' configuration is missing or empty")
	}
	return nil
}

// SystemConfig defines engine-level technical parameters.
// These settings are usually stored in system.json and control the
// performance, reliability, and technical behavior of the engine.
type SystemConfig struct {
	// MaxRetries is the number of times a provider dial will be retried
	// after a transient error before moving to the next fallback provider.
	MaxRetries int `json:"max_retries"`
	// RetryDelayMs is the duration to wait (in milliseconds) between
	// consecutive dial attempts.
	RetryDelayMs int `json:"retry_delay_ms"`
	// ConnectTimeoutMs is the hard cutoff (in milliseconds) for the session
	// handshake. The dial context is cancelled if exceeded.
	ConnectTimeoutMs int `json:"connect_timeout_ms"`
	// EventBuffer defines the size of the internal Go channels used for
	// buffering classified events and output fragments.
	EventBuffer int `json:"event_buffer"`
	// TelegramMessageLimit is the maximum character count for a single
	// Telegram message. Longer responses will be split into multiple chunks.
	TelegramMessageLimit int `json:"telegram_message_limit"`
	// HTTPToolTimeoutMs is the timeout (in milliseconds) applied to outbound
	// requests performed by the http_request tool.
	HTTPToolTimeoutMs int `json:"http_tool_timeout_ms"`
	// DebugFrames enables saving every raw wire frame to the /debug folder
	// for inspection and troubleshooting purposes.
	DebugFrames bool `json:"debug_frames"`
	// LogLevel sets the minimum severity for log output.
	// Accepted values: "debug", "info", "warn", "error". Default: "info".
	LogLevel string `json:"log_level"`
	// EnableTools globally toggles tool calling. If false, no tool is
	// declared to the service and no tool-call round trip can occur.
	EnableTools bool `json:"enable_tools"`
	// EnableSearch declares the provider-built-in web search tool when the
	// transport supports it.
	EnableSearch bool `json:"enable_search"`
	// EnableCodeExecution declares the provider-built-in code execution
	// tool when the transport supports it.
	EnableCodeExecution bool `json:"enable_code_execution"`
}

// DefaultSystemConfig returns a SystemConfig pointer initialized with
// hardcoded safe default values. This is used as a fallback when the
// system.json file is missing or corrupt, so the engine can always start.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		MaxRetries:           3,
		RetryDelayMs:         500,
		ConnectTimeoutMs:     30000,
		EventBuffer:          100,
		TelegramMessageLimit: 4000,
		HTTPToolTimeoutMs:    10000,
		LogLevel:             "info",
		EnableTools:          true,
		EnableSearch:         true,
		EnableCodeExecution:  true,
	}
}

// Load reads and parses the JSON configuration files from the current working
// directory. It first attempts to load 'config.json' (app config); if the file
// is missing, it returns an error. Then it calls LoadSystemConfig for
// 'system.json', which always succeeds by falling back to defaults.
func Load() (*Config, *SystemConfig, error) {
	appPath := "config.json"
	if _, err := os.Stat(appPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("config file '%s' not found. please create one", appPath)
	}

	appFile, err := os.ReadFile(appPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(appFile, &cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	sysCfg := LoadSystemConfig("system.json")

	return &cfg, sysCfg, nil
}

// LoadSystemConfig attempts to load system settings, returns defaults if it fails
func LoadSystemConfig(path string) *SystemConfig {
	cfg := DefaultSystemConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		return cfg // File not found, use defaults
	}

	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(file, cfg); err != nil {
		return cfg // Parse failed, use defaults
	}

	return cfg
}
