package tools

import (
	"log/slog"
	"time"

	"parley/pkg/api"
)

// RegisterDefaults 將內建工具全部掛進註冊表
func RegisterDefaults(registry api.ToolRegistry, httpTimeout time.Duration) {
	registry.Register(NewFileTool(""))
	registry.Register(NewHTTPTool(httpTimeout))

	names := make([]string, 0)
	for _, t := range registry.GetAll() {
		names = append(names, t.Name())
	}
	slog.Info("🛠️ Tools registered", "tools", names)
}
