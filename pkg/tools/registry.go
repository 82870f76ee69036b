package tools

import (
	"sync"

	"parley/pkg/api"
)

// Registry 是 api.ToolRegistry 的標準實作。
// 啟動時填入，session 存活期間僅讀取。
type Registry struct {
	mu    sync.RWMutex
	tools map[string]api.Tool
	order []string
}

// NewRegistry 建立空的工具註冊表
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]api.Tool),
	}
}

// Register 註冊一個工具，同名工具會被覆蓋
func (r *Registry) Register(tool api.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name()]; !exists {
		r.order = append(r.order, tool.Name())
	}
	r.tools[tool.Name()] = tool
}

// Get 取得指定名稱的工具
func (r *Registry) Get(name string) (api.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// GetAll 依註冊順序回傳所有工具
func (r *Registry) GetAll() []api.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]api.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}
