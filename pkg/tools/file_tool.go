package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileTool 是工作目錄內的檔案操作工具，採用「動作分發」模式
type FileTool struct {
	root string
}

// NewFileTool 建立檔案工具，root 為空時使用目前工作目錄
func NewFileTool(root string) *FileTool {
	if root == "" {
		root = "."
	}
	return &FileTool{root: root}
}

func (t *FileTool) Name() string {
	return "file_ops"
}

func (t *FileTool) Description() string {
	return "讀寫本地檔案。支援動作: 'read' (讀取檔案內容), 'write' (覆寫檔案), 'append' (附加到檔案結尾)"
}

func (t *FileTool) Parameters() map[string]any {
	return map[string]any{
		"action": map[string]any{
			"type":        "string",
			"description": "要執行的動作: 'read', 'write' 或 'append'",
		},
		"path": map[string]any{
			"type":        "string",
			"description": "目標檔案路徑 (相對於工作目錄)",
		},
		"content": map[string]any{
			"type":        "string",
			"description": "要寫入的內容，'write' 與 'append' 動作必填",
		},
	}
}

func (t *FileTool) RequiredParameters() []string {
	return []string{"action", "path"}
}

func (t *FileTool) Execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	action, ok := args["action"].(string)
	if !ok {
		return nil, fmt.Errorf("missing string parameter 'action'")
	}
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, fmt.Errorf("missing string parameter 'path'")
	}

	resolved, err := t.resolve(path)
	if err != nil {
		return nil, err
	}

	switch action {
	case "read":
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, fmt.Errorf("failed to read '%s': %w", path, err)
		}
		return map[string]any{"content": string(data)}, nil

	case "write":
		content, ok := args["content"].(string)
		if !ok {
			return nil, fmt.Errorf("missing string parameter 'content'")
		}
		if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
			return nil, fmt.Errorf("failed to create parent directory: %w", err)
		}
		if err := os.WriteFile(resolved, []byte(content), 0644); err != nil {
			return nil, fmt.Errorf("failed to write '%s': %w", path, err)
		}
		return map[string]any{"status": "success", "bytes_written": len(content)}, nil

	case "append":
		content, ok := args["content"].(string)
		if !ok {
			return nil, fmt.Errorf("missing string parameter 'content'")
		}
		f, err := os.OpenFile(resolved, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open '%s': %w", path, err)
		}
		defer f.Close()
		n, err := f.WriteString(content)
		if err != nil {
			return nil, fmt.Errorf("failed to append to '%s': %w", path, err)
		}
		return map[string]any{"status": "success", "bytes_written": n}, nil

	default:
		return nil, fmt.Errorf("unsupported action '%s'", action)
	}
}

// resolve 將相對路徑限制在 root 之內，阻擋路徑跳脫
func (t *FileTool) resolve(path string) (string, error) {
	rootAbs, err := filepath.Abs(t.root)
	if err != nil {
		return "", err
	}
	target := filepath.Join(rootAbs, filepath.Clean(path))
	rel, err := filepath.Rel(rootAbs, target)
	if err != nil || rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator) {
		return "", fmt.Errorf("path '%s' escapes the working directory", path)
	}
	return target, nil
}
