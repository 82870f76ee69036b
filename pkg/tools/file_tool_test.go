package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileToolReadWriteAppend(t *testing.T) {
	root := t.TempDir()
	tool := NewFileTool(root)
	ctx := context.Background()

	// write
	out, err := tool.Execute(ctx, map[string]any{
		"action":  "write",
		"path":    "notes/hello.txt",
		"content": "first line\n",
	})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if out["status"] != "success" {
		t.Errorf("write output = %v", out)
	}

	// append
	if _, err := tool.Execute(ctx, map[string]any{
		"action":  "append",
		"path":    "notes/hello.txt",
		"content": "second line\n",
	}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	// read
	out, err = tool.Execute(ctx, map[string]any{
		"action": "read",
		"path":   "notes/hello.txt",
	})
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got := out["content"]; got != "first line\nsecond line\n" {
		t.Errorf("content = %q", got)
	}

	// 確認實際寫入位置在 root 之下
	if _, err := os.Stat(filepath.Join(root, "notes", "hello.txt")); err != nil {
		t.Errorf("file not at expected location: %v", err)
	}
}

func TestFileToolRejectsEscape(t *testing.T) {
	tool := NewFileTool(t.TempDir())

	for _, path := range []string{"../outside.txt", "../../etc/passwd", "a/../../b"} {
		_, err := tool.Execute(context.Background(), map[string]any{
			"action": "read",
			"path":   path,
		})
		if err == nil || !strings.Contains(err.Error(), "escapes") {
			t.Errorf("path %q: err = %v, want escape rejection", path, err)
		}
	}
}

func TestFileToolErrors(t *testing.T) {
	tool := NewFileTool(t.TempDir())
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing action", map[string]any{"path": "x.txt"}},
		{"missing path", map[string]any{"action": "read"}},
		{"unknown action", map[string]any{"action": "delete", "path": "x.txt"}},
		{"write without content", map[string]any{"action": "write", "path": "x.txt"}},
		{"read missing file", map[string]any{"action": "read", "path": "no-such-file.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tool.Execute(ctx, tt.args); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
