package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// 回應內容超過此長度時截斷，避免塞爆對話
const maxResponseBytes = 64 * 1024

// HTTPTool 讓模型發送 HTTP 請求取得外部資料
type HTTPTool struct {
	client *http.Client
}

// NewHTTPTool 建立 HTTP 請求工具
func NewHTTPTool(timeout time.Duration) *HTTPTool {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPTool{
		client: &http.Client{Timeout: timeout},
	}
}

func (t *HTTPTool) Name() string {
	return "http_request"
}

func (t *HTTPTool) Description() string {
	return "發送 HTTP 請求並回傳狀態碼與回應內容。支援 GET / POST / PUT / DELETE"
}

func (t *HTTPTool) Parameters() map[string]any {
	return map[string]any{
		"url": map[string]any{
			"type":        "string",
			"description": "完整的請求網址 (含 http:// 或 https://)",
		},
		"method": map[string]any{
			"type":        "string",
			"description": "HTTP 方法，預設 GET",
		},
		"body": map[string]any{
			"type":        "string",
			"description": "請求本文 (選填)",
		},
	}
}

func (t *HTTPTool) RequiredParameters() []string {
	return []string{"url"}
}

func (t *HTTPTool) Execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	rawURL, ok := args["url"].(string)
	if !ok || rawURL == "" {
		return nil, fmt.Errorf("missing string parameter 'url'")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil, fmt.Errorf("url must start with http:// or https://")
	}

	method := http.MethodGet
	if m, ok := args["method"].(string); ok && m != "" {
		method = strings.ToUpper(m)
	}
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return nil, fmt.Errorf("unsupported method '%s'", method)
	}

	var body io.Reader
	if b, ok := args["body"].(string); ok && b != "" {
		body = strings.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	truncated := false
	if len(data) > maxResponseBytes {
		data = data[:maxResponseBytes]
		truncated = true
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"body":        string(data),
		"truncated":   truncated,
	}, nil
}
