package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"parley/pkg/wire"
)

// executeBatch 並行執行一批工具呼叫，回傳與呼叫一一對應的結果。
// 結果順序與呼叫順序一致，每個呼叫的 ID 原樣帶回。
func (s *Session) executeBatch(ctx context.Context, calls []wire.FunctionCall) []wire.FunctionResult {
	results := make([]wire.FunctionResult, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(idx int, fc wire.FunctionCall) {
			defer wg.Done()
			results[idx] = s.executeOne(ctx, fc)
		}(i, call)
	}
	wg.Wait()

	return results
}

// executeOne 執行單一工具呼叫，任何失敗都轉為 error outcome 回報服務端
func (s *Session) executeOne(ctx context.Context, call wire.FunctionCall) (result wire.FunctionResult) {
	result = wire.FunctionResult{Name: call.Name, ID: call.ID}

	// 工具內的 panic 不可拖垮 session
	defer func() {
		if r := recover(); r != nil {
			slog.Error("❌ Tool panicked", "tool", call.Name, "panic", r)
			result.Output = nil
			result.Error = fmt.Sprintf("tool '%s' panicked: %v", call.Name, r)
		}
	}()

	if s.tools == nil {
		result.Error = fmt.Sprintf("tool '%s' not found", call.Name)
		return result
	}

	tool, ok := s.tools.Get(call.Name)
	if !ok {
		slog.Warn("⚠️ Unknown tool requested", "tool", call.Name, "id", call.ID)
		result.Error = fmt.Sprintf("tool '%s' not found", call.Name)
		return result
	}

	slog.Info("🛠️ Executing tool", "tool", call.Name, "id", call.ID)

	output, err := tool.Execute(ctx, call.Args)
	if err != nil {
		invErr := &ToolInvocationError{Name: call.Name, ID: call.ID, Err: err}
		slog.Warn("⚠️ Tool execution failed", "tool", call.Name, "error", err)
		result.Error = invErr.Err.Error()
		return result
	}

	result.Output = output
	return result
}
