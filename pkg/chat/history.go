package chat

import (
	"fmt"
	"strings"
	"sync"
)

// History 保存一個 session 的完整對話記錄。
// 記錄是 append-only 的：開頭至多一個 system 輪次，之後 user 與 model
// 嚴格交替。違反交替順序的附加會被拒絕並回傳 ProtocolError。
type History struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewHistory 建立新的對話記錄，systemPrompt 非空時作為開頭的 system 輪次
func NewHistory(systemPrompt string) *History {
	h := &History{}
	if systemPrompt != "" {
		h.turns = append(h.turns, Turn{
			Role:  RoleSystem,
			Parts: []Part{{Text: systemPrompt}},
		})
	}
	return h
}

// last 回傳最後一個非 system 輪次的角色，沒有時回傳空字串
func (h *History) lastRole() Role {
	for i := len(h.turns) - 1; i >= 0; i-- {
		if h.turns[i].Role != RoleSystem {
			return h.turns[i].Role
		}
	}
	return ""
}

// AppendUser 附加一個使用者輪次
func (h *History) AppendUser(text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.lastRole() == RoleUser {
		return &ProtocolError{Reason: "consecutive user turns"}
	}
	h.turns = append(h.turns, NewUserTurn(text))
	return nil
}

// AppendModel 附加一個模型輪次
func (h *History) AppendModel(turn Turn) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if turn.Role != RoleModel {
		return &ProtocolError{Reason: fmt.Sprintf("expected model turn, got %s", turn.Role)}
	}
	if h.lastRole() != RoleUser {
		return &ProtocolError{Reason: "model turn without preceding user turn"}
	}
	h.turns = append(h.turns, turn)
	return nil
}

// Len 回傳輪次總數 (含 system)
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}

// Snapshot 回傳目前記錄的複本
func (h *History) Snapshot() []Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Render 將記錄輸出為可讀的文字稿
func (h *History) Render() string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var b strings.Builder
	for _, turn := range h.turns {
		label := strings.ToUpper(string(turn.Role))
		b.WriteString(fmt.Sprintf("[%s]\n", label))
		for _, p := range turn.Parts {
			switch {
			case p.Text != "":
				b.WriteString(p.Text)
				b.WriteString("\n")
			case p.ExecutableCode != nil:
				b.WriteString(fmt.Sprintf("```%s\n%s\n```\n", p.ExecutableCode.Language, p.ExecutableCode.Code))
			case p.CodeExecutionResult != nil:
				b.WriteString(fmt.Sprintf("(execution result) %s\n", p.CodeExecutionResult.Output))
			case p.FunctionCall != nil:
				b.WriteString(fmt.Sprintf("(tool call) %s\n", p.FunctionCall.Name))
			case p.FunctionResult != nil:
				if p.FunctionResult.Error != "" {
					b.WriteString(fmt.Sprintf("(tool result) %s: error: %s\n", p.FunctionResult.Name, p.FunctionResult.Error))
				} else {
					b.WriteString(fmt.Sprintf("(tool result) %s: ok\n", p.FunctionResult.Name))
				}
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
