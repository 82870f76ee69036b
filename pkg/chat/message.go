package chat

import (
	"strings"

	"parley/pkg/wire"
)

// Role 定義對話輪次的角色
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
	RoleModel  Role = "model"
)

// Part 是一個輪次中的單一內容片段，僅會設置其中一個欄位。
// 文字、程式碼、工具呼叫與工具結果都以片段形式依到達順序保存。
type Part struct {
	Text                string
	ExecutableCode      *wire.ExecutableCode
	CodeExecutionResult *wire.CodeExecutionResult
	FunctionCall        *wire.FunctionCall
	FunctionResult      *wire.FunctionResult
}

// Turn 是對話中的一個完整輪次
type Turn struct {
	Role  Role
	Parts []Part
}

// AppendText 附加一段文字，與前一個文字片段相鄰時直接合併
func (t *Turn) AppendText(text string) {
	if text == "" {
		return
	}
	if n := len(t.Parts); n > 0 && t.Parts[n-1].Text != "" {
		t.Parts[n-1].Text += text
		return
	}
	t.Parts = append(t.Parts, Part{Text: text})
}

// Text 回傳此輪次所有文字片段串接後的內容
func (t *Turn) Text() string {
	var b strings.Builder
	for _, p := range t.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// NewUserTurn builds a single-text user turn.
func NewUserTurn(text string) Turn {
	return Turn{Role: RoleUser, Parts: []Part{{Text: text}}}
}
