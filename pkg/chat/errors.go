package chat

import (
	"errors"
	"fmt"
)

// ErrBlankInput 表示輸入去除空白後為空，呼叫端應視為 no-op。
var ErrBlankInput = errors.New("input is blank")

// ConnectionError 表示建立連線階段的失敗，session 從未進入 Open 狀態。
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ChannelError 表示已建立的通道中途損壞，session 轉為 Failed 終態。
type ChannelError struct {
	Err error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("channel broken: %v", e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }

// ProtocolError 表示違反會話協定的操作，例如打破 user/model 交替順序。
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation: %s", e.Reason)
}

// ToolInvocationError carries the failure of one local tool execution. It is
// reported back to the remote service inside the tool response, never
// propagated to the operator loop as a session failure.
type ToolInvocationError struct {
	Name string
	ID   string
	Err  error
}

func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("tool '%s' (call %s) failed: %v", e.Name, e.ID, e.Err)
}

func (e *ToolInvocationError) Unwrap() error { return e.Err }
