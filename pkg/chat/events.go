package chat

import "parley/pkg/wire"

// Event 是 session 對外發布的分類事件。
// 分類是全函數：任何收到的訊息都會對應到恰好一種事件。
type Event interface {
	isEvent()
}

// TextDelta 是一段增量文字
type TextDelta struct {
	Text string
}

// ModelContent 是一段結構化模型內容
type ModelContent struct {
	Content *wire.ModelContent
}

// ToolCallRequest 表示服務端要求執行本地工具。
// session 內部會自行完成往返，此事件僅供呼叫端觀察。
type ToolCallRequest struct {
	Calls []wire.FunctionCall
}

// TurnEnd 表示本輪交換結束，session 回到可輸入狀態
type TurnEnd struct{}

// Malformed 表示無法解讀的訊息，保留原始內容供記錄
type Malformed struct {
	Raw string
}

// ChannelFailure 表示通道損壞，session 進入 Failed 終態
type ChannelFailure struct {
	Err error
}

func (TextDelta) isEvent()       {}
func (ModelContent) isEvent()    {}
func (ToolCallRequest) isEvent() {}
func (TurnEnd) isEvent()         {}
func (Malformed) isEvent()       {}
func (ChannelFailure) isEvent()  {}

// Classify 將一則原始訊息對應到其主要事件。
// 優先序: tool call > 明確錯誤 > 結構化內容 > 增量文字 > 輪次結束。
// 不符合任何類別的訊息歸類為 Malformed。
// 訊息同時帶有內容與 TurnComplete 時，回傳內容事件，
// 結束標記由接收迴圈另行處理。
func Classify(msg *wire.ServerMessage) Event {
	switch {
	case msg.ToolCall != nil && len(msg.ToolCall.Calls) > 0:
		return ToolCallRequest{Calls: msg.ToolCall.Calls}

	case msg.ErrorDetail != "":
		return ChannelFailure{Err: &ChannelError{Err: &remoteError{detail: msg.ErrorDetail}}}

	case msg.Content != nil:
		return ModelContent{Content: msg.Content}

	case msg.Text != "":
		return TextDelta{Text: msg.Text}

	case msg.TurnComplete:
		return TurnEnd{}

	default:
		return Malformed{Raw: msg.Raw}
	}
}

// remoteError wraps an explicit error payload delivered by the service.
type remoteError struct {
	detail string
}

func (e *remoteError) Error() string {
	return "remote error: " + e.detail
}
