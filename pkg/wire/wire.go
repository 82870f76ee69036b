package wire

import "context"

//----------------------------------------------------------------
// Outbound messages - client -> service
//----------------------------------------------------------------

// UserTurn 代表一次使用者輸入，EndOfTurn 告知服務端可以開始生成
type UserTurn struct {
	Text      string `json:"text"`
	EndOfTurn bool   `json:"end_of_turn"`
}

// FunctionCall is a remote-initiated request to run a named local capability.
// It is only ever produced by the service, never locally.
type FunctionCall struct {
	Name string         `json:"name"`
	ID   string         `json:"id"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResult is the reply for exactly one FunctionCall. ID must equal the
// triggering call's ID; exactly one of Output or Error is meaningful.
type FunctionResult struct {
	Name   string         `json:"name"`
	ID     string         `json:"id"`
	Output map[string]any `json:"output,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// ToolResponseBatch carries one FunctionResult per FunctionCall of the
// triggering request. Generation resumes only once the full batch arrives.
type ToolResponseBatch struct {
	Results []FunctionResult `json:"results"`
}

// ClientMessage is the outbound union. Exactly one field is set.
type ClientMessage struct {
	UserTurn     *UserTurn
	ToolResponse *ToolResponseBatch
}

//----------------------------------------------------------------
// Inbound messages - service -> client
//----------------------------------------------------------------

// ExecutableCode is model-emitted code executed on the provider side.
type ExecutableCode struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// CodeExecutionResult is the provider-side output of an ExecutableCode part.
type CodeExecutionResult struct {
	Output string `json:"output"`
}

// Part is one typed fragment of model content. Exactly one field is set.
type Part struct {
	Text                string               `json:"text,omitempty"`
	ExecutableCode      *ExecutableCode      `json:"executable_code,omitempty"`
	CodeExecutionResult *CodeExecutionResult `json:"code_execution_result,omitempty"`
}

// ModelContent is one structured slice of the model's turn.
type ModelContent struct {
	Parts         []Part `json:"parts"`
	GroundingText string `json:"grounding_text,omitempty"`
}

// ToolCallRequest asks the client to run the listed calls and reply with a
// matching ToolResponseBatch before generation continues.
type ToolCallRequest struct {
	Calls []FunctionCall `json:"calls"`
}

// ServerMessage is one raw inbound message as delivered by a transport.
// At most one of Text / Content / ToolCall / ErrorDetail is set;
// TurnComplete may accompany Content or stand alone as the turn-end marker.
// A message with nothing set is malformed and classified as such upstream.
type ServerMessage struct {
	Text         string           // bare incremental text chunk
	Content      *ModelContent    // structured model content
	ToolCall     *ToolCallRequest // tool-call round-trip request
	TurnComplete bool             // no further messages for this exchange
	ErrorDetail  string           // explicit remote error payload
	Raw          string           // original payload, kept for diagnostics
}

//----------------------------------------------------------------
// Channel - 雙工連線抽象
//----------------------------------------------------------------

// ToolDecl is the metadata declared for one local tool during session setup.
type ToolDecl struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Required    []string       `json:"required,omitempty"`
}

// Config carries everything a transport needs for the session handshake.
type Config struct {
	Model              string
	SystemInstruction  string
	Tools              []ToolDecl
	ResponseModalities []string
	EnableSearch       bool // provider-built-in web search, where supported
	EnableCodeExec     bool // provider-built-in code execution, where supported
	DebugFrames        bool // dump raw wire frames under debug/frames/<provider>
}

// Channel is a live duplex connection to the model service. Send and Receive
// may be used from different goroutines; Close unblocks a pending Receive.
type Channel interface {
	Send(ctx context.Context, msg *ClientMessage) error
	Receive(ctx context.Context) (*ServerMessage, error)
	Close() error
}

// Dialer establishes Channels for one provider/model pairing.
type Dialer interface {
	// Dial performs the handshake and returns a live channel.
	Dial(ctx context.Context, cfg Config) (Channel, error)

	// IsTransientError 判斷是否為暫時性錯誤 (如 503, Rate Limit)
	IsTransientError(err error) bool

	Provider() string
}
