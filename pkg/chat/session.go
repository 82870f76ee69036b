package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"parley/pkg/api"
	"parley/pkg/utils"
	"parley/pkg/wire"
)

// State 是 session 生命週期狀態
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateAwaitingModel
	StateAwaitingToolResults
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateAwaitingModel:
		return "awaiting_model"
	case StateAwaitingToolResults:
		return "awaiting_tool_results"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options 控制 session 的建立
type Options struct {
	Model              string
	SystemPrompt       string
	ResponseModalities []string
	Tools              api.ToolRegistry
	EventBuffer        int
	EnableSearch       bool
	EnableCodeExec     bool
	DebugFrames        bool
}

// Session 是一條與模型服務的持續對話。
// 生命週期: Connecting → Open → (AwaitingModel → AwaitingToolResults)* →
// Closed 或 Failed。Closed 與 Failed 為終態。
type Session struct {
	mu      sync.Mutex
	state   State
	channel wire.Channel
	history *History
	tools   api.ToolRegistry

	eventBuffer int
	closeOnce   sync.Once
}

// Open 建立連線並完成握手。失敗時回傳 ConnectionError，session 不存在。
func Open(ctx context.Context, dialer wire.Dialer, opts Options) (*Session, error) {
	cfg := wire.Config{
		Model:              opts.Model,
		SystemInstruction:  opts.SystemPrompt,
		ResponseModalities: coerceModalities(opts.ResponseModalities),
		EnableSearch:       opts.EnableSearch,
		EnableCodeExec:     opts.EnableCodeExec,
		DebugFrames:        opts.DebugFrames,
	}

	if opts.Tools != nil {
		for _, tool := range opts.Tools.GetAll() {
			cfg.Tools = append(cfg.Tools, wire.ToolDecl{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  tool.Parameters(),
				Required:    tool.RequiredParameters(),
			})
		}
	}

	ch, err := dialer.Dial(ctx, cfg)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	buffer := opts.EventBuffer
	if buffer <= 0 {
		buffer = 100
	}

	return &Session{
		state:       StateOpen,
		channel:     ch,
		history:     NewHistory(opts.SystemPrompt),
		tools:       opts.Tools,
		eventBuffer: buffer,
	}, nil
}

// coerceModalities 強制回應型態為 TEXT，其餘要求降級並提出警告
func coerceModalities(requested []string) []string {
	for _, m := range requested {
		if !strings.EqualFold(m, "TEXT") {
			slog.Warn("⚠️ Unsupported response modality requested, coercing to TEXT", "requested", requested)
			break
		}
	}
	return []string{"TEXT"}
}

// State 回傳目前狀態
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History 回傳此 session 的對話記錄
func (s *Session) History() *History {
	return s.history
}

// SendUserTurn 送出一次使用者輸入並進入等待回應狀態。
// 去除空白後為空的輸入回傳 ErrBlankInput，不送出、不記錄。
func (s *Session) SendUserTurn(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrBlankInput
	}

	s.mu.Lock()
	switch s.state {
	case StateOpen:
	case StateClosed, StateFailed:
		s.mu.Unlock()
		return &ProtocolError{Reason: "session is " + s.state.String()}
	default:
		s.mu.Unlock()
		return &ProtocolError{Reason: "previous exchange still in progress"}
	}
	s.state = StateAwaitingModel
	s.mu.Unlock()

	if err := s.history.AppendUser(text); err != nil {
		s.setState(StateFailed)
		return err
	}

	err := s.channel.Send(ctx, &wire.ClientMessage{
		UserTurn: &wire.UserTurn{Text: text, EndOfTurn: true},
	})
	if err != nil {
		s.setState(StateFailed)
		return &ChannelError{Err: err}
	}
	return nil
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	// 終態不可再轉移
	if s.state != StateClosed && s.state != StateFailed {
		s.state = st
	}
	s.mu.Unlock()
}

// Receive 回傳本輪交換的事件流。流在 TurnEnd 或通道損壞後關閉。
// tool call 往返由 session 內部完成，事件僅供呼叫端觀察與顯示。
func (s *Session) Receive(ctx context.Context) <-chan Event {
	events := make(chan Event, s.eventBuffer)
	go s.receiveLoop(ctx, events)
	return events
}

func (s *Session) receiveLoop(ctx context.Context, events chan<- Event) {
	defer close(events)

	pending := Turn{Role: RoleModel}

	for {
		msg, err := s.channel.Receive(ctx)
		if err != nil {
			if s.State() == StateClosed {
				return
			}
			// 主動取消不算通道損壞：關閉連線並結束於 Closed
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				s.Close()
				return
			}
			s.setState(StateFailed)
			events <- ChannelFailure{Err: &ChannelError{Err: err}}
			return
		}

		switch ev := Classify(msg).(type) {
		case ToolCallRequest:
			s.setState(StateAwaitingToolResults)

			// 部分 provider 的串流不帶 call ID，補上以維持結果對應
			for i := range ev.Calls {
				if ev.Calls[i].ID == "" {
					ev.Calls[i].ID = utils.GenerateID()
				}
			}
			events <- ev

			for i := range ev.Calls {
				call := ev.Calls[i]
				pending.Parts = append(pending.Parts, Part{FunctionCall: &call})
			}

			results := s.executeBatch(ctx, ev.Calls)
			for i := range results {
				pending.Parts = append(pending.Parts, Part{FunctionResult: &results[i]})
			}

			sendErr := s.channel.Send(ctx, &wire.ClientMessage{
				ToolResponse: &wire.ToolResponseBatch{Results: results},
			})
			if sendErr != nil {
				s.setState(StateFailed)
				events <- ChannelFailure{Err: &ChannelError{Err: sendErr}}
				return
			}
			s.setState(StateAwaitingModel)

		case TextDelta:
			pending.AppendText(ev.Text)
			events <- ev

		case ModelContent:
			for _, p := range ev.Content.Parts {
				switch {
				case p.ExecutableCode != nil, p.CodeExecutionResult != nil:
					pending.Parts = append(pending.Parts, Part{
						ExecutableCode:      p.ExecutableCode,
						CodeExecutionResult: p.CodeExecutionResult,
					})
				case p.Text != "":
					pending.AppendText(p.Text)
				}
			}
			events <- ev
			if msg.TurnComplete {
				s.finishTurn(pending, events)
				return
			}

		case TurnEnd:
			s.finishTurn(pending, events)
			return

		case Malformed:
			slog.Warn("⚠️ Unrecognized message on channel", "raw", truncateRaw(ev.Raw))
			events <- ev

		case ChannelFailure:
			s.setState(StateFailed)
			events <- ev
			return
		}
	}
}

// finishTurn 將累積的模型輪次寫入記錄並回到可輸入狀態
func (s *Session) finishTurn(pending Turn, events chan<- Event) {
	if err := s.history.AppendModel(pending); err != nil {
		slog.Error("❌ Failed to record model turn", "error", err)
	}
	s.setState(StateOpen)
	events <- TurnEnd{}
}

// Close 結束 session，可重複呼叫。已 Failed 的 session 維持 Failed。
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.setState(StateClosed)
		err = s.channel.Close()
	})
	return err
}

func truncateRaw(raw string) string {
	if len(raw) <= 200 {
		return raw
	}
	return raw[:200] + "..."
}
