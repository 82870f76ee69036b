// Package emulate 將單次串流生成的 provider 包裝成持續性雙工通道。
// 通道內部維護完整對話 transcript，每次收到輸入就以整份 transcript
// 重新發起一次串流生成，對上層呈現與原生 Live 連線相同的介面。
package emulate

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"parley/pkg/wire"
)

// Message 是 transcript 中的一則訊息
type Message struct {
	Role        string // "user", "model", "tool"
	Text        string
	ToolCalls   []wire.FunctionCall
	ToolResults []wire.FunctionResult
}

// Chunk is one increment of a single emulated generation.
type Chunk struct {
	Text      string
	Parts     []wire.Part // structured non-text parts (executable code etc.)
	ToolCalls []wire.FunctionCall
	Err       error
}

// StreamClient is the per-provider one-shot streaming surface. Stream runs
// one generation over the full transcript and closes the returned channel
// after the Final chunk (or an Err chunk).
type StreamClient interface {
	Stream(ctx context.Context, transcript []Message, cfg wire.Config) (<-chan Chunk, error)
	IsTransientError(err error) bool
	Provider() string
}

// Dialer wraps a StreamClient as a wire.Dialer.
type Dialer struct {
	Client StreamClient
}

func (d *Dialer) Provider() string {
	return d.Client.Provider()
}

func (d *Dialer) IsTransientError(err error) bool {
	return d.Client.IsTransientError(err)
}

// Dial 不需要真正握手，直接建立 channel 即可
func (d *Dialer) Dial(ctx context.Context, cfg wire.Config) (wire.Channel, error) {
	runCtx, cancel := context.WithCancel(context.Background())
	return &channel{
		client:   d.Client,
		cfg:      cfg,
		inbox:    make(chan *wire.ServerMessage, 32),
		runCtx:   runCtx,
		cancel:   cancel,
		debugger: wire.NewFrameDebugger(d.Client.Provider(), cfg.DebugFrames),
	}, nil
}

type channel struct {
	client   StreamClient
	cfg      wire.Config
	debugger *wire.FrameDebugger

	mu         sync.Mutex
	transcript []Message
	closed     bool

	inbox  chan *wire.ServerMessage
	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (c *channel) Send(ctx context.Context, msg *wire.ClientMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("channel is closed")
	}

	switch {
	case msg.UserTurn != nil:
		c.transcript = append(c.transcript, Message{Role: "user", Text: msg.UserTurn.Text})
		c.debugger.Record("SEND", []byte(msg.UserTurn.Text))
	case msg.ToolResponse != nil:
		c.transcript = append(c.transcript, Message{Role: "tool", ToolResults: msg.ToolResponse.Results})
	default:
		c.mu.Unlock()
		return fmt.Errorf("client message has no payload")
	}
	snapshot := make([]Message, len(c.transcript))
	copy(snapshot, c.transcript)
	c.mu.Unlock()

	c.wg.Add(1)
	go c.generate(snapshot)
	return nil
}

// generate 執行一次串流生成並把結果轉譯為 ServerMessage 丟進 inbox
func (c *channel) generate(transcript []Message) {
	defer c.wg.Done()

	chunks, err := c.client.Stream(c.runCtx, transcript, c.cfg)
	if err != nil {
		c.deliver(&wire.ServerMessage{ErrorDetail: err.Error()})
		return
	}

	var full strings.Builder
	var calls []wire.FunctionCall

	for chunk := range chunks {
		if chunk.Err != nil {
			c.deliver(&wire.ServerMessage{ErrorDetail: chunk.Err.Error()})
			return
		}
		if chunk.Text != "" {
			full.WriteString(chunk.Text)
			c.debugger.Record("RECV", []byte(chunk.Text))
			c.deliver(&wire.ServerMessage{Text: chunk.Text})
		}
		if len(chunk.Parts) > 0 {
			c.deliver(&wire.ServerMessage{Content: &wire.ModelContent{Parts: chunk.Parts}})
		}
		if len(chunk.ToolCalls) > 0 {
			calls = append(calls, chunk.ToolCalls...)
		}
	}

	// 生成結束，把 model 回覆寫回 transcript
	c.mu.Lock()
	c.transcript = append(c.transcript, Message{Role: "model", Text: full.String(), ToolCalls: calls})
	c.mu.Unlock()

	if len(calls) > 0 {
		// tool call 待回覆，本輪尚未結束
		c.deliver(&wire.ServerMessage{ToolCall: &wire.ToolCallRequest{Calls: calls}})
		return
	}

	c.deliver(&wire.ServerMessage{TurnComplete: true})
}

func (c *channel) deliver(msg *wire.ServerMessage) {
	select {
	case c.inbox <- msg:
	case <-c.runCtx.Done():
	}
}

func (c *channel) Receive(ctx context.Context) (*wire.ServerMessage, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.runCtx.Done():
		return nil, fmt.Errorf("channel closed")
	case msg := <-c.inbox:
		return msg, nil
	}
}

func (c *channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	c.debugger.Close()
	return nil
}
