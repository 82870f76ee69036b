package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"parley/pkg/wire"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	liveHost = "generativelanguage.googleapis.com"
	livePath = "/ws/google.ai.generativelanguage.v1alpha.GenerativeService.BidiGenerateContent"
)

// Dialer 透過 websocket 連線 Gemini Live API (BidiGenerateContent)。
type Dialer struct {
	apiKey string
	model  string
	host   string
}

// NewDialer creates a Live API dialer for one api key / model pairing.
// host overrides the default endpoint, mainly for tests.
func NewDialer(apiKey, model, host string) *Dialer {
	if host == "" {
		host = liveHost
	}
	return &Dialer{apiKey: apiKey, model: model, host: host}
}

func (d *Dialer) Provider() string {
	return "gemini-live"
}

// IsTransientError 判斷是否為暫時性錯誤 (配額、過載、握手逾時)
func (d *Dialer) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "503") ||
		strings.Contains(s, "UNAVAILABLE") ||
		strings.Contains(s, "RESOURCE_EXHAUSTED") ||
		strings.Contains(s, "rateLimitExceeded") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "bad handshake")
}

// Dial opens the websocket, sends the setup frame and waits for setupComplete.
func (d *Dialer) Dial(ctx context.Context, cfg wire.Config) (wire.Channel, error) {
	u := url.URL{
		Scheme:   "wss",
		Host:     d.host,
		Path:     livePath,
		RawQuery: "key=" + url.QueryEscape(d.apiKey),
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	ch := &liveChannel{
		conn:     conn,
		debugger: wire.NewFrameDebugger("gemini-live", cfg.DebugFrames),
	}

	model := cfg.Model
	if model == "" {
		model = d.model
	}

	if err := ch.writeJSON(buildSetupFrame(model, cfg)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send setup frame: %w", err)
	}

	// 等待 setupComplete；任何其他 frame 都代表握手失敗
	if err := ch.awaitSetupComplete(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("✅ Gemini Live session established", "model", model)
	return ch, nil
}

func buildSetupFrame(model string, cfg wire.Config) *setupFrame {
	payload := setupPayload{
		Model: "models/" + strings.TrimPrefix(model, "models/"),
		GenerationConfig: &generationConfig{
			ResponseModalities: cfg.ResponseModalities,
		},
	}

	if cfg.SystemInstruction != "" {
		payload.SystemInstruction = &content{
			Parts: []part{{Text: cfg.SystemInstruction}},
		}
	}

	if len(cfg.Tools) > 0 {
		decls := make([]functionDeclaration, 0, len(cfg.Tools))
		for _, t := range cfg.Tools {
			params := map[string]any{
				"type":       "OBJECT",
				"properties": t.Parameters,
			}
			if len(t.Required) > 0 {
				params["required"] = t.Required
			}
			decls = append(decls, functionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			})
		}
		payload.Tools = append(payload.Tools, toolPayload{FunctionDeclarations: decls})
	}
	if cfg.EnableSearch {
		payload.Tools = append(payload.Tools, toolPayload{GoogleSearch: &struct{}{}})
	}
	if cfg.EnableCodeExec {
		payload.Tools = append(payload.Tools, toolPayload{CodeExecution: &struct{}{}})
	}

	return &setupFrame{Setup: payload}
}

// liveChannel is one open Live API websocket. Writes are serialized with a
// mutex because gorilla/websocket allows at most one concurrent writer.
type liveChannel struct {
	conn     *websocket.Conn
	writeMu  sync.Mutex
	closeMu  sync.Mutex
	closed   bool
	debugger *wire.FrameDebugger
}

func (c *liveChannel) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.debugger.Record("SEND", data)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *liveChannel) awaitSetupComplete(ctx context.Context) error {
	type readResult struct {
		data []byte
		err  error
	}
	resultCh := make(chan readResult, 1)
	go func() {
		_, data, err := c.conn.ReadMessage()
		resultCh <- readResult{data, err}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case r := <-resultCh:
		if r.err != nil {
			return fmt.Errorf("handshake read failed: %w", r.err)
		}
		c.debugger.Record("RECV", r.data)
		var frame serverFrame
		if err := json.Unmarshal(r.data, &frame); err != nil {
			return fmt.Errorf("handshake frame is not valid JSON: %w", err)
		}
		if frame.SetupComplete == nil {
			return fmt.Errorf("expected setupComplete, got: %s", truncate(string(r.data), 200))
		}
		return nil
	}
}

func (c *liveChannel) Send(ctx context.Context, msg *wire.ClientMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch {
	case msg.UserTurn != nil:
		frame := clientContentFrame{
			ClientContent: clientContent{
				Turns: []content{{
					Role:  "user",
					Parts: []part{{Text: msg.UserTurn.Text}},
				}},
				TurnComplete: msg.UserTurn.EndOfTurn,
			},
		}
		return c.writeJSON(&frame)

	case msg.ToolResponse != nil:
		responses := make([]functionResponse, 0, len(msg.ToolResponse.Results))
		for _, r := range msg.ToolResponse.Results {
			body := map[string]any{}
			if r.Error != "" {
				body["error"] = r.Error
			} else {
				body["output"] = r.Output
			}
			responses = append(responses, functionResponse{
				Name:     r.Name,
				ID:       r.ID,
				Response: body,
			})
		}
		frame := toolResponseFrame{ToolResponse: toolResponse{FunctionResponses: responses}}
		return c.writeJSON(&frame)
	}

	return fmt.Errorf("client message has no payload")
}

// Receive blocks until the next meaningful frame arrives. Frames that carry
// nothing for the session layer (usageMetadata-only) are skipped here.
func (c *liveChannel) Receive(ctx context.Context) (*wire.ServerMessage, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.closeMu.Lock()
			wasClosed := c.closed
			c.closeMu.Unlock()
			if wasClosed {
				return nil, fmt.Errorf("channel closed: %w", err)
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, fmt.Errorf("remote closed the session: %w", err)
			}
			return nil, fmt.Errorf("read failed: %w", err)
		}
		c.debugger.Record("RECV", data)

		var frame serverFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			// 非 JSON frame 交給上層歸類為 malformed
			return &wire.ServerMessage{Raw: string(data)}, nil
		}

		msg := translateFrame(&frame, string(data))
		if msg == nil {
			continue
		}
		return msg, nil
	}
}

// translateFrame maps one decoded frame to the transport-neutral message.
// Returns nil for frames the session layer never needs to see.
func translateFrame(frame *serverFrame, raw string) *wire.ServerMessage {
	switch {
	case frame.Error != nil:
		return &wire.ServerMessage{
			ErrorDetail: fmt.Sprintf("%s (%d %s)", frame.Error.Message, frame.Error.Code, frame.Error.Status),
			Raw:         raw,
		}

	case frame.ToolCall != nil:
		calls := make([]wire.FunctionCall, 0, len(frame.ToolCall.FunctionCalls))
		for _, fc := range frame.ToolCall.FunctionCalls {
			calls = append(calls, wire.FunctionCall{Name: fc.Name, ID: fc.ID, Args: fc.Args})
		}
		return &wire.ServerMessage{
			ToolCall: &wire.ToolCallRequest{Calls: calls},
			Raw:      raw,
		}

	case frame.ServerContent != nil:
		sc := frame.ServerContent
		msg := &wire.ServerMessage{TurnComplete: sc.TurnComplete, Raw: raw}
		if sc.ModelTurn != nil {
			mc := &wire.ModelContent{}
			for _, p := range sc.ModelTurn.Parts {
				switch {
				case p.ExecutableCode != nil:
					mc.Parts = append(mc.Parts, wire.Part{ExecutableCode: &wire.ExecutableCode{
						Language: p.ExecutableCode.Language,
						Code:     p.ExecutableCode.Code,
					}})
				case p.CodeExecutionResult != nil:
					mc.Parts = append(mc.Parts, wire.Part{CodeExecutionResult: &wire.CodeExecutionResult{
						Output: p.CodeExecutionResult.Output,
					}})
				default:
					mc.Parts = append(mc.Parts, wire.Part{Text: p.Text})
				}
			}
			if gm := sc.GroundingMetadata; gm != nil {
				switch {
				case gm.SearchEntryPoint != nil && gm.SearchEntryPoint.RenderedContent != "":
					mc.GroundingText = gm.SearchEntryPoint.RenderedContent
				case len(gm.WebSearchQueries) > 0:
					mc.GroundingText = "🔍 " + strings.Join(gm.WebSearchQueries, ", ")
				}
			}
			msg.Content = mc
		}
		if msg.Content == nil && !msg.TurnComplete {
			// serverContent 沒有內容也沒有結束標記 → 視為 malformed
			return &wire.ServerMessage{Raw: raw}
		}
		return msg

	case frame.SetupComplete != nil, frame.UsageMetadata != nil:
		return nil

	default:
		// 未知 frame 交給上層歸類
		return &wire.ServerMessage{Raw: raw}
	}
}

func (c *liveChannel) Close() error {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return nil
	}
	c.closed = true
	c.closeMu.Unlock()

	c.debugger.Close()

	c.writeMu.Lock()
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	return c.conn.Close()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
