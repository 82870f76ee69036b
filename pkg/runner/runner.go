package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"parley/pkg/api"
	"parley/pkg/chat"
	"parley/pkg/monitor"
)

// Runner 驅動 operator 迴圈：讀取輸入、送進 session、把回應串流回 frontend。
// 一個 Runner 服務一條 session，session 結束時 Run 返回。
type Runner struct {
	session  *chat.Session
	frontend api.Frontend
	monitors []monitor.Monitor
}

func New(session *chat.Session, frontend api.Frontend, monitors ...monitor.Monitor) *Runner {
	return &Runner{
		session:  session,
		frontend: frontend,
		monitors: monitors,
	}
}

// Run 執行主迴圈直到 operator 離開、輸入來源關閉或 session 損壞。
func (r *Runner) Run(ctx context.Context) error {
	if err := r.frontend.Start(ctx); err != nil {
		return fmt.Errorf("failed to start frontend: %w", err)
	}
	defer r.frontend.Stop()

	for {
		select {
		case <-ctx.Done():
			r.finish()
			return ctx.Err()

		case line, ok := <-r.frontend.Lines():
			if !ok {
				// 輸入來源關閉 (EOF)，視同離開
				r.finish()
				return nil
			}

			if isQuit(line) {
				r.finish()
				return nil
			}

			if err := r.handleTurn(ctx, line); err != nil {
				var chErr *chat.ChannelError
				if errors.As(err, &chErr) {
					// 完整錯誤進 log，operator 只看到通用訊息
					slog.Error("❌ Session channel broken", "error", chErr)
					r.frontend.Send("⚠️ Session ended due to a connection error.")
					return err
				}
				return err
			}

			r.signal("ready")
		}
	}
}

// handleTurn 送出一次輸入並把整輪回應串流給 frontend
func (r *Runner) handleTurn(ctx context.Context, line string) error {
	err := r.session.SendUserTurn(ctx, line)
	if errors.Is(err, chat.ErrBlankInput) {
		// 空輸入是 no-op，直接回到輸入提示
		return nil
	}
	if err != nil {
		return err
	}

	r.broadcast("USER", line)
	r.signal("thinking")

	fragments := make(chan string, 100)
	streamDone := make(chan error, 1)
	go func() {
		streamDone <- r.frontend.Stream(fragments)
	}()

	var turnErr error
	var response strings.Builder

	for event := range r.session.Receive(ctx) {
		switch ev := event.(type) {
		case chat.TextDelta:
			response.WriteString(ev.Text)
			fragments <- ev.Text

		case chat.ModelContent:
			for _, p := range ev.Content.Parts {
				switch {
				case p.ExecutableCode != nil:
					block := fmt.Sprintf("\n```%s\n%s\n```\n", p.ExecutableCode.Language, p.ExecutableCode.Code)
					response.WriteString(block)
					fragments <- block
				case p.CodeExecutionResult != nil:
					block := fmt.Sprintf("\n📟 %s\n", p.CodeExecutionResult.Output)
					response.WriteString(block)
					fragments <- block
				case p.Text != "":
					response.WriteString(p.Text)
					fragments <- p.Text
				}
			}
			if ev.Content.GroundingText != "" {
				note := "\n" + ev.Content.GroundingText + "\n"
				response.WriteString(note)
				fragments <- note
			}

		case chat.ToolCallRequest:
			names := make([]string, 0, len(ev.Calls))
			for _, call := range ev.Calls {
				names = append(names, call.Name)
			}
			slog.Info("🛠️ Model requested tools", "tools", names)
			fragments <- fmt.Sprintf("\n🛠️ [%s]\n", strings.Join(names, ", "))

		case chat.TurnEnd:
			// 事件流即將關閉

		case chat.Malformed:
			// session 已記錄，這裡不打擾 operator

		case chat.ChannelFailure:
			turnErr = ev.Err
		}
	}

	close(fragments)
	if err := <-streamDone; err != nil {
		slog.Error("❌ Failed to stream response to frontend", "error", err)
	}

	if response.Len() > 0 {
		r.broadcast("MODEL", response.String())
	}

	return turnErr
}

// finish 關閉 session 並輸出完整文字稿
func (r *Runner) finish() {
	r.session.Close()

	transcript := r.session.History().Render()
	if transcript != "" {
		r.frontend.Send("\n📜 Transcript:\n\n" + transcript)
	}
	slog.Info("👋 Session closed", "turns", r.session.History().Len())
}

func (r *Runner) signal(signal string) {
	if sf, ok := r.frontend.(api.SignalingFrontend); ok {
		if err := sf.Signal(signal); err != nil {
			slog.Debug("Signal delivery failed", "signal", signal, "error", err)
		}
	}
}

func (r *Runner) broadcast(role string, content string) {
	msg := monitor.MonitorMessage{
		Timestamp: time.Now(),
		Role:      role,
		Source:    r.frontend.ID(),
		Content:   content,
	}
	for _, m := range r.monitors {
		m.OnMessage(msg)
	}
}

// isQuit 判斷是否為離開指令 (大小寫不敏感)
func isQuit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "quit", "exit":
		return true
	}
	return false
}
