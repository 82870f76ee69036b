package console

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"
)

// ConsoleFrontend 讓 operator 直接在終端機與模型對話。
// 回應以串流方式逐字印出，"ready" 訊號重新顯示輸入提示。
type ConsoleFrontend struct {
	lines      chan string
	stopCtx    context.Context
	stopCancel context.CancelFunc
	writeMu    sync.Mutex
}

func NewConsoleFrontend() *ConsoleFrontend {
	ctx, cancel := context.WithCancel(context.Background())
	return &ConsoleFrontend{
		lines:      make(chan string),
		stopCtx:    ctx,
		stopCancel: cancel,
	}
}

// ID returns the platform identifier "console".
func (c *ConsoleFrontend) ID() string {
	return "console"
}

// Start launches the stdin reader loop in a background goroutine.
func (c *ConsoleFrontend) Start(ctx context.Context) error {
	c.printPrompt()

	go func() {
		defer close(c.lines)

		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			select {
			case c.lines <- scanner.Text():
			case <-ctx.Done():
				return
			case <-c.stopCtx.Done():
				return
			}
		}
		// stdin closed (EOF / Ctrl-D)
	}()

	return nil
}

// Lines returns the stream of operator input lines. The channel closes when
// stdin reaches EOF or the frontend is stopped.
func (c *ConsoleFrontend) Lines() <-chan string {
	return c.lines
}

// Send prints one complete message.
func (c *ConsoleFrontend) Send(text string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	fmt.Println(text)
	return nil
}

// Stream prints fragments as they arrive, without trailing newline per
// fragment, so the response grows in place like the remote generation does.
func (c *ConsoleFrontend) Stream(fragments <-chan string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	for fragment := range fragments {
		fmt.Print(fragment)
	}
	fmt.Println()
	return nil
}

// Signal 處理 runner 的流程訊號，"ready" 表示可再次輸入
func (c *ConsoleFrontend) Signal(signal string) error {
	if signal == "ready" {
		c.printPrompt()
	}
	return nil
}

func (c *ConsoleFrontend) printPrompt() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	fmt.Print("\n👤 You: ")
}

func (c *ConsoleFrontend) Stop() error {
	c.stopCancel()
	return nil
}
