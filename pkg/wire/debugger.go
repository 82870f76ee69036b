package wire

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FrameDebugger 將原始 wire frame 寫入 debug/frames/<provider>/ 方便排查。
// 每個 session 一個檔案，frame 依序附加。
type FrameDebugger struct {
	mu       sync.Mutex
	file     *os.File
	enabled  bool
	sequence int
}

// NewFrameDebugger creates a debugger for one live channel. When enabled is
// false every method is a no-op, so call sites don't need nil checks.
func NewFrameDebugger(provider string, enabled bool) *FrameDebugger {
	d := &FrameDebugger{enabled: enabled}
	if !enabled {
		return d
	}

	dir := filepath.Join("debug", "frames", provider)
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Warn("Failed to create frame debug directory", "dir", dir, "error", err)
		d.enabled = false
		return d
	}

	name := filepath.Join(dir, fmt.Sprintf("session_%s.log", time.Now().Format("20060102_150405")))
	file, err := os.Create(name)
	if err != nil {
		slog.Warn("Failed to create frame debug file", "file", name, "error", err)
		d.enabled = false
		return d
	}

	d.file = file
	slog.Debug("🛠️ Frame debugger active", "file", name)
	return d
}

// Record appends one frame with direction marker ("SEND" / "RECV").
func (d *FrameDebugger) Record(direction string, payload []byte) {
	if !d.enabled {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.sequence++
	header := fmt.Sprintf("--- #%d %s %s ---\n", d.sequence, direction, time.Now().Format("15:04:05.000"))
	if _, err := d.file.WriteString(header); err != nil {
		return
	}
	d.file.Write(payload)
	d.file.WriteString("\n")
}

// Close flushes and closes the underlying file.
func (d *FrameDebugger) Close() {
	if !d.enabled || d.file == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.file.Close()
	d.file = nil
	d.enabled = false
}
