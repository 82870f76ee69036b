package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// 編輯器存檔常以 rename+create 取代原檔，短時間內會看到多個事件
const reloadDebounce = 500 * time.Millisecond

// WatchReload 監看系統設定檔，回傳一個在檔案變動後 (去抖動) 發出變動路徑的
// channel。session 存活期間唯一支援熱調整的是 log level：main 收到訊號後
// 重新讀取 system.json 並套用，不會重啟 session 或重撥連線。
func WatchReload(ctx context.Context, files ...string) <-chan string {
	reloads := make(chan string, 1)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Error("Failed to create fsnotify watcher", "error", err)
		close(reloads)
		return reloads
	}

	watched := 0
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			slog.Warn("Could not resolve watch path", "file", file)
			continue
		}
		if err := watcher.Add(abs); err != nil {
			slog.Warn("Could not watch file", "file", file, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		watcher.Close()
		close(reloads)
		return reloads
	}

	go func() {
		defer watcher.Close()
		defer close(reloads)

		debounce := time.NewTimer(reloadDebounce)
		if !debounce.Stop() {
			<-debounce.C
		}
		pendingPath := ""

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
					pendingPath = event.Name
					debounce.Reset(reloadDebounce)
				}

			case <-debounce.C:
				slog.Info("System config changed", "file", pendingPath)
				select {
				case reloads <- pendingPath:
				default: // 上一個訊號還沒被消化就不重複排隊
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("Watcher encountered an error", "error", err)
			}
		}
	}()

	return reloads
}
