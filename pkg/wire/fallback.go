package wire

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// FallbackDialer 支援多個 Dialer 分級嘗試：依序撥號，暫時性錯誤會重試，
// 第一個成功建立的 Channel 勝出。
type FallbackDialer struct {
	Dialers    []Dialer
	MaxRetries int
	RetryDelay time.Duration
}

func (f *FallbackDialer) Provider() string {
	return "fallback"
}

func (f *FallbackDialer) Dial(ctx context.Context, cfg Config) (Channel, error) {
	var lastErr error
	for i, dialer := range f.Dialers {
		if i > 0 {
			slog.Warn("⚠️ Previous provider failed. Trying fallback provider", "index", i+1, "provider", dialer.Provider())
		}

		maxRetries := f.MaxRetries
		if maxRetries <= 0 {
			maxRetries = 1
		}

		for retry := 1; retry <= maxRetries; retry++ {
			if retry > 1 {
				slog.Info("🔄 Retrying provider", "provider", dialer.Provider(), "attempt", fmt.Sprintf("%d/%d", retry, maxRetries))
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Duration(retry-1) * f.RetryDelay):
				}
			}

			ch, err := dialer.Dial(ctx, cfg)
			if err == nil {
				return ch, nil
			}

			lastErr = err

			if dialer.IsTransientError(err) && retry < maxRetries {
				slog.Warn("❌ Provider dial failed with transient error, retrying", "provider", dialer.Provider(), "error", err)
				continue
			}

			slog.Error("❌ Provider dial failed", "provider", dialer.Provider(), "error", err)
			break
		}
	}
	return nil, fmt.Errorf("all fallback providers failed. Last error: %v", lastErr)
}

// IsTransientError 實作 Dialer 介面。FallbackDialer 的錯誤意味著所有
// child 都已失敗，因此視為非暫時性。
func (f *FallbackDialer) IsTransientError(err error) bool {
	return false
}
