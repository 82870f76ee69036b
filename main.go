package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parley/pkg/channels"
	_ "parley/pkg/channels/autoload"
	"parley/pkg/chat"
	"parley/pkg/config"
	"parley/pkg/monitor"
	"parley/pkg/runner"
	"parley/pkg/tools"
	"parley/pkg/wire"
	_ "parley/pkg/wire/autoload"
)

func main() {
	monitor.PrintBanner()

	// 讀取配置
	cfg, sysCfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	monitor.SetupSlog(sysCfg.LogLevel)
	slog.Info("✅ Configuration loaded", "log_level", sysCfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 監看 system.json，log level 支援熱調整
	reloads := config.WatchReload(ctx, "system.json")
	go func() {
		for range reloads {
			newSys := config.LoadSystemConfig("system.json")
			monitor.SetLogLevel(newSys.LogLevel)
			slog.Info("🔄 Log level reloaded", "log_level", newSys.LogLevel)
		}
	}()

	// 建立 provider dialer (含 fallback)
	dialer, err := wire.NewFromConfig(
		cfg.LLM,
		sysCfg.MaxRetries,
		time.Duration(sysCfg.RetryDelayMs)*time.Millisecond,
	)
	if err != nil {
		slog.Error("❌ Failed to initialize providers", "error", err)
		os.Exit(1)
	}

	// 工具註冊
	registry := tools.NewRegistry()
	if sysCfg.EnableTools {
		tools.RegisterDefaults(registry, time.Duration(sysCfg.HTTPToolTimeoutMs)*time.Millisecond)
	} else {
		slog.Info("Tool calling disabled by system config")
	}

	// 建立 session (握手有連線逾時上限)
	dialCtx, dialCancel := context.WithTimeout(ctx, time.Duration(sysCfg.ConnectTimeoutMs)*time.Millisecond)
	session, err := chat.Open(dialCtx, dialer, chat.Options{
		SystemPrompt:       cfg.SystemPrompt,
		ResponseModalities: cfg.ResponseModalities,
		Tools:              registry,
		EventBuffer:        sysCfg.EventBuffer,
		EnableSearch:       sysCfg.EnableSearch,
		EnableCodeExec:     sysCfg.EnableCodeExecution,
		DebugFrames:        sysCfg.DebugFrames,
	})
	dialCancel()
	if err != nil {
		slog.Error("❌ Failed to open session", "error", err)
		os.Exit(1)
	}
	defer session.Close()

	// operator frontend
	frontend, err := channels.LoadFromConfig(cfg.Frontend, sysCfg)
	if err != nil {
		slog.Error("❌ Failed to create frontend", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Frontend ready", "frontend", frontend.ID())

	// frontend 不在本機時，把對話鏡射到終端
	var monitors []monitor.Monitor
	if frontend.ID() != "console" {
		cli := monitor.NewCLIMonitor()
		cli.Start()
		defer cli.Stop()
		monitors = append(monitors, cli)
	}

	r := runner.New(session, frontend, monitors...)
	if err := r.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("❌ Session terminated abnormally", "error", err)
		os.Exit(1)
	}

	slog.Info("✅ Shutdown complete")
}
