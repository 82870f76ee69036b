package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramConfig encapsulates the credentials required to authenticate with
// the Telegram Bot API.
type TelegramConfig struct {
	Token  string `json:"token"`   // The secret BOT API string provided by @BotFather
	ChatID int64  `json:"chat_id"` // The single chat bound to this session; 0 binds to the first sender
}

// TelegramFrontend is the Telegram implementation of api.Frontend. One
// session serves exactly one chat: messages from other chats are ignored.
// Streaming uses an accumulation-and-flush strategy since Telegram has no
// native mid-message updates.
type TelegramFrontend struct {
	config       TelegramConfig
	bot          *tgbotapi.BotAPI
	messageLimit int
	lines        chan string
	mu           sync.Mutex // protects chatID binding
	stopCtx      context.Context
	stopCancel   context.CancelFunc
}

func NewTelegramFrontend(cfg TelegramConfig, messageLimit int) (*TelegramFrontend, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	slog.Info("✅ Telegram bot authorized", "username", bot.Self.UserName)

	ctx, cancel := context.WithCancel(context.Background())
	return &TelegramFrontend{
		config:       cfg,
		bot:          bot,
		messageLimit: messageLimit,
		lines:        make(chan string),
		stopCtx:      ctx,
		stopCancel:   cancel,
	}, nil
}

// ID returns the platform identifier "telegram".
func (t *TelegramFrontend) ID() string {
	return "telegram"
}

// Start initiates the long-polling update loop in a background goroutine.
func (t *TelegramFrontend) Start(ctx context.Context) error {
	go func() {
		defer close(t.lines)

		offset := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.stopCtx.Done():
				return
			default:
			}

			reqConfig := tgbotapi.NewUpdate(offset)
			reqConfig.Timeout = 30

			updates, err := t.bot.GetUpdates(reqConfig)
			if err != nil {
				select {
				case <-t.stopCtx.Done():
					return // Ignore error if we are shutting down
				default:
					slog.Debug("Failed to get telegram updates", "error", err)
					time.Sleep(3 * time.Second)
					continue
				}
			}

			for _, update := range updates {
				if update.UpdateID >= offset {
					offset = update.UpdateID + 1
				}
				if update.Message == nil || update.Message.Text == "" {
					continue
				}
				if !t.acceptChat(update.Message.Chat.ID) {
					slog.Debug("Ignoring message from unbound chat", "chat_id", update.Message.Chat.ID)
					continue
				}

				select {
				case t.lines <- update.Message.Text:
				case <-ctx.Done():
					return
				case <-t.stopCtx.Done():
					return
				}
			}
		}
	}()

	return nil
}

// acceptChat 檢查訊息來源。未綁定時第一個傳訊者成為 session 的對象。
func (t *TelegramFrontend) acceptChat(chatID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.config.ChatID == 0 {
		t.config.ChatID = chatID
		slog.Info("✅ Telegram session bound", "chat_id", chatID)
		return true
	}
	return t.config.ChatID == chatID
}

func (t *TelegramFrontend) boundChat() (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.config.ChatID, t.config.ChatID != 0
}

// Lines returns the stream of operator input lines.
func (t *TelegramFrontend) Lines() <-chan string {
	return t.lines
}

// Send delivers one complete message, splitting it when it exceeds the
// platform message limit.
func (t *TelegramFrontend) Send(text string) error {
	chatID, ok := t.boundChat()
	if !ok {
		return fmt.Errorf("no chat bound yet")
	}

	msgRunes := []rune(text)
	totalLen := len(msgRunes)

	if totalLen <= t.messageLimit {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("telegram send failed: %w", err)
		}
		return nil
	}

	for i := 0; i < totalLen; i += t.messageLimit {
		end := i + t.messageLimit
		if end > totalLen {
			end = totalLen
		}
		msg := tgbotapi.NewMessage(chatID, string(msgRunes[i:end]))
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("telegram send chunk failed at index %d: %w", i, err)
		}
	}

	return nil
}

// Stream aggregates fragments and flushes them as one message when the
// stream ends.
func (t *TelegramFrontend) Stream(fragments <-chan string) error {
	var buf strings.Builder
	for fragment := range fragments {
		buf.WriteString(fragment)
	}
	if buf.Len() == 0 {
		return nil
	}
	return t.Send(buf.String())
}

// Signal 在等待模型回應時顯示 "typing" 狀態
func (t *TelegramFrontend) Signal(signal string) error {
	if signal != "thinking" {
		return nil
	}
	chatID, ok := t.boundChat()
	if !ok {
		return nil
	}
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	_, err := t.bot.Send(action)
	return err
}

func (t *TelegramFrontend) Stop() error {
	t.stopCancel()
	return nil
}
