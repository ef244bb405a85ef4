package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram caps message payloads at 4096 characters.
const telegramMessageLimit = 4096

// TelegramTransport delivers messages over the Telegram Bot API and runs
// the long-poll update loop feeding the conversation engine.
type TelegramTransport struct {
	api    *tgbotapi.BotAPI
	logger *log.Logger
}

func NewTelegramTransport(token string, logger *log.Logger) (*TelegramTransport, error) {
	if logger == nil {
		logger = log.Default()
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &TelegramTransport{api: api, logger: logger}, nil
}

func (t *TelegramTransport) SendMessage(sessionID int64, text string) error {
	for _, part := range splitMessage(text, telegramMessageLimit) {
		msg := tgbotapi.NewMessage(sessionID, part)
		if _, err := t.api.Send(msg); err != nil {
			return fmt.Errorf("send telegram message: %w", err)
		}
	}
	return nil
}

func (t *TelegramTransport) NotifyTyping(sessionID int64) {
	action := tgbotapi.NewChatAction(sessionID, tgbotapi.ChatTyping)
	if _, err := t.api.Request(action); err != nil {
		t.logger.Printf("send typing action to %d: %v", sessionID, err)
	}
}

// sequencer runs queued functions for the same id one after another in
// queue order. Functions for different ids run concurrently.
type sequencer struct {
	mu   sync.Mutex
	tail map[int64]chan struct{}
}

func newSequencer() *sequencer {
	return &sequencer{tail: make(map[int64]chan struct{})}
}

// Do schedules fn behind every previously queued fn for id and returns
// immediately.
func (s *sequencer) Do(id int64, fn func()) {
	s.mu.Lock()
	prev := s.tail[id]
	done := make(chan struct{})
	s.tail[id] = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		fn()
	}()
}

// Run polls for updates until ctx is cancelled. Updates from the same
// chat are handled in arrival order; chats are independent of each other.
func (t *TelegramTransport) Run(ctx context.Context, svc *Service) error {
	t.logger.Printf("telegram bot @%s started", t.api.Self.UserName)

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := t.api.GetUpdatesChan(cfg)

	mention := "@" + t.api.Self.UserName
	seq := newSequencer()

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}

			text := strings.TrimSpace(strings.ReplaceAll(update.Message.Text, mention, ""))
			fromName := ""
			if update.Message.From != nil {
				fromName = update.Message.From.FirstName
			}

			chatID := update.Message.Chat.ID
			seq.Do(chatID, func() {
				svc.Handle(ctx, chatID, text, fromName)
			})
		}
	}
}

// splitMessage breaks text into transport-sized parts, preferring newline
// boundaries.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	parts := make([]string, 0, len(text)/limit+1)
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			// back off to the previous rune start so a multi-byte rune
			// never straddles two parts
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		parts = append(parts, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

var _ Transport = (*TelegramTransport)(nil)
