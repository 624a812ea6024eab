// Package notify sends run outcomes to the operator over Telegram.
package notify

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dajimenez/loteriasrd/internal/pkg/models"
)

// Min interval between two messages to the same chat, to stay clear of
// Telegram's per-minute send limit.
const sendInterval = 2 * time.Second

// TelegramNotifier sends scraping run summaries to a chat. A nil
// notifier is a safe no-op, so callers can hold one unconditionally.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64

	mu       sync.Mutex
	lastSend time.Time
}

// NewTelegramNotifier creates a notifier and verifies the bot token.
// Returns nil (not an error) when the bot cannot be reached, so a broken
// notifier never blocks the pipeline.
func NewTelegramNotifier(token string, chatID int64) *TelegramNotifier {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("Failed to create telegram bot", "error", err)
		return nil
	}
	bot.Debug = false

	if _, err := bot.GetMe(); err != nil {
		slog.Error("Failed to get telegram bot info", "error", err)
		return nil
	}

	slog.Info("Telegram notifier initialized", "chat_id", chatID)
	return &TelegramNotifier{bot: bot, chatID: chatID}
}

// NotifyRun sends one summary message for a completed run. Fully
// successful runs are sent too; the message is short.
func (n *TelegramNotifier) NotifyRun(report *models.RunReport) {
	if n == nil || report == nil {
		return
	}
	n.send(formatRunReport(report))
}

func formatRunReport(report *models.RunReport) string {
	var b strings.Builder
	if report.Success() {
		b.WriteString("✅ Scraping run completed\n")
	} else {
		b.WriteString("⚠️ Scraping run finished with errors\n")
	}
	fmt.Fprintf(&b, "ok=%d warn=%d error=%d in %s\n",
		report.Succeeded, report.Warned, report.Errored, report.Duration.Round(time.Second))
	for _, sr := range report.Sources {
		switch sr.Status {
		case models.StatusError:
			fmt.Fprintf(&b, "• %s: ERROR (%s)\n", sr.Source, sr.Error)
		case models.StatusWarning:
			fmt.Fprintf(&b, "• %s: no results\n", sr.Source)
		default:
			fmt.Fprintf(&b, "• %s: %d stored\n", sr.Source, sr.Stored)
		}
	}
	return b.String()
}

func (n *TelegramNotifier) send(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if wait := sendInterval - time.Since(n.lastSend); wait > 0 {
		time.Sleep(wait)
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		slog.Error("Failed to send telegram notification", "error", err)
		return
	}
	n.lastSend = time.Now()
}
