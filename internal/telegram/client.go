// Package telegram publishes report texts to a Telegram chat.
// Reports are written in a small markdown dialect (## headings, - bullets,
// **bold**, pipe tables) and converted to MarkdownV2 before sending.
//
// Delivery is retried with linear backoff. The Publisher suppresses a report
// whose exact text already went out within the cooldown window.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the part of tgbotapi.BotAPI the client uses
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram delivery
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newClient(bot, chatID, maxRetries, retryDelayBase)
}

func newClient(bot sender, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// Send converts a markdown report to MarkdownV2 and delivers it
func (c *Client) Send(ctx context.Context, title, report string) error {
	msg := tgbotapi.NewMessage(c.chatID, formatMessage(title, report))
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelayBase * time.Duration(i)):
			}
		}
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatMessage renders a markdown report as a MarkdownV2 message
func formatMessage(title, report string) string {
	var b strings.Builder
	b.WriteString("📋 *" + escapeMarkdownV2(title) + "*\n\n")

	inTable := false
	for _, line := range strings.Split(strings.TrimRight(report, "\n"), "\n") {
		isTable := strings.HasPrefix(line, "|")
		if isTable != inTable {
			b.WriteString("```\n")
			inTable = isTable
		}
		switch {
		case isTable:
			if strings.HasPrefix(line, "|---") {
				continue
			}
			b.WriteString(escapeCode(line) + "\n")
		case strings.HasPrefix(line, "## "):
			b.WriteString("*" + escapeMarkdownV2(strings.TrimPrefix(line, "## ")) + "*\n")
		case strings.HasPrefix(line, "- "):
			b.WriteString("• " + convertInline(strings.TrimPrefix(line, "- ")) + "\n")
		default:
			b.WriteString(convertInline(line) + "\n")
		}
	}
	if inTable {
		b.WriteString("```\n")
	}
	return b.String()
}

// convertInline turns **bold** spans into MarkdownV2 bold and escapes the rest
func convertInline(text string) string {
	parts := strings.Split(text, "**")
	var b strings.Builder
	for i, part := range parts {
		// an unpaired trailing marker is left as literal text
		if i%2 == 1 && i < len(parts)-1 {
			b.WriteString("*" + escapeMarkdownV2(part) + "*")
			continue
		}
		if i%2 == 1 {
			b.WriteString(escapeMarkdownV2("**" + part))
			continue
		}
		b.WriteString(escapeMarkdownV2(part))
	}
	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// Characters that need escaping in MarkdownV2:
	// _ * [ ] ( ) ~ ` > # + - = | { } . ! \
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

// escapeCode escapes text inside a pre block, where only ` and \ are special
func escapeCode(text string) string {
	return strings.NewReplacer("\\", "\\\\", "`", "\\`").Replace(text)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if hours := int(d.Hours()); hours >= 1 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}
