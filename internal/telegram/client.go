// Package telegram provides a client for sending run notifications via
// Telegram Bot API.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"volband/internal/models"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

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

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendSummary sends the end-of-run summary: succeeded and failed symbols
// with the failing stage for each.
func (c *Client) SendSummary(summary models.RunSummary) error {
	return c.sendMarkdownV2(formatSummary(summary))
}

// SendBreaches notifies about instruments whose latest scaled close ended
// outside their volatility band.
func (c *Client) SendBreaches(breaches []models.SymbolOutcome) error {
	if len(breaches) == 0 {
		return nil
	}
	return c.sendMarkdownV2(formatBreaches(breaches))
}

func formatSummary(summary models.RunSummary) string {
	succeeded := summary.Succeeded()
	failed := summary.Failed()

	var b strings.Builder
	if len(failed) == 0 {
		b.WriteString("✅ *Daily range report complete*\n")
	} else if len(succeeded) == 0 {
		b.WriteString("❌ *Daily range report failed*\n")
	} else {
		b.WriteString("⚠️ *Daily range report partial*\n")
	}

	fmt.Fprintf(&b, "Run `%s` finished in %s\n\n",
		escapeMarkdownV2(summary.RunID), escapeMarkdownV2(summary.Duration.Round(time.Millisecond).String()))
	fmt.Fprintf(&b, "Succeeded: %d\n", len(succeeded))

	if len(failed) > 0 {
		fmt.Fprintf(&b, "Failed: %d\n", len(failed))
		for _, o := range summary.Outcomes {
			if o.OK() {
				continue
			}
			fmt.Fprintf(&b, "• *%s* \\(%s\\): %s\n",
				escapeMarkdownV2(o.Symbol), escapeMarkdownV2(string(o.Stage)), escapeMarkdownV2(o.Err.Error()))
		}
	}

	return b.String()
}

func formatBreaches(breaches []models.SymbolOutcome) string {
	var b strings.Builder
	b.WriteString("🚨 *Band breaches*\n\n")

	for _, o := range breaches {
		direction := "above"
		if o.LastClose < o.Band.LowerBound {
			direction = "below"
		}
		fmt.Fprintf(&b, "• *%s*: close %s %s band \\[%s, %s\\]\n",
			escapeMarkdownV2(o.Symbol),
			escapeMarkdownV2(formatPrice(o.LastClose)),
			direction,
			escapeMarkdownV2(formatPrice(o.Band.LowerBound)),
			escapeMarkdownV2(formatPrice(o.Band.UpperBound)),
		)
	}

	return b.String()
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// escapeMarkdownV2 escapes the characters Telegram's MarkdownV2 parser
// treats as markup.
func escapeMarkdownV2(s string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)
	return replacer.Replace(s)
}
