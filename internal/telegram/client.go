// Package telegram delivers breach announcements and handles the bot commands
// that tune the decision engine at runtime.
package telegram

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tickersentry/internal/core"
	"tickersentry/internal/logger"
	"tickersentry/internal/metrics"
	"tickersentry/internal/models"
)

// Client handles Telegram notifications and bot commands.
type Client struct {
	bot            *tgbotapi.BotAPI
	core           *core.Core
	recipients     []int64
	admins         map[int64]bool
	maxRetries     int
	retryDelayBase time.Duration
	format         FormatOptions

	// onTunablesChanged fires after a bot command successfully updates the
	// thresholds, so the caller can persist the new state promptly.
	onTunablesChanged func()
}

// NewClient creates a Telegram client. Commands are only accepted from
// adminIDs; announcements go to every recipient.
func NewClient(botToken string, recipients, adminIDs []int64, c *core.Core, maxRetries int, retryDelayBase time.Duration, format FormatOptions) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}

	return &Client{
		bot:            bot,
		core:           c,
		recipients:     recipients,
		admins:         admins,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
		format:         format,
	}, nil
}

// OnTunablesChanged registers a hook invoked after a successful threshold
// update via bot command.
func (c *Client) OnTunablesChanged(fn func()) {
	c.onTunablesChanged = fn
}

// SendBreaches delivers one batch of breach events as a single message to
// every recipient. Delivery is at-least-once, best-effort: a failed recipient
// is logged and does not block the others.
func (c *Client) SendBreaches(events []models.BreachEvent) error {
	if len(events) == 0 {
		return nil
	}
	text := formatBatch(events, c.format)

	var lastErr error
	for _, chatID := range c.recipients {
		if err := c.sendHTML(chatID, text); err != nil {
			logger.Error("Failed to send announcement to %d: %v", chatID, err)
			metrics.NotificationsSent.WithLabelValues("error").Inc()
			lastErr = err
			continue
		}
		metrics.NotificationsSent.WithLabelValues("ok").Inc()
	}
	return lastErr
}

// sendHTML sends an HTML message with linear-backoff retry.
func (c *Client) sendHTML(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML

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

var (
	tuneCommandRe = regexp.MustCompile(`^(n|p|pt|pp|v)\s+(\d+(?:\.\d+)?)$`)
	symbolQueryRe = regexp.MustCompile(`^\w+$`)
)

// ListenForCommands starts a goroutine polling for bot updates. Only
// whitelisted admins are answered; everyone else is ignored silently.
func (c *Client) ListenForCommands(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				msg := update.Message
				if msg == nil || msg.From == nil || !c.admins[msg.From.ID] {
					continue
				}
				c.handleMessage(msg)
			}
		}
	}()
}

func (c *Client) handleMessage(msg *tgbotapi.Message) {
	if m := tuneCommandRe.FindStringSubmatch(msg.Text); m != nil {
		c.reply(msg.Chat.ID, c.applyTunable(m[1], m[2]))
		return
	}
	if symbolQueryRe.MatchString(msg.Text) {
		c.handleLookup(msg)
	}
}

// applyTunable maps the short command vocabulary onto threshold updates.
// Out-of-range or rejected values leave the prior thresholds in effect.
func (c *Client) applyTunable(command, rawValue string) string {
	value, err := strconv.ParseFloat(rawValue, 64)
	if err != nil {
		return "Could not process the request"
	}

	th := c.core.Thresholds()
	var confirmation string
	switch command {
	case "n":
		if value <= 0 || value >= 1000 {
			return "Could not process the request"
		}
		th.MinNotificationTimeoutMs = int64(value * 1000)
		confirmation = fmt.Sprintf("Min notification timeout set to: %gs", value)
	case "p":
		if value <= 0 || value >= 50 {
			return "Could not process the request"
		}
		th.MinPriceNotificationPercent = value
		confirmation = fmt.Sprintf("Min price notification percent set to: %g%%", value)
	case "pt":
		if value <= 0 || value >= 50 {
			return "Could not process the request"
		}
		th.MinPriceBreachTimeoutMs = int64(value)
		confirmation = fmt.Sprintf("Min price breach timeout set to: %gms", value)
	case "pp":
		if value <= 0 || value >= 50 {
			return "Could not process the request"
		}
		th.MinPriceBreachPercent = value
		confirmation = fmt.Sprintf("Min price breach percent set to: %g%%", value)
	case "v":
		if value <= 0 {
			return "Could not process the request"
		}
		th.MinVolumeLimit = value
		confirmation = fmt.Sprintf("Min volume limit set to: %.0f$", value)
	default:
		return "Could not process the request"
	}

	if err := c.core.SetThresholds(th); err != nil {
		logger.Warn("Rejected tunable update %s=%s: %v", command, rawValue, err)
		return "Could not process the request"
	}
	if c.onTunablesChanged != nil {
		c.onTunablesChanged()
	}
	return confirmation
}

// handleLookup answers a bare-word message with the latest data for every
// tracked pair containing that fragment.
func (c *Client) handleLookup(msg *tgbotapi.Message) {
	rows := c.core.Search(strings.ToUpper(msg.Text))
	if len(rows) > 20 {
		rows = rows[:20]
	}
	if len(rows) == 0 {
		c.reply(msg.Chat.ID, "No data")
		return
	}
	c.replyHTML(msg.Chat.ID, formatRows(rows, c.format))
}

func (c *Client) reply(chatID int64, text string) {
	reply := tgbotapi.NewMessage(chatID, text)
	c.bot.Send(reply) //nolint:errcheck
}

func (c *Client) replyHTML(chatID int64, text string) {
	reply := tgbotapi.NewMessage(chatID, text)
	reply.ParseMode = tgbotapi.ModeHTML
	c.bot.Send(reply) //nolint:errcheck
}
