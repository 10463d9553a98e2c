// Package telegram exposes the estimator as a Telegram bot. It answers
// /districts, /localities and /estimate commands with plain-text replies
// and retries failed sends with exponential backoff.
//
// When a chat ID is configured the bot only answers that chat.
package telegram

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rewired-gh/landoracle/internal/logger"
	"github.com/rewired-gh/landoracle/internal/models"
)

// Estimator is the part of the prediction service the bot needs.
type Estimator interface {
	Districts() []string
	Localities(district string) []string
	PredictPrice(ctx context.Context, district, locality string) (*models.PredictionResult, error)
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram commands
type Client struct {
	bot            *tgbotapi.BotAPI
	api            sender
	chatID         int64
	estimator      Estimator
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client. chatID may be empty, in which
// case every chat is answered.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration, est Estimator) (*Client, error) {
	var chatIDInt int64
	if chatID != "" {
		var err error
		chatIDInt, err = strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat ID: %w", err)
		}
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		api:            bot,
		chatID:         chatIDInt,
		estimator:      est,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// ListenForCommands polls for updates and answers commands until ctx is
// cancelled.
func (c *Client) ListenForCommands(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)
	defer c.bot.StopReceivingUpdates()

	logger.Info("Telegram bot @%s listening for commands", c.bot.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			msg := update.Message
			if msg == nil || !msg.IsCommand() {
				continue
			}
			if c.chatID != 0 && msg.Chat.ID != c.chatID {
				logger.Debug("Ignoring command from unauthorized chat %d", msg.Chat.ID)
				continue
			}

			reply := c.handleCommand(ctx, msg.Command(), msg.CommandArguments())
			if err := c.Send(ctx, msg.Chat.ID, reply); err != nil {
				logger.Error("Failed to answer /%s: %v", msg.Command(), err)
			}
		}
	}
}

// Send delivers text to chatID, retrying with exponential backoff.
func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryDelayBase
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries-1)), ctx)

	err := backoff.Retry(func() error {
		_, err := c.api.Send(msg)
		return err
	}, policy)
	if err != nil {
		return fmt.Errorf("failed to send message after %d attempts: %w", c.maxRetries, err)
	}
	return nil
}

func (c *Client) handleCommand(ctx context.Context, command, args string) string {
	switch command {
	case "start", "help":
		return helpText
	case "districts":
		return formatList("Districts", c.estimator.Districts(), "No districts are loaded.")
	case "localities":
		district := strings.TrimSpace(args)
		if district == "" {
			return "Usage: /localities <district>"
		}
		return formatList("Localities in "+displayName(district), c.estimator.Localities(district),
			fmt.Sprintf("No localities found for %s.", displayName(district)))
	case "estimate":
		district, locality, ok := parseEstimateArgs(args)
		if !ok {
			return "Usage: /estimate <district>, <locality>"
		}
		res, err := c.estimator.PredictPrice(ctx, district, locality)
		if models.IsNoMatch(err) {
			return fmt.Sprintf("No data available for this area (%s, %s).", displayName(district), displayName(locality))
		}
		if err != nil {
			logger.Error("Estimate for %q/%q failed: %v", district, locality, err)
			return "Estimation failed, please try again later."
		}
		return formatEstimate(res)
	default:
		return fmt.Sprintf("Unknown command /%s.\n\n%s", command, helpText)
	}
}

const helpText = `Land price estimator
/districts - list known districts
/localities <district> - list localities of a district
/estimate <district>, <locality> - estimate a land price`

// parseEstimateArgs splits "district, locality" on the first comma.
func parseEstimateArgs(args string) (district, locality string, ok bool) {
	parts := strings.SplitN(args, ",", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	district = strings.TrimSpace(parts[0])
	locality = strings.TrimSpace(parts[1])
	if district == "" || locality == "" {
		return "", "", false
	}
	return district, locality, true
}

func formatEstimate(res *models.PredictionResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s, %s\n", res.Locality, res.District)
	fmt.Fprintf(&sb, "Estimated price: %s\n", formatPrice(res.TotalPrice))
	if res.PricePerCent != nil {
		fmt.Fprintf(&sb, "Price per cent: %s\n", formatPrice(*res.PricePerCent))
	}
	fmt.Fprintf(&sb, "Average plot: %s cents", humanize.FtoaWithDigits(res.AvgCents, 2))
	return sb.String()
}

func formatPrice(v float64) string {
	return "₹" + humanize.Comma(int64(math.Round(v)))
}

func formatList(title string, items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d):", title, len(items))
	for _, item := range items {
		sb.WriteString("\n• " + displayName(item))
	}
	return sb.String()
}

func displayName(s string) string {
	return cases.Title(language.Und).String(strings.ToLower(strings.TrimSpace(s)))
}
