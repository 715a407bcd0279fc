package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"golang.org/x/time/rate"

	"garden-monitor/internal/config"
	"garden-monitor/internal/logging"
	"garden-monitor/internal/utils"
)

// TelegramProvider returns a Provider that pushes newly-appeared alerts
// to the configured chat. Sends are rate-limited and retried.
func TelegramProvider(cfg config.Config, settings *SettingsStore, log *logging.Logger) Provider {
	limiter := rate.NewLimiter(rate.Limit(float64(cfg.Telegram.RatePerSecond)), cfg.Telegram.RatePerSecond)

	return func(ctx context.Context, task Task) error {
		s := settings.LoadTelegram(ctx)
		if !s.Enabled || s.ChatID == 0 {
			return nil
		}
		if cfg.Telegram.BotToken == "" {
			log.Debugf("Telegram bot token not configured, skipping alert %s", task.Alert.ID)
			return nil
		}

		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("telegram rate limit wait failed: %w", err)
		}

		text := fmt.Sprintf(
			"*%s*\n%s\n\n*Current value:* %g%s\n*Threshold:* %s\n*Time:* %s",
			task.Alert.Metric,
			task.Alert.Message,
			task.Alert.Value,
			task.Alert.Unit,
			task.Alert.Threshold,
			task.Alert.ReceivedAt.Format("2006-01-02 15:04"),
		)

		return utils.Retry(log, 3, time.Second, func() error {
			b, err := bot.New(cfg.Telegram.BotToken)
			if err != nil {
				return fmt.Errorf("failed to initialize Telegram bot: %w", err)
			}
			params := &bot.SendMessageParams{
				ChatID:    s.ChatID,
				Text:      text,
				ParseMode: "Markdown",
			}
			if _, err := b.SendMessage(ctx, params); err != nil {
				return fmt.Errorf("failed to send Telegram message to chat %d: %w", s.ChatID, err)
			}
			return nil
		})
	}
}
