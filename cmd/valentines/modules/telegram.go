package modules

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"

	"github.com/memohai/valentines/internal/boot"
	"github.com/memohai/valentines/internal/config"
	"github.com/memohai/valentines/internal/inbound"
	"github.com/memohai/valentines/internal/router"
	"github.com/memohai/valentines/internal/telegram"
)

var TelegramModule = fx.Module(
	"telegram",
	fx.Provide(
		provideBotAPI,
		provideSender,
		provideDispatcher,
		provideBot,
	),
	fx.Invoke(startTelegram),
)

func provideBotAPI(log *slog.Logger, rc *boot.RuntimeConfig) (*tgbotapi.BotAPI, error) {
	return telegram.NewBotAPI(log, rc.BotToken)
}

func provideSender(log *slog.Logger, api *tgbotapi.BotAPI, cfg config.Config) *telegram.Sender {
	return telegram.NewSender(log, api, cfg.Telegram.SendRate, cfg.Telegram.SendBurst)
}

func provideDispatcher(log *slog.Logger, r *router.Router, sender *telegram.Sender, cfg config.Config) *inbound.Dispatcher {
	return inbound.NewDispatcher(log, r, sender, inbound.Config{
		Workers:   cfg.Inbound.Workers,
		QueueSize: cfg.Inbound.QueueSize,
	})
}

func provideBot(log *slog.Logger, api *tgbotapi.BotAPI, sender *telegram.Sender, dispatcher *inbound.Dispatcher, rc *boot.RuntimeConfig, cfg config.Config) *telegram.Bot {
	return telegram.NewBot(log, api, sender, dispatcher, telegram.Options{
		WebhookURL:  rc.WebhookURL,
		SecretToken: cfg.Telegram.SecretToken,
		PollTimeout: cfg.Telegram.PollTimeout,
	})
}

func startTelegram(lc fx.Lifecycle, log *slog.Logger, rc *boot.RuntimeConfig, dispatcher *inbound.Dispatcher, bot *telegram.Bot) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			dispatcher.Start(context.Background())
			switch rc.TelegramMode {
			case config.TelegramModePolling:
				return bot.StartPolling(context.Background())
			default:
				if rc.WebhookURL == "" {
					log.Warn("webhook url not set; expecting the webhook to be registered externally")
					return nil
				}
				return bot.RegisterWebhook(ctx)
			}
		},
		OnStop: func(context.Context) error {
			bot.Stop()
			dispatcher.Stop()
			return nil
		},
	})
}
