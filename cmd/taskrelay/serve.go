package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/taskrelayhq/taskrelay/internal/chat"
	"github.com/taskrelayhq/taskrelay/internal/chat/telegram"
	"github.com/taskrelayhq/taskrelay/internal/chat/whatsapp"
	"github.com/taskrelayhq/taskrelay/internal/completion"
	"github.com/taskrelayhq/taskrelay/internal/config"
	"github.com/taskrelayhq/taskrelay/internal/handlers"
	"github.com/taskrelayhq/taskrelay/internal/logger"
	"github.com/taskrelayhq/taskrelay/internal/mapping"
	"github.com/taskrelayhq/taskrelay/internal/relay"
	"github.com/taskrelayhq/taskrelay/internal/server"
)

func runServe(cfgPath string) error {
	app := fx.New(
		fx.Provide(
			provideConfig(cfgPath),
			provideLogger,
			provideMappingStore,
			provideProcessor,
			provideForwarder,
			provideChatClient,
			provideRelayService,
			handlers.NewPingHandler,
			provideMappingHandler,
			provideWebhookHandler,
			provideServer,
		),
		fx.Invoke(
			startInbound,
			startServer,
		),
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log.With(slog.String("component", "fx"))}
		}),
	)
	app.Run()
	return app.Err()
}

func provideConfig(cfgPath string) func() (config.Config, error) {
	return func() (config.Config, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return config.Config{}, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
}

func provideLogger(cfg config.Config) *slog.Logger {
	return logger.New(cfg.Log.Level, cfg.Log.Format)
}

func provideMappingStore(log *slog.Logger, cfg config.Config) *mapping.Store {
	return mapping.NewStore(log, cfg.Mapping.File)
}

func provideProcessor(log *slog.Logger, store *mapping.Store) *completion.Processor {
	return completion.NewProcessor(log, store)
}

func provideForwarder(log *slog.Logger, cfg config.Config) *relay.Forwarder {
	return relay.NewForwarder(log, nil, cfg.Automation.MentionURL, cfg.Automation.DirectURL)
}

func provideChatClient(log *slog.Logger, cfg config.Config) (chat.Client, error) {
	switch cfg.Chat.Platform {
	case config.PlatformTelegram:
		return telegram.NewClient(log, cfg.Chat.Telegram.BotToken)
	case config.PlatformWhatsApp:
		return whatsapp.NewClient(log, cfg.Chat.WhatsApp), nil
	default:
		return nil, fmt.Errorf("unsupported chat platform %q", cfg.Chat.Platform)
	}
}

func provideRelayService(log *slog.Logger, cfg config.Config, client chat.Client, forwarder *relay.Forwarder) *relay.Service {
	return relay.NewService(log, relay.Options{
		MentionTokens:  cfg.Bot.MentionTokens,
		TriggerKeyword: cfg.Bot.TriggerKeyword,
	}, client, forwarder)
}

func provideMappingHandler(log *slog.Logger, store *mapping.Store) *handlers.MappingHandler {
	return handlers.NewMappingHandler(log, store)
}

func provideWebhookHandler(log *slog.Logger, cfg config.Config, processor *completion.Processor, client chat.Client) *handlers.WebhookHandler {
	return handlers.NewWebhookHandler(log, processor, client,
		cfg.Tracker.WebhookPath, cfg.Tracker.SignatureSecret, cfg.Tracker.SignatureHeader)
}

func provideServer(cfg config.Config, client chat.Client, ping *handlers.PingHandler, mappingHandler *handlers.MappingHandler, webhookHandler *handlers.WebhookHandler) *server.Server {
	registrars := []server.Registrar{ping, mappingHandler, webhookHandler}
	// The WhatsApp collaborator receives its inbound traffic over HTTP, so
	// its webhook routes mount on the same server.
	if wa, ok := client.(*whatsapp.Client); ok {
		registrars = append(registrars, wa)
	}
	return server.NewServer(cfg.Server.Addr, registrars...)
}

func startInbound(lc fx.Lifecycle, log *slog.Logger, client chat.Client, svc *relay.Service) {
	switch c := client.(type) {
	case *whatsapp.Client:
		c.SetHandler(svc)
	case *telegram.Client:
		ctx, cancel := context.WithCancel(context.Background())
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					if err := c.Listen(ctx, svc); err != nil && !errors.Is(err, context.Canceled) {
						log.Error("telegram listener stopped", slog.Any("error", err))
					}
				}()
				return nil
			},
			OnStop: func(context.Context) error {
				cancel()
				return nil
			},
		})
	}
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, cfg config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", slog.Any("error", err))
				}
			}()
			log.Info("server listening",
				slog.String("addr", cfg.Server.Addr),
				slog.String("webhook_path", cfg.Tracker.WebhookPath),
				slog.String("mapping_file", cfg.Mapping.File))
			return nil
		},
		OnStop: func(context.Context) error {
			return srv.Shutdown()
		},
	})
}
