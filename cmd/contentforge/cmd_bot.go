package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"contentforge/internal/bot"
	"contentforge/internal/config"
	"contentforge/internal/provider"
	"contentforge/internal/service"
	"contentforge/internal/session"
)

const (
	digestTimeout = 30 * time.Second
	evictEvery    = time.Hour
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Serve the Telegram bot",
	Args:  cobra.NoArgs,
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.TelegramToken == "" {
		return errors.New("config: TELEGRAM_TOKEN is required")
	}

	gen, err := newProvider(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("content provider ready", zap.String("provider", gen.Name()))

	sessions := session.NewManager(gen, sessionOptions(cfg))
	defer func() {
		if err := sessions.Close(); err != nil {
			logger.Warn("close sessions", zap.Error(err))
		}
	}()

	telegramBot, err := bot.New(cfg.TelegramToken, sessions, service.NewAgendaService(), logger)
	if err != nil {
		return err
	}

	scheduler := service.NewSchedulerService(cfg.Location, logger)
	if cfg.DigestTime != "" {
		if _, err := scheduler.ScheduleDaily(cfg.DigestTime, func() {
			jobCtx, cancel := context.WithTimeout(ctx, digestTimeout)
			defer cancel()
			if err := telegramBot.SendDailyAgenda(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("daily agenda", zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("schedule agenda: %w", err)
		}
	}
	if _, err := scheduler.ScheduleInterval(evictEvery, func() {
		sessions.Evict(cfg.SessionTTL)
	}); err != nil {
		return fmt.Errorf("schedule eviction: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()
		scheduler.Stop()
		return nil
	})
	g.Go(func() error {
		logger.Info("contentforge bot started", zap.String("digest", cfg.DigestTime), zap.String("tz", cfg.Location.String()))
		err := telegramBot.Start(gctx)
		stop()
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot stopped with error: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

// newProvider builds the content provider named by the configuration.
func newProvider(ctx context.Context, cfg config.Config) (provider.Provider, error) {
	switch cfg.ResolvedProvider() {
	case config.ProviderOpenAI:
		if cfg.LLMAPIKey == "" {
			return nil, errors.New("config: LLM_API_KEY is required for the openai provider")
		}
		return provider.NewOpenAI(cfg.LLMEndpoint, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout), nil
	case config.ProviderGenAI:
		if cfg.GenAIAPIKey == "" {
			return nil, errors.New("config: GENAI_API_KEY is required for the genai provider")
		}
		gen, err := provider.NewGenAI(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
		if err != nil {
			return nil, fmt.Errorf("genai: %w", err)
		}
		return gen, nil
	default:
		return provider.NewMock(), nil
	}
}

func sessionOptions(cfg config.Config) session.Options {
	return session.Options{
		Tier:         cfg.DefaultPlan,
		Limits:       service.QuotaLimits{Starter: cfg.StarterLimit, Pro: cfg.ProLimit},
		RoundMinutes: cfg.RecommendRoundMinutes,
		Timeout:      cfg.LLMTimeout,
		Location:     cfg.Location,
		Log:          logger,
	}
}
