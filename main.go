package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"telegram-schedule-bot/internal/cache"
	"telegram-schedule-bot/internal/config"
	"telegram-schedule-bot/internal/conversation"
	"telegram-schedule-bot/internal/fetcher"
	"telegram-schedule-bot/internal/handlers"
	"telegram-schedule-bot/internal/httpserver"
	"telegram-schedule-bot/internal/logger"
	"telegram-schedule-bot/internal/metrics"
	"telegram-schedule-bot/internal/parser"
	"telegram-schedule-bot/internal/scheduler"
	"telegram-schedule-bot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ ", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatal("❌ logger: ", err)
	}
	defer func() { _ = logr.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logr.Fatal("open storage", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer db.Close()

	m := metrics.New()

	site, err := parser.NewClient(
		fetcher.New(fetcher.Options{
			Timeout:   cfg.Site.FetchTimeout,
			UserAgent: cfg.Site.UserAgent,
			Metrics:   m,
		}),
		parser.ClientOptions{
			SiteURL:             cfg.Site.URL,
			SchedulePath:        cfg.Site.SchedulePath,
			TeacherSearchPath:   cfg.Site.TeacherSearchPath,
			TeacherSchedulePath: cfg.Site.TeacherSchedulePath,
		},
	)
	if err != nil {
		logr.Fatal("schedule site client", zap.Error(err))
	}

	var shared cache.Store
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logr.Warn("redis unavailable, place cache stays local", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			defer client.Close()
			shared = cache.NewRedisStore(client)
		}
	}

	places := cache.NewPlaceCache(site, cache.Options{
		TTL:     cfg.Cache.PlaceTTL,
		Shared:  shared,
		Metrics: m,
		Logger:  logr,
	})

	machine := conversation.New(places, site, conversation.Options{
		Store:   db,
		Auditor: db,
		Metrics: m,
		Logger:  logr,
	})

	sched, err := scheduler.Start(ctx, places, db, scheduler.Options{
		RefreshInterval: cfg.Cache.RefreshInterval,
		SessionTTL:      cfg.Session.TTL,
		PruneInterval:   cfg.Session.PruneInterval,
		Logger:          logr,
	})
	if err != nil {
		logr.Fatal("start scheduler", zap.Error(err))
	}
	defer func() { _ = sched.Shutdown() }()

	srv := httpserver.New(cfg.HTTP.Addr, m, db, logr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("http server stopped", zap.Error(err))
		}
	}()

	bot, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		logr.Fatal("telegram login", zap.Error(err))
	}
	bot.Debug = cfg.Bot.Debug
	logr.Info("bot started", zap.String("username", bot.Self.UserName), zap.String("env", cfg.Env))

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := bot.GetUpdatesChan(updateConfig)

	go func() {
		<-ctx.Done()
		bot.StopReceivingUpdates()
	}()

	h := handlers.NewHandler(bot, machine, db, bot.Self.UserName, logr)
	h.Listen(ctx, updates)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown", zap.Error(err))
	}
	logr.Info("bot stopped")
}
