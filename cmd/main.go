package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/officebites/gatetrack/internal/config"
	"github.com/officebites/gatetrack/internal/db"
	"github.com/officebites/gatetrack/internal/engine"
	"github.com/officebites/gatetrack/internal/feed"
	"github.com/officebites/gatetrack/internal/kafka"
	"github.com/officebites/gatetrack/internal/localstate"
	"github.com/officebites/gatetrack/internal/logger"
	"github.com/officebites/gatetrack/internal/notify"
	"github.com/officebites/gatetrack/internal/ownership"
	"github.com/officebites/gatetrack/internal/repository/postgresql"
	"github.com/officebites/gatetrack/internal/server"
	"github.com/officebites/gatetrack/internal/store"
	"github.com/officebites/gatetrack/internal/timewindow"
)

func main() {
	log := logger.New(true)
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	database, err := db.NewDb(ctx, cfg.DSN())
	if err != nil {
		log.Fatal("database init failed", zap.Error(err))
	}

	changeFeed, err := feed.NewRedisFeed(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		log.Fatal("redis init failed", zap.Error(err))
	}
	defer func() { _ = changeFeed.Close() }()

	var producer kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = kafka.NewWriterProducer(cfg.KafkaBrokers)
	} else {
		log.Info("no kafka brokers configured, notifications go to the log")
		producer = kafka.NewConsoleProducer(log)
	}
	defer func() { _ = producer.Close() }()

	orderRepo := postgresql.NewOrderRepo(database)
	orders := store.New(orderRepo, database, changeFeed, log)

	state := localstate.New(cfg.StatePath, log)
	book := ownership.NewBook(state, log)

	trackingView := engine.NewTrackingView(orders, log)
	trackingRec := engine.NewReconciler(trackingView, changeFeed, engine.TrackingRelevance(time.Now), log)
	if err := trackingRec.Activate(ctx); err != nil {
		log.Fatal("tracking reconciler failed to start", zap.Error(err))
	}
	defer trackingRec.Deactivate()

	// The mine view and its dispatcher are per session; they run here only
	// when the binary is started with a session identity.
	if cfg.EmployeeName != "" {
		state.Set(localstate.KeyEmployeeName, cfg.EmployeeName)

		pusher := notify.NewKafkaPusher(producer, cfg.NotificationTopic, state)
		dispatcher := notify.NewDispatcher(pusher, book, cfg.EmployeeName, log)

		mineView := engine.NewMineView(orders, book, cfg.EmployeeName, log)
		mineRec := engine.NewReconciler(mineView, changeFeed, engine.MineRelevance(true), log)
		mineRec.Observe(dispatcher.HandleEvent)
		if err := mineRec.Activate(ctx); err != nil {
			log.Fatal("mine reconciler failed to start", zap.Error(err))
		}
		defer mineRec.Deactivate()
	}

	srv := server.New(orders, book, trackingView, timewindow.Lunch(), log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(cfg.HTTPPort)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", zap.Error(err))
		return
	}
	log.Info("server gracefully stopped")
}
