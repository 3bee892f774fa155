package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/officebites/gatetrack/internal/config"
	"github.com/officebites/gatetrack/internal/logger"
	"github.com/officebites/gatetrack/internal/notify"
)

const groupID = "gatetrack-notifier"

// The notifier is the delivery end of the push channel: it drains the
// notification topic and surfaces each message to whatever is watching the
// terminal at the front desk.
func main() {
	log := logger.New(false)
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("KAFKA_BROKERS must be set for the notifier")
	}

	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		GroupID:        groupID,
		Topic:          cfg.NotificationTopic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        3 * time.Second,
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Warn("error closing kafka reader", zap.Error(err))
		}
	}()

	log.Info("notifier connected",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.NotificationTopic))

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("shutdown signal received, stopping notifier")
				return
			}
			log.Warn("error reading message", zap.Error(err))
			time.Sleep(5 * time.Second)
			continue
		}

		var n notify.Notification
		if err := json.Unmarshal(m.Value, &n); err != nil {
			log.Warn("discarding malformed notification",
				zap.ByteString("key", m.Key), zap.Error(err))
			continue
		}

		fmt.Printf("\n🔔 %s\n", n.Title)
		if n.Body != "" {
			fmt.Printf("   %s\n", n.Body)
		}
		fmt.Printf("   tag=%s at=%s\n", n.Tag, m.Time.Format(time.RFC3339))
	}
}
