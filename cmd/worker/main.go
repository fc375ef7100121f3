package main

import (
	"context"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/travelmind/booking/config"
	"github.com/travelmind/booking/events"
	"github.com/travelmind/booking/worker"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Initialise("config.yaml", false)
	if err != nil {
		log.Printf("Config file not found or invalid, using environment variables: %v", err)
		cfg, err = config.Initialise("", true)
		if err != nil {
			log.Fatal("Failed to load configuration:", err)
		}
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetRedisURL(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		sugar.Fatalw("failed to connect to redis", "error", err)
	}

	notification := worker.NewNotificationHandler(sugar)
	analytics := worker.NewAnalyticsHandler(cfg.Kafka.Brokers, cfg.Kafka.AnalyticsTopic, sugar)
	defer analytics.Close()
	indexing := worker.NewIndexingHandler(redisClient, sugar)

	base := worker.Config{
		URL:         cfg.RabbitMQ.URL,
		Exchange:    cfg.RabbitMQ.Exchange,
		DLXExchange: cfg.RabbitMQ.DLXExchange,
		Prefetch:    cfg.RabbitMQ.Prefetch,
		MaxAttempts: cfg.RabbitMQ.MaxAttempts,
		RetryTTL:    time.Duration(cfg.RabbitMQ.RetryTTLMs) * time.Millisecond,
	}

	consumers := []*worker.Consumer{
		worker.NewConsumer(queueConfig(base, events.QueueBookingNotification, "booking.*"), notification.Handle, sugar),
		worker.NewConsumer(queueConfig(base, events.QueueBookingAnalytics, "booking.*"), analytics.Handle, sugar),
		worker.NewConsumer(queueConfig(base, events.QueueSearchIndexing, "booking.*", "hotel.*", "review.*"), indexing.Handle, sugar),
	}

	sugar.Infow("starting booking workers", "consumers", len(consumers))
	var wg sync.WaitGroup
	for _, c := range consumers {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Run(ctx)
		}()
	}
	wg.Wait()
	sugar.Info("workers stopped gracefully")
}

func queueConfig(base worker.Config, queue string, bindings ...string) worker.Config {
	base.Queue = queue
	base.Bindings = bindings
	return base
}
