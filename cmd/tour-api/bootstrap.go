package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/TourBox/config"
	"github.com/BearBump/TourBox/internal/broker/kafka"
	"github.com/BearBump/TourBox/internal/cache/occurrences"
	"github.com/BearBump/TourBox/internal/cache/rediscache"
	"github.com/BearBump/TourBox/internal/calendar"
	"github.com/BearBump/TourBox/internal/services/schedule"
	"github.com/BearBump/TourBox/internal/services/tours"
	"github.com/BearBump/TourBox/internal/storage/pgcustomers"
)

type tourAPIApp struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     tourAPIOpts
	svc      *tours.Service
	consumer *kafka.Consumer
	closers  []func()
}

func mustBootstrapTourAPI() *tourAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	httpAddr := cfg.TourBox.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	consumerGroup := cfg.TourBox.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "tour-api"
	}
	topic := cfg.Kafka.CustomerChangedTopicName
	if topic == "" {
		topic = "customer.changed"
	}
	dayViewTTL := time.Duration(cfg.TourBox.DayViewTTLSeconds) * time.Second
	if dayViewTTL <= 0 {
		dayViewTTL = 10 * time.Minute
	}

	st := mustOpenPostgresWithRetry(postgresConnString(cfg), 60*time.Second)

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rc := rediscache.New(redisAddr)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	producer := kafka.NewProducer(brokers)
	consumer := kafka.NewConsumer(brokers, topic, consumerGroup)

	clock := calendar.NewClock(calendar.LoadLocation(cfg.TourBox.Timezone))
	engine := schedule.NewEngine(clock, occurrences.New()).
		WithSettings(cfg.TourBox.LookbackDays, 0)
	svc := tours.New(st, engine, rc, dayViewTTL).WithPublisher(producer, topic)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &tourAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: tourAPIOpts{
			httpAddr:      httpAddr,
			swaggerPath:   swaggerPath,
			topic:         topic,
			consumerGroup: consumerGroup,
		},
		svc:      svc,
		consumer: consumer,
		closers: []func(){
			func() { _ = producer.Close() },
			func() { _ = rc.Close() },
			st.Close,
		},
	}
}

func postgresConnString(cfg *config.Config) string {
	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgcustomers.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgcustomers.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *tourAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		_ = a.consumer.Close()
	}
	for _, c := range a.closers {
		c()
	}
}

func (a *tourAPIApp) Run() error {
	return runTourAPI(a.ctx, a.opts, a.svc, a.consumer)
}
