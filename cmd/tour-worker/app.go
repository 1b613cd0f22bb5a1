package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BearBump/TourBox/config"
	"github.com/BearBump/TourBox/internal/broker/kafka"
	"github.com/BearBump/TourBox/internal/cache"
	"github.com/BearBump/TourBox/internal/cache/occurrences"
	"github.com/BearBump/TourBox/internal/cache/rediscache"
	"github.com/BearBump/TourBox/internal/calendar"
	"github.com/BearBump/TourBox/internal/services/schedule"
	"github.com/BearBump/TourBox/internal/services/tours"
	"github.com/BearBump/TourBox/internal/services/warmer"
	"github.com/BearBump/TourBox/internal/storage/pgcustomers"
)

type workerFactories struct {
	newStorage  func(cfg *config.Config) (repo tours.Repository, closeFn func(), err error)
	newCache    func(cfg *config.Config) cache.Store
	newProducer func(cfg *config.Config) tours.Publisher
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(cfg *config.Config) (tours.Repository, func(), error) {
			sslMode := cfg.Database.SSLMode
			if sslMode == "" {
				sslMode = "disable"
			}
			connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
				cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
			st, err := pgcustomers.New(connString)
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newCache: func(cfg *config.Config) cache.Store {
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			return rediscache.New(redisAddr)
		},
		newProducer: func(cfg *config.Config) tours.Publisher {
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewProducer(brokers)
		},
	}
}

// RunTourWorker keeps day views warm until ctx is done. The admin HTTP server
// is started only when httpOpts is set.
func RunTourWorker(ctx context.Context, cfg *config.Config, f workerFactories, httpOpts *workerHTTPOpts) error {
	topic := cfg.Kafka.CustomerChangedTopicName
	if topic == "" {
		topic = "customer.changed"
	}
	pollInterval := time.Duration(cfg.TourBox.WorkerPollIntervalSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = 60 * time.Second
	}
	concurrency := cfg.TourBox.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	horizonDays := cfg.TourBox.WorkerHorizonDays
	if horizonDays <= 0 {
		horizonDays = 7
	}
	dayViewTTL := time.Duration(cfg.TourBox.DayViewTTLSeconds) * time.Second
	if dayViewTTL <= 0 {
		dayViewTTL = 10 * time.Minute
	}

	repo, closeFn, err := f.newStorage(cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	clock := calendar.NewClock(calendar.LoadLocation(cfg.TourBox.Timezone))
	engine := schedule.NewEngine(clock, occurrences.New()).
		WithSettings(cfg.TourBox.LookbackDays, 0)
	svc := tours.New(repo, engine, f.newCache(cfg), dayViewTTL)
	if p := f.newProducer(cfg); p != nil {
		svc = svc.WithPublisher(p, topic)
	}

	w := warmer.New(svc, clock).
		WithSettings(pollInterval, horizonDays, concurrency, cfg.TourBox.WorkerRolloverCron)

	if httpOpts != nil {
		opts := *httpOpts
		opts.warmer = w
		opts.cfg = cfg
		go func() {
			if err := runWorkerHTTPServer(ctx, opts); err != nil && ctx.Err() == nil {
				slog.Error("worker http server stopped", "error", err.Error())
			}
		}()
	}

	slog.Info("warmer started", "timezone", clock.Location.String(), "horizon_days", horizonDays)
	return w.Run(ctx)
}
