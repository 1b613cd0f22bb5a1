package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	toursapi "github.com/BearBump/TourBox/internal/api/tours_api"
	"github.com/BearBump/TourBox/internal/broker/kafka"
	"github.com/BearBump/TourBox/internal/broker/messages"
	"github.com/BearBump/TourBox/internal/models"
	"github.com/BearBump/TourBox/internal/services/tours"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type tourAPIOpts struct {
	httpAddr    string
	swaggerPath string

	topic         string
	consumerGroup string

	onListen func(httpAddr string)
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

func runTourAPI(ctx context.Context, opts tourAPIOpts, svc *tours.Service, consumer kafkaConsumer) error {
	if opts.swaggerPath == "" {
		return fmt.Errorf("swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runHTTPServer(ctx, lis, svc, opts.swaggerPath)
	}()

	if consumer != nil {
		go func() {
			slog.Info("kafka consumer started", "topic", opts.topic, "group", opts.consumerGroup)
			err := consumer.Consume(ctx, func(_key, value []byte) error {
				return handleChangeEvent(ctx, svc, value)
			})
			if err != nil && ctx.Err() == nil {
				slog.Error("kafka consumer stopped", "error", err.Error())
			}
		}()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-httpErr:
		return err
	}
}

// handleChangeEvent applies one CustomerChanged message. Messages that can
// never be applied are skipped instead of blocking the partition.
func handleChangeEvent(ctx context.Context, svc *tours.Service, value []byte) error {
	var m messages.CustomerChanged
	if err := json.Unmarshal(value, &m); err != nil {
		return errors.Wrap(kafka.ErrSkip, err.Error())
	}
	if err := svc.ApplyChangeEvent(ctx, m); err != nil {
		if errors.Is(err, models.ErrValidation) {
			return errors.Wrap(kafka.ErrSkip, err.Error())
		}
		return err
	}
	return nil
}

func newRouter(svc *tours.Service, swaggerPath string) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, swaggerPath)
	})
	swaggerURL := "/swagger.json"
	if fi, err := os.Stat(swaggerPath); err == nil {
		swaggerURL = fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
	}
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))

	toursapi.New(svc).Register(r)
	return r
}

func runHTTPServer(ctx context.Context, lis net.Listener, svc *tours.Service, swaggerPath string) error {
	srv := &http.Server{Handler: newRouter(svc, swaggerPath)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("HTTP server listening", "addr", lis.Addr().String())
	err := srv.Serve(lis)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
