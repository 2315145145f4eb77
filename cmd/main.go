package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	configPkg "payrelay/infra/config"
	"payrelay/infra/db"
	"payrelay/infra/http"
	"payrelay/infra/pubsub"
	redisPkg "payrelay/infra/redis"
	"payrelay/pkg/repository"
	"payrelay/pkg/services/gateway"
	"payrelay/pkg/services/handler"
	"payrelay/pkg/services/health"
	"payrelay/pkg/services/request"
	statsPkg "payrelay/pkg/services/stats"
	"payrelay/pkg/services/worker"
)

const (
	healthProbeInterval = time.Second
	healthProbeTimeout  = time.Second
	dispatchTimeout     = 10 * time.Second
	statsReportInterval = 10 * time.Second
	queueDepthInterval  = 3 * time.Second
	dispatchStatsWindow = 15000
)

var (
	config = configPkg.LoadConfig()
	log    *slog.Logger
)

func newRepository() *repository.PaymentRepository {
	store, err := redisPkg.NewClient(config.RedisURL)
	if err != nil {
		log.Error("error connecting to store", "err", err)
		os.Exit(1)
	}
	return repository.NewPaymentRepository(store, log)
}

func api(ctx context.Context) {
	repo := newRepository()

	paymentHandler := handler.NewPaymentHandler(repo, log)
	router := http.NewRouter(paymentHandler)

	router.RegisterRoutes()

	err := router.Start(config.HTTPServerHost)
	if err != nil {
		log.Error("error on start api service", "err", err)
	}
}

func workers(ctx context.Context) {
	repo := newRepository()

	dispatchStats := statsPkg.NewDispatchStats(dispatchStatsWindow)
	go dispatchStats.Report(ctx, statsReportInterval, log)
	go repo.MonitorQueue(ctx, queueDepthInterval)

	paymentClient := request.NewRequestService(
		config.ProcessorDefaultURL,
		request.WithTimeout(dispatchTimeout),
		request.WithAfterRequestFunc(dispatchStats.Observe),
	)
	healthClient := request.NewRequestService(
		config.ProcessorDefaultURL,
		request.WithTimeout(healthProbeTimeout),
	)

	status := health.NewStatus()
	monitor := health.NewMonitor(status, healthClient, healthProbeInterval, log)
	go monitor.Run(ctx)

	gw := gateway.NewGateway(paymentClient, status, log)

	pool := worker.NewPool(config.Workers, repo, gw, log)

	if config.DatabaseURL != "" {
		archiver, err := db.NewPaymentArchiver(ctx, config.DatabaseURL, log)
		if err != nil {
			log.Error("error on start payment archiver", "err", err)
			os.Exit(1)
		}
		pool.WithArchiver(archiver)
	}

	if config.PubsubURL != "" {
		publisher, err := pubsub.NewRabbitMQPublisher(ctx, config.PubsubURL, "payments")
		if err != nil {
			log.Error("error on start event publisher", "err", err)
			os.Exit(1)
		}
		pool.WithPublisher(publisher)
	}

	log.Info("starting payment worker pool", "workers", config.Workers)
	pool.Run(ctx)
}

func init() {
	level := slog.LevelInfo
	if config.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	log = slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: payrelay <mode>")
		fmt.Println("Modes: api, worker")
		return
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "api":
		api(ctx)
	case "worker":
		workers(ctx)
	default:
		fmt.Println("unknown mode:", os.Args[1])
		os.Exit(1)
	}
}
