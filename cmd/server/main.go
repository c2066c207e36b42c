package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/island-order-service/internal/adapter/chat"
	"github.com/example/island-order-service/internal/adapter/httpapi"
	"github.com/example/island-order-service/internal/adapter/natsstan"
	"github.com/example/island-order-service/internal/adapter/repo"
	"github.com/example/island-order-service/internal/adapter/wsapi"
	"github.com/example/island-order-service/internal/config"
	"github.com/example/island-order-service/internal/domain"
	"github.com/example/island-order-service/internal/logging"
	"github.com/example/island-order-service/internal/queue"
	"github.com/example/island-order-service/internal/sprites"
	"github.com/example/island-order-service/internal/usecase"
	"github.com/example/island-order-service/internal/worker"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// .env — для локальной разработки, в проде всё задаётся окружением
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)
	defer logger.Sync()

	// журнал заказов опционален: без DSN сервис работает только в памяти
	var history domain.HistoryRepository
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := repo.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal("db schema", zap.Error(err))
		}
		history = repo.NewPostgresHistoryRepo(pool)
	}

	hub := wsapi.NewHub(64, logger)
	sinks := []domain.EventSink{hub}

	if cfg.Stan.URL != "" {
		pub := &natsstan.Publisher{
			ClusterID: cfg.Stan.ClusterID,
			ClientID:  cfg.Stan.ClientID,
			URL:       cfg.Stan.URL,
			Subject:   cfg.Stan.Subject,
			Log:       logger,
		}
		if err := pub.Connect(ctx); err != nil {
			logger.Fatal("stan connect", zap.Error(err))
		}
		sinks = append(sinks, pub)
	}

	var messenger domain.Messenger
	if cfg.Webhook.URL != "" {
		messenger = chat.NewWebhookMessenger(cfg.Webhook.URL, cfg.Webhook.Timeout)
	}

	wrk := &worker.Worker{
		Driver: &worker.StubDriver{
			SetupDelay:   time.Duration(cfg.Order.SetupAllowance) * time.Second,
			PickupWindow: time.Duration(cfg.Order.UserTimeAllowed+cfg.Order.WaitForArriverTime) * time.Second,
		},
		History:      history,
		Log:          logger,
		PollInterval: cfg.Worker.PollInterval,
	}

	q := queue.New(queue.Config{
		ETA: queue.ETAConfig{
			ArrivalAllowance:   cfg.Order.ArrivalAllowance,
			SetupAllowance:     cfg.Order.SetupAllowance,
			UserTimeAllowed:    cfg.Order.UserTimeAllowed,
			WaitForArriverTime: cfg.Order.WaitForArriverTime,
		},
		ShowIDs: cfg.Order.ShowIDs,
	}, queue.NewIDAllocator(cfg.Order.IDBase), wrk.CurrentUserKey)
	wrk.Queue = q
	go wrk.Run(ctx)

	server := httpapi.NewServer(httpapi.Deps{
		Place:      usecase.PlaceOrder{Queue: q, History: history, Events: sinks, Log: logger},
		Position:   usecase.GetPosition{Queue: q},
		Summary:    usecase.QueueSummary{Queue: q, IslandName: cfg.Order.IslandName, AccessCode: wrk.CurrentAccessCode},
		Clear:      usecase.ClearQueue{Queue: q, Log: logger},
		Sinks:      sinks,
		Hub:        hub,
		Messenger:  messenger,
		Sprites:    sprites.NewComposer(cfg.Order.SpritesPath, logger),
		IslandName: cfg.Order.IslandName,
		AdminToken: cfg.AdminToken,
		Log:        logger,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: server.Router}
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	logger.Info("bye")
}
