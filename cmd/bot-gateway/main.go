package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"tg-movie-bot/internal/adapters/bot"
	"tg-movie-bot/internal/adapters/repo"
	"tg-movie-bot/internal/domain"
	"tg-movie-bot/internal/infra/cache"
	"tg-movie-bot/internal/infra/config"
	"tg-movie-bot/internal/infra/db"
	httpinfra "tg-movie-bot/internal/infra/http"
	"tg-movie-bot/internal/infra/log"
	"tg-movie-bot/internal/infra/metrics"
	"tg-movie-bot/internal/infra/queue"
	"tg-movie-bot/internal/usecase/catalog"
	"tg-movie-bot/internal/usecase/engagement"
	"tg-movie-bot/internal/usecase/session"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось подключиться к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)

	var categoryCache domain.Cache
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		categoryCache = cache.NewRedis(redisClient)
	}

	// Очередь рассылок: RabbitMQ при заданном AMQP_URL, иначе Redis.
	var broadcastQueue domain.BroadcastQueue
	if cfg.AMQP.URL != "" {
		broadcastQueue, err = queue.NewRabbitBroadcastQueue(cfg.AMQP.URL, cfg.AMQP.ManagementURL, cfg.Queues.Broadcast)
		if err != nil {
			logger.Fatal().Err(err).Msg("не удалось создать очередь RabbitMQ")
		}
	} else if redisClient != nil {
		broadcastQueue = queue.NewRedisBroadcastQueue(redisClient, cfg.Queues.Broadcast)
	} else {
		logger.Fatal().Msg("не задан бэкенд очереди рассылок: нужен AMQP_URL или REDIS_ADDR")
	}

	catalogService := catalog.NewService(repoAdapter, repoAdapter, repoAdapter, categoryCache, cfg.Limits.CategoryPage, cfg.Limits.CategoryCacheTTL)
	engagementService := engagement.NewService(repoAdapter, repoAdapter)
	sessionService := session.NewService(config.ParseAdminIDs(cfg.AdminIDs), catalogService, broadcastQueue, logger)

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось создать бота")
	}
	if cfg.Telegram.WebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.Telegram.WebhookURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("некорректный URL вебхука")
		}
		if _, err := botAPI.Request(wh); err != nil {
			logger.Fatal().Err(err).Msg("не удалось установить вебхук")
		}
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	h := bot.NewHandler(botAPI, logger, catalogService, engagementService, sessionService, repoAdapter)

	server := httpinfra.NewServer(logger)
	server.Router.Post("/bot/webhook", func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.HandleUpdate(r.Context(), update)
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		logger.Info().Int("port", cfg.Port).Msg("бот-гейтвей запущен")
		if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP сервер остановлен")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	logger.Info().Msg("остановка бота")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
}

var _ domain.UserRepo = (*repo.Postgres)(nil)
var _ domain.MovieRepo = (*repo.Postgres)(nil)
var _ domain.EngagementRepo = (*repo.Postgres)(nil)
