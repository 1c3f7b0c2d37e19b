package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"tg-movie-bot/internal/adapters/repo"
	"tg-movie-bot/internal/adapters/telegram"
	"tg-movie-bot/internal/domain"
	"tg-movie-bot/internal/infra/config"
	"tg-movie-bot/internal/infra/db"
	"tg-movie-bot/internal/infra/log"
	"tg-movie-bot/internal/infra/metrics"
	"tg-movie-bot/internal/infra/queue"
	"tg-movie-bot/internal/usecase/broadcast"
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

	var broadcastQueue domain.BroadcastQueue
	if cfg.AMQP.URL != "" {
		broadcastQueue, err = queue.NewRabbitBroadcastQueue(cfg.AMQP.URL, cfg.AMQP.ManagementURL, cfg.Queues.Broadcast)
		if err != nil {
			logger.Fatal().Err(err).Msg("не удалось создать очередь RabbitMQ")
		}
	} else if cfg.RedisAddr != "" {
		broadcastQueue = queue.NewRedisBroadcastQueue(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.Queues.Broadcast)
	} else {
		logger.Fatal().Msg("не задан бэкенд очереди рассылок: нужен AMQP_URL или REDIS_ADDR")
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось создать бота")
	}
	sender := telegram.NewBotSender(botAPI, logger)

	dispatcher := broadcast.NewService(repoAdapter, sender, logger, cfg.Limits.BroadcastWorkers)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	metrics.MustRegister(prometheus.DefaultRegisterer)
	metrics.StartServer(ctx, logger, fmt.Sprintf(":%d", cfg.Port))

	logger.Info().Msg("диспетчер рассылок запущен")
	if err := dispatcher.Run(ctx, broadcastQueue); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("диспетчер рассылок остановлен с ошибкой")
	}
	logger.Info().Msg("остановка диспетчера рассылок")
}

var _ domain.Sender = (*telegram.BotSender)(nil)
