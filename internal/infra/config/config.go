package config

import (
	"log"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Europe/Amsterdam"`
	Port   int    `envconfig:"PORT" default:"8080"`

	Telegram struct {
		Token      string `envconfig:"TG_BOT_TOKEN"`
		WebhookURL string `envconfig:"TG_WEBHOOK_URL"`
	} `envconfig:""`

	// AdminIDs — статический список Telegram ID администраторов через запятую.
	AdminIDs string `envconfig:"ADMIN_IDS"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	AMQP struct {
		URL           string `envconfig:"AMQP_URL"`
		ManagementURL string `envconfig:"AMQP_MANAGEMENT_URL"`
	} `envconfig:""`

	Limits struct {
		CategoryPage     int `envconfig:"CATEGORY_PAGE_LIMIT" default:"10"`
		BroadcastWorkers int `envconfig:"BROADCAST_WORKERS" default:"4"`
		CategoryCacheTTL int `envconfig:"CATEGORY_CACHE_TTL_SECONDS" default:"60"`
	} `envconfig:""`

	Queues struct {
		Broadcast string `envconfig:"BROADCAST_QUEUE_KEY" default:"broadcast_jobs"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}

// ParseAdminIDs разбирает список администраторов из ADMIN_IDS.
// Нечисловые элементы пропускаются.
func ParseAdminIDs(raw string) []int64 {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		id, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
