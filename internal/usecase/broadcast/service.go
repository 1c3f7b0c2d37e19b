package broadcast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tg-movie-bot/internal/domain"
	"tg-movie-bot/internal/infra/metrics"
)

// Service рассылает объявления всем известным пользователям.
type Service struct {
	users   domain.UserRepo
	sender  domain.Sender
	log     zerolog.Logger
	workers int
}

// NewService создаёт диспетчер рассылок с ограниченным числом воркеров.
func NewService(users domain.UserRepo, sender domain.Sender, log zerolog.Logger, workers int) *Service {
	if workers <= 0 {
		workers = 1
	}
	return &Service{users: users, sender: sender, log: log, workers: workers}
}

// FormatAnnouncement оборачивает тело рассылки в стандартную шапку.
func FormatAnnouncement(body string) string {
	return "📢 Объявление\n\n" + body
}

// Dispatch отправляет объявление каждому пользователю, известному на момент
// вызова. Ошибка доставки одному получателю не прерывает рассылку остальным;
// повторов внутри одного вызова нет.
func (s *Service) Dispatch(ctx context.Context, body string) (domain.BroadcastReport, error) {
	ids, err := s.users.ListTGIDs(ctx)
	if err != nil {
		return domain.BroadcastReport{}, fmt.Errorf("выборка получателей: %w", err)
	}
	text := FormatAnnouncement(body)

	start := time.Now()
	var (
		mu     sync.Mutex
		report domain.BroadcastReport
		wg     sync.WaitGroup
	)
	sem := make(chan struct{}, s.workers)
	for _, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(chatID int64) {
			defer wg.Done()
			defer func() { <-sem }()
			err := s.sender.SendText(ctx, chatID, text)
			metrics.IncBroadcastDelivery(err)
			mu.Lock()
			if err != nil {
				report.Failed++
			} else {
				report.Sent++
			}
			mu.Unlock()
			if err != nil {
				s.log.Warn().Err(err).Int64("chat", chatID).Msg("не удалось доставить объявление")
			}
		}(id)
	}
	wg.Wait()
	metrics.BroadcastDispatchSeconds.Observe(time.Since(start).Seconds())
	return report, nil
}

// Run обрабатывает задачи из очереди до отмены контекста. После каждой
// рассылки администратору отправляется итог с числом доставок и ошибок.
func (s *Service) Run(ctx context.Context, queue domain.BroadcastQueue) error {
	for {
		job, err := queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Error().Err(err).Msg("не удалось прочитать задачу рассылки")
			continue
		}
		report, err := s.Dispatch(ctx, job.Body)
		if err != nil {
			s.log.Error().Err(err).Str("job", job.ID).Msg("рассылка не выполнена")
			if job.AdminChatID != 0 {
				_ = s.sender.SendText(ctx, job.AdminChatID, "❌ Рассылка не выполнена, попробуйте позже.")
			}
			continue
		}
		s.log.Info().Str("job", job.ID).Int("sent", report.Sent).Int("failed", report.Failed).Msg("рассылка завершена")
		if job.AdminChatID != 0 {
			summary := fmt.Sprintf("✅ Рассылка завершена\n\nДоставлено: %d\nОшибок: %d", report.Sent, report.Failed)
			_ = s.sender.SendText(ctx, job.AdminChatID, summary)
		}
	}
}
