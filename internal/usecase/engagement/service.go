package engagement

import (
	"context"
	"fmt"

	"tg-movie-bot/internal/domain"
	"tg-movie-bot/internal/infra/metrics"
)

// Service управляет связями пользователь-фильм.
type Service struct {
	repo  domain.EngagementRepo
	users domain.UserRepo
}

// NewService создаёт сервис.
func NewService(repo domain.EngagementRepo, users domain.UserRepo) *Service {
	return &Service{repo: repo, users: users}
}

// SaveWatchLater сохраняет фильм в «Смотреть позже». Повторное сохранение той же
// пары — не ошибка: возвращается SaveAlreadyPresent для отдельного текста ответа.
func (s *Service) SaveWatchLater(ctx context.Context, tgUserID, movieID int64) (domain.SaveResult, error) {
	user, err := s.users.GetByTGID(ctx, tgUserID)
	if err != nil {
		return 0, fmt.Errorf("получение пользователя: %w", err)
	}
	added, err := s.repo.SaveWatchLater(ctx, user.ID, movieID)
	if err != nil {
		return 0, fmt.Errorf("сохранение: %w", err)
	}
	metrics.IncWatchLaterSave(added)
	if !added {
		return domain.SaveAlreadyPresent, nil
	}
	return domain.SaveAdded, nil
}

// ListWatchLater возвращает отложенные фильмы, новые первыми.
func (s *Service) ListWatchLater(ctx context.Context, tgUserID int64) ([]domain.Movie, error) {
	user, err := s.users.GetByTGID(ctx, tgUserID)
	if err != nil {
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return s.repo.ListWatchLater(ctx, user.ID)
}

// RecordWatched добавляет запись истории просмотров. Повторный просмотр
// добавляет новую запись — история append-only.
func (s *Service) RecordWatched(ctx context.Context, tgUserID, movieID int64) error {
	user, err := s.users.GetByTGID(ctx, tgUserID)
	if err != nil {
		return fmt.Errorf("получение пользователя: %w", err)
	}
	return s.repo.RecordWatched(ctx, user.ID, movieID)
}

// ListRecentlyWatched возвращает историю просмотров, новые первыми.
func (s *Service) ListRecentlyWatched(ctx context.Context, tgUserID int64, limit int) ([]domain.WatchedEntry, error) {
	user, err := s.users.GetByTGID(ctx, tgUserID)
	if err != nil {
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return s.repo.ListRecentlyWatched(ctx, user.ID, limit)
}
