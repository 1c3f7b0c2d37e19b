package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tg-movie-bot/internal/domain"
	"tg-movie-bot/internal/infra/metrics"
)

// Ошибки валидации payload'а добавления фильма. Отличимы от ошибок хранилища,
// чтобы админ мог повторить ввод, не теряя открытый флоу.
var (
	ErrNotEnoughFields = errors.New("нужно ровно 11 строк с данными фильма")
	ErrYearInvalid     = errors.New("год должен быть целым числом")
	ErrCategoryUnknown = errors.New("неизвестная категория")
	ErrMovieURLEmpty   = errors.New("ссылка на фильм обязательна")
	ErrFieldMissing    = errors.New("обязательное поле пустое")
)

// ingestFieldCount — формат payload'а: 11 строк, по одной на поле.
const ingestFieldCount = 11

// IsValidationError сообщает, относится ли ошибка к валидации ввода.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrNotEnoughFields) ||
		errors.Is(err, ErrYearInvalid) ||
		errors.Is(err, ErrCategoryUnknown) ||
		errors.Is(err, ErrMovieURLEmpty) ||
		errors.Is(err, ErrFieldMissing)
}

// Service реализует каталог фильмов.
type Service struct {
	movies    domain.MovieRepo
	users     domain.UserRepo
	saves     domain.EngagementRepo
	cache     domain.Cache
	pageLimit int
	cacheTTL  int
}

// NewService создаёт сервис каталога. Кэш опционален (nil — без кэширования).
func NewService(movies domain.MovieRepo, users domain.UserRepo, saves domain.EngagementRepo, cache domain.Cache, pageLimit, cacheTTLSeconds int) *Service {
	if pageLimit <= 0 {
		pageLimit = 10
	}
	return &Service{movies: movies, users: users, saves: saves, cache: cache, pageLimit: pageLimit, cacheTTL: cacheTTLSeconds}
}

func categoryCacheKey(category domain.Category) string {
	return "catalog:category:" + string(category)
}

// ListByCategory возвращает активные фильмы категории в порядке добавления,
// не больше лимита страницы. Неизвестная категория — пустой список без ошибки.
func (s *Service) ListByCategory(ctx context.Context, category domain.Category) ([]domain.Movie, error) {
	if !domain.KnownCategory(string(category)) {
		return nil, nil
	}
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, categoryCacheKey(category)); err == nil && len(raw) > 0 {
			var movies []domain.Movie
			if err := json.Unmarshal(raw, &movies); err == nil {
				return movies, nil
			}
		}
	}
	movies, err := s.movies.ListMoviesByCategory(ctx, category, s.pageLimit)
	if err != nil {
		return nil, fmt.Errorf("выборка категории: %w", err)
	}
	if s.cache != nil && len(movies) > 0 {
		if raw, err := json.Marshal(movies); err == nil {
			_ = s.cache.Set(ctx, categoryCacheKey(category), raw, s.cacheTTL)
		}
	}
	return movies, nil
}

// Get возвращает фильм по id.
func (s *Service) Get(ctx context.Context, id int64) (domain.Movie, error) {
	return s.movies.GetMovie(ctx, id)
}

// ParseIngestInput разбирает 11 строк payload'а в фильм без записи в БД.
// Порядок полей: название, описание, год, жанр, рейтинг, длительность,
// режиссёр, актёры, ссылка на постер, ссылка на фильм, категория.
func ParseIngestInput(raw string) (domain.Movie, error) {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	if len(lines) < ingestFieldCount {
		return domain.Movie{}, ErrNotEnoughFields
	}
	fields := make([]string, ingestFieldCount)
	for i := 0; i < ingestFieldCount; i++ {
		fields[i] = strings.TrimSpace(lines[i])
	}
	year, err := strconv.Atoi(fields[2])
	if err != nil {
		return domain.Movie{}, ErrYearInvalid
	}
	movie := domain.Movie{
		Title:       fields[0],
		Description: fields[1],
		Year:        year,
		Genre:       fields[3],
		Rating:      fields[4],
		Duration:    fields[5],
		Director:    fields[6],
		Cast:        fields[7],
		PosterURL:   fields[8],
		MovieURL:    fields[9],
		Category:    domain.Category(fields[10]),
	}
	if !domain.KnownCategory(fields[10]) {
		return domain.Movie{}, fmt.Errorf("%w: %s", ErrCategoryUnknown, fields[10])
	}
	return movie, nil
}

// Ingest разбирает payload админского флоу и добавляет фильм в каталог.
func (s *Service) Ingest(ctx context.Context, adminID int64, raw string) (domain.Movie, error) {
	movie, err := ParseIngestInput(raw)
	if err != nil {
		return domain.Movie{}, err
	}
	movie.AddedBy = adminID
	id, err := s.Insert(ctx, movie)
	if err != nil {
		return domain.Movie{}, err
	}
	movie.ID = id
	movie.IsActive = true
	return movie, nil
}

// Insert валидирует обязательные поля и сохраняет фильм.
// Принадлежность категории закрытому набору здесь не проверяется —
// это обязанность Ingest, хранилище остаётся общим.
func (s *Service) Insert(ctx context.Context, movie domain.Movie) (int64, error) {
	if strings.TrimSpace(movie.MovieURL) == "" {
		return 0, ErrMovieURLEmpty
	}
	required := map[string]string{
		"title":       movie.Title,
		"description": movie.Description,
		"genre":       movie.Genre,
		"rating":      movie.Rating,
		"duration":    movie.Duration,
		"director":    movie.Director,
		"cast":        movie.Cast,
		"category":    string(movie.Category),
	}
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			return 0, fmt.Errorf("%w: %s", ErrFieldMissing, name)
		}
	}
	id, err := s.movies.InsertMovie(ctx, movie)
	if err != nil {
		return 0, fmt.Errorf("сохранение фильма: %w", err)
	}
	metrics.MoviesAddedTotal.Inc()
	if s.cache != nil {
		_ = s.cache.Del(ctx, categoryCacheKey(movie.Category))
	}
	return id, nil
}

// Count возвращает количество фильмов, при activeOnly — только активных.
func (s *Service) Count(ctx context.Context, activeOnly bool) (int, error) {
	return s.movies.CountMovies(ctx, activeOnly)
}

// Stats собирает счётчики для админ-панели.
func (s *Service) Stats(ctx context.Context) (domain.CatalogStats, error) {
	var stats domain.CatalogStats
	var err error
	if stats.Users, err = s.users.CountUsers(ctx); err != nil {
		return domain.CatalogStats{}, fmt.Errorf("подсчёт пользователей: %w", err)
	}
	if stats.Movies, err = s.movies.CountMovies(ctx, false); err != nil {
		return domain.CatalogStats{}, fmt.Errorf("подсчёт фильмов: %w", err)
	}
	if stats.ActiveMovies, err = s.movies.CountMovies(ctx, true); err != nil {
		return domain.CatalogStats{}, fmt.Errorf("подсчёт активных фильмов: %w", err)
	}
	if stats.WatchLater, err = s.saves.CountWatchLater(ctx); err != nil {
		return domain.CatalogStats{}, fmt.Errorf("подсчёт отложенных: %w", err)
	}
	if stats.RecentlyWatched, err = s.saves.CountRecentlyWatched(ctx); err != nil {
		return domain.CatalogStats{}, fmt.Errorf("подсчёт истории: %w", err)
	}
	return stats, nil
}
