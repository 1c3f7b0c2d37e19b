package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tg-movie-bot/internal/domain"
)

type stubMovieRepo struct {
	movies    []domain.Movie
	nextID    int64
	listCalls int
}

func (s *stubMovieRepo) InsertMovie(_ context.Context, movie domain.Movie) (int64, error) {
	s.nextID++
	movie.ID = s.nextID
	movie.IsActive = true
	s.movies = append(s.movies, movie)
	return movie.ID, nil
}

func (s *stubMovieRepo) GetMovie(_ context.Context, id int64) (domain.Movie, error) {
	for _, movie := range s.movies {
		if movie.ID == id {
			return movie, nil
		}
	}
	return domain.Movie{}, errors.New("фильм не найден")
}

func (s *stubMovieRepo) ListMoviesByCategory(_ context.Context, category domain.Category, limit int) ([]domain.Movie, error) {
	s.listCalls++
	var out []domain.Movie
	for _, movie := range s.movies {
		if movie.Category == category && movie.IsActive {
			out = append(out, movie)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubMovieRepo) CountMovies(_ context.Context, activeOnly bool) (int, error) {
	if !activeOnly {
		return len(s.movies), nil
	}
	count := 0
	for _, movie := range s.movies {
		if movie.IsActive {
			count++
		}
	}
	return count, nil
}

type stubUserRepo struct {
	user domain.User
}

func (s *stubUserRepo) UpsertByTGID(context.Context, domain.TelegramProfile) (domain.User, bool, error) {
	return s.user, true, nil
}
func (s *stubUserRepo) GetByTGID(context.Context, int64) (domain.User, error) { return s.user, nil }
func (s *stubUserRepo) ListTGIDs(context.Context) ([]int64, error) {
	return []int64{s.user.TGUserID}, nil
}
func (s *stubUserRepo) CountUsers(context.Context) (int, error) { return 1, nil }

type stubEngagementRepo struct{}

func (s *stubEngagementRepo) SaveWatchLater(context.Context, int64, int64) (bool, error) {
	return true, nil
}
func (s *stubEngagementRepo) ListWatchLater(context.Context, int64) ([]domain.Movie, error) {
	return nil, nil
}
func (s *stubEngagementRepo) RecordWatched(context.Context, int64, int64) error { return nil }
func (s *stubEngagementRepo) ListRecentlyWatched(context.Context, int64, int) ([]domain.WatchedEntry, error) {
	return nil, nil
}
func (s *stubEngagementRepo) CountWatchLater(context.Context) (int, error)      { return 2, nil }
func (s *stubEngagementRepo) CountRecentlyWatched(context.Context) (int, error) { return 3, nil }

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Set(_ context.Context, key string, value []byte, _ int) error {
	c.data[key] = value
	return nil
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := c.data[key]
	if !ok {
		return nil, errors.New("промах кэша")
	}
	return value, nil
}

func (c *memCache) Del(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func validIngestPayload() string {
	return strings.Join([]string{
		"Дюна",
		"Эпическая фантастика по роману Герберта",
		"2021",
		"фантастика",
		"8.0",
		"155 мин",
		"Дени Вильнёв",
		"Тимоти Шаламе, Зендея",
		"https://example.com/poster.jpg",
		"https://example.com/watch/dune",
		"sci_fi",
	}, "\n")
}

func TestParseIngestInput(t *testing.T) {
	movie, err := ParseIngestInput(validIngestPayload())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if movie.Title != "Дюна" {
		t.Fatalf("ожидали название Дюна, получили %q", movie.Title)
	}
	if movie.Year != 2021 {
		t.Fatalf("ожидали год 2021, получили %d", movie.Year)
	}
	if movie.Category != domain.CategorySciFi {
		t.Fatalf("ожидали категорию sci_fi, получили %q", movie.Category)
	}
	if movie.MovieURL != "https://example.com/watch/dune" {
		t.Fatalf("неожиданная ссылка на фильм: %q", movie.MovieURL)
	}
}

func TestParseIngestInputErrors(t *testing.T) {
	short := strings.Join([]string{"Название", "Описание", "2020"}, "\n")
	if _, err := ParseIngestInput(short); !errors.Is(err, ErrNotEnoughFields) {
		t.Fatalf("ожидали ErrNotEnoughFields, получили %v", err)
	}

	badYear := strings.Replace(validIngestPayload(), "2021", "две тысячи", 1)
	if _, err := ParseIngestInput(badYear); !errors.Is(err, ErrYearInvalid) {
		t.Fatalf("ожидали ErrYearInvalid, получили %v", err)
	}

	badCategory := strings.Replace(validIngestPayload(), "sci_fi", "thriller", 1)
	if _, err := ParseIngestInput(badCategory); !errors.Is(err, ErrCategoryUnknown) {
		t.Fatalf("ожидали ErrCategoryUnknown, получили %v", err)
	}
}

func TestInsertValidation(t *testing.T) {
	repo := &stubMovieRepo{}
	service := NewService(repo, &stubUserRepo{}, &stubEngagementRepo{}, nil, 10, 60)

	movie, err := ParseIngestInput(validIngestPayload())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	noURL := movie
	noURL.MovieURL = "  "
	if _, err := service.Insert(context.Background(), noURL); !errors.Is(err, ErrMovieURLEmpty) {
		t.Fatalf("ожидали ErrMovieURLEmpty, получили %v", err)
	}

	noDirector := movie
	noDirector.Director = ""
	if _, err := service.Insert(context.Background(), noDirector); !errors.Is(err, ErrFieldMissing) {
		t.Fatalf("ожидали ErrFieldMissing, получили %v", err)
	}

	noDescription := movie
	noDescription.Description = " "
	if _, err := service.Insert(context.Background(), noDescription); !errors.Is(err, ErrFieldMissing) {
		t.Fatalf("ожидали ErrFieldMissing для пустого описания, получили %v", err)
	}

	if len(repo.movies) != 0 {
		t.Fatalf("невалидный фильм не должен попадать в хранилище")
	}
}

func TestIngestThenListByCategory(t *testing.T) {
	repo := &stubMovieRepo{}
	service := NewService(repo, &stubUserRepo{}, &stubEngagementRepo{}, nil, 10, 60)

	movie, err := service.Ingest(context.Background(), 77, validIngestPayload())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if movie.ID == 0 {
		t.Fatalf("ожидали присвоенный id")
	}
	if movie.AddedBy != 77 {
		t.Fatalf("ожидали отметку автора, получили %d", movie.AddedBy)
	}

	listed, err := service.ListByCategory(context.Background(), domain.CategorySciFi)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(listed) != 1 || listed[0].Title != "Дюна" {
		t.Fatalf("ожидали один фильм Дюна, получили %v", listed)
	}
}

func TestListByCategoryUnknown(t *testing.T) {
	repo := &stubMovieRepo{}
	service := NewService(repo, &stubUserRepo{}, &stubEngagementRepo{}, nil, 10, 60)

	movies, err := service.ListByCategory(context.Background(), "thriller")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(movies) != 0 {
		t.Fatalf("ожидали пустой список для неизвестной категории")
	}
	if repo.listCalls != 0 {
		t.Fatalf("неизвестная категория не должна ходить в хранилище")
	}
}

func TestListByCategoryUsesCache(t *testing.T) {
	repo := &stubMovieRepo{}
	service := NewService(repo, &stubUserRepo{}, &stubEngagementRepo{}, newMemCache(), 10, 60)

	if _, err := service.Ingest(context.Background(), 77, validIngestPayload()); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	if _, err := service.ListByCategory(context.Background(), domain.CategorySciFi); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := service.ListByCategory(context.Background(), domain.CategorySciFi); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if repo.listCalls != 1 {
		t.Fatalf("ожидали один поход в хранилище, получили %d", repo.listCalls)
	}
}

func TestStats(t *testing.T) {
	repo := &stubMovieRepo{}
	service := NewService(repo, &stubUserRepo{user: domain.User{ID: 1, TGUserID: 42}}, &stubEngagementRepo{}, nil, 10, 60)

	if _, err := service.Ingest(context.Background(), 77, validIngestPayload()); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	stats, err := service.Stats(context.Background())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if stats.Users != 1 || stats.Movies != 1 || stats.ActiveMovies != 1 {
		t.Fatalf("неожиданные счётчики: %+v", stats)
	}
	if stats.WatchLater != 2 || stats.RecentlyWatched != 3 {
		t.Fatalf("неожиданные счётчики вовлечённости: %+v", stats)
	}
}
