package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"tg-movie-bot/internal/domain"
	"tg-movie-bot/internal/usecase/catalog"
)

type stubMovieRepo struct {
	movies    []domain.Movie
	insertErr error
}

func (s *stubMovieRepo) InsertMovie(_ context.Context, movie domain.Movie) (int64, error) {
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	movie.ID = int64(len(s.movies) + 1)
	s.movies = append(s.movies, movie)
	return movie.ID, nil
}

func (s *stubMovieRepo) GetMovie(context.Context, int64) (domain.Movie, error) {
	return domain.Movie{}, errors.New("фильм не найден")
}

func (s *stubMovieRepo) ListMoviesByCategory(context.Context, domain.Category, int) ([]domain.Movie, error) {
	return s.movies, nil
}

func (s *stubMovieRepo) CountMovies(context.Context, bool) (int, error) { return len(s.movies), nil }

type stubUserRepo struct{}

func (s *stubUserRepo) UpsertByTGID(context.Context, domain.TelegramProfile) (domain.User, bool, error) {
	return domain.User{ID: 1}, true, nil
}
func (s *stubUserRepo) GetByTGID(context.Context, int64) (domain.User, error) {
	return domain.User{ID: 1}, nil
}
func (s *stubUserRepo) ListTGIDs(context.Context) ([]int64, error) { return nil, nil }
func (s *stubUserRepo) CountUsers(context.Context) (int, error)    { return 0, nil }

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
func (s *stubEngagementRepo) CountWatchLater(context.Context) (int, error)      { return 0, nil }
func (s *stubEngagementRepo) CountRecentlyWatched(context.Context) (int, error) { return 0, nil }

type memQueue struct {
	jobs []domain.BroadcastJob
	err  error
}

func (q *memQueue) Enqueue(_ context.Context, job domain.BroadcastJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *memQueue) Pop(context.Context) (domain.BroadcastJob, error) {
	return domain.BroadcastJob{}, errors.New("очередь пуста")
}

func newTestService(adminIDs []int64, movies *stubMovieRepo, queue *memQueue) *Service {
	catalogUC := catalog.NewService(movies, &stubUserRepo{}, &stubEngagementRepo{}, nil, 10, 60)
	return NewService(adminIDs, catalogUC, queue, zerolog.Nop())
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

func TestStartFlowsNonAdmin(t *testing.T) {
	service := newTestService([]int64{1}, &stubMovieRepo{}, &memQueue{})

	if service.StartAddMovie(2) {
		t.Fatalf("не-администратор не должен открывать флоу добавления")
	}
	if service.StartBroadcast(2) {
		t.Fatalf("не-администратор не должен открывать флоу рассылки")
	}
	if service.ActiveFlow(2) != FlowNone {
		t.Fatalf("состояние не-администратора должно остаться пустым")
	}

	outcome := service.HandleText(context.Background(), 2, 2, validIngestPayload())
	if outcome.Consumed() {
		t.Fatalf("текст без открытого флоу не должен потребляться")
	}
}

func TestAddMovieFlow(t *testing.T) {
	movies := &stubMovieRepo{}
	service := newTestService([]int64{1}, movies, &memQueue{})

	if !service.StartAddMovie(1) {
		t.Fatalf("администратор должен открыть флоу")
	}
	if service.ActiveFlow(1) != FlowAddMovie {
		t.Fatalf("ожидали открытый флоу добавления")
	}

	outcome := service.HandleText(context.Background(), 1, 100, validIngestPayload())
	if outcome.Result != ResultMovieAdded {
		t.Fatalf("ожидали ResultMovieAdded, получили %v (%v)", outcome.Result, outcome.Err)
	}
	if outcome.Movie.Title != "Дюна" {
		t.Fatalf("ожидали фильм из payload'а, получили %q", outcome.Movie.Title)
	}
	if len(movies.movies) != 1 {
		t.Fatalf("фильм должен попасть в хранилище")
	}
	if movies.movies[0].AddedBy != 1 {
		t.Fatalf("ожидали отметку автора-администратора")
	}
	if service.ActiveFlow(1) != FlowNone {
		t.Fatalf("успешное добавление должно закрывать флоу")
	}
}

func TestAddMovieValidationKeepsFlow(t *testing.T) {
	movies := &stubMovieRepo{}
	service := newTestService([]int64{1}, movies, &memQueue{})
	service.StartAddMovie(1)

	outcome := service.HandleText(context.Background(), 1, 100, "слишком мало строк")
	if outcome.Result != ResultValidationError {
		t.Fatalf("ожидали ResultValidationError, получили %v", outcome.Result)
	}
	if len(movies.movies) != 0 {
		t.Fatalf("невалидный payload не должен создавать фильм")
	}
	if service.ActiveFlow(1) != FlowAddMovie {
		t.Fatalf("после ошибки валидации флоу должен остаться открытым")
	}

	outcome = service.HandleText(context.Background(), 1, 100, validIngestPayload())
	if outcome.Result != ResultMovieAdded {
		t.Fatalf("повтор с валидным payload'ом должен пройти: %v", outcome.Err)
	}
}

func TestAddMovieStoreErrorClearsFlow(t *testing.T) {
	movies := &stubMovieRepo{insertErr: errors.New("БД недоступна")}
	service := newTestService([]int64{1}, movies, &memQueue{})
	service.StartAddMovie(1)

	outcome := service.HandleText(context.Background(), 1, 100, validIngestPayload())
	if outcome.Result != ResultStoreError {
		t.Fatalf("ожидали ResultStoreError, получили %v", outcome.Result)
	}
	if service.ActiveFlow(1) != FlowNone {
		t.Fatalf("ошибка хранилища должна закрывать флоу")
	}
}

func TestBroadcastFlow(t *testing.T) {
	queue := &memQueue{}
	service := newTestService([]int64{1}, &stubMovieRepo{}, queue)
	service.StartBroadcast(1)

	outcome := service.HandleText(context.Background(), 1, 100, "всем привет")
	if outcome.Result != ResultBroadcastQueued {
		t.Fatalf("ожидали ResultBroadcastQueued, получили %v", outcome.Result)
	}
	if len(queue.jobs) != 1 {
		t.Fatalf("ожидали одну задачу в очереди")
	}
	job := queue.jobs[0]
	if job.Body != "всем привет" || job.AdminChatID != 100 {
		t.Fatalf("неожиданная задача: %+v", job)
	}
	if job.ID == "" {
		t.Fatalf("задача должна получить идентификатор")
	}
	if service.ActiveFlow(1) != FlowNone {
		t.Fatalf("рассылка должна закрывать флоу")
	}
}

func TestBroadcastQueueErrorClearsFlow(t *testing.T) {
	queue := &memQueue{err: errors.New("брокер недоступен")}
	service := newTestService([]int64{1}, &stubMovieRepo{}, queue)
	service.StartBroadcast(1)

	outcome := service.HandleText(context.Background(), 1, 100, "всем привет")
	if outcome.Result != ResultQueueError {
		t.Fatalf("ожидали ResultQueueError, получили %v", outcome.Result)
	}
	if service.ActiveFlow(1) != FlowNone {
		t.Fatalf("состояние сбрасывается независимо от исхода постановки")
	}
}

func TestFlowsIndependentPerUser(t *testing.T) {
	movies := &stubMovieRepo{}
	queue := &memQueue{}
	service := newTestService([]int64{1, 2}, movies, queue)

	service.StartAddMovie(1)
	service.StartBroadcast(2)

	if service.ActiveFlow(1) != FlowAddMovie || service.ActiveFlow(2) != FlowBroadcast {
		t.Fatalf("флоу разных пользователей не должны пересекаться")
	}

	if outcome := service.HandleText(context.Background(), 2, 200, "объявление"); outcome.Result != ResultBroadcastQueued {
		t.Fatalf("ожидали постановку рассылки второго администратора")
	}
	if service.ActiveFlow(1) != FlowAddMovie {
		t.Fatalf("флоу первого администратора должен остаться открытым")
	}

	if outcome := service.HandleText(context.Background(), 1, 100, validIngestPayload()); outcome.Result != ResultMovieAdded {
		t.Fatalf("ожидали добавление фильма первым администратором")
	}
}

func TestEmptyTextKeepsFlows(t *testing.T) {
	movies := &stubMovieRepo{}
	queue := &memQueue{}
	service := newTestService([]int64{1}, movies, queue)

	service.StartBroadcast(1)
	outcome := service.HandleText(context.Background(), 1, 100, "")
	if outcome.Consumed() {
		t.Fatalf("пустой текст не должен потребляться флоу рассылки")
	}
	if len(queue.jobs) != 0 {
		t.Fatalf("рассылка с пустым телом не должна попадать в очередь")
	}
	if service.ActiveFlow(1) != FlowBroadcast {
		t.Fatalf("пустой текст не должен закрывать флоу рассылки")
	}

	service.StartAddMovie(1)
	outcome = service.HandleText(context.Background(), 1, 100, "   \n  ")
	if outcome.Consumed() {
		t.Fatalf("пустой текст не должен потребляться флоу добавления")
	}
	if len(movies.movies) != 0 {
		t.Fatalf("пустой текст не должен создавать фильм")
	}
	if service.ActiveFlow(1) != FlowAddMovie {
		t.Fatalf("пустой текст не должен закрывать флоу добавления")
	}
}

func TestStartReplacesOpenFlow(t *testing.T) {
	queue := &memQueue{}
	service := newTestService([]int64{1}, &stubMovieRepo{}, queue)

	service.StartAddMovie(1)
	service.StartBroadcast(1)

	if service.ActiveFlow(1) != FlowBroadcast {
		t.Fatalf("новый флоу должен замещать прежний")
	}

	outcome := service.HandleText(context.Background(), 1, 100, "текст объявления")
	if outcome.Result != ResultBroadcastQueued {
		t.Fatalf("текст должен уйти в последний открытый флоу, получили %v", outcome.Result)
	}
}
