package engagement

import (
	"context"
	"testing"

	"tg-movie-bot/internal/domain"
)

type memEngagementRepo struct {
	saved   map[[2]int64]bool
	watched [][2]int64
}

func newMemEngagementRepo() *memEngagementRepo {
	return &memEngagementRepo{saved: map[[2]int64]bool{}}
}

func (r *memEngagementRepo) SaveWatchLater(_ context.Context, userID, movieID int64) (bool, error) {
	key := [2]int64{userID, movieID}
	if r.saved[key] {
		return false, nil
	}
	r.saved[key] = true
	return true, nil
}

func (r *memEngagementRepo) ListWatchLater(_ context.Context, userID int64) ([]domain.Movie, error) {
	var out []domain.Movie
	for key := range r.saved {
		if key[0] == userID {
			out = append(out, domain.Movie{ID: key[1]})
		}
	}
	return out, nil
}

func (r *memEngagementRepo) RecordWatched(_ context.Context, userID, movieID int64) error {
	r.watched = append(r.watched, [2]int64{userID, movieID})
	return nil
}

func (r *memEngagementRepo) ListRecentlyWatched(_ context.Context, userID int64, limit int) ([]domain.WatchedEntry, error) {
	var out []domain.WatchedEntry
	for i := len(r.watched) - 1; i >= 0 && len(out) < limit; i-- {
		if r.watched[i][0] == userID {
			out = append(out, domain.WatchedEntry{MovieID: r.watched[i][1]})
		}
	}
	return out, nil
}

func (r *memEngagementRepo) CountWatchLater(context.Context) (int, error) {
	return len(r.saved), nil
}

func (r *memEngagementRepo) CountRecentlyWatched(context.Context) (int, error) {
	return len(r.watched), nil
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

func TestSaveWatchLaterDuplicate(t *testing.T) {
	repo := newMemEngagementRepo()
	service := NewService(repo, &stubUserRepo{user: domain.User{ID: 1, TGUserID: 42}})

	result, err := service.SaveWatchLater(context.Background(), 42, 7)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if result != domain.SaveAdded {
		t.Fatalf("ожидали SaveAdded при первом сохранении")
	}

	result, err = service.SaveWatchLater(context.Background(), 42, 7)
	if err != nil {
		t.Fatalf("повтор не должен быть ошибкой: %v", err)
	}
	if result != domain.SaveAlreadyPresent {
		t.Fatalf("ожидали SaveAlreadyPresent при повторе")
	}

	movies, err := service.ListWatchLater(context.Background(), 42)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(movies) != 1 {
		t.Fatalf("ожидали одну запись в списке, получили %d", len(movies))
	}
}

func TestRecordWatchedAppendOnly(t *testing.T) {
	repo := newMemEngagementRepo()
	service := NewService(repo, &stubUserRepo{user: domain.User{ID: 1, TGUserID: 42}})

	if err := service.RecordWatched(context.Background(), 42, 7); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if err := service.RecordWatched(context.Background(), 42, 7); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	entries, err := service.ListRecentlyWatched(context.Background(), 42, 10)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("повторный просмотр должен добавлять запись, получили %d", len(entries))
	}
}
