package domain

import "context"

// UserRepo управляет пользователями.
type UserRepo interface {
	// UpsertByTGID создаёт пользователя при первом контакте. Повторный вызов
	// не перезаписывает сохранённые username/first_name и возвращает created=false.
	UpsertByTGID(ctx context.Context, profile TelegramProfile) (User, bool, error)
	GetByTGID(ctx context.Context, tgUserID int64) (User, error)
	ListTGIDs(ctx context.Context) ([]int64, error)
	CountUsers(ctx context.Context) (int, error)
}

// MovieRepo управляет каталогом фильмов.
type MovieRepo interface {
	InsertMovie(ctx context.Context, movie Movie) (int64, error)
	GetMovie(ctx context.Context, id int64) (Movie, error)
	ListMoviesByCategory(ctx context.Context, category Category, limit int) ([]Movie, error)
	CountMovies(ctx context.Context, activeOnly bool) (int, error)
}

// EngagementRepo управляет связями пользователь-фильм.
type EngagementRepo interface {
	// SaveWatchLater возвращает false без ошибки, если пара уже сохранена.
	SaveWatchLater(ctx context.Context, userID, movieID int64) (bool, error)
	ListWatchLater(ctx context.Context, userID int64) ([]Movie, error)
	RecordWatched(ctx context.Context, userID, movieID int64) error
	ListRecentlyWatched(ctx context.Context, userID int64, limit int) ([]WatchedEntry, error)
	CountWatchLater(ctx context.Context) (int, error)
	CountRecentlyWatched(ctx context.Context) (int, error)
}

// Sender отправляет сообщения пользователям. Реализация с фото обязана
// прозрачно откатываться на текст при ошибке отправки фотографии.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) error
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, key string) error
}
