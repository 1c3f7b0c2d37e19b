package domain

import "time"

// User описывает пользователя Telegram в системе.
type User struct {
	ID        int64
	TGUserID  int64
	Username  string
	FirstName string
	Locale    string
	CreatedAt time.Time
}

// TelegramProfile содержит данные профиля из входящего апдейта.
type TelegramProfile struct {
	TGUserID  int64
	Username  string
	FirstName string
	Locale    string
}

// Movie описывает фильм каталога.
type Movie struct {
	ID          int64
	Title       string
	Description string
	Year        int
	Genre       string
	Rating      string
	Duration    string
	Director    string
	Cast        string
	PosterURL   string
	MovieURL    string
	Category    Category
	IsActive    bool
	AddedBy     int64
	CreatedAt   time.Time
}

// SaveResult сообщает исход сохранения в «Смотреть позже».
// Дубликат — не ошибка, а отдельный исход для текста ответа пользователю.
type SaveResult int

const (
	// SaveAdded — фильм добавлен в список.
	SaveAdded SaveResult = iota
	// SaveAlreadyPresent — пара (пользователь, фильм) уже была сохранена.
	SaveAlreadyPresent
)

// WatchedEntry описывает запись истории просмотров.
// Movie может быть nil, если фильм удалён из каталога.
type WatchedEntry struct {
	MovieID   int64
	WatchedAt time.Time
	Movie     *Movie
}

// CatalogStats агрегирует счётчики для админ-панели.
type CatalogStats struct {
	Users           int
	Movies          int
	ActiveMovies    int
	WatchLater      int
	RecentlyWatched int
}

// BroadcastReport содержит итог рассылки.
type BroadcastReport struct {
	Sent   int
	Failed int
}
