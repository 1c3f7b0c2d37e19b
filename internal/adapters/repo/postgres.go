package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tg-movie-bot/internal/domain"
	"tg-movie-bot/internal/infra/metrics"
)

// ErrUserNotFound возвращается, когда пользователь неизвестен системе.
var ErrUserNotFound = errors.New("пользователь не найден")

// ErrMovieNotFound возвращается при запросе несуществующего фильма.
var ErrMovieNotFound = errors.New("фильм не найден")

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// UpsertByTGID реализует domain.UserRepo. Повторный контакт не перезаписывает
// сохранённые при первом обращении значения.
func (p *Postgres) UpsertByTGID(ctx context.Context, profile domain.TelegramProfile) (domain.User, bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var (
		user      domain.User
		username  sql.NullString
		firstName sql.NullString
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO users (tg_user_id, username, first_name, locale)
VALUES ($1, NULLIF($2,''), NULLIF($3,''), COALESCE(NULLIF($4,''),'en'))
ON CONFLICT (tg_user_id) DO NOTHING
RETURNING id, tg_user_id, username, first_name, locale, created_at
`, profile.TGUserID, profile.Username, profile.FirstName, profile.Locale).
		Scan(&user.ID, &user.TGUserID, &username, &firstName, &user.Locale, &user.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "users_upsert", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, getErr := p.GetByTGID(ctx, profile.TGUserID)
		return existing, false, getErr
	}
	if err != nil {
		return domain.User{}, false, err
	}
	if username.Valid {
		user.Username = username.String
	}
	if firstName.Valid {
		user.FirstName = firstName.String
	}
	return user, true, nil
}

// GetByTGID возвращает пользователя по Telegram ID.
func (p *Postgres) GetByTGID(ctx context.Context, tgUserID int64) (domain.User, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var (
		user      domain.User
		username  sql.NullString
		firstName sql.NullString
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, tg_user_id, username, first_name, locale, created_at
FROM users WHERE tg_user_id=$1
`, tgUserID).Scan(&user.ID, &user.TGUserID, &username, &firstName, &user.Locale, &user.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "users_get_by_tgid", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	if username.Valid {
		user.Username = username.String
	}
	if firstName.Valid {
		user.FirstName = firstName.String
	}
	return user, nil
}

// ListTGIDs возвращает Telegram ID всех известных пользователей.
func (p *Postgres) ListTGIDs(ctx context.Context) ([]int64, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT tg_user_id FROM users ORDER BY id`)
	metrics.ObserveNetworkRequest("postgres", "users_list_tgids", "users", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountUsers считает пользователей.
func (p *Postgres) CountUsers(ctx context.Context) (int, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var count int
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	metrics.ObserveNetworkRequest("postgres", "users_count", "users", start, err)
	return count, err
}

// InsertMovie сохраняет фильм и возвращает присвоенный id.
func (p *Postgres) InsertMovie(ctx context.Context, movie domain.Movie) (int64, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var id int64
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO movies (title, description, year, genre, rating, duration, director, cast_list, poster_url, movie_url, category, is_active, added_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''),$10,$11,true,$12)
RETURNING id
`, movie.Title, movie.Description, movie.Year, movie.Genre, movie.Rating, movie.Duration,
		movie.Director, movie.Cast, movie.PosterURL, movie.MovieURL, string(movie.Category), movie.AddedBy).Scan(&id)
	metrics.ObserveNetworkRequest("postgres", "movies_insert", "movies", start, err)
	return id, err
}

const movieColumns = `id, title, description, year, genre, rating, duration, director, cast_list, poster_url, movie_url, category, is_active, added_by, created_at`

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var (
		m        domain.Movie
		poster   sql.NullString
		category string
	)
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.Year, &m.Genre, &m.Rating, &m.Duration,
		&m.Director, &m.Cast, &poster, &m.MovieURL, &category, &m.IsActive, &m.AddedBy, &m.CreatedAt)
	if err != nil {
		return domain.Movie{}, err
	}
	if poster.Valid {
		m.PosterURL = poster.String
	}
	m.Category = domain.Category(category)
	return m, nil
}

// GetMovie возвращает фильм по id.
func (p *Postgres) GetMovie(ctx context.Context, id int64) (domain.Movie, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `SELECT `+movieColumns+` FROM movies WHERE id=$1`, id)
	movie, err := scanMovie(row)
	metrics.ObserveNetworkRequest("postgres", "movies_get", "movies", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Movie{}, ErrMovieNotFound
	}
	return movie, err
}

// ListMoviesByCategory возвращает активные фильмы категории в порядке добавления.
func (p *Postgres) ListMoviesByCategory(ctx context.Context, category domain.Category, limit int) ([]domain.Movie, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+movieColumns+`
FROM movies WHERE category=$1 AND is_active
ORDER BY id
LIMIT $2
`, string(category), limit)
	metrics.ObserveNetworkRequest("postgres", "movies_list_by_category", "movies", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movies []domain.Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}
	return movies, rows.Err()
}

// CountMovies считает фильмы, при activeOnly — только активные.
func (p *Postgres) CountMovies(ctx context.Context, activeOnly bool) (int, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	query := `SELECT COUNT(*) FROM movies`
	if activeOnly {
		query += ` WHERE is_active`
	}
	var count int
	start := time.Now()
	err := p.pool.QueryRow(ctx, query).Scan(&count)
	metrics.ObserveNetworkRequest("postgres", "movies_count", "movies", start, err)
	return count, err
}

// SaveWatchLater добавляет пару в «Смотреть позже».
// Возвращает false без ошибки, если пара уже существует.
func (p *Postgres) SaveWatchLater(ctx context.Context, userID, movieID int64) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
INSERT INTO watch_later (user_id, movie_id)
VALUES ($1,$2)
ON CONFLICT (user_id, movie_id) DO NOTHING
`, userID, movieID)
	metrics.ObserveNetworkRequest("postgres", "watch_later_save", "watch_later", start, err)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListWatchLater возвращает фильмы из «Смотреть позже», новые первыми.
// Записи без фильма в каталоге пропускаются.
func (p *Postgres) ListWatchLater(ctx context.Context, userID int64) ([]domain.Movie, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT m.id, m.title, m.description, m.year, m.genre, m.rating, m.duration, m.director, m.cast_list, m.poster_url, m.movie_url, m.category, m.is_active, m.added_by, m.created_at
FROM watch_later wl JOIN movies m ON m.id = wl.movie_id
WHERE wl.user_id=$1
ORDER BY wl.added_at DESC
`, userID)
	metrics.ObserveNetworkRequest("postgres", "watch_later_list", "watch_later", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movies []domain.Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}
	return movies, rows.Err()
}

// RecordWatched добавляет запись истории. История append-only.
func (p *Postgres) RecordWatched(ctx context.Context, userID, movieID int64) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO recently_watched (user_id, movie_id)
VALUES ($1,$2)
`, userID, movieID)
	metrics.ObserveNetworkRequest("postgres", "recently_watched_insert", "recently_watched", start, err)
	return err
}

// ListRecentlyWatched возвращает историю просмотров, новые первыми.
// Для записей, ссылающихся на удалённые фильмы, Movie остаётся nil.
func (p *Postgres) ListRecentlyWatched(ctx context.Context, userID int64, limit int) ([]domain.WatchedEntry, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT rw.movie_id, rw.watched_at,
       m.id, m.title, m.description, m.year, m.genre, m.rating, m.duration, m.director, m.cast_list, m.poster_url, m.movie_url, m.category, m.is_active, m.added_by, m.created_at
FROM recently_watched rw LEFT JOIN movies m ON m.id = rw.movie_id
WHERE rw.user_id=$1
ORDER BY rw.watched_at DESC
LIMIT $2
`, userID, limit)
	metrics.ObserveNetworkRequest("postgres", "recently_watched_list", "recently_watched", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []domain.WatchedEntry
	for rows.Next() {
		var (
			entry    domain.WatchedEntry
			movieID  sql.NullInt64
			title    sql.NullString
			descr    sql.NullString
			year     sql.NullInt32
			genre    sql.NullString
			rating   sql.NullString
			duration sql.NullString
			director sql.NullString
			cast     sql.NullString
			poster   sql.NullString
			movieURL sql.NullString
			category sql.NullString
			isActive sql.NullBool
			addedBy  sql.NullInt64
			created  sql.NullTime
		)
		if err := rows.Scan(&entry.MovieID, &entry.WatchedAt,
			&movieID, &title, &descr, &year, &genre, &rating, &duration, &director, &cast,
			&poster, &movieURL, &category, &isActive, &addedBy, &created); err != nil {
			return nil, err
		}
		if movieID.Valid {
			movie := domain.Movie{
				ID:          movieID.Int64,
				Title:       title.String,
				Description: descr.String,
				Year:        int(year.Int32),
				Genre:       genre.String,
				Rating:      rating.String,
				Duration:    duration.String,
				Director:    director.String,
				Cast:        cast.String,
				PosterURL:   poster.String,
				MovieURL:    movieURL.String,
				Category:    domain.Category(category.String),
				IsActive:    isActive.Bool,
				AddedBy:     addedBy.Int64,
				CreatedAt:   created.Time,
			}
			entry.Movie = &movie
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CountWatchLater считает записи «Смотреть позже».
func (p *Postgres) CountWatchLater(ctx context.Context) (int, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var count int
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM watch_later`).Scan(&count)
	metrics.ObserveNetworkRequest("postgres", "watch_later_count", "watch_later", start, err)
	return count, err
}

// CountRecentlyWatched считает записи истории просмотров.
func (p *Postgres) CountRecentlyWatched(ctx context.Context) (int, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var count int
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM recently_watched`).Scan(&count)
	metrics.ObserveNetworkRequest("postgres", "recently_watched_count", "recently_watched", start, err)
	return count, err
}
