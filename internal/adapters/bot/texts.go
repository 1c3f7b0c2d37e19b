package bot

import (
	"fmt"
	"strings"

	"tg-movie-bot/internal/domain"
)

// buildMovieCard собирает карточку фильма в Markdown.
func buildMovieCard(movie domain.Movie) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎬 *%s* (%d)\n\n", movie.Title, movie.Year)
	fmt.Fprintf(&b, "⭐ Рейтинг: %s\n", movie.Rating)
	fmt.Fprintf(&b, "🕐 Длительность: %s\n", movie.Duration)
	fmt.Fprintf(&b, "🎭 Жанр: %s\n", movie.Genre)
	fmt.Fprintf(&b, "🎥 Режиссёр: %s\n", movie.Director)
	fmt.Fprintf(&b, "👥 В ролях: %s\n", movie.Cast)
	if desc := strings.TrimSpace(movie.Description); desc != "" {
		fmt.Fprintf(&b, "\n📝 %s\n", desc)
	}
	return b.String()
}

func buildStatsMessage(stats domain.CatalogStats) string {
	lines := []string{
		"👑 Админ-панель",
		"",
		fmt.Sprintf("👤 Пользователей: %d", stats.Users),
		fmt.Sprintf("🎬 Фильмов в каталоге: %d (активных: %d)", stats.Movies, stats.ActiveMovies),
		fmt.Sprintf("⏱ В списках «Смотреть позже»: %d", stats.WatchLater),
		fmt.Sprintf("📺 Просмотров записано: %d", stats.RecentlyWatched),
	}
	return strings.Join(lines, "\n")
}

func buildStartMessage() string {
	lines := []string{
		"🎬 Добро пожаловать в MovieBot!",
		"",
		"Ваш помощник в мире кино:",
		"• 📁 Каталог по категориям",
		"• ⏱ Список «Смотреть позже»",
		"• 📺 История просмотров",
		"",
		"Выберите пункт меню ниже.",
	}
	return strings.Join(lines, "\n")
}

func buildHelpMessage() string {
	lines := []string{
		"📖 Основные возможности:",
		"",
		"• 📁 Категории — подборки фильмов по жанрам.",
		"• ⏱ Смотреть позже — сохранённые фильмы, кнопка «Сохранить» на карточке.",
		"• 📺 Недавние просмотры — история, пополняется командой /watch_<id>.",
		"",
		"Подсказка: ссылки /watch_... в списках открывают карточку фильма.",
	}
	return strings.Join(lines, "\n")
}

func buildIngestPrompt() string {
	lines := []string{
		"➕ Добавление фильма",
		"",
		"Отправьте данные одним сообщением, 11 строк по порядку:",
		"",
		"Название",
		"Описание",
		"Год",
		"Жанр",
		"Рейтинг",
		"Длительность",
		"Режиссёр",
		"Актёры",
		"Ссылка на постер",
		"Ссылка на фильм",
		"Категория (action, sci_fi, comedy, romance, horror)",
	}
	return strings.Join(lines, "\n")
}
