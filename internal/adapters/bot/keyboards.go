package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tg-movie-bot/internal/domain"
)

// Подписи кнопок категорий. Порядок повторяет domain.Categories.
var categoryLabels = map[domain.Category]string{
	domain.CategoryAction:  "🎬 Боевики",
	domain.CategorySciFi:   "🚀 Фантастика",
	domain.CategoryComedy:  "😂 Комедии",
	domain.CategoryRomance: "💖 Мелодрамы",
	domain.CategoryHorror:  "👻 Ужасы",
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSearch),
			tgbotapi.NewKeyboardButton(btnCategories),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnWatchLater),
			tgbotapi.NewKeyboardButton(btnRecent),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSettings),
			tgbotapi.NewKeyboardButton(btnAdmin),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func categoriesKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(domain.Categories())+1)
	for _, category := range domain.Categories() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(categoryLabels[category], EncodeCategory(category)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Назад", dataBackMain),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func movieCardKeyboard(movie domain.Movie) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("▶️ Смотреть", movie.MovieURL),
			tgbotapi.NewInlineKeyboardButtonData("⏱ Сохранить", EncodeSave(movie.ID)),
		),
	)
}

func adminPanelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Статистика", dataAdminStats),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить фильм", dataAdminAddMovie),
			tgbotapi.NewInlineKeyboardButtonData("📢 Рассылка", dataAdminBroadcast),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Назад", dataBackMain),
		),
	)
}
