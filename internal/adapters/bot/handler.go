package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tg-movie-bot/internal/adapters/repo"
	"tg-movie-bot/internal/adapters/telegram"
	"tg-movie-bot/internal/domain"
	"tg-movie-bot/internal/infra/metrics"
	"tg-movie-bot/internal/usecase/catalog"
	"tg-movie-bot/internal/usecase/engagement"
	"tg-movie-bot/internal/usecase/session"
)

const recentHistoryLimit = 10

// Кнопки главного меню.
const (
	btnSearch     = "🔍 Поиск"
	btnCategories = "📁 Категории"
	btnWatchLater = "⏱ Смотреть позже"
	btnRecent     = "📺 Недавние просмотры"
	btnSettings   = "⚙️ Настройки"
	btnAdmin      = "👑 Админ-панель"
)

// Handler обслуживает вебхук бота.
type Handler struct {
	bot       *tgbotapi.BotAPI
	log       zerolog.Logger
	catalogUC *catalog.Service
	engageUC  *engagement.Service
	sessionUC *session.Service
	users     domain.UserRepo
}

// NewHandler создаёт обработчик.
func NewHandler(bot *tgbotapi.BotAPI, log zerolog.Logger, catalogUC *catalog.Service, engageUC *engagement.Service, sessionUC *session.Service, users domain.UserRepo) *Handler {
	return &Handler{
		bot:       bot,
		log:       log,
		catalogUC: catalogUC,
		engageUC:  engageUC,
		sessionUC: sessionUC,
		users:     users,
	}
}

// HandleUpdate обрабатывает входящий апдейт. Каждый апдейт изолирован:
// любая ошибка логируется и не влияет на обработку следующих событий.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		h.handleMessage(ctx, upd.Message)
	} else if upd.CallbackQuery != nil {
		h.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	// Нетекстовые апдейты (стикеры, фото) приходят с пустым текстом; молча пропускаем.
	if text == "" {
		return
	}

	// Машина состояний смотрит на свободный текст первой: открытый админский
	// флоу потребляет следующее сообщение этого же пользователя.
	if !strings.HasPrefix(text, "/") {
		if outcome := h.sessionUC.HandleText(ctx, msg.From.ID, msg.Chat.ID, text); outcome.Consumed() {
			h.replyFlowOutcome(msg.Chat.ID, outcome)
			return
		}
	}

	switch {
	case strings.HasPrefix(text, "/start"):
		h.handleStart(ctx, msg)
	case strings.HasPrefix(text, "/help"):
		h.reply(msg.Chat.ID, buildHelpMessage(), nil)
	case strings.HasPrefix(text, "/watch_"):
		h.handleWatch(ctx, msg.Chat.ID, msg.From.ID, strings.TrimPrefix(text, "/watch_"))
	case text == btnCategories:
		h.sendCategoriesMenu(msg.Chat.ID)
	case text == btnWatchLater:
		h.handleWatchLaterList(ctx, msg.Chat.ID, msg.From.ID)
	case text == btnRecent:
		h.handleRecentList(ctx, msg.Chat.ID, msg.From.ID)
	case text == btnAdmin:
		h.handleAdminPanel(ctx, msg.Chat.ID, msg.From.ID)
	case text == btnSearch || text == btnSettings:
		h.reply(msg.Chat.ID, "Раздел в разработке. Выберите другой пункт меню.", mainMenuKeyboard())
	default:
		h.reply(msg.Chat.ID, "Неизвестная команда. Используйте /help", nil)
	}
}

func (h *Handler) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	profile := domain.TelegramProfile{
		TGUserID:  msg.From.ID,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
		Locale:    msg.From.LanguageCode,
	}
	if _, _, err := h.users.UpsertByTGID(ctx, profile); err != nil {
		h.log.Error().Err(err).Int64("user", msg.From.ID).Msg("не удалось сохранить профиль")
		h.reply(msg.Chat.ID, "Не удалось сохранить профиль, попробуйте позже.", nil)
		return
	}
	h.reply(msg.Chat.ID, buildStartMessage(), mainMenuKeyboard())
}

func (h *Handler) replyFlowOutcome(chatID int64, outcome session.TextOutcome) {
	switch outcome.Result {
	case session.ResultMovieAdded:
		movie := outcome.Movie
		text := fmt.Sprintf("✅ Фильм добавлен!\n\nНазвание: %s\nГод: %d\nКатегория: %s\n\nПользователи найдут его в категориях.",
			movie.Title, movie.Year, movie.Category)
		h.reply(chatID, text, nil)
	case session.ResultValidationError:
		h.reply(chatID, fmt.Sprintf("❌ Некорректный формат: %v\n\nПришлите все 11 строк ещё раз.", outcome.Err), nil)
	case session.ResultBroadcastQueued:
		h.reply(chatID, "📤 Рассылка поставлена в очередь, итог придёт отдельным сообщением.", nil)
	case session.ResultStoreError:
		h.reply(chatID, "❌ Не удалось сохранить фильм, попробуйте позже.", nil)
	case session.ResultQueueError:
		h.reply(chatID, "❌ Не удалось поставить рассылку в очередь, попробуйте позже.", nil)
	}
}

func (h *Handler) handleWatch(ctx context.Context, chatID, tgUserID int64, rawID string) {
	movieID, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || movieID <= 0 {
		h.reply(chatID, "Некорректный идентификатор фильма.", nil)
		return
	}
	movie, err := h.catalogUC.Get(ctx, movieID)
	if err != nil {
		if errors.Is(err, repo.ErrMovieNotFound) {
			h.reply(chatID, "Фильм не найден в каталоге.", nil)
			return
		}
		h.reply(chatID, "Не удалось получить фильм, попробуйте позже.", nil)
		return
	}
	if err := h.engageUC.RecordWatched(ctx, tgUserID, movieID); err != nil {
		h.log.Error().Err(err).Int64("user", tgUserID).Int64("movie", movieID).Msg("не удалось записать просмотр")
	}
	h.sendMovieCard(chatID, movie)
}

func (h *Handler) handleWatchLaterList(ctx context.Context, chatID, tgUserID int64) {
	movies, err := h.engageUC.ListWatchLater(ctx, tgUserID)
	if err != nil {
		h.reply(chatID, "Не удалось получить список, попробуйте позже.", nil)
		return
	}
	if len(movies) == 0 {
		h.reply(chatID, "Ваш список «Смотреть позже» пуст.", nil)
		return
	}
	var b strings.Builder
	b.WriteString("⏱ Ваш список «Смотреть позже»:\n\n")
	for _, movie := range movies {
		b.WriteString(fmt.Sprintf("• %s (%d) — /watch_%d\n", movie.Title, movie.Year, movie.ID))
	}
	h.reply(chatID, b.String(), nil)
}

func (h *Handler) handleRecentList(ctx context.Context, chatID, tgUserID int64) {
	entries, err := h.engageUC.ListRecentlyWatched(ctx, tgUserID, recentHistoryLimit)
	if err != nil {
		h.reply(chatID, "Не удалось получить историю, попробуйте позже.", nil)
		return
	}
	if len(entries) == 0 {
		h.reply(chatID, "Вы пока ничего не смотрели.", nil)
		return
	}
	var b strings.Builder
	b.WriteString("📺 Недавние просмотры:\n\n")
	for _, entry := range entries {
		if entry.Movie == nil {
			// Фильм удалён из каталога, запись истории остаётся.
			b.WriteString(fmt.Sprintf("• (фильм №%d недоступен)\n", entry.MovieID))
			continue
		}
		b.WriteString(fmt.Sprintf("• %s (%d) — /watch_%d\n", entry.Movie.Title, entry.Movie.Year, entry.Movie.ID))
	}
	h.reply(chatID, b.String(), nil)
}

func (h *Handler) handleAdminPanel(ctx context.Context, chatID, tgUserID int64) {
	if !h.sessionUC.IsAdmin(tgUserID) {
		// Не подтверждаем не-администратору существование панели.
		h.reply(chatID, "Неизвестная команда. Используйте /help", nil)
		return
	}
	stats, err := h.catalogUC.Stats(ctx)
	if err != nil {
		h.reply(chatID, "Не удалось получить статистику, попробуйте позже.", nil)
		return
	}
	h.reply(chatID, buildStatsMessage(stats), adminPanelKeyboard())
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.From == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	ackText := ""

	action, err := DecodeAction(cb.Data)
	if err != nil {
		h.log.Debug().Str("data", cb.Data).Msg("callback вне набора действий")
	}

	switch action.Kind {
	case ActionCategory:
		h.handleCategory(ctx, chatID, action.Category)
	case ActionSaveMovie:
		ackText = h.handleSave(ctx, cb.From.ID, action.MovieID)
	case ActionAdminStats:
		if h.sessionUC.IsAdmin(cb.From.ID) {
			if stats, err := h.catalogUC.Stats(ctx); err == nil {
				h.reply(chatID, buildStatsMessage(stats), adminPanelKeyboard())
			} else {
				h.reply(chatID, "Не удалось получить статистику, попробуйте позже.", nil)
			}
		}
	case ActionAdminAddMovie:
		if h.sessionUC.StartAddMovie(cb.From.ID) {
			h.reply(chatID, buildIngestPrompt(), nil)
		}
	case ActionAdminBroadcast:
		if h.sessionUC.StartBroadcast(cb.From.ID) {
			h.reply(chatID, "📢 Рассылка\n\nОтправьте текст объявления для всех пользователей:", nil)
		}
	case ActionBackMain:
		h.reply(chatID, "🏠 Главное меню", mainMenuKeyboard())
	}

	start := time.Now()
	_, err = h.bot.Request(tgbotapi.NewCallback(cb.ID, ackText))
	metrics.ObserveNetworkRequest("telegram_bot", "answer_callback", strconv.FormatInt(cb.From.ID, 10), start, err)
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось ответить на callback")
	}
}

func (h *Handler) handleCategory(ctx context.Context, chatID int64, category domain.Category) {
	movies, err := h.catalogUC.ListByCategory(ctx, category)
	if err != nil {
		h.reply(chatID, "Не удалось получить фильмы, попробуйте позже.", nil)
		return
	}
	if len(movies) == 0 {
		h.reply(chatID, "В этой категории пока нет фильмов.", nil)
		return
	}
	for _, movie := range movies {
		h.sendMovieCard(chatID, movie)
	}
}

func (h *Handler) handleSave(ctx context.Context, tgUserID, movieID int64) string {
	result, err := h.engageUC.SaveWatchLater(ctx, tgUserID, movieID)
	if err != nil {
		h.log.Error().Err(err).Int64("user", tgUserID).Int64("movie", movieID).Msg("не удалось сохранить фильм")
		return "❌ Не удалось сохранить, попробуйте позже"
	}
	if result == domain.SaveAlreadyPresent {
		return "ℹ️ Уже в списке «Смотреть позже»"
	}
	return "✅ Добавлено в «Смотреть позже»!"
}

// sendMovieCard отправляет карточку фильма: с постером, если он указан,
// и текстом при его отсутствии или ошибке отправки фотографии.
func (h *Handler) sendMovieCard(chatID int64, movie domain.Movie) {
	text := buildMovieCard(movie)
	keyboard := movieCardKeyboard(movie)

	if strings.HasPrefix(movie.PosterURL, "http") {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(movie.PosterURL))
		photo.Caption = telegram.TruncateCaption(text)
		photo.ParseMode = tgbotapi.ModeMarkdown
		photo.ReplyMarkup = keyboard
		start := time.Now()
		_, err := h.bot.Send(photo)
		metrics.ObserveNetworkRequest("telegram_bot", "send_photo", strconv.FormatInt(chatID, 10), start, err)
		if err == nil {
			return
		}
		h.log.Warn().Err(err).Int64("movie", movie.ID).Msg("постер не отправился, откатываемся на текст")
	}
	h.reply(chatID, text, keyboard)
}

func (h *Handler) sendCategoriesMenu(chatID int64) {
	h.reply(chatID, "📁 Выберите категорию:", categoriesKeyboard())
}

// reply отправляет текст, при необходимости разбивая его на части.
// Клавиатура (inline или reply) крепится только к первой части.
func (h *Handler) reply(chatID int64, text string, keyboard interface{}) {
	parts := telegram.SplitMessage(text)
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if i == 0 && keyboard != nil {
			msg.ReplyMarkup = keyboard
		}
		start := time.Now()
		_, err := h.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(chatID, 10), start, err)
		if err != nil {
			h.log.Error().Err(err).Msg("не удалось отправить сообщение")
			return
		}
	}
}
