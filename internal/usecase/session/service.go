package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tg-movie-bot/internal/domain"
	"tg-movie-bot/internal/usecase/catalog"
)

// Flow — вид открытого админского флоу. Одно перечислимое значение на
// пользователя исключает одновременное ожидание двух payload'ов по построению.
type Flow int

const (
	// FlowNone — открытого флоу нет.
	FlowNone Flow = iota
	// FlowAddMovie — ожидается payload добавления фильма.
	FlowAddMovie
	// FlowBroadcast — ожидается текст рассылки.
	FlowBroadcast
)

type flowState struct {
	flow      Flow
	startedAt time.Time
}

// TextResult — исход обработки свободного текста машиной состояний.
type TextResult int

const (
	// ResultNotConsumed — у пользователя нет открытого флоу, текст не потреблён.
	ResultNotConsumed TextResult = iota
	// ResultMovieAdded — фильм добавлен, состояние сброшено.
	ResultMovieAdded
	// ResultValidationError — payload некорректен, состояние сохранено для повтора.
	ResultValidationError
	// ResultBroadcastQueued — рассылка поставлена в очередь, состояние сброшено.
	ResultBroadcastQueued
	// ResultStoreError — ошибка хранилища, состояние сброшено.
	ResultStoreError
	// ResultQueueError — ошибка постановки рассылки, состояние сброшено.
	ResultQueueError
)

// TextOutcome описывает результат HandleText для слоя представления.
type TextOutcome struct {
	Result TextResult
	Movie  domain.Movie
	Err    error
}

// Consumed сообщает, потребила ли машина состояний сообщение.
func (o TextOutcome) Consumed() bool {
	return o.Result != ResultNotConsumed
}

// Service хранит открытые флоу администраторов и маршрутизирует их payload'ы.
// Состояние живёт в памяти процесса: доставка апдейтов одного чата сериализована
// транспортом, конкурируют только разные пользователи.
type Service struct {
	mu      sync.Mutex
	flows   map[int64]flowState
	admins  map[int64]struct{}
	catalog *catalog.Service
	queue   domain.BroadcastQueue
	log     zerolog.Logger
}

// NewService создаёт машину состояний с allow-list администраторов.
func NewService(adminIDs []int64, catalogUC *catalog.Service, queue domain.BroadcastQueue, log zerolog.Logger) *Service {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Service{
		flows:   make(map[int64]flowState),
		admins:  admins,
		catalog: catalogUC,
		queue:   queue,
		log:     log,
	}
}

// IsAdmin — единая проверка привилегий для всех админских переходов.
func (s *Service) IsAdmin(tgUserID int64) bool {
	_, ok := s.admins[tgUserID]
	return ok
}

// ActiveFlow возвращает открытый флоу пользователя.
func (s *Service) ActiveFlow(tgUserID int64) Flow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flows[tgUserID].flow
}

// StartAddMovie открывает флоу добавления фильма. Для не-администратора
// молча возвращает false: переход не выполняется и не подтверждается.
func (s *Service) StartAddMovie(tgUserID int64) bool {
	return s.start(tgUserID, FlowAddMovie)
}

// StartBroadcast открывает флоу составления рассылки.
func (s *Service) StartBroadcast(tgUserID int64) bool {
	return s.start(tgUserID, FlowBroadcast)
}

func (s *Service) start(tgUserID int64, flow Flow) bool {
	if !s.IsAdmin(tgUserID) {
		return false
	}
	s.mu.Lock()
	// Новый флоу замещает прежний: состояние — не стек.
	s.flows[tgUserID] = flowState{flow: flow, startedAt: time.Now().UTC()}
	s.mu.Unlock()
	return true
}

func (s *Service) clear(tgUserID int64) {
	s.mu.Lock()
	delete(s.flows, tgUserID)
	s.mu.Unlock()
}

// HandleText классифицирует свободный текст пользователя. Если открытого флоу
// нет, текст не потребляется и уходит в обычную маршрутизацию команд.
func (s *Service) HandleText(ctx context.Context, tgUserID, chatID int64, text string) TextOutcome {
	// Пустой текст приходит от нетекстовых сообщений (стикер, фото).
	// Payload'ом флоу он не считается: состояние остаётся открытым.
	if strings.TrimSpace(text) == "" {
		return TextOutcome{Result: ResultNotConsumed}
	}

	s.mu.Lock()
	state := s.flows[tgUserID]
	s.mu.Unlock()

	switch state.flow {
	case FlowAddMovie:
		return s.finishAddMovie(ctx, tgUserID, text)
	case FlowBroadcast:
		return s.finishBroadcast(ctx, tgUserID, chatID, text)
	default:
		return TextOutcome{Result: ResultNotConsumed}
	}
}

func (s *Service) finishAddMovie(ctx context.Context, tgUserID int64, text string) TextOutcome {
	movie, err := s.catalog.Ingest(ctx, tgUserID, text)
	if err != nil {
		if catalog.IsValidationError(err) {
			// Единственный переход, где неудача не съедает состояние:
			// админ может прислать исправленный payload.
			return TextOutcome{Result: ResultValidationError, Err: err}
		}
		s.clear(tgUserID)
		s.log.Error().Err(err).Int64("admin", tgUserID).Msg("не удалось сохранить фильм")
		return TextOutcome{Result: ResultStoreError, Err: err}
	}
	s.clear(tgUserID)
	return TextOutcome{Result: ResultMovieAdded, Movie: movie}
}

func (s *Service) finishBroadcast(ctx context.Context, tgUserID, chatID int64, text string) TextOutcome {
	// Любой непустой текст — валидное тело; состояние сбрасывается
	// независимо от исхода постановки в очередь.
	s.clear(tgUserID)
	job := domain.BroadcastJob{
		ID:          uuid.New().String(),
		AdminChatID: chatID,
		Body:        text,
		RequestedAt: time.Now().UTC(),
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.log.Error().Err(err).Int64("admin", tgUserID).Msg("не удалось поставить рассылку в очередь")
		return TextOutcome{Result: ResultQueueError, Err: err}
	}
	return TextOutcome{Result: ResultBroadcastQueued}
}
