package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tg-movie-bot/internal/domain"
)

// ErrUnknownAction возвращается для callback-данных вне закрытого набора действий.
var ErrUnknownAction = errors.New("неизвестное действие")

// ActionKind — закрытый набор действий инлайн-кнопок. Данные callback'а
// декодируются один раз на границе транспорта и дальше диспетчеризуются
// по явному switch, без сопоставления префиксов по подстрокам.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionCategory
	ActionSaveMovie
	ActionAdminStats
	ActionAdminAddMovie
	ActionAdminBroadcast
	ActionBackMain
)

// Action — декодированное действие инлайн-кнопки.
type Action struct {
	Kind     ActionKind
	Category domain.Category
	MovieID  int64
}

// EncodeCategory кодирует кнопку категории.
func EncodeCategory(category domain.Category) string {
	return "category:" + string(category)
}

// EncodeSave кодирует кнопку сохранения фильма.
func EncodeSave(movieID int64) string {
	return fmt.Sprintf("save:%d", movieID)
}

const (
	dataAdminStats     = "admin:stats"
	dataAdminAddMovie  = "admin:add_movie"
	dataAdminBroadcast = "admin:broadcast"
	dataBackMain       = "menu:main"
)

// DecodeAction разбирает callback-данные в типизированное действие.
func DecodeAction(data string) (Action, error) {
	switch data {
	case dataAdminStats:
		return Action{Kind: ActionAdminStats}, nil
	case dataAdminAddMovie:
		return Action{Kind: ActionAdminAddMovie}, nil
	case dataAdminBroadcast:
		return Action{Kind: ActionAdminBroadcast}, nil
	case dataBackMain:
		return Action{Kind: ActionBackMain}, nil
	}
	kind, payload, found := strings.Cut(data, ":")
	if !found {
		return Action{}, fmt.Errorf("%w: %s", ErrUnknownAction, data)
	}
	switch kind {
	case "category":
		return Action{Kind: ActionCategory, Category: domain.Category(payload)}, nil
	case "save":
		id, err := strconv.ParseInt(payload, 10, 64)
		if err != nil || id <= 0 {
			return Action{}, fmt.Errorf("%w: %s", ErrUnknownAction, data)
		}
		return Action{Kind: ActionSaveMovie, MovieID: id}, nil
	default:
		return Action{}, fmt.Errorf("%w: %s", ErrUnknownAction, data)
	}
}
