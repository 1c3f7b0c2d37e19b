package domain

import (
	"context"
	"time"
)

// BroadcastJob содержит задачу рассылки объявления всем пользователям.
type BroadcastJob struct {
	ID          string    `json:"job_id"`
	AdminChatID int64     `json:"admin_chat_id"`
	Body        string    `json:"body"`
	RequestedAt time.Time `json:"requested_at"`
}

// BroadcastQueue описывает очередь задач рассылки.
type BroadcastQueue interface {
	Enqueue(ctx context.Context, job BroadcastJob) error
	Pop(ctx context.Context) (BroadcastJob, error)
}
