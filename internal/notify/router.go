package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Router sends email kinds through mail and push kinds through push.
type Router struct {
	mail Sender
	push Sender
}

func NewRouter(mail, push Sender) *Router {
	return &Router{mail: mail, push: push}
}

func (r *Router) Send(ctx context.Context, msg Message) bool {
	if msg.Kind.Push() {
		return r.push.Send(ctx, msg)
	}
	return r.mail.Send(ctx, msg)
}

// LogPush stands in for a mobile push provider and records the event.
type LogPush struct {
	log *slog.Logger
}

func NewLogPush(log *slog.Logger) *LogPush {
	return &LogPush{log: log}
}

func (p *LogPush) Send(_ context.Context, msg Message) bool {
	attrs := []any{
		slog.String("kind", string(msg.Kind)),
		slog.String("recipient_id", msg.Recipient.UserID.String()),
	}
	if msg.Game != nil {
		attrs = append(attrs, slog.String("game_id", msg.Game.ID.String()))
	}
	if id, ok := msg.Data["booking_id"].(uuid.UUID); ok {
		attrs = append(attrs, slog.String("booking_id", id.String()))
	}

	p.log.Info("push notification", attrs...)
	return true
}
