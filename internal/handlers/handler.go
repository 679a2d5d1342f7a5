package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"telegram-schedule-bot/internal/conversation"
	"telegram-schedule-bot/internal/logger"
	"telegram-schedule-bot/internal/models"
)

// Sender is the part of tgbotapi.BotAPI the handler needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Dialog answers one inbound message of a chat.
type Dialog interface {
	Handle(ctx context.Context, chatID int64, text string) (conversation.Reply, error)
}

// ChatRecorder keeps track of chats the bot was added to or removed from.
type ChatRecorder interface {
	UpsertChat(ctx context.Context, c models.Chat) error
}

type Handler struct {
	Bot     Sender
	Dialog  Dialog
	Chats   ChatRecorder
	BotName string // without @, used to skip commands meant for other bots
	Logger  *zap.Logger
}

func NewHandler(bot Sender, dialog Dialog, chats ChatRecorder, botName string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Bot: bot, Dialog: dialog, Chats: chats, BotName: botName, Logger: log}
}

// Listen feeds updates through a per-chat dispatcher until ctx is done or
// the channel is closed, then waits for in-flight updates.
func (h *Handler) Listen(ctx context.Context, updates <-chan tgbotapi.Update) {
	work := context.WithoutCancel(ctx)
	d := NewDispatcher(h.HandleUpdate)
	defer d.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			d.Dispatch(work, upd)
		}
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	log := h.Logger.With(zap.String("trace_id", uuid.NewString()), zap.Int("update_id", upd.UpdateID))
	ctx = logger.WithContext(ctx, log)

	defer func() {
		if r := recover(); r != nil {
			log.Error("update handler panicked", zap.Any("panic", r))
		}
	}()

	switch {
	case upd.MyChatMember != nil:
		h.HandleMembership(ctx, upd.MyChatMember)
	case upd.Message != nil:
		h.HandleMessage(ctx, upd.Message)
	}
}
