package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"telegram-schedule-bot/internal/logger"
	"telegram-schedule-bot/internal/models"
)

// HandleMembership records the bot being added to, promoted in or removed
// from a chat.
func (h *Handler) HandleMembership(ctx context.Context, upd *tgbotapi.ChatMemberUpdated) {
	if h.Chats == nil {
		return
	}
	log := logger.FromContext(ctx, h.Logger)

	title := upd.Chat.Title
	if title == "" {
		title = upd.Chat.UserName
	}
	chat := models.Chat{
		ChatID:    upd.Chat.ID,
		Type:      upd.Chat.Type,
		Title:     title,
		Status:    upd.NewChatMember.Status,
		UpdatedAt: int64(upd.Date),
	}
	if err := h.Chats.UpsertChat(ctx, chat); err != nil {
		log.Warn("chat membership not saved", zap.Int64("chat_id", chat.ChatID), zap.Error(err))
		return
	}
	log.Info("chat membership changed",
		zap.Int64("chat_id", chat.ChatID),
		zap.String("from", upd.OldChatMember.Status),
		zap.String("to", chat.Status))
}
