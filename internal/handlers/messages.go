package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"telegram-schedule-bot/internal/conversation"
	"telegram-schedule-bot/internal/format"
	"telegram-schedule-bot/internal/logger"
)

// maxMessageLen is Telegram's limit on a text message.
const maxMessageLen = 4096

const msgInternalError = "Что-то пошло не так. Попробуй ещё раз."

func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	log := logger.FromContext(ctx, h.Logger).With(zap.Int64("chat_id", msg.Chat.ID))

	text, ok := h.inputText(msg)
	if !ok {
		return
	}

	reply, err := h.Dialog.Handle(ctx, msg.Chat.ID, text)
	if err != nil {
		log.Error("dialog failed", zap.Error(err))
		reply = conversation.Reply{Texts: []string{msgInternalError}}
	}

	if err := h.send(msg.Chat.ID, reply); err != nil {
		log.Warn("send reply failed", zap.Error(err))
		return
	}
	log.Info("message handled", zap.String("chat_type", msg.Chat.Type), zap.Int("replies", len(reply.Texts)))
}

// send delivers the reply texts in order; the keyboard goes with the last one.
func (h *Handler) send(chatID int64, reply conversation.Reply) error {
	var chunks []string
	for _, t := range reply.Texts {
		chunks = append(chunks, format.Split(t, maxMessageLen)...)
	}

	for i, text := range chunks {
		msg := tgbotapi.NewMessage(chatID, text)
		if i == len(chunks)-1 {
			if kb := buildKeyboard(reply); kb != nil {
				msg.ReplyMarkup = kb
			}
		}
		if _, err := h.Bot.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

// buildKeyboard puts every option on its own row. nil leaves the current
// keyboard as it is.
func buildKeyboard(reply conversation.Reply) interface{} {
	if len(reply.Options) > 0 {
		rows := make([][]tgbotapi.KeyboardButton, 0, len(reply.Options))
		for _, opt := range reply.Options {
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(opt)))
		}
		kb := tgbotapi.NewReplyKeyboard(rows...)
		kb.OneTimeKeyboard = true
		kb.ResizeKeyboard = true
		return kb
	}
	if reply.RemoveKeyboard {
		return tgbotapi.NewRemoveKeyboard(false)
	}
	return nil
}
