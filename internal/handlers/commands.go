package handlers

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// inputText turns a message into what the dialog expects. Commands lose
// their @botname suffix and arguments; ok is false for messages that are
// not for this bot.
func (h *Handler) inputText(msg *tgbotapi.Message) (string, bool) {
	if !msg.IsCommand() {
		text := strings.TrimSpace(msg.Text)
		return text, text != ""
	}

	if _, at, found := strings.Cut(msg.CommandWithAt(), "@"); found && h.BotName != "" && !strings.EqualFold(at, h.BotName) {
		return "", false
	}
	return "/" + msg.Command(), true
}
