package conversation

import (
	"strconv"
	"strings"

	"telegram-schedule-bot/internal/models"
)

// InputClass is the closed set of message kinds the transition table keys on.
type InputClass string

const (
	InputFreeText    InputClass = "free_text"
	InputStart       InputClass = "start"
	InputCancel      InputClass = "cancel"
	InputHelp        InputClass = "help"
	InputAck         InputClass = "ack"
	InputModeGroup   InputClass = "mode_group"
	InputModeTeacher InputClass = "mode_teacher"
	InputSame        InputClass = "same"
	InputNew         InputClass = "new"
	InputDay         InputClass = "day"
	InputWeek        InputClass = "week"
)

// Reply keyboard labels.
const (
	KeyAck     = "Понятно"
	KeyGroup   = "Группа"
	KeyTeacher = "Преподаватель"
	KeySame    = "ещё"
	KeyNew     = "заново"
	KeyWeek    = "неделя"
)

var keywords = map[string]InputClass{
	"/start":   InputStart,
	"/cancel":  InputCancel,
	"/help":    InputHelp,
	KeyAck:     InputAck,
	KeyGroup:   InputModeGroup,
	KeyTeacher: InputModeTeacher,
	KeySame:    InputSame,
	KeyNew:     InputNew,
	KeyWeek:    InputWeek,
}

// Input is a classified user message. Day is set for InputDay only.
type Input struct {
	Class InputClass
	Text  string
	Day   string
}

// Classify resolves a message to its InputClass. Matching is exact; a day may
// be given by name or by its number 1..6.
func Classify(text string) Input {
	text = strings.TrimSpace(text)
	in := Input{Class: InputFreeText, Text: text}

	if class, ok := keywords[text]; ok {
		in.Class = class
		return in
	}
	if _, ok := models.DayIndex(text); ok {
		in.Class, in.Day = InputDay, text
		return in
	}
	if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(models.Days) {
		in.Class, in.Day = InputDay, models.Days[n-1]
	}
	return in
}
