package conversation

import (
	"telegram-schedule-bot/internal/models"
)

const (
	msgIntro = "Привет! Этот бот показывает расписание с сайта СГУ.\n" +
		"Данные берутся прямо с сайта, поэтому иногда он может быть недоступен.\n" +
		"Для отмены используй /cancel."
	msgAskMode    = "Как искать расписание: по группе или по преподавателю?"
	msgAskFaculty = "Выбери факультет."
	msgAskTeacher = "Введи фамилию преподавателя."
	msgAskGroup   = "Выбери группу."
	msgPickTeach  = "Выбери преподавателя из списка."
	msgAskDay     = "Выбери день или всю неделю."
	msgAskNext    = "Показать другой день или начать заново?"
	msgIdle       = "Чтобы начать, отправь /start."

	msgBye         = "До встречи!"
	msgUnavailable = "Сайт с расписанием сейчас недоступен. Отправь сообщение ещё раз чуть позже."
	msgInvalid     = "Такого варианта нет в списке."
	msgNotFound    = "Ничего не найдено."
	msgSchedule    = "Спасибо за обращение. Расписание:"

	msgHelp = "/start - начать заново\n" +
		"/cancel - отменить текущий запрос\n" +
		"/help - эта справка\n\n" +
		"«ещё» повторяет выбор дня для той же группы или преподавателя, «заново» начинает новый поиск."
)

// prompt is what a state asks for, together with the labels it accepts.
func prompt(s *models.Session) Reply {
	switch s.State {
	case models.StateAwaitingAck:
		return Reply{Texts: []string{msgIntro}, Options: []string{KeyAck}}
	case models.StateModeSelect:
		return Reply{Texts: []string{msgAskMode}, Options: []string{KeyGroup, KeyTeacher}}
	case models.StateFacultySelect:
		return Reply{Texts: []string{msgAskFaculty}, Options: s.Options.Names()}
	case models.StateTeacherNameQuery:
		return Reply{Texts: []string{msgAskTeacher}, RemoveKeyboard: true}
	case models.StateGroupSelect:
		return Reply{Texts: []string{msgAskGroup}, Options: s.Options.Names()}
	case models.StateTeacherDisambiguate:
		return Reply{Texts: []string{msgPickTeach}, Options: s.Options.Names()}
	case models.StateDaySelect:
		return Reply{Texts: []string{msgAskDay}, Options: dayOptions()}
	case models.StateDone:
		return Reply{Texts: []string{msgAskNext}, Options: []string{KeySame, KeyNew}}
	default:
		return Reply{Texts: []string{msgIdle}, RemoveKeyboard: true}
	}
}

func dayOptions() []string {
	return append(append(make([]string, 0, len(models.Days)+1), models.Days...), KeyWeek)
}
