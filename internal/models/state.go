package models

import "time"

type State string

const (
	StateIdle                State = "idle"
	StateAwaitingAck         State = "awaiting_ack"
	StateModeSelect          State = "mode_select"
	StateFacultySelect       State = "faculty_select"
	StateTeacherNameQuery    State = "teacher_name_query"
	StateGroupSelect         State = "group_select"
	StateTeacherDisambiguate State = "teacher_disambiguate"
	StateDaySelect           State = "day_select"
	StateDone                State = "done"
)

type Mode string

const (
	ModeNone    Mode = ""
	ModeGroup   Mode = "group"
	ModeTeacher Mode = "teacher"
)

// Session is the per-chat conversation context.
type Session struct {
	ChatID    int64
	State     State
	Mode      Mode
	PlaceLink string // faculty page, group mode only
	PlaceName string
	QueryLink string // resolved group or teacher schedule page
	QueryName string
	Options   Options // last offered set, used to validate the next input
	UpdatedAt time.Time
}

func NewSession(chatID int64) *Session {
	return &Session{ChatID: chatID, State: StateIdle}
}

func (s *Session) Clone() *Session {
	cp := *s
	cp.Options = s.Options.Clone()
	return &cp
}
