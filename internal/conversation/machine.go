package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "telegram-schedule-bot/internal/errors"
	"telegram-schedule-bot/internal/format"
	"telegram-schedule-bot/internal/logger"
	"telegram-schedule-bot/internal/metrics"
	"telegram-schedule-bot/internal/models"
)

// Places supplies the faculty list.
type Places interface {
	Places(ctx context.Context) (models.Options, error)
}

// Extractor fetches and parses the remaining site pages.
type Extractor interface {
	ListGroups(ctx context.Context, facultyLink string) (models.Options, error)
	ListTeachers(ctx context.Context, query string) (models.Options, error)
	FetchWeekSchedule(ctx context.Context, link string) (models.WeekSchedule, error)
}

// Reply is what the transport should send back: texts in order and, when
// Options is non-empty, a keyboard offering them.
type Reply struct {
	Texts          []string
	Options        []string
	RemoveKeyboard bool
}

type Options struct {
	Store   SessionStore
	Auditor Auditor
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Machine drives the selection dialog. Handle must not be called
// concurrently for the same chat.
type Machine struct {
	places  Places
	src     Extractor
	store   SessionStore
	auditor Auditor
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
	table   map[key]transition
}

type key struct {
	state models.State
	input InputClass
}

// action mutates a copy of the session; a returned error discards the copy.
type action func(ctx context.Context, s *models.Session, in Input) ([]string, error)

type transition struct {
	act  action
	next models.State // empty keeps the current state
}

var allStates = []models.State{
	models.StateIdle,
	models.StateAwaitingAck,
	models.StateModeSelect,
	models.StateFacultySelect,
	models.StateTeacherNameQuery,
	models.StateGroupSelect,
	models.StateTeacherDisambiguate,
	models.StateDaySelect,
	models.StateDone,
}

func New(places Places, src Extractor, opts Options) *Machine {
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	m := &Machine{
		places:  places,
		src:     src,
		store:   opts.Store,
		auditor: opts.Auditor,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		now:     time.Now,
	}
	m.table = m.transitions()
	return m
}

func (m *Machine) transitions() map[key]transition {
	t := map[key]transition{
		{models.StateIdle, InputFreeText}:                {m.stay, ""},
		{models.StateAwaitingAck, InputAck}:              {m.stay, models.StateModeSelect},
		{models.StateModeSelect, InputModeGroup}:         {m.chooseGroupMode, models.StateFacultySelect},
		{models.StateModeSelect, InputModeTeacher}:       {m.chooseTeacherMode, models.StateTeacherNameQuery},
		{models.StateFacultySelect, InputFreeText}:       {m.pickFaculty, models.StateGroupSelect},
		{models.StateTeacherNameQuery, InputFreeText}:    {m.searchTeacher, models.StateTeacherDisambiguate},
		{models.StateGroupSelect, InputFreeText}:         {m.pickQuery, models.StateDaySelect},
		{models.StateTeacherDisambiguate, InputFreeText}: {m.pickQuery, models.StateDaySelect},
		{models.StateDaySelect, InputDay}:                {m.showDay, models.StateDone},
		{models.StateDaySelect, InputWeek}:               {m.showWeek, models.StateDone},
		{models.StateDone, InputSame}:                    {m.stay, models.StateDaySelect},
		{models.StateDone, InputNew}:                     {m.newQuery, models.StateModeSelect},
	}
	for _, st := range allStates {
		t[key{st, InputStart}] = transition{m.start, models.StateAwaitingAck}
		t[key{st, InputCancel}] = transition{m.cancel, models.StateIdle}
		t[key{st, InputHelp}] = transition{m.help, ""}
	}
	return t
}

func (m *Machine) lookup(state models.State, class InputClass) (transition, bool) {
	if tr, ok := m.table[key{state, class}]; ok {
		return tr, true
	}
	tr, ok := m.table[key{state, InputFreeText}]
	return tr, ok
}

// Handle processes one inbound message. Dialog failures are turned into a
// reply that leaves the stored session untouched; only session store errors
// are returned.
func (m *Machine) Handle(ctx context.Context, chatID int64, text string) (Reply, error) {
	log := logger.FromContext(ctx, m.logger).With(zap.Int64("chat_id", chatID))

	sess, err := m.store.Get(ctx, chatID)
	switch {
	case errors.Is(err, appErrors.ErrNotFound):
		sess = models.NewSession(chatID)
	case err != nil:
		return Reply{}, fmt.Errorf("load session %d: %w", chatID, err)
	}

	in := Classify(text)
	tr, ok := m.lookup(sess.State, in.Class)
	if !ok {
		return m.reject(log, sess, in, appErrors.ErrInvalidSelection), nil
	}

	next := sess.Clone()
	texts, err := tr.act(ctx, next, in)
	if err != nil {
		return m.reject(log, sess, in, err), nil
	}
	if tr.next != "" {
		next.State = tr.next
	}
	next.UpdatedAt = m.now()

	if next.State == models.StateIdle {
		err = m.store.Delete(ctx, chatID)
	} else {
		err = m.store.Save(ctx, next)
	}
	if err != nil {
		return Reply{}, fmt.Errorf("save session %d: %w", chatID, err)
	}

	m.metrics.RecordTransition(string(sess.State), string(next.State))
	log.Debug("transition",
		zap.String("from", string(sess.State)),
		zap.String("to", string(next.State)),
		zap.String("input", string(in.Class)))

	reply := prompt(next)
	reply.Texts = append(texts, reply.Texts...)
	return reply, nil
}

func (m *Machine) reject(log *zap.Logger, sess *models.Session, in Input, err error) Reply {
	var reason, notice string
	switch {
	case errors.Is(err, appErrors.ErrInvalidSelection):
		reason, notice = "invalid_selection", msgInvalid
	case errors.Is(err, appErrors.ErrNotFound):
		reason, notice = "not_found", msgNotFound
	case appErrors.Unavailable(err):
		reason, notice = "unavailable", msgUnavailable
		log.Warn("schedule source failed", zap.String("state", string(sess.State)), zap.Error(err))
	default:
		reason, notice = "unavailable", msgUnavailable
		log.Error("unexpected dialog failure", zap.String("state", string(sess.State)), zap.Error(err))
	}

	m.metrics.RecordRejection(string(sess.State), reason)
	log.Debug("input rejected",
		zap.String("state", string(sess.State)),
		zap.String("input", string(in.Class)),
		zap.String("reason", reason))

	reply := prompt(sess)
	reply.Texts = append([]string{notice}, reply.Texts...)
	return reply
}

func (m *Machine) audit(ctx context.Context, record string, fn func(Auditor) error) {
	if m.auditor == nil {
		return
	}
	if err := fn(m.auditor); err != nil {
		logger.FromContext(ctx, m.logger).Warn("audit write failed", zap.String("record", record), zap.Error(err))
	}
}

// ---------- actions ---------------------------------------------------------

func (m *Machine) stay(ctx context.Context, s *models.Session, in Input) ([]string, error) {
	return nil, nil
}

func (m *Machine) start(ctx context.Context, s *models.Session, in Input) ([]string, error) {
	*s = *models.NewSession(s.ChatID)
	return nil, nil
}

func (m *Machine) cancel(ctx context.Context, s *models.Session, in Input) ([]string, error) {
	*s = *models.NewSession(s.ChatID)
	return []string{msgBye}, nil
}

func (m *Machine) help(ctx context.Context, s *models.Session, in Input) ([]string, error) {
	return []string{msgHelp}, nil
}

func (m *Machine) chooseGroupMode(ctx context.Context, s *models.Session, in Input) ([]string, error) {
	places, err := m.places.Places(ctx)
	if err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, appErrors.ErrNotFound
	}
	m.audit(ctx, "places", func(a Auditor) error { return a.RecordPlaces(ctx, places) })

	s.Mode = models.ModeGroup
	s.Options = places
	return nil, nil
}

func (m *Machine) chooseTeacherMode(ctx context.Context, s *models.Session, in Input) ([]string, error) {
	s.Mode = models.ModeTeacher
	s.Options = nil
	return nil, nil
}

func (m *Machine) pickFaculty(ctx context.Context, s *models.Session, in Input) ([]string, error) {
	link, ok := s.Options.Lookup(in.Text)
	if !ok {
		return nil, appErrors.ErrInvalidSelection
	}

	groups, err := m.src.ListGroups(ctx, link)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, appErrors.ErrNotFound
	}
	m.audit(ctx, "groups", func(a Auditor) error { return a.RecordGroups(ctx, link, groups) })

	s.PlaceLink, s.PlaceName = link, in.Text
	s.Options = groups
	return []string{"Выбранный факультет: " + in.Text}, nil
}

func (m *Machine) searchTeacher(ctx context.Context, s *models.Session, in Input) ([]string, error) {
	if in.Text == "" {
		return nil, appErrors.ErrInvalidSelection
	}

	teachers, err := m.src.ListTeachers(ctx, in.Text)
	if err != nil {
		return nil, err
	}
	if len(teachers) == 0 {
		return nil, appErrors.ErrNotFound
	}
	m.audit(ctx, "teachers", func(a Auditor) error { return a.RecordTeachers(ctx, teachers) })

	s.Options = teachers
	return nil, nil
}

// pickQuery resolves a group or a teacher to the schedule page to show.
func (m *Machine) pickQuery(ctx context.Context, s *models.Session, in Input) ([]string, error) {
	link, ok := s.Options.Lookup(in.Text)
	if !ok {
		return nil, appErrors.ErrInvalidSelection
	}

	s.QueryLink, s.QueryName = link, in.Text
	s.Options = nil
	if s.Mode == models.ModeTeacher {
		return []string{"Выбранный преподаватель: " + in.Text}, nil
	}
	return []string{"Выбранная группа: " + in.Text}, nil
}

func (m *Machine) fetchWeek(ctx context.Context, s *models.Session) (models.WeekSchedule, error) {
	week, err := m.src.FetchWeekSchedule(ctx, s.QueryLink)
	if err != nil {
		return nil, err
	}
	m.audit(ctx, "schedule", func(a Auditor) error { return a.RecordSchedule(ctx, s.QueryLink, week) })
	return week, nil
}

func (m *Machine) showDay(ctx context.Context, s *models.Session, in Input) ([]string, error) {
	week, err := m.fetchWeek(ctx, s)
	if err != nil {
		return nil, err
	}
	return []string{msgSchedule, s.QueryName + ", " + in.Day + "\n\n" + format.Day(week[in.Day])}, nil
}

func (m *Machine) showWeek(ctx context.Context, s *models.Session, in Input) ([]string, error) {
	week, err := m.fetchWeek(ctx, s)
	if err != nil {
		return nil, err
	}
	return []string{msgSchedule, s.QueryName + "\n\n" + format.Week(week)}, nil
}

func (m *Machine) newQuery(ctx context.Context, s *models.Session, in Input) ([]string, error) {
	s.Mode = models.ModeNone
	s.PlaceLink, s.PlaceName = "", ""
	s.QueryLink, s.QueryName = "", ""
	s.Options = nil
	return nil, nil
}
