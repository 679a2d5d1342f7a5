package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	appErrors "telegram-schedule-bot/internal/errors"
	"telegram-schedule-bot/internal/models"
)

// markup of the schedule site
const (
	placeContainer = "div.panes_item__type_group"
	scheduleTable  = "table#schedule"
	schedulePath   = "/schedule/"
	groupLinkParts = 5

	classWeek    = "l-pr-r"
	classType    = "l-pr-t"
	classOther   = "l-pr-g"
	className    = "l-dn"
	classTeacher = "l-tn"
	classPlace   = "l-p"

	teacherTagLen = 2
)

var weekMarkers = map[string]models.WeekParity{
	"чис.":  models.WeekEven,
	"знам.": models.WeekOdd,
	"":      models.WeekEvery,
}

var typeMarkers = map[string]models.SubjectType{
	"лек.": models.TypeLecture,
	"пр.":  models.TypePractice,
	"":     models.TypeUnspecified,
}

func mismatch(format string, args ...any) error {
	return appErrors.Wrap(appErrors.ErrParseShapeMismatch, nil, fmt.Sprintf(format, args...))
}

func document(page []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrParseShapeMismatch, err, "html")
	}
	return doc, nil
}

func text(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}

// ParseWeekMarker maps the week-parity marker of an entry.
func ParseWeekMarker(marker string) (models.WeekParity, error) {
	w, ok := weekMarkers[marker]
	if !ok {
		return 0, mismatch("unknown week marker %q", marker)
	}
	return w, nil
}

// ParseTypeMarker maps the lesson type marker of an entry.
func ParseTypeMarker(marker string) (models.SubjectType, error) {
	t, ok := typeMarkers[marker]
	if !ok {
		return 0, mismatch("unknown type marker %q", marker)
	}
	return t, nil
}

// ParsePlaces reads the faculty listing of the schedule index page.
// A page without the listing yields an empty set. Items without a label are
// skipped.
func ParsePlaces(page []byte) (models.Options, error) {
	doc, err := document(page)
	if err != nil {
		return nil, err
	}

	places := models.Options{}
	container := doc.Find(placeContainer).First()
	if container.Length() == 0 {
		return places, nil
	}

	var perr error
	container.Find("li").EachWithBreak(func(i int, li *goquery.Selection) bool {
		a := li.Find("a").First()
		href, ok := a.Attr("href")
		if !ok {
			perr = mismatch("faculty item %d has no link", i)
			return false
		}
		if name := text(a); name != "" {
			places.Put(name, href)
		}
		return true
	})
	if perr != nil {
		return nil, perr
	}
	return places, nil
}

// ParseGroups collects group links of a faculty page. Only links shaped like
// /schedule/<faculty>/<form>/<group> are taken, the rest is page navigation.
// Links without a label cannot be chosen and are skipped.
func ParseGroups(page []byte) (models.Options, error) {
	doc, err := document(page)
	if err != nil {
		return nil, err
	}

	groups := models.Options{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, schedulePath) || len(strings.Split(href, "/")) != groupLinkParts {
			return
		}
		if name := text(a); name != "" {
			groups.Put(name, href)
		}
	})
	return groups, nil
}

type teacherRecord struct {
	FIO string          `json:"fio"`
	ID  json.RawMessage `json:"id"`
}

// ParseTeachers decodes the teacher search answer and strips the type tag
// from every id.
func ParseTeachers(raw []byte) ([]models.Teacher, error) {
	var records []teacherRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrParseShapeMismatch, err, "teacher search")
	}

	teachers := make([]models.Teacher, 0, len(records))
	for i, r := range records {
		id, err := recordID(r.ID)
		if err != nil {
			return nil, mismatch("teacher %d: %v", i, err)
		}
		tagged := []rune(id)
		if len(tagged) <= teacherTagLen {
			return nil, mismatch("teacher %d: id %q too short", i, id)
		}
		fio := strings.TrimSpace(r.FIO)
		if fio == "" {
			return nil, mismatch("teacher %d: empty name", i)
		}
		teachers = append(teachers, models.Teacher{FIO: fio, ID: string(tagged[teacherTagLen:])})
	}
	return teachers, nil
}

// recordID accepts a JSON string or number only.
func recordID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("missing id")
	}
	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case c == '-' || (c >= '0' && c <= '9'):
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", err
		}
		return n.String(), nil
	}
	return "", fmt.Errorf("id %s is neither a string nor a number", raw)
}

// ParseWeekSchedule reads the schedule table of a group or teacher page.
// Either the whole week is returned or an ErrParseShapeMismatch.
func ParseWeekSchedule(page []byte) (models.WeekSchedule, error) {
	doc, err := document(page)
	if err != nil {
		return nil, err
	}

	table := doc.Find(scheduleTable).First()
	if table.Length() == 0 {
		return nil, mismatch("schedule table not found")
	}

	rows := table.Find("tr")
	if rows.Length() == 0 {
		return nil, mismatch("schedule table has no rows")
	}
	rows = rows.Slice(1, goquery.ToEnd) // header
	if rows.Length() != models.SlotCount {
		return nil, mismatch("schedule table has %d period rows, want %d", rows.Length(), models.SlotCount)
	}

	week := make(models.WeekSchedule, len(models.Days))
	for _, day := range models.Days {
		week[day] = models.DaySchedule{}
	}

	for slot := 0; slot < models.SlotCount; slot++ {
		cells := rows.Eq(slot).Find("td")
		if cells.Length() < len(models.Days) {
			return nil, mismatch("period %d has %d day cells", slot+1, cells.Length())
		}
		for d, day := range models.Days {
			subjects, err := parseCell(cells.Eq(d))
			if err != nil {
				return nil, fmt.Errorf("%s, period %d: %w", day, slot+1, err)
			}
			ds := week[day]
			ds[slot] = subjects
			week[day] = ds
		}
	}
	return week, nil
}

func parseCell(cell *goquery.Selection) ([]models.Subject, error) {
	var (
		subjects []models.Subject
		perr     error
	)
	cell.ChildrenFiltered("div").EachWithBreak(func(_ int, entry *goquery.Selection) bool {
		s, err := parseSubject(entry)
		if err != nil {
			perr = err
			return false
		}
		subjects = append(subjects, s)
		return true
	})
	if perr != nil {
		return nil, perr
	}
	return subjects, nil
}

func parseSubject(entry *goquery.Selection) (models.Subject, error) {
	fields := make(map[string]string, 6)
	for _, class := range []string{classWeek, classType, classOther, className, classTeacher, classPlace} {
		sel := entry.Find("div." + class).First()
		if sel.Length() == 0 {
			return models.Subject{}, mismatch("entry without .%s", class)
		}
		fields[class] = text(sel)
	}

	week, err := ParseWeekMarker(fields[classWeek])
	if err != nil {
		return models.Subject{}, err
	}
	typ, err := ParseTypeMarker(fields[classType])
	if err != nil {
		return models.Subject{}, err
	}

	return models.Subject{
		Name:    fields[className],
		Teacher: fields[classTeacher],
		Place:   fields[classPlace],
		Other:   fields[classOther],
		Type:    typ,
		Week:    week,
	}, nil
}
