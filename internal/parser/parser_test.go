package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "telegram-schedule-bot/internal/errors"
	"telegram-schedule-bot/internal/models"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return b
}

func entryHTML(week, typ, other, name, teacher, place string) string {
	return fmt.Sprintf(`<div class="l"><div class="l-pr"><div class="l-pr-r">%s</div><div class="l-pr-t">%s</div><div class="l-pr-g">%s</div></div>`+
		`<div class="l-dn">%s</div><div class="l-tn">%s</div><div class="l-p">%s</div></div>`,
		week, typ, other, name, teacher, place)
}

// schedulePage renders a schedule table with rows period rows; cell returns
// the inner html of the td for a period and weekday.
func schedulePage(rows int, cell func(slot, day int) string) []byte {
	var b strings.Builder
	b.WriteString(`<html><body><table id="schedule"><tr><th></th>`)
	for _, d := range models.Days {
		b.WriteString("<th>" + d + "</th>")
	}
	b.WriteString("</tr>")
	for slot := 0; slot < rows; slot++ {
		fmt.Fprintf(&b, "<tr><th>%d</th>", slot+1)
		for day := range models.Days {
			b.WriteString("<td>" + cell(slot, day) + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table></body></html>")
	return []byte(b.String())
}

func TestParsePlaces(t *testing.T) {
	places, err := ParsePlaces(readFixture(t, "index.html"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Биологический факультет",
		"Факультет компьютерных наук и информационных технологий",
		"Механико-математический факультет",
		"Физический факультет",
	}, places.Names())
	link, ok := places.Lookup("Механико-математический факультет")
	require.True(t, ok)
	assert.Equal(t, "/schedule/mm", link)
}

func TestParsePlacesWithoutContainerIsEmpty(t *testing.T) {
	places, err := ParsePlaces([]byte(`<html><body><p>Сайт на обслуживании</p></body></html>`))
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestParsePlacesItemWithoutLink(t *testing.T) {
	page := `<div class="panes_item__type_group"><ul><li><span>нет ссылки</span></li></ul></div>`
	_, err := ParsePlaces([]byte(page))
	assert.True(t, errors.Is(err, appErrors.ErrParseShapeMismatch))
}

func TestParseGroupsKeepsOnlyGroupLinks(t *testing.T) {
	groups, err := ParseGroups(readFixture(t, "faculty.html"))
	require.NoError(t, err)

	assert.Equal(t, []string{"141", "151", "241", "341", "311"}, groups.Names())
	link, _ := groups.Lookup("311")
	assert.Equal(t, "/schedule/knt/zo/311", link)
}

func TestParseGroupsDuplicateNameLastLinkWins(t *testing.T) {
	page := `<a href="/schedule/knt/do/341">341</a><a href="/schedule/knt/do/351">351</a><a href="/schedule/knt/zo/341">341</a>`
	groups, err := ParseGroups([]byte(page))
	require.NoError(t, err)

	assert.Equal(t, []string{"341", "351"}, groups.Names())
	link, _ := groups.Lookup("341")
	assert.Equal(t, "/schedule/knt/zo/341", link)
}

func TestParseGroupsSkipsUnlabelledLinks(t *testing.T) {
	page := `<a href="/schedule/knt/do/341"><img src="/logo.png"></a><a href="/schedule/knt/do/351">351</a><a href="/schedule/knt/do/361">  </a>`
	groups, err := ParseGroups([]byte(page))
	require.NoError(t, err)

	assert.Equal(t, []string{"351"}, groups.Names())
	_, ok := groups.Lookup("")
	assert.False(t, ok)
}

func TestParsePlacesSkipsUnlabelledItems(t *testing.T) {
	page := `<div class="panes_item__type_group"><ul>` +
		`<li><a href="/schedule/bf"><img src="/bf.png"></a></li>` +
		`<li><a href="/schedule/knt">Факультет КНиИТ</a></li>` +
		`</ul></div>`
	places, err := ParsePlaces([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, []string{"Факультет КНиИТ"}, places.Names())
}

func TestParseTeachers(t *testing.T) {
	raw := `[{"fio":"Галаев Сергей Владимирович","id":"t_1234"},{"fio":" Галаева Анна ","id":"t_77"}]`
	teachers, err := ParseTeachers([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, []models.Teacher{
		{FIO: "Галаев Сергей Владимирович", ID: "1234"},
		{FIO: "Галаева Анна", ID: "77"},
	}, teachers)
}

func TestParseTeachersNumericID(t *testing.T) {
	teachers, err := ParseTeachers([]byte(`[{"fio":"Иванов И. И.","id":991234}]`))
	require.NoError(t, err)
	assert.Equal(t, "1234", teachers[0].ID)
}

func TestParseTeachersRejectsBadShape(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":  `<html>blocked</html>`,
		"short id":  `[{"fio":"Иванов","id":"t_"}]`,
		"no id":     `[{"fio":"Иванов"}]`,
		"empty fio": `[{"fio":"","id":"t_1"}]`,
		"null id":   `[{"fio":"Иванов И.И.","id":null}]`,
		"object id": `[{"fio":"Иванов И.И.","id":{"x":1}}]`,
		"array id":  `[{"fio":"Иванов И.И.","id":[1,2,3]}]`,
		"bool id":   `[{"fio":"Иванов И.И.","id":true}]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTeachers([]byte(raw))
			assert.True(t, errors.Is(err, appErrors.ErrParseShapeMismatch))
		})
	}
}

func TestParseTeachersEmpty(t *testing.T) {
	teachers, err := ParseTeachers([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, teachers)
}

func TestParseWeekSchedule(t *testing.T) {
	page := schedulePage(models.SlotCount, func(slot, day int) string {
		switch {
		case slot == 0 && day == 0:
			return entryHTML("чис.", "лек.", "", "Математический анализ", "Иванов И. И.", "12 корп. ауд. 414")
		case slot == 0 && day == 2:
			return entryHTML("чис.", "пр.", "1 подгр.", "Программирование", "Петров П. П.", "9 корп. ауд. 310") +
				entryHTML("знам.", "пр.", "2 подгр.", "Программирование", "Сидоров С. С.", "9 корп. ауд. 312")
		case slot == 7 && day == 5:
			return entryHTML("", "", "", "Физкультура", "Кузнецов К. К.", "Спорткомплекс")
		}
		return ""
	})

	week, err := ParseWeekSchedule(page)
	require.NoError(t, err)
	require.Len(t, week, len(models.Days))

	monday := week["понедельник"]
	require.Len(t, monday[0], 1)
	assert.Equal(t, models.Subject{
		Name:    "Математический анализ",
		Teacher: "Иванов И. И.",
		Place:   "12 корп. ауд. 414",
		Type:    models.TypeLecture,
		Week:    models.WeekEven,
	}, monday[0][0])
	for slot := 1; slot < models.SlotCount; slot++ {
		assert.Empty(t, monday[slot])
	}

	wednesday := week["среда"]
	require.Len(t, wednesday[0], 2)
	assert.Equal(t, models.WeekOdd, wednesday[0][1].Week)
	assert.Equal(t, "2 подгр.", wednesday[0][1].Other)

	saturday := week["суббота"]
	require.Len(t, saturday[7], 1)
	assert.Equal(t, models.TypeUnspecified, saturday[7][0].Type)
	assert.Equal(t, models.WeekEvery, saturday[7][0].Week)
}

func TestParseWeekScheduleTrimsWhitespace(t *testing.T) {
	page := schedulePage(models.SlotCount, func(slot, day int) string {
		if slot == 3 && day == 1 {
			return entryHTML("\n  знам. ", " пр.\n", "", "\n Алгебра ", "Смирнов", "ауд. 1")
		}
		return ""
	})
	week, err := ParseWeekSchedule(page)
	require.NoError(t, err)

	s := week["вторник"][3][0]
	assert.Equal(t, models.WeekOdd, s.Week)
	assert.Equal(t, models.TypePractice, s.Type)
	assert.Equal(t, "Алгебра", s.Name)
}

func TestParseWeekScheduleShapeMismatch(t *testing.T) {
	good := func(slot, day int) string { return "" }

	cases := map[string][]byte{
		"no table":   []byte(`<html><body><table id="other"><tr><td></td></tr></table></body></html>`),
		"short":      schedulePage(models.SlotCount-1, good),
		"long":       schedulePage(models.SlotCount+1, good),
		"few cells":  []byte(`<table id="schedule"><tr><th></th></tr>` + strings.Repeat(`<tr><td></td><td></td></tr>`, models.SlotCount) + `</table>`),
		"no teacher": schedulePage(models.SlotCount, func(slot, day int) string {
			if slot == 2 && day == 2 {
				return `<div><div class="l-pr-r"></div><div class="l-pr-t"></div><div class="l-pr-g"></div><div class="l-dn">X</div><div class="l-p">Y</div></div>`
			}
			return ""
		}),
		"bad week marker": schedulePage(models.SlotCount, func(slot, day int) string {
			if slot == 1 && day == 4 {
				return entryHTML("нечет.", "лек.", "", "X", "Y", "Z")
			}
			return ""
		}),
		"bad type marker": schedulePage(models.SlotCount, func(slot, day int) string {
			if slot == 6 && day == 0 {
				return entryHTML("чис.", "семинар", "", "X", "Y", "Z")
			}
			return ""
		}),
	}

	for name, page := range cases {
		t.Run(name, func(t *testing.T) {
			week, err := ParseWeekSchedule(page)
			assert.True(t, errors.Is(err, appErrors.ErrParseShapeMismatch), "got %v", err)
			assert.Nil(t, week)
		})
	}
}

func TestMarkerVocabularies(t *testing.T) {
	for marker, want := range map[string]models.WeekParity{"чис.": models.WeekEven, "знам.": models.WeekOdd, "": models.WeekEvery} {
		got, err := ParseWeekMarker(marker)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	for marker, want := range map[string]models.SubjectType{"лек.": models.TypeLecture, "пр.": models.TypePractice, "": models.TypeUnspecified} {
		got, err := ParseTypeMarker(marker)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseWeekMarker("Чис.")
	assert.True(t, errors.Is(err, appErrors.ErrParseShapeMismatch))
	_, err = ParseTypeMarker("лек")
	assert.True(t, errors.Is(err, appErrors.ErrParseShapeMismatch))
}
