package format

import (
	"fmt"
	"strings"

	"telegram-schedule-bot/internal/models"
)

// NoData marks a period without lessons.
const NoData = "Нет данных."

var typeLabels = map[models.SubjectType]string{
	models.TypeLecture:     "лекция",
	models.TypePractice:    "практика",
	models.TypeUnspecified: "не указано",
}

var weekLabels = map[models.WeekParity]string{
	models.WeekEvery: "каждую неделю",
	models.WeekEven:  "по числителю",
	models.WeekOdd:   "по знаменателю",
}

// Subject renders one lesson entry.
func Subject(s models.Subject) string {
	where := make([]string, 0, 3)
	if s.Place != "" {
		where = append(where, s.Place)
	}
	where = append(where, weekLabels[s.Week])
	if s.Other != "" {
		where = append(where, s.Other)
	}

	return fmt.Sprintf("Пара: %s\nПредмет: %s\nПроходит: %s\nПреподаватель: %s.",
		typeLabels[s.Type], s.Name, strings.Join(where, ", "), strings.TrimSuffix(s.Teacher, "."))
}

// Day renders a day section by section, one per period window.
func Day(day models.DaySchedule) string {
	lines := make([]string, 0, models.SlotCount*2)
	for slot, subjects := range day {
		lines = append(lines, models.Times[slot]+":")
		if len(subjects) == 0 {
			lines = append(lines, NoData+"\n")
			continue
		}
		for i, s := range subjects {
			lines = append(lines, fmt.Sprintf("%d) %s\n", i+1, Subject(s)))
		}
	}
	return strings.Join(lines, "\n")
}

// Week renders every weekday under its upper-cased name.
func Week(week models.WeekSchedule) string {
	parts := make([]string, 0, len(models.Days))
	for _, day := range models.Days {
		parts = append(parts, strings.ToUpper(day)+"\n\n"+Day(week[day]))
	}
	return strings.Join(parts, "\n\n")
}

// Split cuts text into chunks of at most limit runes, preferring line breaks.
func Split(text string, limit int) []string {
	if limit <= 0 || len([]rune(text)) <= limit {
		return []string{text}
	}

	var (
		chunks []string
		cur    []rune
	)
	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, string(cur))
			cur = cur[:0]
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		r := []rune(line)
		if len(cur)+len(r) > limit {
			flush()
		}
		for len(r) > limit {
			chunks = append(chunks, string(r[:limit]))
			r = r[limit:]
		}
		cur = append(cur, r...)
	}
	flush()
	return chunks
}
