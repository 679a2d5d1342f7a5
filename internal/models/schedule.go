package models

type SubjectType int

const (
	TypeUnspecified SubjectType = iota
	TypeLecture
	TypePractice
)

func (t SubjectType) String() string {
	switch t {
	case TypeLecture:
		return "lecture"
	case TypePractice:
		return "practice"
	default:
		return "unspecified"
	}
}

type WeekParity int

const (
	WeekEvery WeekParity = iota
	WeekEven
	WeekOdd
)

func (w WeekParity) String() string {
	switch w {
	case WeekEven:
		return "even"
	case WeekOdd:
		return "odd"
	default:
		return "every"
	}
}

// Subject is a single lesson entry inside a period slot.
type Subject struct {
	Name    string      `json:"name"`
	Teacher string      `json:"teacher"`
	Place   string      `json:"place"`
	Other   string      `json:"other"`
	Type    SubjectType `json:"type"`
	Week    WeekParity  `json:"week"`
}

// SlotCount is the number of daily period slots.
const SlotCount = 8

// Times are the period windows, slot i starts at Times[i].
var Times = [SlotCount]string{
	"8:20-9:50",
	"10:00-11:30",
	"12:05-13:40",
	"13:50-15:25",
	"15:35-17:10",
	"17:20-18:40",
	"18:45-20:05",
	"20:10-21:30",
}

// Days is the fixed, ordered weekday vocabulary of the schedule table.
var Days = []string{"понедельник", "вторник", "среда", "четверг", "пятница", "суббота"}

// DaySchedule holds the subjects of every slot; an empty slot is a nil slice.
type DaySchedule [SlotCount][]Subject

// WeekSchedule maps every name from Days to its schedule.
type WeekSchedule map[string]DaySchedule

// DayIndex returns the position of day in Days.
func DayIndex(day string) (int, bool) {
	for i, d := range Days {
		if d == day {
			return i, true
		}
	}
	return 0, false
}
