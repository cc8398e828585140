package holiday

import (
	"sync"
	"time"

	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/jp"
)

const substituteName = "振替休日"

var names = map[*cal.Holiday]string{
	jp.NewYear:                 "元日",
	jp.ComingOfAgeDay:          "成人の日",
	jp.NationalFoundationDay:   "建国記念の日",
	jp.TheEmperorsBirthday:     "天皇誕生日",
	jp.VernalEquinoxDay:        "春分の日",
	jp.ShowaDay:                "昭和の日",
	jp.ConstitutionMemorialDay: "憲法記念日",
	jp.GreeneryDay:             "みどりの日",
	jp.ChildrensDay:            "こどもの日",
	jp.MarineDay:               "海の日",
	jp.MountainDay:             "山の日",
	jp.RespectForTheAgedDay:    "敬老の日",
	jp.AutumnalEquinoxDay:      "秋分の日",
	jp.SportsDay:               "スポーツの日",
	jp.CultureDay:              "文化の日",
	jp.LaborThanksgivingDay:    "勤労感謝の日",
	jp.NationalHolidayBetweenRespectForTheAgedDayAndAutumnalEquinoxDay:              "国民の休日",
	jp.NationalHolidayBetweenShowaDayAndNewEmperorEnthronementDay:                   "国民の休日",
	jp.NationalHolidayBetweenTheNewEmperorEnthronementDayAndConstitutionMemorialDay: "国民の休日",
	jp.TheNewEmperorEnthronementDay:                                                 "天皇の即位の日",
	jp.TheNewEmperorEnthronementCeremony:                                            "即位礼正殿の儀",
}

// the equinox holidays rewrite their own definition on every lookup
var (
	mu       sync.Mutex
	calendar = newCalendar()
)

func newCalendar() *cal.Calendar {
	c := &cal.Calendar{Name: "jp"}
	c.AddHoliday(jp.Holidays...)
	return c
}

// BuildHolidayDays describes each date as a weekend and/or Japanese public
// holiday, preserving input order.
func BuildHolidayDays(dates []domain.Date) []domain.HolidayDay {
	days := make([]domain.HolidayDay, 0, len(dates))
	for _, d := range dates {
		days = append(days, Describe(d))
	}
	return days
}

func Describe(d domain.Date) domain.HolidayDay {
	wd := d.Weekday()
	day := domain.HolidayDay{
		Date:      d,
		IsWeekend: wd == time.Saturday || wd == time.Sunday,
	}
	if name := Name(d); name != "" {
		day.IsHoliday = true
		day.HolidayName = domain.String(name)
	}
	return day
}

// Name returns the Japanese national holiday name of the date, or "" for a
// regular day. A Monday off after a Sunday holiday is a substitute holiday.
func Name(d domain.Date) string {
	mu.Lock()
	actual, observed, h := calendar.IsHoliday(d.Time())
	mu.Unlock()

	switch {
	case actual:
		if h == jp.SportsDay && d.Time().Year() < 2020 {
			return "体育の日"
		}
		return names[h]
	case observed:
		return substituteName
	default:
		return ""
	}
}
