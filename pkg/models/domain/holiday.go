package domain

type HolidayDay struct {
	Date        Date    `json:"date"`
	IsWeekend   bool    `json:"is_weekend"`
	IsHoliday   bool    `json:"is_holiday"`
	HolidayName *string `json:"holiday_name"`
	Notes       *string `json:"notes"`
}

// DayOff reports whether the day is a weekend day or a public holiday.
func (h HolidayDay) DayOff() bool {
	return h.IsWeekend || h.IsHoliday
}
