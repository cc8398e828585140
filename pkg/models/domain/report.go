package domain

import "time"

// Report is the view model handed to the report templates
type Report struct {
	Title       string
	Period      TimePeriod
	GeneratedAt time.Time
	Days        []ReportDay
	ChartFile   string
}

// TimePeriod represents the date range covered by the report
type TimePeriod struct {
	Start    Date
	End      Date
	Duration int // in days
}

// ReportDay groups every mountain forecast for one target date
type ReportDay struct {
	Date      Date
	Holiday   HolidayDay
	Mountains []ReportMountain
}

// ReportMountain holds the per-source dailies of one mountain
type ReportMountain struct {
	MountainID string
	Summary    SummaryReport
	Dailies    []ForecastDaily
}

// DailyCount returns the number of dailies across all days.
func (r *Report) DailyCount() int {
	n := 0
	for _, day := range r.Days {
		for _, m := range day.Mountains {
			n += len(m.Dailies)
		}
	}
	return n
}
