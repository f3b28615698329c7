package schedule

import (
	"time"

	"cloud.google.com/go/civil"
)

// ExceptionType mirrors the exception_type column of calendar_dates.txt.
type ExceptionType int

const (
	ExceptionAdded   ExceptionType = 1
	ExceptionRemoved ExceptionType = 2
)

// CalendarRule corresponds to a single row in calendar.txt.
type CalendarRule struct {
	ServiceID string
	StartDate civil.Date
	EndDate   civil.Date
	// Weekdays is indexed Monday=0 through Sunday=6.
	Weekdays [7]bool
}

// CalendarException corresponds to a single row in calendar_dates.txt.
type CalendarException struct {
	Date      civil.Date
	ServiceID string
	Type      ExceptionType
}

// ServiceDays holds the service ids resolved for a local date and the day after it.
// An empty id means no service runs that day.
type ServiceDays struct {
	Date     civil.Date
	Today    string
	Tomorrow string
}

// weekdayIndex converts a time.Weekday (Sunday=0) into the Monday=0 index used by CalendarRule.
func weekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func (rule CalendarRule) matches(date civil.Date) bool {
	if rule.StartDate == rule.EndDate {
		// Single-day rules still honour the weekday flag.
		return date == rule.StartDate && rule.Weekdays[weekdayIndex(date.Weekday())]
	}
	if date.Before(rule.StartDate) || date.After(rule.EndDate) {
		return false
	}
	return rule.Weekdays[weekdayIndex(date.Weekday())]
}

// ResolveService returns the single service id active on date, or false when none is.
// The last matching rule wins; exceptions on date are then applied in input order.
func ResolveService(rules []CalendarRule, exceptions []CalendarException, date civil.Date) (string, bool) {
	serviceID := ""
	for _, rule := range rules {
		if rule.matches(date) {
			serviceID = rule.ServiceID
		}
	}

	for _, exception := range exceptions {
		if exception.Date != date {
			continue
		}
		switch exception.Type {
		case ExceptionAdded:
			serviceID = exception.ServiceID
		case ExceptionRemoved:
			if serviceID == exception.ServiceID {
				serviceID = ""
			}
		}
	}

	return serviceID, serviceID != ""
}

// ResolveServiceDays resolves today's and tomorrow's service relative to now's local date.
func ResolveServiceDays(rules []CalendarRule, exceptions []CalendarException, now time.Time) ServiceDays {
	today := civil.DateOf(now)
	tomorrow := today.AddDays(1)

	todayID, _ := ResolveService(rules, exceptions, today)
	tomorrowID, _ := ResolveService(rules, exceptions, tomorrow)

	return ServiceDays{
		Date:     today,
		Today:    todayID,
		Tomorrow: tomorrowID,
	}
}
