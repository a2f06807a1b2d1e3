package amortization

import (
	"time"

	"github.com/credinica/loan-service/internal/models"
	"github.com/credinica/loan-service/internal/utils"
)

type installmentDate struct {
	date        time.Time
	shiftedDays int
}

// calendar knows which days are not collection days.
type calendar struct {
	holidays map[time.Time]struct{}
}

func newCalendar(holidays []time.Time) calendar {
	c := calendar{holidays: make(map[time.Time]struct{}, len(holidays))}
	for _, h := range holidays {
		c.holidays[utils.DateOnly(h)] = struct{}{}
	}
	return c
}

func (c calendar) isHoliday(d time.Time) bool {
	_, ok := c.holidays[d]
	return ok
}

func isWeekend(d time.Time) bool {
	return d.Weekday() == time.Saturday || d.Weekday() == time.Sunday
}

// nextCollectionDay returns d or the first later day that is not a holiday.
func (c calendar) nextCollectionDay(d time.Time) time.Time {
	for c.isHoliday(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// nextBusinessDay returns d or the first later weekday that is not a holiday.
func (c calendar) nextBusinessDay(d time.Time) time.Time {
	for isWeekend(d) || c.isHoliday(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func (c calendar) installmentDates(start time.Time, frequency models.PaymentFrequency, n int) []installmentDate {
	dates := make([]installmentDate, 0, n)
	if frequency == models.FrequencyDiario {
		d := c.nextBusinessDay(start)
		for len(dates) < n {
			dates = append(dates, installmentDate{date: d})
			d = c.nextBusinessDay(d.AddDate(0, 0, 1))
		}
		return dates
	}
	for i := 0; i < n; i++ {
		nominal := nominalDate(start, frequency, i)
		actual := c.nextCollectionDay(nominal)
		dates = append(dates, installmentDate{date: actual, shiftedDays: utils.DaysBetween(nominal, actual)})
	}
	return dates
}

// nominalDate is the unadjusted date of installment i (0-based).
func nominalDate(start time.Time, frequency models.PaymentFrequency, i int) time.Time {
	switch frequency {
	case models.FrequencySemanal:
		return start.AddDate(0, 0, 7*i)
	case models.FrequencyCatorcenal:
		return start.AddDate(0, 0, 14*i)
	case models.FrequencyQuincenal:
		d := addMonthsClamped(start, i/2)
		if i%2 == 1 {
			d = d.AddDate(0, 0, 15)
		}
		return d
	case models.FrequencyDiario:
		return start.AddDate(0, 0, i)
	}
	return start
}

// addMonthsClamped adds months keeping the day of month, clamped to the
// last day of the target month (Jan 31 + 1 month = Feb 28).
func addMonthsClamped(d time.Time, months int) time.Time {
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	last := first.AddDate(0, 1, -1).Day()
	day := d.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}
