package amortization

import (
	"math"
	"testing"
	"time"

	"github.com/credinica/loan-service/internal/models"
	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerate_QuincenalScenario(t *testing.T) {
	s := Generate(Input{
		Principal:   decimal.NewFromInt(10000),
		MonthlyRate: decimal.NewFromInt(2),
		TermMonths:  6,
		Frequency:   models.FrequencyQuincenal,
		StartDate:   date(2025, 1, 1),
	})
	if s == nil {
		t.Fatal("Expected a schedule, got nil")
	}
	if len(s.Entries) != 12 {
		t.Fatalf("Expected 12 installments, got %d", len(s.Entries))
	}

	r := 0.01
	expected := 10000 * r / (1 - math.Pow(1+r, -12))
	want := decimal.NewFromFloat(expected).Round(2)
	if !s.PeriodicPayment.Equal(want) {
		t.Errorf("Expected periodic payment %s, got %s", want, s.PeriodicPayment)
	}

	last := s.Entries[len(s.Entries)-1]
	if !last.Balance.IsZero() {
		t.Errorf("Expected final balance 0, got %s", last.Balance)
	}
	if !s.Entries[0].PaymentDate.Equal(date(2025, 1, 1)) || !s.Entries[1].PaymentDate.Equal(date(2025, 1, 16)) {
		t.Errorf("Unexpected first dates %s, %s", s.Entries[0].PaymentDate, s.Entries[1].PaymentDate)
	}
	if !s.DueDate().Equal(date(2025, 6, 16)) {
		t.Errorf("Expected due date 2025-06-16, got %s", s.DueDate())
	}
	if !s.TotalPayment.Equal(decimal.NewFromInt(10000).Add(s.TotalInterest)) {
		t.Errorf("Total payment %s should equal principal plus interest %s", s.TotalPayment, s.TotalInterest)
	}
}

func TestGenerate_InstallmentCountsAndInvariants(t *testing.T) {
	tests := []struct {
		frequency models.PaymentFrequency
		term      int
		want      int
	}{
		{models.FrequencyDiario, 3, 60},
		{models.FrequencySemanal, 4, 16},
		{models.FrequencyCatorcenal, 12, 24},
		{models.FrequencyQuincenal, 1, 2},
	}
	tolerance := decimal.NewFromFloat(0.01)
	for _, tt := range tests {
		principal := decimal.NewFromFloat(7350.50)
		s := Generate(Input{
			Principal:   principal,
			MonthlyRate: decimal.NewFromFloat(3.5),
			TermMonths:  tt.term,
			Frequency:   tt.frequency,
			StartDate:   date(2025, 3, 3),
		})
		if s == nil {
			t.Fatalf("%s: expected a schedule", tt.frequency)
		}
		if len(s.Entries) != tt.want {
			t.Errorf("%s: expected %d installments, got %d", tt.frequency, tt.want, len(s.Entries))
		}

		sumPrincipal := decimal.Zero
		prevBalance := principal
		for i, e := range s.Entries {
			if e.PaymentNumber != i+1 {
				t.Errorf("%s: installment %d has number %d", tt.frequency, i, e.PaymentNumber)
			}
			if !e.Balance.LessThan(prevBalance) {
				t.Errorf("%s: balance did not decrease at installment %d", tt.frequency, e.PaymentNumber)
			}
			if i > 0 && !e.PaymentDate.After(s.Entries[i-1].PaymentDate) {
				t.Errorf("%s: dates not increasing at installment %d", tt.frequency, e.PaymentNumber)
			}
			prevBalance = e.Balance
			sumPrincipal = sumPrincipal.Add(e.Principal)
		}
		if sumPrincipal.Sub(principal).Abs().GreaterThan(tolerance) {
			t.Errorf("%s: principal sum %s differs from %s", tt.frequency, sumPrincipal, principal)
		}
		if s.Entries[len(s.Entries)-1].Balance.Abs().GreaterThan(tolerance) {
			t.Errorf("%s: final balance %s", tt.frequency, s.Entries[len(s.Entries)-1].Balance)
		}
	}
}

func TestGenerate_InvalidInputs(t *testing.T) {
	valid := Input{
		Principal:   decimal.NewFromInt(1000),
		MonthlyRate: decimal.NewFromInt(2),
		TermMonths:  2,
		Frequency:   models.FrequencySemanal,
		StartDate:   date(2025, 1, 6),
	}
	cases := map[string]func(in *Input){
		"zero term":         func(in *Input) { in.TermMonths = 0 },
		"negative term":     func(in *Input) { in.TermMonths = -1 },
		"unknown frequency": func(in *Input) { in.Frequency = "Mensual" },
		"zero principal":    func(in *Input) { in.Principal = decimal.Zero },
		"negative rate":     func(in *Input) { in.MonthlyRate = decimal.NewFromInt(-1) },
		"missing start":     func(in *Input) { in.StartDate = time.Time{} },
	}
	for name, mutate := range cases {
		in := valid
		mutate(&in)
		if s := Generate(in); s != nil {
			t.Errorf("%s: expected nil schedule", name)
		}
	}
}

func TestGenerate_ZeroRate(t *testing.T) {
	s := Generate(Input{
		Principal:   decimal.NewFromInt(1000),
		MonthlyRate: decimal.Zero,
		TermMonths:  3,
		Frequency:   models.FrequencyQuincenal,
		StartDate:   date(2025, 1, 15),
	})
	if s == nil {
		t.Fatal("Expected a schedule")
	}
	if !s.TotalInterest.IsZero() {
		t.Errorf("Expected no interest, got %s", s.TotalInterest)
	}
	if !s.PeriodicPayment.Equal(decimal.NewFromFloat(166.67)) {
		t.Errorf("Expected 166.67, got %s", s.PeriodicPayment)
	}
	if !s.Entries[5].Amount.Equal(decimal.NewFromFloat(166.65)) {
		t.Errorf("Expected last installment to absorb rounding (166.65), got %s", s.Entries[5].Amount)
	}
}

func TestGenerate_HolidayShiftsForwardWithExtraInterest(t *testing.T) {
	base := Input{
		Principal:   decimal.NewFromInt(10000),
		MonthlyRate: decimal.NewFromInt(3),
		TermMonths:  1,
		Frequency:   models.FrequencySemanal,
		StartDate:   date(2025, 4, 3),
	}
	plain := Generate(base)

	withHoliday := base
	withHoliday.Holidays = []time.Time{date(2025, 4, 3)}
	shifted := Generate(withHoliday)

	if !shifted.Entries[0].PaymentDate.Equal(date(2025, 4, 4)) {
		t.Fatalf("Expected holiday installment moved to 2025-04-04, got %s", shifted.Entries[0].PaymentDate)
	}
	if !shifted.Entries[1].PaymentDate.Equal(plain.Entries[1].PaymentDate) {
		t.Errorf("Following installment should keep its nominal date")
	}
	// one extra day at 3%/30 on 10000 = 10.00
	extra := shifted.Entries[0].Interest.Sub(plain.Entries[0].Interest)
	if !extra.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected 10.00 extra interest, got %s", extra)
	}
	if !shifted.Entries[len(shifted.Entries)-1].Balance.IsZero() {
		t.Errorf("Final balance must still be zero")
	}
}

func TestGenerate_DiarioSkipsWeekendsAndHolidays(t *testing.T) {
	s := Generate(Input{
		Principal:   decimal.NewFromInt(2000),
		MonthlyRate: decimal.NewFromInt(4),
		TermMonths:  1,
		Frequency:   models.FrequencyDiario,
		StartDate:   date(2025, 4, 26), // Saturday
		Holidays:    []time.Time{date(2025, 5, 1)},
	})
	if s == nil {
		t.Fatal("Expected a schedule")
	}
	if !s.Entries[0].PaymentDate.Equal(date(2025, 4, 28)) {
		t.Errorf("Expected first collection on Monday 2025-04-28, got %s", s.Entries[0].PaymentDate)
	}
	for _, e := range s.Entries {
		wd := e.PaymentDate.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			t.Errorf("Installment %d falls on a weekend", e.PaymentNumber)
		}
		if e.PaymentDate.Equal(date(2025, 5, 1)) {
			t.Errorf("Installment %d falls on a holiday", e.PaymentNumber)
		}
	}
}

func TestAddMonthsClamped(t *testing.T) {
	if got := addMonthsClamped(date(2025, 1, 31), 1); !got.Equal(date(2025, 2, 28)) {
		t.Errorf("Expected 2025-02-28, got %s", got)
	}
	if got := addMonthsClamped(date(2024, 12, 15), 2); !got.Equal(date(2025, 2, 15)) {
		t.Errorf("Expected 2025-02-15, got %s", got)
	}
}
