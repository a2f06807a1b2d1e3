package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/credinica/loan-service/internal/models"
	"github.com/shopspring/decimal"
)

type stubRates struct {
	rate decimal.Decimal
	err  error
}

func (s stubRates) ExchangeRate(context.Context, time.Time) (decimal.Decimal, error) {
	return s.rate, s.err
}

func TestDailyActivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	credit := env.activeCredit(t)

	if _, err := env.svc.AddPayment(ctx, env.gestor, credit.ID, PaymentInput{Amount: decimal.NewFromInt(100)}); err != nil {
		t.Fatalf("AddPayment failed: %v", err)
	}
	voided, err := env.svc.AddPayment(ctx, env.gestor, credit.ID, PaymentInput{Amount: decimal.NewFromInt(40)})
	if err != nil {
		t.Fatalf("AddPayment failed: %v", err)
	}
	if err := env.svc.RequestVoid(ctx, env.gestor, credit.ID, voided.ID, "Error de digitación"); err != nil {
		t.Fatalf("RequestVoid failed: %v", err)
	}
	if err := env.svc.ApproveVoid(ctx, env.admin, credit.ID, voided.ID); err != nil {
		t.Fatalf("ApproveVoid failed: %v", err)
	}

	own, err := env.svc.DailyActivity(ctx, env.gestor, "")
	if err != nil {
		t.Fatalf("DailyActivity failed: %v", err)
	}
	if len(own.Collections.Transactions) != 1 {
		t.Fatalf("Expected 1 collection, got %d", len(own.Collections.Transactions))
	}
	if !own.Collections.TotalActivityAmount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected collections total 100, got %s", own.Collections.TotalActivityAmount)
	}
	if !strings.Contains(own.Collections.Transactions[0].Description, credit.CreditNumber) {
		t.Errorf("Expected description to mention %s, got %q", credit.CreditNumber, own.Collections.Transactions[0].Description)
	}
	if len(own.Disbursements.Transactions) != 0 {
		t.Errorf("Expected no disbursements, got %d", len(own.Disbursements.Transactions))
	}

	_, err = env.svc.DailyActivity(ctx, env.gestor, env.operativo.UserID)
	assertKind(t, err, KindForbidden)

	closure, err := env.svc.DailyActivity(ctx, env.admin, env.operativo.UserID)
	if err != nil {
		t.Fatalf("DailyActivity failed: %v", err)
	}
	if len(closure.Disbursements.Transactions) != 1 || !closure.Disbursements.TotalActivityAmount.Equal(*credit.DisbursedAmount) {
		t.Errorf("Expected one disbursement of %s, got %+v", credit.DisbursedAmount, closure.Disbursements)
	}

	env.clock.now = env.clock.now.AddDate(0, 0, 1)
	tomorrow, err := env.svc.DailyActivity(ctx, env.gestor, "")
	if err != nil {
		t.Fatalf("DailyActivity failed: %v", err)
	}
	if len(tomorrow.Collections.Transactions) != 0 {
		t.Errorf("Expected no collections on the next day, got %d", len(tomorrow.Collections.Transactions))
	}
}

func TestRejectionAnalysis(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	credit := env.createCredit(t, env.gestor, env.creditInput(env.client.ID))
	if _, err := env.svc.RejectCredit(ctx, env.operativo, credit.ID, "Sin capacidad de pago"); err != nil {
		t.Fatalf("RejectCredit failed: %v", err)
	}

	_, err := env.svc.RejectionAnalysis(ctx, env.gestor, "", "")
	assertKind(t, err, KindForbidden)
	_, err = env.svc.RejectionAnalysis(ctx, env.admin, "2025-02-10", "2025-02-01")
	assertKind(t, err, KindValidation)

	items, err := env.svc.RejectionAnalysis(ctx, env.admin, "", "")
	if err != nil {
		t.Fatalf("RejectionAnalysis failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 rejected credit, got %d", len(items))
	}
	if items[0].RejectionReason != "Sin capacidad de pago" || items[0].RejectedBy != env.operativo.FullName {
		t.Errorf("Unexpected rejection item %+v", items[0])
	}

	none, err := env.svc.RejectionAnalysis(ctx, env.admin, "2024-01-01", "2024-12-31")
	if err != nil {
		t.Fatalf("RejectionAnalysis failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected no rejections in 2024, got %d", len(none))
	}

	out, err := env.svc.ExportRejectionAnalysis(ctx, env.admin, "", "")
	if err != nil {
		t.Fatalf("ExportRejectionAnalysis failed: %v", err)
	}
	doc := string(out)
	for _, want := range []string{spreadsheetNS, `ss:Name="Rechazos"`, "Sin capacidad de pago", credit.CreditNumber} {
		if !strings.Contains(doc, want) {
			t.Errorf("Expected workbook to contain %q", want)
		}
	}
}

func TestPortfolioSummary(t *testing.T) {
	rate := decimal.RequireFromString("36.6243")
	env := newTestEnv(t, WithExchangeRates(stubRates{rate: rate}))
	ctx := context.Background()
	credit := env.activeCredit(t)
	if _, err := env.svc.AddPayment(ctx, env.gestor, credit.ID, PaymentInput{Amount: decimal.NewFromInt(100)}); err != nil {
		t.Fatalf("AddPayment failed: %v", err)
	}

	_, err := env.svc.PortfolioSummary(ctx, env.gestor)
	assertKind(t, err, KindForbidden)

	summary, err := env.svc.PortfolioSummary(ctx, env.admin)
	if err != nil {
		t.Fatalf("PortfolioSummary failed: %v", err)
	}
	outstanding := credit.TotalAmount.Sub(decimal.NewFromInt(100))
	if summary.ActiveCredits != 1 || !summary.TotalOutstanding.Equal(outstanding) {
		t.Errorf("Expected 1 credit with %s outstanding, got %d with %s", outstanding, summary.ActiveCredits, summary.TotalOutstanding)
	}
	if summary.OverdueCredits != 0 || !summary.DelinquencyRatio.IsZero() {
		t.Errorf("Expected no delinquency, got %d credits, ratio %s", summary.OverdueCredits, summary.DelinquencyRatio)
	}
	if summary.TotalOutstandingUS == nil || !summary.TotalOutstandingUS.Equal(outstanding.DivRound(rate, 2)) {
		t.Errorf("Expected USD total %s, got %v", outstanding.DivRound(rate, 2), summary.TotalOutstandingUS)
	}

	env.clock.now = time.Date(2025, 2, 20, 16, 0, 0, 0, time.UTC)
	late, err := env.svc.PortfolioSummary(ctx, env.admin)
	if err != nil {
		t.Fatalf("PortfolioSummary failed: %v", err)
	}
	if late.OverdueCredits != 1 || !late.DelinquencyRatio.IsPositive() {
		t.Errorf("Expected one overdue credit, got %d, ratio %s", late.OverdueCredits, late.DelinquencyRatio)
	}
}

func TestPortfolioSummary_RateUnavailable(t *testing.T) {
	env := newTestEnv(t, WithExchangeRates(stubRates{err: errors.New("timeout")}))
	env.activeCredit(t)

	summary, err := env.svc.PortfolioSummary(context.Background(), env.admin)
	if err != nil {
		t.Fatalf("PortfolioSummary failed: %v", err)
	}
	if summary.ExchangeRate != nil || summary.TotalOutstandingUS != nil {
		t.Error("Expected no USD figures without an exchange rate")
	}
}

func TestDisbursementQueueAndPromissoryNote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	previous := env.activeCredit(t)

	in := env.creditInput(env.client.ID)
	in.Amount = decimal.NewFromInt(3000)
	in.Guarantors = []models.Guarantor{{Name: "Juan Fiador", Cedula: "001-111111-0000X"}}
	approved := env.createCredit(t, env.operativo, in)
	env.createCredit(t, env.gestor, env.creditInput(env.client.ID))

	_, err := env.svc.DisbursementQueue(ctx, env.gestor)
	assertKind(t, err, KindForbidden)

	queue, err := env.svc.DisbursementQueue(ctx, env.operativo)
	if err != nil {
		t.Fatalf("DisbursementQueue failed: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != approved.ID {
		t.Fatalf("Expected only the approved credit in the queue, got %d items", len(queue))
	}
	if !queue[0].OutstandingBalance.Equal(previous.TotalAmount) {
		t.Errorf("Expected outstanding %s, got %s", previous.TotalAmount, queue[0].OutstandingBalance)
	}

	note, err := env.svc.PromissoryNote(ctx, env.gestor, approved.ID)
	if err != nil {
		t.Fatalf("PromissoryNote failed: %v", err)
	}
	if note.Installments != 4 || !note.Installment.Equal(approved.TotalInstallmentAmount) {
		t.Errorf("Expected 4 installments of %s, got %d of %s", approved.TotalInstallmentAmount, note.Installments, note.Installment)
	}
	if len(note.Guarantors) != 1 || note.Client.ID != env.client.ID {
		t.Errorf("Expected the client and one guarantor, got %+v", note)
	}
}

func TestOverdueDigests(t *testing.T) {
	env := newTestEnv(t)
	credit := env.activeCredit(t)

	digests, err := env.svc.OverdueDigests(context.Background())
	if err != nil {
		t.Fatalf("OverdueDigests failed: %v", err)
	}
	if len(digests) != 0 {
		t.Errorf("Expected no digests before the first installment, got %d", len(digests))
	}

	env.clock.now = time.Date(2025, 2, 20, 16, 0, 0, 0, time.UTC)
	digests, err = env.svc.OverdueDigests(context.Background())
	if err != nil {
		t.Fatalf("OverdueDigests failed: %v", err)
	}
	if len(digests) != 1 {
		t.Fatalf("Expected 1 digest, got %d", len(digests))
	}
	d := digests[0]
	if d.ManagerName != env.gestor.FullName || d.ManagerEmail != env.gestor.Email {
		t.Errorf("Expected digest for %s <%s>, got %s <%s>", env.gestor.FullName, env.gestor.Email, d.ManagerName, d.ManagerEmail)
	}
	if len(d.Credits) != 1 || d.Credits[0].CreditNumber != credit.CreditNumber || d.Credits[0].DaysOverdue != 10 {
		t.Errorf("Expected %s 10 days overdue, got %+v", credit.CreditNumber, d.Credits)
	}
}
