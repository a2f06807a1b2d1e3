package email

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/credinica/loan-service/internal/config"
	"github.com/credinica/loan-service/internal/models"
	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func testDigest() models.OverdueDigest {
	return models.OverdueDigest{
		ManagerName:  "Gabriela Gestora",
		ManagerEmail: "gabriela@credinica.ni",
		Credits: []models.OverdueCredit{{
			CreditNumber:     "CRE-00007",
			ClientName:       "Maria Lopez",
			DaysOverdue:      10,
			OverdueAmount:    decimal.RequireFromString("255.1"),
			RemainingBalance: decimal.NewFromInt(1010),
		}},
	}
}

func newTestSender(send func(e *email.Email) error) *Sender {
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := NewSender(&config.Config{SenderEmail: "no-reply@credinica.com.ni"}, log)
	s.send = send
	return s
}

func TestSendOverdueDigest(t *testing.T) {
	var sent *email.Email
	s := newTestSender(func(e *email.Email) error { sent = e; return nil })
	asOf := time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC)

	if err := s.SendOverdueDigest(testDigest(), asOf); err != nil {
		t.Fatalf("SendOverdueDigest failed: %v", err)
	}
	if sent == nil || len(sent.To) != 1 || sent.To[0] != "gabriela@credinica.ni" {
		t.Fatalf("Expected one message to gabriela@credinica.ni, got %+v", sent)
	}
	if !strings.Contains(sent.Subject, "20/02/2025") {
		t.Errorf("Expected subject with the date, got %q", sent.Subject)
	}
	body := string(sent.Text)
	for _, want := range []string{"Gabriela Gestora", "CRE-00007", "10 días", "C$255.10", "C$1010.00"} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected body to contain %q, got %q", want, body)
		}
	}
}

func TestSendOverdueDigest_Errors(t *testing.T) {
	s := newTestSender(func(e *email.Email) error { return errors.New("connection refused") })
	if err := s.SendOverdueDigest(testDigest(), time.Now()); err == nil {
		t.Error("Expected the SMTP error to be returned")
	}

	d := testDigest()
	d.ManagerEmail = ""
	if err := s.SendOverdueDigest(d, time.Now()); err == nil {
		t.Error("Expected an error without a recipient")
	}
}
