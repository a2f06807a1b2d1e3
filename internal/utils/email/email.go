package email

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/credinica/loan-service/internal/config"
	"github.com/credinica/loan-service/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	s := &Sender{cfg: cfg, logger: logger}
	s.send = s.sendSMTP
	return s
}

func (s *Sender) sendSMTP(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	return e.Send(addr, auth)
}

// SendOverdueDigest emails a collections manager the list of their overdue credits
func (s *Sender) SendOverdueDigest(d models.OverdueDigest, asOf time.Time) error {
	if d.ManagerEmail == "" {
		return fmt.Errorf("no email address for %s", d.ManagerName)
	}
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{d.ManagerEmail}
	e.Subject = fmt.Sprintf("Créditos en mora al %s (%d)", asOf.Format("02/01/2006"), len(d.Credits))
	e.Text = []byte(digestBody(d, asOf))

	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send overdue digest to %s: %v", d.ManagerEmail, err)
		return fmt.Errorf("failed to send overdue digest: %w", err)
	}
	s.logger.Infof("Email sent to %s: %s", d.ManagerEmail, e.Subject)
	return nil
}

func digestBody(d models.OverdueDigest, asOf time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Estimado(a) %s,\n\n", d.ManagerName)
	fmt.Fprintf(&b, "Al %s los siguientes créditos a su cargo presentan cuotas vencidas:\n\n", asOf.Format("02/01/2006"))
	for _, c := range d.Credits {
		fmt.Fprintf(&b, "- %s, %s: %d días de atraso, C$%s en mora, saldo C$%s\n",
			c.CreditNumber, c.ClientName, c.DaysOverdue, c.OverdueAmount.StringFixed(2), c.RemainingBalance.StringFixed(2))
	}
	b.WriteString("\nPor favor dé seguimiento a estos clientes.\n\nCrediNica")
	return b.String()
}
