package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/credinica/loan-service/internal/config"
	"github.com/credinica/loan-service/internal/models"
	"github.com/credinica/loan-service/internal/service"
	"github.com/sirupsen/logrus"
)

type stubJobs struct {
	actor   *models.Session
	digests []models.OverdueDigest
	err     error
}

func (j *stubJobs) RevalidateActiveCredits(_ context.Context, actor *models.Session) (int, error) {
	j.actor = actor
	return 3, nil
}

func (j *stubJobs) OverdueDigests(context.Context) ([]models.OverdueDigest, error) {
	return j.digests, j.err
}

type stubNotifier struct {
	sent []string
	fail string
}

func (n *stubNotifier) SendOverdueDigest(d models.OverdueDigest, _ time.Time) error {
	if d.ManagerEmail == n.fail {
		return errors.New("smtp down")
	}
	n.sent = append(n.sent, d.ManagerEmail)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{CronRevalidate: "0 1 * * *", CronReminders: "0 7 * * 1-6"}
}

func newTestScheduler(t *testing.T, jobs Jobs, notifier Notifier) *Scheduler {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	s, err := New(testConfig(), jobs, notifier, log, time.UTC)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestNew_RegistersJobs(t *testing.T) {
	withReminders := newTestScheduler(t, &stubJobs{}, &stubNotifier{})
	if n := len(withReminders.cron.Entries()); n != 2 {
		t.Errorf("Expected 2 jobs, got %d", n)
	}
	withoutReminders := newTestScheduler(t, &stubJobs{}, nil)
	if n := len(withoutReminders.cron.Entries()); n != 1 {
		t.Errorf("Expected 1 job, got %d", n)
	}

	cfg := testConfig()
	cfg.CronRevalidate = "every night"
	if _, err := New(cfg, &stubJobs{}, nil, logrus.New(), time.UTC); err == nil {
		t.Error("Expected an error for an invalid cron spec")
	}
}

func TestRevalidate_RunsAsSystem(t *testing.T) {
	jobs := &stubJobs{}
	s := newTestScheduler(t, jobs, nil)

	n, err := s.Revalidate(context.Background())
	if err != nil {
		t.Fatalf("Revalidate failed: %v", err)
	}
	if n != 3 || jobs.actor != service.SystemSession {
		t.Errorf("Expected 3 credits revalidated as the system user, got %d as %+v", n, jobs.actor)
	}
}

func TestSendReminders(t *testing.T) {
	jobs := &stubJobs{digests: []models.OverdueDigest{
		{ManagerName: "Ana", ManagerEmail: "ana@credinica.ni"},
		{ManagerName: "Sin correo"},
		{ManagerName: "Luis", ManagerEmail: "luis@credinica.ni"},
		{ManagerName: "Pedro", ManagerEmail: "pedro@credinica.ni"},
	}}
	notifier := &stubNotifier{fail: "luis@credinica.ni"}
	s := newTestScheduler(t, jobs, notifier)

	sent, err := s.SendReminders(context.Background())
	if err == nil {
		t.Error("Expected an error reporting the failed delivery")
	}
	if sent != 2 || len(notifier.sent) != 2 || notifier.sent[1] != "pedro@credinica.ni" {
		t.Errorf("Expected 2 reminders sent after the failure, got %d: %v", sent, notifier.sent)
	}

	jobs.err = errors.New("db down")
	if _, err := s.SendReminders(context.Background()); err == nil {
		t.Error("Expected the digest error to be returned")
	}
}
