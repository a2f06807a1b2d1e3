package service

import (
	"context"
	"testing"

	"github.com/credinica/loan-service/internal/models"
)

func TestClients(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if env.client.ClientNumber != "CLI-00001" {
		t.Errorf("Expected client number CLI-00001, got %s", env.client.ClientNumber)
	}

	_, err := env.svc.CreateClient(ctx, env.gestor, ClientInput{Name: "Sin cédula"})
	assertKind(t, err, KindValidation)
	_, err = env.svc.CreateClient(ctx, env.gestor, ClientInput{Name: "Otra Maria", Cedula: "001-010190-0001a"})
	assertKind(t, err, KindConflict)

	second, err := env.svc.CreateClient(ctx, env.gestor, ClientInput{Name: "Jose Perez", Cedula: "281-020285-0003B"})
	if err != nil {
		t.Fatalf("CreateClient failed: %v", err)
	}
	if second.ClientNumber != "CLI-00002" {
		t.Errorf("Expected client number CLI-00002, got %s", second.ClientNumber)
	}

	found, err := env.svc.ListClients(ctx, env.gestor, "perez")
	if err != nil {
		t.Fatalf("ListClients failed: %v", err)
	}
	if len(found) != 1 || found[0].ID != second.ID {
		t.Errorf("Expected to find Jose Perez, got %d clients", len(found))
	}

	updated, err := env.svc.UpdateClient(ctx, env.gestor, second.ID, ClientInput{Name: "José Pérez", Cedula: "281-020285-0003B", Phone: "8888-0000"})
	if err != nil {
		t.Fatalf("UpdateClient failed: %v", err)
	}
	if updated.Phone != "8888-0000" || updated.ClientNumber != "CLI-00002" {
		t.Errorf("Expected updated phone and unchanged number, got %+v", updated)
	}

	env.createCredit(t, env.operativo, env.creditInput(env.client.ID))
	credits, err := env.svc.ClientCredits(ctx, env.gestor, env.client.ID)
	if err != nil {
		t.Fatalf("ClientCredits failed: %v", err)
	}
	if len(credits) != 1 {
		t.Errorf("Expected 1 credit, got %d", len(credits))
	}

	err = env.svc.DeleteClient(ctx, env.gestor, second.ID)
	assertKind(t, err, KindForbidden)
	err = env.svc.DeleteClient(ctx, env.admin, env.client.ID)
	assertKind(t, err, KindConflict)
	if err := env.svc.DeleteClient(ctx, env.admin, second.ID); err != nil {
		t.Fatalf("DeleteClient failed: %v", err)
	}
	_, err = env.svc.GetClient(ctx, env.admin, second.ID)
	assertKind(t, err, KindNotFound)
}

func TestHolidays(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.CreateHoliday(ctx, env.gestor, HolidayInput{Date: "2025-09-15", Description: "Independencia"})
	assertKind(t, err, KindForbidden)
	_, err = env.svc.CreateHoliday(ctx, env.admin, HolidayInput{Date: "15/09/2025", Description: "Independencia"})
	assertKind(t, err, KindValidation)

	holiday, err := env.svc.CreateHoliday(ctx, env.admin, HolidayInput{Date: "2025-09-15", Description: "Independencia"})
	if err != nil {
		t.Fatalf("CreateHoliday failed: %v", err)
	}
	_, err = env.svc.CreateHoliday(ctx, env.admin, HolidayInput{Date: "2025-09-15", Description: "Repetido"})
	assertKind(t, err, KindConflict)

	holidays, err := env.svc.ListHolidays(ctx, env.gestor)
	if err != nil {
		t.Fatalf("ListHolidays failed: %v", err)
	}
	if len(holidays) != 1 || holidays[0].Date.Format("2006-01-02") != "2025-09-15" {
		t.Errorf("Expected the 2025-09-15 holiday, got %+v", holidays)
	}

	if err := env.svc.DeleteHoliday(ctx, env.admin, holiday.ID); err != nil {
		t.Fatalf("DeleteHoliday failed: %v", err)
	}
	err = env.svc.DeleteHoliday(ctx, env.admin, holiday.ID)
	assertKind(t, err, KindNotFound)
}

func TestAuditLogs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createCredit(t, env.operativo, env.creditInput(env.client.ID))

	_, err := env.svc.ListAuditLogs(ctx, env.operativo, 10)
	assertKind(t, err, KindForbidden)

	logs, err := env.svc.ListAuditLogs(ctx, env.admin, 10)
	if err != nil {
		t.Fatalf("ListAuditLogs failed: %v", err)
	}
	if len(logs) < 3 {
		t.Fatalf("Expected at least 3 entries, got %d", len(logs))
	}

	_, err = env.svc.PurgeAuditLogs(ctx, env.operativo)
	assertKind(t, err, KindForbidden)
	purged, err := env.svc.PurgeAuditLogs(ctx, env.admin)
	if err != nil {
		t.Fatalf("PurgeAuditLogs failed: %v", err)
	}
	if purged != int64(len(logs)) {
		t.Errorf("Expected %d purged entries, got %d", len(logs), purged)
	}

	after, err := env.svc.ListAuditLogs(ctx, env.admin, 10)
	if err != nil {
		t.Fatalf("ListAuditLogs failed: %v", err)
	}
	if len(after) != 1 || after[0].Action != models.ActionPurgeAudit {
		t.Errorf("Expected only the purge entry, got %+v", after)
	}
}
