package service

import (
	"context"
	"testing"

	"github.com/credinica/loan-service/internal/models"
)

func TestSetupAndLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Setup(ctx, SetupInput{FullName: "Ana Admin", Email: "admin@credinica.ni", Password: "corta"})
	assertKind(t, err, KindValidation)

	admin, err := svc.Setup(ctx, SetupInput{FullName: "Ana Admin", Email: " ADMIN@credinica.ni ", Password: testPassword})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if admin.Role != models.RoleAdministrador || admin.Email != "admin@credinica.ni" {
		t.Errorf("Expected administrator admin@credinica.ni, got %s %s", admin.Role, admin.Email)
	}
	if admin.BranchName == nil || *admin.BranchName != mainBranchName {
		t.Errorf("Expected branch %s, got %v", mainBranchName, admin.BranchName)
	}

	_, err = svc.Setup(ctx, SetupInput{FullName: "Otro", Email: "otro@credinica.ni", Password: testPassword})
	assertKind(t, err, KindConflict)

	_, err = svc.Login(ctx, "admin@credinica.ni", "incorrecta")
	assertKind(t, err, KindUnauthorized)
	_, err = svc.Login(ctx, "nadie@credinica.ni", testPassword)
	assertKind(t, err, KindUnauthorized)

	result, err := svc.Login(ctx, "Admin@Credinica.ni", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	session, err := svc.Tokens().Parse(result.Token)
	if err != nil {
		t.Fatalf("Failed to parse issued token: %v", err)
	}
	if session.UserID != admin.ID || session.Role != models.RoleAdministrador {
		t.Errorf("Expected session for %s, got %+v", admin.ID, session)
	}

	branches, err := svc.ListBranches(ctx, session)
	if err != nil {
		t.Fatalf("ListBranches failed: %v", err)
	}
	if len(branches) != 1 {
		t.Errorf("Expected 1 branch, got %d", len(branches))
	}
}

func TestUserManagement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := UserInput{FullName: "Carlos Cobrador", Email: "carlos@credinica.ni", Password: "temporal123", Role: "gestor"}
	_, err := env.svc.CreateUser(ctx, env.operativo, in)
	assertKind(t, err, KindForbidden)

	user, err := env.svc.CreateUser(ctx, env.admin, in)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.Role != models.RoleGestor || !user.MustChangePassword || !user.Active {
		t.Errorf("Expected an active GESTOR that must change password, got %+v", user)
	}

	_, err = env.svc.CreateUser(ctx, env.admin, in)
	assertKind(t, err, KindConflict)
	bad := in
	bad.Role = "CAJERO"
	bad.Email = "cajero@credinica.ni"
	_, err = env.svc.CreateUser(ctx, env.admin, bad)
	assertKind(t, err, KindValidation)

	login, err := env.svc.Login(ctx, "carlos@credinica.ni", "temporal123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !login.User.MustChangePassword {
		t.Error("Expected must-change-password on first login")
	}
	session := sessionOf(login.User)

	_, err = env.svc.ChangePassword(ctx, session, "equivocada", "nueva-clave-1")
	assertKind(t, err, KindValidation)
	changed, err := env.svc.ChangePassword(ctx, session, "temporal123", "nueva-clave-1")
	if err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}
	if changed.User.MustChangePassword || changed.Token == "" {
		t.Error("Expected the flag cleared and a fresh token")
	}
	if _, err := env.svc.Login(ctx, "carlos@credinica.ni", "nueva-clave-1"); err != nil {
		t.Errorf("Expected login with the new password, got %v", err)
	}

	_, err = env.svc.ResetPassword(ctx, session, user.ID)
	assertKind(t, err, KindForbidden)
	temp, err := env.svc.ResetPassword(ctx, env.admin, user.ID)
	if err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	reset, err := env.svc.Login(ctx, "carlos@credinica.ni", temp)
	if err != nil {
		t.Fatalf("Login with temporary password failed: %v", err)
	}
	if !reset.User.MustChangePassword {
		t.Error("Expected must-change-password after a reset")
	}

	inactive := false
	in.Active = &inactive
	if _, err := env.svc.UpdateUser(ctx, env.admin, user.ID, in); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	_, err = env.svc.Login(ctx, "carlos@credinica.ni", temp)
	assertKind(t, err, KindUnauthorized)

	err = env.svc.DeleteUser(ctx, env.admin, env.admin.UserID)
	assertKind(t, err, KindConflict)
	if err := env.svc.DeleteUser(ctx, env.admin, user.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	err = env.svc.DeleteUser(ctx, env.admin, user.ID)
	assertKind(t, err, KindNotFound)
}
