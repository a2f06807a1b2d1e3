package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/credinica/loan-service/internal/models"
	"github.com/credinica/loan-service/internal/repository"
	"github.com/credinica/loan-service/internal/utils"
)

const (
	mainBranchName   = "Sucursal Principal"
	msgUserGone      = "Usuario no encontrado."
	msgBadLogin      = "Correo o contraseña incorrectos."
	msgWeakPassword  = "La contraseña debe tener al menos 8 caracteres."
	msgDuplicateMail = "Ya existe un usuario con ese correo."
)

// SetupInput creates the first administrator of an empty installation.
type SetupInput struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	BranchName string `json:"branchName"`
}

// LoginResult is a successful sign-in.
type LoginResult struct {
	Token     string       `json:"-"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// UserInput creates or edits a staff member. Password is only read on create.
type UserInput struct {
	FullName     string      `json:"fullName"`
	Email        string      `json:"email"`
	Password     string      `json:"password"`
	Phone        *string     `json:"phone"`
	Role         models.Role `json:"role"`
	BranchID     *string     `json:"sucursal"`
	SupervisorID *string     `json:"supervisorId"`
	Active       *bool       `json:"active"`
}

func (in *UserInput) normalize() error {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.FullName == "" || in.Email == "" {
		return invalid("Nombre y correo son obligatorios.")
	}
	role, err := models.ParseRole(string(in.Role))
	if err != nil {
		return invalid("Rol inválido.")
	}
	in.Role = role
	return nil
}

func duplicateEmail(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return conflict(msgDuplicateMail)
	}
	return err
}

// Setup creates the main branch and the first ADMINISTRADOR. It only works
// while the user table is empty.
func (s *Service) Setup(ctx context.Context, in SetupInput) (*models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.FullName == "" || in.Email == "" {
		return nil, invalid("Nombre y correo son obligatorios.")
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, invalid(msgWeakPassword)
	}
	branch := &models.Branch{Name: strings.TrimSpace(in.BranchName)}
	if branch.Name == "" {
		branch.Name = mainBranchName
	}

	user := &models.User{
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         models.RoleAdministrador,
		Active:       true,
	}
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		count, err := tx.CountUsers(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			return conflict("El sistema ya fue configurado.")
		}
		if err := tx.CreateBranch(ctx, branch); err != nil {
			return err
		}
		user.BranchID = &branch.ID
		user.BranchName = &branch.Name
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		actor := &models.Session{UserID: user.ID, FullName: user.FullName, Role: user.Role}
		return s.audit(ctx, tx, actor, models.ActionManageUsers, fmt.Sprintf("Configuró el sistema con el administrador %s.", user.Email), user.ID, nil)
	})
	if err != nil {
		return nil, s.fail(err, "set up first user", "")
	}
	s.log.Infof("Initial administrator %s created", user.Email)
	return user, nil
}

// Login checks the credentials of an active user and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, invalid("Correo y contraseña son obligatorios.")
	}
	user, err := s.repo.FindUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &Error{Kind: KindUnauthorized, Message: msgBadLogin}
	}
	if err != nil {
		return nil, s.fail(err, "find user for login", "")
	}
	if !user.Active || !utils.CheckPassword(user.PasswordHash, password) {
		s.log.WithField("email", email).Warn("Failed login attempt")
		return nil, &Error{Kind: KindUnauthorized, Message: msgBadLogin}
	}

	token, expires, err := s.tokens.Issue(*sessionOf(user))
	if err != nil {
		return nil, s.fail(err, "issue session token", "")
	}
	s.log.Infof("User %s logged in", user.Email)
	return &LoginResult{Token: token, ExpiresAt: expires, User: user}, nil
}

func sessionOf(u *models.User) *models.Session {
	return &models.Session{
		UserID:             u.ID,
		Role:               u.Role,
		FullName:           u.FullName,
		Email:              u.Email,
		MustChangePassword: u.MustChangePassword,
	}
}

// CurrentUser reloads the user behind a session.
func (s *Service) CurrentUser(ctx context.Context, actor *models.Session) (*models.User, error) {
	if actor == nil {
		return nil, errUnauthenticated
	}
	user, err := s.repo.FindUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, s.fail(err, "get current user", msgUserGone)
	}
	return user, nil
}

// ChangePassword replaces the caller's password and clears the must-change flag.
// A fresh token is returned so the session no longer carries the flag.
func (s *Service) ChangePassword(ctx context.Context, actor *models.Session, current, next string) (*LoginResult, error) {
	if actor == nil {
		return nil, errUnauthenticated
	}
	user, err := s.repo.FindUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, s.fail(err, "find user", msgUserGone)
	}
	if !utils.CheckPassword(user.PasswordHash, current) {
		return nil, invalid("La contraseña actual es incorrecta.")
	}
	hash, err := utils.HashPassword(next)
	if err != nil {
		return nil, invalid(msgWeakPassword)
	}

	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		if err := tx.SetPassword(ctx, user.ID, hash, false); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, models.ActionManageUsers, "Cambió su contraseña.", user.ID, nil)
	})
	if err != nil {
		return nil, s.fail(err, "change password", msgUserGone)
	}
	user.MustChangePassword = false

	token, expires, err := s.tokens.Issue(*sessionOf(user))
	if err != nil {
		return nil, s.fail(err, "issue session token", "")
	}
	return &LoginResult{Token: token, ExpiresAt: expires, User: user}, nil
}

// ResetPassword assigns a random temporary password that must be changed on
// next login, and returns it.
func (s *Service) ResetPassword(ctx context.Context, actor *models.Session, userID string) (string, error) {
	if err := s.authorize(actor, models.ActionManageUsers); err != nil {
		return "", err
	}
	temp, err := utils.GenerateTemporaryPassword()
	if err != nil {
		return "", s.fail(err, "generate temporary password", "")
	}
	hash, err := utils.HashPassword(temp)
	if err != nil {
		return "", s.fail(err, "hash temporary password", "")
	}
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		if err := tx.SetPassword(ctx, userID, hash, true); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, models.ActionManageUsers, "Restableció la contraseña de un usuario.", userID, nil)
	})
	if err != nil {
		return "", s.fail(err, "reset password", msgUserGone)
	}
	s.log.Infof("Password of user %s reset by %s", userID, actor.FullName)
	return temp, nil
}

// CreateUser registers a staff member who must change the password on first login.
func (s *Service) CreateUser(ctx context.Context, actor *models.Session, in UserInput) (*models.User, error) {
	if err := s.authorize(actor, models.ActionManageUsers); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, invalid(msgWeakPassword)
	}
	user := &models.User{
		FullName:           in.FullName,
		Email:              in.Email,
		PasswordHash:       hash,
		Phone:              in.Phone,
		Role:               in.Role,
		BranchID:           in.BranchID,
		SupervisorID:       in.SupervisorID,
		Active:             in.Active == nil || *in.Active,
		MustChangePassword: true,
	}
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return duplicateEmail(err)
		}
		details := fmt.Sprintf("Creó el usuario %s con rol %s.", user.Email, user.Role)
		return s.audit(ctx, tx, actor, models.ActionManageUsers, details, user.ID, nil)
	})
	if err != nil {
		return nil, s.fail(err, "create user", "")
	}
	s.log.Infof("User %s created by %s", user.Email, actor.FullName)
	return user, nil
}

// UpdateUser edits a staff member's profile, role, branch and active flag.
func (s *Service) UpdateUser(ctx context.Context, actor *models.Session, id string, in UserInput) (*models.User, error) {
	if err := s.authorize(actor, models.ActionManageUsers); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		var err error
		if user, err = tx.FindUserByID(ctx, id); err != nil {
			return err
		}
		if id == actor.UserID && in.Active != nil && !*in.Active {
			return conflict("No puede desactivar su propio usuario.")
		}
		user.FullName = in.FullName
		user.Email = in.Email
		user.Phone = in.Phone
		user.Role = in.Role
		user.BranchID = in.BranchID
		user.SupervisorID = in.SupervisorID
		if in.Active != nil {
			user.Active = *in.Active
		}
		if err := tx.UpdateUser(ctx, user); err != nil {
			return duplicateEmail(err)
		}
		return s.audit(ctx, tx, actor, models.ActionManageUsers, fmt.Sprintf("Actualizó el usuario %s.", user.Email), user.ID,
			map[string]any{"fullName": user.FullName, "role": user.Role, "active": user.Active, "sucursal": user.BranchID})
	})
	if err != nil {
		return nil, s.fail(err, "update user", msgUserGone)
	}
	return user, nil
}

// DeleteUser removes a staff member. Users cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, actor *models.Session, id string) error {
	if err := s.authorize(actor, models.ActionManageUsers); err != nil {
		return err
	}
	if id == actor.UserID {
		return conflict("No puede eliminar su propio usuario.")
	}
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		if err := tx.DeleteUser(ctx, id); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, models.ActionManageUsers, "Eliminó un usuario.", id, nil)
	})
	if err != nil {
		return s.fail(err, "delete user", msgUserGone)
	}
	s.log.Infof("User %s deleted by %s", id, actor.FullName)
	return nil
}

// ListUsers returns every staff member.
func (s *Service) ListUsers(ctx context.Context, actor *models.Session) ([]models.User, error) {
	if actor == nil {
		return nil, errUnauthenticated
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, s.fail(err, "list users", "")
	}
	return users, nil
}

// ListBranches returns every sucursal.
func (s *Service) ListBranches(ctx context.Context, actor *models.Session) ([]models.Branch, error) {
	if actor == nil {
		return nil, errUnauthenticated
	}
	branches, err := s.repo.ListBranches(ctx)
	if err != nil {
		return nil, s.fail(err, "list branches", "")
	}
	return branches, nil
}

// CreateBranch adds a sucursal.
func (s *Service) CreateBranch(ctx context.Context, actor *models.Session, name string) (*models.Branch, error) {
	if err := s.authorize(actor, models.ActionManageUsers); err != nil {
		return nil, err
	}
	branch := &models.Branch{Name: strings.TrimSpace(name)}
	if branch.Name == "" {
		return nil, invalid("El nombre de la sucursal es obligatorio.")
	}
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		if err := tx.CreateBranch(ctx, branch); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return conflict("Ya existe una sucursal con ese nombre.")
			}
			return err
		}
		return s.audit(ctx, tx, actor, models.ActionManageUsers, fmt.Sprintf("Creó la sucursal %s.", branch.Name), branch.ID, nil)
	})
	if err != nil {
		return nil, s.fail(err, "create branch", "")
	}
	return branch, nil
}
