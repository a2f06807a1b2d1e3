package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/credinica/loan-service/internal/models"
	"github.com/credinica/loan-service/internal/repository"
	"github.com/credinica/loan-service/internal/utils"
)

const (
	clientPrefix    = "CLI"
	msgClientGone   = "Cliente no encontrado."
	msgCedulaExists = "Ya existe un cliente con esa cédula."
)

// ClientInput creates or edits a borrower
type ClientInput struct {
	Name    string  `json:"name"`
	Cedula  string  `json:"cedula"`
	Phone   string  `json:"phone"`
	Address string  `json:"address"`
	Sex     string  `json:"sex"`
	Branch  *string `json:"sucursal"`
}

func (in *ClientInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Cedula = strings.ToUpper(strings.TrimSpace(in.Cedula))
	if in.Name == "" || in.Cedula == "" {
		return invalid("Nombre y cédula del cliente son obligatorios.")
	}
	return nil
}

func duplicateCedula(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return conflict(msgCedulaExists)
	}
	return err
}

// CreateClient registers a borrower with the next CLI number.
func (s *Service) CreateClient(ctx context.Context, actor *models.Session, in ClientInput) (*models.Client, error) {
	if err := s.authorize(actor, models.ActionManageClients); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	client := &models.Client{
		Name:    in.Name,
		Cedula:  in.Cedula,
		Phone:   in.Phone,
		Address: in.Address,
		Sex:     in.Sex,
		Branch:  in.Branch,
	}
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		seq, err := tx.NextSequenceValue(ctx, repository.CounterClientNumber)
		if err != nil {
			return err
		}
		client.ClientNumber = utils.FormatSequence(clientPrefix, seq)
		if err := tx.CreateClient(ctx, client); err != nil {
			return duplicateCedula(err)
		}
		details := fmt.Sprintf("Creó el cliente %s (%s).", client.Name, client.ClientNumber)
		return s.audit(ctx, tx, actor, models.ActionManageClients, details, client.ID, nil)
	})
	if err != nil {
		return nil, s.fail(err, "create client", "")
	}
	s.log.Infof("Client %s created by %s", client.ClientNumber, actor.FullName)
	return client, nil
}

// UpdateClient edits a borrower's personal data.
func (s *Service) UpdateClient(ctx context.Context, actor *models.Session, id string, in ClientInput) (*models.Client, error) {
	if err := s.authorize(actor, models.ActionManageClients); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var client *models.Client
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		var err error
		if client, err = tx.GetClient(ctx, id); err != nil {
			return err
		}
		client.Name = in.Name
		client.Cedula = in.Cedula
		client.Phone = in.Phone
		client.Address = in.Address
		client.Sex = in.Sex
		client.Branch = in.Branch
		if err := tx.UpdateClient(ctx, client); err != nil {
			return duplicateCedula(err)
		}
		return s.audit(ctx, tx, actor, models.ActionManageClients, fmt.Sprintf("Actualizó el cliente %s.", client.ClientNumber), client.ID, in)
	})
	if err != nil {
		return nil, s.fail(err, "update client", msgClientGone)
	}
	return client, nil
}

// GetClient returns one borrower.
func (s *Service) GetClient(ctx context.Context, actor *models.Session, id string) (*models.Client, error) {
	if actor == nil {
		return nil, errUnauthenticated
	}
	client, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return nil, s.fail(err, "get client", msgClientGone)
	}
	return client, nil
}

// ListClients returns borrowers, optionally narrowed by name, cedula or number.
func (s *Service) ListClients(ctx context.Context, actor *models.Session, search string) ([]models.Client, error) {
	if actor == nil {
		return nil, errUnauthenticated
	}
	clients, err := s.repo.ListClients(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, s.fail(err, "list clients", "")
	}
	return clients, nil
}

// ClientCredits returns every credit of a borrower.
func (s *Service) ClientCredits(ctx context.Context, actor *models.Session, clientID string) ([]models.Credit, error) {
	if actor == nil {
		return nil, errUnauthenticated
	}
	credits, err := s.repo.ListCredits(ctx, models.CreditFilter{ClientID: clientID})
	if err != nil {
		return nil, s.fail(err, "list client credits", "")
	}
	return credits, nil
}

// DeleteClient removes a borrower that has never had a credit.
func (s *Service) DeleteClient(ctx context.Context, actor *models.Session, id string) error {
	if err := s.authorize(actor, models.ActionDeleteClient); err != nil {
		return err
	}
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		client, err := tx.GetClient(ctx, id)
		if err != nil {
			return err
		}
		n, err := tx.CountCreditsByClient(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return conflict("No se puede eliminar un cliente con créditos registrados.")
		}
		if err := tx.DeleteClient(ctx, id); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, models.ActionDeleteClient, fmt.Sprintf("Eliminó el cliente %s (%s).", client.Name, client.ClientNumber), id, nil)
	})
	if err != nil {
		return s.fail(err, "delete client", msgClientGone)
	}
	s.log.Infof("Client %s deleted by %s", id, actor.FullName)
	return nil
}
