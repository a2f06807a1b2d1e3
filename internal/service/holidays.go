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

// HolidayInput adds a non-collection day
type HolidayInput struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

// ListHolidays returns every holiday in date order.
func (s *Service) ListHolidays(ctx context.Context, actor *models.Session) ([]models.Holiday, error) {
	if actor == nil {
		return nil, errUnauthenticated
	}
	holidays, err := s.repo.ListHolidays(ctx)
	if err != nil {
		return nil, s.fail(err, "list holidays", "")
	}
	return holidays, nil
}

// CreateHoliday adds a holiday. New schedules and the next revalidation pick it up.
func (s *Service) CreateHoliday(ctx context.Context, actor *models.Session, in HolidayInput) (*models.Holiday, error) {
	if err := s.authorize(actor, models.ActionManageHolidays); err != nil {
		return nil, err
	}
	date, err := utils.ParseDate(in.Date)
	if err != nil {
		return nil, invalid("Fecha de feriado inválida.")
	}
	holiday := &models.Holiday{Date: date, Description: strings.TrimSpace(in.Description)}
	if holiday.Description == "" {
		return nil, invalid("La descripción del feriado es obligatoria.")
	}

	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		if err := tx.CreateHoliday(ctx, holiday); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return conflict("Ya existe un feriado en esa fecha.")
			}
			return err
		}
		details := fmt.Sprintf("Agregó el feriado %s (%s).", holiday.Date.Format("2006-01-02"), holiday.Description)
		return s.audit(ctx, tx, actor, models.ActionManageHolidays, details, holiday.ID, nil)
	})
	if err != nil {
		return nil, s.fail(err, "create holiday", "")
	}
	s.log.Infof("Holiday %s added by %s", holiday.Date.Format("2006-01-02"), actor.FullName)
	return holiday, nil
}

// DeleteHoliday removes a holiday.
func (s *Service) DeleteHoliday(ctx context.Context, actor *models.Session, id string) error {
	if err := s.authorize(actor, models.ActionManageHolidays); err != nil {
		return err
	}
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		if err := tx.DeleteHoliday(ctx, id); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, models.ActionManageHolidays, "Eliminó un feriado.", id, nil)
	})
	if err != nil {
		return s.fail(err, "delete holiday", "Feriado no encontrado.")
	}
	return nil
}
