package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/credinica/loan-service/internal/models"
	"github.com/credinica/loan-service/internal/repository"
)

// RevalidateActiveCredits regenerates the plan of every active credit with the
// current holiday list. Each credit is rewritten in its own transaction; the
// number of credits updated is returned even when one of them fails.
func (s *Service) RevalidateActiveCredits(ctx context.Context, actor *models.Session) (int, error) {
	if err := s.authorize(actor, models.ActionRevalidate); err != nil {
		return 0, err
	}
	credits, err := s.repo.ListCredits(ctx, models.CreditFilter{Status: models.CreditActive})
	if err != nil {
		return 0, s.fail(err, "list active credits", "")
	}

	updated := 0
	for _, credit := range credits {
		ok, err := s.revalidateCredit(ctx, credit.ID)
		if err != nil {
			return updated, s.fail(fmt.Errorf("credit %s: %w", credit.CreditNumber, err), "revalidate credit", "")
		}
		if ok {
			updated++
		}
	}

	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		return s.audit(ctx, tx, actor, models.ActionRevalidate, fmt.Sprintf("Revalidó el plan de pagos de %d créditos activos.", updated), "", nil)
	})
	if err != nil {
		return updated, s.fail(err, "audit revalidation", "")
	}
	s.log.Infof("Revalidated %d active credits", updated)
	return updated, nil
}

// revalidateCredit regenerates the plan of one credit from a locked, fresh
// read. Credits that stopped being Active since the listing are skipped.
func (s *Service) revalidateCredit(ctx context.Context, id string) (bool, error) {
	updated := false
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		credit, err := tx.GetCreditForUpdate(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if credit.Status != models.CreditActive {
			return nil
		}
		schedule, err := s.generateSchedule(ctx, tx, credit)
		if err != nil {
			return err
		}
		if err := tx.ReplacePaymentPlan(ctx, credit.ID, schedule.Entries); err != nil {
			return err
		}
		if err := tx.UpdateCredit(ctx, credit); err != nil {
			return err
		}
		updated = true
		return nil
	})
	return updated, err
}
