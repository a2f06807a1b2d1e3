package service

import (
	"context"
	"fmt"

	"github.com/credinica/loan-service/internal/models"
	"github.com/credinica/loan-service/internal/repository"
)

const (
	defaultAuditLimit = 200
	maxAuditLimit     = 1000
)

// ListAuditLogs returns the newest audit entries. limit defaults to 200.
func (s *Service) ListAuditLogs(ctx context.Context, actor *models.Session, limit int) ([]models.AuditLog, error) {
	if err := s.authorize(actor, models.ActionViewAudit); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	logs, err := s.repo.ListAuditLogs(ctx, limit)
	if err != nil {
		return nil, s.fail(err, "list audit logs", "")
	}
	return logs, nil
}

// PurgeAuditLogs deletes the audit trail and records the purge as its first entry.
func (s *Service) PurgeAuditLogs(ctx context.Context, actor *models.Session) (int64, error) {
	if err := s.authorize(actor, models.ActionPurgeAudit); err != nil {
		return 0, err
	}
	var purged int64
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		var err error
		if purged, err = tx.PurgeAuditLogs(ctx); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, models.ActionPurgeAudit, fmt.Sprintf("Purgó %d registros de auditoría.", purged), "", nil)
	})
	if err != nil {
		return 0, s.fail(err, "purge audit logs", "")
	}
	s.log.Warnf("Audit log purged by %s (%d entries)", actor.FullName, purged)
	return purged, nil
}
