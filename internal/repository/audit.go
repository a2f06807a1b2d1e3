package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/credinica/loan-service/internal/models"
	"github.com/google/uuid"
)

// CreateAuditLog inserts an audit entry.
func (r *Repository) CreateAuditLog(ctx context.Context, l *models.AuditLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now()
	}
	var changes, target any
	if len(l.Changes) > 0 {
		changes = string(l.Changes)
	}
	if l.TargetID != "" {
		target = l.TargetID
	}
	_, err := r.exec(ctx, `INSERT INTO audit_logs (id, ts, user_id, user_name, action, details, target_id, changes)
		VALUES `+placeholders(1, 8), l.ID, l.Timestamp.UTC(), l.UserID, l.UserName, l.Action, l.Details, target, changes)
	if err != nil {
		return wrap(err, "create audit log")
	}
	return nil
}

// ListAuditLogs returns the most recent audit entries, newest first.
func (r *Repository) ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error) {
	rows, err := r.query(ctx, `SELECT id, ts, user_id, user_name, action, details, target_id, changes
		FROM audit_logs ORDER BY ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, wrap(err, "list audit logs")
	}
	defer rows.Close()

	logs := []models.AuditLog{}
	for rows.Next() {
		var (
			l       models.AuditLog
			target  sql.NullString
			changes sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.UserID, &l.UserName, &l.Action, &l.Details, &target, &changes); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		l.TargetID = target.String
		if changes.Valid && changes.String != "" {
			l.Changes = []byte(changes.String)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// PurgeAuditLogs deletes every audit entry and returns how many were removed.
func (r *Repository) PurgeAuditLogs(ctx context.Context) (int64, error) {
	res, err := r.exec(ctx, `DELETE FROM audit_logs`)
	if err != nil {
		return 0, wrap(err, "purge audit logs")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit logs: %w", err)
	}
	return n, nil
}
