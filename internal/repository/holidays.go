package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/credinica/loan-service/internal/models"
	"github.com/credinica/loan-service/internal/utils"
	"github.com/google/uuid"
)

// ListHolidays returns all holidays in date order.
func (r *Repository) ListHolidays(ctx context.Context) ([]models.Holiday, error) {
	rows, err := r.query(ctx, `SELECT id, date, description FROM holidays ORDER BY date`)
	if err != nil {
		return nil, wrap(err, "list holidays")
	}
	defer rows.Close()

	holidays := []models.Holiday{}
	for rows.Next() {
		var h models.Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Description); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		h.Date = utils.DateOnly(h.Date.UTC())
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// HolidayDates returns just the dates of all holidays.
func (r *Repository) HolidayDates(ctx context.Context) ([]time.Time, error) {
	holidays, err := r.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}
	dates := make([]time.Time, len(holidays))
	for i, h := range holidays {
		dates[i] = h.Date
	}
	return dates, nil
}

// CreateHoliday inserts a holiday. A second holiday on the same date is ErrDuplicate.
func (r *Repository) CreateHoliday(ctx context.Context, h *models.Holiday) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	h.Date = utils.DateOnly(h.Date)
	if _, err := r.exec(ctx, `INSERT INTO holidays (id, date, description) VALUES (?, ?, ?)`, h.ID, h.Date, h.Description); err != nil {
		return wrap(err, "create holiday")
	}
	return nil
}

// DeleteHoliday removes a holiday.
func (r *Repository) DeleteHoliday(ctx context.Context, id string) error {
	res, err := r.exec(ctx, `DELETE FROM holidays WHERE id = ?`, id)
	if err != nil {
		return wrap(err, "delete holiday")
	}
	return affectedOne(res, "delete holiday")
}
