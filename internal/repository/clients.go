package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/credinica/loan-service/internal/models"
	"github.com/google/uuid"
)

const clientColumns = `id, client_number, name, cedula, phone, address, sex, sucursal_id, created_at`

func scanClient(row rowScanner) (*models.Client, error) {
	c := &models.Client{}
	if err := row.Scan(&c.ID, &c.ClientNumber, &c.Name, &c.Cedula, &c.Phone, &c.Address, &c.Sex, &c.Branch, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateClient inserts a client. ClientNumber must already be allocated.
func (r *Repository) CreateClient(ctx context.Context, c *models.Client) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	query := `INSERT INTO clients (` + clientColumns + `) VALUES ` + placeholders(1, 9)
	_, err := r.exec(ctx, query, c.ID, c.ClientNumber, c.Name, c.Cedula, c.Phone, c.Address, c.Sex, c.Branch, c.CreatedAt)
	if err != nil {
		return wrap(err, "create client")
	}
	return nil
}

// UpdateClient writes the editable fields of a client.
func (r *Repository) UpdateClient(ctx context.Context, c *models.Client) error {
	res, err := r.exec(ctx, `UPDATE clients SET name = ?, cedula = ?, phone = ?, address = ?, sex = ?, sucursal_id = ?
		WHERE id = ?`, c.Name, c.Cedula, c.Phone, c.Address, c.Sex, c.Branch, c.ID)
	if err != nil {
		return wrap(err, "update client")
	}
	return affectedOne(res, "update client")
}

// GetClient retrieves a client by id.
func (r *Repository) GetClient(ctx context.Context, id string) (*models.Client, error) {
	c, err := scanClient(r.queryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id))
	if err != nil {
		return nil, wrap(err, "get client")
	}
	return c, nil
}

// ListClients returns clients ordered by name, optionally filtered by a search
// term matched against name, cedula and client number.
func (r *Repository) ListClients(ctx context.Context, search string) ([]models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients`
	var args []any
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query += ` WHERE LOWER(name) LIKE ? OR cedula LIKE ? OR LOWER(client_number) LIKE ?`
		args = append(args, like, like, like)
	}
	query += ` ORDER BY name`

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, wrap(err, "list clients")
	}
	defer rows.Close()

	clients := []models.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

// DeleteClient removes a client. Callers check that it owns no credits first.
func (r *Repository) DeleteClient(ctx context.Context, id string) error {
	res, err := r.exec(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return wrap(err, "delete client")
	}
	return affectedOne(res, "delete client")
}
