package models

import "time"

// Client is a borrower
type Client struct {
	ID           string    `json:"id"`
	ClientNumber string    `json:"clientNumber"`
	Name         string    `json:"name"`
	Cedula       string    `json:"cedula"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	Sex          string    `json:"sex"`
	Branch       *string   `json:"sucursal"`
	CreatedAt    time.Time `json:"createdAt"`
}
