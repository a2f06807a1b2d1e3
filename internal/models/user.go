package models

import "time"

// User represents a staff member in the system
type User struct {
	ID                 string    `json:"id"`
	FullName           string    `json:"fullName"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"` // Not serialized
	Phone              *string   `json:"phone"`
	Role               Role      `json:"role"`
	BranchID           *string   `json:"sucursal"`
	BranchName         *string   `json:"sucursalName"`
	Active             bool      `json:"active"`
	SupervisorID       *string   `json:"supervisorId"`
	SupervisorName     *string   `json:"supervisorName"`
	MustChangePassword bool      `json:"mustChangePassword"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Branch is a sucursal
type Branch struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
