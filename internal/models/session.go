package models

// Session identifies the authenticated staff member behind a request
type Session struct {
	UserID             string `json:"userId"`
	Role               Role   `json:"role"`
	FullName           string `json:"fullName"`
	Email              string `json:"email"`
	MustChangePassword bool   `json:"mustChangePassword"`
}
