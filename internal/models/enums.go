package models

import (
	"fmt"
	"strings"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleAdministrador Role = "ADMINISTRADOR"
	RoleOperativo     Role = "OPERATIVO"
	RoleGestor        Role = "GESTOR"
	RoleSupervisor    Role = "SUPERVISOR"
	RoleGerente       Role = "GERENTE"
	RoleFinanzas      Role = "FINANZAS"
)

// Roles lists every known role.
var Roles = []Role{RoleAdministrador, RoleOperativo, RoleGestor, RoleSupervisor, RoleGerente, RoleFinanzas}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdministrador, RoleOperativo, RoleGestor, RoleSupervisor, RoleGerente, RoleFinanzas:
		return true
	}
	return false
}

// ParseRole normalizes and validates a role string.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// AutoApproves reports whether credits created by this role skip the approval queue.
func (r Role) AutoApproves() bool {
	switch r {
	case RoleAdministrador, RoleOperativo:
		return true
	case RoleGestor, RoleSupervisor, RoleGerente, RoleFinanzas:
		return false
	}
	return false
}

// CreditStatus is the lifecycle state of a credit.
type CreditStatus string

const (
	CreditPending   CreditStatus = "Pending"
	CreditApproved  CreditStatus = "Approved"
	CreditActive    CreditStatus = "Active"
	CreditRejected  CreditStatus = "Rejected"
	CreditPaid      CreditStatus = "Paid"
	CreditFallecido CreditStatus = "Fallecido"
)

// IsValid reports whether s is a known credit status
func (s CreditStatus) IsValid() bool {
	switch s {
	case CreditPending, CreditApproved, CreditActive, CreditRejected, CreditPaid, CreditFallecido:
		return true
	}
	return false
}

// KeepsApproval reports whether a generic patch may set this status without
// sending the credit back to the approval queue.
func (s CreditStatus) KeepsApproval() bool {
	switch s {
	case CreditActive, CreditRejected, CreditFallecido, CreditApproved:
		return true
	case CreditPending, CreditPaid:
		return false
	}
	return false
}

// CanTransition reports whether a credit may move from s to next.
// Moves are one-directional except Active->Approved (revert) and Paid->Active (void).
func (s CreditStatus) CanTransition(next CreditStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case CreditPending:
		return next == CreditApproved || next == CreditRejected
	case CreditApproved:
		return next == CreditActive || next == CreditRejected || next == CreditPending
	case CreditActive:
		return next == CreditApproved || next == CreditPaid || next == CreditFallecido
	case CreditPaid:
		return next == CreditActive
	case CreditRejected:
		return next == CreditPending
	case CreditFallecido:
		return false
	}
	return false
}

// PaymentStatus is the state of a registered payment.
type PaymentStatus string

const (
	PaymentValido             PaymentStatus = "VALIDO"
	PaymentAnulacionPendiente PaymentStatus = "ANULACION_PENDIENTE"
	PaymentAnulado            PaymentStatus = "ANULADO"
)

// CountsTowardBalance reports whether the payment reduces the credit balance.
func (s PaymentStatus) CountsTowardBalance() bool {
	switch s {
	case PaymentValido:
		return true
	case PaymentAnulacionPendiente, PaymentAnulado:
		return false
	}
	return false
}

// PaymentFrequency is how often installments fall due.
type PaymentFrequency string

const (
	FrequencyDiario     PaymentFrequency = "Diario"
	FrequencySemanal    PaymentFrequency = "Semanal"
	FrequencyCatorcenal PaymentFrequency = "Catorcenal"
	FrequencyQuincenal  PaymentFrequency = "Quincenal"
)

// InstallmentsPerMonth returns how many installments fall in one month,
// or 0 for an unknown frequency.
func (f PaymentFrequency) InstallmentsPerMonth() int {
	switch f {
	case FrequencyDiario:
		return 20
	case FrequencySemanal:
		return 4
	case FrequencyCatorcenal:
		return 2
	case FrequencyQuincenal:
		return 2
	}
	return 0
}

// IsValid reports whether f is a supported frequency
func (f PaymentFrequency) IsValid() bool {
	return f.InstallmentsPerMonth() > 0
}
