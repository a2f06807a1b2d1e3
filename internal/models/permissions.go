package models

// Action names a role-gated operation.
type Action string

const (
	ActionCreateCredit   Action = "credit:create"
	ActionUpdateCredit   Action = "credit:update"
	ActionApproveCredit  Action = "credit:approve"
	ActionRejectCredit   Action = "credit:reject"
	ActionDisburseCredit Action = "credit:disburse"
	ActionRevertCredit   Action = "credit:revert"
	ActionDeleteCredit   Action = "credit:delete"
	ActionCloseCredit    Action = "credit:close"
	ActionRevalidate     Action = "credit:revalidate"
	ActionAddPayment     Action = "payment:create"
	ActionRequestVoid    Action = "payment:void_request"
	ActionApproveVoid    Action = "payment:void_approve"
	ActionManageClients  Action = "client:manage"
	ActionDeleteClient   Action = "client:delete"
	ActionManageUsers    Action = "user:manage"
	ActionManageHolidays Action = "holiday:manage"
	ActionViewReports    Action = "report:view"
	ActionViewAudit      Action = "audit:view"
	ActionPurgeAudit     Action = "system:purge"
)

// Can reports whether role r may perform action a.
func (r Role) Can(a Action) bool {
	switch a {
	case ActionCreateCredit, ActionUpdateCredit, ActionManageClients:
		return r == RoleAdministrador || r == RoleOperativo || r == RoleGestor || r == RoleSupervisor || r == RoleGerente
	case ActionApproveCredit, ActionRejectCredit, ActionDisburseCredit:
		return r == RoleAdministrador || r == RoleGerente || r == RoleSupervisor || r == RoleOperativo
	case ActionRevertCredit:
		return r == RoleAdministrador || r == RoleGerente || r == RoleOperativo
	case ActionAddPayment, ActionRequestVoid:
		return r.IsValid()
	case ActionApproveVoid:
		return r == RoleAdministrador || r == RoleGerente || r == RoleFinanzas
	case ActionViewReports:
		return r == RoleAdministrador || r == RoleGerente || r == RoleSupervisor || r == RoleFinanzas || r == RoleOperativo
	case ActionManageHolidays, ActionViewAudit, ActionCloseCredit:
		return r == RoleAdministrador || r == RoleGerente
	case ActionDeleteCredit, ActionDeleteClient, ActionManageUsers, ActionRevalidate, ActionPurgeAudit:
		return r == RoleAdministrador
	}
	return false
}
