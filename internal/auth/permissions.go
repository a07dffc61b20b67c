package auth

import "lims-backend/internal/models"

// Permission actions
const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionVerify = "verify"
)

// rolePermissions maps role -> module -> allowed actions. The domain
// engine never consults this; handlers check it before invoking a
// mutating operation.
var rolePermissions = map[string]map[string][]string{
	models.RoleAdmin: {
		"*": {ActionView, ActionCreate, ActionUpdate, ActionDelete, ActionVerify},
	},
	models.RolePathologist: {
		"reports":   {ActionView, ActionUpdate, ActionVerify},
		"tests":     {ActionView},
		"invoices":  {ActionView},
		"patients":  {ActionView},
		"doctors":   {ActionView},
		"dashboard": {ActionView},
	},
	models.RoleTechnician: {
		"reports":   {ActionView, ActionUpdate},
		"tests":     {ActionView},
		"stock":     {ActionView, ActionCreate, ActionUpdate},
		"dashboard": {ActionView},
	},
	models.RoleReceptionist: {
		"patients":  {ActionView, ActionCreate, ActionUpdate},
		"doctors":   {ActionView, ActionCreate},
		"invoices":  {ActionView, ActionCreate, ActionUpdate},
		"payments":  {ActionView, ActionCreate},
		"reports":   {ActionView},
		"tests":     {ActionView},
		"dashboard": {ActionView},
	},
}

// HasPermission is the single capability query consumed before mutating
// operations: does this role carry this action on this module?
func HasPermission(role, module, action string) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, m := range []string{"*", module} {
		for _, a := range perms[m] {
			if a == action {
				return true
			}
		}
	}
	return false
}
