package auth

import (
	"testing"

	"lims-backend/internal/models"
)

func TestHasPermission(t *testing.T) {
	cases := []struct {
		name   string
		role   string
		module string
		action string
		want   bool
	}{
		{"admin wildcard covers any module", models.RoleAdmin, "tests", ActionDelete, true},
		{"admin wildcard covers verify", models.RoleAdmin, "reports", ActionVerify, true},
		{"pathologist verifies reports", models.RolePathologist, "reports", ActionVerify, true},
		{"pathologist cannot delete tests", models.RolePathologist, "tests", ActionDelete, false},
		{"pathologist cannot create invoices", models.RolePathologist, "invoices", ActionCreate, false},
		{"technician updates stock", models.RoleTechnician, "stock", ActionUpdate, true},
		{"technician cannot verify reports", models.RoleTechnician, "reports", ActionVerify, false},
		{"receptionist creates invoices", models.RoleReceptionist, "invoices", ActionCreate, true},
		{"receptionist cannot update reports", models.RoleReceptionist, "reports", ActionUpdate, false},
		{"unknown role denied", "janitor", "dashboard", ActionView, false},
		{"unknown module denied", models.RoleTechnician, "payments", ActionView, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasPermission(tc.role, tc.module, tc.action); got != tc.want {
				t.Errorf("HasPermission(%q, %q, %q) = %v, want %v",
					tc.role, tc.module, tc.action, got, tc.want)
			}
		})
	}
}
