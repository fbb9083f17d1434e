package access_test

import (
	"testing"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== ROLE PERMISSION MATRIX ==========

func TestResolvePermissionsDefaults(t *testing.T) {
	rp := access.DefaultRolePermissions()

	t.Run("Every role resolves", func(t *testing.T) {
		for _, role := range access.Roles {
			_, err := access.ResolvePermissions(role, rp)
			assert.NoError(t, err, "role %s", role)
			assert.NotEmpty(t, role.Label())
		}
	})

	t.Run("Super admin has everything", func(t *testing.T) {
		perms, err := access.ResolvePermissions(access.SuperAdmin, rp)
		require.NoError(t, err)
		for _, a := range access.Actions {
			assert.True(t, perms.CreditCards.Allows(a))
			assert.True(t, perms.LoanDisbursement.Allows(a))
		}
	})

	t.Run("DSA partner loans are view only", func(t *testing.T) {
		perms, err := access.ResolvePermissions(access.DSAPartner, rp)
		require.NoError(t, err)
		assert.Equal(t, access.Permission{View: true}, perms.LoanDisbursement)
	})

	t.Run("Manager loans are view and edit", func(t *testing.T) {
		perms, err := access.ResolvePermissions(access.Manager, rp)
		require.NoError(t, err)
		assert.Equal(t, access.Permission{View: true, Edit: true}, perms.LoanDisbursement)
		assert.Equal(t, access.Permission{View: true}, perms.CreditCards)
	})

	t.Run("Admin cannot delete", func(t *testing.T) {
		perms, err := access.ResolvePermissions(access.Admin, rp)
		require.NoError(t, err)
		assert.False(t, perms.CreditCards.Delete)
		assert.True(t, perms.CreditCards.Add)
	})

	t.Run("Unknown role is an error", func(t *testing.T) {
		_, err := access.ResolvePermissions(access.Role("auditor"), rp)
		assert.ErrorIs(t, err, access.ErrUnknownRole)
	})
}

func TestSetRolePermission(t *testing.T) {
	t.Run("Super admin can toggle", func(t *testing.T) {
		rp := access.DefaultRolePermissions()
		err := access.SetRolePermission(&rp, access.SuperAdmin, access.Employee, access.CreditCards, access.Add, true)
		require.NoError(t, err)
		assert.True(t, rp.Employee.CreditCards.Add)
		// other cells untouched
		assert.False(t, rp.Employee.CreditCards.Delete)
		assert.False(t, rp.Manager.CreditCards.Add)
	})

	t.Run("Admin cannot toggle", func(t *testing.T) {
		rp := access.DefaultRolePermissions()
		err := access.SetRolePermission(&rp, access.Admin, access.Employee, access.CreditCards, access.Add, true)
		assert.ErrorIs(t, err, access.ErrForbidden)
		assert.False(t, rp.Employee.CreditCards.Add)
	})

	t.Run("Unknown module", func(t *testing.T) {
		rp := access.DefaultRolePermissions()
		err := access.SetRolePermission(&rp, access.SuperAdmin, access.Employee, access.Module("payouts"), access.Add, true)
		assert.ErrorIs(t, err, access.ErrUnknownModule)
	})
}

// ========== MODULE ACCESS ==========

func TestResolveModuleVisibility(t *testing.T) {
	table := access.AccessTable{
		1: {CreditCards: true, LoanDisbursement: false},
	}

	assert.Equal(t, access.ModuleAccess{CreditCards: true}, access.ResolveModuleVisibility(1, table))
	assert.Equal(t, access.ModuleAccess{}, access.ResolveModuleVisibility(42, table))
	assert.Equal(t, access.ModuleAccess{}, access.ResolveModuleVisibility(1, nil))
}

func TestSetModuleAccess(t *testing.T) {
	table := access.AccessTable{}

	next, err := access.SetModuleAccess(table, access.Admin, 7, access.LoanDisbursement, true)
	require.NoError(t, err)
	assert.Equal(t, access.ModuleAccess{LoanDisbursement: true}, next)
	assert.Equal(t, next, table[7])

	_, err = access.SetModuleAccess(table, access.Manager, 7, access.CreditCards, true)
	assert.ErrorIs(t, err, access.ErrForbidden)
	assert.False(t, table[7].CreditCards)
}

// ========== FIELD PERMISSIONS ==========

func TestToggleFieldPermissionCoupling(t *testing.T) {
	t.Run("Enabling edit forces view", func(t *testing.T) {
		table := access.FieldTable{3: {"Loan Amount": {View: false, Edit: false}}}
		got, err := access.ToggleFieldPermission(table, 3, "Loan Amount", access.FieldEdit)
		require.NoError(t, err)
		assert.Equal(t, access.FieldPermission{View: true, Edit: true}, got)
	})

	t.Run("Disabling view forces edit off", func(t *testing.T) {
		table := access.FieldTable{3: {"Loan Amount": {View: true, Edit: true}}}
		got, err := access.ToggleFieldPermission(table, 3, "Loan Amount", access.FieldView)
		require.NoError(t, err)
		assert.Equal(t, access.FieldPermission{}, got)
		assert.Equal(t, got, table[3]["Loan Amount"])
	})

	t.Run("Disabling edit keeps view", func(t *testing.T) {
		table := access.FieldTable{3: {"PDD Status": {View: true, Edit: true}}}
		got, err := access.ToggleFieldPermission(table, 3, "PDD Status", access.FieldEdit)
		require.NoError(t, err)
		assert.Equal(t, access.FieldPermission{View: true}, got)
	})

	t.Run("Missing user starts from nothing", func(t *testing.T) {
		table := access.FieldTable{}
		got, err := access.ToggleFieldPermission(table, 9, "RC Number", access.FieldView)
		require.NoError(t, err)
		assert.Equal(t, access.FieldPermission{View: true}, got)
	})

	t.Run("Unknown field", func(t *testing.T) {
		_, err := access.ToggleFieldPermission(access.FieldTable{}, 9, "Salary", access.FieldView)
		assert.ErrorIs(t, err, access.ErrUnknownField)
	})
}

func TestResolveFieldPermissionDefaultsClosed(t *testing.T) {
	assert.Equal(t, access.FieldPermission{}, access.ResolveFieldPermission(1, "Loan Amount", nil))
	assert.Equal(t, access.FieldPermission{}, access.ResolveFieldPermission(1, "Loan Amount", access.FieldTable{1: {}}))
}

func TestDefaultFieldPermissions(t *testing.T) {
	admin := access.DefaultFieldPermissions(access.Admin)
	manager := access.DefaultFieldPermissions(access.Manager)

	assert.Len(t, admin, len(access.ManagedFields))
	for _, f := range access.ManagedFields {
		assert.Equal(t, access.FieldPermission{View: true, Edit: true}, admin[f])
		assert.Equal(t, access.FieldPermission{View: true}, manager[f])
	}
	assert.Nil(t, access.DefaultFieldPermissions(access.Employee))
	assert.Nil(t, access.DefaultFieldPermissions(access.SuperAdmin))
}

func TestNormalizeFieldPermissions(t *testing.T) {
	out, err := access.NormalizeFieldPermissions(map[string]access.FieldPermission{
		"Loan Amount": {Edit: true},
	})
	require.NoError(t, err)
	assert.Equal(t, access.FieldPermission{View: true, Edit: true}, out["Loan Amount"])
	assert.Equal(t, access.FieldPermission{}, out["Customer Name"])

	_, err = access.NormalizeFieldPermissions(map[string]access.FieldPermission{"Bogus": {View: true}})
	assert.ErrorIs(t, err, access.ErrUnknownField)
}

// ========== SESSION ==========

func TestSessionFailClosed(t *testing.T) {
	rp := access.DefaultRolePermissions()

	s, err := access.NewSession(5, access.SuperAdmin, rp, access.AccessTable{}, nil)
	require.NoError(t, err)

	assert.False(t, s.Can(access.CreditCards, access.View))
	assert.False(t, s.Can(access.LoanDisbursement, access.View))

	var labels []string
	for _, item := range s.NavItems() {
		labels = append(labels, item.Label)
	}
	assert.NotContains(t, labels, "Credit Cards")
	assert.NotContains(t, labels, "Loan Disbursement")
	assert.Contains(t, labels, "Permissions")
}

func TestSessionCan(t *testing.T) {
	rp := access.DefaultRolePermissions()
	at := access.AccessTable{2: {CreditCards: true, LoanDisbursement: true}}

	s, err := access.NewSession(2, access.Manager, rp, at, access.FieldTable{
		2: {"Loan Amount": {View: true}},
	})
	require.NoError(t, err)

	assert.True(t, s.Can(access.LoanDisbursement, access.Edit))
	assert.False(t, s.Can(access.LoanDisbursement, access.Add))
	assert.False(t, s.Can(access.CreditCards, access.Edit))
	assert.True(t, s.FieldRestricted())
	assert.True(t, s.CanViewField("Loan Amount"))
	assert.False(t, s.CanEditField("Loan Amount"))
	assert.False(t, s.CanViewField("Customer Name"))

	emp, err := access.NewSession(3, access.Employee, rp, at, nil)
	require.NoError(t, err)
	assert.False(t, emp.FieldRestricted())
	assert.True(t, emp.CanEditField("Customer Name"))
	assert.Empty(t, emp.Fields)
}

func TestRoleFromEmployeeType(t *testing.T) {
	assert.Equal(t, access.SuperAdmin, access.RoleFromEmployeeType("ADMIN"))
	assert.Equal(t, access.DSAPartner, access.RoleFromEmployeeType("dsa"))
	assert.Equal(t, access.Employee, access.RoleFromEmployeeType("DST"))
	assert.Equal(t, access.Employee, access.RoleFromEmployeeType("contractor"))
}

func TestParseRole(t *testing.T) {
	r, err := access.ParseRole("team_leader")
	require.NoError(t, err)
	assert.Equal(t, "Team Leader", r.Label())

	_, err = access.ParseRole("root")
	assert.ErrorIs(t, err, access.ErrUnknownRole)
}
