package access

import "fmt"

// Permission holds the CRUD flags a role has inside one module.
type Permission struct {
	View   bool `json:"view"`
	Edit   bool `json:"edit"`
	Add    bool `json:"add"`
	Delete bool `json:"delete"`
}

func (p Permission) Allows(a Action) bool {
	switch a {
	case View:
		return p.View
	case Edit:
		return p.Edit
	case Add:
		return p.Add
	case Delete:
		return p.Delete
	}
	return false
}

func (p *Permission) set(a Action, value bool) error {
	switch a {
	case View:
		p.View = value
	case Edit:
		p.Edit = value
	case Add:
		p.Add = value
	case Delete:
		p.Delete = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a)
	}
	return nil
}

type ModulePermissions struct {
	CreditCards      Permission `json:"creditCards"`
	LoanDisbursement Permission `json:"loanDisbursement"`
}

func (m ModulePermissions) For(module Module) Permission {
	switch module {
	case CreditCards:
		return m.CreditCards
	case LoanDisbursement:
		return m.LoanDisbursement
	}
	return Permission{}
}

func (m *ModulePermissions) slot(module Module) (*Permission, error) {
	switch module {
	case CreditCards:
		return &m.CreditCards, nil
	case LoanDisbursement:
		return &m.LoanDisbursement, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownModule, module)
}

// RolePermissions is the role permission matrix. It has one field per role
// so a lookup for a known role can never miss.
type RolePermissions struct {
	SuperAdmin ModulePermissions `json:"super_admin"`
	Admin      ModulePermissions `json:"admin"`
	Manager    ModulePermissions `json:"manager"`
	TeamLeader ModulePermissions `json:"team_leader"`
	Employee   ModulePermissions `json:"employee"`
	DSAPartner ModulePermissions `json:"dsa_partner"`
}

func (rp *RolePermissions) slot(role Role) (*ModulePermissions, error) {
	switch role {
	case SuperAdmin:
		return &rp.SuperAdmin, nil
	case Admin:
		return &rp.Admin, nil
	case Manager:
		return &rp.Manager, nil
	case TeamLeader:
		return &rp.TeamLeader, nil
	case Employee:
		return &rp.Employee, nil
	case DSAPartner:
		return &rp.DSAPartner, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
}

// Set overwrites the permissions of a single role.
func (rp *RolePermissions) Set(role Role, perms ModulePermissions) error {
	slot, err := rp.slot(role)
	if err != nil {
		return err
	}
	*slot = perms
	return nil
}

func full() Permission     { return Permission{View: true, Edit: true, Add: true, Delete: true} }
func viewOnly() Permission { return Permission{View: true} }

func DefaultRolePermissions() RolePermissions {
	viewEdit := Permission{View: true, Edit: true}
	return RolePermissions{
		SuperAdmin: ModulePermissions{CreditCards: full(), LoanDisbursement: full()},
		Admin: ModulePermissions{
			CreditCards:      Permission{View: true, Edit: true, Add: true},
			LoanDisbursement: Permission{View: true, Edit: true, Add: true},
		},
		Manager:    ModulePermissions{CreditCards: viewOnly(), LoanDisbursement: viewEdit},
		TeamLeader: ModulePermissions{CreditCards: viewOnly(), LoanDisbursement: viewEdit},
		Employee:   ModulePermissions{CreditCards: viewOnly(), LoanDisbursement: viewEdit},
		DSAPartner: ModulePermissions{CreditCards: viewOnly(), LoanDisbursement: viewOnly()},
	}
}

// ResolvePermissions looks up the module permissions of a role. An unknown
// role is a programming error and is reported rather than defaulted.
func ResolvePermissions(role Role, rp RolePermissions) (ModulePermissions, error) {
	slot, err := rp.slot(role)
	if err != nil {
		return ModulePermissions{}, err
	}
	return *slot, nil
}

// SetRolePermission flips one flag in the matrix. Only super admins may do it.
func SetRolePermission(rp *RolePermissions, actor, role Role, module Module, action Action, value bool) error {
	if actor != SuperAdmin {
		return ErrForbidden
	}
	roleSlot, err := rp.slot(role)
	if err != nil {
		return err
	}
	perm, err := roleSlot.slot(module)
	if err != nil {
		return err
	}
	return perm.set(action, value)
}
