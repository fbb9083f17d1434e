package access

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownRole   = errors.New("unknown role")
	ErrUnknownModule = errors.New("unknown module")
	ErrUnknownAction = errors.New("unknown action")
	ErrForbidden     = errors.New("actor is not allowed to change permissions")
)

type Role string

const (
	SuperAdmin Role = "super_admin"
	Admin      Role = "admin"
	Manager    Role = "manager"
	TeamLeader Role = "team_leader"
	Employee   Role = "employee"
	DSAPartner Role = "dsa_partner"
)

// Roles lists every role in display order.
var Roles = []Role{SuperAdmin, Admin, Manager, TeamLeader, Employee, DSAPartner}

var roleLabels = map[Role]string{
	SuperAdmin: "Super Admin",
	Admin:      "Admin",
	Manager:    "Manager",
	TeamLeader: "Team Leader",
	Employee:   "Employee",
	DSAPartner: "DSA Partner",
}

func (r Role) Label() string {
	return roleLabels[r]
}

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// IsManagerTier reports whether field-level permissions apply to the role.
func IsManagerTier(r Role) bool {
	return r == Admin || r == Manager || r == TeamLeader
}

// IsAdministrator reports whether the role may manage module access and
// field permissions.
func IsAdministrator(r Role) bool {
	return r == SuperAdmin || r == Admin
}

// RoleFromEmployeeType maps the employee type chosen at signup to a role.
// Unrecognised types become employees.
func RoleFromEmployeeType(employeeType string) Role {
	switch strings.ToUpper(strings.TrimSpace(employeeType)) {
	case "ADMIN":
		return SuperAdmin
	case "DSA":
		return DSAPartner
	case "DST":
		return Employee
	default:
		return Employee
	}
}

type Module string

const (
	CreditCards      Module = "creditCards"
	LoanDisbursement Module = "loanDisbursement"
)

var Modules = []Module{CreditCards, LoanDisbursement}

func ParseModule(s string) (Module, error) {
	switch Module(s) {
	case CreditCards, LoanDisbursement:
		return Module(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModule, s)
}

type Action string

const (
	View   Action = "view"
	Edit   Action = "edit"
	Add    Action = "add"
	Delete Action = "delete"
)

var Actions = []Action{View, Edit, Add, Delete}

func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case View, Edit, Add, Delete:
		return Action(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}
