package access

import "fmt"

// ModuleAccess controls whether a module is reachable at all for a user,
// independent of the user's role.
type ModuleAccess struct {
	CreditCards      bool `json:"creditCards"`
	LoanDisbursement bool `json:"loanDisbursement"`
}

func (a ModuleAccess) Allows(module Module) bool {
	switch module {
	case CreditCards:
		return a.CreditCards
	case LoanDisbursement:
		return a.LoanDisbursement
	}
	return false
}

func (a ModuleAccess) With(module Module, value bool) (ModuleAccess, error) {
	switch module {
	case CreditCards:
		a.CreditCards = value
	case LoanDisbursement:
		a.LoanDisbursement = value
	default:
		return a, fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
	return a, nil
}

// AccessTable maps user id to module access.
type AccessTable map[uint]ModuleAccess

// ResolveModuleVisibility returns the user's module access. Users without an
// entry see no modules.
func ResolveModuleVisibility(userID uint, table AccessTable) ModuleAccess {
	if a, ok := table[userID]; ok {
		return a
	}
	return ModuleAccess{}
}

// SetModuleAccess changes one module flag for a user. Admins and super admins
// only.
func SetModuleAccess(table AccessTable, actor Role, userID uint, module Module, value bool) (ModuleAccess, error) {
	if !IsAdministrator(actor) {
		return ModuleAccess{}, ErrForbidden
	}
	next, err := ResolveModuleVisibility(userID, table).With(module, value)
	if err != nil {
		return ModuleAccess{}, err
	}
	table[userID] = next
	return next, nil
}
