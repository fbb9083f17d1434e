package access

// Session is the resolved access snapshot for one signed-in user. It is
// built once per request from the permission tables and passed to whatever
// needs to make access decisions.
type Session struct {
	UserID      uint              `json:"user_id"`
	Role        Role              `json:"role"`
	RoleLabel   string            `json:"role_label"`
	Modules     ModuleAccess      `json:"modules"`
	Permissions ModulePermissions `json:"permissions"`
	Fields      FieldPermissions  `json:"fields,omitempty"`
}

func NewSession(userID uint, role Role, rp RolePermissions, at AccessTable, ft FieldTable) (*Session, error) {
	perms, err := ResolvePermissions(role, rp)
	if err != nil {
		return nil, err
	}

	s := &Session{
		UserID:      userID,
		Role:        role,
		RoleLabel:   role.Label(),
		Modules:     ResolveModuleVisibility(userID, at),
		Permissions: perms,
	}

	if IsManagerTier(role) {
		s.Fields = make(FieldPermissions, len(ManagedFields))
		for _, f := range ManagedFields {
			s.Fields[f] = ResolveFieldPermission(userID, f, ft)
		}
	}

	return s, nil
}

// Can reports whether the module is visible to the user and the role grants
// the action inside it.
func (s *Session) Can(module Module, action Action) bool {
	if s == nil {
		return false
	}
	return s.Modules.Allows(module) && s.Permissions.For(module).Allows(action)
}

// FieldRestricted reports whether field permissions apply to this session.
func (s *Session) FieldRestricted() bool {
	return s != nil && IsManagerTier(s.Role)
}

func (s *Session) CanViewField(field string) bool {
	if !s.FieldRestricted() {
		return s != nil
	}
	return s.Fields[field].View
}

func (s *Session) CanEditField(field string) bool {
	if !s.FieldRestricted() {
		return s != nil
	}
	return s.Fields[field].Edit
}

type NavItem struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

// NavItems lists the navigation entries the user should see.
func (s *Session) NavItems() []NavItem {
	items := []NavItem{{Path: "/", Label: "Dashboard"}}
	if s == nil {
		return items
	}
	if s.Modules.CreditCards {
		items = append(items, NavItem{Path: "/credit-cards", Label: "Credit Cards"})
	}
	if s.Modules.LoanDisbursement {
		items = append(items, NavItem{Path: "/loan-disbursement", Label: "Loan Disbursement"})
	}
	items = append(items, NavItem{Path: "/payouts", Label: "Payouts"})
	if s.Modules.CreditCards {
		items = append(items, NavItem{Path: "/leads", Label: "Leads"})
	}
	if IsAdministrator(s.Role) {
		items = append(items,
			NavItem{Path: "/teams", Label: "Teams"},
			NavItem{Path: "/permissions", Label: "Permissions"},
		)
	}
	return items
}
