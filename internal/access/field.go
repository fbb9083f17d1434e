package access

import (
	"errors"
	"fmt"
)

var ErrUnknownField = errors.New("unknown field")

// ManagedFields are the loan-record fields covered by field permissions.
var ManagedFields = []string{
	"Customer Name", "Mobile Number", "RC Number", "Engine Number",
	"Chassis Number", "Existing Lender", "Case Type", "Financier",
	"Loan Amount", "Interest Rate", "Tenure (Months)", "RC Collection",
	"Channel Name", "Disbursed Date", "Dealing Person", "Channel Code",
	"PDD Status",
}

var managedFieldSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(ManagedFields))
	for _, f := range ManagedFields {
		set[f] = struct{}{}
	}
	return set
}()

func IsManagedField(name string) bool {
	_, ok := managedFieldSet[name]
	return ok
}

type FieldKind string

const (
	FieldView FieldKind = "view"
	FieldEdit FieldKind = "edit"
)

type FieldPermission struct {
	View bool `json:"view"`
	Edit bool `json:"edit"`
}

// Normalize enforces that an editable field is also viewable.
func (f FieldPermission) Normalize() FieldPermission {
	if f.Edit {
		f.View = true
	}
	return f
}

// Toggle flips one flag. Turning edit on turns view on; turning view off
// turns edit off.
func (f FieldPermission) Toggle(kind FieldKind) (FieldPermission, error) {
	switch kind {
	case FieldView:
		if f.View {
			f.View = false
			f.Edit = false
		} else {
			f.View = true
		}
	case FieldEdit:
		if f.Edit {
			f.Edit = false
		} else {
			f.Edit = true
			f.View = true
		}
	default:
		return f, fmt.Errorf("unknown field permission type %q", kind)
	}
	return f, nil
}

// FieldPermissions maps field name to its permission for one user.
type FieldPermissions map[string]FieldPermission

// FieldTable maps user id to that user's field permissions.
type FieldTable map[uint]FieldPermissions

// ResolveFieldPermission returns {false,false} for anything not in the table.
func ResolveFieldPermission(userID uint, field string, table FieldTable) FieldPermission {
	perms, ok := table[userID]
	if !ok {
		return FieldPermission{}
	}
	return perms[field]
}

// ToggleFieldPermission flips one flag of a user's field and stores the result.
func ToggleFieldPermission(table FieldTable, userID uint, field string, kind FieldKind) (FieldPermission, error) {
	if !IsManagedField(field) {
		return FieldPermission{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	next, err := ResolveFieldPermission(userID, field, table).Toggle(kind)
	if err != nil {
		return FieldPermission{}, err
	}
	if table[userID] == nil {
		table[userID] = FieldPermissions{}
	}
	table[userID][field] = next
	return next, nil
}

// DefaultFieldPermissions synthesizes the starting field map for a
// manager-tier user: every field viewable, editable only for admins. Other
// roles get nil.
func DefaultFieldPermissions(role Role) FieldPermissions {
	if !IsManagerTier(role) {
		return nil
	}
	perms := make(FieldPermissions, len(ManagedFields))
	for _, f := range ManagedFields {
		perms[f] = FieldPermission{View: true, Edit: role == Admin}
	}
	return perms
}

// NormalizeFieldPermissions validates field names and applies Normalize to
// every entry. Fields missing from the input are stored as {false,false}.
func NormalizeFieldPermissions(in map[string]FieldPermission) (FieldPermissions, error) {
	out := make(FieldPermissions, len(ManagedFields))
	for name := range in {
		if !IsManagedField(name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
	}
	for _, f := range ManagedFields {
		out[f] = in[f].Normalize()
	}
	return out, nil
}
