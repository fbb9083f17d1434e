package permission

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/cache"
	"github.com/Kyz7/fincore/internal/event"
	"github.com/Kyz7/fincore/internal/metrics"
	"github.com/Kyz7/fincore/internal/models"
	"github.com/Kyz7/fincore/internal/notification"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const sessionTTL = 5 * time.Minute

var ErrNotManagerTier = errors.New("field permissions apply to manager-tier users only")

// Actor is the signed-in user performing a mutation.
type Actor struct {
	ID   uint
	Role access.Role
}

type Service struct {
	db     *gorm.DB
	cache  cache.Cache
	events event.Publisher
}

func NewService(db *gorm.DB, c cache.Cache, events event.Publisher) *Service {
	if c == nil {
		c = cache.NewMemory()
	}
	if events == nil {
		events = event.Nop{}
	}
	return &Service{db: db, cache: c, events: events}
}

// LoadRolePermissions reads the role matrix. Cells with no stored row keep
// the default for that role, so the result is always total.
func (s *Service) LoadRolePermissions(ctx context.Context) (access.RolePermissions, error) {
	rp := access.DefaultRolePermissions()

	var rows []models.RolePermission
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return rp, fmt.Errorf("load role permissions: %w", err)
	}

	for _, row := range rows {
		perms, err := access.ResolvePermissions(row.Role, rp)
		if err != nil {
			zap.L().Warn("ignoring role permission row", zap.String("role", string(row.Role)), zap.Error(err))
			continue
		}
		switch row.Module {
		case access.CreditCards:
			perms.CreditCards = row.Permission()
		case access.LoanDisbursement:
			perms.LoanDisbursement = row.Permission()
		default:
			zap.L().Warn("ignoring role permission row", zap.String("module", string(row.Module)))
			continue
		}
		_ = rp.Set(row.Role, perms)
	}

	return rp, nil
}

func (s *Service) LoadAccessTable(ctx context.Context) (access.AccessTable, error) {
	var rows []models.ModuleAccess
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return access.AccessTable{}, fmt.Errorf("load module access: %w", err)
	}

	table := make(access.AccessTable, len(rows))
	for _, row := range rows {
		table[row.UserID] = row.Access()
	}
	return table, nil
}

func (s *Service) loadUserAccess(ctx context.Context, userID uint) (access.AccessTable, error) {
	var rows []models.ModuleAccess
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return access.AccessTable{}, fmt.Errorf("load module access: %w", err)
	}

	table := access.AccessTable{}
	for _, row := range rows {
		table[row.UserID] = row.Access()
	}
	return table, nil
}

// LoadFieldTable reads the stored field permissions of one user.
func (s *Service) LoadFieldTable(ctx context.Context, userID uint) (access.FieldTable, error) {
	var rows []models.FieldPermission
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return access.FieldTable{}, fmt.Errorf("load field permissions: %w", err)
	}

	table := access.FieldTable{}
	if len(rows) == 0 {
		return table, nil
	}
	perms := make(access.FieldPermissions, len(rows))
	for _, row := range rows {
		perms[row.Field] = access.FieldPermission{View: row.View, Edit: row.Edit}.Normalize()
	}
	table[userID] = perms
	return table, nil
}

func sessionKey(userID uint) string {
	return "session:" + strconv.FormatUint(uint64(userID), 10)
}

// LoadSession resolves the access snapshot for user. Load failures are
// logged and degrade to no module access and no field permissions; a broken
// role matrix read falls back to the default matrix. A manager-tier user
// with no stored field rows gets the role's default field permissions, the
// same map FieldPermissions reports.
func (s *Service) LoadSession(ctx context.Context, user *models.User) *access.Session {
	var cached access.Session
	if err := s.cache.Get(ctx, sessionKey(user.ID), &cached); err == nil && cached.Role == user.Role {
		return &cached
	}

	rp, err := s.LoadRolePermissions(ctx)
	if err != nil {
		zap.L().Error("role permissions unavailable, using defaults", zap.Error(err))
	}

	at, err := s.loadUserAccess(ctx, user.ID)
	if err != nil {
		zap.L().Error("module access unavailable, denying modules", zap.Uint("user_id", user.ID), zap.Error(err))
		at = access.AccessTable{}
	}

	ft := access.FieldTable{}
	if access.IsManagerTier(user.Role) {
		ft, err = s.LoadFieldTable(ctx, user.ID)
		if err != nil {
			zap.L().Error("field permissions unavailable, denying fields", zap.Uint("user_id", user.ID), zap.Error(err))
			ft = access.FieldTable{}
		} else if len(ft[user.ID]) == 0 {
			ft = access.FieldTable{user.ID: access.DefaultFieldPermissions(user.Role)}
		}
	}

	session, err := access.NewSession(user.ID, user.Role, rp, at, ft)
	if err != nil {
		zap.L().Error("cannot resolve session", zap.Uint("user_id", user.ID), zap.Error(err))
		return &access.Session{UserID: user.ID, Role: user.Role, RoleLabel: user.Role.Label()}
	}

	if err := s.cache.Set(ctx, sessionKey(user.ID), session, sessionTTL); err != nil {
		zap.L().Warn("failed to cache session", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	return session
}

// InvalidateSessions drops cached sessions of the given users.
func (s *Service) InvalidateSessions(ctx context.Context, userIDs ...uint) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, sessionKey(id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		zap.L().Warn("failed to invalidate sessions", zap.Error(err))
	}
}

func (s *Service) invalidateRole(ctx context.Context, role access.Role) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Pluck("id", &ids).Error; err != nil {
		zap.L().Warn("failed to list users for invalidation", zap.String("role", string(role)), zap.Error(err))
		return
	}
	s.InvalidateSessions(ctx, ids...)
}

func (s *Service) changed(ctx context.Context, data event.PermissionsChangedData) {
	metrics.PermissionChanges.WithLabelValues(data.Table).Inc()
	if err := s.events.Publish(ctx, event.PermissionsChanged, data); err != nil {
		zap.L().Error("failed to publish permissions change", zap.String("table", data.Table), zap.Error(err))
	}
}

// UpdateRolePermission sets one flag of the role matrix and returns the
// role's resulting permissions.
func (s *Service) UpdateRolePermission(ctx context.Context, actor Actor, role access.Role, module access.Module, action access.Action, value bool) (access.ModulePermissions, error) {
	rp, err := s.LoadRolePermissions(ctx)
	if err != nil {
		return access.ModulePermissions{}, err
	}

	if err := access.SetRolePermission(&rp, actor.Role, role, module, action, value); err != nil {
		return access.ModulePermissions{}, err
	}

	perms, err := access.ResolvePermissions(role, rp)
	if err != nil {
		return access.ModulePermissions{}, err
	}
	p := perms.For(module)

	row := models.RolePermission{
		Role:      role,
		Module:    module,
		View:      p.View,
		Edit:      p.Edit,
		Add:       p.Add,
		Delete:    p.Delete,
		UpdatedBy: actor.ID,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "role"}, {Name: "module"}},
		DoUpdates: clause.AssignmentColumns([]string{"view", "edit", "add", "delete", "updated_by", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return access.ModulePermissions{}, fmt.Errorf("save role permission: %w", err)
	}

	s.invalidateRole(ctx, role)
	s.changed(ctx, event.PermissionsChangedData{
		Table:   "role_permissions",
		ActorID: actor.ID,
		Role:    string(role),
		Module:  string(module),
	})

	return perms, nil
}

// SaveModuleAccess writes a user's module access row inside tx.
func SaveModuleAccess(tx *gorm.DB, userID uint, ma access.ModuleAccess, updatedBy uint) error {
	row := models.ModuleAccess{
		UserID:           userID,
		CreditCards:      ma.CreditCards,
		LoanDisbursement: ma.LoanDisbursement,
		UpdatedBy:        updatedBy,
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"credit_cards", "loan_disbursement", "updated_by", "updated_at"}),
	}).Create(&row).Error
}

// ToggleModuleAccess flips one module flag of a user.
func (s *Service) ToggleModuleAccess(ctx context.Context, actor Actor, userID uint, module access.Module) (access.ModuleAccess, error) {
	if err := s.db.WithContext(ctx).First(&models.User{}, userID).Error; err != nil {
		return access.ModuleAccess{}, err
	}

	table, err := s.loadUserAccess(ctx, userID)
	if err != nil {
		return access.ModuleAccess{}, err
	}

	current := access.ResolveModuleVisibility(userID, table)
	updated, err := access.SetModuleAccess(table, actor.Role, userID, module, !current.Allows(module))
	if err != nil {
		return access.ModuleAccess{}, err
	}

	if err := SaveModuleAccess(s.db.WithContext(ctx), userID, updated, actor.ID); err != nil {
		return access.ModuleAccess{}, fmt.Errorf("save module access: %w", err)
	}

	s.InvalidateSessions(ctx, userID)
	s.changed(ctx, event.PermissionsChangedData{
		Table:   "module_access",
		ActorID: actor.ID,
		UserID:  userID,
		Module:  string(module),
	})
	notification.Notify(s.db, userID, notification.TypeInfo, "Access updated",
		fmt.Sprintf("Your access to %s was %s.", moduleLabel(module), enabledLabel(updated.Allows(module))), "/")

	return updated, nil
}

type UserAccess struct {
	UserID    uint                `json:"user_id"`
	Name      string              `json:"name"`
	Mobile    string              `json:"mobile"`
	Role      access.Role         `json:"role"`
	RoleLabel string              `json:"role_label"`
	Access    access.ModuleAccess `json:"access"`
}

// ListUserAccess returns every user with their resolved module access.
func (s *Service) ListUserAccess(ctx context.Context) ([]UserAccess, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	table, err := s.LoadAccessTable(ctx)
	if err != nil {
		zap.L().Error("module access unavailable, listing without access", zap.Error(err))
	}

	out := make([]UserAccess, 0, len(users))
	for _, u := range users {
		out = append(out, UserAccess{
			UserID:    u.ID,
			Name:      u.Name,
			Mobile:    u.Mobile,
			Role:      u.Role,
			RoleLabel: u.Role.Label(),
			Access:    access.ResolveModuleVisibility(u.ID, table),
		})
	}
	return out, nil
}

func (s *Service) managerTierUser(ctx context.Context, userID uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		return nil, err
	}
	if !access.IsManagerTier(u.Role) {
		return nil, ErrNotManagerTier
	}
	return &u, nil
}

// FieldPermissions returns the stored field map of a manager-tier user, or
// the role defaults when nothing has been saved. The flag reports whether
// the map was synthesized.
func (s *Service) FieldPermissions(ctx context.Context, userID uint) (access.FieldPermissions, bool, error) {
	u, err := s.managerTierUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	ft, err := s.LoadFieldTable(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if len(ft[userID]) == 0 {
		return access.DefaultFieldPermissions(u.Role), true, nil
	}

	out := make(access.FieldPermissions, len(access.ManagedFields))
	for _, f := range access.ManagedFields {
		out[f] = access.ResolveFieldPermission(userID, f, ft)
	}
	return out, false, nil
}

// SaveFieldPermissions replaces the whole field map of a user. The map is
// normalized so edit always implies view.
func (s *Service) SaveFieldPermissions(ctx context.Context, actor Actor, userID uint, in map[string]access.FieldPermission) (access.FieldPermissions, error) {
	if !access.IsAdministrator(actor.Role) {
		return nil, access.ErrForbidden
	}
	if _, err := s.managerTierUser(ctx, userID); err != nil {
		return nil, err
	}

	perms, err := access.NormalizeFieldPermissions(in)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.FieldPermission{}).Error; err != nil {
			return err
		}
		rows := make([]models.FieldPermission, 0, len(perms))
		for _, f := range access.ManagedFields {
			p, ok := perms[f]
			if !ok {
				continue
			}
			rows = append(rows, models.FieldPermission{
				UserID:    userID,
				Field:     f,
				View:      p.View,
				Edit:      p.Edit,
				UpdatedBy: actor.ID,
			})
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("save field permissions: %w", err)
	}

	s.InvalidateSessions(ctx, userID)
	s.changed(ctx, event.PermissionsChangedData{
		Table:   "field_permissions",
		ActorID: actor.ID,
		UserID:  userID,
	})

	return perms, nil
}

// ToggleFieldPermission flips one view or edit flag of a user's field,
// starting from the synthesized defaults when nothing is stored yet.
func (s *Service) ToggleFieldPermission(ctx context.Context, actor Actor, userID uint, field string, kind access.FieldKind) (access.FieldPermission, error) {
	if !access.IsAdministrator(actor.Role) {
		return access.FieldPermission{}, access.ErrForbidden
	}

	current, synthesized, err := s.FieldPermissions(ctx, userID)
	if err != nil {
		return access.FieldPermission{}, err
	}

	table := access.FieldTable{userID: current}
	updated, err := access.ToggleFieldPermission(table, userID, field, kind)
	if err != nil {
		return access.FieldPermission{}, err
	}

	if synthesized {
		if _, err := s.SaveFieldPermissions(ctx, actor, userID, table[userID]); err != nil {
			return access.FieldPermission{}, err
		}
		return updated, nil
	}

	row := models.FieldPermission{
		UserID:    userID,
		Field:     field,
		View:      updated.View,
		Edit:      updated.Edit,
		UpdatedBy: actor.ID,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "field"}},
		DoUpdates: clause.AssignmentColumns([]string{"view", "edit", "updated_by", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return access.FieldPermission{}, fmt.Errorf("save field permission: %w", err)
	}

	s.InvalidateSessions(ctx, userID)
	s.changed(ctx, event.PermissionsChangedData{
		Table:   "field_permissions",
		ActorID: actor.ID,
		UserID:  userID,
		Field:   field,
	})

	return updated, nil
}

func moduleLabel(m access.Module) string {
	if m == access.CreditCards {
		return "Credit Cards"
	}
	return "Loan Disbursement"
}

func enabledLabel(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
