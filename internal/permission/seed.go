package permission

import (
	"context"
	"fmt"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/models"
	"gorm.io/gorm/clause"
)

// SeedDefaultRolePermissions stores the default matrix for every
// (role, module) pair that has no row yet. Existing rows are left alone.
func (s *Service) SeedDefaultRolePermissions(ctx context.Context) error {
	defaults := access.DefaultRolePermissions()

	rows := make([]models.RolePermission, 0, len(access.Roles)*len(access.Modules))
	for _, role := range access.Roles {
		perms, err := access.ResolvePermissions(role, defaults)
		if err != nil {
			return err
		}
		for _, module := range access.Modules {
			p := perms.For(module)
			rows = append(rows, models.RolePermission{
				Role:   role,
				Module: module,
				View:   p.View,
				Edit:   p.Edit,
				Add:    p.Add,
				Delete: p.Delete,
			})
		}
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("seed role permissions: %w", err)
	}
	return nil
}
