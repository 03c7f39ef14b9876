package repository

import (
	"errors"

	"komagene-kasa/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindAll() ([]model.Role, error)
	FindByCode(code string) (*model.Role, error)
	SeedDefaults() error
	AssignDefaultPrivileges(all []model.Privilege) error
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) FindAll() ([]model.Role, error) {
	var roles []model.Role
	err := r.db.Preload("Privileges").Find(&roles).Error
	return roles, err
}

func (r *roleRepo) FindByCode(code string) (*model.Role, error) {
	var role model.Role
	err := r.db.Preload("Privileges").Where("code = ?", code).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) SeedDefaults() error {
	for _, defaultRole := range model.DefaultRoles {
		role := defaultRole
		var existing model.Role
		err := r.db.Where("code = ?", role.Code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := r.db.Create(&role).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}
	return nil
}

// AssignDefaultPrivileges gives the owner everything and the cashier all but
// the owner-only privileges. The owner is topped up with privileges added
// since the last boot; a cashier role that already holds privileges is left
// as it is.
func (r *roleRepo) AssignDefaultPrivileges(all []model.Privilege) error {
	for _, code := range []string{model.RoleOwner, model.RoleCashier} {
		role, err := r.FindByCode(code)
		if err != nil {
			return err
		}
		if code == model.RoleCashier && len(role.Privileges) > 0 {
			continue
		}
		if err := r.db.Model(role).Association("Privileges").Replace(PrivilegesFor(code, all)); err != nil {
			return err
		}
	}
	return nil
}

// PrivilegesFor filters all down to what the role is granted by default.
func PrivilegesFor(roleCode string, all []model.Privilege) []model.Privilege {
	if roleCode == model.RoleOwner {
		return all
	}
	out := make([]model.Privilege, 0, len(all))
	for _, p := range all {
		if !model.CashierExcluded[p.Code] {
			out = append(out, p)
		}
	}
	return out
}
