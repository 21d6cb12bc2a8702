package repository

import (
	"examcell_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.Preload("Roles").First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByUsername(username string) (*model.User, error) {
	var user model.User
	err := r.DB.Preload("Roles").Where("username = ?", username).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByIDs(ids []uint) ([]model.User, error) {
	var users []model.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.DB.Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *UserRepository) FindWithPagination(offset, limit int, search string, role model.UserRole) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	query := r.DB.Model(&model.User{})
	if search != "" {
		query = query.Where("username LIKE ? OR name LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if role != "" {
		query = query.Where("id IN (?)", r.DB.Table("user_roles").
			Select("user_roles.user_id").
			Joins("JOIN roles ON roles.id = user_roles.role_id").
			Where("roles.role_name = ?", role))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Roles").Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error
	return users, total, err
}

// Update 同时替换角色关联
func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Roles").Save(user).Error; err != nil {
			return err
		}
		return tx.Model(user).Association("Roles").Replace(user.Roles)
	})
}

func (r *UserRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		user := &model.User{}
		user.ID = id
		if err := tx.Model(user).Association("Roles").Clear(); err != nil {
			return err
		}
		res := tx.Delete(&model.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *UserRepository) UpdateLastLogin(userID uint) error {
	return r.DB.Model(&model.User{}).Where("id = ?", userID).Update("last_login", time.Now()).Error
}

func (r *UserRepository) FindRolesByNames(names []model.UserRole) ([]model.Role, error) {
	var roles []model.Role
	err := r.DB.Where("role_name IN ?", names).Find(&roles).Error
	return roles, err
}

func (r *UserRepository) ListRoles() ([]model.Role, error) {
	var roles []model.Role
	err := r.DB.Order("id ASC").Find(&roles).Error
	return roles, err
}

// Dropdown role 为空时返回所有未禁用用户
func (r *UserRepository) Dropdown(role model.UserRole) ([]model.User, error) {
	var users []model.User
	query := r.DB.Model(&model.User{}).Where("disabled = ?", false)
	if role != "" {
		query = query.Where("id IN (?)", r.DB.Table("user_roles").
			Select("user_roles.user_id").
			Joins("JOIN roles ON roles.id = user_roles.role_id").
			Where("roles.role_name = ?", role))
	}
	err := query.Order("name ASC").Find(&users).Error
	return users, err
}
