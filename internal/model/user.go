package model

import (
	"time"
)

type UserRole string

const (
	Admin    UserRole = "admin"
	ExamCell UserRole = "exam_cell"
	Faculty  UserRole = "faculty"
)

// AllRoles 迁移时写入的角色
var AllRoles = []UserRole{Admin, ExamCell, Faculty}

// swagger:model Role
type Role struct {
	BaseModel
	RoleName UserRole `gorm:"size:32;uniqueIndex;not null" json:"roleName"`
}

func (Role) TableName() string {
	return "roles"
}

// swagger:model User
type User struct {
	BaseModel
	Username  string     `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Name      string     `gorm:"size:100;not null" json:"name"`
	Password  string     `gorm:"size:100;not null" json:"-"`
	Disabled  bool       `gorm:"default:false" json:"disabled"`
	Roles     []Role     `gorm:"many2many:user_roles;" json:"roles"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, string(r.RoleName))
	}
	return names
}

func (u *User) HasRole(role UserRole) bool {
	for _, r := range u.Roles {
		if r.RoleName == role {
			return true
		}
	}
	return false
}
