package service

import (
	"errors"
	"strings"

	"examcell_backend/internal/model"
	"examcell_backend/internal/repository"
	"examcell_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
)

// UserInput 创建或更新用户；更新时密码为空表示不修改
type UserInput struct {
	Username string           `json:"username" binding:"required,min=3,max=64"`
	Name     string           `json:"name" binding:"required,max=100"`
	Password string           `json:"password"`
	Disabled bool             `json:"disabled"`
	Roles    []model.UserRole `json:"roles" binding:"required,min=1,dive,oneof=admin exam_cell faculty"`
}

// UserService 处理用户相关的业务逻辑
type UserService struct {
	UserRepo *repository.UserRepository
}

// NewUserService 创建一个新的用户服务实例
func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{
		UserRepo: userRepo,
	}
}

func (s *UserService) List(page, limit int, search string, role model.UserRole) (*util.PageResponse, error) {
	page, limit, offset := pageBounds(page, limit)
	users, total, err := s.UserRepo.FindWithPagination(offset, limit, strings.TrimSpace(search), role)
	if err != nil {
		return nil, err
	}
	return &util.PageResponse{List: users, Total: total, Page: page, Limit: limit}, nil
}

func (s *UserService) Get(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if err != nil {
		return nil, translateError(err, util.ErrUserNotFound)
	}
	return user, nil
}

func (s *UserService) resolveRoles(names []model.UserRole) ([]model.Role, error) {
	roles, err := s.UserRepo.FindRolesByNames(names)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, errors.New("no valid roles given")
	}
	return roles, nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *UserService) Create(in UserInput) (*model.User, error) {
	if len(in.Password) < 6 {
		return nil, errors.New("password must be at least 6 characters")
	}
	roles, err := s.resolveRoles(in.Roles)
	if err != nil {
		return nil, err
	}
	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: strings.TrimSpace(in.Username),
		Name:     strings.TrimSpace(in.Name),
		Password: hashed,
		Disabled: in.Disabled,
		Roles:    roles,
	}
	if err := s.UserRepo.Create(user); err != nil {
		if err = translateError(err, util.ErrUserNotFound); errors.Is(err, util.ErrDuplicateRecord) {
			return nil, util.ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Update(id uint, in UserInput) (*model.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	roles, err := s.resolveRoles(in.Roles)
	if err != nil {
		return nil, err
	}
	if in.Password != "" {
		if len(in.Password) < 6 {
			return nil, errors.New("password must be at least 6 characters")
		}
		if user.Password, err = hashPassword(in.Password); err != nil {
			return nil, err
		}
	}
	user.Username = strings.TrimSpace(in.Username)
	user.Name = strings.TrimSpace(in.Name)
	user.Disabled = in.Disabled
	user.Roles = roles

	if err := s.UserRepo.Update(user); err != nil {
		if err = translateError(err, util.ErrUserNotFound); errors.Is(err, util.ErrDuplicateRecord) {
			return nil, util.ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

// Delete 不允许删除自己
func (s *UserService) Delete(actorID, id uint) error {
	if actorID == id {
		return util.ErrPermissionDenied
	}
	return translateError(s.UserRepo.Delete(id), util.ErrUserNotFound)
}

func (s *UserService) Dropdown(role model.UserRole) ([]model.DropdownOption, error) {
	users, err := s.UserRepo.Dropdown(role)
	if err != nil {
		return nil, err
	}
	opts := make([]model.DropdownOption, 0, len(users))
	for _, u := range users {
		opts = append(opts, model.DropdownOption{ID: u.ID, Label: u.Name})
	}
	return opts, nil
}

func (s *UserService) RoleDropdown() ([]model.DropdownOption, error) {
	roles, err := s.UserRepo.ListRoles()
	if err != nil {
		return nil, err
	}
	opts := make([]model.DropdownOption, 0, len(roles))
	for _, r := range roles {
		opts = append(opts, model.DropdownOption{ID: r.ID, Label: string(r.RoleName)})
	}
	return opts, nil
}
