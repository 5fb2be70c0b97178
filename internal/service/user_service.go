package service

import (
	"github.com/courier-next/internal/constants"
	"github.com/courier-next/internal/models"
	"github.com/courier-next/internal/repository"
)

// UserService 管理端用户目录服务
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService 创建用户目录服务
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// List 用户列表
func (s *UserService) List(filter repository.UserListFilter) ([]models.User, int64, error) {
	return s.userRepo.List(filter)
}

// GetByID 获取用户
func (s *UserService) GetByID(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// GetByEmail 按邮箱获取用户
func (s *UserService) GetByEmail(email string) (*models.User, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// UpdateRole 管理端调整用户角色
func (s *UserService) UpdateRole(id uint, role string) (*models.User, error) {
	switch role {
	case constants.RoleUser, constants.RoleRider, constants.RoleAdmin:
	default:
		return nil, ErrInvalidRole
	}
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if err := s.userRepo.UpdateRole(id, role); err != nil {
		return nil, err
	}
	user.Role = role
	return user, nil
}
