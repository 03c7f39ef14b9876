package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"komagene-kasa/internal/model"
	"komagene-kasa/internal/repository"
	"komagene-kasa/pkg/validator"
)

var (
	ErrEmailExists = errors.New("email already exists")
	ErrOwnerOnly   = errors.New("only the branch owner can manage staff")
	ErrUnknownRole = errors.New("role not found")
	ErrSelfDisable = errors.New("you cannot deactivate your own account")
	ErrNoBranch    = errors.New("caller has no branch")
)

// Actor is the authenticated caller of a staff operation.
type Actor struct {
	UserID   string
	BranchID string
	RoleCode string
}

type UserService interface {
	CreateUser(req *CreateUserRequest, actor Actor) (*model.User, error)
	ListUsers(actor Actor) ([]model.UserResponse, error)
	DeactivateUser(id uuid.UUID, actor Actor) error
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
	// Role defaults to CASHIER.
	Role string `json:"role" validate:"omitempty,oneof=OWNER CASHIER"`
}

type userService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
}

func NewUserService(userRepo repository.UserRepository, roleRepo repository.RoleRepository) UserService {
	return &userService{userRepo: userRepo, roleRepo: roleRepo}
}

func (s *userService) authorize(actor Actor) error {
	if actor.RoleCode != model.RoleOwner {
		return ErrOwnerOnly
	}
	if actor.BranchID == "" {
		return ErrNoBranch
	}
	return nil
}

// CreateUser adds a staff account to the caller's branch.
func (s *userService) CreateUser(req *CreateUserRequest, actor Actor) (*model.User, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	if err := validator.FirstError(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if existing, _ := s.userRepo.FindByEmail(req.Email); existing != nil {
		return nil, ErrEmailExists
	}

	code := req.Role
	if code == "" {
		code = model.RoleCashier
	}
	role, err := s.roleRepo.FindByCode(code)
	if err != nil {
		return nil, ErrUnknownRole
	}

	user := &model.User{
		Email:    req.Email,
		FullName: req.FullName,
		BranchID: actor.BranchID,
		RoleID:   &role.ID,
		Role:     role,
		IsActive: true,
	}
	user.CreatedBy = actor.UserID
	user.UpdatedBy = actor.UserID
	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) ListUsers(actor Actor) ([]model.UserResponse, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	users, err := s.userRepo.FindAll(actor.BranchID)
	if err != nil {
		return nil, err
	}
	responses := make([]model.UserResponse, len(users))
	for i := range users {
		responses[i] = users[i].ToResponse()
	}
	return responses, nil
}

// DeactivateUser disables an account of the caller's branch and ends its
// sessions. The row stays so the audit trail keeps its author.
func (s *userService) DeactivateUser(id uuid.UUID, actor Actor) error {
	if err := s.authorize(actor); err != nil {
		return err
	}
	if id.String() == actor.UserID {
		return ErrSelfDisable
	}
	err := s.userRepo.Deactivate(actor.BranchID, id, actor.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
