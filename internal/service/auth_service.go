package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"komagene-kasa/internal/model"
	"komagene-kasa/internal/repository"
	"komagene-kasa/internal/store"
	"komagene-kasa/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrWeakPassword       = errors.New("new password must be at least 6 characters")
)

type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	Logout(userID uuid.UUID) error
	Session() SessionResponse
	ResetPassword(email, oldPassword, newPassword string) error
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Profile    model.UserProfile  `json:"profile"`
	Privileges []string           `json:"privileges"`
}

// SessionResponse is what the device currently holds.
type SessionResponse struct {
	Profile  *model.UserProfile `json:"profile"`
	Settings model.Settings     `json:"settings"`
}

type authService struct {
	userRepo repository.UserRepository
	store    *store.Store
	log      *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, st *store.Store, log *zap.Logger) AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{userRepo: userRepo, store: st, log: log}
}

func (s *authService) Login(email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// Single session: a new token version invalidates older tokens.
	user.TokenVersion = uuid.NewString()
	if err := s.userRepo.UpdateTokenVersion(user.ID, user.TokenVersion); err != nil {
		return nil, errors.New("failed to update session")
	}
	if err := s.userRepo.UpdateLastLogin(user.ID); err != nil {
		s.log.Warn("last login not recorded", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	now := time.Now()
	user.LastLoginAt = &now

	privileges := user.GetPrivilegeCodes()
	token, err := jwt.GenerateToken(user.ID, user.Email, user.FullName, user.BranchID, user.RoleCode(), privileges, user.TokenVersion)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	profile := user.Profile()
	// Another branch's data must not leak into this session.
	if prev := s.store.UserProfile(); prev != nil && prev.BranchID != profile.BranchID {
		s.log.Info("branch changed, clearing local data",
			zap.String("from", prev.BranchID), zap.String("to", profile.BranchID))
		s.store.SetUserProfile(nil)
	}
	s.store.SetUserProfile(&profile)
	s.store.Login()

	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Profile:    profile,
		Privileges: privileges,
	}, nil
}

// Logout clears the device session. Rotating the token version needs the
// remote; when it is unreachable the local logout still happens.
func (s *authService) Logout(userID uuid.UUID) error {
	if err := s.userRepo.UpdateTokenVersion(userID, uuid.NewString()); err != nil {
		s.log.Warn("token version not rotated", zap.String("user_id", userID.String()), zap.Error(err))
	}
	s.store.Logout()
	return nil
}

func (s *authService) Session() SessionResponse {
	return SessionResponse{Profile: s.store.UserProfile(), Settings: s.store.Settings()}
}

func (s *authService) ResetPassword(email, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return ErrWeakPassword
	}
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return ErrUserNotFound
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(newPassword); err != nil {
		return errors.New("failed to hash new password")
	}
	if err := s.userRepo.UpdatePassword(user.ID, user.Password); err != nil {
		return err
	}
	// Other devices have to sign in again.
	return s.userRepo.UpdateTokenVersion(user.ID, uuid.NewString())
}
