package service

import (
	"user-center/database"
	"user-center/database/model"
	"user-center/util/common"
	"user-center/util/crypto"
	"user-center/web/policy"

	"gorm.io/gorm"
)

// ErrInvalidCredentials deliberately does not distinguish unknown email
// from wrong password.
var ErrInvalidCredentials = common.NewError("Invalid credentials")

// ErrAccountInactive rejects logins for deactivated accounts.
var ErrAccountInactive = common.NewError("Account is inactive")

// AuthService handles credential checks and the auth-related audit events.
// Token issuance itself lives in TokenService.
type AuthService struct {
	DB       *gorm.DB
	users    *UserService
	tokens   *TokenService
	activity *ActivityService
}

func NewAuthService() *AuthService {
	return &AuthService{
		DB:       database.GetDB(),
		users:    NewUserService(),
		tokens:   NewTokenService(),
		activity: NewActivityService(),
	}
}

// Login verifies the credentials, rejects inactive accounts, records a
// user_login entry and issues a token pair.
func (s *AuthService) Login(email, password string, meta *RequestMeta) (*model.User, *TokenPair, error) {
	user, err := s.users.GetByEmail(email)
	if err == common.ErrNotFound {
		return nil, nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, nil, err
	}

	if !crypto.CheckPasswordHash(user.Password, password) {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, nil, ErrAccountInactive
	}

	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, nil, err
	}

	s.activity.Record(user.Id, ActionUserLogin, "", map[string]any{"email": user.Email}, meta)
	return user, pair, nil
}

// Logout records a user_logout entry. Tokens are stateless and expire on
// their own; the entry is the security-relevant part.
func (s *AuthService) Logout(p policy.Principal, email string, meta *RequestMeta) {
	s.activity.Record(p.Id, ActionUserLogout, "", map[string]any{"email": email}, meta)
}

// Refresh exchanges a valid refresh token for a fresh pair. The user row is
// reloaded so deactivation cuts the session at the next refresh.
func (s *AuthService) Refresh(refreshToken string) (*model.User, *TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	user, err := s.users.GetById(claims.UserId)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}
	if !user.Active {
		return nil, nil, ErrAccountInactive
	}

	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// ChangePassword updates the principal's own password after verifying the
// current one.
func (s *AuthService) ChangePassword(p policy.Principal, currentPassword, newPassword string) error {
	user, err := s.users.GetById(p.Id)
	if err != nil {
		return err
	}

	if !crypto.CheckPasswordHash(user.Password, currentPassword) {
		return &common.RequestError{Message: "Current password is incorrect"}
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.DB.Model(&model.User{}).Where("id = ?", user.Id).Update("password", hash).Error
}
