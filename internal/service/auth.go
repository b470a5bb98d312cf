package service

import (
	"context"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/repository"
	"lendtrust-backend/internal/security"
	"lendtrust-backend/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

type authService struct {
	userRepo repository.UserRepository
	sessions security.SessionManager
}

func NewAuthService(userRepo repository.UserRepository, sessions security.SessionManager) AuthService {
	return &authService{userRepo: userRepo, sessions: sessions}
}

func (s *authService) Signup(ctx context.Context, username, email, phone, name, password string) (*domain.User, string, error) {
	if !utils.ValidUsername(username) {
		return nil, "", domain.Validation("Username must be 3-30 characters of letters, digits, underscore or hyphen")
	}
	if email == "" {
		return nil, "", domain.Validation("Email is required")
	}
	if len(password) < 8 {
		return nil, "", domain.Validation("Password must be at least 8 characters")
	}
	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil, "", domain.Validation("Username is already taken")
	}
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, "", domain.Validation("Email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		Username:     username,
		Email:        utils.SanitizeText(email),
		PhoneNumber:  utils.SanitizeText(phone),
		PasswordHash: string(hash),
		Name:         utils.SanitizeText(name),
		TrustScore:   domain.DefaultTrustScore,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.sessions.CreateSession(username)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		// Same reason for unknown user and bad password.
		return nil, "", domain.Unauthorized("Invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.Unauthorized("Invalid username or password")
	}

	token, err := s.sessions.CreateSession(username)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.DeleteSession(token); err != nil {
		return domain.Unauthorized("Invalid session")
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (string, error) {
	username, err := s.sessions.GetUsername(token)
	if err != nil {
		return "", domain.Unauthorized("Invalid session")
	}
	return username, nil
}
