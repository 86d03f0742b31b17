// Package identity contains account registration, login and session services.
package identity

import (
	"context"
	"errors"

	"github.com/farmtohome/backend/internal/domain/identity"
	"github.com/farmtohome/backend/internal/domain/shared"
	"github.com/farmtohome/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
)

// AuthService handles registration, login and token lifecycle
type AuthService struct {
	users      identity.UserRepository
	hasher     auth.PasswordHasher
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
}

// NewAuthService creates a new AuthService
func NewAuthService(users identity.UserRepository, hasher auth.PasswordHasher, jwtService *auth.JWTService, blacklist auth.TokenBlacklist) *AuthService {
	return &AuthService{
		users:      users,
		hasher:     hasher,
		jwtService: jwtService,
		blacklist:  blacklist,
	}
}

// Register creates an account and returns a logged-in session.
// Admin accounts cannot be self-registered.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	role := identity.Role(req.Role)
	if role == identity.RoleAdmin {
		return nil, shared.ErrForbidden
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "An account with this email already exists")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Password must be at least 8 characters")
		}
		return nil, err
	}

	user, err := identity.NewUser(req.Name, req.Email, req.Phone, hash, role)
	if err != nil {
		return nil, err
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	return s.buildAuthResponse(user)
}

// Login verifies credentials and issues a token pair
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		// Do not reveal whether the account exists
		return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid email or password")
	}

	if !user.IsActive {
		return nil, shared.NewDomainError("UNAUTHORIZED", "Account is deactivated")
	}
	if !s.hasher.Verify(user.PasswordHash, req.Password) {
		return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid email or password")
	}

	return s.buildAuthResponse(user)
}

func (s *AuthService) buildAuthResponse(user *identity.User) (*AuthResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:                  ToUserResponse(user),
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		TokenType:             pair.TokenType,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
	}, nil
}

// Refresh rotates a refresh token into a new token pair
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid refresh token")
	}

	if s.blacklist != nil {
		blacklisted, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err == nil && blacklisted {
			return nil, shared.NewDomainError("UNAUTHORIZED", "Refresh token has been revoked")
		}
	}

	pair, err := s.jwtService.RefreshTokenPair(req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrMaxRefreshExceeded) {
			return nil, shared.NewDomainError("UNAUTHORIZED", "Session expired, please log in again")
		}
		return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid refresh token")
	}

	// The old refresh token is single-use
	if s.blacklist != nil {
		_ = s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL())
	}

	return &TokenResponse{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		TokenType:             pair.TokenType,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
	}, nil
}

// Logout revokes the presented access token
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.jwtService.ValidateAccessToken(accessToken)
	if err != nil {
		// Already invalid; nothing to revoke
		return nil
	}
	if s.blacklist == nil {
		return nil
	}
	return s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL())
}

// GetProfile returns the account of the authenticated user
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.findByIDString(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

func (s *AuthService) findByIDString(ctx context.Context, userID string) (*identity.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, shared.ErrNotFound
	}
	return s.users.FindByID(ctx, id)
}
