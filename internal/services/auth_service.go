package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Eswarhead/handcrafted-marketplace/internal/models"
	"github.com/Eswarhead/handcrafted-marketplace/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// IdentityProvider turns a bearer token into the caller it belongs to.
type IdentityProvider interface {
	Authenticate(ctx context.Context, token string) (*models.Caller, error)
}

// AuthService handles registration, login and token validation.
type AuthService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *zap.Logger
}

// NewAuthService creates a new AuthService. A non-positive ttl uses DefaultTokenTTL.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, ttl time.Duration, logger *zap.Logger) *AuthService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  ttl,
		logger:    logger.Named("auth"),
	}
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     models.Role
}

// RegisterUser creates an account and returns it together with an access token.
// Self-registration may pick buyer or seller; the role defaults to buyer.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	role := in.Role
	if role == "" {
		role = models.RoleBuyer
	}
	if !role.Valid() {
		return nil, "", validationError("unknown role", "role")
	}
	if role == models.RoleAdmin {
		return nil, "", validationError("admin accounts cannot be self-registered", "role")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", newError(KindInternal, "failed to hash password", err)
	}

	user := &models.User{
		Email:    normalizeEmail(in.Email),
		Name:     strings.TrimSpace(in.Name),
		Password: string(hashedPassword),
		Role:     role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, "", newError(KindConflict, fmt.Sprintf("email '%s' already registered", user.Email), nil)
		}
		s.logger.Error("failed to register user", zap.Error(err))
		return nil, "", newError(KindInternal, "could not register user", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// LoginUser checks the credentials and returns the user with a fresh token.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*models.User, string, error) {
	invalid := newError(KindUnauthorized, "invalid credentials", nil)

	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		s.logger.Error("failed to load user for login", zap.Error(err))
		return nil, "", newError(KindInternal, "could not log in", err)
	}
	if user == nil {
		return nil, "", invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", invalid
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Me returns the account of the caller.
func (s *AuthService) Me(ctx context.Context, caller *models.Caller) (*models.User, error) {
	if caller == nil {
		return nil, newError(KindUnauthorized, "authentication required", nil)
	}
	user, err := s.userRepo.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, newError(KindInternal, "could not load user", err)
	}
	if user == nil {
		return nil, newError(KindNotFound, "user not found", nil)
	}
	return user, nil
}

// Authenticate validates the token and loads its user, so the returned role is always the
// stored one rather than whatever the token was issued with.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Caller, error) {
	claims, err := s.ValidateToken(token)
	if err != nil {
		return nil, newError(KindUnauthorized, "invalid or expired token", err)
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return nil, newError(KindUnauthorized, "invalid token", nil)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load token user", zap.String("user_id", userID), zap.Error(err))
		return nil, newError(KindInternal, "could not authenticate", err)
	}
	if user == nil {
		return nil, newError(KindUnauthorized, "invalid user", nil)
	}
	return &models.Caller{ID: user.ID, Role: user.Role}, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", newError(KindInternal, "failed to generate token", err)
	}
	return signed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
