package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// PasswordHasher abstracts password hashing so tests can avoid bcrypt cost.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// BcryptHasher is the production PasswordHasher.
type BcryptHasher struct{}

// Hash hashes a password at the default cost.
func (BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare checks a password against its hash.
func (BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

var _ PasswordHasher = BcryptHasher{}

// AuthService handles accounts and sessions. The first admin to sign up
// becomes the immutable super admin; drivers start unapproved and must be
// cleared by an admin before they can work.
type AuthService struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	tokens   *TokenManager
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, hasher PasswordHasher, tokens *TokenManager) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		now:      time.Now,
	}
}

// SignupRequest contains the parameters for registering an account.
type SignupRequest struct {
	Email       string
	Password    string
	Name        string
	Role        domain.Role
	VehicleType string // drivers only
}

// AuthResponse carries the account and its session token.
type AuthResponse struct {
	User  *domain.User
	Token string
}

// Signup registers a new account.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" || req.Name == "" {
		return nil, ErrInvalidCredentials
	}
	if !req.Role.IsValid() {
		return nil, ErrInvalidCredentials
	}

	user := &domain.User{
		ID:          uuid.New().String(),
		Email:       email,
		Name:        req.Name,
		Role:        req.Role,
		Approved:    req.Role != domain.RoleDriver,
		Active:      true,
		VehicleType: req.VehicleType,
		CreatedAt:   s.now(),
		UpdatedAt:   s.now(),
	}

	// The first admin account becomes the super admin and can never be
	// deleted or demoted.
	if req.Role == domain.RoleAdmin {
		admins, err := s.userRepo.GetByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return nil, err
		}
		user.IsSuperAdmin = len(admins) == 0
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{User: user, Token: token}, nil
}

// Login authenticates an account and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrAccountDisabled
	}
	if user.Role == domain.RoleDriver && !user.Approved {
		return nil, ErrAccountNotApproved
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{User: user, Token: token}, nil
}

// GetUser retrieves an account by id.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, ErrInvalidCredentials
	}
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfileRequest contains the caller's own profile changes.
type UpdateProfileRequest struct {
	UserID string
	Name   *string
	Active *bool
}

// UpdateProfile lets a user change their display name or duty flag.
func (s *AuthService) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != "" {
		user.Name = *req.Name
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	user.UpdatedAt = s.now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ApproveDriver clears a driver for work. Only admins may approve.
func (s *AuthService) ApproveDriver(ctx context.Context, actorID, driverID string) (*domain.User, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}

	driver, err := s.userRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if driver.Role != domain.RoleDriver {
		return nil, ErrForbidden
	}

	driver.Approved = true
	driver.UpdatedAt = s.now()
	if err := s.userRepo.Update(ctx, driver); err != nil {
		return nil, err
	}

	return driver, nil
}

// CreateAdmin registers a new admin account. Only the super admin may do so.
func (s *AuthService) CreateAdmin(ctx context.Context, actorID string, req SignupRequest) (*domain.User, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsSuperAdmin {
		return nil, ErrForbidden
	}

	req.Role = domain.RoleAdmin
	resp, err := s.Signup(ctx, req)
	if err != nil {
		return nil, err
	}

	return resp.User, nil
}

// DeleteAdmin removes an admin account. The super admin cannot be deleted,
// and the actor cannot delete themselves.
func (s *AuthService) DeleteAdmin(ctx context.Context, actorID, targetID string) error {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.IsSuperAdmin {
		return ErrForbidden
	}
	if actorID == targetID {
		return ErrForbidden
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target.Role != domain.RoleAdmin {
		return ErrForbidden
	}
	if target.IsSuperAdmin {
		return ErrSuperAdminImmutable
	}

	return s.userRepo.Delete(ctx, targetID)
}

// ListUsers returns every account.
func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.GetAll(ctx)
}

// ListByRole returns all accounts with the given role.
func (s *AuthService) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	if !role.IsValid() {
		return nil, ErrInvalidCredentials
	}
	return s.userRepo.GetByRole(ctx, role)
}
