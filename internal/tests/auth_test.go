package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// plainHasher avoids bcrypt cost in tests.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "plain:"+password {
		return errors.New("mismatch")
	}
	return nil
}

func newAuthFixture() (*service.AuthService, *MockUserRepository) {
	users := NewMockUserRepository()
	tokens := service.NewTokenManager("test-secret", time.Hour)
	return service.NewAuthService(users, plainHasher{}, tokens), users
}

func TestAuth_FirstAdminBecomesSuperAdmin(t *testing.T) {
	t.Parallel()

	svc, _ := newAuthFixture()
	ctx := context.Background()

	first, err := svc.Signup(ctx, service.SignupRequest{
		Email: "root@example.com", Password: "pw", Name: "Root", Role: domain.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("first signup: %v", err)
	}
	if !first.User.IsSuperAdmin {
		t.Error("expected first admin to be super admin")
	}

	second, err := svc.Signup(ctx, service.SignupRequest{
		Email: "ops@example.com", Password: "pw", Name: "Ops", Role: domain.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("second signup: %v", err)
	}
	if second.User.IsSuperAdmin {
		t.Error("expected later admins to be regular admins")
	}
}

func TestAuth_DriversStartUnapproved(t *testing.T) {
	t.Parallel()

	svc, _ := newAuthFixture()
	ctx := context.Background()

	driver, err := svc.Signup(ctx, service.SignupRequest{
		Email: "driver@example.com", Password: "pw", Name: "Ravi",
		Role: domain.RoleDriver, VehicleType: "Tata Ace",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if driver.User.Approved {
		t.Error("expected driver to start unapproved")
	}

	// Login is blocked until an admin approves.
	if _, err := svc.Login(ctx, "driver@example.com", "pw"); !errors.Is(err, service.ErrAccountNotApproved) {
		t.Fatalf("expected ErrAccountNotApproved, got %v", err)
	}

	customer, err := svc.Signup(ctx, service.SignupRequest{
		Email: "c@example.com", Password: "pw", Name: "Asha", Role: domain.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("customer signup: %v", err)
	}
	if !customer.User.Approved {
		t.Error("expected non-drivers to be approved immediately")
	}
}

func TestAuth_ApproveDriverUnblocksLogin(t *testing.T) {
	t.Parallel()

	svc, _ := newAuthFixture()
	ctx := context.Background()

	admin, _ := svc.Signup(ctx, service.SignupRequest{
		Email: "root@example.com", Password: "pw", Name: "Root", Role: domain.RoleAdmin,
	})
	driver, _ := svc.Signup(ctx, service.SignupRequest{
		Email: "driver@example.com", Password: "pw", Name: "Ravi", Role: domain.RoleDriver,
	})

	if _, err := svc.ApproveDriver(ctx, admin.User.ID, driver.User.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.Login(ctx, "driver@example.com", "pw"); err != nil {
		t.Fatalf("login after approval: %v", err)
	}
}

func TestAuth_DuplicateEmailRejected(t *testing.T) {
	t.Parallel()

	svc, _ := newAuthFixture()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, service.SignupRequest{
		Email: "a@example.com", Password: "pw", Name: "A", Role: domain.RoleCustomer,
	}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, err := svc.Signup(ctx, service.SignupRequest{
		Email: "A@Example.com", Password: "pw", Name: "A2", Role: domain.RoleCustomer,
	})
	if !errors.Is(err, service.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuth_LoginWrongPassword(t *testing.T) {
	t.Parallel()

	svc, _ := newAuthFixture()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, service.SignupRequest{
		Email: "a@example.com", Password: "pw", Name: "A", Role: domain.RoleCustomer,
	}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, err := svc.Login(ctx, "a@example.com", "wrong"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "pw"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestAuth_SuperAdminGuards(t *testing.T) {
	t.Parallel()

	svc, _ := newAuthFixture()
	ctx := context.Background()

	super, _ := svc.Signup(ctx, service.SignupRequest{
		Email: "root@example.com", Password: "pw", Name: "Root", Role: domain.RoleAdmin,
	})

	// Only the super admin can create admins.
	other, err := svc.CreateAdmin(ctx, super.User.ID, service.SignupRequest{
		Email: "ops@example.com", Password: "pw", Name: "Ops",
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if _, err := svc.CreateAdmin(ctx, other.ID, service.SignupRequest{
		Email: "more@example.com", Password: "pw", Name: "More",
	}); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-super actor, got %v", err)
	}

	// The super admin cannot be deleted, and nobody deletes themselves.
	if err := svc.DeleteAdmin(ctx, super.User.ID, super.User.ID); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden deleting self, got %v", err)
	}
	if err := svc.DeleteAdmin(ctx, other.ID, super.User.ID); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-super actor, got %v", err)
	}
	if err := svc.DeleteAdmin(ctx, super.User.ID, other.ID); err != nil {
		t.Errorf("expected super admin to delete a regular admin, got %v", err)
	}
}

func TestAuth_TokenRoundTrip(t *testing.T) {
	t.Parallel()

	tokens := service.NewTokenManager("test-secret", time.Hour)
	user := &domain.User{ID: "user-1", Role: domain.RoleDriver}

	signed, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := tokens.Parse(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != domain.RoleDriver {
		t.Errorf("unexpected claims: %+v", claims)
	}

	if _, err := tokens.Parse(signed + "x"); !errors.Is(err, service.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for tampered token, got %v", err)
	}

	otherKey := service.NewTokenManager("other-secret", time.Hour)
	if _, err := otherKey.Parse(signed); !errors.Is(err, service.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken across keys, got %v", err)
	}
}
