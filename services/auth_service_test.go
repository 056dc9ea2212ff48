package services

import (
	"context"
	"errors"
	"testing"

	"github.com/anleague/tournament-engine/models"
)

func newAuthFixture(t *testing.T) (AuthService, *fakeUserRepo) {
	t.Helper()
	userRepo := newFakeUserRepo()
	return NewAuthService(userRepo), userRepo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Username: "amaka",
		Email:    " Amaka@Example.COM ",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "amaka@example.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if user.Role != models.RoleRepresentative {
		t.Errorf("default role: got %q, want representative", user.Role)
	}
	if user.PasswordHash != "" {
		t.Error("password hash must not be returned")
	}

	logged, err := svc.Login(ctx, models.Credentials{Email: "amaka@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if logged.ID != user.ID {
		t.Errorf("login returned user %d, want %d", logged.ID, user.ID)
	}
	if logged.PasswordHash != "" {
		t.Error("password hash must not be returned on login")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Username: "sef", Email: "sef@example.com", Password: "long-enough"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Login(ctx, models.Credentials{Email: "sef@example.com", Password: "wrong-password"}); !errors.Is(err, ErrAuthInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrAuthInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, models.Credentials{Email: "nobody@example.com", Password: "long-enough"}); !errors.Is(err, ErrAuthInvalidCredentials) {
		t.Errorf("unknown email: got %v, want ErrAuthInvalidCredentials", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)
	_, err := svc.Register(context.Background(), RegisterInput{Username: "x", Email: "x@example.com", Password: "short"})
	if !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("got %v, want ErrPasswordTooShort", err)
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc, _ := newAuthFixture(t)
	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "x", Email: "x@example.com", Password: "long-enough", Role: "superuser",
	})
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("got %v, want ErrValidationFailed", err)
	}
}

func TestRegisterEmailConflict(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	input := RegisterInput{Username: "first", Email: "taken@example.com", Password: "long-enough"}
	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("first register: %v", err)
	}
	input.Username = "second"
	if _, err := svc.Register(ctx, input); !errors.Is(err, ErrAuthEmailTaken) {
		t.Errorf("duplicate email: got %v, want ErrAuthEmailTaken", err)
	}
}

func TestGetUserClearsHash(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "kwame", Email: "kwame@example.com", Password: "long-enough", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	got, err := svc.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if got.Role != models.RoleAdmin {
		t.Errorf("role: got %q, want admin", got.Role)
	}
	if got.PasswordHash != "" {
		t.Error("password hash must not be returned")
	}

	if _, err := svc.GetUser(ctx, 999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown id: got %v, want ErrUserNotFound", err)
	}
}
