package services

import (
	"errors"
	"testing"

	"quizbit-backend/internal/models"
)

func TestRegisterCreatesUserWithProfile(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuthService(db, "test-secret")

	token, err := auth.Register("eve@example.com", "eve", "s3cret")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}

	var user models.User
	if err := db.First(&user, "email = ?", "eve@example.com").Error; err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if user.PasswordHash == "s3cret" {
		t.Fatal("password stored in plain text")
	}

	// Every user gets exactly one profile.
	var profiles int64
	db.Model(&models.Profile{}).Where("user_id = ?", user.ID).Count(&profiles)
	if profiles != 1 {
		t.Fatalf("expected 1 profile, got %d", profiles)
	}

	// The issued token resolves back to the user.
	userID, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("token validation failed: %v", err)
	}
	if userID != user.ID {
		t.Fatalf("token user = %s, want %s", userID, user.ID)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuthService(db, "test-secret")

	if _, err := auth.Register("eve@example.com", "eve", "pw"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := auth.Register("eve@example.com", "eve2", "pw"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}
	if _, err := auth.Register("eve2@example.com", "eve", "pw"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuthService(db, "test-secret")

	if _, err := auth.Register("eve@example.com", "eve", "pw"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, err := auth.Login("eve@example.com", "pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := auth.ValidateToken(token); err != nil {
		t.Fatalf("token validation failed: %v", err)
	}

	if _, err := auth.Login("eve@example.com", "wrong"); err == nil {
		t.Fatal("expected error for bad password")
	}
	if _, err := auth.Login("nobody@example.com", "pw"); err == nil {
		t.Fatal("expected error for unknown email")
	}
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuthService(db, "secret-a")
	other := NewAuthService(db, "secret-b")

	token, err := auth.GenerateToken("some-user-id")
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatal("expected validation to fail under a different secret")
	}
	if _, err := auth.ValidateToken("not.a.token"); err == nil {
		t.Fatal("expected validation to fail for garbage input")
	}
}
