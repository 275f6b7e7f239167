package services

import (
	"errors"
	"testing"
	"time"

	"drinklog/internal/models"
	"drinklog/internal/testutil"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestCreateUser(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, err := svc.CreateUser("alice@example.com", "password123", "Alice")
		testutil.AssertNoError(t, err)

		if user.ID == "" {
			t.Fatal("expected user ID")
		}
		if user.Email != "alice@example.com" {
			t.Errorf("expected email alice@example.com, got %s", user.Email)
		}
		if user.DisplayName != "Alice" {
			t.Errorf("expected display name Alice, got %s", user.DisplayName)
		}
		if !user.IsActive {
			t.Error("expected user to be active")
		}
	})

	t.Run("email_lookup_failure", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		failQueries := func(tx *gorm.DB) { _ = tx.AddError(errors.New("lookup failed")) }
		if err := db.Callback().Query().Before("gorm:query").Register("test:fail_query", failQueries); err != nil {
			t.Fatalf("register callback: %v", err)
		}

		_, err := svc.CreateUser("carol@example.com", "password123", "Carol")
		testutil.AssertAppError(t, err, "INTERNAL_ERROR")

		if err := db.Callback().Query().Remove("test:fail_query"); err != nil {
			t.Fatalf("remove callback: %v", err)
		}
		var count int64
		db.Model(&models.User{}).Where("email = ?", "carol@example.com").Count(&count)
		if count != 0 {
			t.Errorf("expected no user to be created, got %d", count)
		}
	})

	t.Run("display_name_defaults_to_email_local_part", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, err := svc.CreateUser("bob@example.com", "password123", "  ")
		testutil.AssertNoError(t, err)

		if user.DisplayName != "bob" {
			t.Errorf("expected display name bob, got %q", user.DisplayName)
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("dup@example.com", "password123", "")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser("DUP@example.com", "password456", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("empty_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("", "password123", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("empty_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("test@example.com", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("email_normalized_to_lowercase", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, err := svc.CreateUser("Alice@EXAMPLE.COM", "password123", "")
		testutil.AssertNoError(t, err)

		if user.Email != "alice@example.com" {
			t.Errorf("expected lowercased email, got %s", user.Email)
		}
	})
}

func TestGetUserByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		created := testutil.CreateTestUserWithEmail(t, db, "found@example.com")
		user, err := svc.GetUserByEmail("found@example.com")
		testutil.AssertNoError(t, err)

		if user.ID != created.ID {
			t.Errorf("expected user ID %s, got %s", created.ID, user.ID)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.GetUserByEmail("nonexistent@example.com")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})

	t.Run("inactive_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user := testutil.CreateTestUserWithEmail(t, db, "inactive@example.com")
		db.Model(user).Update("is_active", false)

		_, err := svc.GetUserByEmail("inactive@example.com")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestGetUserByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		created := testutil.CreateTestUser(t, db)
		user, err := svc.GetUserByID(created.ID)
		testutil.AssertNoError(t, err)

		if user.Email != created.Email {
			t.Errorf("expected email %s, got %s", created.Email, user.Email)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.GetUserByID("0190a8f2-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestVerifyPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	// Fixture uses "password123" with bcrypt.MinCost
	user := testutil.CreateTestUser(t, db)
	if !svc.VerifyPassword(user, "password123") {
		t.Error("expected password verification to succeed")
	}
	if svc.VerifyPassword(user, "wrongpassword") {
		t.Error("expected password verification to fail")
	}
}

func TestAttemptLogin(t *testing.T) {
	t.Run("success_resets_attempts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		testutil.CreateTestUserWithEmail(t, db, "login@example.com")
		db.Exec("UPDATE users SET failed_login_attempts = 3 WHERE email = ?", "login@example.com")

		user, err := svc.AttemptLogin("login@example.com", "password123")
		testutil.AssertNoError(t, err)

		if user.FailedLoginAttempts != 0 {
			t.Errorf("expected 0 failed attempts after success, got %d", user.FailedLoginAttempts)
		}
		if user.LastLoginAt == nil {
			t.Error("expected LastLoginAt to be set after successful login")
		}

		stored, _ := svc.GetUserByEmail("login@example.com")
		if stored.FailedLoginAttempts != 0 {
			t.Errorf("expected stored attempts reset, got %d", stored.FailedLoginAttempts)
		}
	})

	t.Run("wrong_password_increments_attempts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		testutil.CreateTestUserWithEmail(t, db, "fail@example.com")

		_, err := svc.AttemptLogin("fail@example.com", "wrongpassword")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")

		user, _ := svc.GetUserByEmail("fail@example.com")
		if user.FailedLoginAttempts != 1 {
			t.Errorf("expected 1 failed attempt, got %d", user.FailedLoginAttempts)
		}
	})

	t.Run("lockout_after_5_failures", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		testutil.CreateTestUserWithEmail(t, db, "lockout@example.com")

		for i := 0; i < 5; i++ {
			_, err := svc.AttemptLogin("lockout@example.com", "wrong")
			testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
		}

		user, _ := svc.GetUserByEmail("lockout@example.com")
		if user.LockedUntil == nil {
			t.Fatal("expected LockedUntil to be set after 5 failures")
		}
		if !user.LockedUntil.After(time.Now()) {
			t.Error("expected LockedUntil to be in the future")
		}

		_, err := svc.AttemptLogin("lockout@example.com", "password123")
		testutil.AssertAppError(t, err, "ACCOUNT_LOCKED")
	})

	t.Run("expired_lock_starts_fresh_window", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		testutil.CreateTestUserWithEmail(t, db, "expired@example.com")
		db.Exec("UPDATE users SET locked_until = ?, failed_login_attempts = 5 WHERE email = ?",
			time.Now().Add(-time.Minute), "expired@example.com")

		_, err := svc.AttemptLogin("expired@example.com", "wrong")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")

		user, _ := svc.GetUserByEmail("expired@example.com")
		if user.FailedLoginAttempts != 1 {
			t.Errorf("expected window restart at 1, got %d", user.FailedLoginAttempts)
		}
		if user.LockedUntil != nil {
			t.Error("expected lock cleared")
		}
	})

	t.Run("nonexistent_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.AttemptLogin("nobody@example.com", "password123")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})
}

func TestRefreshTokenHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	user := testutil.CreateTestUser(t, db)

	hash := "abcdef1234567890abcdef1234567890abcdef1234567890abcdef1234567890"
	testutil.AssertNoError(t, svc.StoreRefreshTokenHash(user.ID, hash))

	got, err := svc.GetRefreshTokenHash(user.ID)
	testutil.AssertNoError(t, err)
	if got != hash {
		t.Errorf("expected hash %s, got %s", hash, got)
	}

	testutil.AssertNoError(t, svc.ClearRefreshTokenHash(user.ID))
	got, _ = svc.GetRefreshTokenHash(user.ID)
	if got != "" {
		t.Errorf("expected cleared hash, got %s", got)
	}

	err = svc.StoreRefreshTokenHash("0190a8f2-0000-7000-8000-000000000000", hash)
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}

func TestCreateUser_password_is_hashed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	user, err := svc.CreateUser("hash@example.com", "mypassword", "")
	testutil.AssertNoError(t, err)

	if user.Password == "mypassword" {
		t.Error("password should be hashed, not stored as plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("mypassword")); err != nil {
		t.Error("password hash should be valid bcrypt")
	}
}
