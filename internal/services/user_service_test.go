package services

import (
	"testing"

	"fintrack/internal/models"
	"fintrack/internal/testutil"

	"golang.org/x/crypto/bcrypt"
)

func newUserInput(username, email, phone string) NewUserInput {
	return NewUserInput{
		Username:    username,
		Email:       email,
		Password:    "password123",
		FirstName:   "Alice",
		LastName:    "Smith",
		PhoneNumber: phone,
	}
}

func TestCreateUser(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)

		user, err := svc.CreateUser(newUserInput("alice", "alice@example.com", "+15550000001"))
		testutil.AssertNoError(t, err)

		if user.ID == "" {
			t.Fatal("expected user ID to be set")
		}
		if user.Email != "alice@example.com" || user.Username != "alice" || user.PhoneNumber != "+15550000001" {
			t.Errorf("unexpected user: %+v", user)
		}
		if user.Password == "password123" {
			t.Error("password must be stored hashed")
		}
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")) != nil {
			t.Error("stored hash should match the submitted password")
		}
	})

	t.Run("duplicate_phone", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)

		first, err := svc.CreateUser(newUserInput("first", "first@example.com", "+15550000002"))
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser(newUserInput("second", "second@example.com", "+15550000002"))
		testutil.AssertAppError(t, err, "DUPLICATE_PHONE_NUMBER")

		var count int64
		db.Model(&models.User{}).Count(&count)
		if count != 1 {
			t.Errorf("expected only the first user to exist, found %d", count)
		}
		if err := db.First(&models.User{}, "id = ?", first.ID).Error; err != nil {
			t.Errorf("first user should still be retrievable: %v", err)
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)

		_, err := svc.CreateUser(newUserInput("a", "dup@example.com", "+15550000003"))
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser(newUserInput("b", "DUP@example.com", "+15550000004"))
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("duplicate_username", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)

		_, err := svc.CreateUser(newUserInput("taken", "a@example.com", "+15550000005"))
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser(newUserInput("taken", "b@example.com", "+15550000006"))
		testutil.AssertAppError(t, err, "DUPLICATE_USERNAME")
	})

	t.Run("missing_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)

		_, err := svc.CreateUser(newUserInput("", "x@example.com", "+15550000007"))
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateUser(newUserInput("x", "", "+15550000007"))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("short_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)

		input := newUserInput("short", "short@example.com", "+15550000008")
		input.Password = "12345"
		_, err := svc.CreateUser(input)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("email_normalized_to_lowercase", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)

		user, err := svc.CreateUser(newUserInput("alice", " Alice@EXAMPLE.COM ", "+15550000009"))
		testutil.AssertNoError(t, err)

		if user.Email != "alice@example.com" {
			t.Errorf("expected lowercased email, got %s", user.Email)
		}
	})
}

func TestGetUserByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)

		created := testutil.CreateTestUserWithEmail(t, db, "found@example.com")
		user, err := svc.GetUserByEmail("Found@Example.com")
		testutil.AssertNoError(t, err)

		if user.ID != created.ID {
			t.Errorf("expected user ID %s, got %s", created.ID, user.ID)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)

		_, err := svc.GetUserByEmail("nonexistent@example.com")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestGetUserByPhone(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)

		created := testutil.CreateTestUser(t, db)
		user, err := svc.GetUserByPhone(created.PhoneNumber)
		testutil.AssertNoError(t, err)

		if user.ID != created.ID {
			t.Errorf("expected user ID %s, got %s", created.ID, user.ID)
		}
	})

	t.Run("not_registered", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)

		_, err := svc.GetUserByPhone("+19999999999")
		testutil.AssertAppError(t, err, "PHONE_NOT_REGISTERED")
	})
}

func TestVerifyPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewUserService(db)
	user := testutil.CreateTestUser(t, db)

	if !svc.VerifyPassword(user, testutil.TestPassword) {
		t.Error("expected password verification to succeed")
	}
	if svc.VerifyPassword(user, "wrongpassword") {
		t.Error("expected password verification to fail")
	}
}

func TestAttemptLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)
		created := testutil.CreateTestUserWithEmail(t, db, "login@example.com")

		user, err := svc.AttemptLogin("login@example.com", testutil.TestPassword)
		testutil.AssertNoError(t, err)
		if user.ID != created.ID || user.Email != "login@example.com" {
			t.Errorf("unexpected user: %+v", user)
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)
		testutil.CreateTestUserWithEmail(t, db, "fail@example.com")

		_, err := svc.AttemptLogin("fail@example.com", "wrongpassword")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)

		_, err := svc.AttemptLogin("ghost@example.com", "password123")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestValidateCurrentPassword(t *testing.T) {
	t.Run("wrong_password_leaves_hash_untouched", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)
		user := testutil.CreateTestUserWithEmail(t, db, "reset@example.com")

		err := svc.ValidateCurrentPassword("reset@example.com", "not-my-password")
		testutil.AssertAppError(t, err, "INVALID_CURRENT_PASSWORD")

		var reloaded models.User
		testutil.AssertNoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
		if reloaded.Password != user.Password {
			t.Error("stored password hash must not change on a failed validation")
		}
	})

	t.Run("correct_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)
		testutil.CreateTestUserWithEmail(t, db, "reset@example.com")

		testutil.AssertNoError(t, svc.ValidateCurrentPassword("reset@example.com", testutil.TestPassword))
	})

	t.Run("unknown_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)

		err := svc.ValidateCurrentPassword("ghost@example.com", "whatever")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestUpdatePassword(t *testing.T) {
	t.Run("new_password_replaces_old", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)
		testutil.CreateTestUserWithEmail(t, db, "rotate@example.com")

		testutil.AssertNoError(t, svc.ValidateCurrentPassword("rotate@example.com", testutil.TestPassword))
		_, err := svc.UpdatePassword("rotate@example.com", "brand-new-secret")
		testutil.AssertNoError(t, err)

		if _, err := svc.AttemptLogin("rotate@example.com", "brand-new-secret"); err != nil {
			t.Errorf("new password should authenticate: %v", err)
		}
		_, err = svc.AttemptLogin("rotate@example.com", testutil.TestPassword)
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)

		_, err := svc.UpdatePassword("ghost@example.com", "brand-new-secret")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})

	t.Run("too_short", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)
		testutil.CreateTestUserWithEmail(t, db, "short@example.com")

		_, err := svc.UpdatePassword("short@example.com", "123")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}
