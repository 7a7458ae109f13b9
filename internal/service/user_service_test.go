package service

import (
	"context"
	"testing"
	"time"

	"pamazon/internal/repository"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"golang.org/x/crypto/bcrypt"
)

func newTestUserService(secret string) (UserService, *mockUserRepository, *mockRefreshTokenRepository) {
	userRepo := newMockUserRepository()
	refreshTokenRepo := newMockRefreshTokenRepository()
	svc := NewUserService(userRepo, refreshTokenRepo, TokenSettings{Secret: secret})
	return svc, userRepo, refreshTokenRepo
}

// bcrypt at cost 10 is slow; keep the run count modest
func bcryptProperties() *gopter.Properties {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 15
	return gopter.NewProperties(params)
}

// Feature: storefront, Property 4: Sign-up creates hashed passwords
func TestProperty_SignUpCreatesHashedPasswords(t *testing.T) {
	properties := bcryptProperties()

	properties.Property("passwords are hashed with bcrypt and not stored as plaintext", prop.ForAll(
		func(email string, password string, name string) bool {
			service, userRepo, _ := newTestUserService("test-secret")
			ctx := context.Background()

			user, err := service.SignUp(ctx, SignUpInput{
				Email:           email,
				Password:        password,
				ConfirmPassword: password,
				Name:            name,
			})
			if err != nil {
				t.Logf("FAIL: sign-up failed: %v", err)
				return false
			}

			if user.PasswordHash == password {
				t.Logf("FAIL: Password stored as plaintext for email %s", email)
				return false
			}

			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
				t.Logf("FAIL: Password hash is not a valid bcrypt hash or doesn't match: %v", err)
				return false
			}

			storedUser, err := userRepo.FindByEmail(ctx, email)
			if err != nil {
				t.Logf("FAIL: Could not find stored user: %v", err)
				return false
			}

			return storedUser.PasswordHash == user.PasswordHash && storedUser.Name == name
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: storefront, Property 5: Access tokens carry the session identity
func TestProperty_AccessTokensCarryIdentity(t *testing.T) {
	properties := bcryptProperties()

	properties.Property("access tokens contain user ID and email claims", prop.ForAll(
		func(email string, password string) bool {
			service, _, _ := newTestUserService("test-secret-key")
			ctx := context.Background()

			user, err := service.SignUp(ctx, SignUpInput{Email: email, Password: password, ConfirmPassword: password})
			if err != nil {
				t.Logf("FAIL: sign-up failed: %v", err)
				return false
			}

			session, err := service.SignIn(ctx, email, password)
			if err != nil {
				t.Logf("FAIL: sign-in failed: %v", err)
				return false
			}

			claims, err := service.ValidateToken(session.AccessToken)
			if err != nil {
				t.Logf("FAIL: Token validation failed: %v", err)
				return false
			}

			if claims.UserID != user.ID {
				t.Logf("FAIL: User ID claim mismatch. Expected %s, got %s", user.ID, claims.UserID)
				return false
			}

			return claims.Email == email && session.RefreshToken != ""
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9]{8,20}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestSignUp_PasswordMismatch(t *testing.T) {
	service, userRepo, _ := newTestUserService("secret")

	_, err := service.SignUp(context.Background(), SignUpInput{
		Email:           "a@b.com",
		Password:        "password-one",
		ConfirmPassword: "password-two",
	})

	if err != ErrPasswordMismatch {
		t.Fatalf("Expected ErrPasswordMismatch, got %v", err)
	}
	if len(userRepo.users) != 0 {
		t.Fatal("No user should be stored when passwords differ")
	}
}

func TestSignUp_DuplicateEmailIsCaseInsensitive(t *testing.T) {
	service, _, _ := newTestUserService("secret")
	ctx := context.Background()

	input := SignUpInput{Email: "Shopper@Example.com", Password: "password1", ConfirmPassword: "password1"}
	if _, err := service.SignUp(ctx, input); err != nil {
		t.Fatalf("First sign-up failed: %v", err)
	}

	input.Email = "shopper@example.com"
	if _, err := service.SignUp(ctx, input); err != repository.ErrUserAlreadyExists {
		t.Fatalf("Expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestSignIn_WrongPassword(t *testing.T) {
	service, _, _ := newTestUserService("secret")
	ctx := context.Background()

	_, err := service.SignUp(ctx, SignUpInput{Email: "a@b.com", Password: "password1", ConfirmPassword: "password1"})
	if err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}

	if _, err := service.SignIn(ctx, "a@b.com", "wrong-password"); err != ErrInvalidCredentials {
		t.Fatalf("Expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := service.SignIn(ctx, "nobody@b.com", "password1"); err != ErrInvalidCredentials {
		t.Fatalf("Expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func signUpAndIn(t *testing.T, service UserService, email string) *Session {
	t.Helper()
	ctx := context.Background()
	if _, err := service.SignUp(ctx, SignUpInput{Email: email, Password: "password1", ConfirmPassword: "password1"}); err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}
	session, err := service.SignIn(ctx, email, "password1")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	return session
}

func TestRefreshAndSignOut(t *testing.T) {
	service, _, tokens := newTestUserService("secret")
	ctx := context.Background()

	session := signUpAndIn(t, service, "a@b.com")
	owner := session.User.ID

	access, err := service.Refresh(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if _, err := service.ValidateToken(access); err != nil {
		t.Fatalf("refreshed token is invalid: %v", err)
	}

	if err := service.SignOut(ctx, owner, session.RefreshToken); err != nil {
		t.Fatalf("sign-out failed: %v", err)
	}
	if _, err := service.Refresh(ctx, session.RefreshToken); err != ErrInvalidToken {
		t.Fatalf("Expected ErrInvalidToken after sign-out, got %v", err)
	}

	// signing out twice, or with an unknown token, is not an error
	if err := service.SignOut(ctx, owner, session.RefreshToken); err != nil {
		t.Fatalf("second sign-out failed: %v", err)
	}
	if err := service.SignOut(ctx, owner, "unknown"); err != nil {
		t.Fatalf("sign-out of unknown token failed: %v", err)
	}

	again, err := service.SignIn(ctx, "a@b.com", "password1")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	tokens.tokens[again.RefreshToken].ExpiresAt = time.Now().Add(-time.Minute)
	if _, err := service.Refresh(ctx, again.RefreshToken); err != ErrTokenExpired {
		t.Fatalf("Expected ErrTokenExpired, got %v", err)
	}
}

func TestSignOut_CannotCloseAnotherAccountsSession(t *testing.T) {
	service, _, _ := newTestUserService("secret")
	ctx := context.Background()

	victim := signUpAndIn(t, service, "victim@b.com")
	intruder := signUpAndIn(t, service, "intruder@b.com")

	if err := service.SignOut(ctx, intruder.User.ID, victim.RefreshToken); err != nil {
		t.Fatalf("sign-out with a foreign token should be a no-op, got %v", err)
	}
	if _, err := service.Refresh(ctx, victim.RefreshToken); err != nil {
		t.Fatalf("victim's session was closed by another account: %v", err)
	}
}

func TestSignOutEverywhere(t *testing.T) {
	service, _, _ := newTestUserService("secret")
	ctx := context.Background()

	first := signUpAndIn(t, service, "a@b.com")
	second, err := service.SignIn(ctx, "a@b.com", "password1")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	other := signUpAndIn(t, service, "c@d.com")

	closed, err := service.SignOutEverywhere(ctx, first.User.ID)
	if err != nil {
		t.Fatalf("sign-out everywhere failed: %v", err)
	}
	if closed != 2 {
		t.Fatalf("Expected 2 sessions closed, got %d", closed)
	}

	for _, token := range []string{first.RefreshToken, second.RefreshToken} {
		if _, err := service.Refresh(ctx, token); err != ErrInvalidToken {
			t.Fatalf("Expected ErrInvalidToken for closed session, got %v", err)
		}
	}
	if _, err := service.Refresh(ctx, other.RefreshToken); err != nil {
		t.Fatalf("another account's session was closed: %v", err)
	}
}

func TestValidateToken_RejectsForeignSecret(t *testing.T) {
	issuer, _, _ := newTestUserService("secret-a")
	verifier, _, _ := newTestUserService("secret-b")
	ctx := context.Background()

	_, err := issuer.SignUp(ctx, SignUpInput{Email: "a@b.com", Password: "password1", ConfirmPassword: "password1"})
	if err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}
	session, err := issuer.SignIn(ctx, "a@b.com", "password1")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}

	if _, err := verifier.ValidateToken(session.AccessToken); err == nil {
		t.Fatal("Expected token signed with another secret to be rejected")
	}
}
