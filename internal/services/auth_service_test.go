package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/readflowhq/readflow-backend/internal/captcha"
	"github.com/readflowhq/readflow-backend/internal/models"
	"github.com/readflowhq/readflow-backend/internal/oauth"
	"github.com/readflowhq/readflow-backend/internal/session"
	"github.com/readflowhq/readflow-backend/internal/token"
)

type fakeMailer struct {
	lastEmail string
	lastCode  string
	sent      int
	fail      bool
}

func (m *fakeMailer) SendOTP(_ context.Context, toEmail, code string) error {
	if m.fail {
		return errors.New("smtp connection refused")
	}
	m.lastEmail = toEmail
	m.lastCode = code
	m.sent++
	return nil
}

type fakeCaptcha struct {
	reject bool
}

func (c *fakeCaptcha) Verify(context.Context, string) error {
	if c.reject {
		return fmt.Errorf("siteverify: %w", captcha.ErrRejected)
	}
	return nil
}

func newTestAuth(t *testing.T, db *gorm.DB) (*AuthService, *fakeMailer, *fakeCaptcha) {
	t.Helper()
	tokens := token.NewService("access-secret", "refresh-secret",
		15*time.Minute, 168*time.Hour, token.PolicySingleSession)
	mail := &fakeMailer{}
	verifier := &fakeCaptcha{}
	svc := NewAuthService(db, tokens, session.NewMemoryStore(), mail, verifier,
		5*time.Minute, "setup-secret")
	return svc, mail, verifier
}

func TestSendOTPCaptchaRejected(t *testing.T) {
	db := testDB(t)
	svc, mail, verifier := newTestAuth(t, db)
	verifier.reject = true

	err := svc.SendOTP(context.Background(), "sess-1", "reader@example.com", "bad-token")
	if !errors.Is(err, ErrChallengeRejected) {
		t.Fatalf("expected ErrChallengeRejected, got %v", err)
	}
	if mail.sent != 0 {
		t.Fatalf("no mail should be sent on a rejected challenge, sent %d", mail.sent)
	}
}

func TestSendOTPNormalizesEmailAndCreatesUser(t *testing.T) {
	db := testDB(t)
	svc, mail, _ := newTestAuth(t, db)

	if err := svc.SendOTP(context.Background(), "sess-1", "  Reader@Example.COM ", "ok"); err != nil {
		t.Fatalf("send otp: %v", err)
	}
	if mail.lastEmail != "reader@example.com" {
		t.Fatalf("mail sent to %q, want normalized address", mail.lastEmail)
	}

	var user models.User
	if err := db.Where("email = ?", "reader@example.com").First(&user).Error; err != nil {
		t.Fatalf("user should be provisioned on first send: %v", err)
	}
	if user.Role != models.RoleUser {
		t.Fatalf("provisioned user role = %q", user.Role)
	}
}

func TestSendOTPDeliveryFailureLeavesNoCode(t *testing.T) {
	db := testDB(t)
	svc, mail, _ := newTestAuth(t, db)
	mail.fail = true

	err := svc.SendOTP(context.Background(), "sess-1", "reader@example.com", "ok")
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}

	_, err = svc.VerifyOTP(context.Background(), "sess-1", "reader@example.com", "000000")
	if !errors.Is(err, ErrNoCodeIssued) {
		t.Fatalf("failed delivery must not leave a code behind, got %v", err)
	}
}

func TestVerifyOTPConsumesCodeOnce(t *testing.T) {
	db := testDB(t)
	svc, mail, _ := newTestAuth(t, db)
	ctx := context.Background()

	if err := svc.SendOTP(ctx, "sess-1", "reader@example.com", "ok"); err != nil {
		t.Fatalf("send otp: %v", err)
	}

	result, err := svc.VerifyOTP(ctx, "sess-1", "reader@example.com", mail.lastCode)
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected a full token pair")
	}
	if result.User.LastLogin == nil {
		t.Fatal("last login should be recorded")
	}

	_, err = svc.VerifyOTP(ctx, "sess-1", "reader@example.com", mail.lastCode)
	if !errors.Is(err, ErrNoCodeIssued) {
		t.Fatalf("a code must be single use, second verify got %v", err)
	}
}

func TestVerifyOTPMismatchKeepsCode(t *testing.T) {
	db := testDB(t)
	svc, mail, _ := newTestAuth(t, db)
	ctx := context.Background()

	if err := svc.SendOTP(ctx, "sess-1", "reader@example.com", "ok"); err != nil {
		t.Fatalf("send otp: %v", err)
	}

	_, err := svc.VerifyOTP(ctx, "sess-1", "reader@example.com", "999999")
	if !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch, got %v", err)
	}

	if _, err := svc.VerifyOTP(ctx, "sess-1", "reader@example.com", mail.lastCode); err != nil {
		t.Fatalf("correct code should still work after a mismatch: %v", err)
	}
}

func TestVerifyOTPWrongSessionOrEmail(t *testing.T) {
	db := testDB(t)
	svc, mail, _ := newTestAuth(t, db)
	ctx := context.Background()

	if err := svc.SendOTP(ctx, "sess-1", "reader@example.com", "ok"); err != nil {
		t.Fatalf("send otp: %v", err)
	}

	if _, err := svc.VerifyOTP(ctx, "sess-2", "reader@example.com", mail.lastCode); !errors.Is(err, ErrNoCodeIssued) {
		t.Fatalf("other session must not see the code, got %v", err)
	}
	if _, err := svc.VerifyOTP(ctx, "sess-1", "other@example.com", mail.lastCode); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("other email must not redeem the code, got %v", err)
	}
}

func TestVerifyOTPExpiredCodeIsDiscarded(t *testing.T) {
	db := testDB(t)
	svc, mail, _ := newTestAuth(t, db)
	ctx := context.Background()

	if err := svc.SendOTP(ctx, "sess-1", "reader@example.com", "ok"); err != nil {
		t.Fatalf("send otp: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(6 * time.Minute) }
	if _, err := svc.VerifyOTP(ctx, "sess-1", "reader@example.com", mail.lastCode); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}

	svc.now = time.Now
	if _, err := svc.VerifyOTP(ctx, "sess-1", "reader@example.com", mail.lastCode); !errors.Is(err, ErrNoCodeIssued) {
		t.Fatalf("expired code must be discarded, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	db := testDB(t)
	svc, mail, _ := newTestAuth(t, db)
	ctx := context.Background()

	if err := svc.SendOTP(ctx, "sess-1", "reader@example.com", "ok"); err != nil {
		t.Fatalf("send otp: %v", err)
	}
	login, err := svc.VerifyOTP(ctx, "sess-1", "reader@example.com", mail.lastCode)
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}

	first, err := svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if first.RefreshToken == "" || first.RefreshToken == login.RefreshToken {
		t.Fatal("refresh must rotate the token")
	}

	if _, err := svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrTokenSuperseded) {
		t.Fatalf("replayed token must be rejected, got %v", err)
	}

	if _, err := svc.Refresh(ctx, first.RefreshToken); err != nil {
		t.Fatalf("current token should refresh: %v", err)
	}
}

func TestRefreshDeactivatedUser(t *testing.T) {
	db := testDB(t)
	svc, mail, _ := newTestAuth(t, db)
	ctx := context.Background()

	if err := svc.SendOTP(ctx, "sess-1", "reader@example.com", "ok"); err != nil {
		t.Fatalf("send otp: %v", err)
	}
	login, err := svc.VerifyOTP(ctx, "sess-1", "reader@example.com", mail.lastCode)
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}

	if err := db.Model(&models.User{}).Where("id = ?", login.User.ID).
		Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate user: %v", err)
	}

	if _, err := svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrUserInactive) {
		t.Fatalf("expected ErrUserInactive, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	db := testDB(t)
	svc, mail, _ := newTestAuth(t, db)
	ctx := context.Background()

	if err := svc.SendOTP(ctx, "sess-1", "reader@example.com", "ok"); err != nil {
		t.Fatalf("send otp: %v", err)
	}
	login, err := svc.VerifyOTP(ctx, "sess-1", "reader@example.com", mail.lastCode)
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}

	if err := svc.Logout(ctx, login.User.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := svc.Logout(ctx, login.User.ID); err != nil {
		t.Fatalf("logout must be idempotent: %v", err)
	}

	if _, err := svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrTokenSuperseded) {
		t.Fatalf("revoked token must not refresh, got %v", err)
	}
}

func TestGoogleSignInLinksExistingAccount(t *testing.T) {
	db := testDB(t)
	svc, _, _ := newTestAuth(t, db)
	existing := createUser(t, db, "reader@example.com")

	result, err := svc.GoogleSignIn(context.Background(), &oauth.Profile{
		ID:    "google-123",
		Email: "reader@example.com",
		Name:  "Reader",
	})
	if err != nil {
		t.Fatalf("google sign in: %v", err)
	}
	if result.User.ID != existing.ID {
		t.Fatal("existing account should be linked, not duplicated")
	}

	var user models.User
	if err := db.First(&user, "id = ?", existing.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if user.GoogleID == nil || *user.GoogleID != "google-123" {
		t.Fatal("google id should be stored on the linked account")
	}

	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected a single user, got %d", total)
	}
}

func TestGoogleSignInProvisionsNewUser(t *testing.T) {
	db := testDB(t)
	svc, _, _ := newTestAuth(t, db)

	result, err := svc.GoogleSignIn(context.Background(), &oauth.Profile{
		ID:    "google-456",
		Email: "new@example.com",
		Name:  "New Reader",
	})
	if err != nil {
		t.Fatalf("google sign in: %v", err)
	}
	if result.User.Email != "new@example.com" || result.User.Name != "New Reader" {
		t.Fatalf("unexpected provisioned user %+v", result.User)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected a full token pair")
	}
}

func TestAdminSignupGuardedBySetupSecret(t *testing.T) {
	db := testDB(t)
	svc, _, _ := newTestAuth(t, db)
	ctx := context.Background()

	if _, err := svc.AdminSignup(ctx, "admin@example.com", "hunter22", "Admin", "wrong"); !errors.Is(err, ErrInvalidSetupKey) {
		t.Fatalf("expected ErrInvalidSetupKey, got %v", err)
	}

	admin, err := svc.AdminSignup(ctx, "admin@example.com", "hunter22", "Admin", "setup-secret")
	if err != nil {
		t.Fatalf("admin signup: %v", err)
	}
	if admin.Role != models.RoleAdmin {
		t.Fatalf("signup role = %q", admin.Role)
	}

	if _, err := svc.AdminSignup(ctx, "second@example.com", "hunter22", "Second", "setup-secret"); !errors.Is(err, ErrAdminExists) {
		t.Fatalf("expected ErrAdminExists, got %v", err)
	}
}

func TestAdminLogin(t *testing.T) {
	db := testDB(t)
	svc, _, _ := newTestAuth(t, db)
	ctx := context.Background()

	if _, err := svc.AdminSignup(ctx, "admin@example.com", "hunter22", "Admin", "setup-secret"); err != nil {
		t.Fatalf("admin signup: %v", err)
	}

	if _, err := svc.AdminLogin(ctx, "admin@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	result, err := svc.AdminLogin(ctx, "admin@example.com", "hunter22")
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if result.User.Role != models.RoleAdmin || result.AccessToken == "" {
		t.Fatal("expected admin tokens")
	}

	createUser(t, db, "reader@example.com")
	if _, err := svc.AdminLogin(ctx, "reader@example.com", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("regular user must not pass admin login, got %v", err)
	}
}
