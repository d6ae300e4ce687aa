package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/readflowhq/readflow-backend/internal/captcha"
	"github.com/readflowhq/readflow-backend/internal/logging"
	"github.com/readflowhq/readflow-backend/internal/mailer"
	"github.com/readflowhq/readflow-backend/internal/models"
	"github.com/readflowhq/readflow-backend/internal/oauth"
	"github.com/readflowhq/readflow-backend/internal/session"
	"github.com/readflowhq/readflow-backend/internal/token"
)

var (
	ErrChallengeRejected  = errors.New("captcha challenge rejected")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrDeliveryFailed     = errors.New("could not deliver login code")
	ErrNoCodeIssued       = errors.New("no login code issued for this session")
	ErrCodeMismatch       = errors.New("login code does not match")
	ErrCodeExpired        = errors.New("login code expired")
	ErrUserInactive       = errors.New("user not found or deactivated")
	ErrTokenSuperseded    = errors.New("refresh token superseded")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminExists        = errors.New("an admin account already exists")
	ErrInvalidSetupKey    = errors.New("invalid setup key")
)

const mailTimeout = 15 * time.Second

// AuthResult carries the freshly minted token pair. RefreshToken is
// empty when the active policy does not rotate on refresh.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

type AuthService struct {
	db               *gorm.DB
	tokens           *token.Service
	otp              session.Store
	mail             mailer.Sender
	captcha          captcha.Verifier
	otpTTL           time.Duration
	adminSetupSecret string
	now              func() time.Time
	genCode          func() (string, error)
}

func NewAuthService(db *gorm.DB, tokens *token.Service, otp session.Store, mail mailer.Sender, verifier captcha.Verifier, otpTTL time.Duration, adminSetupSecret string) *AuthService {
	return &AuthService{
		db:               db,
		tokens:           tokens,
		otp:              otp,
		mail:             mail,
		captcha:          verifier,
		otpTTL:           otpTTL,
		adminSetupSecret: adminSetupSecret,
		now:              time.Now,
		genCode:          generateCode,
	}
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// SendOTP verifies the captcha challenge, ensures a user record exists
// for the address and emails a fresh login code. The code is only
// persisted to the session after the mail has been handed off, so a
// delivery failure leaves no dangling code behind.
func (s *AuthService) SendOTP(ctx context.Context, sessionID, email, captchaToken string) error {
	if err := s.captcha.Verify(ctx, captchaToken); err != nil {
		if errors.Is(err, captcha.ErrRejected) {
			return ErrChallengeRejected
		}
		return err
	}

	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	user, err := s.findOrCreateUser(email)
	if err != nil {
		return err
	}

	code, err := s.genCode()
	if err != nil {
		return err
	}

	mailCtx, cancel := context.WithTimeout(ctx, mailTimeout)
	defer cancel()
	if err := s.mail.SendOTP(mailCtx, email, code); err != nil {
		slog.Error("otp delivery failed", "email", email, "error", err.Error())
		return ErrDeliveryFailed
	}

	if err := s.otp.Put(ctx, sessionID, session.Code{
		Code:      code,
		Email:     email,
		ExpiresAt: s.now().Add(s.otpTTL),
	}, s.otpTTL); err != nil {
		return err
	}

	slog.Info("otp issued", "email", email, "user_id", user.ID.String())
	return nil
}

// VerifyOTP redeems a login code. A correct code is consumed
// atomically so concurrent submissions mint at most one token pair; a
// wrong code leaves the stored code intact for another attempt, while
// an expired code is discarded on sight.
func (s *AuthService) VerifyOTP(ctx context.Context, sessionID, email, code string) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	stored, err := s.otp.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrNoCodeIssued
		}
		return nil, err
	}

	if s.now().After(stored.ExpiresAt) {
		_ = s.otp.Delete(ctx, sessionID)
		return nil, ErrCodeExpired
	}
	if stored.Email != email || stored.Code != code {
		return nil, ErrCodeMismatch
	}

	ok, err := s.otp.ConsumeIfMatch(ctx, sessionID, email, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoCodeIssued
	}

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserInactive
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	s.touchLastLogin(&user)
	logging.Audit(s.db, "user_login", &user.ID, map[string]interface{}{"method": "otp"})
	return s.mintPair(&user)
}

// Refresh exchanges a refresh token for a new access token. Under the
// single session policy the refresh token itself is rotated and the
// previous one can never be replayed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserInactive
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	if s.tokens.Policy() == token.PolicyStateless {
		access, err := s.tokens.MintAccess(&user)
		if err != nil {
			return nil, err
		}
		return &AuthResult{AccessToken: access, User: &user}, nil
	}

	presented := token.Hash(refreshToken)
	if user.RefreshTokenHash != presented {
		return nil, ErrTokenSuperseded
	}

	access, err := s.tokens.MintAccess(&user)
	if err != nil {
		return nil, err
	}
	next, err := s.tokens.MintRefresh(&user)
	if err != nil {
		return nil, err
	}

	// Compare-and-swap on the stored hash so two racing refreshes
	// cannot both rotate; the loser sees zero rows updated.
	res := s.db.Model(&models.User{}).
		Where("id = ? AND refresh_token_hash = ?", user.ID, presented).
		Update("refresh_token_hash", token.Hash(next))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrTokenSuperseded
	}

	return &AuthResult{AccessToken: access, RefreshToken: next, User: &user}, nil
}

// Logout revokes the user's current session. Calling it again is a
// no-op.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if s.tokens.Policy() == token.PolicyStateless {
		return nil
	}
	return s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("refresh_token_hash", "").Error
}

// GoogleSignIn logs in or provisions a user from a verified Google
// profile. An existing account with the same email is linked rather
// than duplicated.
func (s *AuthService) GoogleSignIn(ctx context.Context, profile *oauth.Profile) (*AuthResult, error) {
	email, err := normalizeEmail(profile.Email)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.Where("google_id = ?", profile.ID).Or("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Email:    email,
			Name:     profile.Name,
			Role:     models.RoleUser,
			GoogleID: &profile.ID,
			IsActive: true,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if !user.IsActive {
			return nil, ErrUserInactive
		}
		updates := map[string]interface{}{}
		if user.GoogleID == nil {
			updates["google_id"] = profile.ID
		}
		if user.Name == "" && profile.Name != "" {
			updates["name"] = profile.Name
		}
		if len(updates) > 0 {
			if err := s.db.Model(&user).Updates(updates).Error; err != nil {
				return nil, err
			}
		}
	}

	s.touchLastLogin(&user)
	logging.Audit(s.db, "user_login", &user.ID, map[string]interface{}{"method": "google"})
	return s.mintPair(&user)
}

// AdminLogin authenticates an admin with email and password.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	if err := s.db.Where("email = ? AND role = ?", email, models.RoleAdmin).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.touchLastLogin(&user)
	logging.Audit(s.db, "admin_login", &user.ID, nil)
	return s.mintPair(&user)
}

// AdminSignup creates the very first admin account. It is guarded by a
// setup secret and refuses to run once any admin exists.
func (s *AuthService) AdminSignup(ctx context.Context, email, password, name, secretKey string) (*models.User, error) {
	if s.adminSetupSecret == "" || secretKey != s.adminSetupSecret {
		return nil, ErrInvalidSetupKey
	}

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAdminExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:    email,
		Name:     name,
		Password: string(hash),
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	logging.Audit(s.db, "admin_signup", &user.ID, nil)
	return &user, nil
}

func (s *AuthService) findOrCreateUser(email string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	name := email
	if i := strings.Index(email, "@"); i > 0 {
		name = email[:i]
	}
	user = models.User{
		Email:    email,
		Name:     name,
		Role:     models.RoleUser,
		IsActive: true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) touchLastLogin(user *models.User) {
	now := s.now()
	user.LastLogin = &now
	if err := s.db.Model(user).Update("last_login", now).Error; err != nil {
		slog.Error("failed to record last login", "user_id", user.ID.String(), "error", err.Error())
	}
}

func (s *AuthService) mintPair(user *models.User) (*AuthResult, error) {
	access, err := s.tokens.MintAccess(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.MintRefresh(user)
	if err != nil {
		return nil, err
	}
	if s.tokens.Policy() == token.PolicySingleSession {
		if err := s.db.Model(user).Update("refresh_token_hash", token.Hash(refresh)).Error; err != nil {
			return nil, err
		}
	}
	return &AuthResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}
