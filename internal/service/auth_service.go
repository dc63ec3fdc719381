package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"moodadmin/api/internal/config"
	"moodadmin/api/internal/email"
	"moodadmin/api/internal/ids"
	"moodadmin/api/internal/models"
	"moodadmin/api/internal/repository"
	"moodadmin/api/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

type AuthService struct {
	admins   *repository.AdminRepository
	sessions *repository.AdminSessionRepository
	resets   *repository.PasswordResetRepository
	mailer   *email.Mailer
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(
	admins *repository.AdminRepository,
	sessions *repository.AdminSessionRepository,
	resets *repository.PasswordResetRepository,
	mailer *email.Mailer,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		admins:   admins,
		sessions: sessions,
		resets:   resets,
		mailer:   mailer,
		cfg:      cfg,
		log:      log,
	}
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

type AuthResult struct {
	AccessToken  string
	RefreshToken string
	Admin        models.AdminUser
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	admin, err := s.admins.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	ok, err := security.VerifyPassword(input.Password, admin.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, ErrInvalidCredentials
	}

	return s.openSession(ctx, admin, input.IPAddress, input.UserAgent)
}

func (s *AuthService) openSession(ctx context.Context, admin models.AdminUser, ip string, userAgent string) (AuthResult, error) {
	refreshToken, refreshHash, err := security.GenerateOpaqueToken(64)
	if err != nil {
		return AuthResult{}, err
	}

	session := models.AdminSession{
		ID:               ids.New(),
		AdminID:          admin.ID,
		RefreshTokenHash: refreshHash,
		IPAddress:        ip,
		UserAgent:        userAgent,
		ExpiresAt:        time.Now().Add(s.cfg.Security.RefreshTTL),
	}

	accessToken, err := security.GenerateAccessToken(
		s.cfg.Security.JWTAccessSecret,
		admin.ID,
		session.ID,
		s.cfg.Security.JWTAccessTTL,
	)
	if err != nil {
		return AuthResult{}, err
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return AuthResult{}, err
	}

	if err := s.enforceSessionLimit(ctx, admin.ID); err != nil {
		s.log.Warn().Err(err).Str("admin_id", admin.ID).Msg("enforce session limit failed")
	}

	return AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Admin:        admin,
	}, nil
}

func (s *AuthService) enforceSessionLimit(ctx context.Context, adminID string) error {
	count, err := s.sessions.CountByAdmin(ctx, adminID)
	if err != nil {
		return err
	}
	if count <= s.cfg.Security.MaxSessions {
		return nil
	}
	return s.sessions.DeleteOldest(ctx, adminID, s.cfg.Security.MaxSessions)
}

type RefreshInput struct {
	AdminID      string
	RefreshToken string
}

func (s *AuthService) Refresh(ctx context.Context, input RefreshInput) (AuthResult, error) {
	admin, err := s.admins.GetByID(ctx, input.AdminID)
	if err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	refreshHash := security.HashOpaqueToken(input.RefreshToken)
	session, err := s.sessions.FindByRefreshHash(ctx, input.AdminID, refreshHash)
	if err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	if session.ExpiresAt.Before(time.Now()) {
		_ = s.sessions.DeleteByID(ctx, session.ID)
		return AuthResult{}, ErrInvalidCredentials
	}

	refreshToken, newHash, err := security.GenerateOpaqueToken(64)
	if err != nil {
		return AuthResult{}, err
	}

	session.RefreshTokenHash = newHash
	session.ExpiresAt = time.Now().Add(s.cfg.Security.RefreshTTL)
	if err := s.sessions.Create(ctx, session); err != nil {
		return AuthResult{}, err
	}

	accessToken, err := security.GenerateAccessToken(
		s.cfg.Security.JWTAccessSecret,
		admin.ID,
		session.ID,
		s.cfg.Security.JWTAccessTTL,
	)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Admin:        admin,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.DeleteByID(ctx, sessionID)
}

// ForgotPassword mints a single-use reset token and mails it. An unknown
// email is reported as success so the endpoint cannot be used to probe for
// accounts; mailer failures surface verbatim.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = strings.TrimSpace(strings.ToLower(emailAddr))

	admin, err := s.admins.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			s.log.Debug().Str("email", emailAddr).Msg("reset requested for unknown email")
			return nil
		}
		return err
	}

	token, tokenHash, err := security.GenerateOpaqueToken(32)
	if err != nil {
		return err
	}

	reset := models.PasswordReset{
		AdminID:   admin.ID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(s.cfg.Security.ResetTokenTTL),
	}
	if err := s.resets.Upsert(ctx, reset); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordReset(admin.Email, token); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token string, newPassword string) error {
	reset, err := s.resets.FindByTokenHash(ctx, security.HashOpaqueToken(token))
	if err != nil {
		return ErrInvalidResetToken
	}
	if reset.ExpiresAt.Before(time.Now()) {
		_ = s.resets.Delete(ctx, reset.AdminID)
		return ErrInvalidResetToken
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.admins.UpdatePassword(ctx, reset.AdminID, passwordHash); err != nil {
		return err
	}
	return s.resets.Delete(ctx, reset.AdminID)
}

// EnsureBootstrapAdmin creates the configured operator account on first
// start so the tool is reachable without manual SQL.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, emailAddr string, password string) error {
	if emailAddr == "" || password == "" {
		return nil
	}
	emailAddr = strings.TrimSpace(strings.ToLower(emailAddr))

	if _, err := s.admins.FindByEmail(ctx, emailAddr); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrAdminNotFound) {
		return err
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.AdminUser{
		ID:           ids.New(),
		Email:        emailAddr,
		PasswordHash: passwordHash,
		DisplayName:  "Bootstrap Admin",
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return err
	}
	s.log.Info().Str("email", emailAddr).Str("admin_id", admin.ID).Msg("bootstrap admin created")
	return nil
}
