package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/linemk/bookstore/internal/domain/apperr"
	"github.com/linemk/bookstore/internal/domain/models"
	security "github.com/linemk/bookstore/internal/jwt-new"
	"github.com/linemk/bookstore/internal/notify"
	"github.com/linemk/bookstore/internal/storage"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"
)

// AuthConfig - параметры выдачи токенов
type AuthConfig struct {
	Secret        string
	TokenTTL      time.Duration
	ResetTokenTTL time.Duration
	// FrontendURL - база для ссылки сброса пароля: <FrontendURL>/reset-password/<token>
	FrontendURL string
}

type AuthService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
	mailer   notify.Mailer
	cfg      AuthConfig
}

func NewAuthService(log *slog.Logger, userRepo storage.UserStorage, mailer notify.Mailer, cfg AuthConfig) *AuthService {
	return &AuthService{
		log:      log,
		userRepo: userRepo,
		mailer:   mailer,
		cfg:      cfg,
	}
}

type AuthServiceInterface interface {
	Register(ctx context.Context, username, email, password string) (string, models.PublicUser, error)
	Login(ctx context.Context, email, password string) (string, models.PublicUser, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создаёт пользователя и сразу выдаёт токен.
// Занятые email или username - apperr.ErrConflict.
func (a *AuthService) Register(ctx context.Context, username, email, password string) (string, models.PublicUser, error) {
	const op = "service.AuthService.Register"
	email = normalizeEmail(email)
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)

	// Хеширование пароля с помощью bcrypt (автоматически добавляет соль)
	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return "", models.PublicUser{}, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user, err := a.userRepo.CreateUser(ctx, &models.User{
		Username: norm.NFC.String(strings.TrimSpace(username)),
		Email:    email,
		PassHash: passHash,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			logger.Warn("user already exists")
			return "", models.PublicUser{}, fmt.Errorf("%s: user already exists: %w", op, err)
		}
		logger.Error("failed to create user", slog.Any("error", err))
		return "", models.PublicUser{}, fmt.Errorf("%s: failed to create user: %w", op, err)
	}

	token, err := security.NewToken(user, a.cfg.Secret, a.cfg.TokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", models.PublicUser{}, fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user registered", slog.Int64("userID", user.ID))
	return token, user.Public(), nil
}

// Login проверяет email и пароль. Неизвестный email и неверный пароль
// неразличимы для клиента: оба дают apperr.InvalidLogin.
func (a *AuthService) Login(ctx context.Context, email, password string) (string, models.PublicUser, error) {
	const op = "service.AuthService.Login"
	email = normalizeEmail(email)
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	logger.Info("checking user")

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
			return "", models.PublicUser{}, fmt.Errorf("%s: %w", op, apperr.Auth(apperr.InvalidLogin, err))
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return "", models.PublicUser{}, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	// Сравниваем введённый пароль с хэшированным паролем
	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return "", models.PublicUser{}, fmt.Errorf("%s: %w", op, apperr.Auth(apperr.InvalidLogin, err))
	}

	token, err := security.NewToken(user, a.cfg.Secret, a.cfg.TokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", models.PublicUser{}, fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user logged in successfully", slog.Int64("userID", user.ID))
	return token, user.Public(), nil
}

// ForgotPassword отправляет ссылку для сброса пароля.
// Письмо здесь - основная операция, поэтому его ошибка возвращается как apperr.ErrDependencyFailure.
func (a *AuthService) ForgotPassword(ctx context.Context, email string) error {
	const op = "service.AuthService.ForgotPassword"
	email = normalizeEmail(email)
	logger := a.log.With(slog.String("op", op), slog.String("email", email))

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
		} else {
			logger.Error("failed to get user", slog.Any("error", err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	token, err := security.NewResetToken(user, a.cfg.Secret, a.cfg.ResetTokenTTL)
	if err != nil {
		logger.Error("failed to generate reset token", slog.Any("error", err))
		return fmt.Errorf("%s: failed to generate reset token: %w", op, err)
	}

	msg, err := notify.RenderPasswordReset(notify.PasswordReset{
		To:        user.Email,
		Username:  user.Username,
		Link:      strings.TrimRight(a.cfg.FrontendURL, "/") + "/reset-password/" + token,
		ExpiresIn: a.cfg.ResetTokenTTL,
	})
	if err != nil {
		logger.Error("failed to render email", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.mailer.Send(ctx, msg); err != nil {
		logger.Error("failed to send reset email", slog.Any("error", err))
		return fmt.Errorf("%s: %w: %v", op, apperr.ErrDependencyFailure, err)
	}

	logger.Info("reset email sent", slog.Int64("userID", user.ID))
	return nil
}

// ResetPassword меняет пароль по токену сброса
func (a *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "service.AuthService.ResetPassword"
	logger := a.log.With(slog.String("op", op))

	userID, err := security.ParseToken(token, a.cfg.Secret, security.PurposeReset)
	if err != nil {
		logger.Warn("invalid reset token", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	if err := a.userRepo.UpdatePassword(ctx, userID, passHash); err != nil {
		logger.Error("failed to update password", slog.Any("error", err), slog.Int64("userID", userID))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("password reset", slog.Int64("userID", userID))
	return nil
}

// ResolveUser - источник пользователя для jwtmiddleware
func (a *AuthService) ResolveUser(ctx context.Context, id int64) (models.PublicUser, error) {
	user, err := a.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("service.AuthService.ResolveUser: %w", err)
	}
	return user.Public(), nil
}
