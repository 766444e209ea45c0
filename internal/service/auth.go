package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	security "github.com/linemk/qris-shop/internal/jwt-new"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	log          *slog.Logger
	botTokenHash []byte
	jwtSecret    string
	tokenTTL     time.Duration
}

type AuthServiceInterface interface {
	Login(ctx context.Context, userID int64, botToken string) (string, error)
}

// NewAuthService хэширует токен чат-бота один раз при старте,
// в памяти процесса открытый токен не хранится.
func NewAuthService(log *slog.Logger, botToken, jwtSecret string, tokenTTL time.Duration) (*AuthService, error) {
	const op = "service.NewAuthService"

	hash, err := bcrypt.GenerateFromPassword([]byte(botToken), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to hash bot token: %w", op, err)
	}

	return &AuthService{
		log:          log,
		botTokenHash: hash,
		jwtSecret:    jwtSecret,
		tokenTTL:     tokenTTL,
	}, nil
}

// Login выдаёт JWT покупателю userID. Запрос приходит от шлюза чата,
// который подтверждает себя токеном бота.
func (a *AuthService) Login(ctx context.Context, userID int64, botToken string) (string, error) {
	const op = "service.AuthService.Login"
	logger := a.log.With(
		slog.String("op", op),
		slog.Int64("user_id", userID),
	)

	if userID <= 0 {
		logger.Warn("invalid user id")
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword(a.botTokenHash, []byte(botToken)); err != nil {
		logger.Warn("invalid bot token")
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := security.NewToken(userID, a.jwtSecret, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("buyer logged in")
	return token, nil
}
