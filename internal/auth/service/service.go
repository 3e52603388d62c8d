// Package service implements account registration and token issuance.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kidsearch/internal/auth/models"
	"kidsearch/internal/auth/store"
	jwttoken "kidsearch/internal/jwt_token"
	dErrors "kidsearch/pkg/domain-errors"
	"kidsearch/pkg/email"
	"kidsearch/pkg/platform/sentinel"
)

// Recorder appends audit events. The audit outbox implements it; a nil
// recorder disables auditing.
type Recorder interface {
	Append(ctx context.Context, eventType string, payload any) error
}

// Service registers users and issues access tokens.
type Service struct {
	store    store.Store
	tokens   *jwttoken.JWTService
	tokenTTL time.Duration
	logger   *slog.Logger
	audit    Recorder
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAudit(recorder Recorder) Option {
	return func(s *Service) { s.audit = recorder }
}

func New(st store.Store, tokens *jwttoken.JWTService, tokenTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		store:    st,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account and returns a fresh access token. Missing
// names are derived from the email local part.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.TokenResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	firstName, lastName := req.FirstName, req.LastName
	if firstName == "" || lastName == "" {
		derivedFirst, derivedLast := email.DeriveNameFromEmail(req.Email)
		if firstName == "" {
			firstName = derivedFirst
		}
		if lastName == "" {
			lastName = derivedLast
		}
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.recordEvent(ctx, "user.registered", map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	})
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)

	return s.issueToken(user)
}

// Login verifies credentials and returns an access token.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResult, error) {
	user, err := s.store.UserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	return s.issueToken(user)
}

// User loads the account behind an authenticated request.
func (s *Service) User(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	return user, nil
}

func (s *Service) issueToken(user *models.User) (*models.TokenResult, error) {
	token, err := s.tokens.GenerateAccessToken(user.ID, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return &models.TokenResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokenTTL.Seconds()),
		UserID:      user.ID,
	}, nil
}

func (s *Service) recordEvent(ctx context.Context, eventType string, payload any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(ctx, eventType, payload); err != nil {
		s.logger.WarnContext(ctx, "failed to record audit event",
			"event_type", eventType,
			"error", fmt.Sprintf("%v", err),
		)
	}
}
