package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pictora/pictora/internal/auth"
	"github.com/pictora/pictora/internal/cache"
	"github.com/pictora/pictora/internal/metrics"
	"github.com/pictora/pictora/internal/model"
	"github.com/pictora/pictora/internal/repository"
	"github.com/pictora/pictora/internal/validation"
)

// AccountService handles sign-up, sign-in and session lifecycle.
type AccountService struct {
	accounts   AccountStore
	users      UserStore
	sessions   SessionStore
	avatars    *AvatarService
	sessionTTL time.Duration
	metrics    metrics.Recorder
	logger     *slog.Logger
	now        func() time.Time
}

// NewAccountService creates a new AccountService.
func NewAccountService(
	accounts AccountStore,
	users UserStore,
	sessions SessionStore,
	avatars *AvatarService,
	sessionTTL time.Duration,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *AccountService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AccountService{
		accounts:   accounts,
		users:      users,
		sessions:   sessions,
		avatars:    avatars,
		sessionTTL: sessionTTL,
		metrics:    recorder,
		logger:     logger.With("component", "service.account"),
		now:        time.Now,
	}
}

// CreateAccountInput defines input for signing up.
type CreateAccountInput struct {
	Name     string
	Username string
	Email    string
	Password string
}

// CreateUserAccount creates the account, then its profile document with an
// initials avatar. The account is removed again if the profile cannot be saved.
func (s *AccountService) CreateUserAccount(ctx context.Context, input CreateAccountInput) (*model.User, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	input.Username = strings.TrimSpace(input.Username)

	form := validation.Signup{
		Name:     input.Name,
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	}
	if err := form.Validate().Err(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &model.Account{
		ID:           newID(),
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	user, err := s.SaveUserToDB(ctx, SaveUserInput{
		AccountID: account.ID,
		Email:     account.Email,
		Name:      account.Name,
		ImageURL:  s.avatars.InitialsURL(account.Name),
		Username:  input.Username,
	})
	if err != nil {
		if delErr := s.accounts.DeleteAccount(ctx, account.ID); delErr != nil {
			s.logger.Error("failed to remove account after profile error",
				"account_id", account.ID,
				"error", delErr,
			)
		}
		return nil, err
	}

	s.metrics.IncAccountCreated()
	s.logger.Info("account created", "account_id", account.ID, "user_id", user.ID)

	return user, nil
}

// SaveUserInput defines the profile document written for a new account.
type SaveUserInput struct {
	AccountID string
	Email     string
	Name      string
	ImageURL  string
	Username  string
}

// SaveUserToDB writes a profile document for an existing account.
func (s *AccountService) SaveUserToDB(ctx context.Context, input SaveUserInput) (*model.User, error) {
	if input.AccountID == "" {
		return nil, ErrMissingIdentifier
	}

	now := s.now().UTC()
	user := &model.User{
		ID:        newID(),
		AccountID: input.AccountID,
		Name:      input.Name,
		Username:  input.Username,
		Email:     input.Email,
		ImageURL:  input.ImageURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	return user, nil
}

// SignInInput defines input for an email/password session.
type SignInInput struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

// SignInResult carries the new session and the token handed to the client.
type SignInResult struct {
	Session *model.Session
	Token   string
}

// rehashIfNeeded upgrades a password hash made with an older Argon2 cost.
// Failures are logged and never block the sign-in.
func (s *AccountService) rehashIfNeeded(ctx context.Context, account *model.Account, password string) {
	if !auth.NeedsRehash(account.PasswordHash) {
		return
	}
	hash, err := auth.HashPassword(password)
	if err == nil {
		err = s.accounts.UpdatePasswordHash(ctx, account.ID, hash)
	}
	if err != nil {
		s.logger.Warn("failed to upgrade password hash",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Info("upgraded password hash", slog.String("account_id", account.ID))
}

// SignInAccount verifies credentials and opens a session.
func (s *AccountService) SignInAccount(ctx context.Context, input SignInInput) (*SignInResult, error) {
	account, err := s.accounts.GetAccountByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			auth.BurnPasswordCheck(input.Password)
			s.metrics.IncSignInFailed()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	ok, err := auth.VerifyPassword(input.Password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.metrics.IncSignInFailed()
		return nil, ErrInvalidCredentials
	}
	s.rehashIfNeeded(ctx, account, input.Password)

	now := s.now().UTC()
	session := &model.Session{
		ID:        newSessionID(),
		AccountID: account.ID,
		Provider:  model.SessionProviderEmail,
		IP:        input.IP,
		UserAgent: input.UserAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	token, err := auth.GenerateSessionToken(session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	if err := s.sessions.CreateSession(ctx, token.Hash, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.metrics.IncSessionCreated()
	s.logger.Info("session created", "account_id", account.ID, "session_id", session.ID)

	return &SignInResult{Session: session, Token: token.Plaintext}, nil
}

// ResolveSession turns a plaintext token into the authenticated context.
func (s *AccountService) ResolveSession(ctx context.Context, token string) (*model.AuthContext, error) {
	parsed, err := auth.ParseSessionToken(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	hash := auth.QuickHash(token)
	session, err := s.sessions.GetSession(ctx, hash)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if session.ID != parsed.SessionID || session.IsExpired(s.now()) {
		return nil, ErrUnauthenticated
	}

	return &model.AuthContext{
		SessionID: session.ID,
		AccountID: session.AccountID,
		TokenHash: hash,
	}, nil
}

// GetCurrentUser returns the profile of the signed-in account.
func (s *AccountService) GetCurrentUser(ctx context.Context, accountID string) (*model.User, error) {
	if accountID == "" {
		return nil, ErrUnauthenticated
	}

	account, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	user, err := s.users.GetUserByAccountID(ctx, account.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	return user, nil
}

// SignOutAccount deletes the current session.
func (s *AccountService) SignOutAccount(ctx context.Context, authCtx *model.AuthContext) (model.Status, error) {
	if authCtx == nil || authCtx.TokenHash == "" {
		return model.Status{}, ErrUnauthenticated
	}

	if err := s.sessions.DeleteSession(ctx, authCtx.TokenHash, authCtx.AccountID); err != nil {
		return model.Status{}, fmt.Errorf("failed to delete session: %w", err)
	}

	s.logger.Info("session deleted", "account_id", authCtx.AccountID, "session_id", authCtx.SessionID)
	return model.StatusOK, nil
}

// SignOutEverywhere deletes every session issued to the caller's account,
// the current one included.
func (s *AccountService) SignOutEverywhere(ctx context.Context, authCtx *model.AuthContext) (model.Status, error) {
	if authCtx == nil || authCtx.AccountID == "" {
		return model.Status{}, ErrUnauthenticated
	}

	if err := s.sessions.DeleteAccountSessions(ctx, authCtx.AccountID); err != nil {
		return model.Status{}, fmt.Errorf("failed to delete account sessions: %w", err)
	}

	s.logger.Info("all sessions deleted", "account_id", authCtx.AccountID)
	return model.StatusOK, nil
}

// newID returns a document ID.
func newID() string {
	return ulid.Make().String()
}

// newSessionID returns the lowercase ULID embedded in session tokens.
func newSessionID() string {
	return strings.ToLower(ulid.Make().String())
}
