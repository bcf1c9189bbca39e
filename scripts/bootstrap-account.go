package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/oklog/ulid/v2"

	"github.com/pictora/pictora/internal/auth"
	"github.com/pictora/pictora/internal/model"
	"github.com/pictora/pictora/internal/repository"
	"github.com/pictora/pictora/internal/service"
	"github.com/pictora/pictora/internal/validation"
)

type output struct {
	AccountID string `json:"account_id"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	ImageURL  string `json:"image_url"`
	Created   bool   `json:"created"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		baseURL     = flag.String("base-url", envOrDefault("BASE_URL", "http://localhost:8080"), "Public base URL for avatar links")
		email       = flag.String("email", "demo@pictora.local", "Account email")
		name        = flag.String("name", "Pictora Demo", "Display name")
		username    = flag.String("username", "demo", "Username")
		password    = flag.String("password", os.Getenv("BOOTSTRAP_PASSWORD"), "Account password (min 8 characters)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	form := validation.Signup{Name: *name, Username: *username, Email: *email, Password: *password}
	if err := form.Validate().Err(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL, repository.PoolOptions{MaxConns: 2})
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	out, err := ensureAccount(ctx, repo, service.NewAvatarService(*baseURL), *email, *name, *username, *password)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.UserID)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

// ensureAccount returns the existing profile for email, or creates the
// account and its profile.
func ensureAccount(
	ctx context.Context,
	repo *repository.Repository,
	avatars *service.AvatarService,
	email, name, username, password string,
) (*output, error) {
	existing, err := repo.GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		user, err := repo.GetUserByAccountID(ctx, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("account %s exists without a profile: %w", existing.ID, err)
		}
		return &output{
			AccountID: existing.ID,
			UserID:    user.ID,
			Email:     user.Email,
			Username:  user.Username,
			ImageURL:  user.ImageURL,
		}, nil
	case !errors.Is(err, repository.ErrAccountNotFound):
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := &model.Account{
		ID:           ulid.Make().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
	}
	if err := repo.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	user := &model.User{
		ID:        ulid.Make().String(),
		AccountID: account.ID,
		Name:      name,
		Username:  username,
		Email:     email,
		ImageURL:  avatars.InitialsURL(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		_ = repo.DeleteAccount(ctx, account.ID)
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &output{
		AccountID: account.ID,
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		ImageURL:  user.ImageURL,
		Created:   true,
	}, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
