// Package auth registers users, checks credentials and resolves bearer
// tokens into identities.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ariefcatur/go-marketplace/internal/market"
	"github.com/google/uuid"
)

type Service struct {
	store  market.Store
	tokens *Tokens
	hasher Hasher
	logger *slog.Logger
}

func NewService(store market.Store, tokens *Tokens, hasher Hasher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, tokens: tokens, hasher: hasher, logger: logger}
}

type RegisterInput struct {
	Username string
	Password string
	Role     market.Role
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (market.Identity, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return market.Identity{}, market.Validation("Username is required")
	}
	if in.Password == "" {
		return market.Identity{}, market.Validation("Password is required")
	}
	if in.Role != market.RoleBuyer && in.Role != market.RoleSeller {
		return market.Identity{}, market.Validation("Role is required")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return market.Identity{}, err
	}

	user := market.User{ID: uuid.NewString(), Username: username, PasswordHash: hash}
	id := market.Identity{UserID: user.ID, Username: username, Role: in.Role, RoleID: uuid.NewString()}
	err = s.store.Atomic(ctx, func(tx market.Tx) error {
		if err := tx.InsertUser(ctx, user); err != nil {
			return err
		}
		if in.Role == market.RoleBuyer {
			return tx.InsertBuyer(ctx, market.Buyer{ID: id.RoleID, UserID: user.ID})
		}
		return tx.InsertSeller(ctx, market.Seller{ID: id.RoleID, UserID: user.ID})
	})
	if err != nil {
		if errors.Is(err, market.ErrUsernameTaken) {
			return market.Identity{}, err
		}
		return market.Identity{}, fmt.Errorf("register %s: %w", in.Role, err)
	}

	s.logger.Info("user registered", "event", "user_registered", "user_id", user.ID, "role", in.Role.String())
	return id, nil
}

// Login returns a signed token for valid credentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", market.Validation("Username and password are required")
	}

	var user market.User
	err := s.store.Read(ctx, func(tx market.Tx) error {
		var err error
		user, err = tx.UserByUsername(ctx, username)
		return err
	})
	if errors.Is(err, market.ErrNotFound) {
		return "", market.ErrAccountNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}

	ok, err := s.hasher.Matches(user.PasswordHash, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", market.ErrInvalidCredential
	}
	return s.tokens.Issue(user.ID)
}

// Authenticate resolves a bearer token to a stored identity. Every failure
// other than a storage error is ErrUnauthorized; a user deleted after the
// token was issued does not resolve.
func (s *Service) Authenticate(ctx context.Context, token string) (market.Identity, error) {
	subject, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.Debug("token rejected", "event", "token_rejected", "error", err.Error())
		return market.Identity{}, market.ErrUnauthorized
	}
	if _, err := uuid.Parse(subject); err != nil {
		return market.Identity{}, market.ErrUnauthorized
	}

	var id market.Identity
	err = s.store.Read(ctx, func(tx market.Tx) error {
		var err error
		id, err = tx.IdentityByUserID(ctx, subject)
		return err
	})
	if errors.Is(err, market.ErrNotFound) {
		return market.Identity{}, market.ErrUnauthorized
	}
	if err != nil {
		return market.Identity{}, fmt.Errorf("resolve identity: %w", err)
	}
	return id, nil
}
