package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/logger"
	"lendhub-backend/internal/repository"
	"lendhub-backend/internal/security"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type authService struct {
	store  repository.Store
	tokens security.TokenManager
}

func NewAuthService(store repository.Store, tokens security.TokenManager) AuthService {
	return &authService{store: store, tokens: tokens}
}

func (s *authService) Signup(ctx context.Context, email, firstName, lastName, password string) (*domain.Holder, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	if _, err := s.store.Holders().GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	tier, err := s.lowestTier(ctx)
	if err != nil {
		return nil, err
	}

	holder := &domain.Holder{
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: string(hash),
		TierID:       tier.ID,
		TierPrio:     tier.Prio,
	}
	if err := s.store.Holders().Create(ctx, holder); err != nil {
		return nil, err
	}

	logger.Info("holder signed up", "holder_id", holder.ID, "tier", tier.Name)
	return holder, nil
}

// lowestTier returns the tier new accounts start in: the one with the highest
// prio number, i.e. the back of the queue.
func (s *authService) lowestTier(ctx context.Context) (*domain.PriorityTier, error) {
	tiers, err := s.store.Policies().ListTiers(ctx)
	if err != nil {
		return nil, err
	}
	if len(tiers) == 0 {
		return nil, fmt.Errorf("no priority tiers configured")
	}
	return &tiers[len(tiers)-1], nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, string, error) {
	holder, err := s.store.Holders().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(holder.PasswordHash), []byte(password)); err != nil {
		return "", "", ErrInvalidCredentials
	}

	access, err := s.tokens.GenerateAccessToken(holder.ID, holder.Email, holder.Staff)
	if err != nil {
		return "", "", err
	}
	refresh, err := s.tokens.GenerateRefreshToken(holder.ID, holder.Email)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *authService) RefreshToken(ctx context.Context, refresh string) (string, error) {
	claims, err := s.tokens.ValidateToken(refresh)
	if err != nil {
		return "", err
	}
	if claims.Type != security.TokenTypeRefresh {
		return "", security.ErrWrongTokenType
	}
	// The staff flag lives on the holder, not the refresh token.
	holder, err := s.store.Holders().GetByID(ctx, claims.HolderID)
	if err != nil {
		return "", err
	}
	return s.tokens.GenerateAccessToken(holder.ID, holder.Email, holder.Staff)
}

func (s *authService) GetHolder(ctx context.Context, holderID int64) (*domain.Holder, error) {
	return s.store.Holders().GetByID(ctx, holderID)
}

// VerifyHolder marks the account verified and promotes it out of the starting
// tier to the nearest better one, when a better one exists.
func (s *authService) VerifyHolder(ctx context.Context, holderID int64) error {
	holder, err := s.store.Holders().GetByID(ctx, holderID)
	if err != nil {
		return err
	}
	if holder.Verified {
		return nil
	}
	holder.Verified = true

	tiers, err := s.store.Policies().ListTiers(ctx)
	if err != nil {
		return err
	}
	for i := len(tiers) - 1; i >= 0; i-- {
		if tiers[i].Prio < holder.TierPrio {
			holder.TierID = tiers[i].ID
			holder.TierPrio = tiers[i].Prio
			break
		}
	}
	return s.store.Holders().Update(ctx, holder)
}
