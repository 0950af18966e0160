package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/zhouzirui/mindbloom/backend/internal/logging"
	"github.com/zhouzirui/mindbloom/backend/internal/model/user"
	"github.com/zhouzirui/mindbloom/backend/internal/storage"
)

// StorageKey is the session-scoped key holding the signed-in profile.
const StorageKey = "mindbloom_user"

// Service manages the signed-in profile.
type Service struct {
	verifier Verifier
	store    storage.KV
	logger   *zap.Logger
}

// NewService creates the service. A nil verifier disables sign-in.
func NewService(verifier Verifier, store storage.KV, logger *zap.Logger) *Service {
	return &Service{verifier: verifier, store: store, logger: logging.OrNop(logger)}
}

// Enabled reports whether sign-in is possible.
func (s *Service) Enabled() bool {
	return s.verifier != nil
}

// SignIn verifies credential and stores the resulting profile.
func (s *Service) SignIn(ctx context.Context, credential string) (user.Profile, error) {
	if s.verifier == nil {
		return user.Profile{}, ErrDisabled
	}

	claims, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		s.logger.Warn("credential rejected", zap.Error(err))
		return user.Profile{}, err
	}

	profile := user.Profile{
		Name:       claims.Name,
		Email:      claims.Email,
		Avatar:     claims.Picture,
		ExternalID: claims.Subject,
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return user.Profile{}, fmt.Errorf("encode profile: %w", err)
	}
	if err := s.store.Set(ctx, StorageKey, raw); err != nil {
		return user.Profile{}, fmt.Errorf("save profile: %w", err)
	}

	s.logger.Info("user signed in", zap.String("external_id", profile.ExternalID))
	return profile, nil
}

// Current returns the stored profile. A corrupt entry is removed and treated
// as signed out.
func (s *Service) Current(ctx context.Context) (user.Profile, bool, error) {
	raw, err := s.store.Get(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return user.Profile{}, false, nil
	}
	if err != nil {
		return user.Profile{}, false, fmt.Errorf("load profile: %w", err)
	}

	var profile user.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		s.logger.Warn("stored profile unreadable, removing", zap.Error(err))
		if delErr := s.store.Delete(ctx, StorageKey); delErr != nil {
			s.logger.Warn("remove corrupt profile failed", zap.Error(delErr))
		}
		return user.Profile{}, false, nil
	}
	return profile, true, nil
}

// SignOut removes the stored profile.
func (s *Service) SignOut(ctx context.Context) error {
	if err := s.store.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("remove profile: %w", err)
	}
	return nil
}
