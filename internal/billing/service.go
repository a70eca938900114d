package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/shared"
)

// Service handles plans and subscription checks.
type Service struct {
	logger    *slog.Logger
	repo      RepositoryPort
	cache     *CheckCache
	processor *ProcessorClient
	group     singleflight.Group
	now       func() time.Time
}

// NewService builds a Service instance. The cache and processor may be nil in
// tests.
func NewService(logger *slog.Logger, repo RepositoryPort, cache *CheckCache, processor *ProcessorClient) *Service {
	return &Service{logger: logger, repo: repo, cache: cache, processor: processor, now: time.Now}
}

// Check reports whether the user's council subscription is in good standing.
// Concurrent checks for the same user collapse into one repository lookup.
func (s *Service) Check(ctx context.Context, userID string) (bool, error) {
	if checked, found, err := s.cache.Get(ctx, userID); err == nil && found {
		return checked, nil
	}
	result, err, _ := s.group.Do(userID, func() (any, error) {
		sub, err := s.repo.SubscriptionForUser(ctx, userID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		return sub.InGoodStanding(s.now()), nil
	})
	if err != nil {
		return false, err
	}
	checked := result.(bool)
	if err := s.cache.Set(ctx, userID, checked); err != nil {
		s.logger.Warn("failed to cache subscription verdict", "error", err)
	}
	return checked, nil
}

// CouncilSubscription returns the mirror row for a council, readable by its
// own members and admins.
func (s *Service) CouncilSubscription(ctx context.Context, subject authz.Identity, councilID string) (*Subscription, error) {
	ok, err := authz.IsAllowed(subject, authz.ActionRead, authz.ResourcePlan, &authz.Instance{CouncilID: councilID})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrForbidden
	}
	return s.repo.SubscriptionForCouncil(ctx, councilID)
}

// ListPlans returns visible plans. Inactive plans are admin only.
func (s *Service) ListPlans(ctx context.Context, subject authz.Identity) ([]Plan, error) {
	return s.repo.ListPlans(ctx, subject.IsAdmin())
}

// CreatePlan registers a new plan. Admin only.
func (s *Service) CreatePlan(ctx context.Context, subject authz.Identity, input PlanInput) (*Plan, error) {
	if !subject.IsAdmin() {
		return nil, shared.ErrForbidden
	}
	if err := validatePlan(input); err != nil {
		return nil, err
	}
	return s.repo.CreatePlan(ctx, input)
}

// UpdatePlan rewrites a plan. Admin only.
func (s *Service) UpdatePlan(ctx context.Context, subject authz.Identity, id string, input PlanInput) (*Plan, error) {
	if !subject.IsAdmin() {
		return nil, shared.ErrForbidden
	}
	if err := validatePlan(input); err != nil {
		return nil, err
	}
	return s.repo.UpdatePlan(ctx, id, input)
}

func validatePlan(input PlanInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("plan name is required")
	}
	if input.PriceCents < 0 {
		return fmt.Errorf("plan price must not be negative")
	}
	if input.MaxUsers <= 0 {
		return fmt.Errorf("plan user limit must be positive")
	}
	return nil
}

// SyncSubscriptions refreshes every mirror row from the processor. Rows whose
// processor lookup fails keep their previous state.
func (s *Service) SyncSubscriptions(ctx context.Context) (int, error) {
	if s.processor == nil {
		return 0, fmt.Errorf("billing: processor client not configured")
	}
	subs, err := s.repo.ListSubscriptions(ctx)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, sub := range subs {
		remote, err := s.processor.FetchSubscription(ctx, sub.ProcessorRef)
		if err != nil {
			s.logger.Warn("subscription sync skipped council",
				"council_id", sub.CouncilID, "error", err)
			continue
		}
		changed := sub.Status != remote.Status || !sub.CurrentPeriodEnd.Equal(remote.CurrentPeriodEnd)
		sub.Status = remote.Status
		sub.CurrentPeriodEnd = remote.CurrentPeriodEnd
		if err := s.repo.UpsertSubscription(ctx, sub); err != nil {
			return updated, err
		}
		updated++
		if changed {
			// Without this, a flipped verdict would keep serving from the
			// cache until the TTL runs out.
			s.dropCachedVerdicts(ctx, sub.CouncilID)
		}
	}
	return updated, nil
}

func (s *Service) dropCachedVerdicts(ctx context.Context, councilID string) {
	ids, err := s.repo.CouncilMemberIDs(ctx, councilID)
	if err != nil {
		s.logger.Warn("subscription sync could not resolve members for cache drop",
			"council_id", councilID, "error", err)
		return
	}
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn("subscription sync could not drop cached verdicts",
			"council_id", councilID, "error", err)
	}
}

var _ authz.SubscriptionChecker = (*Service)(nil)
