package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/casedesk/casedesk/pkg/errors"
)

// WarmupInput selects the users whose permission sets should be resolved and
// cached ahead of first access. Any combination of the fields may be set.
type WarmupInput struct {
	UserIDs   []string
	CompanyID string
	RoleID    string
}

// WarmupError reports a per-user resolution failure that did not abort the batch.
type WarmupError struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// WarmupResult summarises a warmup run.
type WarmupResult struct {
	WarmedCount    int           `json:"warmed_count"`
	UsersProcessed int           `json:"users_processed"`
	DurationMS     int64         `json:"duration_ms"`
	Errors         []WarmupError `json:"errors"`
}

// Warmup proactively resolves and caches each matching user against their own
// company. Individual resolution failures are collected, not fatal; failures
// to enumerate users by company or role abort the request.
func (s *PermissionService) Warmup(ctx context.Context, input WarmupInput) (WarmupResult, error) {
	ctx = ensureContext(ctx)

	input.CompanyID = strings.TrimSpace(input.CompanyID)
	input.RoleID = strings.TrimSpace(input.RoleID)
	if len(input.UserIDs) == 0 && input.CompanyID == "" && input.RoleID == "" {
		return WarmupResult{}, apperrors.NewInvalidInput("at least one warmup target is required")
	}

	started := s.now()

	targets := make([]string, 0, len(input.UserIDs))
	seen := make(map[string]struct{}, len(input.UserIDs))
	appendTargets := func(ids []string) {
		for _, id := range ids {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			targets = append(targets, id)
		}
	}

	appendTargets(input.UserIDs)

	if input.CompanyID != "" {
		ids, err := s.store.ListUserIDsByCompany(ctx, input.CompanyID)
		if err != nil {
			return WarmupResult{}, err
		}
		appendTargets(ids)
	}

	if input.RoleID != "" {
		ids, err := s.store.ListUserIDsByRole(ctx, input.RoleID)
		if err != nil {
			return WarmupResult{}, err
		}
		appendTargets(ids)
	}

	result := WarmupResult{
		UsersProcessed: len(targets),
		Errors:         make([]WarmupError, 0),
	}

	for _, userID := range targets {
		set, err := s.resolver.Resolve(ctx, userID, "")
		if err != nil {
			// sanitised message: per-user failures travel back to the caller
			result.Errors = append(result.Errors, WarmupError{
				UserID:  userID,
				Message: apperrors.FromError(err).Message,
			})
			continue
		}
		// populate both request shapes: implied company and explicit company
		s.cache.Put(userID, "", set)
		if set.CompanyID != "" {
			s.cache.Put(userID, set.CompanyID, set)
		}
		result.WarmedCount++
	}

	result.DurationMS = s.now().Sub(started).Milliseconds()

	s.log.Info("cache warmup finished",
		zap.Int("processed", result.UsersProcessed),
		zap.Int("warmed", result.WarmedCount),
		zap.Int("failed", len(result.Errors)),
		zap.Int64("duration_ms", result.DurationMS),
	)

	return result, nil
}
